package pdfmerger

import (
	"io"
	"log/slog"

	"github.com/lvillar/pdfmerger/codec"
)

// Option is a functional option for configuring an Engine via New.
type Option func(*engineConfig)

type engineConfig struct {
	codec  codec.Codec
	logger *slog.Logger
}

// WithCodec sets the codec used to read sources and write the merged document.
// Use codec.NewPDFCPU (the default) to keep page content and record rotation in
// /Rotate, or codec.NewTemplate to draw rotation into the page content.
func WithCodec(c codec.Codec) Option {
	return func(cfg *engineConfig) {
		cfg.codec = c
	}
}

// WithLogger sets the logger for engine events. Logging is discarded by default.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *engineConfig) {
		cfg.logger = l
	}
}

// New creates an empty merge session.
//
// Example:
//
//	e := pdfmerger.New(
//	    pdfmerger.WithCodec(codec.NewPDFCPU()),
//	    pdfmerger.WithLogger(slog.Default()),
//	)
func New(opts ...Option) *Engine {
	cfg := &engineConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.codec == nil {
		cfg.codec = codec.NewPDFCPU()
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		codec:     cfg.codec,
		log:       cfg.logger,
		rotations: make(map[string]map[int]Rotation),
	}
}
