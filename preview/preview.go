// Package preview renders page previews for a merge session.
//
// Pages are rasterized by an external renderer, turned by the session's
// rotation override and kept in a bounded cache keyed by document, page and
// rotation. Removing a document from the session drops its previews.
// Preview failures never affect the session itself.
package preview

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/lvillar/pdfmerger"
)

// Defaults for a Previewer.
const (
	DefaultCacheSize   = 64
	DefaultMaxWidth    = 800
	DefaultMaxHeight   = 800
	DefaultConcurrency = 4
)

// Error reports a page that could not be previewed.
type Error struct {
	DocumentID string
	PageIndex  int
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("preview: page %d of %s: %v", e.PageIndex+1, e.DocumentID, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Option configures a Previewer.
type Option func(*Previewer)

// WithDPI sets the rasterization resolution.
func WithDPI(dpi int) Option {
	return func(p *Previewer) {
		p.dpi = dpi
	}
}

// WithCacheSize sets how many rendered pages are kept.
func WithCacheSize(n int) Option {
	return func(p *Previewer) {
		p.cacheSize = n
	}
}

// WithMaxSize sets the box RenderPNG fits previews into.
func WithMaxSize(width, height int) Option {
	return func(p *Previewer) {
		p.maxWidth = width
		p.maxHeight = height
	}
}

// WithConcurrency limits parallel rasterizations in Prefetch.
func WithConcurrency(n int) Option {
	return func(p *Previewer) {
		p.concurrency = n
	}
}

// WithLogger sets the logger for preview events.
func WithLogger(l *slog.Logger) Option {
	return func(p *Previewer) {
		p.log = l
	}
}

// Previewer renders pages of the documents in an engine's session.
// Render and RenderPNG read engine state and must be serialized with other
// engine calls, like any engine method.
type Previewer struct {
	engine      *pdfmerger.Engine
	raster      Rasterizer
	cache       *Cache
	cacheSize   int
	dpi         int
	maxWidth    int
	maxHeight   int
	concurrency int
	log         *slog.Logger
}

// New creates a Previewer for engine and subscribes it to document removals.
func New(engine *pdfmerger.Engine, r Rasterizer, opts ...Option) (*Previewer, error) {
	p := &Previewer{
		engine:      engine,
		raster:      r,
		cacheSize:   DefaultCacheSize,
		dpi:         DefaultDPI,
		maxWidth:    DefaultMaxWidth,
		maxHeight:   DefaultMaxHeight,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	cache, err := NewCache(p.cacheSize)
	if err != nil {
		return nil, err
	}
	p.cache = cache

	engine.OnRemove(func(id string) {
		n := p.cache.InvalidateDocument(id)
		p.log.Debug("previews invalidated", "id", id, "count", n)
	})
	return p, nil
}

// Cache returns the preview cache.
func (p *Previewer) Cache() *Cache {
	return p.cache
}

// Render returns page pageIndex (zero-based) of document id, rotated by the
// session's override for that page.
func (p *Previewer) Render(ctx context.Context, id string, pageIndex int) (image.Image, error) {
	id = filepath.Clean(id)
	rot, err := p.engine.Rotation(id, pageIndex)
	if err != nil {
		return nil, err
	}
	return p.render(ctx, Key{DocumentID: id, PageIndex: pageIndex, Rotation: rot})
}

// RenderPNG renders a page, fits it into the configured box and encodes it as PNG.
func (p *Previewer) RenderPNG(ctx context.Context, id string, pageIndex int) ([]byte, error) {
	img, err := p.Render(ctx, id, pageIndex)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, Fit(img, p.maxWidth, p.maxHeight)); err != nil {
		return nil, &Error{DocumentID: filepath.Clean(id), PageIndex: pageIndex, Err: err}
	}
	return buf.Bytes(), nil
}

// Prefetch renders the given pages of document id into the cache, several at
// a time. Rotations are read from the engine before any rendering starts.
func (p *Previewer) Prefetch(ctx context.Context, id string, pageIndexes ...int) error {
	id = filepath.Clean(id)
	keys := make([]Key, 0, len(pageIndexes))
	for _, i := range pageIndexes {
		rot, err := p.engine.Rotation(id, i)
		if err != nil {
			return err
		}
		keys = append(keys, Key{DocumentID: id, PageIndex: i, Rotation: rot})
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, p.concurrency))
	for _, k := range keys {
		g.Go(func() error {
			_, err := p.render(ctx, k)
			return err
		})
	}
	return g.Wait()
}

func (p *Previewer) render(ctx context.Context, k Key) (image.Image, error) {
	if k.PageIndex < 0 {
		return nil, &Error{DocumentID: k.DocumentID, PageIndex: k.PageIndex, Err: pdfmerger.ErrOutOfRange}
	}
	if img, ok := p.cache.Get(k); ok {
		return img, nil
	}

	src, err := p.raster.Rasterize(ctx, k.DocumentID, k.PageIndex+1, p.dpi)
	if err != nil {
		p.log.Warn("preview failed", "id", k.DocumentID, "page", k.PageIndex, "error", err)
		return nil, &Error{DocumentID: k.DocumentID, PageIndex: k.PageIndex, Err: err}
	}

	img := Rotate(src, int(k.Rotation))
	p.cache.Add(k, img)
	return img, nil
}
