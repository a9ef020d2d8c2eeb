// Command pdfmerger merges PDF files into one, with per-page rotation.
//
// # Merging
//
//	pdfmerger -o merged.pdf cover.pdf scan.pdf appendix.pdf
//	pdfmerger -rotate scan.pdf:2 -rotate scan.pdf:3:180 -o merged.pdf cover.pdf scan.pdf
//
// Pages given to -rotate are 1-based; the angle defaults to 90 degrees
// clockwise and may be any multiple of 90. With -flatten, rotations are
// drawn into the page content instead of being stored as page metadata.
//
// # Previews
//
//	pdfmerger -preview scan.pdf:2 -rotate scan.pdf:2 -o page2.png
//
// Previews need poppler's pdftoppm.
//
// # MCP server
//
//	pdfmerger -serve-mcp
//
// Settings are read from pdfmerger.yml in the working directory, or from the
// file given with -config.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/lvillar/pdfmerger"
	"github.com/lvillar/pdfmerger/codec"
	"github.com/lvillar/pdfmerger/internal/config"
	"github.com/lvillar/pdfmerger/internal/output"
	"github.com/lvillar/pdfmerger/mcp"
	"github.com/lvillar/pdfmerger/preview"
)

// version is set by the linker at build time.
var version = "dev"

// CLI flags parsed from command line.
type cliFlags struct {
	Config   string
	Output   string
	Flatten  bool
	Rotate   rotateFlags
	Preview  string
	ServeMCP bool
	Verbose  bool
	Version  bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var flags cliFlags

	fs := flag.NewFlagSet("pdfmerger", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&flags.Config, "config", "", "configuration file (default: pdfmerger.yml in the working directory)")
	fs.StringVar(&flags.Output, "o", "", "output file")
	fs.BoolVar(&flags.Flatten, "flatten", false, "draw rotations into page content")
	fs.Var(&flags.Rotate, "rotate", "rotate a page, as file:page[:degrees] (repeatable)")
	fs.StringVar(&flags.Preview, "preview", "", "render file:page as PNG into -o instead of merging")
	fs.BoolVar(&flags.ServeMCP, "serve-mcp", false, "run as MCP server on stdio")
	fs.BoolVar(&flags.Verbose, "verbose", false, "enable debug logging")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: pdfmerger [flags] -o merged.pdf file.pdf...")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if flags.Version {
		fmt.Fprintln(stdout, version)
		return nil
	}

	cfg, err := loadConfig(flags.Config)
	if err != nil {
		return err
	}
	if flags.Flatten {
		cfg.Codec.Flatten = true
	}

	logger, err := newLogger(cfg, flags.Verbose, stderr)
	if err != nil {
		return err
	}
	engine := pdfmerger.New(
		pdfmerger.WithCodec(newCodec(cfg)),
		pdfmerger.WithLogger(logger),
	)

	switch {
	case flags.ServeMCP:
		return serveMCP(ctx, engine, cfg, logger)
	case flags.Preview != "":
		return renderPreview(ctx, engine, cfg, logger, flags)
	default:
		return merge(engine, flags, fs.Args(), stdout)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load(".")
}

func newLogger(cfg *config.Config, verbose bool, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

func newCodec(cfg *config.Config) codec.Codec {
	var opts []codec.PDFCPUOption
	if cfg.Strict() {
		opts = append(opts, codec.WithStrictValidation())
	}
	if cfg.Codec.Flatten {
		return codec.NewTemplate(opts...)
	}
	return codec.NewPDFCPU(opts...)
}

func newPreviewer(engine *pdfmerger.Engine, cfg *config.Config, logger *slog.Logger) (*preview.Previewer, error) {
	raster := &preview.Poppler{Binary: cfg.Preview.Pdftoppm}
	if err := raster.Available(); err != nil {
		return nil, err
	}
	return preview.New(engine, raster,
		preview.WithDPI(cfg.Preview.DPI),
		preview.WithCacheSize(cfg.Preview.CacheSize),
		preview.WithMaxSize(cfg.Preview.MaxWidth, cfg.Preview.MaxHeight),
		preview.WithLogger(logger),
	)
}

func merge(engine *pdfmerger.Engine, flags cliFlags, files []string, stdout io.Writer) error {
	if flags.Output == "" {
		return errors.New("missing -o output file")
	}
	if len(files) == 0 {
		return errors.New("no input files")
	}

	for _, f := range files {
		engine.AddDocument(f)
	}
	if err := flags.Rotate.apply(engine); err != nil {
		return err
	}

	if err := output.WriteFile(flags.Output, engine.MergeTo); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "merged %d documents into %s\n", engine.Len(), flags.Output)
	return nil
}

func renderPreview(ctx context.Context, engine *pdfmerger.Engine, cfg *config.Config, logger *slog.Logger, flags cliFlags) error {
	if flags.Output == "" {
		return errors.New("missing -o output file")
	}
	target, err := parsePageRef(flags.Preview)
	if err != nil {
		return fmt.Errorf("-preview: %w", err)
	}

	engine.AddDocument(target.file)
	if err := flags.Rotate.apply(engine); err != nil {
		return err
	}

	p, err := newPreviewer(engine, cfg, logger)
	if err != nil {
		return err
	}
	if cfg.Preview.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Preview.Timeout)
		defer cancel()
	}

	data, err := p.RenderPNG(ctx, target.file, target.page-1)
	if err != nil {
		return err
	}
	return output.WriteBytes(flags.Output, data)
}

func serveMCP(ctx context.Context, engine *pdfmerger.Engine, cfg *config.Config, logger *slog.Logger) error {
	p, err := newPreviewer(engine, cfg, logger)
	if err != nil {
		logger.Warn("previews disabled", "error", err)
		p = nil
	}
	session := mcp.NewSession(engine, p,
		mcp.WithLogger(logger),
		mcp.WithPreviewTimeout(cfg.Preview.Timeout),
	)
	return mcp.Run(ctx, session)
}

// pageRef is a file:page[:degrees] argument. page is 1-based.
type pageRef struct {
	file    string
	page    int
	degrees int
}

// parsePageRef splits from the right so that file names may contain colons.
func parsePageRef(s string) (pageRef, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return pageRef{}, fmt.Errorf("%q: want file:page[:degrees]", s)
	}

	ref := pageRef{degrees: int(pdfmerger.Rotate90)}
	withDegrees := false
	if len(parts) >= 3 {
		if page, err := strconv.Atoi(parts[len(parts)-2]); err == nil {
			deg, err := strconv.Atoi(parts[len(parts)-1])
			if err != nil {
				return pageRef{}, fmt.Errorf("%q: bad degrees: %w", s, err)
			}
			ref.page, ref.degrees = page, deg
			parts = parts[:len(parts)-2]
			withDegrees = true
		}
	}
	if !withDegrees {
		page, err := strconv.Atoi(parts[len(parts)-1])
		if err != nil {
			return pageRef{}, fmt.Errorf("%q: bad page number: %w", s, err)
		}
		ref.page = page
		parts = parts[:len(parts)-1]
	}

	ref.file = strings.Join(parts, ":")
	if ref.file == "" {
		return pageRef{}, fmt.Errorf("%q: missing file", s)
	}
	if ref.page < 1 {
		return pageRef{}, fmt.Errorf("%q: pages start at 1", s)
	}
	return ref, nil
}

// rotateFlags collects repeated -rotate values.
type rotateFlags []pageRef

func (r *rotateFlags) String() string {
	parts := make([]string, len(*r))
	for i, ref := range *r {
		parts[i] = fmt.Sprintf("%s:%d:%d", ref.file, ref.page, ref.degrees)
	}
	return strings.Join(parts, ",")
}

func (r *rotateFlags) Set(s string) error {
	ref, err := parsePageRef(s)
	if err != nil {
		return err
	}
	*r = append(*r, ref)
	return nil
}

func (r rotateFlags) apply(engine *pdfmerger.Engine) error {
	for _, ref := range r {
		if _, err := engine.RotatePageBy(ref.file, ref.page-1, ref.degrees); err != nil {
			return fmt.Errorf("-rotate %s:%d: %w", ref.file, ref.page, err)
		}
	}
	return nil
}
