package preview

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"strconv"
	"strings"
)

// DefaultDPI is the resolution previews are rendered at.
const DefaultDPI = 150

// Rasterizer renders a single page of a PDF file to an image.
type Rasterizer interface {
	// Rasterize renders page (1-based) of the file at path at dpi.
	Rasterize(ctx context.Context, path string, page, dpi int) (image.Image, error)
}

// Poppler rasterizes pages with poppler's pdftoppm command.
type Poppler struct {
	// Binary is the pdftoppm executable. Empty means "pdftoppm" from PATH.
	Binary string
}

func (p *Poppler) binary() string {
	if p.Binary == "" {
		return "pdftoppm"
	}
	return p.Binary
}

// Available reports an error if the pdftoppm executable cannot be found.
func (p *Poppler) Available() error {
	if _, err := exec.LookPath(p.binary()); err != nil {
		return fmt.Errorf("preview: pdftoppm not installed (install poppler-utils): %w", err)
	}
	return nil
}

// Rasterize runs pdftoppm for one page and decodes the PNG it writes to stdout.
func (p *Poppler) Rasterize(ctx context.Context, path string, page, dpi int) (image.Image, error) {
	if page < 1 {
		return nil, fmt.Errorf("preview: page %d out of range", page)
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	n := strconv.Itoa(page)
	cmd := exec.CommandContext(ctx, p.binary(),
		"-f", n,
		"-l", n,
		"-png",
		"-singlefile",
		"-r", strconv.Itoa(dpi),
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("preview: pdftoppm: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("preview: pdftoppm produced no image for page %d of %s", page, path)
	}

	img, err := png.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("preview: decoding pdftoppm output: %w", err)
	}
	return img, nil
}
