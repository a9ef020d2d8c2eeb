package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// PDFCPU is a Codec backed by pdfcpu. Page content is carried over unchanged
// and rotation is recorded in each page's /Rotate entry.
type PDFCPU struct {
	strict bool
}

// PDFCPUOption configures a PDFCPU codec.
type PDFCPUOption func(*PDFCPU)

// WithStrictValidation rejects documents that only pass pdfcpu's relaxed validation.
func WithStrictValidation() PDFCPUOption {
	return func(c *PDFCPU) {
		c.strict = true
	}
}

var disableUserConfig sync.Once

// NewPDFCPU creates a pdfcpu codec. pdfcpu's on-disk user configuration is
// never created or read.
func NewPDFCPU(opts ...PDFCPUOption) *PDFCPU {
	disableUserConfig.Do(func() { model.ConfigPath = "disable" })
	c := &PDFCPU{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *PDFCPU) newConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if c.strict {
		conf.ValidationMode = model.ValidationStrict
	}
	return conf
}

// Open reads and validates the PDF at path.
func (c *PDFCPU) Open(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("codec: opening %s: %w", path, err)
	}
	doc, err := c.Read(path, data)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Read parses an in-memory PDF. name is reported by Document.Path.
func (c *PDFCPU) Read(name string, data []byte) (*PDFDocument, error) {
	conf := c.newConfig()
	conf.Cmd = model.ROTATE

	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("codec: parsing %s: %w", name, err)
	}
	if ctx.PageCount == 0 {
		return nil, fmt.Errorf("codec: parsing %s: document has no pages", name)
	}

	doc := &PDFDocument{path: name, ctx: ctx}
	doc.pages = make([]*PDFPage, ctx.PageCount)
	for i := range doc.pages {
		doc.pages[i] = &PDFPage{doc: doc, number: i + 1}
	}
	return doc, nil
}

// Write joins pages into one document. Consecutive pages of the same source
// form a run; each run is cut from its source and the runs are merged in order.
func (c *PDFCPU) Write(w io.Writer, pages []Page) error {
	if len(pages) == 0 {
		return errors.New("codec: no pages to write")
	}

	runs, err := splitRuns(pages)
	if err != nil {
		return err
	}

	encoded := make(map[*PDFDocument][]byte)
	streams := make([]io.ReadSeeker, 0, len(runs))
	for _, r := range runs {
		data, ok := encoded[r.doc]
		if !ok {
			var buf bytes.Buffer
			if err := api.WriteContext(r.doc.ctx, &buf); err != nil {
				return fmt.Errorf("codec: writing %s: %w", r.doc.path, err)
			}
			data = buf.Bytes()
			encoded[r.doc] = data
		}

		if !r.complete() {
			var buf bytes.Buffer
			if err := api.Collect(bytes.NewReader(data), &buf, r.selection(), c.newConfig()); err != nil {
				return fmt.Errorf("codec: selecting pages of %s: %w", r.doc.path, err)
			}
			data = buf.Bytes()
		}
		streams = append(streams, bytes.NewReader(data))
	}

	var out bytes.Buffer
	if err := api.MergeRaw(streams, &out, false, c.newConfig()); err != nil {
		return fmt.Errorf("codec: merging %d page runs: %w", len(runs), err)
	}
	_, err = out.WriteTo(w)
	return err
}

// writeClassic serializes d with a plain cross-reference table and no object
// streams, the only layout gofpdi can import.
func (c *PDFCPU) writeClassic(d *PDFDocument) ([]byte, error) {
	d.ctx.Configuration.WriteObjectStream = false
	d.ctx.Configuration.WriteXRefStream = false

	var buf bytes.Buffer
	if err := api.WriteContext(d.ctx, &buf); err != nil {
		return nil, fmt.Errorf("codec: rewriting %s: %w", d.path, err)
	}
	return buf.Bytes(), nil
}

// PDFDocument is a document parsed by PDFCPU.
type PDFDocument struct {
	path  string
	ctx   *model.Context
	pages []*PDFPage
}

// Path returns the name the document was opened with.
func (d *PDFDocument) Path() string { return d.path }

// Pages returns the document's pages in order.
func (d *PDFDocument) Pages() []Page {
	pages := make([]Page, len(d.pages))
	for i, p := range d.pages {
		pages[i] = p
	}
	return pages
}

// PDFPage is a page of a PDFDocument.
type PDFPage struct {
	doc    *PDFDocument
	number int
}

// Number returns the 1-based page number.
func (p *PDFPage) Number() int { return p.number }

// Rotation returns the page's effective /Rotate, inherited values included.
func (p *PDFPage) Rotation() int {
	_, _, inh, err := p.doc.ctx.PageDict(p.number, false)
	if err != nil || inh == nil {
		return 0
	}
	return normalize(inh.Rotate)
}

// Rotate adds delta degrees to the page's /Rotate entry.
func (p *PDFPage) Rotate(delta int) error {
	if delta%90 != 0 {
		return fmt.Errorf("codec: rotation %d is not a multiple of 90", delta)
	}
	delta = normalize(delta)
	if delta == 0 {
		return nil
	}
	if err := pdfcpu.RotatePages(p.doc.ctx, types.IntSet{p.number: true}, delta); err != nil {
		return fmt.Errorf("codec: rotating page %d of %s: %w", p.number, p.doc.path, err)
	}
	return nil
}

// Size returns the page's MediaBox width and height in points, ignoring rotation.
func (p *PDFPage) Size() (w, h float64, err error) {
	_, _, inh, err := p.doc.ctx.PageDict(p.number, false)
	if err != nil {
		return 0, 0, fmt.Errorf("codec: page %d of %s: %w", p.number, p.doc.path, err)
	}
	if inh == nil || inh.MediaBox == nil {
		return 0, 0, fmt.Errorf("codec: page %d of %s has no MediaBox", p.number, p.doc.path)
	}
	return inh.MediaBox.Width(), inh.MediaBox.Height(), nil
}

// pageRun is a maximal sequence of consecutive pages from one document.
type pageRun struct {
	doc   *PDFDocument
	pages []int
}

func splitRuns(pages []Page) ([]pageRun, error) {
	var runs []pageRun
	for _, p := range pages {
		pp, ok := p.(*PDFPage)
		if !ok {
			return nil, ErrForeignPage
		}
		if n := len(runs); n > 0 && runs[n-1].doc == pp.doc {
			runs[n-1].pages = append(runs[n-1].pages, pp.number)
			continue
		}
		runs = append(runs, pageRun{doc: pp.doc, pages: []int{pp.number}})
	}
	return runs, nil
}

// complete reports whether the run is its whole document in original order.
func (r pageRun) complete() bool {
	if len(r.pages) != len(r.doc.pages) {
		return false
	}
	for i, n := range r.pages {
		if n != i+1 {
			return false
		}
	}
	return true
}

func (r pageRun) selection() []string {
	sel := make([]string, len(r.pages))
	for i, n := range r.pages {
		sel[i] = strconv.Itoa(n)
	}
	return sel
}
