package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"
)

// A4 portrait in points, used when a page reports no MediaBox.
const (
	defaultPageWidth  = 595.28
	defaultPageHeight = 841.89
)

// Template is a Codec that imports each page as a form template into a new
// fpdf document. Rotation applied through Page.Rotate is drawn into the page
// content instead of being recorded in /Rotate.
type Template struct {
	parser *PDFCPU
}

// NewTemplate creates a template-import codec. The pdfcpu codec validates
// sources, reads page counts and intrinsic rotation, and rewrites sources into
// a layout gofpdi can parse.
func NewTemplate(opts ...PDFCPUOption) *Template {
	return &Template{parser: NewPDFCPU(opts...)}
}

// Open reads the PDF at path into memory. The source is rewritten with a
// classic cross-reference table, then imported once to make sure every
// page can be drawn later.
func (t *Template) Open(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("codec: opening %s: %w", path, err)
	}

	parsed, err := t.parser.Read(path, data)
	if err != nil {
		return nil, err
	}

	doc := &templateDocument{path: path}
	doc.pages = make([]*templatePage, len(parsed.pages))
	for i, p := range parsed.pages {
		doc.pages[i] = &templatePage{doc: doc, number: i + 1, intrinsic: p.Rotation()}
	}

	if doc.data, err = t.parser.writeClassic(parsed); err != nil {
		return nil, err
	}
	if err := checkImport(doc); err != nil {
		return nil, fmt.Errorf("codec: importing %s: %w", path, err)
	}
	return doc, nil
}

// checkImport imports every page of doc into a scratch document.
func checkImport(doc *templateDocument) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	pdf := fpdf.New("P", "pt", "A4", "")
	src := newImportSource(doc.data)
	for _, p := range doc.pages {
		src.imp.ImportPageFromStream(pdf, &src.rs, p.number, "/MediaBox")
	}
	if pdf.Err() {
		return pdf.Error()
	}
	return nil
}

// Write draws every page into a fresh document, in order.
func (t *Template) Write(w io.Writer, pages []Page) (err error) {
	if len(pages) == 0 {
		return errors.New("codec: no pages to write")
	}

	// gofpdi reports malformed sources by panicking.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("codec: importing page: %v", r)
		}
	}()

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)

	sources := make(map[*templateDocument]*importSource)
	for _, p := range pages {
		tp, ok := p.(*templatePage)
		if !ok {
			return ErrForeignPage
		}

		src, ok := sources[tp.doc]
		if !ok {
			src = newImportSource(tp.doc.data)
			sources[tp.doc] = src
		}

		tplID := src.imp.ImportPageFromStream(pdf, &src.rs, tp.number, "/MediaBox")
		// The template already shows the page's own /Rotate.
		pw, ph := src.pageSize(tp.number)
		if quarter(tp.intrinsic) {
			pw, ph = ph, pw
		}
		placeTemplate(pdf, src.imp, tplID, pw, ph, tp.delta)
	}

	if pdf.Err() {
		return fmt.Errorf("codec: drawing pages: %w", pdf.Error())
	}
	return pdf.Output(w)
}

// importSource holds the gofpdi importer of one source document.
type importSource struct {
	imp *gofpdi.Importer
	rs  io.ReadSeeker
}

func newImportSource(data []byte) *importSource {
	return &importSource{
		imp: gofpdi.NewImporter(),
		rs:  bytes.NewReader(data),
	}
}

// pageSize returns the MediaBox of an imported page.
func (s *importSource) pageSize(pageNum int) (w, h float64) {
	sizes := s.imp.GetPageSizes()
	if dims, ok := sizes[pageNum]; ok {
		if mb, ok := dims["/MediaBox"]; ok {
			w = mb["w"]
			h = mb["h"]
		}
	}
	if w == 0 || h == 0 {
		return defaultPageWidth, defaultPageHeight
	}
	return w, h
}

// placeTemplate adds a page holding a w x h template turned clockwise by
// rotation degrees about the centre of the new page.
func placeTemplate(pdf *fpdf.Fpdf, imp *gofpdi.Importer, tplID int, w, h float64, rotation int) {
	pw, ph := w, h
	if quarter(rotation) {
		pw, ph = h, w
	}
	pdf.AddPageFormat("P", fpdf.SizeType{Wd: pw, Ht: ph})

	if rotation == 0 {
		imp.UseImportedTemplate(pdf, tplID, 0, 0, w, h)
		return
	}

	cx, cy := pw/2, ph/2
	pdf.TransformBegin()
	pdf.TransformRotate(float64(-rotation), cx, cy)
	imp.UseImportedTemplate(pdf, tplID, cx-w/2, cy-h/2, w, h)
	pdf.TransformEnd()
}

type templateDocument struct {
	path  string
	data  []byte
	pages []*templatePage
}

func (d *templateDocument) Path() string { return d.path }

func (d *templateDocument) Pages() []Page {
	pages := make([]Page, len(d.pages))
	for i, p := range d.pages {
		pages[i] = p
	}
	return pages
}

type templatePage struct {
	doc       *templateDocument
	number    int
	intrinsic int
	delta     int
}

func (p *templatePage) Number() int { return p.number }

func (p *templatePage) Rotation() int { return normalize(p.intrinsic + p.delta) }

func (p *templatePage) Rotate(delta int) error {
	if delta%90 != 0 {
		return fmt.Errorf("codec: rotation %d is not a multiple of 90", delta)
	}
	p.delta = normalize(p.delta + delta)
	return nil
}
