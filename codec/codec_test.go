package codec_test

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvillar/pdfmerger/codec"
	"github.com/lvillar/pdfmerger/internal/testpdf"
)

func writeFixture(t *testing.T, name string, widths ...float64) string {
	t.Helper()
	path, err := testpdf.WriteFile(t.TempDir(), name, widths...)
	require.NoError(t, err)
	return path
}

// pageWidths parses data and returns each page's MediaBox width and effective rotation.
func pageWidths(t *testing.T, data []byte) ([]float64, []int) {
	t.Helper()
	doc, err := codec.NewPDFCPU().Read("output.pdf", data)
	require.NoError(t, err)

	var widths []float64
	var rotations []int
	for _, p := range doc.Pages() {
		w, _, err := p.(*codec.PDFPage).Size()
		require.NoError(t, err)
		widths = append(widths, w)
		rotations = append(rotations, p.Rotation())
	}
	return widths, rotations
}

func TestPDFCPUOpen(t *testing.T) {
	path := writeFixture(t, "three.pdf", 300, 301, 302)

	doc, err := codec.NewPDFCPU().Open(path)
	require.NoError(t, err)
	assert.Equal(t, path, doc.Path())

	pages := doc.Pages()
	require.Len(t, pages, 3)
	for i, p := range pages {
		assert.Equal(t, i+1, p.Number())
		assert.Equal(t, 0, p.Rotation())

		w, h, err := p.(*codec.PDFPage).Size()
		require.NoError(t, err)
		assert.InDelta(t, 300+float64(i), w, 0.01)
		assert.InDelta(t, testpdf.PageHeight, h, 0.01)
	}
}

func TestPDFCPUOpenMissingFile(t *testing.T) {
	_, err := codec.NewPDFCPU().Open(filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestPDFCPUOpenCorrupt(t *testing.T) {
	path, err := testpdf.WriteCorrupt(t.TempDir(), "broken.pdf")
	require.NoError(t, err)

	_, err = codec.NewPDFCPU().Open(path)
	assert.Error(t, err)
}

func TestPDFCPURotateAccumulates(t *testing.T) {
	path := writeFixture(t, "one.pdf", 300)

	doc, err := codec.NewPDFCPU().Open(path)
	require.NoError(t, err)
	page := doc.Pages()[0]

	require.NoError(t, page.Rotate(90))
	assert.Equal(t, 90, page.Rotation())
	require.NoError(t, page.Rotate(90))
	assert.Equal(t, 180, page.Rotation())
	require.NoError(t, page.Rotate(-90))
	assert.Equal(t, 90, page.Rotation())
	require.NoError(t, page.Rotate(0))
	assert.Equal(t, 90, page.Rotation())

	assert.Error(t, page.Rotate(45))
}

func TestPDFCPURotateAddsToIntrinsicRotation(t *testing.T) {
	path := writeFixture(t, "landscape.pdf", 300, 301)
	require.NoError(t, testpdf.SetIntrinsicRotation(path, 90))

	c := codec.NewPDFCPU()
	doc, err := c.Open(path)
	require.NoError(t, err)

	pages := doc.Pages()
	require.Len(t, pages, 2)
	assert.Equal(t, 90, pages[0].Rotation())
	assert.Equal(t, 90, pages[1].Rotation())

	require.NoError(t, pages[1].Rotate(270))

	var buf bytes.Buffer
	require.NoError(t, c.Write(&buf, pages))

	widths, rotations := pageWidths(t, buf.Bytes())
	assert.InDeltaSlice(t, []float64{300, 301}, widths, 0.01)
	assert.Equal(t, []int{90, 0}, rotations)
}

func TestPDFCPUWriteKeepsOrder(t *testing.T) {
	c := codec.NewPDFCPU()
	a, err := c.Open(writeFixture(t, "a.pdf", 300, 301))
	require.NoError(t, err)
	b, err := c.Open(writeFixture(t, "b.pdf", 400))
	require.NoError(t, err)

	pages := append(b.Pages(), a.Pages()...)
	require.NoError(t, pages[0].Rotate(180))

	var buf bytes.Buffer
	require.NoError(t, c.Write(&buf, pages))

	widths, rotations := pageWidths(t, buf.Bytes())
	assert.InDeltaSlice(t, []float64{400, 300, 301}, widths, 0.01)
	assert.Equal(t, []int{180, 0, 0}, rotations)
}

func TestPDFCPUWritePartialRun(t *testing.T) {
	c := codec.NewPDFCPU()
	doc, err := c.Open(writeFixture(t, "abc.pdf", 300, 301, 302))
	require.NoError(t, err)

	all := doc.Pages()
	pages := []codec.Page{all[2], all[0]}

	var buf bytes.Buffer
	require.NoError(t, c.Write(&buf, pages))

	widths, _ := pageWidths(t, buf.Bytes())
	assert.InDeltaSlice(t, []float64{302, 300}, widths, 0.01)
}

func TestPDFCPUWriteRejectsEmptyAndForeignPages(t *testing.T) {
	c := codec.NewPDFCPU()
	var buf bytes.Buffer

	assert.Error(t, c.Write(&buf, nil))

	doc, err := codec.NewTemplate().Open(writeFixture(t, "t.pdf", 300))
	require.NoError(t, err)
	assert.ErrorIs(t, c.Write(&buf, doc.Pages()), codec.ErrForeignPage)
	assert.Zero(t, buf.Len())
}

func TestTemplateWriteBakesRotation(t *testing.T) {
	c := codec.NewTemplate()
	a, err := c.Open(writeFixture(t, "a.pdf", 300, 301))
	require.NoError(t, err)
	b, err := c.Open(writeFixture(t, "b.pdf", 400))
	require.NoError(t, err)

	pages := append(a.Pages(), b.Pages()...)
	require.NoError(t, pages[1].Rotate(90))
	assert.Equal(t, 90, pages[1].Rotation())

	var buf bytes.Buffer
	require.NoError(t, c.Write(&buf, pages))

	widths, rotations := pageWidths(t, buf.Bytes())
	assert.InDeltaSlice(t, []float64{300, testpdf.PageHeight, 400}, widths, 0.5)
	assert.Equal(t, []int{0, 0, 0}, rotations)
}

func TestTemplateRotateValidates(t *testing.T) {
	doc, err := codec.NewTemplate().Open(writeFixture(t, "one.pdf", 300))
	require.NoError(t, err)

	page := doc.Pages()[0]
	assert.Error(t, page.Rotate(30))
	require.NoError(t, page.Rotate(-90))
	assert.Equal(t, 270, page.Rotation())
}

// rewriteWithPDFCPU passes the file at path through the pdfcpu codec, which
// writes object and cross-reference streams.
func rewriteWithPDFCPU(t *testing.T, path string) string {
	t.Helper()
	c := codec.NewPDFCPU()
	doc, err := c.Open(path)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, c.Write(&buf, doc.Pages()))

	out := filepath.Join(t.TempDir(), "rewritten-"+filepath.Base(path))
	require.NoError(t, os.WriteFile(out, buf.Bytes(), 0o644))
	return out
}

func TestTemplateReadsPDFCPUOutput(t *testing.T) {
	c := codec.NewTemplate()
	a, err := c.Open(rewriteWithPDFCPU(t, writeFixture(t, "a.pdf", 300, 301)))
	require.NoError(t, err)
	b, err := c.Open(rewriteWithPDFCPU(t, writeFixture(t, "b.pdf", 400)))
	require.NoError(t, err)

	pages := append(a.Pages(), b.Pages()...)
	require.NoError(t, pages[1].Rotate(90))

	var buf bytes.Buffer
	require.NoError(t, c.Write(&buf, pages))

	widths, rotations := pageWidths(t, buf.Bytes())
	assert.InDeltaSlice(t, []float64{300, testpdf.PageHeight, 400}, widths, 0.5)
	assert.Equal(t, []int{0, 0, 0}, rotations)
}

func TestTemplateKeepsIntrinsicRotation(t *testing.T) {
	tests := []struct {
		name      string
		override  int
		wantWidth float64
	}{
		{"no override", 0, testpdf.PageHeight},
		{"quarter override", 90, 300},
		{"half override", 180, testpdf.PageHeight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFixture(t, "turned.pdf", 300)
			require.NoError(t, testpdf.SetIntrinsicRotation(path, 90))

			c := codec.NewTemplate()
			doc, err := c.Open(path)
			require.NoError(t, err)
			page := doc.Pages()[0]
			require.Equal(t, 90, page.Rotation())
			require.NoError(t, page.Rotate(tt.override))

			var buf bytes.Buffer
			require.NoError(t, c.Write(&buf, doc.Pages()))

			widths, rotations := pageWidths(t, buf.Bytes())
			assert.InDeltaSlice(t, []float64{tt.wantWidth}, widths, 0.5)
			assert.Equal(t, []int{0}, rotations)
		})
	}
}

func TestTemplateOpenCorrupt(t *testing.T) {
	path, err := testpdf.WriteCorrupt(t.TempDir(), "bad.pdf")
	require.NoError(t, err)

	_, err = codec.NewTemplate().Open(path)
	assert.Error(t, err)
}

func TestNewPDFCPUConcurrently(t *testing.T) {
	path := writeFixture(t, "shared.pdf", 300)

	var wg sync.WaitGroup
	codecs := make([]*codec.PDFCPU, 8)
	for i := range codecs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			codecs[i] = codec.NewPDFCPU()
		}()
	}
	wg.Wait()

	for _, c := range codecs {
		_, err := c.Open(path)
		assert.NoError(t, err)
	}
}
