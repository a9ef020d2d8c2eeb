// Package testpdf generates small PDF fixtures for tests.
//
// Every page gets its own width so that tests can identify pages in merged
// output by their MediaBox alone.
package testpdf

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"codeberg.org/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PageHeight is the height of every generated page, in points.
const PageHeight = 800

// Generate returns a PDF with one page per width. Widths are in points.
func Generate(label string, widths ...float64) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Helvetica", "", 14)
	for i, w := range widths {
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: PageHeight})
		pdf.Text(20, 40, fmt.Sprintf("%s - Page %d of %d", label, i+1, len(widths)))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("testpdf: generating %s: %w", label, err)
	}
	return buf.Bytes(), nil
}

// WriteFile generates a PDF into dir/name and returns its path.
func WriteFile(dir, name string, widths ...float64) (string, error) {
	data, err := Generate(name, widths...)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("testpdf: writing %s: %w", path, err)
	}
	return path, nil
}

// Widths returns n distinct page widths starting at base.
func Widths(base float64, n int) []float64 {
	widths := make([]float64, n)
	for i := range widths {
		widths[i] = base + float64(i)
	}
	return widths
}

var disableUserConfig sync.Once

// SetIntrinsicRotation rewrites the file at path so that every page carries
// the given /Rotate value.
func SetIntrinsicRotation(path string, degrees int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("testpdf: reading %s: %w", path, err)
	}

	disableUserConfig.Do(func() { model.ConfigPath = "disable" })
	var buf bytes.Buffer
	if err := api.Rotate(bytes.NewReader(data), &buf, degrees, nil, model.NewDefaultConfiguration()); err != nil {
		return fmt.Errorf("testpdf: rotating %s: %w", path, err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// WriteCorrupt writes bytes that no PDF parser accepts and returns the path.
func WriteCorrupt(dir, name string) (string, error) {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("%PDF-1.4\nthis is not a pdf\n"), 0o644); err != nil {
		return "", fmt.Errorf("testpdf: writing %s: %w", path, err)
	}
	return path, nil
}
