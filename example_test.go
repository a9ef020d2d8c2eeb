package pdfmerger_test

import (
	"fmt"
	"os"

	"github.com/lvillar/pdfmerger"
	"github.com/lvillar/pdfmerger/codec"
	"github.com/lvillar/pdfmerger/internal/testpdf"
)

// ExampleEngine_Merge demonstrates ordering two files, rotating a page and
// merging the session into one PDF.
func ExampleEngine_Merge() {
	dir, err := os.MkdirTemp("", "pdfmerger-example")
	if err != nil {
		fmt.Println(err)
		return
	}
	defer os.RemoveAll(dir)

	report, _ := testpdf.WriteFile(dir, "report.pdf", 595, 595)
	scan, _ := testpdf.WriteFile(dir, "scan.pdf", 612)

	e := pdfmerger.New()
	e.AddDocument(report)
	e.AddDocument(scan)
	e.AddDocument(report) // already present, ignored
	if err := e.MoveDocument(1, 0); err != nil {
		fmt.Println(err)
		return
	}

	r, _ := e.RotatePage(scan, 0)
	fmt.Println("documents:", e.Len())
	fmt.Println("scan page 1:", r)

	out, err := e.Merge()
	if err != nil {
		fmt.Println(err)
		return
	}

	merged, err := codec.NewPDFCPU().Read("merged.pdf", out)
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, p := range merged.Pages() {
		fmt.Printf("page %d rotated %d\n", p.Number(), p.Rotation())
	}
	// Output:
	// documents: 2
	// scan page 1: 90°
	// page 1 rotated 90
	// page 2 rotated 0
	// page 3 rotated 0
}
