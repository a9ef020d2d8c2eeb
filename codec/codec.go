// Package codec parses PDF files into page sequences and serializes ordered
// page sequences back into a single PDF.
//
// Two implementations are provided. PDFCPU keeps page content untouched and
// records rotation in each page's /Rotate entry. Template imports every page as
// a form template into a new document and bakes rotation into the page content,
// for consumers that ignore /Rotate.
package codec

import (
	"errors"
	"io"
)

// ErrForeignPage is returned by Write when a page was not produced by the
// writing codec.
var ErrForeignPage = errors.New("codec: page belongs to a different codec")

// Codec opens source documents and writes page sequences.
type Codec interface {
	// Open parses the document at path. The file is read fully into memory;
	// no handle outlives the call.
	Open(path string) (Document, error)

	// Write serializes pages, in order, as one new document.
	Write(w io.Writer, pages []Page) error
}

// Document is a parsed source document.
type Document interface {
	Path() string
	// Pages returns the pages in their original order.
	Pages() []Page
}

// Page is one page of a Document. Only its rotation is mutable.
type Page interface {
	// Number is the 1-based position of the page in its source document.
	Number() int
	// Rotation is the effective clockwise rotation: the page's intrinsic
	// rotation plus every delta applied through Rotate, modulo 360.
	Rotation() int
	// Rotate turns the page by delta degrees on top of its current rotation.
	// delta must be a multiple of 90.
	Rotate(delta int) error
}

// quarter reports whether a rotation of degrees swaps width and height.
func quarter(degrees int) bool {
	d := normalize(degrees)
	return d == 90 || d == 270
}

// normalize maps a multiple of 90 into 0..270.
func normalize(degrees int) int {
	return ((degrees % 360) + 360) % 360
}
