package pdfmerger

import (
	"bytes"
	"io"

	"github.com/lvillar/pdfmerger/codec"
)

// Merge reads every document in order, applies the rotation overrides on top
// of each page's own rotation, and returns the serialized result.
//
// A single document goes through the same steps as many. Any unreadable
// source aborts the merge; nothing is returned and the session is unchanged.
func (e *Engine) Merge() ([]byte, error) {
	var buf bytes.Buffer
	if err := e.merge(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MergeTo merges like Merge and writes the result to w. Nothing is written
// unless the whole document was built and serialized.
func (e *Engine) MergeTo(w io.Writer) error {
	var buf bytes.Buffer
	if err := e.merge(&buf); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

func (e *Engine) merge(buf *bytes.Buffer) error {
	if len(e.docs) == 0 {
		return newOpError("Merge", ErrNoDocuments)
	}

	var pages []codec.Page
	for _, id := range e.docs {
		doc, err := e.codec.Open(id)
		if err != nil {
			e.log.Warn("merge aborted", "id", id, "error", err)
			return &UnreadableDocumentError{ID: id, Err: err}
		}

		overrides := e.rotations[id]
		for i, page := range doc.Pages() {
			if r := overrides[i]; r != Rotate0 {
				if err := page.Rotate(int(r)); err != nil {
					return &UnreadableDocumentError{ID: id, Err: err}
				}
			}
			pages = append(pages, page)
		}
	}

	if err := e.codec.Write(buf, pages); err != nil {
		e.log.Warn("merge aborted", "error", err)
		return &SerializeError{Err: err}
	}

	e.log.Info("documents merged", "documents", len(e.docs), "pages", len(pages), "bytes", buf.Len())
	return nil
}
