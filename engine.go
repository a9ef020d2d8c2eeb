// Package pdfmerger holds a merge session: an ordered list of source PDF
// files, per-page rotation overrides, and the merge that turns them into one
// output document.
//
// An Engine is not safe for concurrent use. Front ends that serve several
// callers must serialize access to it.
package pdfmerger

import (
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"

	"github.com/lvillar/pdfmerger/codec"
)

// Engine owns the document order and rotation overrides of one session.
type Engine struct {
	codec     codec.Codec
	log       *slog.Logger
	docs      []string
	rotations map[string]map[int]Rotation
	onRemove  []func(id string)
}

// AddDocument appends path to the merge order. It reports false, and changes
// nothing, if the document is already present.
func (e *Engine) AddDocument(path string) bool {
	id := filepath.Clean(path)
	if slices.Contains(e.docs, id) {
		return false
	}
	e.docs = append(e.docs, id)
	e.log.Debug("document added", "id", id, "position", len(e.docs)-1)
	return true
}

// RemoveDocument removes the document at index together with its rotation
// overrides, then notifies the listeners registered with OnRemove.
func (e *Engine) RemoveDocument(index int) error {
	if err := e.checkIndex(index); err != nil {
		return newOpError("RemoveDocument", err)
	}

	id := e.docs[index]
	e.docs = slices.Delete(e.docs, index, index+1)
	delete(e.rotations, id)
	e.log.Debug("document removed", "id", id, "position", index)

	for _, fn := range e.onRemove {
		fn(id)
	}
	return nil
}

// MoveDocument moves the document at from to position to, shifting the
// documents in between. Moving to the same index is a no-op.
func (e *Engine) MoveDocument(from, to int) error {
	if err := e.checkIndex(from); err != nil {
		return newOpError("MoveDocument", err)
	}
	if err := e.checkIndex(to); err != nil {
		return newOpError("MoveDocument", err)
	}
	if from == to {
		return nil
	}

	id := e.docs[from]
	e.docs = slices.Delete(e.docs, from, from+1)
	e.docs = slices.Insert(e.docs, to, id)
	e.log.Debug("document moved", "id", id, "from", from, "to", to)
	return nil
}

// MoveUp swaps the document at index with its predecessor.
// The first document stays where it is.
func (e *Engine) MoveUp(index int) error {
	if err := e.checkIndex(index); err != nil {
		return newOpError("MoveUp", err)
	}
	if index == 0 {
		return nil
	}
	return e.MoveDocument(index, index-1)
}

// MoveDown swaps the document at index with its successor.
// The last document stays where it is.
func (e *Engine) MoveDown(index int) error {
	if err := e.checkIndex(index); err != nil {
		return newOpError("MoveDown", err)
	}
	if index == len(e.docs)-1 {
		return nil
	}
	return e.MoveDocument(index, index+1)
}

// RotatePage turns page pageIndex (zero-based) of document id a further 90
// degrees clockwise and returns the new override. The page index is not
// checked against the document; overrides past the last page have no effect
// at merge time.
func (e *Engine) RotatePage(id string, pageIndex int) (Rotation, error) {
	return e.RotatePageBy(id, pageIndex, int(Rotate90))
}

// RotatePageBy turns a page by degrees, which may be any multiple of 90.
// Negative values turn counter-clockwise.
func (e *Engine) RotatePageBy(id string, pageIndex, degrees int) (Rotation, error) {
	id = filepath.Clean(id)
	if !slices.Contains(e.docs, id) {
		return 0, newOpError("RotatePage", fmt.Errorf("%w: %s", ErrUnknownDocument, id))
	}

	current := e.rotations[id][pageIndex]
	next, err := current.Add(degrees)
	if err != nil {
		return current, newOpError("RotatePage", err)
	}

	overrides := e.rotations[id]
	if next == Rotate0 {
		delete(overrides, pageIndex)
		if len(overrides) == 0 {
			delete(e.rotations, id)
		}
	} else {
		if overrides == nil {
			overrides = make(map[int]Rotation)
			e.rotations[id] = overrides
		}
		overrides[pageIndex] = next
	}

	e.log.Debug("page rotated", "id", id, "page", pageIndex, "rotation", int(next))
	return next, nil
}

// Rotation returns the override stored for a page, Rotate0 if there is none.
func (e *Engine) Rotation(id string, pageIndex int) (Rotation, error) {
	id = filepath.Clean(id)
	if !slices.Contains(e.docs, id) {
		return 0, newOpError("Rotation", fmt.Errorf("%w: %s", ErrUnknownDocument, id))
	}
	return e.rotations[id][pageIndex], nil
}

// Rotations returns a copy of every non-zero override of document id, keyed
// by zero-based page index.
func (e *Engine) Rotations(id string) (map[int]Rotation, error) {
	id = filepath.Clean(id)
	if !slices.Contains(e.docs, id) {
		return nil, newOpError("Rotations", fmt.Errorf("%w: %s", ErrUnknownDocument, id))
	}
	out := make(map[int]Rotation, len(e.rotations[id]))
	maps.Copy(out, e.rotations[id])
	return out, nil
}

// Documents returns the document identifiers in merge order.
func (e *Engine) Documents() []string {
	return slices.Clone(e.docs)
}

// Len returns the number of documents in the session.
func (e *Engine) Len() int {
	return len(e.docs)
}

// IndexOf returns the position of document id, or -1.
func (e *Engine) IndexOf(id string) int {
	return slices.Index(e.docs, filepath.Clean(id))
}

// PageCount opens document id and returns its number of pages.
func (e *Engine) PageCount(id string) (int, error) {
	id = filepath.Clean(id)
	if !slices.Contains(e.docs, id) {
		return 0, newOpError("PageCount", fmt.Errorf("%w: %s", ErrUnknownDocument, id))
	}
	doc, err := e.codec.Open(id)
	if err != nil {
		return 0, &UnreadableDocumentError{ID: id, Err: err}
	}
	return len(doc.Pages()), nil
}

// OnRemove registers fn to be called with the identifier of every document
// removed from the session.
func (e *Engine) OnRemove(fn func(id string)) {
	e.onRemove = append(e.onRemove, fn)
}

func (e *Engine) checkIndex(index int) error {
	if index < 0 || index >= len(e.docs) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, index, len(e.docs))
	}
	return nil
}
