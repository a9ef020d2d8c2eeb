package pdfmerger

import (
	"errors"
	"fmt"
)

// Sentinel errors for merge session failure conditions.
var (
	ErrOutOfRange         = errors.New("pdfmerger: index out of range")
	ErrUnknownDocument    = errors.New("pdfmerger: unknown document")
	ErrNoDocuments        = errors.New("pdfmerger: no documents to merge")
	ErrInvalidRotation    = errors.New("pdfmerger: rotation must be a multiple of 90")
	ErrUnreadableDocument = errors.New("pdfmerger: unreadable document")
	ErrSerialize          = errors.New("pdfmerger: serializing merged document")
)

// OpError is returned by an Engine method that rejected its arguments, such
// as an index outside the merge list or a document not in the session. Op
// names the method.
type OpError struct {
	Op  string // operation name, e.g. "RemoveDocument", "RotatePage"
	Err error  // underlying error
}

func (e *OpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pdfmerger.%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("pdfmerger.%s: unknown error", e.Op)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

func newOpError(op string, err error) *OpError {
	return &OpError{Op: op, Err: err}
}

// UnreadableDocumentError reports a source document the codec could not parse.
// It aborts the whole merge.
type UnreadableDocumentError struct {
	ID  string // identifier of the offending document
	Err error  // codec error
}

func (e *UnreadableDocumentError) Error() string {
	return fmt.Sprintf("pdfmerger: unreadable document %s: %v", e.ID, e.Err)
}

func (e *UnreadableDocumentError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrUnreadableDocument.
func (e *UnreadableDocumentError) Is(target error) bool {
	return target == ErrUnreadableDocument
}

// SerializeError reports a codec failure while writing the merged document.
type SerializeError struct {
	Err error
}

func (e *SerializeError) Error() string {
	return fmt.Sprintf("pdfmerger: serializing merged document: %v", e.Err)
}

func (e *SerializeError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrSerialize.
func (e *SerializeError) Is(target error) bool {
	return target == ErrSerialize
}
