package mcp

import (
	"context"
	"errors"
	"fmt"
	"slices"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lvillar/pdfmerger"
	"github.com/lvillar/pdfmerger/internal/output"
)

// PageRotation is a rotation override of one page.
type PageRotation struct {
	PageIndex int `json:"pageIndex"`
	Degrees   int `json:"degrees"`
}

// Document describes one entry of the merge list.
type Document struct {
	Index     int            `json:"index"`
	ID        string         `json:"id"`
	Rotations []PageRotation `json:"rotations,omitempty"`
}

// ListOutput is the merge list in order.
type ListOutput struct {
	Documents []Document `json:"documents"`
}

// AddDocumentsInput is the input of add_documents.
type AddDocumentsInput struct {
	Paths []string `json:"paths" jsonschema:"PDF files to append, in order"`
}

// AddDocumentsOutput reports which paths were appended and the resulting list.
type AddDocumentsOutput struct {
	Added     []string   `json:"added"`
	Skipped   []string   `json:"skipped,omitempty"`
	Documents []Document `json:"documents"`
}

// ListDocumentsInput is the empty input of list_documents.
type ListDocumentsInput struct{}

// IndexInput selects one entry of the merge list.
type IndexInput struct {
	Index int `json:"index" jsonschema:"zero-based position in the merge list"`
}

// MoveDocumentInput is the input of move_document.
type MoveDocumentInput struct {
	From int `json:"from" jsonschema:"zero-based position of the document to move"`
	To   int `json:"to" jsonschema:"zero-based position it should end up at"`
}

// RotatePageInput is the input of rotate_page.
type RotatePageInput struct {
	ID        string `json:"id" jsonschema:"document path as shown by list_documents"`
	PageIndex int    `json:"pageIndex" jsonschema:"zero-based page index"`
	Degrees   int    `json:"degrees,omitempty" jsonschema:"clockwise multiple of 90, negative turns counter-clockwise (default 90)"`
}

// RotatePageOutput is the page's override after rotate_page.
type RotatePageOutput struct {
	ID        string `json:"id"`
	PageIndex int    `json:"pageIndex"`
	Degrees   int    `json:"degrees"`
}

// PageInfoInput is the input of page_info.
type PageInfoInput struct {
	ID string `json:"id" jsonschema:"document path as shown by list_documents"`
}

// PageInfoOutput describes one document of the merge list.
type PageInfoOutput struct {
	ID        string         `json:"id"`
	PageCount int            `json:"pageCount"`
	Rotations []PageRotation `json:"rotations,omitempty"`
}

// PreviewPageInput is the input of preview_page.
type PreviewPageInput struct {
	ID        string `json:"id" jsonschema:"document path as shown by list_documents"`
	PageIndex int    `json:"pageIndex" jsonschema:"zero-based page index"`
}

// PreviewPageOutput describes the image returned by preview_page.
type PreviewPageOutput struct {
	ID        string `json:"id"`
	PageIndex int    `json:"pageIndex"`
	Degrees   int    `json:"degrees"`
	Bytes     int    `json:"bytes"`
}

// MergeInput is the input of merge_documents.
type MergeInput struct {
	Output string `json:"output" jsonschema:"path of the merged PDF to write"`
}

// MergeOutput reports the file written by merge_documents.
type MergeOutput struct {
	Output    string `json:"output"`
	Documents int    `json:"documents"`
	Bytes     int    `json:"bytes"`
}

// AddDocuments appends paths to the merge list, skipping those already in it.
func (s *Session) AddDocuments(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	input AddDocumentsInput,
) (*mcpsdk.CallToolResult, AddDocumentsOutput, error) {
	if len(input.Paths) == 0 {
		return nil, AddDocumentsOutput{}, fmt.Errorf("paths is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := AddDocumentsOutput{Added: []string{}}
	for _, p := range input.Paths {
		if s.engine.AddDocument(p) {
			out.Added = append(out.Added, p)
		} else {
			out.Skipped = append(out.Skipped, p)
		}
	}
	out.Documents = s.documents()
	s.log.Info("documents added", "added", len(out.Added), "skipped", len(out.Skipped))
	return nil, out, nil
}

// ListDocuments returns the merge list.
func (s *Session) ListDocuments(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	_ ListDocumentsInput,
) (*mcpsdk.CallToolResult, ListOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return nil, ListOutput{Documents: s.documents()}, nil
}

// RemoveDocument removes one entry and its rotation overrides.
func (s *Session) RemoveDocument(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	input IndexInput,
) (*mcpsdk.CallToolResult, ListOutput, error) {
	return s.reorder(func() error { return s.engine.RemoveDocument(input.Index) })
}

// MoveDocument moves one entry to a new position.
func (s *Session) MoveDocument(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	input MoveDocumentInput,
) (*mcpsdk.CallToolResult, ListOutput, error) {
	return s.reorder(func() error { return s.engine.MoveDocument(input.From, input.To) })
}

// MoveUp swaps an entry with the one before it.
func (s *Session) MoveUp(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	input IndexInput,
) (*mcpsdk.CallToolResult, ListOutput, error) {
	return s.reorder(func() error { return s.engine.MoveUp(input.Index) })
}

// MoveDown swaps an entry with the one after it.
func (s *Session) MoveDown(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	input IndexInput,
) (*mcpsdk.CallToolResult, ListOutput, error) {
	return s.reorder(func() error { return s.engine.MoveDown(input.Index) })
}

// reorder runs op under the session lock and returns the resulting list.
func (s *Session) reorder(op func() error) (*mcpsdk.CallToolResult, ListOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := op(); err != nil {
		return nil, ListOutput{}, err
	}
	return nil, ListOutput{Documents: s.documents()}, nil
}

// RotatePage turns one page clockwise, 90 degrees unless told otherwise.
func (s *Session) RotatePage(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	input RotatePageInput,
) (*mcpsdk.CallToolResult, RotatePageOutput, error) {
	degrees := input.Degrees
	if degrees == 0 {
		degrees = int(pdfmerger.Rotate90)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.engine.RotatePageBy(input.ID, input.PageIndex, degrees)
	if err != nil {
		return nil, RotatePageOutput{}, err
	}
	return nil, RotatePageOutput{
		ID:        s.canonical(input.ID),
		PageIndex: input.PageIndex,
		Degrees:   int(r),
	}, nil
}

// PageInfo opens a document and reports its page count and overrides.
func (s *Session) PageInfo(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	input PageInfoInput,
) (*mcpsdk.CallToolResult, PageInfoOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.engine.PageCount(input.ID)
	if err != nil {
		return nil, PageInfoOutput{}, err
	}
	rots, err := s.engine.Rotations(input.ID)
	if err != nil {
		return nil, PageInfoOutput{}, err
	}
	return nil, PageInfoOutput{
		ID:        s.canonical(input.ID),
		PageCount: n,
		Rotations: sortedRotations(rots),
	}, nil
}

// PreviewPage renders one page as PNG image content.
func (s *Session) PreviewPage(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input PreviewPageInput,
) (*mcpsdk.CallToolResult, PreviewPageOutput, error) {
	if s.preview == nil {
		return nil, PreviewPageOutput{}, errors.New("previews are unavailable: no page rasterizer configured")
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.engine.Rotation(input.ID, input.PageIndex)
	if err != nil {
		return nil, PreviewPageOutput{}, err
	}
	data, err := s.preview.RenderPNG(ctx, input.ID, input.PageIndex)
	if err != nil {
		return nil, PreviewPageOutput{}, err
	}

	out := PreviewPageOutput{
		ID:        s.canonical(input.ID),
		PageIndex: input.PageIndex,
		Degrees:   int(r),
		Bytes:     len(data),
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.ImageContent{Data: data, MIMEType: "image/png"},
			&mcpsdk.TextContent{Text: fmt.Sprintf("Page %d of %s (rotation %s)", input.PageIndex+1, out.ID, r)},
		},
	}, out, nil
}

// MergeDocuments merges the list and writes it atomically to input.Output.
func (s *Session) MergeDocuments(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	input MergeInput,
) (*mcpsdk.CallToolResult, MergeOutput, error) {
	if input.Output == "" {
		return nil, MergeOutput{}, fmt.Errorf("output is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.engine.Merge()
	if err != nil {
		s.log.Warn("merge failed", "error", err)
		return nil, MergeOutput{}, err
	}
	if err := output.WriteBytes(input.Output, data); err != nil {
		return nil, MergeOutput{}, fmt.Errorf("writing %s: %w", input.Output, err)
	}

	s.log.Info("merged document written", "output", input.Output, "bytes", len(data))
	return nil, MergeOutput{
		Output:    input.Output,
		Documents: s.engine.Len(),
		Bytes:     len(data),
	}, nil
}

// documents snapshots the merge list. Callers hold s.mu.
func (s *Session) documents() []Document {
	ids := s.engine.Documents()
	docs := make([]Document, 0, len(ids))
	for i, id := range ids {
		rots, _ := s.engine.Rotations(id)
		docs = append(docs, Document{Index: i, ID: id, Rotations: sortedRotations(rots)})
	}
	return docs
}

// canonical returns the identifier the engine stores for path.
func (s *Session) canonical(path string) string {
	if i := s.engine.IndexOf(path); i >= 0 {
		return s.engine.Documents()[i]
	}
	return path
}

func sortedRotations(rots map[int]pdfmerger.Rotation) []PageRotation {
	out := make([]PageRotation, 0, len(rots))
	for page, r := range rots {
		out = append(out, PageRotation{PageIndex: page, Degrees: int(r)})
	}
	slices.SortFunc(out, func(a, b PageRotation) int { return a.PageIndex - b.PageIndex })
	return out
}
