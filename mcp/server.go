// Package mcp exposes a merge session as a Model Context Protocol server.
//
// One server holds one session: the documents added through add_documents,
// their order and their rotation overrides stay until the process exits.
//
// # Usage with an MCP client
//
//	{
//	  "mcpServers": {
//	    "pdfmerger": {
//	      "command": "pdfmerger",
//	      "args": ["-serve-mcp"]
//	    }
//	  }
//	}
package mcp

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lvillar/pdfmerger"
	"github.com/lvillar/pdfmerger/preview"
)

// version is set by the linker at build time.
var version = "dev"

// Session serializes access to one merge engine and its previewer for the
// tool handlers.
type Session struct {
	mu      sync.Mutex
	engine  *pdfmerger.Engine
	preview *preview.Previewer
	log     *slog.Logger
	timeout time.Duration
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the logger for tool calls.
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) {
		s.log = l
	}
}

// WithPreviewTimeout bounds each preview_page call. Zero means no limit.
func WithPreviewTimeout(d time.Duration) SessionOption {
	return func(s *Session) {
		s.timeout = d
	}
}

// NewSession wraps engine. p may be nil, in which case preview_page reports
// that previews are unavailable.
func NewSession(engine *pdfmerger.Engine, p *preview.Previewer, opts ...SessionOption) *Session {
	s := &Session{engine: engine, preview: p}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

// NewServer creates an MCP server with every session tool and resource
// registered.
func NewServer(s *Session) *mcpsdk.Server {
	server := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    "pdfmerger",
		Version: version,
	}, nil)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "add_documents",
		Description: "Append PDF files to the merge list. Files already in the list are skipped. Returns the updated list.",
	}, s.AddDocuments)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "list_documents",
		Description: "List the documents in merge order with their page rotation overrides.",
	}, s.ListDocuments)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "remove_document",
		Description: "Remove the document at a zero-based position, discarding its rotation overrides.",
	}, s.RemoveDocument)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "move_document",
		Description: "Move the document at position 'from' to position 'to' (both zero-based), shifting the documents in between.",
	}, s.MoveDocument)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "move_up",
		Description: "Swap the document at a zero-based position with the one before it. The first document stays in place.",
	}, s.MoveUp)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "move_down",
		Description: "Swap the document at a zero-based position with the one after it. The last document stays in place.",
	}, s.MoveDown)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "rotate_page",
		Description: "Rotate one page of a document clockwise, 90 degrees by default. Rotations accumulate and are applied on top of the page's own rotation when merging.",
	}, s.RotatePage)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "page_info",
		Description: "Return the page count and rotation overrides of a document in the list.",
	}, s.PageInfo)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "preview_page",
		Description: "Render one page of a document, with its rotation override applied, as a PNG image.",
	}, s.PreviewPage)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "merge_documents",
		Description: "Merge every document in order into one PDF written to 'output'. The file is only created if the whole merge succeeds.",
	}, s.MergeDocuments)

	server.AddResource(&mcpsdk.Resource{
		URI:         documentsURI,
		Name:        "Merge list",
		Description: "The documents of the session in merge order, with rotation overrides.",
		MIMEType:    "application/json",
	}, s.readDocuments)

	return server
}

// Run serves s over stdin and stdout until ctx is done or the client
// disconnects.
func Run(ctx context.Context, s *Session) error {
	return NewServer(s).Run(ctx, &mcpsdk.StdioTransport{})
}
