// Package lsp provides a Language Server Protocol server that surfaces
// import-order diagnostics for Java documents and formats them through the
// sorting engine.
package lsp

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/Sumatoshi-tech/impsort/pkg/impsort"
	"github.com/Sumatoshi-tech/impsort/pkg/javasyntax"
	"github.com/Sumatoshi-tech/impsort/pkg/version"
)

// serverName is the LSP server name reported to clients.
const serverName = "impsort"

// DocumentStore is a thread-safe store for document contents keyed by URI.
type DocumentStore struct {
	documents map[string]string // URI -> content.
	mu        sync.RWMutex
}

// NewDocumentStore creates a new empty DocumentStore.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]string),
	}
}

// Set stores document content for the given URI.
func (ds *DocumentStore) Set(uri, content string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	ds.documents[uri] = content
}

// Get retrieves document content by URI.
func (ds *DocumentStore) Get(uri string) (string, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	content, ok := ds.documents[uri]

	return content, ok
}

// Delete removes document content by URI.
func (ds *DocumentStore) Delete(uri string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	delete(ds.documents, uri)
}

// ServerDeps holds injectable dependencies for the LSP server.
// Zero-value fields use production defaults.
type ServerDeps struct {
	// Config is the engine configuration applied to every document.
	// Nil uses the default grouping with automatic line-ending detection.
	Config *impsort.Config

	// Logger is an optional structured logger. Nil uses slog default.
	Logger *slog.Logger
}

// Server implements the import-sorting LSP server.
type Server struct {
	store   *DocumentStore
	handler protocol.Handler
	engine  *impsort.Engine
	log     *slog.Logger
}

// NewServer creates a new LSP server with default handlers.
func NewServer(deps ServerDeps) (*Server, error) {
	parser, err := javasyntax.NewParser()
	if err != nil {
		return nil, fmt.Errorf("init java parser: %w", err)
	}

	cfg := impsort.Config{Grouping: impsort.DefaultGrouping()}
	if deps.Config != nil {
		cfg = *deps.Config
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	engine, err := impsort.New(cfg, parser, logger)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	srv := &Server{
		store:  NewDocumentStore(),
		engine: engine,
		log:    logger,
	}

	srv.handler = protocol.Handler{
		Initialize:             srv.initialize,
		Initialized:            srv.initialized,
		Shutdown:               srv.shutdown,
		SetTrace:               srv.setTrace,
		TextDocumentDidOpen:    srv.didOpen,
		TextDocumentDidChange:  srv.didChange,
		TextDocumentDidSave:    srv.didSave,
		TextDocumentDidClose:   srv.didClose,
		TextDocumentFormatting: srv.formatting,
	}

	return srv, nil
}

// Run starts the LSP server on stdio. It blocks until the client
// disconnects or the transport fails.
func (srv *Server) Run() error {
	lspServer := server.NewServer(&srv.handler, serverName, false)

	err := lspServer.RunStdio()
	if err != nil {
		return fmt.Errorf("lsp server: %w", err)
	}

	return nil
}

func (srv *Server) initialize(_ *glsp.Context, _ *protocol.InitializeParams) (any, error) {
	capabilities := srv.handler.CreateServerCapabilities()
	serverVersion := version.Version

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &serverVersion,
		},
	}, nil
}

func (srv *Server) initialized(_ *glsp.Context, _ *protocol.InitializedParams) error {
	return nil
}

func (srv *Server) shutdown(_ *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)

	return nil
}

func (srv *Server) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)

	return nil
}

func (srv *Server) didOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	text := params.TextDocument.Text

	srv.store.Set(uri, text)
	srv.publishDiagnostics(ctx, uri)

	return nil
}

func (srv *Server) didChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	for _, change := range params.ContentChanges {
		text, ok := wholeDocumentText(change)
		if !ok {
			continue
		}

		srv.store.Set(uri, text)
		srv.publishDiagnostics(ctx, uri)
	}

	return nil
}

// wholeDocumentText extracts the full replacement text from a content
// change. The server advertises full-document sync, so range-scoped
// changes are not applied.
func wholeDocumentText(change any) (string, bool) {
	switch c := change.(type) {
	case protocol.TextDocumentContentChangeEventWhole:
		return c.Text, true
	case protocol.TextDocumentContentChangeEvent:
		if c.Range == nil {
			return c.Text, true
		}
	case map[string]any:
		if text, ok := c["text"].(string); ok {
			return text, true
		}
	}

	return "", false
}

func (srv *Server) didSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	uri := params.TextDocument.URI

	if _, ok := srv.store.Get(uri); ok {
		srv.publishDiagnostics(ctx, uri)
	}

	return nil
}

func (srv *Server) didClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI
	srv.store.Delete(uri)

	// Clear any published diagnostics for the closed document.
	ctx.Notify(methodPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})

	return nil
}

const methodPublishDiagnostics = "textDocument/publishDiagnostics"

func (srv *Server) publishDiagnostics(ctx *glsp.Context, uri string) {
	content, ok := srv.store.Get(uri)
	if !ok {
		return
	}

	ctx.Notify(methodPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: srv.diagnosticsFor(uri, content),
	})
}
