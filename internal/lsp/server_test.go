package lsp

import (
	"strings"
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

const javaSortedDoc = `package com.example.app;

import java.util.List;

import com.example.util.Helper;

class App {
	List<Helper> helpers;
}
`

const javaShuffledDoc = `package com.example.app;

import com.example.util.Helper;
import java.util.List;

class App {
	List<Helper> helpers;
}
`

const javaBrokenDoc = `package com.example;

import java.util.List;

public class Broken {
    void wat() { int x = }
}
`

func newTestServer(t *testing.T) *Server {
	t.Helper()

	srv, err := NewServer(ServerDeps{})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}

	return srv
}

func TestNewDocumentStore(t *testing.T) {
	store := NewDocumentStore()

	if store == nil {
		t.Fatal("Expected non-nil DocumentStore")
	}

	if store.documents == nil {
		t.Error("Expected documents map to be initialized")
	}
}

func TestDocumentStore_SetAndGet(t *testing.T) {
	store := NewDocumentStore()

	uri := "file:///src/App.java"
	content := "class App {}"

	store.Set(uri, content)

	got, ok := store.Get(uri)
	if !ok {
		t.Errorf("Expected document to exist for URI %s", uri)
	}

	if got != content {
		t.Errorf("Expected content %q, got %q", content, got)
	}
}

func TestDocumentStore_Get_NotFound(t *testing.T) {
	store := NewDocumentStore()

	_, ok := store.Get("file:///nonexistent/Missing.java")
	if ok {
		t.Error("Expected document to not exist")
	}
}

func TestDocumentStore_Delete(t *testing.T) {
	store := NewDocumentStore()

	uri := "file:///src/App.java"

	store.Set(uri, "class App {}")
	store.Delete(uri)

	_, ok := store.Get(uri)
	if ok {
		t.Error("Expected document to be deleted")
	}
}

func TestDocumentStore_Update(t *testing.T) {
	store := NewDocumentStore()

	uri := "file:///src/App.java"

	store.Set(uri, "class App {}")
	store.Set(uri, "class App { int size; }")

	got, ok := store.Get(uri)
	if !ok {
		t.Errorf("Expected document to exist for URI %s", uri)
	}

	if got != "class App { int size; }" {
		t.Errorf("Expected updated content, got %q", got)
	}
}

func TestDocumentStore_ConcurrentAccess(t *testing.T) {
	store := NewDocumentStore()
	done := make(chan bool)

	go func() {
		for i := 0; i < 100; i++ {
			store.Set("file:///src/A.java", "class A {}")
		}
		done <- true
	}()

	go func() {
		for i := 0; i < 100; i++ {
			store.Set("file:///src/B.java", "class B {}")
		}
		done <- true
	}()

	go func() {
		for i := 0; i < 100; i++ {
			store.Get("file:///src/A.java")
		}
		done <- true
	}()

	go func() {
		for i := 0; i < 100; i++ {
			store.Get("file:///src/B.java")
		}
		done <- true
	}()

	for i := 0; i < 4; i++ {
		<-done
	}

	contentA, okA := store.Get("file:///src/A.java")
	contentB, okB := store.Get("file:///src/B.java")

	if !okA || contentA != "class A {}" {
		t.Error("Expected A.java to hold its content")
	}
	if !okB || contentB != "class B {}" {
		t.Error("Expected B.java to hold its content")
	}
}

func TestNewServer(t *testing.T) {
	srv := newTestServer(t)

	if srv.store == nil {
		t.Error("Expected store to be initialized")
	}

	if srv.engine == nil {
		t.Error("Expected engine to be initialized")
	}
}

func TestDiagnosticsFor_SortedDocument(t *testing.T) {
	srv := newTestServer(t)

	diagnostics := srv.diagnosticsFor("file:///src/App.java", javaSortedDoc)

	if len(diagnostics) != 0 {
		t.Errorf("Expected no diagnostics for sorted document, got %d", len(diagnostics))
	}
}

func TestDiagnosticsFor_UnsortedDocument(t *testing.T) {
	srv := newTestServer(t)

	diagnostics := srv.diagnosticsFor("file:///src/App.java", javaShuffledDoc)

	if len(diagnostics) != 1 {
		t.Fatalf("Expected one diagnostic, got %d", len(diagnostics))
	}

	diag := diagnostics[0]

	if diag.Severity == nil || *diag.Severity != protocol.DiagnosticSeverityWarning {
		t.Error("Expected warning severity")
	}

	if diag.Source == nil || *diag.Source != "impsort" {
		t.Error("Expected impsort diagnostic source")
	}

	if diag.Message != unsortedMessage {
		t.Errorf("Unexpected message %q", diag.Message)
	}

	// The import block sits on lines 2 and 3 (zero-based); the range runs
	// through the start of the line after it.
	if diag.Range.Start.Line != 2 || diag.Range.Start.Character != 0 {
		t.Errorf("Unexpected range start %v", diag.Range.Start)
	}

	if diag.Range.End.Line != 4 || diag.Range.End.Character != 0 {
		t.Errorf("Unexpected range end %v", diag.Range.End)
	}
}

func TestDiagnosticsFor_ParseError(t *testing.T) {
	srv := newTestServer(t)

	diagnostics := srv.diagnosticsFor("file:///src/Broken.java", javaBrokenDoc)

	if len(diagnostics) != 1 {
		t.Fatalf("Expected one diagnostic, got %d", len(diagnostics))
	}

	diag := diagnostics[0]

	if diag.Severity == nil || *diag.Severity != protocol.DiagnosticSeverityError {
		t.Error("Expected error severity")
	}

	if !strings.Contains(diag.Message, "parse errors") {
		t.Errorf("Expected parse error message, got %q", diag.Message)
	}

	if diag.Range.Start.Line == 0 {
		t.Error("Expected the diagnostic to point past the first line")
	}
}

func TestFormatting_RewritesDocument(t *testing.T) {
	srv := newTestServer(t)

	uri := "file:///src/App.java"
	srv.store.Set(uri, javaShuffledDoc)

	edits, err := srv.formatting(nil, &protocol.DocumentFormattingParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})
	if err != nil {
		t.Fatalf("formatting failed: %v", err)
	}

	if len(edits) != 1 {
		t.Fatalf("Expected one edit, got %d", len(edits))
	}

	edit := edits[0]

	if edit.Range.Start.Line != 0 || edit.Range.Start.Character != 0 {
		t.Errorf("Expected edit to start at the document beginning, got %v", edit.Range.Start)
	}

	if edit.NewText != javaSortedDoc {
		t.Errorf("Unexpected formatted content:\n%s", edit.NewText)
	}
}

func TestFormatting_AlreadySorted(t *testing.T) {
	srv := newTestServer(t)

	uri := "file:///src/App.java"
	srv.store.Set(uri, javaSortedDoc)

	edits, err := srv.formatting(nil, &protocol.DocumentFormattingParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})
	if err != nil {
		t.Fatalf("formatting failed: %v", err)
	}

	if len(edits) != 0 {
		t.Errorf("Expected no edits for a sorted document, got %d", len(edits))
	}
}

func TestFormatting_UnknownDocument(t *testing.T) {
	srv := newTestServer(t)

	edits, err := srv.formatting(nil, &protocol.DocumentFormattingParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///src/Missing.java"},
	})
	if err != nil {
		t.Fatalf("formatting failed: %v", err)
	}

	if edits != nil {
		t.Error("Expected no edits for an unknown document")
	}
}

func TestFormatting_BrokenDocument(t *testing.T) {
	srv := newTestServer(t)

	uri := "file:///src/Broken.java"
	srv.store.Set(uri, javaBrokenDoc)

	edits, err := srv.formatting(nil, &protocol.DocumentFormattingParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})
	if err != nil {
		t.Fatalf("formatting failed: %v", err)
	}

	if edits != nil {
		t.Error("Expected no edits for an unparseable document")
	}
}

func TestPositionAt(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		offset    int
		line      uint32
		character uint32
	}{
		{
			name:      "start of document",
			content:   "class A {}",
			offset:    0,
			line:      0,
			character: 0,
		},
		{
			name:      "middle of first line",
			content:   "class A {}",
			offset:    6,
			line:      0,
			character: 6,
		},
		{
			name:      "start of second line",
			content:   "class A {\n}\n",
			offset:    10,
			line:      1,
			character: 0,
		},
		{
			name:      "end of document",
			content:   "class A {\n}\n",
			offset:    12,
			line:      2,
			character: 0,
		},
		{
			name:      "offset past end clamps",
			content:   "short",
			offset:    100,
			line:      0,
			character: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := positionAt(tt.content, tt.offset)
			if uint32(got.Line) != tt.line || uint32(got.Character) != tt.character {
				t.Errorf("positionAt(%q, %d) = %d:%d, expected %d:%d",
					tt.content, tt.offset, got.Line, got.Character, tt.line, tt.character)
			}
		})
	}
}

func TestWholeDocumentText(t *testing.T) {
	whole := protocol.TextDocumentContentChangeEventWhole{Text: "class A {}"}

	text, ok := wholeDocumentText(whole)
	if !ok || text != "class A {}" {
		t.Errorf("Expected whole event text, got %q (ok=%v)", text, ok)
	}

	event := protocol.TextDocumentContentChangeEvent{Text: "class B {}"}

	text, ok = wholeDocumentText(event)
	if !ok || text != "class B {}" {
		t.Errorf("Expected rangeless event text, got %q (ok=%v)", text, ok)
	}

	ranged := protocol.TextDocumentContentChangeEvent{
		Range: &protocol.Range{},
		Text:  "partial",
	}

	if _, ok = wholeDocumentText(ranged); ok {
		t.Error("Expected range-scoped event to be skipped")
	}

	raw := map[string]any{"text": "class C {}"}

	text, ok = wholeDocumentText(raw)
	if !ok || text != "class C {}" {
		t.Errorf("Expected raw map text, got %q (ok=%v)", text, ok)
	}

	if _, ok = wholeDocumentText(42); ok {
		t.Error("Expected unknown change shape to be skipped")
	}
}

func TestURIPath(t *testing.T) {
	if got := uriPath("file:///src/App.java"); got != "/src/App.java" {
		t.Errorf("Expected /src/App.java, got %q", got)
	}

	if got := uriPath("untitled:Untitled-1"); got != "untitled:Untitled-1" {
		t.Errorf("Expected unchanged URI, got %q", got)
	}
}
