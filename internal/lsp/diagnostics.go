package lsp

import (
	"context"
	"errors"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/Sumatoshi-tech/impsort/pkg/impsort"
	"github.com/Sumatoshi-tech/impsort/pkg/safeconv"
)

// diagnosticSource labels diagnostics published by this server.
const diagnosticSource = "impsort"

// unsortedMessage is the diagnostic text for out-of-order imports.
const unsortedMessage = "import declarations are not in canonical order"

// diagnosticsFor runs the engine over one document and maps the outcome to
// LSP diagnostics. An empty slice clears previously published diagnostics.
func (srv *Server) diagnosticsFor(uri, content string) []protocol.Diagnostic {
	diagnostics := make([]protocol.Diagnostic, 0, 1)

	result, err := srv.engine.Sort(context.Background(), uriPath(uri), []byte(content))
	if err != nil {
		var sortErr *impsort.Error
		if errors.As(err, &sortErr) {
			return append(diagnostics, failureDiagnostic(sortErr))
		}

		srv.log.Warn("diagnostics failed", "uri", uri, "error", err)

		return diagnostics
	}

	if !result.IsSorted() {
		diagnostics = append(diagnostics, unsortedDiagnostic(content, result))
	}

	return diagnostics
}

// failureDiagnostic maps a classified engine failure to an error diagnostic
// at the parser's reported position, or the document start when the failure
// carries no position.
func failureDiagnostic(sortErr *impsort.Error) protocol.Diagnostic {
	severity := protocol.DiagnosticSeverityError
	source := diagnosticSource

	pos := protocol.Position{}
	message := sortErr.Reason.String()

	if sortErr.Diag != nil {
		pos = protocol.Position{
			Line:      protocol.UInteger(safeconv.MustIntToUint32(sortErr.Diag.Line - 1)),
			Character: protocol.UInteger(safeconv.MustIntToUint32(sortErr.Diag.Col - 1)),
		}
		message += ": " + sortErr.Diag.Message
	}

	return protocol.Diagnostic{
		Range:    protocol.Range{Start: pos, End: pos},
		Severity: &severity,
		Source:   &source,
		Message:  message,
	}
}

// unsortedDiagnostic builds a warning spanning the import region.
func unsortedDiagnostic(content string, result *impsort.Result) protocol.Diagnostic {
	severity := protocol.DiagnosticSeverityWarning
	source := diagnosticSource

	start, end := result.Region()

	return protocol.Diagnostic{
		Range: protocol.Range{
			Start: positionAt(content, start),
			End:   positionAt(content, end),
		},
		Severity: &severity,
		Source:   &source,
		Message:  unsortedMessage,
	}
}

// formatting returns a single whole-document edit replacing the content
// with its canonical form, or no edit when the document is already sorted
// or cannot be verified.
func (srv *Server) formatting(
	_ *glsp.Context,
	params *protocol.DocumentFormattingParams,
) ([]protocol.TextEdit, error) {
	uri := params.TextDocument.URI

	content, ok := srv.store.Get(uri)
	if !ok {
		return nil, nil
	}

	result, err := srv.engine.Sort(context.Background(), uriPath(uri), []byte(content))
	if err != nil {
		var sortErr *impsort.Error
		if errors.As(err, &sortErr) {
			// Unverifiable documents are reported through diagnostics.
			return nil, nil
		}

		return nil, err
	}

	if result.IsSorted() {
		return nil, nil
	}

	return []protocol.TextEdit{{
		Range: protocol.Range{
			Start: protocol.Position{Line: 0, Character: 0},
			End:   positionAt(content, len(content)),
		},
		NewText: string(result.Rewritten()),
	}}, nil
}

// positionAt converts a byte offset into a zero-based protocol position.
// Character counts bytes within the line; import regions are ASCII in
// practice.
func positionAt(content string, offset int) protocol.Position {
	if offset > len(content) {
		offset = len(content)
	}

	prefix := content[:offset]
	line := strings.Count(prefix, "\n")
	col := offset - (strings.LastIndexByte(prefix, '\n') + 1)

	return protocol.Position{
		Line:      protocol.UInteger(safeconv.MustIntToUint32(line)),
		Character: protocol.UInteger(safeconv.MustIntToUint32(col)),
	}
}

// uriPath strips the file scheme so engine messages read as paths.
func uriPath(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}
