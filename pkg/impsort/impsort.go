// Package impsort sorts the import declarations of Java source files.
//
// The engine extracts every import together with the comment block above
// it and the trailing comment after it, orders the records by configured
// group and segment-aware path order, and splices the canonical block back
// into the file. A file whose canonical form is byte-identical to the
// original is reported as sorted; everything else gets a full rewritten
// copy. Zero-byte files short-circuit to the shared EmptyFile result.
//
// Files the parser cannot fully verify are never rewritten. Partial and
// fatal parses surface as classified errors carrying the first parser
// diagnostic.
package impsort

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Sumatoshi-tech/impsort/pkg/javasyntax"
)

// SyntaxParser is the syntax collaborator. It is consulted as a black box:
// the engine acts only on the outcome classification and the declarations
// it reports.
type SyntaxParser interface {
	Parse(ctx context.Context, content []byte) (*javasyntax.ParseResult, error)
}

// Config fixes one engine's behavior for its whole lifetime.
type Config struct {
	// Encoding is the charset the files are read as. Only byte-transparent
	// charsets are supported; empty means UTF-8.
	Encoding string

	// Grouping controls group membership and record order.
	Grouping GroupingConfig

	// RemoveUnused drops imports whose simple name never occurs in the
	// file body.
	RemoveUnused bool

	// TreatSamePackageAsUnused additionally drops non-static imports from
	// the file's own package. Only honored when RemoveUnused is set.
	TreatSamePackageAsUnused bool

	// LineEnding is the line-ending policy for emitted content.
	LineEnding LineEnding
}

// supportedEncodings are the charsets whose bytes can be spliced without
// transcoding.
var supportedEncodings = map[string]struct{}{
	"":           {},
	"utf-8":      {},
	"utf8":       {},
	"us-ascii":   {},
	"ascii":      {},
	"iso-8859-1": {},
	"latin-1":    {},
}

// Engine sorts Java imports according to a fixed Config. It is safe for
// concurrent use when its SyntaxParser is.
type Engine struct {
	cfg    Config
	parser SyntaxParser
	log    *slog.Logger
}

// New builds an Engine. The parser is required; a nil logger falls back to
// slog.Default.
func New(cfg Config, parser SyntaxParser, logger *slog.Logger) (*Engine, error) {
	if parser == nil {
		return nil, ErrNilParser
	}

	if _, ok := supportedEncodings[strings.ToLower(cfg.Encoding)]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, cfg.Encoding)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{cfg: cfg, parser: parser, log: logger}, nil
}

// ParseFile reads path and sorts its imports. A file that cannot be read
// surfaces as the unwrapped read error, so os.IsNotExist and friends keep
// working on it. Classified failures surface as *Error.
func (e *Engine) ParseFile(ctx context.Context, path string) (*Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return e.Sort(ctx, path, content)
}

// Sort runs the pipeline on in-memory content. path is used for error
// reporting only; nothing is written anywhere.
func (e *Engine) Sort(ctx context.Context, path string, content []byte) (*Result, error) {
	if len(content) == 0 {
		return EmptyFile, nil
	}

	eol, ok := e.cfg.LineEnding.resolve(content)
	if !ok {
		return nil, &Error{Path: path, Reason: ReasonUnknownLineEnding}
	}

	parsed, err := e.parser.Parse(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	switch parsed.Outcome {
	case javasyntax.OutcomePartial:
		e.log.Debug("file contained parse errors", "path", path, "diagnostic", parsed.Diag)

		return nil, &Error{Path: path, Reason: ReasonPartialParse, Diag: parsed.Diag}
	case javasyntax.OutcomeFatal:
		e.log.Debug("unable to parse file", "path", path, "diagnostic", parsed.Diag)

		return nil, &Error{Path: path, Reason: ReasonUnableToParse, Diag: parsed.Diag}
	default:
	}

	if len(parsed.Imports) == 0 {
		return &Result{sorted: true, rewritten: content}, nil
	}

	ext := extractRecords(content, parsed)
	ext.filterUnused(parsed, e.cfg)

	block := assembleBlock(ext.kept, e.cfg.Grouping, eol)
	full := splice(content, ext, block)
	sorted := bytes.Equal(full, content)

	e.log.Debug("sorted file",
		"path", path,
		"imports", len(ext.all),
		"kept", len(ext.kept),
		"already_sorted", sorted)

	return &Result{
		imports:     ext.all,
		sorted:      sorted,
		rewritten:   full,
		removed:     len(ext.all) - len(ext.kept),
		regionStart: ext.regionStart,
		regionEnd:   ext.regionEnd,
	}, nil
}
