// Package javasyntax wraps the tree-sitter Java grammar behind the narrow
// surface the import sorter needs: the package declaration, the import
// declarations with their byte spans, an inventory of referenced
// identifiers, and a three-way parse outcome (full, partial, fatal).
package javasyntax

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	java "github.com/alexaandru/go-sitter-forest/java"
	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/impsort/pkg/safeconv"
)

var (
	errLanguageUnavailable = errors.New("javasyntax: tree-sitter java grammar unavailable")
	errNoRootNode          = errors.New("javasyntax: no root node")
	errPoolType            = errors.New("javasyntax: unexpected parser pool type")
)

// Outcome classifies how much of the input the parser understood.
type Outcome int

const (
	// OutcomeFull means the whole file parsed without errors.
	OutcomeFull Outcome = iota

	// OutcomePartial means structural content was recognized but the tree
	// contains at least one syntax error past it.
	OutcomePartial

	// OutcomeFatal means the parse failed before recognizing any
	// structural content.
	OutcomeFatal
)

// Diagnostic locates a parse problem. Line and Col are 1-based.
type Diagnostic struct {
	Line    int
	Col     int
	Message string
}

// String renders the diagnostic in "(line L,col C) message" form.
func (d Diagnostic) String() string {
	return fmt.Sprintf("(line %d,col %d) %s", d.Line, d.Col, d.Message)
}

// ImportDecl is one import declaration as it appears in the source.
// Start and End are byte offsets covering the "import" keyword through the
// terminating semicolon.
type ImportDecl struct {
	Path   string
	Static bool
	Start  int
	End    int
}

// ParseResult is the parser's view of one file.
type ParseResult struct {
	Outcome    Outcome
	Package    string
	PackageEnd int // byte offset just past the package declaration, 0 if none
	Imports    []ImportDecl

	// Identifiers holds every simple name referenced outside package and
	// import declarations. Used by the unused-import heuristic.
	Identifiers map[string]struct{}

	// Diag is nil iff Outcome is OutcomeFull.
	Diag *Diagnostic
}

// Node type names from the tree-sitter Java grammar.
const (
	nodeProgram        = "program"
	nodePackageDecl    = "package_declaration"
	nodeImportDecl     = "import_declaration"
	nodeScopedIdent    = "scoped_identifier"
	nodeIdentifier     = "identifier"
	nodeTypeIdentifier = "type_identifier"
	nodeAsterisk       = "asterisk"
	nodeStatic         = "static"
	nodeError          = "ERROR"
	nodeLineComment    = "line_comment"
	nodeBlockComment   = "block_comment"
)

// Parser parses Java sources. It is safe for concurrent use: each Parse
// call borrows a tree-sitter parser from an internal pool.
type Parser struct {
	lang *sitter.Language
	pool sync.Pool
}

// NewParser initializes the Java grammar and the parser pool.
func NewParser() (*Parser, error) {
	// Grammar init crosses into C; keep a panic from taking the process down.
	var lang *sitter.Language

	func() {
		defer func() {
			_ = recover() //nolint:errcheck // recover() returns any, not error
		}()

		lang = sitter.NewLanguage(java.GetLanguage())
	}()

	if lang == nil {
		return nil, errLanguageUnavailable
	}

	p := &Parser{lang: lang}
	p.pool = sync.Pool{
		New: func() any {
			tsParser := sitter.NewParser()
			tsParser.SetLanguage(lang)

			return tsParser
		},
	}

	return p, nil
}

// Parse parses content and reports the declarations and the outcome.
// An error is returned only for infrastructure failures; syntax problems
// are reported through the Outcome and Diag fields.
func (p *Parser) Parse(ctx context.Context, content []byte) (*ParseResult, error) {
	tsParser, ok := p.pool.Get().(*sitter.Parser)
	if !ok {
		return nil, errPoolType
	}

	defer p.pool.Put(tsParser)

	tree, err := tsParser.ParseString(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("javasyntax: parse: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.IsNull() {
		return nil, errNoRootNode
	}

	res := &ParseResult{
		Outcome:     OutcomeFull,
		Identifiers: make(map[string]struct{}),
	}

	collectDeclarations(root, content, res)

	if root.HasError() {
		classifyError(root, content, res)
	}

	return res, nil
}

// collectDeclarations reads the package and import declarations from the
// top level and gathers the identifier inventory from everything else.
func collectDeclarations(root sitter.Node, content []byte, res *ParseResult) {
	for i := range root.NamedChildCount() {
		child := root.NamedChild(i)

		switch child.Type() {
		case nodePackageDecl:
			res.Package = packageName(child, content)
			res.PackageEnd = safeconv.MustUintToInt(child.EndByte())
		case nodeImportDecl:
			res.Imports = append(res.Imports, importDecl(child, content))
		case nodeLineComment, nodeBlockComment:
			// Comment placement is the extractor's concern.
		default:
			collectIdentifiers(child, content, res.Identifiers)
		}
	}
}

func packageName(decl sitter.Node, content []byte) string {
	for i := range decl.NamedChildCount() {
		child := decl.NamedChild(i)
		if t := child.Type(); t == nodeScopedIdent || t == nodeIdentifier {
			return nodeText(child, content)
		}
	}

	return ""
}

func importDecl(decl sitter.Node, content []byte) ImportDecl {
	imp := ImportDecl{
		Start: safeconv.MustUintToInt(decl.StartByte()),
		End:   safeconv.MustUintToInt(decl.EndByte()),
	}

	wildcard := false

	for i := range decl.ChildCount() {
		child := decl.Child(i)

		switch child.Type() {
		case nodeStatic:
			imp.Static = true
		case nodeScopedIdent, nodeIdentifier:
			imp.Path = nodeText(child, content)
		case nodeAsterisk:
			wildcard = true
		}
	}

	if wildcard && imp.Path != "" {
		imp.Path += ".*"
	}

	return imp
}

// collectIdentifiers adds the text of every identifier and type_identifier
// in the subtree to ids.
func collectIdentifiers(n sitter.Node, content []byte, ids map[string]struct{}) {
	if t := n.Type(); t == nodeIdentifier || t == nodeTypeIdentifier {
		if text := nodeText(n, content); text != "" {
			ids[text] = struct{}{}
		}
	}

	for i := range n.NamedChildCount() {
		collectIdentifiers(n.NamedChild(i), content, ids)
	}
}

// classifyError decides between a partial and a fatal outcome and fills in
// the diagnostic from the first problem node in document order.
func classifyError(root sitter.Node, content []byte, res *ParseResult) {
	res.Outcome = OutcomePartial

	if !hasStructuralContent(root) {
		res.Outcome = OutcomeFatal
	}

	if problem, found := firstProblemNode(root); found {
		res.Diag = diagnosticFor(problem, content)

		return
	}

	// HasError without a locatable node should not happen; still report
	// a position so callers always get a line and column.
	res.Diag = &Diagnostic{Line: 1, Col: 1, Message: "syntax error"}
}

// hasStructuralContent reports whether the parser recognized at least one
// real declaration at the top level.
func hasStructuralContent(root sitter.Node) bool {
	for i := range root.NamedChildCount() {
		switch root.NamedChild(i).Type() {
		case nodeError, nodeLineComment, nodeBlockComment:
		default:
			return true
		}
	}

	return false
}

// firstProblemNode returns the first ERROR or missing node in document order.
func firstProblemNode(n sitter.Node) (sitter.Node, bool) {
	if n.Type() == nodeError || n.IsMissing() {
		return n, true
	}

	for i := range n.ChildCount() {
		if problem, found := firstProblemNode(n.Child(i)); found {
			return problem, true
		}
	}

	return sitter.Node{}, false
}

// errorExcerptLen caps the quoted source excerpt in syntax-error messages.
const errorExcerptLen = 20

func diagnosticFor(problem sitter.Node, content []byte) *Diagnostic {
	point := problem.StartPoint()

	diag := &Diagnostic{
		Line: int(point.Row) + 1,
		Col:  int(point.Column) + 1,
	}

	if problem.IsMissing() {
		diag.Message = "missing " + strconv.Quote(problem.Type())

		return diag
	}

	excerpt := nodeText(problem, content)
	if len(excerpt) > errorExcerptLen {
		excerpt = excerpt[:errorExcerptLen]
	}

	if excerpt == "" {
		diag.Message = "syntax error"
	} else {
		diag.Message = "syntax error near " + strconv.Quote(excerpt)
	}

	return diag
}

func nodeText(n sitter.Node, content []byte) string {
	start := n.StartByte()
	end := n.EndByte()

	if safeconv.MustUintToInt(end) > len(content) {
		return ""
	}

	return string(content[start:end])
}
