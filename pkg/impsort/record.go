package impsort

// ImportRecord is one import declaration together with the source text it
// owns: the comment block above it and the trailing same-line comment after
// it. Records are immutable once extracted.
type ImportRecord struct {
	path          string
	static        bool
	prefix        string
	suffix        string
	originalOrder int
}

// Import returns the dotted import path, with a trailing ".*" for
// on-demand imports.
func (r ImportRecord) Import() string { return r.path }

// IsStatic reports whether the declaration is a static import.
func (r ImportRecord) IsStatic() bool { return r.static }

// Prefix returns the comment block attached above the declaration,
// verbatim, including interior newlines. Pure-whitespace gaps are not
// captured; blank separator lines belong to the assembler.
func (r ImportRecord) Prefix() string { return r.prefix }

// Suffix returns same-line content after the declaration, verbatim. It
// never contains a line ending.
func (r ImportRecord) Suffix() string { return r.suffix }

// declaration renders the canonical declaration text, without prefix,
// suffix or line ending.
func (r ImportRecord) declaration() string {
	if r.static {
		return "import static " + r.path + ";"
	}

	return "import " + r.path + ";"
}
