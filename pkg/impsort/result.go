package impsort

import "slices"

// Result is the outcome of sorting one file. It is immutable; the engine
// returns a fresh Result per call except for the shared EmptyFile.
type Result struct {
	imports     []ImportRecord
	sorted      bool
	rewritten   []byte
	removed     int
	regionStart int
	regionEnd   int
}

// EmptyFile is the Result for zero-byte input: no imports, already sorted,
// nothing to rewrite. Callers may compare against it directly.
var EmptyFile = &Result{sorted: true}

// IsSorted reports whether the file is already in canonical form, byte for
// byte.
func (r *Result) IsSorted() bool { return r.sorted }

// Imports returns the extracted records in their original source order,
// before any sorting or removal.
func (r *Result) Imports() []ImportRecord { return slices.Clone(r.imports) }

// Rewritten returns the full canonical file content. For an already sorted
// file it equals the input; for EmptyFile it is nil. Callers must not
// modify the returned slice.
func (r *Result) Rewritten() []byte { return r.rewritten }

// Removed reports how many import declarations unused-import removal
// dropped from the canonical block. Zero when removal is disabled.
func (r *Result) Removed() int { return r.removed }

// Region returns the byte span of the original content that the canonical
// import block replaces, as a half-open [start, end) interval. Both bounds
// are zero for files without imports.
func (r *Result) Region() (start, end int) { return r.regionStart, r.regionEnd }
