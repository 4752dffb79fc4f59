package impsort

import (
	"bytes"
	"strings"

	"github.com/Sumatoshi-tech/impsort/pkg/javasyntax"
)

// extraction is the import region of one file: every record in source
// order, the subset that survives unused-import removal, and the byte
// bounds the canonical block replaces.
type extraction struct {
	all         []ImportRecord
	kept        []ImportRecord
	regionStart int
	regionEnd   int
}

// extractRecords walks the parsed imports in source order and attaches
// provenance to each. A record's claimed extent runs from its prefix
// through its declaration, suffix and one trailing line ending; the next
// record's prefix is whatever sits between the previous extent and its own
// declaration, minus leading blank lines.
func extractRecords(content []byte, parsed *javasyntax.ParseResult) extraction {
	ext := extraction{
		all: make([]ImportRecord, 0, len(parsed.Imports)),
	}
	if len(parsed.Imports) == 0 {
		return ext
	}

	prevEnd := 0
	if parsed.PackageEnd > 0 {
		prevEnd = consumeLineEnding(content, skipLineRemainder(content, parsed.PackageEnd))
		if parsed.Imports[0].Start < prevEnd {
			prevEnd = parsed.PackageEnd
		}
	}

	for i, imp := range parsed.Imports {
		gapStart := min(prevEnd, imp.Start)
		prefix := claimPrefix(content[gapStart:imp.Start])

		suffix, extentEnd := claimSuffix(content, imp.End)

		ext.all = append(ext.all, ImportRecord{
			path:          imp.Path,
			static:        imp.Static,
			prefix:        prefix,
			suffix:        suffix,
			originalOrder: i,
		})

		if i == 0 {
			ext.regionStart = imp.Start - len(prefix)
		}

		prevEnd = extentEnd
	}

	ext.regionEnd = prevEnd
	ext.kept = ext.all

	return ext
}

// filterUnused drops records whose simple name never occurs in the rest of
// the file, honoring the same-package rule. On-demand imports are never
// dropped: their usage cannot be proven from names alone.
func (ext *extraction) filterUnused(parsed *javasyntax.ParseResult, cfg Config) {
	if !cfg.RemoveUnused {
		return
	}

	kept := make([]ImportRecord, 0, len(ext.all))

	for _, rec := range ext.all {
		if isUnused(rec, parsed, cfg) {
			continue
		}

		kept = append(kept, rec)
	}

	ext.kept = kept
}

func isUnused(rec ImportRecord, parsed *javasyntax.ParseResult, cfg Config) bool {
	path := rec.Import()
	if strings.HasSuffix(path, ".*") {
		return false
	}

	if cfg.TreatSamePackageAsUnused && !rec.IsStatic() &&
		parsed.Package != "" && parentPath(path) == parsed.Package {
		return true
	}

	simple := path
	if idx := strings.LastIndexByte(path, '.'); idx >= 0 {
		simple = path[idx+1:]
	}

	_, used := parsed.Identifiers[simple]

	return !used
}

func parentPath(path string) string {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 {
		return ""
	}

	return path[:idx]
}

// claimPrefix returns the tail of gap starting at the first line that
// carries non-whitespace. A pure-whitespace gap yields nothing; separator
// blank lines are regenerated by the assembler, not carried by records.
func claimPrefix(gap []byte) string {
	lineStart := 0

	for i := 0; i < len(gap); i++ {
		switch gap[i] {
		case '\n':
			lineStart = i + 1
		case '\r':
			if i+1 < len(gap) && gap[i+1] == '\n' {
				i++
			}

			lineStart = i + 1
		case ' ', '\t', '\f':
		default:
			return string(gap[lineStart:])
		}
	}

	return ""
}

// claimSuffix captures trailing same-line content after a declaration,
// provided it is whitespace and closed comments only; code after the
// declaration stays outside the record. extentEnd lands past the consumed
// line ending, or on declEnd when nothing was claimable.
func claimSuffix(content []byte, declEnd int) (suffix string, extentEnd int) {
	lineEnd := skipLineRemainder(content, declEnd)

	rest := content[declEnd:lineEnd]
	if !trailingCommentOnly(rest) {
		return "", declEnd
	}

	extentEnd = consumeLineEnding(content, lineEnd)

	if len(bytes.TrimSpace(rest)) == 0 {
		return "", extentEnd
	}

	return string(rest), extentEnd
}

// trailingCommentOnly reports whether rest holds nothing but whitespace,
// line comments and block comments closed before the line ends.
func trailingCommentOnly(rest []byte) bool {
	i := 0

	for i < len(rest) {
		switch {
		case rest[i] == ' ' || rest[i] == '\t' || rest[i] == '\f':
			i++
		case bytes.HasPrefix(rest[i:], []byte("//")):
			return true
		case bytes.HasPrefix(rest[i:], []byte("/*")):
			end := bytes.Index(rest[i+2:], []byte("*/"))
			if end < 0 {
				return false
			}

			i += 2 + end + 2
		default:
			return false
		}
	}

	return true
}

// skipLineRemainder returns the offset of the first line-ending byte at or
// after pos, or len(content).
func skipLineRemainder(content []byte, pos int) int {
	for pos < len(content) && content[pos] != '\n' && content[pos] != '\r' {
		pos++
	}

	return pos
}

// consumeLineEnding returns the offset just past a single line ending at
// pos, treating "\r\n" as one ending. Without an ending it returns pos.
func consumeLineEnding(content []byte, pos int) int {
	if pos < len(content) && content[pos] == '\r' {
		if pos+1 < len(content) && content[pos+1] == '\n' {
			return pos + 2
		}

		return pos + 1
	}

	if pos < len(content) && content[pos] == '\n' {
		return pos + 1
	}

	return pos
}
