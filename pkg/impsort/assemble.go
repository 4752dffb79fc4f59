package impsort

import (
	"slices"
	"strings"
)

// assembleBlock renders the canonical import block: records in canonical
// order, each as prefix, declaration, suffix and one line ending, with a
// blank line at configured group boundaries. Line endings inside prefixes
// are rewritten to the resolved ending.
func assembleBlock(records []ImportRecord, grouping GroupingConfig, eol string) string {
	if len(records) == 0 {
		return ""
	}

	ordered := slices.Clone(records)
	slices.SortStableFunc(ordered, grouping.Compare)

	var sb strings.Builder

	for i, rec := range ordered {
		if i > 0 && grouping.SeparateGroups && grouping.boundary(ordered[i-1], rec) {
			sb.WriteString(eol)
		}

		sb.WriteString(normalizeEndings(rec.Prefix(), eol))
		sb.WriteString(rec.declaration())
		sb.WriteString(rec.Suffix())
		sb.WriteString(eol)
	}

	return sb.String()
}

// splice replaces the import region with the canonical block, leaving the
// surrounding bytes untouched.
func splice(content []byte, ext extraction, block string) []byte {
	out := make([]byte, 0, len(content)-(ext.regionEnd-ext.regionStart)+len(block))
	out = append(out, content[:ext.regionStart]...)
	out = append(out, block...)
	out = append(out, content[ext.regionEnd:]...)

	return out
}

// normalizeEndings rewrites every line ending in s to eol, treating "\r\n"
// as a single ending.
func normalizeEndings(s, eol string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}

	var sb strings.Builder
	sb.Grow(len(s))

	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}

			sb.WriteString(eol)
		case '\n':
			sb.WriteString(eol)
		default:
			sb.WriteByte(s[i])
		}
	}

	return sb.String()
}
