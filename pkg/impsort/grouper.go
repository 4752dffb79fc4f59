package impsort

import (
	"cmp"
	"slices"
	"strings"
)

// DefaultGroups is the common Eclipse-style prefix order used when no
// explicit grouping is configured.
var DefaultGroups = []string{"java.", "javax.", "org.", "com."}

// GroupingConfig fixes how import paths map to groups and how records
// compare. The zero value sorts everything into a single group, static
// imports first.
type GroupingConfig struct {
	// Groups are ordered path prefixes. "*" is an explicit catch-all
	// placed at its listed position.
	Groups []string

	// StaticGroups apply to static imports only; when empty, static
	// imports use Groups.
	StaticGroups []string

	// StaticAfter places the static section after the non-static one.
	StaticAfter bool

	// JoinStaticWithNonStatic sorts both kinds into the same sequence
	// instead of separate sections.
	JoinStaticWithNonStatic bool

	// SeparateGroups emits a blank line between adjacent groups.
	SeparateGroups bool

	// FirstMatchWins picks the first listed matching prefix instead of
	// the longest one.
	FirstMatchWins bool

	// UnmatchedFirst places paths matching no prefix before all groups
	// instead of after them.
	UnmatchedFirst bool

	// BreadthFirst orders paths by segment count before content, so
	// shallow packages precede deep ones.
	BreadthFirst bool
}

// DefaultGrouping returns the stock configuration: default groups,
// separated, static imports first, longest prefix wins.
func DefaultGrouping() GroupingConfig {
	return GroupingConfig{
		Groups:         slices.Clone(DefaultGroups),
		SeparateGroups: true,
	}
}

// ParseGroups splits a comma-separated prefix list such as
// "java.,javax.,*,com." into ordered group prefixes. Surrounding
// whitespace is dropped, empty entries are skipped.
func ParseGroups(spec string) []string {
	parts := strings.Split(spec, ",")
	groups := make([]string, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		groups = append(groups, part)
	}

	return groups
}

// Group returns the group index for a record. Unmatched paths land on a
// synthetic index before or after all configured groups, unless an
// explicit "*" catch-all claims them at its listed position.
func (g GroupingConfig) Group(rec ImportRecord) int {
	groups := g.Groups
	if rec.IsStatic() && len(g.StaticGroups) > 0 {
		groups = g.StaticGroups
	}

	return matchGroup(rec.Import(), groups, g.FirstMatchWins, g.UnmatchedFirst)
}

func matchGroup(path string, groups []string, firstMatchWins, unmatchedFirst bool) int {
	best := -1
	bestLen := -1
	catchAll := -1

	for i, prefix := range groups {
		if prefix == "*" {
			if catchAll < 0 {
				catchAll = i
			}

			continue
		}

		if !strings.HasPrefix(path, prefix) {
			continue
		}

		if firstMatchWins {
			return i
		}

		if len(prefix) > bestLen {
			best, bestLen = i, len(prefix)
		}
	}

	switch {
	case best >= 0:
		return best
	case catchAll >= 0:
		return catchAll
	case unmatchedFirst:
		return -1
	default:
		return len(groups)
	}
}

// Compare is the canonical record order: section (static placement), then
// group index, then segment-aware path order. It is total; ties fall back
// to the original source order.
func (g GroupingConfig) Compare(a, b ImportRecord) int {
	if c := cmp.Compare(g.sectionRank(a), g.sectionRank(b)); c != 0 {
		return c
	}

	if c := cmp.Compare(g.Group(a), g.Group(b)); c != 0 {
		return c
	}

	if c := comparePaths(a.Import(), b.Import(), g.BreadthFirst); c != 0 {
		return c
	}

	if a.IsStatic() != b.IsStatic() {
		if a.IsStatic() == g.StaticAfter {
			return 1
		}

		return -1
	}

	return cmp.Compare(a.originalOrder, b.originalOrder)
}

// sectionRank places a record's section. Non-static is the zero section;
// static imports sit before or after it unless the kinds are joined.
func (g GroupingConfig) sectionRank(rec ImportRecord) int {
	if g.JoinStaticWithNonStatic || !rec.IsStatic() {
		return 0
	}

	if g.StaticAfter {
		return 1
	}

	return -1
}

// boundary reports whether a blank separator line belongs between two
// adjacent records of the canonical sequence.
func (g GroupingConfig) boundary(prev, next ImportRecord) bool {
	if g.sectionRank(prev) != g.sectionRank(next) {
		return true
	}

	return g.Group(prev) != g.Group(next)
}

// comparePaths orders dotted paths segment by segment, so "." never
// competes with ordinary identifier bytes. A path that is a strict segment
// prefix of another sorts first. In breadth-first mode the segment count
// decides before any content does.
func comparePaths(a, b string, breadthFirst bool) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")

	if breadthFirst {
		if c := cmp.Compare(len(as), len(bs)); c != 0 {
			return c
		}
	}

	for i := 0; i < len(as) && i < len(bs); i++ {
		if c := cmp.Compare(as[i], bs[i]); c != 0 {
			return c
		}
	}

	return cmp.Compare(len(as), len(bs))
}
