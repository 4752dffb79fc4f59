package config

import (
	"fmt"

	"github.com/Sumatoshi-tech/impsort/pkg/impsort"
)

// EngineConfig maps the loaded configuration onto the core engine's Config.
// String-typed settings (line ending, group lists) are parsed here so the
// engine only ever sees validated values.
func (c *Config) EngineConfig() (impsort.Config, error) {
	ending, err := impsort.ParseLineEnding(c.LineEnding)
	if err != nil {
		return impsort.Config{}, fmt.Errorf("%w: %q", ErrInvalidLineEnding, c.LineEnding)
	}

	return impsort.Config{
		Encoding:                 c.Encoding,
		Grouping:                 c.Grouping(),
		RemoveUnused:             c.Unused.Remove,
		TreatSamePackageAsUnused: c.Unused.TreatSamePackage,
		LineEnding:               ending,
	}, nil
}

// Grouping builds the engine's grouping configuration from the comma
// separated group lists and switches.
func (c *Config) Grouping() impsort.GroupingConfig {
	return impsort.GroupingConfig{
		Groups:                  impsort.ParseGroups(c.Groups.Order),
		StaticGroups:            impsort.ParseGroups(c.Groups.StaticOrder),
		StaticAfter:             c.Groups.StaticAfter,
		JoinStaticWithNonStatic: c.Groups.JoinStatic,
		SeparateGroups:          c.Groups.Separate,
		FirstMatchWins:          c.Groups.FirstMatchWins,
		UnmatchedFirst:          c.Groups.UnmatchedFirst,
		BreadthFirst:            c.Groups.BreadthFirst,
	}
}
