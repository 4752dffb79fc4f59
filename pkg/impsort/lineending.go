package impsort

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/Sumatoshi-tech/impsort/pkg/textutil"
)

// LineEnding selects the line-ending policy for emitted content.
type LineEnding int

const (
	// LineEndingAuto uses the file's own ending, falling back to the
	// platform default when the file has none.
	LineEndingAuto LineEnding = iota

	// LineEndingKeep uses the file's own ending and refuses files that
	// have none.
	LineEndingKeep

	// LineEndingLF forces "\n".
	LineEndingLF

	// LineEndingCRLF forces "\r\n".
	LineEndingCRLF

	// LineEndingCR forces "\r".
	LineEndingCR
)

var errUnknownLineEndingPolicy = errors.New("impsort: unknown line ending policy")

// ParseLineEnding maps a configuration value to a policy. The empty string
// means Auto.
func ParseLineEnding(value string) (LineEnding, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto":
		return LineEndingAuto, nil
	case "keep":
		return LineEndingKeep, nil
	case "lf":
		return LineEndingLF, nil
	case "crlf":
		return LineEndingCRLF, nil
	case "cr":
		return LineEndingCR, nil
	default:
		return LineEndingAuto, fmt.Errorf("%w: %q", errUnknownLineEndingPolicy, value)
	}
}

// String returns the configuration spelling of the policy.
func (le LineEnding) String() string {
	switch le {
	case LineEndingKeep:
		return "keep"
	case LineEndingLF:
		return "lf"
	case LineEndingCRLF:
		return "crlf"
	case LineEndingCR:
		return "cr"
	default:
		return "auto"
	}
}

// platformLineEnding is what Auto falls back to when the file carries no
// line ending of its own.
var platformLineEnding = func() string {
	if runtime.GOOS == "windows" {
		return textutil.CRLF
	}

	return textutil.LF
}()

// resolve returns the ending every emitted line must use. ok is false only
// for the Keep policy on content without a single line-ending byte.
func (le LineEnding) resolve(content []byte) (ending string, ok bool) {
	switch le {
	case LineEndingLF:
		return textutil.LF, true
	case LineEndingCRLF:
		return textutil.CRLF, true
	case LineEndingCR:
		return textutil.CR, true
	default:
	}

	if ending, found := textutil.DetectLineEnding(content); found {
		return ending, true
	}

	if le == LineEndingAuto {
		return platformLineEnding, true
	}

	return "", false
}
