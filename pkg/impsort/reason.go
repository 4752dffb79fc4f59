package impsort

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/impsort/pkg/javasyntax"
)

// Construction-time sentinels.
var (
	// ErrNilParser indicates the engine was built without a syntax parser.
	ErrNilParser = errors.New("impsort: nil syntax parser")

	// ErrUnsupportedEncoding indicates a charset the byte-level pipeline
	// cannot process.
	ErrUnsupportedEncoding = errors.New("impsort: unsupported encoding")
)

// Reason classifies why a file could not be sorted.
type Reason int

const (
	// ReasonUnknownLineEnding: the Keep policy found no line ending to keep.
	ReasonUnknownLineEnding Reason = iota

	// ReasonPartialParse: the file parsed partially; rewriting unverified
	// content is unsafe.
	ReasonPartialParse

	// ReasonUnableToParse: the parse failed before any structure was
	// recognized.
	ReasonUnableToParse
)

// String returns the stable reason text used in rendered messages.
func (r Reason) String() string {
	switch r {
	case ReasonUnknownLineEnding:
		return "unknown line ending"
	case ReasonPartialParse:
		return "the file contained parse errors"
	case ReasonUnableToParse:
		return "unable to successfully parse the file"
	default:
		return "unknown"
	}
}

// Error is a classified per-file failure. It is fatal for that file only;
// the caller decides whether to continue with other files.
type Error struct {
	Path   string
	Reason Reason

	// Diag carries the parser's location and message when the reason is
	// parser-derived, nil otherwise.
	Diag *javasyntax.Diagnostic
}

// Error renders "file: <path>; reason: <text>", followed by the parser
// diagnostic on its own line when one exists.
func (e *Error) Error() string {
	msg := fmt.Sprintf("file: %s; reason: %s", e.Path, e.Reason)
	if e.Diag != nil {
		msg += "\nerrorMessage: " + e.Diag.String()
	}

	return msg
}
