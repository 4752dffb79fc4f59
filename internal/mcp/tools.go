package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/impsort/pkg/impsort"
)

// Tool name constants.
const (
	ToolNameCheck = "impsort_check"
	ToolNameSort  = "impsort_sort"
)

// Input size limits.
const (
	// MaxCodeInputBytes is the maximum allowed size for inline code input (1 MB).
	MaxCodeInputBytes = 1 << 20
)

// Sentinel errors for tool input validation.
var (
	// ErrEmptyCode indicates the code parameter is empty.
	ErrEmptyCode = errors.New("code parameter is required and must not be empty")
	// ErrCodeTooLarge indicates the code input exceeds the size limit.
	ErrCodeTooLarge = errors.New("code input exceeds maximum size")
)

// defaultFilename names inline code in diagnostics when no filename is given.
const defaultFilename = "Input.java"

// Input types (auto-generate JSON schemas via struct tags).

// SortInput is the input schema shared by the impsort_check and impsort_sort
// tools. Boolean options only switch behavior on; the configured defaults
// apply when a field is omitted.
type SortInput struct {
	BreadthFirst     bool   `json:"breadth_first,omitempty"                jsonschema:"compare import paths by segment count before name"`
	Code             string `json:"code"                                   jsonschema:"Java source code to check or sort"`
	Filename         string `json:"filename,omitempty"                     jsonschema:"file name used in diagnostics (default: Input.java)"`
	Groups           string `json:"groups,omitempty"                       jsonschema:"comma-separated group prefixes (e.g. java.,javax.,com.,*)"`
	JoinStatic       bool   `json:"join_static,omitempty"                  jsonschema:"sort static imports together with non-static imports"`
	LineEnding       string `json:"line_ending,omitempty"                  jsonschema:"line ending policy (auto keep lf crlf cr)"`
	RemoveUnused     bool   `json:"remove_unused,omitempty"                jsonschema:"remove imports not referenced by the source"`
	StaticAfter      bool   `json:"static_after,omitempty"                 jsonschema:"place static imports after non-static imports"`
	StaticGroups     string `json:"static_groups,omitempty"                jsonschema:"comma-separated group prefixes for static imports"`
	TreatSamePackage bool   `json:"treat_same_package_as_unused,omitempty" jsonschema:"treat imports from the file's own package as unused"`
}

// Output types.

// ImportInfo describes one parsed import declaration.
type ImportInfo struct {
	Path   string `json:"path"`
	Static bool   `json:"static"`
}

// CheckOutput is the structured result of the impsort_check tool.
type CheckOutput struct {
	Sorted  bool         `json:"sorted"`
	Imports []ImportInfo `json:"imports"`
	Reason  string       `json:"reason,omitempty"`
}

// SortOutput is the structured result of the impsort_sort tool.
type SortOutput struct {
	SortedCode string `json:"sorted_code"`
	Changed    bool   `json:"changed"`
}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// Result helpers.

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}

// validateCodeInput checks common code input constraints.
func validateCodeInput(code string) error {
	if code == "" {
		return ErrEmptyCode
	}

	if len(code) > MaxCodeInputBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrCodeTooLarge, len(code), MaxCodeInputBytes)
	}

	return nil
}

// inputFilename resolves the diagnostic filename for a tool call.
func inputFilename(input SortInput) string {
	if input.Filename != "" {
		return input.Filename
	}

	return defaultFilename
}

// engineFor builds an engine for one tool call, layering the per-call input
// options over the server's base configuration.
func (s *Server) engineFor(input SortInput) (*impsort.Engine, error) {
	cfg := s.cfg

	if input.Groups != "" {
		cfg.Grouping.Groups = impsort.ParseGroups(input.Groups)
	}

	if input.StaticGroups != "" {
		cfg.Grouping.StaticGroups = impsort.ParseGroups(input.StaticGroups)
	}

	if input.StaticAfter {
		cfg.Grouping.StaticAfter = true
	}

	if input.JoinStatic {
		cfg.Grouping.JoinStaticWithNonStatic = true
	}

	if input.BreadthFirst {
		cfg.Grouping.BreadthFirst = true
	}

	if input.RemoveUnused {
		cfg.RemoveUnused = true
	}

	if input.TreatSamePackage {
		cfg.TreatSamePackageAsUnused = true
	}

	if input.LineEnding != "" {
		ending, err := impsort.ParseLineEnding(input.LineEnding)
		if err != nil {
			return nil, fmt.Errorf("line_ending: %w", err)
		}

		cfg.LineEnding = ending
	}

	engine, err := impsort.New(cfg, s.parser, s.log)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	return engine, nil
}

// importInfos converts parsed import records to their wire representation.
func importInfos(records []impsort.ImportRecord) []ImportInfo {
	infos := make([]ImportInfo, 0, len(records))
	for _, rec := range records {
		infos = append(infos, ImportInfo{Path: rec.Import(), Static: rec.IsStatic()})
	}

	return infos
}
