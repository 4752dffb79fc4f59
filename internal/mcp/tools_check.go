package mcp

import (
	"context"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/impsort/pkg/impsort"
)

// handleCheck processes impsort_check tool calls. Files the engine refuses
// to sort still produce a structured result; the reason replaces the verdict.
func (s *Server) handleCheck(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input SortInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateCodeInput(input.Code)
	if err != nil {
		return errorResult(err)
	}

	engine, err := s.engineFor(input)
	if err != nil {
		return errorResult(err)
	}

	result, err := engine.Sort(ctx, inputFilename(input), []byte(input.Code))
	if err != nil {
		var sortErr *impsort.Error
		if errors.As(err, &sortErr) {
			return jsonResult(CheckOutput{
				Sorted:  false,
				Imports: []ImportInfo{},
				Reason:  sortErr.Reason.String(),
			})
		}

		return errorResult(fmt.Errorf("sort code: %w", err))
	}

	return jsonResult(CheckOutput{
		Sorted:  result.IsSorted(),
		Imports: importInfos(result.Imports()),
	})
}
