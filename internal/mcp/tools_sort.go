package mcp

import (
	"context"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/impsort/pkg/impsort"
)

// handleSort processes impsort_sort tool calls.
func (s *Server) handleSort(
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
			return errorResult(err)
		}

		return errorResult(fmt.Errorf("sort code: %w", err))
	}

	return jsonResult(SortOutput{
		SortedCode: string(result.Rewritten()),
		Changed:    !result.IsSorted(),
	})
}
