package commands_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/impsort/cmd/impsort/commands"
)

func TestLSPCommand_Exists(t *testing.T) {
	t.Parallel()

	cmd := commands.NewLSPCommand()
	require.NotNil(t, cmd)
	require.Equal(t, "lsp", cmd.Use)
	require.NotEmpty(t, cmd.Short)
	require.Contains(t, cmd.Long, "textDocument/formatting")
}

func TestLSPCommand_DebugFlag(t *testing.T) {
	t.Parallel()

	cmd := commands.NewLSPCommand()

	flag := cmd.Flags().Lookup("debug")
	require.NotNil(t, flag)
	require.Equal(t, "false", flag.DefValue)
}
