package commands

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/cairokit/internal/state"
	"github.com/leapstack-labs/cairokit/internal/testutil"
	"github.com/leapstack-labs/cairokit/internal/toolchain"
)

func TestNewCompileCommand(t *testing.T) {
	cmd := NewCompileCommand()

	assert.Equal(t, "compile <source>", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Example)
	for _, flag := range []string{"merge", "out-dir"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestCompileCommand(t *testing.T) {
	ws, cfg := setupProject(t, nil)

	stdout, _, err := execute(t, NewCompileCommand(), "contracts/token.cairo")
	require.NoError(t, err)

	wantOut := filepath.Join("..", "out", "token.json")
	assert.Contains(t, stdout, "args=contracts/token.cairo|"+wantOut+"|--replace-ids")
	assert.Contains(t, stdout, "Compiled contracts/token.cairo -> "+wantOut)
	assert.FileExists(t, filepath.Join(ws.Root, "out", "token.json"), "artifact is resolved from the workspace")

	entries := listHistory(t, cfg)
	require.Len(t, entries, 1)
	assert.Equal(t, state.KindCompile, entries[0].Kind)
	assert.Equal(t, state.StatusSuccess, entries[0].Status)
	assert.Equal(t, "contracts/token.cairo", entries[0].Subject)
	assert.Equal(t, wantOut, entries[0].Detail)
	require.NotNil(t, entries[0].ExitCode)
	assert.Equal(t, 0, *entries[0].ExitCode)
}

func TestCompileCommand_ExitCodePropagates(t *testing.T) {
	_, cfg := setupProject(t, nil)
	t.Setenv("CAIROKIT_HELPER_EXIT", "3")

	_, _, err := execute(t, NewCompileCommand(), "token.cairo")
	require.Error(t, err)
	assert.ErrorIs(t, err, toolchain.ErrCompileFailed)

	var exitErr *toolchain.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.Code)

	entries := listHistory(t, cfg)
	require.Len(t, entries, 1)
	assert.Equal(t, state.StatusFailed, entries[0].Status)
	require.NotNil(t, entries[0].ExitCode)
	assert.Equal(t, 3, *entries[0].ExitCode)
}

func TestCompileCommand_OutDir(t *testing.T) {
	ws, _ := setupProject(t, nil)

	_, _, err := execute(t, NewCompileCommand(), "--out-dir", "artifacts", "a.b.cairo")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(ws.Toolchain, "artifacts", "a.b.json"))
}

func TestCompileCommand_Merge(t *testing.T) {
	ws, cfg := setupProject(t, nil)

	_, _, err := execute(t, NewCompileCommand(), "--merge", "token.cairo")
	require.NoError(t, err)

	assert.Equal(t, "mod core;\n// TEMPFIX\nmod oz;\nmod anotherlib;", testutil.ReadFile(t, ws.RootModule))

	entries := listHistory(t, cfg)
	require.Len(t, entries, 2)
	assert.Equal(t, state.KindCompile, entries[0].Kind)
	assert.Equal(t, state.KindMerge, entries[1].Kind)
}

func TestCompileCommand_JSON(t *testing.T) {
	t.Setenv("CAIROKIT_OUTPUT", "json")
	setupProject(t, nil)

	stdout, stderr, err := execute(t, NewCompileCommand(), "token.cairo")
	require.NoError(t, err)

	// Compiler output goes to stderr so stdout stays valid JSON.
	assert.Contains(t, stderr, "args=token.cairo")

	var res toolchain.Result
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "token.cairo", res.Job.Source)
}

func TestCompileCommand_MissingCompiler(t *testing.T) {
	_, cfg := setupProject(t, map[string]any{
		"compile_command": []string{filepath.Join(t.TempDir(), "no-such-compiler")},
	})

	_, _, err := execute(t, NewCompileCommand(), "token.cairo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start compiler")

	entries := listHistory(t, cfg)
	require.Len(t, entries, 1)
	assert.Equal(t, state.StatusFailed, entries[0].Status)
	assert.Nil(t, entries[0].ExitCode)
}

func TestCompileCommand_Args(t *testing.T) {
	setupProject(t, nil)

	_, _, err := execute(t, NewCompileCommand())
	require.Error(t, err)

	_, _, err = execute(t, NewCompileCommand(), "a.cairo", "b.cairo")
	require.Error(t, err)
}
