package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/cairokit/internal/cli/config"
	"github.com/leapstack-labs/cairokit/internal/testutil"
)

func executeRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestNewRootCmd(t *testing.T) {
	root := NewRootCmd()

	assert.Equal(t, "cairokit", root.Use)
	assert.True(t, root.SilenceUsage)
	assert.True(t, root.SilenceErrors)

	want := []string{"merge", "compile", "doctor", "history", "init", "version", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}

	for _, flag := range []string{"config", "project-dir", "library-dir", "workspace-dir", "corelib-dir", "state", "strict-marker", "verbose", "output"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestRoot_Merge(t *testing.T) {
	ws := testutil.SetupWorkspace(t)
	t.Chdir(t.TempDir())

	stdout, _, err := executeRoot(t, "--project-dir", ws.Root, "-o", "markdown", "merge")
	require.NoError(t, err)

	assert.Contains(t, stdout, "## Merged libraries")
	assert.Equal(t, "mod core;\n// TEMPFIX\nmod oz;\nmod anotherlib;", testutil.ReadFile(t, ws.RootModule))
}

func TestRoot_VerboseLogsToStderr(t *testing.T) {
	ws := testutil.SetupWorkspace(t)
	t.Chdir(ws.Root)

	_, stderr, err := executeRoot(t, "--verbose", "merge")
	require.NoError(t, err)

	assert.Contains(t, stderr, "level=DEBUG")
	assert.Contains(t, stderr, "corelib updated")
}

func TestRoot_InvalidOutput(t *testing.T) {
	ws := testutil.SetupWorkspace(t)
	t.Chdir(ws.Root)

	_, _, err := executeRoot(t, "-o", "yaml", "merge")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output mode")
}

func TestRoot_Version(t *testing.T) {
	stdout, _, err := executeRoot(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "cairokit v"+Version)
}

func TestRoot_Completion(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			stdout, _, err := executeRoot(t, "completion", shell)
			require.NoError(t, err)
			assert.Contains(t, stdout, "cairokit")
		})
	}

	_, _, err := executeRoot(t, "completion", "tcsh")
	require.Error(t, err)
}
