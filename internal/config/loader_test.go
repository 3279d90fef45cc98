package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindConfigFile(t *testing.T) {
	t.Run("yaml preferred over yml", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), nil, 0600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileNameAlt), nil, 0600))
		assert.Equal(t, filepath.Join(dir, ConfigFileName), FindConfigFile(dir))
	})

	t.Run("yml fallback", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileNameAlt), nil, 0600))
		assert.Equal(t, filepath.Join(dir, ConfigFileNameAlt), FindConfigFile(dir))
	})

	t.Run("none", func(t *testing.T) {
		assert.Empty(t, FindConfigFile(t.TempDir()))
	})
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), []byte("libraries: [oz]\n"), 0600))
	nested := filepath.Join(root, "src", "lib", "oz")
	require.NoError(t, os.MkdirAll(nested, 0750))

	assert.Equal(t, root, FindProjectRoot(nested, 10))
	assert.Empty(t, FindProjectRoot(nested, 1), "search depth should be bounded")
	assert.Equal(t, root, FindProjectRoot(root, 0))
}
