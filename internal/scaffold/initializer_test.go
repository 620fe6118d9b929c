package scaffold

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dyluth/flowlog/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize(t *testing.T) {
	t.Run("fresh initialization", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, Initialize(dir, "mnist", false))

		cfg, err := config.Load(filepath.Join(dir, "flowlog.yml"))
		require.NoError(t, err)
		assert.Equal(t, "mnist", cfg.Collection)
		assert.Equal(t, "models", cfg.LocalModelPath)

		info, err := os.Stat(filepath.Join(dir, "models"))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("collection defaults to directory name", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "resnet")
		require.NoError(t, os.MkdirAll(dir, 0755))
		require.NoError(t, Initialize(dir, "", false))

		cfg, err := config.Load(filepath.Join(dir, "flowlog.yml"))
		require.NoError(t, err)
		assert.Equal(t, "resnet", cfg.Collection)
	})

	t.Run("refuses to overwrite without force", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "flowlog.yml"), []byte("old content"), 0644))

		err := Initialize(dir, "mnist", false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "project already initialized")

		content, err := os.ReadFile(filepath.Join(dir, "flowlog.yml"))
		require.NoError(t, err)
		assert.Equal(t, "old content", string(content))
	})

	t.Run("force replaces existing config", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "flowlog.yml"), []byte("old content"), 0644))

		require.NoError(t, Initialize(dir, "mnist", true))
		_, err := config.Load(filepath.Join(dir, "flowlog.yml"))
		assert.NoError(t, err)
	})
}

func TestCheckExisting(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, CheckExisting(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "flowlog.yml"), nil, 0644))
	err := CheckExisting(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flowlog init --force")
}
