package main

import (
	"os"
	"path/filepath"
	"testing"

	"talent-escrow/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	dir := t.TempDir()
	logger := newLogger(utils.AppConfig{Name: "talent-escrow", Env: "test", LogPath: dir})
	require.NotNil(t, logger)
	logger.Info("ready")
	_ = logger.Sync()
	assert.FileExists(t, filepath.Join(dir, "talent-escrow.log"))
}

func TestNewLogger_FallsBackWhenLogPathUnusable(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	logger := newLogger(utils.AppConfig{LogPath: filepath.Join(blocker, "logs")})
	assert.NotNil(t, logger)
}
