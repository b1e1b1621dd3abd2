package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("capture:\n  technology: x11\n  frame_rate: 60\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "x11", cfg.Capture.Technology)
	assert.Equal(t, 60, cfg.Capture.FrameRate)
	assert.Equal(t, DefaultConfig().Scaler.TargetWidth, cfg.Scaler.TargetWidth)
}

func TestValidateRejectsBadFrameRate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capture.FrameRate = 0
	require.Error(t, cfg.validate())
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := DefaultConfig()
	cfg.API.Port = 99999
	require.Error(t, cfg.validate())
}

func TestValidateRejectsUnknownLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = "verbose"
	require.Error(t, cfg.validate())
}
