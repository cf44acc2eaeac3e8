package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile_OverlayOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
window: 5m
output_dir: /tmp/incidents
key_columns: ["namespace", "pod"]
metrics_addr: ":9090"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.Window)
	assert.Equal(t, "/tmp/incidents", cfg.OutputDir)
	assert.Equal(t, []string{"namespace", "pod"}, cfg.KeyColumns)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
}

func TestLoadFile_MissingFileIsAnError(t *testing.T) {
	_, err := LoadFile("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestLoadFile_InvalidOverlayFailsValidation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("window: 0s\n"), 0o644))

	_, err := LoadFile(path)
	assert.Error(t, err)
}
