package config

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 150, cfg.Preview.DPI)
	assert.Equal(t, 30*time.Second, cfg.Preview.Timeout)
	assert.False(t, cfg.Strict())
	assert.False(t, cfg.Codec.Flatten)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	content := `preview:
  dpi: 72
  maxWidth: 400
  pdftoppm: /opt/poppler/bin/pdftoppm
  timeout: 5s
codec:
  validation: strict
  flatten: true
logLevel: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pdfmerger.yml"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 72, cfg.Preview.DPI)
	assert.Equal(t, 400, cfg.Preview.MaxWidth)
	assert.Equal(t, 800, cfg.Preview.MaxHeight, "unset keys keep defaults")
	assert.Equal(t, 64, cfg.Preview.CacheSize)
	assert.Equal(t, "/opt/poppler/bin/pdftoppm", cfg.Preview.Pdftoppm)
	assert.Equal(t, 5*time.Second, cfg.Preview.Timeout)
	assert.True(t, cfg.Strict())
	assert.True(t, cfg.Codec.Flatten)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadYAMLExtension(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pdfmerger.yaml"), []byte("logLevel: warn\n"), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "preview: [1, 2\n"},
		{"dpi", "preview:\n  dpi: -1\n"},
		{"validation", "codec:\n  validation: lenient\n"},
		{"level", "logLevel: loud\n"},
		{"timeout", "preview:\n  timeout: soon\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "pdfmerger.yml"), []byte(tt.content), 0o644))
			_, err := Load(dir)
			assert.Error(t, err)
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yml"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
