package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ivlev/demoreel/internal/config"
)

func touch(t *testing.T, dir, name string, age time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, nil, 0644))
	mod := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, mod, mod))
	return path
}

func TestResolveLatest(t *testing.T) {
	scripts, input := t.TempDir(), t.TempDir()
	touch(t, scripts, "old.yaml", time.Hour)
	newest := touch(t, scripts, "new.yaml", time.Minute)
	touch(t, input, "a.pdf", time.Hour)
	page := touch(t, input, "b.png", time.Minute)
	touch(t, input, "notes.txt", 0)

	cfg := config.Default()
	cfg.Script, cfg.Backdrop = "latest", "latest"
	require.NoError(t, resolveLatest(&cfg, scripts, input, zap.NewNop()))
	assert.Equal(t, newest, cfg.Script)
	assert.Equal(t, page, cfg.Backdrop)
}

func TestResolveLatestLeavesPaths(t *testing.T) {
	cfg := config.Default()
	cfg.Script, cfg.Backdrop = "demo.yaml", "deck.pdf"
	require.NoError(t, resolveLatest(&cfg, "missing", "missing", zap.NewNop()))
	assert.Equal(t, "demo.yaml", cfg.Script)
	assert.Equal(t, "deck.pdf", cfg.Backdrop)
}

func TestResolveLatestNoBackdrop(t *testing.T) {
	input := t.TempDir()
	touch(t, input, "notes.txt", 0)

	cfg := config.Default()
	cfg.Backdrop = "latest"
	err := resolveLatest(&cfg, t.TempDir(), input, zap.NewNop())
	assert.ErrorContains(t, err, "latest backdrop")
}
