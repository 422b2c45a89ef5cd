package system

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestImagePool(t *testing.T) {
	pool := NewImagePool()
	rect := image.Rect(0, 0, 32, 16)

	img := pool.Get(rect)
	require.NotNil(t, img)
	assert.Equal(t, rect, img.Rect)
	pool.Put(img)

	other := pool.Get(image.Rect(0, 0, 8, 8))
	assert.Equal(t, image.Rect(0, 0, 8, 8), other.Rect)

	// Foreign sizes and nil are ignored.
	pool.Put(image.NewRGBA(image.Rect(0, 0, 3, 3)))
	pool.Put(nil)
}

func TestWorkers(t *testing.T) {
	frame := int64(1280 * 720 * 4)

	tests := []struct {
		name string
		res  Resources
		want int
	}{
		{"cpu bound", Resources{CPUs: 8, Available: 16 << 30}, 8},
		{"memory bound", Resources{CPUs: 8, Available: uint64(frame) * 4 * 3}, 3},
		{"no memory", Resources{CPUs: 8, Available: 1}, 1},
		{"unknown memory", Resources{CPUs: 4}, 4},
		{"no cpus", Resources{}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.res.Workers(frame))
		})
	}
}

func TestProbe(t *testing.T) {
	res, err := Probe(context.Background())
	if err != nil {
		t.Skipf("host resources unavailable: %v", err)
	}
	assert.Positive(t, res.CPUs)
	assert.Positive(t, res.Workers(4096))
}

func TestFindLatest(t *testing.T) {
	dir := t.TempDir()
	files := []string{"a.pdf", "b.PDF", "c.png"}
	for i, name := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, nil, 0644))
		mod := time.Now().Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(path, mod, mod))
	}

	latest, err := FindLatest(dir, ".pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "b.PDF"), latest)

	latest, err = FindLatest(dir, ".pdf", ".png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "c.png"), latest)

	_, err = FindLatest(dir, ".mp3")
	assert.Error(t, err)
}

func TestGetBestH264Encoder(t *testing.T) {
	enc := GetBestH264Encoder(context.Background())
	assert.Contains(t, []string{"libx264", "h264_nvenc", "h264_videotoolbox"}, enc)
}

func TestRaiseFileLimit(t *testing.T) {
	RaiseFileLimit(zaptest.NewLogger(t))
}
