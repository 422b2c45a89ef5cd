package engine

import (
	"context"
	"errors"
	"image"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ivlev/demoreel/internal/config"
	"github.com/ivlev/demoreel/internal/demo"
	"github.com/ivlev/demoreel/internal/director"
	"github.com/ivlev/demoreel/internal/script"
	"github.com/ivlev/demoreel/internal/source"
	"github.com/ivlev/demoreel/internal/video"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// recorder is an Encoder that keeps a copy of every frame written.
type recorder struct {
	mu     sync.Mutex
	params video.Params
	frames [][]byte
	closed bool
	fail   error
}

func (r *recorder) Open(ctx context.Context, path string, p video.Params) (video.Stream, error) {
	r.params = p
	return r, nil
}

func (r *recorder) WriteFrame(img image.Image) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	rgba := img.(*image.RGBA)
	r.frames = append(r.frames, append([]byte(nil), rgba.Pix...))
	return nil
}

func (r *recorder) Close() error {
	r.closed = true
	return nil
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Width, cfg.Height = 160, 90
	cfg.FPS = 10
	cfg.DPI = 24
	cfg.Workers = 2
	cfg.Output = "out.gif"
	return cfg
}

func newTestProject(cfg config.Config, enc video.Encoder) *Project {
	catalog := demo.DefaultCatalog()
	return NewProject(cfg, source.NewStampSource(catalog), enc, catalog, nil)
}

func TestRunOneLoop(t *testing.T) {
	rec := &recorder{}
	p := newTestProject(testConfig(), rec)

	report, err := p.Run(context.Background())
	require.NoError(t, err)

	// The comparison sweep lasts seven seconds.
	assert.Equal(t, 70, report.Frames)
	assert.Equal(t, 0, report.Loops)
	assert.Equal(t, 7*time.Second, report.Length)
	assert.False(t, report.Interrupted)
	assert.Equal(t, 2, report.Workers)

	assert.Len(t, rec.frames, 70)
	assert.True(t, rec.closed)
	assert.Equal(t, video.Params{Width: 160, Height: 90, FPS: 10, Quality: 23}, rec.params)
	assert.NotEqual(t, rec.frames[0], rec.frames[10], "slider should have moved")
}

func TestRunDuration(t *testing.T) {
	cfg := testConfig()
	cfg.Duration = 15 * time.Second
	rec := &recorder{}

	report, err := newTestProject(cfg, rec).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 150, report.Frames)
	assert.Equal(t, 2, report.Loops)
	assert.Len(t, rec.frames, 150)
}

func TestRunInterrupted(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	cfg := testConfig()
	cfg.InterruptAt = 450 * time.Millisecond
	rec := &recorder{}
	p := newTestProject(cfg, rec)
	p.Log = zap.New(core)

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Interrupted)
	assert.Equal(t, 5, report.Frames)
	assert.Len(t, rec.frames, 5)

	finished := logs.FilterMessage("export finished").All()
	require.Len(t, finished, 1)
	fields := finished[0].ContextMap()
	assert.Equal(t, int64(5), fields["frames"])
	assert.Equal(t, true, fields["interrupted"])
}

func TestRunInterruptedAtStart(t *testing.T) {
	cfg := testConfig()
	cfg.InterruptAt = time.Millisecond

	report, err := newTestProject(cfg, &recorder{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Frames)
}

func TestRunScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upload.yaml")
	require.NoError(t, director.WriteDocument(director.NewDirector().UploadWalkthrough(), path))

	cfg := testConfig()
	cfg.Script = path
	cfg.Preset = "ignored"
	rec := &recorder{}

	report, err := newTestProject(cfg, rec).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 79, report.Frames)
}

func TestRunFitLoop(t *testing.T) {
	cfg := testConfig()
	cfg.FitLoop = 10 * time.Second

	report, err := newTestProject(cfg, &recorder{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100, report.Frames)
}

func TestRunErrors(t *testing.T) {
	t.Run("unknown preset", func(t *testing.T) {
		cfg := testConfig()
		cfg.Preset = "carousel"
		_, err := newTestProject(cfg, &recorder{}).Run(context.Background())
		assert.ErrorContains(t, err, "unknown preset")
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := testConfig()
		cfg.FPS = 0
		_, err := newTestProject(cfg, &recorder{}).Run(context.Background())
		assert.Error(t, err)
	})

	t.Run("missing script", func(t *testing.T) {
		cfg := testConfig()
		cfg.Script = filepath.Join(t.TempDir(), "missing.yaml")
		_, err := newTestProject(cfg, &recorder{}).Run(context.Background())
		assert.Error(t, err)
	})

	t.Run("write fails", func(t *testing.T) {
		boom := errors.New("disk full")
		_, err := newTestProject(testConfig(), &recorder{fail: boom}).Run(context.Background())
		assert.ErrorIs(t, err, boom)
		assert.ErrorContains(t, err, "write frame 0")
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := newTestProject(testConfig(), &recorder{}).Run(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestDocument(t *testing.T) {
	cfg := testConfig()
	cfg.Preset = "upload"
	doc, err := newTestProject(cfg, nil).Document(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "upload", doc.Name)
	assert.Nil(t, doc.Loop)
}

func TestDocumentTour(t *testing.T) {
	cfg := testConfig()
	cfg.Preset = "tour"
	cfg.FitLoop = 12 * time.Second

	doc, err := newTestProject(cfg, nil).Document(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tour", doc.Name)
	require.NotNil(t, doc.Loop)
	assert.Equal(t, 12000.0, doc.Loop.Target)

	s, err := doc.Compile()
	require.NoError(t, err)
	assert.Contains(t, s.Channels(), demo.CursorX)
	assert.Contains(t, s.Channels(), demo.CursorY)
}

func TestTrace(t *testing.T) {
	s, err := director.NewDirector().ComparisonSweep().Compile()
	require.NoError(t, err)

	frames, err := Trace(context.Background(), s, []time.Duration{0, 1200 * time.Millisecond, 800 * time.Millisecond})
	require.NoError(t, err)
	require.Len(t, frames, 3)

	assert.Equal(t, 50.0, frames[0].Value(demo.SliderPosition))
	assert.Equal(t, demo.Idle, frames[0].State)
	assert.Equal(t, 1, frames[0].Beat)

	assert.Equal(t, 20.0, frames[1].Value(demo.SliderPosition))
	assert.Equal(t, demo.Revealed, frames[1].State)
	assert.Equal(t, 2, frames[1].Beat)

	assert.Equal(t, 3, frames[2].Beat)
	assert.Equal(t, time.Duration(0), frames[2].Elapsed)
	assert.Equal(t, script.State("revealed"), frames[2].State)
}
