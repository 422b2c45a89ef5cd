package demo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/demoreel/internal/choreo"
	"github.com/ivlev/demoreel/internal/easing"
	"github.com/ivlev/demoreel/internal/gate"
	"github.com/ivlev/demoreel/internal/script"
)

const ms = time.Millisecond

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	require.Equal(t, 8, c.Len())

	first := c.At(0)
	assert.Equal(t, "FICHE DE PAIE", first.Name)
	assert.True(t, first.Verdict.Flagged())
	assert.False(t, first.Zone.IsZero())

	assert.Equal(t, first, c.At(8))
	assert.Equal(t, c.At(7), c.At(-1))
	assert.False(t, c.At(1).Verdict.Flagged())
	assert.True(t, c.At(1).Zone.IsZero())
}

func TestParseCatalog(t *testing.T) {
	c, err := ParseCatalog([]byte(`
scenes:
  - name: RIB
    verdict: suspect
    alert: SUSPECT
    zone: {x: 90, y: -5, w: 30, h: 20}
`))
	require.NoError(t, err)
	assert.Equal(t, Zone{X: 90, Y: 0, W: 10, H: 15}, c.At(0).Zone)

	tests := []struct {
		name string
		data string
	}{
		{"no scenes", "scenes: []"},
		{"no name", "scenes: [{verdict: fraud}]"},
		{"bad verdict", "scenes: [{name: RIB, verdict: maybe}]"},
		{"not yaml", "scenes: {"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scenes: [{name: RIB, verdict: authentic}]"), 0644))

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, "RIB", c.At(3).Name)

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestZone(t *testing.T) {
	z := Zone{X: 60, Y: 35, W: 30, H: 10}

	assert.Equal(t, Point{X: 75, Y: 40}, z.Center())
	assert.True(t, z.Contains(60, 35))
	assert.True(t, z.Contains(90, 45))
	assert.False(t, z.Contains(91, 40))
	assert.Equal(t, z, z.Clamp())
	assert.True(t, Zone{X: 10, Y: 10}.IsZero())
}

func newSlider(t *testing.T) *Slider {
	t.Helper()
	s, err := script.Build([]script.Beat{
		script.Tween(SliderPosition, 50, 20, 500*ms, easing.Linear),
		script.Hold(Revealed, 300*ms),
		script.Tween(SliderPosition, 20, 80, 1000*ms, easing.Linear),
	}, script.WithStates(States()...))
	require.NoError(t, err)
	return NewSlider(choreo.New(s))
}

func TestSliderFollowsScript(t *testing.T) {
	s := newSlider(t)
	assert.Equal(t, 80.0, s.Position())

	require.NoError(t, s.Start())
	assert.Equal(t, 35.0, s.Tick(250*ms))
	assert.Equal(t, 20.0, s.Tick(250*ms))

	// Hovering does not take over.
	s.Pointer(gate.Input{Kind: gate.PointerMove, X: 90})
	assert.False(t, s.Engaged())
	assert.Equal(t, 20.0, s.Tick(300*ms))
}

func TestSliderHandOver(t *testing.T) {
	s := newSlider(t)
	require.NoError(t, s.Start())
	s.Tick(250 * ms)

	s.Pointer(gate.Input{Kind: gate.PointerDown, X: 70})
	assert.True(t, s.Engaged())
	assert.Equal(t, 70.0, s.Position())

	// The script no longer moves the slider.
	assert.Equal(t, 70.0, s.Tick(250*ms))

	s.Pointer(gate.Input{Kind: gate.PointerMove, X: 120, Buttons: 1})
	assert.Equal(t, 100.0, s.Position())

	s.Pointer(gate.Input{Kind: gate.PointerUp, X: 40})
	s.Pointer(gate.Input{Kind: gate.PointerMove, X: 10})
	assert.Equal(t, 100.0, s.Position())

	s.Pointer(gate.Input{Kind: gate.TouchMove, X: 30})
	assert.Equal(t, 30.0, s.Position())

	assert.ErrorIs(t, s.Start(), gate.ErrUserEngaged)
}
