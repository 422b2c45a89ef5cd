package director

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/demoreel/internal/choreo"
	"github.com/ivlev/demoreel/internal/demo"
)

const ms = time.Millisecond

func TestPresetsCompile(t *testing.T) {
	director := NewDirector()

	for _, name := range Presets() {
		t.Run(name, func(t *testing.T) {
			doc, err := director.Preset(name)
			require.NoError(t, err)
			assert.Equal(t, Version, doc.Version)

			s, err := doc.Compile()
			require.NoError(t, err)
			assert.Equal(t, doc.Duration(), float64(s.Duration().Milliseconds()))
		})
	}

	_, err := director.Preset("carousel")
	assert.Error(t, err)
}

func TestComparisonSweepLoopsSeamlessly(t *testing.T) {
	s, err := NewDirector().ComparisonSweep().Compile()
	require.NoError(t, err)

	c := choreo.New(s)
	require.NoError(t, c.Start())
	first := c.Snapshot()
	assert.Equal(t, 50.0, first.Value(demo.SliderPosition))
	assert.Equal(t, demo.Idle, first.State)

	f, ok := c.Tick(s.Duration())
	require.True(t, ok)
	assert.Equal(t, 1, f.Scene)
	assert.Equal(t, first.Values, f.Values)
	assert.Equal(t, first.State, f.State)
}

func TestUploadWalkthrough(t *testing.T) {
	director := NewDirector()
	s, err := director.UploadWalkthrough().Compile()
	require.NoError(t, err)

	c := choreo.New(s)
	require.NoError(t, c.Start())

	f := c.Snapshot()
	assert.Equal(t, demo.Idle, f.State)
	assert.Equal(t, director.Home.X, f.Value(demo.CursorX))
	assert.Equal(t, director.Home.Y, f.Value(demo.CursorY))

	// Past the idle hold and the drag, into the dropped hold.
	f, _ = c.Tick(1000*ms + 1100*ms + 100*ms)
	assert.Equal(t, demo.Dropped, f.State)
	assert.Equal(t, director.Drop.X, f.Value(demo.CursorX))
	assert.Equal(t, director.Drop.Y, f.Value(demo.CursorY))

	// Halfway through the scan.
	f, _ = c.Tick(400*ms + 1000*ms)
	assert.Equal(t, demo.Scanning, f.State)
	assert.InDelta(t, 50.0, f.Value(demo.ScanLine), 1e-9)
}

func TestTour(t *testing.T) {
	director := NewDirector()
	zones := []demo.Zone{
		{X: 60, Y: 70, W: 20, H: 10},
		{X: 10, Y: 10, W: 20, H: 10},
		{X: 50, Y: 12, W: 10, H: 10},
	}

	doc, err := director.Tour(zones, 12000)
	require.NoError(t, err)
	_, err = doc.Compile()
	require.NoError(t, err)

	// Zones visited in reading order: the two top zones left to right,
	// then the bottom one.
	var targets []demo.Point
	for _, b := range doc.Beats {
		if b.Kind == "interpolate" {
			targets = append(targets, demo.Point{X: b.To, Y: b.Also[0].To})
		}
	}
	assert.Equal(t, []demo.Point{{X: 20, Y: 15}, {X: 55, Y: 17}, {X: 70, Y: 75}, director.Home}, targets)

	// 12000ms less the intro and four moves leaves 2467ms per zone.
	assert.InDelta(t, 2466.7, doc.Beats[3].Duration, 0.1)

	_, err = director.Tour(nil, 12000)
	assert.Error(t, err)
}

func TestTourDwellClamped(t *testing.T) {
	director := NewDirector()
	zones := []demo.Zone{{X: 10, Y: 10, W: 10, H: 10}}

	doc, err := director.Tour(zones, 1000)
	require.NoError(t, err)
	assert.Equal(t, director.MinDwell, doc.Beats[3].Duration)

	doc, err = director.Tour(zones, 60000)
	require.NoError(t, err)
	assert.Equal(t, director.MaxDwell, doc.Beats[3].Duration)
}

func TestFit(t *testing.T) {
	director := NewDirector()
	doc := director.ComparisonSweep()
	// Moves take 4000ms and dwells 3000ms.
	require.Equal(t, 7000.0, doc.Duration())

	fitted := director.Fit(doc, 10000)
	assert.Equal(t, 10000.0, fitted.Duration())
	assert.Equal(t, 10000.0, fitted.Loop.Target)
	assert.Equal(t, 1600.0, fitted.Beats[2].Duration)
	assert.Equal(t, 2800.0, fitted.Beats[6].Duration)

	// The original is left alone.
	assert.Equal(t, 800.0, doc.Beats[2].Duration)
	assert.Nil(t, doc.Loop)

	// A target shorter than the moves pins every dwell to the minimum.
	short := director.Fit(doc, 3000)
	for _, b := range short.Beats {
		if b.Kind == "dwell" {
			assert.Equal(t, director.MinDwell, b.Duration)
		}
	}
}
