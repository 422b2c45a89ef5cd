package director

import (
	"fmt"
	"math"
	"sort"

	"github.com/ivlev/demoreel/internal/demo"
)

// Director generates demo scripts for the built-in widgets
type Director struct {
	MinDwell float64 // Minimum time per dwell beat (milliseconds)
	MaxDwell float64 // Maximum time per dwell beat (milliseconds)
	Travel   float64 // Time for one cursor move (milliseconds)

	Home demo.Point // Where the cursor rests between loops
	Drop demo.Point // Centre of the upload area
}

// NewDirector creates a new Director with default settings
func NewDirector() *Director {
	return &Director{
		MinDwell: 400,
		MaxDwell: 3000,
		Travel:   900,
		Home:     demo.Point{X: 85, Y: 80},
		Drop:     demo.Point{X: 50, Y: 50},
	}
}

// Presets lists the names accepted by Preset.
func Presets() []string {
	return []string{"comparison", "upload"}
}

// Preset returns the named built-in document.
func (d *Director) Preset(name string) (*Document, error) {
	switch name {
	case "comparison":
		return d.ComparisonSweep(), nil
	case "upload":
		return d.UploadWalkthrough(), nil
	default:
		return nil, fmt.Errorf("unknown preset %q (want one of %v)", name, Presets())
	}
}

// ComparisonSweep sweeps the before/after slider left, right and back to
// the middle, pausing on each side.
func (d *Director) ComparisonSweep() *Document {
	return &Document{
		Version: Version,
		Name:    "comparison",
		States:  stateNames(),
		Beats: []BeatSpec{
			Set(demo.Idle),
			Tween(demo.SliderPosition, 50, 20, 1200, "in-out-quad"),
			Hold(demo.Revealed, 800),
			Tween(demo.SliderPosition, 20, 80, 1600, "in-out-quad"),
			Hold(demo.Revealed, 800),
			Tween(demo.SliderPosition, 80, 50, 1200, "in-out-quad"),
			Hold(demo.Idle, 1400),
		},
	}
}

// UploadWalkthrough drags a document from the cursor's resting place onto
// the upload area, scans it, shows the verdict and returns the cursor.
func (d *Director) UploadWalkthrough() *Document {
	home, drop := d.Home, d.Drop
	return &Document{
		Version: Version,
		Name:    "upload",
		States:  stateNames(),
		Beats: []BeatSpec{
			Hold(demo.Idle, 1000),
			Set(demo.Dragging),
			Tween(demo.CursorX, home.X, drop.X, d.Travel+200, "in-out-quad").
				With(demo.CursorY, home.Y, drop.Y),
			Hold(demo.Dropped, 500),
			Set(demo.Scanning),
			Tween(demo.ScanLine, 0, 100, 2000, "in-out-quad"),
			Hold(demo.Revealed, 2500),
			Set(demo.Idle),
			Tween(demo.CursorX, drop.X, home.X, d.Travel-100, "out-quad").
				With(demo.CursorY, drop.Y, home.Y),
		},
	}
}

// Tour points the cursor at each zone in reading order, dwelling on each
// for an equal share of the loop.
func (d *Director) Tour(zones []demo.Zone, totalMs float64) (*Document, error) {
	if len(zones) == 0 {
		return nil, fmt.Errorf("no zones to tour")
	}

	sorted := d.sortZones(zones)
	dwell := d.calculateDwellTime(totalMs, len(sorted))

	beats := []BeatSpec{Hold(demo.Idle, 1000), Set(demo.Revealed)}
	at := d.Home
	for _, z := range sorted {
		c := z.Center()
		beats = append(beats,
			Tween(demo.CursorX, at.X, c.X, d.Travel, "in-out-cubic").With(demo.CursorY, at.Y, c.Y),
			Hold(demo.Revealed, dwell),
		)
		at = c
	}
	beats = append(beats,
		Set(demo.Idle),
		Tween(demo.CursorX, at.X, d.Home.X, d.Travel, "in-out-cubic").With(demo.CursorY, at.Y, d.Home.Y),
	)

	return &Document{
		Version: Version,
		Name:    "tour",
		States:  stateNames(),
		Beats:   beats,
		Loop:    &LoopPolicy{Target: totalMs},
	}, nil
}

// Fit returns a copy of doc whose dwell beats are scaled so that the loop
// lasts about totalMs. Moves keep their length and every dwell stays
// within [MinDwell, MaxDwell], so the result can miss the target.
func (d *Director) Fit(doc *Document, totalMs float64) *Document {
	out := *doc
	out.Beats = make([]BeatSpec, len(doc.Beats))
	copy(out.Beats, doc.Beats)
	out.Loop = &LoopPolicy{Target: totalMs}

	var moving, dwelling float64
	for _, b := range out.Beats {
		if isDwell(b) {
			dwelling += b.Duration
		} else {
			moving += b.Duration
		}
	}
	if dwelling == 0 {
		return &out
	}

	scale := (totalMs - moving) / dwelling
	for i, b := range out.Beats {
		if isDwell(b) {
			out.Beats[i].Duration = d.clampDwell(math.Round(b.Duration * scale))
		}
	}
	return &out
}

// sortZones sorts zones in reading order (top-to-bottom, left-to-right)
func (d *Director) sortZones(zones []demo.Zone) []demo.Zone {
	sorted := make([]demo.Zone, len(zones))
	copy(sorted, zones)

	sort.SliceStable(sorted, func(i, j int) bool {
		// Zones starting within 5% of each other share a row
		const threshold = 5.0

		if math.Abs(sorted[i].Y-sorted[j].Y) > threshold {
			return sorted[i].Y < sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	return sorted
}

// calculateDwellTime determines how long to rest on each zone
func (d *Director) calculateDwellTime(totalMs float64, zoneCount int) float64 {
	// Intro dwell plus one move per zone and the move home
	reserved := 1000 + d.Travel*float64(zoneCount+1)
	available := totalMs - reserved

	if available <= 0 {
		return d.MinDwell
	}
	return d.clampDwell(available / float64(zoneCount))
}

func (d *Director) clampDwell(ms float64) float64 {
	return math.Max(d.MinDwell, math.Min(d.MaxDwell, ms))
}

func isDwell(b BeatSpec) bool {
	return b.Kind == "dwell" || b.Kind == "hold"
}

func stateNames() []string {
	states := demo.States()
	names := make([]string, len(states))
	for i, s := range states {
		names[i] = string(s)
	}
	return names
}
