package analyzer

import (
	"image"
	"sort"

	"github.com/ivlev/demoreel/internal/demo"
)

// Region represents a detected area of interest in an image
type Region struct {
	Rect    image.Rectangle
	Density float64 // Share of edge pixels inside Rect, 0.0-1.0
}

// Detector is the interface for image analysis strategies
type Detector interface {
	Detect(img image.Image) ([]Region, error)
}

// ZoneOf converts a region to a zone in percent of bounds.
func ZoneOf(r Region, bounds image.Rectangle) demo.Zone {
	if bounds.Empty() {
		return demo.Zone{}
	}
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	rect := r.Rect.Intersect(bounds)
	return demo.Zone{
		X: 100 * float64(rect.Min.X-bounds.Min.X) / w,
		Y: 100 * float64(rect.Min.Y-bounds.Min.Y) / h,
		W: 100 * float64(rect.Dx()) / w,
		H: 100 * float64(rect.Dy()) / h,
	}
}

// Zones converts regions to zones in percent of bounds, keeping order.
func Zones(regions []Region, bounds image.Rectangle) []demo.Zone {
	zones := make([]demo.Zone, 0, len(regions))
	for _, r := range regions {
		if z := ZoneOf(r, bounds); !z.IsZero() {
			zones = append(zones, z)
		}
	}
	return zones
}

// Strongest returns the region with the highest edge density.
func Strongest(regions []Region) (Region, bool) {
	if len(regions) == 0 {
		return Region{}, false
	}
	best := regions[0]
	for _, r := range regions[1:] {
		if r.Density > best.Density {
			best = r
		}
	}
	return best, true
}

// byDensity sorts regions densest first, then in reading order.
func byDensity(regions []Region) {
	sort.SliceStable(regions, func(i, j int) bool {
		if regions[i].Density != regions[j].Density {
			return regions[i].Density > regions[j].Density
		}
		if regions[i].Rect.Min.Y != regions[j].Rect.Min.Y {
			return regions[i].Rect.Min.Y < regions[j].Rect.Min.Y
		}
		return regions[i].Rect.Min.X < regions[j].Rect.Min.X
	})
}
