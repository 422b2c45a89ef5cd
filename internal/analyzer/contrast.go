package analyzer

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"
)

// ContrastDetector implements edge-based region detection using Sobel operator
type ContrastDetector struct {
	MinArea       float64 // Minimum share of the page a region must cover
	MaxArea       float64 // Maximum share; larger regions are page borders
	EdgeThreshold float64 // Gradient magnitude threshold
	MaxSide       int     // Pages are downscaled to this many pixels before analysis
}

// NewContrastDetector creates a new contrast-based detector with default settings
func NewContrastDetector() *ContrastDetector {
	return &ContrastDetector{
		MinArea:       0.002, // ~18x18 pixels on a 400px page
		MaxArea:       0.5,
		EdgeThreshold: 30.0, // Moderate sensitivity
		MaxSide:       400,
	}
}

// Detect finds regions of interest using edge detection and morphology.
// Regions are returned in img coordinates, densest first.
func (d *ContrastDetector) Detect(img image.Image) ([]Region, error) {
	bounds := img.Bounds()
	if bounds.Dx() < 3 || bounds.Dy() < 3 {
		return nil, fmt.Errorf("image too small to analyse: %v", bounds)
	}

	// Step 1: Downscale and convert to grayscale
	gray, scale := d.toGrayscale(img)

	// Step 2: Apply Sobel edge detection
	edges := sobelEdgeDetection(gray, d.EdgeThreshold)

	// Step 3: Morphological dilation to connect nearby edges
	dilated := dilate(edges, 5, 2)

	// Step 4: Find connected components (contours)
	contours := findContours(dilated)

	// Step 5: Filter by area, score by edge density and map back to img
	page := float64(gray.Bounds().Dx() * gray.Bounds().Dy())
	regions := []Region{}
	for _, rect := range contours {
		area := float64(rect.Dx() * rect.Dy())
		if area < d.MinArea*page || area > d.MaxArea*page {
			continue
		}
		regions = append(regions, Region{
			Rect:    scaleRect(rect, scale).Add(bounds.Min).Intersect(bounds),
			Density: edgeDensity(edges, rect),
		})
	}

	byDensity(regions)
	return regions, nil
}

// toGrayscale converts an image to grayscale, shrinking it so that its
// longest side is at most MaxSide. It returns the factor that maps the
// result back to img.
func (d *ContrastDetector) toGrayscale(img image.Image) (*image.Gray, float64) {
	bounds := img.Bounds()
	scale := 1.0
	if side := max(bounds.Dx(), bounds.Dy()); d.MaxSide > 0 && side > d.MaxSide {
		scale = float64(side) / float64(d.MaxSide)
	}

	w := int(math.Round(float64(bounds.Dx()) / scale))
	h := int(math.Round(float64(bounds.Dy()) / scale))
	gray := image.NewGray(image.Rect(0, 0, w, h))
	if scale == 1 {
		draw.Draw(gray, gray.Bounds(), img, bounds.Min, draw.Src)
	} else {
		draw.ApproxBiLinear.Scale(gray, gray.Bounds(), img, bounds, draw.Src, nil)
	}

	return gray, scale
}

func scaleRect(r image.Rectangle, scale float64) image.Rectangle {
	if scale == 1 {
		return r
	}
	return image.Rect(
		int(math.Floor(float64(r.Min.X)*scale)),
		int(math.Floor(float64(r.Min.Y)*scale)),
		int(math.Ceil(float64(r.Max.X)*scale)),
		int(math.Ceil(float64(r.Max.Y)*scale)),
	)
}

// edgeDensity returns the share of edge pixels within r
func edgeDensity(edges *image.Gray, r image.Rectangle) float64 {
	var n int
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if edges.GrayAt(x, y).Y > 128 {
				n++
			}
		}
	}
	return float64(n) / float64(r.Dx()*r.Dy())
}

// sobelEdgeDetection marks pixels whose Sobel gradient magnitude exceeds
// threshold. The one pixel border is left unmarked. gray must start at the
// origin.
func sobelEdgeDetection(gray *image.Gray, threshold float64) *image.Gray {
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	edges := image.NewGray(gray.Rect)
	px := func(x, y int) int { return int(gray.Pix[y*gray.Stride+x]) }
	limit := int(threshold * threshold)

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			tl, t, tr := px(x-1, y-1), px(x, y-1), px(x+1, y-1)
			l, r := px(x-1, y), px(x+1, y)
			bl, b, br := px(x-1, y+1), px(x, y+1), px(x+1, y+1)

			gx := (tr + 2*r + br) - (tl + 2*l + bl)
			gy := (bl + 2*b + br) - (tl + 2*t + tr)
			if gx*gx+gy*gy > limit {
				edges.Pix[y*edges.Stride+x] = 255
			}
		}
	}
	return edges
}

// dilate grows bright pixels by a square kernel, iterations times. The
// square maximum is taken as a row pass followed by a column pass.
func dilate(img *image.Gray, kernelSize, iterations int) *image.Gray {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	half := kernelSize / 2
	result := image.NewGray(img.Rect)
	copy(result.Pix, img.Pix)
	rows := image.NewGray(img.Rect)

	for iter := 0; iter < iterations; iter++ {
		for y := 0; y < h; y++ {
			line := result.Pix[y*result.Stride : y*result.Stride+w]
			out := rows.Pix[y*rows.Stride : y*rows.Stride+w]
			for x := range line {
				out[x] = maxIn(line[max(0, x-half):min(w, x+half+1)])
			}
		}
		for x := 0; x < w; x++ {
			for y := 0; y < h; y++ {
				var m uint8
				for yy := max(0, y-half); yy < min(h, y+half+1); yy++ {
					m = max(m, rows.Pix[yy*rows.Stride+x])
				}
				result.Pix[y*result.Stride+x] = m
			}
		}
	}
	return result
}

func maxIn(vs []uint8) uint8 {
	var m uint8
	for _, v := range vs {
		m = max(m, v)
	}
	return m
}

// findContours returns the bounding rectangles of 4-connected bright
// components, in scan order.
func findContours(img *image.Gray) []image.Rectangle {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	bright := func(i int) bool { return img.Pix[(i/w)*img.Stride+i%w] > 128 }
	seen := make([]bool, w*h)

	var contours []image.Rectangle
	var stack []int
	for start := range seen {
		if seen[start] || !bright(start) {
			continue
		}
		rect := image.Rect(start%w, start/w, start%w+1, start/w+1)
		seen[start] = true
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := i%w, i/w
			rect = rect.Union(image.Rect(x, y, x+1, y+1))

			for _, n := range [4]int{i - 1, i + 1, i - w, i + w} {
				switch {
				case n < 0 || n >= len(seen) || seen[n]:
					continue
				case (n == i-1 || n == i+1) && n/w != y:
					continue // wrapped to another row
				case !bright(n):
					continue
				}
				seen[n] = true
				stack = append(stack, n)
			}
		}
		contours = append(contours, rect)
	}
	return contours
}
