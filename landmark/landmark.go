// Package landmark contains the landmark and blendshape types produced by
// face landmark detection, canonical face mesh indices, and helpers for
// measuring and drawing them.
package landmark

import (
	"image"
	"math"

	"github.com/golang/geo/r3"
)

// Point is a single face landmark. X and Y are normalized to [0, 1] by the
// upright image width and height; Z is depth on roughly the same scale as X,
// more negative toward the camera. Visibility and Presence are optional
// model outputs and are zero when the model does not emit them.
type Point struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility,omitempty"`
	Presence   float64 `json:"presence,omitempty"`
}

// Vec returns the point as a 3D vector in normalized coordinates.
func (p Point) Vec() r3.Vector {
	return r3.Vector{X: p.X, Y: p.Y, Z: p.Z}
}

// Distance returns the euclidean distance between two landmarks in
// normalized coordinates.
func Distance(a, b Point) float64 {
	return a.Vec().Sub(b.Vec()).Norm()
}

// Set holds the landmarks of one detected face.
type Set []Point

// PixelPoint returns landmark i in pixel coordinates for an upright
// width x height image. i must be a valid index into the set.
func (s Set) PixelPoint(i, width, height int) image.Point {
	p := s[i]
	return image.Point{
		X: clamp(int(math.Floor(p.X*float64(width))), 0, width-1),
		Y: clamp(int(math.Floor(p.Y*float64(height))), 0, height-1),
	}
}

// Bounds returns the pixel-space bounding box of the set for an upright
// width x height image. An empty set has an empty bounding box.
func (s Set) Bounds(width, height int) image.Rectangle {
	if len(s) == 0 {
		return image.Rectangle{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range s {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return image.Rect(
		clamp(int(math.Floor(minX*float64(width))), 0, width),
		clamp(int(math.Floor(minY*float64(height))), 0, height),
		clamp(int(math.Ceil(maxX*float64(width))), 0, width),
		clamp(int(math.Ceil(maxY*float64(height))), 0, height),
	)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
