package landmark

import (
	"image"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestPointVec(t *testing.T) {
	p := Point{X: 1, Y: 2, Z: 3}
	test.That(t, p.Vec(), test.ShouldResemble, r3.Vector{X: 1, Y: 2, Z: 3})
}

func TestDistance(t *testing.T) {
	a := Point{X: 0, Y: 0, Z: 0}
	b := Point{X: 3, Y: 4, Z: 0}
	test.That(t, Distance(a, b), test.ShouldEqual, 5.0)
	test.That(t, Distance(b, a), test.ShouldEqual, 5.0)
	test.That(t, Distance(a, a), test.ShouldEqual, 0.0)
}

func TestPixelPoint(t *testing.T) {
	s := Set{
		{X: 0.5, Y: 0.25},
		{X: 1.0, Y: -0.1},
		{X: -0.1, Y: 1.5},
	}
	test.That(t, s.PixelPoint(0, 100, 200), test.ShouldResemble, image.Point{X: 50, Y: 50})
	// coordinates at or past the edge clamp onto the image
	test.That(t, s.PixelPoint(1, 100, 200), test.ShouldResemble, image.Point{X: 99, Y: 0})
	test.That(t, s.PixelPoint(2, 100, 200), test.ShouldResemble, image.Point{X: 0, Y: 199})
}

func TestBounds(t *testing.T) {
	s := Set{
		{X: 0.25, Y: 0.5},
		{X: 0.75, Y: 0.25},
	}
	test.That(t, s.Bounds(100, 100), test.ShouldResemble, image.Rect(25, 25, 75, 50))

	wild := Set{
		{X: -0.1, Y: 0.5},
		{X: 1.2, Y: 0.6},
	}
	test.That(t, wild.Bounds(100, 100), test.ShouldResemble, image.Rect(0, 50, 100, 60))

	test.That(t, Set{}.Bounds(100, 100), test.ShouldResemble, image.Rectangle{})
}

func TestMeshIndices(t *testing.T) {
	// the iris points occupy the ten slots after the 468 surface points
	for _, idx := range []int{LandmarkRightIrisCenter, LandmarkLeftIrisCenter} {
		test.That(t, idx, test.ShouldBeGreaterThanOrEqualTo, 468)
		test.That(t, idx, test.ShouldBeLessThan, NumMeshPoints)
	}
	test.That(t, LandmarkNoseTip, test.ShouldBeLessThan, 468)
}
