package vimage

import (
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"go.viam.com/test"
)

// testPattern is a 2x3 upright image with a distinct color at every pixel.
func testPattern() *image.NRGBA {
	colors := []color.NRGBA{
		{R: 255, A: 255}, {G: 255, A: 255},
		{B: 255, A: 255}, {R: 255, G: 255, A: 255},
		{G: 255, B: 255, A: 255}, {R: 255, B: 255, A: 255},
	}
	img := image.NewNRGBA(image.Rect(0, 0, 2, 3))
	for i, c := range colors {
		img.SetNRGBA(i%2, i/2, c)
	}
	return img
}

func checkSamePixels(t *testing.T, got, want image.Image) {
	t.Helper()
	test.That(t, got.Bounds().Dx(), test.ShouldEqual, want.Bounds().Dx())
	test.That(t, got.Bounds().Dy(), test.ShouldEqual, want.Bounds().Dy())
	for y := 0; y < want.Bounds().Dy(); y++ {
		for x := 0; x < want.Bounds().Dx(); x++ {
			gr, gg, gb, _ := got.At(got.Bounds().Min.X+x, got.Bounds().Min.Y+y).RGBA()
			wr, wg, wb, _ := want.At(want.Bounds().Min.X+x, want.Bounds().Min.Y+y).RGBA()
			test.That(t, [3]uint32{gr, gg, gb}, test.ShouldResemble, [3]uint32{wr, wg, wb})
		}
	}
}

func TestApplyOrientation(t *testing.T) {
	upright := testPattern()
	for _, tc := range []struct {
		o      Orientation
		stored image.Image
	}{
		{OrientationUp, upright},
		{OrientationUpMirrored, imaging.FlipH(upright)},
		{OrientationDown, imaging.Rotate180(upright)},
		{OrientationDownMirrored, imaging.FlipV(upright)},
		{OrientationLeft, imaging.Rotate90(upright)},
		{OrientationLeftMirrored, imaging.Transpose(upright)},
		{OrientationRight, imaging.Rotate270(upright)},
		{OrientationRightMirrored, imaging.Transverse(upright)},
	} {
		t.Run(tc.o.String(), func(t *testing.T) {
			checkSamePixels(t, ApplyOrientation(tc.stored, tc.o), upright)
		})
	}
}

func TestOrientationLeftStoredRows(t *testing.T) {
	upright := testPattern()

	// a left oriented frame stores the upright image rotated 90° CCW: the
	// upright top-left pixel lands on the stored bottom-left
	stored := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	for y := 0; y < 3; y++ {
		for x := 0; x < 2; x++ {
			stored.SetNRGBA(y, 1-x, upright.NRGBAAt(x, y))
		}
	}
	test.That(t, stored.NRGBAAt(0, 1), test.ShouldResemble, upright.NRGBAAt(0, 0))

	checkSamePixels(t, ApplyOrientation(stored, OrientationLeft), upright)
}

func TestUpright(t *testing.T) {
	upright := testPattern()
	stored := imaging.Rotate90(upright)

	img := NewFromImage(stored, OrientationLeft)
	got, err := img.Upright()
	test.That(t, err, test.ShouldBeNil)
	checkSamePixels(t, got, upright)

	// the same frame delivered as a BGRA sample buffer
	w, h := stored.Bounds().Dx(), stored.Bounds().Dy()
	buf := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := stored.NRGBAAt(x, y)
			i := (y*w + x) * 4
			buf[i+0], buf[i+1], buf[i+2], buf[i+3] = c.B, c.G, c.R, c.A
		}
	}
	sample, err := NewFromSampleBuffer(buf, FormatBGRA32, w, h, 0, OrientationLeft, 42)
	test.That(t, err, test.ShouldBeNil)
	got, err = sample.Upright()
	test.That(t, err, test.ShouldBeNil)
	checkSamePixels(t, got, upright)

	ts, ok := sample.CaptureTimestampMS()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, ts, test.ShouldEqual, 42)
}

func TestOrientationString(t *testing.T) {
	test.That(t, OrientationUp.String(), test.ShouldEqual, "up")
	test.That(t, OrientationRightMirrored.String(), test.ShouldEqual, "right_mirrored")
	test.That(t, Orientation(99).String(), test.ShouldEqual, "Orientation(99)")
}
