package vimage

import (
	"image"
	"image/color"
	"testing"

	"go.viam.com/test"
)

func TestImageToUInt8Buffer(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 40, G: 50, B: 60, A: 255})
	img.SetNRGBA(0, 1, color.NRGBA{R: 70, G: 80, B: 90, A: 255})
	img.SetNRGBA(1, 1, color.NRGBA{R: 100, G: 110, B: 120, A: 255})

	got := ImageToUInt8Buffer(img)
	test.That(t, got, test.ShouldResemble, []byte{
		10, 20, 30, 40, 50, 60,
		70, 80, 90, 100, 110, 120,
	})
}

func TestImageToFloat32Buffer(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 51, B: 0, A: 255})

	got := ImageToFloat32Buffer(img, 0, 255)
	test.That(t, got, test.ShouldHaveLength, 3)
	test.That(t, got[0], test.ShouldEqual, float32(1))
	test.That(t, got[1], test.ShouldEqual, float32(51)/255)
	test.That(t, got[2], test.ShouldEqual, float32(0))

	got = ImageToFloat32Buffer(img, 127.5, 127.5)
	test.That(t, got[0], test.ShouldEqual, float32(1))
	test.That(t, got[2], test.ShouldEqual, float32(-1))
}

func TestImageToNCHWFloat32Buffer(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 40, G: 50, B: 60, A: 255})
	img.SetNRGBA(0, 1, color.NRGBA{R: 70, G: 80, B: 90, A: 255})
	img.SetNRGBA(1, 1, color.NRGBA{R: 100, G: 110, B: 120, A: 255})

	interleaved := ImageToFloat32Buffer(img, 0, 255)
	planar := ImageToNCHWFloat32Buffer(img, 0, 255)
	test.That(t, planar, test.ShouldHaveLength, len(interleaved))

	plane := 4
	for idx := 0; idx < plane; idx++ {
		for c := 0; c < 3; c++ {
			test.That(t, planar[c*plane+idx], test.ShouldEqual, interleaved[idx*3+c])
		}
	}
}

func TestBufferHonorsSubImageBounds(t *testing.T) {
	full := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			full.SetNRGBA(x, y, color.NRGBA{R: uint8(16*y + x), A: 255})
		}
	}
	sub := full.SubImage(image.Rect(1, 1, 3, 3))

	got := ImageToUInt8Buffer(sub)
	test.That(t, got, test.ShouldHaveLength, 2*2*3)
	test.That(t, got[0], test.ShouldEqual, uint8(17))
	test.That(t, got[3], test.ShouldEqual, uint8(18))
	test.That(t, got[6], test.ShouldEqual, uint8(33))
}
