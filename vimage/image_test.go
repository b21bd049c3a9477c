package vimage

import (
	"image"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestNewFromImage(t *testing.T) {
	src := testPattern()
	img := NewFromImage(src, OrientationDown)
	test.That(t, img.SourceType(), test.ShouldEqual, SourceTypeImage)
	test.That(t, img.Format(), test.ShouldEqual, FormatRGBA32)
	test.That(t, img.Orientation(), test.ShouldEqual, OrientationDown)
	test.That(t, img.Width(), test.ShouldEqual, 2)
	test.That(t, img.Height(), test.ShouldEqual, 3)
	test.That(t, img.Bounds(), test.ShouldResemble, image.Rect(0, 0, 2, 3))

	_, ok := img.CaptureTimestampMS()
	test.That(t, ok, test.ShouldBeFalse)

	decoded, err := img.ToImage()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, decoded, test.ShouldEqual, src)
}

func TestNewFromPixelBufferErrors(t *testing.T) {
	buf := make([]byte, 64)
	for _, tc := range []struct {
		name   string
		buf    []byte
		format PixelFormat
		w, h   int
		stride int
		errMsg string
	}{
		{"zero width", buf, FormatRGBA32, 0, 4, 0, "invalid image dimensions 0x4"},
		{"negative height", buf, FormatRGBA32, 4, -1, 0, "invalid image dimensions 4x-1"},
		{"unknown format", buf, FormatUnknown, 4, 4, 0, "cannot wrap a pixel buffer with unknown pixel format"},
		{"stride too small", buf, FormatRGBA32, 4, 4, 8, "stride 8 is smaller than row size 16"},
		{"short buffer", make([]byte, 15), FormatRGBA32, 2, 2, 0, "pixel buffer has 15 bytes, need at least 16 for 2x2 RGBA32"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewFromPixelBuffer(tc.buf, tc.format, tc.w, tc.h, tc.stride, OrientationUp)
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.errMsg)
		})
	}

	img, err := NewFromPixelBuffer(buf, FormatRGBA32, 4, 4, 0, OrientationUp)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, img.SourceType(), test.ShouldEqual, SourceTypePixelBuffer)
}

func TestToImageSwizzle(t *testing.T) {
	raw := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	img, err := NewFromPixelBuffer(raw, FormatRGBA32, 2, 1, 0, OrientationUp)
	test.That(t, err, test.ShouldBeNil)
	decoded, err := img.ToImage()
	test.That(t, err, test.ShouldBeNil)
	rgba, ok := decoded.(*image.RGBA)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, rgba.Pix[:8], test.ShouldResemble, raw)

	img, err = NewFromPixelBuffer(raw, FormatBGRA32, 2, 1, 0, OrientationUp)
	test.That(t, err, test.ShouldBeNil)
	decoded, err = img.ToImage()
	test.That(t, err, test.ShouldBeNil)
	rgba = decoded.(*image.RGBA)
	test.That(t, rgba.Pix[:8], test.ShouldResemble, []byte{3, 2, 1, 4, 7, 6, 5, 8})
}

func TestToImagePaddedStride(t *testing.T) {
	// two 2x1 rows of RGBA data with 4 padding bytes after each row
	buf := make([]byte, 20)
	copy(buf[0:8], []byte{1, 1, 1, 255, 2, 2, 2, 255})
	copy(buf[12:20], []byte{3, 3, 3, 255, 4, 4, 4, 255})

	img, err := NewFromPixelBuffer(buf, FormatRGBA32, 2, 2, 12, OrientationUp)
	test.That(t, err, test.ShouldBeNil)
	decoded, err := img.ToImage()
	test.That(t, err, test.ShouldBeNil)
	rgba := decoded.(*image.RGBA)
	test.That(t, rgba.RGBAAt(0, 1).R, test.ShouldEqual, uint8(3))
	test.That(t, rgba.RGBAAt(1, 1).R, test.ShouldEqual, uint8(4))
}

func TestToImageUnsupportedFormat(t *testing.T) {
	buf := make([]byte, 2*2*3)
	img, err := NewFromPixelBuffer(buf, FormatRGB24, 2, 2, 0, OrientationUp)
	test.That(t, err, test.ShouldBeNil)

	_, err = img.ToImage()
	test.That(t, err, test.ShouldNotBeNil)
	var formatErr *UnsupportedFormatError
	test.That(t, errors.As(err, &formatErr), test.ShouldBeTrue)
	test.That(t, formatErr.Format, test.ShouldEqual, FormatRGB24)
	test.That(t, formatErr.Source, test.ShouldEqual, SourceTypePixelBuffer)
	test.That(t, err.Error(), test.ShouldEqual,
		"pixel format RGB24 is not supported for pixel_buffer sources, expected RGBA32 or BGRA32")
}

func TestPixelFormat(t *testing.T) {
	test.That(t, FormatBGRA32.String(), test.ShouldEqual, "BGRA32")
	test.That(t, FormatGray8.String(), test.ShouldEqual, "Gray8")
	test.That(t, FormatRGBA32.BytesPerPixel(), test.ShouldEqual, 4)
	test.That(t, FormatBGR24.BytesPerPixel(), test.ShouldEqual, 3)
	test.That(t, FormatGray8.BytesPerPixel(), test.ShouldEqual, 1)
	test.That(t, FormatUnknown.BytesPerPixel(), test.ShouldEqual, 0)
	test.That(t, SourceTypeSampleBuffer.String(), test.ShouldEqual, "sample_buffer")
}
