// Package vimage defines the image container handed to face landmark
// detection. An Image carries pixel data together with its source type,
// pixel format, and orientation; it is constructed by the caller for each
// detection call and never retained by the detector.
package vimage

import (
	"fmt"
	"image"

	"github.com/pkg/errors"
)

// SourceType describes where an Image's pixel data came from.
type SourceType int

const (
	// SourceTypeImage is a decoded in-memory bitmap.
	SourceTypeImage SourceType = iota
	// SourceTypePixelBuffer is a raw interleaved pixel buffer.
	SourceTypePixelBuffer
	// SourceTypeSampleBuffer is a raw pixel buffer captured from a camera,
	// carrying a capture timestamp.
	SourceTypeSampleBuffer
)

func (t SourceType) String() string {
	switch t {
	case SourceTypeImage:
		return "image"
	case SourceTypePixelBuffer:
		return "pixel_buffer"
	case SourceTypeSampleBuffer:
		return "sample_buffer"
	default:
		return fmt.Sprintf("SourceType(%d)", int(t))
	}
}

// PixelFormat describes the byte layout of a raw pixel buffer. Detection
// supports the two 32-bit RGBA-family layouts; the remaining formats are
// common capture formats that callers must convert before detecting.
type PixelFormat int

const (
	// FormatUnknown is an unset pixel format.
	FormatUnknown PixelFormat = iota
	// FormatRGBA32 is 8-bit interleaved R, G, B, A.
	FormatRGBA32
	// FormatBGRA32 is 8-bit interleaved B, G, R, A.
	FormatBGRA32
	// FormatRGB24 is 8-bit interleaved R, G, B without alpha.
	FormatRGB24
	// FormatBGR24 is 8-bit interleaved B, G, R without alpha.
	FormatBGR24
	// FormatGray8 is single channel 8-bit luminance.
	FormatGray8
)

func (f PixelFormat) String() string {
	switch f {
	case FormatRGBA32:
		return "RGBA32"
	case FormatBGRA32:
		return "BGRA32"
	case FormatRGB24:
		return "RGB24"
	case FormatBGR24:
		return "BGR24"
	case FormatGray8:
		return "Gray8"
	case FormatUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("PixelFormat(%d)", int(f))
	}
}

// BytesPerPixel returns the stride of a single pixel in the format, or 0 if
// the format is unknown.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case FormatRGBA32, FormatBGRA32:
		return 4
	case FormatRGB24, FormatBGR24:
		return 3
	case FormatGray8:
		return 1
	default:
		return 0
	}
}

// UnsupportedFormatError is returned when a buffer sourced image is not in
// one of the two supported 32-bit RGBA-family layouts.
type UnsupportedFormatError struct {
	Format PixelFormat
	Source SourceType
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("pixel format %s is not supported for %s sources, expected %s or %s",
		e.Format, e.Source, FormatRGBA32, FormatBGRA32)
}

// Image is one input unit for detection. The zero value is not usable;
// construct one with NewFromImage, NewFromPixelBuffer, or
// NewFromSampleBuffer.
type Image struct {
	sourceType  SourceType
	img         image.Image
	buf         []byte
	format      PixelFormat
	width       int
	height      int
	stride      int
	orientation Orientation
	captureMS   int64
	hasCapture  bool
}

// NewFromImage wraps a decoded bitmap. The pixel data is converted to RGB
// plus alpha on demand, so any image.Image is acceptable.
func NewFromImage(img image.Image, orientation Orientation) *Image {
	return &Image{
		sourceType:  SourceTypeImage,
		img:         img,
		format:      FormatRGBA32,
		width:       img.Bounds().Dx(),
		height:      img.Bounds().Dy(),
		orientation: orientation,
	}
}

// NewFromPixelBuffer wraps a raw interleaved pixel buffer. A stride of 0
// means rows are tightly packed. The buffer is referenced, not copied.
func NewFromPixelBuffer(
	buf []byte, format PixelFormat, width, height, stride int, orientation Orientation,
) (*Image, error) {
	img := &Image{
		sourceType:  SourceTypePixelBuffer,
		buf:         buf,
		format:      format,
		width:       width,
		height:      height,
		stride:      stride,
		orientation: orientation,
	}
	if err := img.validateBuffer(); err != nil {
		return nil, err
	}
	return img, nil
}

// NewFromSampleBuffer is like NewFromPixelBuffer for a frame delivered by a
// capture device, recording when the frame was captured in milliseconds.
func NewFromSampleBuffer(
	buf []byte, format PixelFormat, width, height, stride int, orientation Orientation, captureMS int64,
) (*Image, error) {
	img, err := NewFromPixelBuffer(buf, format, width, height, stride, orientation)
	if err != nil {
		return nil, err
	}
	img.sourceType = SourceTypeSampleBuffer
	img.captureMS = captureMS
	img.hasCapture = true
	return img, nil
}

func (i *Image) validateBuffer() error {
	if i.width <= 0 || i.height <= 0 {
		return errors.Errorf("invalid image dimensions %dx%d", i.width, i.height)
	}
	bpp := i.format.BytesPerPixel()
	if bpp == 0 {
		return errors.Errorf("cannot wrap a pixel buffer with %s pixel format", i.format)
	}
	rowBytes := i.width * bpp
	if i.stride == 0 {
		i.stride = rowBytes
	}
	if i.stride < rowBytes {
		return errors.Errorf("stride %d is smaller than row size %d", i.stride, rowBytes)
	}
	need := i.stride*(i.height-1) + rowBytes
	if len(i.buf) < need {
		return errors.Errorf("pixel buffer has %d bytes, need at least %d for %dx%d %s",
			len(i.buf), need, i.width, i.height, i.format)
	}
	return nil
}

// SourceType returns where the pixel data came from.
func (i *Image) SourceType() SourceType {
	return i.sourceType
}

// Format returns the pixel format of the underlying data.
func (i *Image) Format() PixelFormat {
	return i.format
}

// Orientation returns the transform needed to make the stored rows upright.
func (i *Image) Orientation() Orientation {
	return i.orientation
}

// Width returns the stored width in pixels, before any orientation is applied.
func (i *Image) Width() int {
	return i.width
}

// Height returns the stored height in pixels, before any orientation is applied.
func (i *Image) Height() int {
	return i.height
}

// Bounds returns the stored pixel bounds.
func (i *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, i.width, i.height)
}

// CaptureTimestampMS returns when a sample buffer frame was captured. The
// bool is false for other source types.
func (i *Image) CaptureTimestampMS() (int64, bool) {
	return i.captureMS, i.hasCapture
}

// ToImage decodes the pixel data into a standard image. Buffer sources must
// be RGBA32 or BGRA32; anything else returns an *UnsupportedFormatError.
func (i *Image) ToImage() (image.Image, error) {
	if i.sourceType == SourceTypeImage {
		return i.img, nil
	}
	switch i.format {
	case FormatRGBA32, FormatBGRA32:
	default:
		return nil, &UnsupportedFormatError{Format: i.format, Source: i.sourceType}
	}
	out := image.NewRGBA(image.Rect(0, 0, i.width, i.height))
	for y := 0; y < i.height; y++ {
		src := i.buf[y*i.stride:]
		dst := out.Pix[y*out.Stride:]
		for x := 0; x < i.width; x++ {
			si, di := x*4, x*4
			if i.format == FormatBGRA32 {
				dst[di+0] = src[si+2]
				dst[di+1] = src[si+1]
				dst[di+2] = src[si+0]
				dst[di+3] = src[si+3]
			} else {
				copy(dst[di:di+4], src[si:si+4])
			}
		}
	}
	return out, nil
}
