package vimage

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Orientation describes the transform that must be applied to an image's
// stored rows to make it upright. OrientationLeft means the stored image is
// rotated 90° counter-clockwise from upright, so a 90° clockwise rotation
// restores it; OrientationRight is the opposite. Mirrored variants describe
// rows stored from a horizontally flipped rendering of the scene.
type Orientation int

const (
	// OrientationUp means the stored rows are already upright.
	OrientationUp Orientation = iota
	// OrientationUpMirrored is upright but flipped horizontally.
	OrientationUpMirrored
	// OrientationDown is rotated 180° from upright.
	OrientationDown
	// OrientationDownMirrored is upright but flipped vertically.
	OrientationDownMirrored
	// OrientationLeft is rotated 90° counter-clockwise from upright.
	OrientationLeft
	// OrientationLeftMirrored is OrientationLeft of a horizontally flipped image.
	OrientationLeftMirrored
	// OrientationRight is rotated 90° clockwise from upright.
	OrientationRight
	// OrientationRightMirrored is OrientationRight of a horizontally flipped image.
	OrientationRightMirrored
)

func (o Orientation) String() string {
	switch o {
	case OrientationUp:
		return "up"
	case OrientationUpMirrored:
		return "up_mirrored"
	case OrientationDown:
		return "down"
	case OrientationDownMirrored:
		return "down_mirrored"
	case OrientationLeft:
		return "left"
	case OrientationLeftMirrored:
		return "left_mirrored"
	case OrientationRight:
		return "right"
	case OrientationRightMirrored:
		return "right_mirrored"
	default:
		return fmt.Sprintf("Orientation(%d)", int(o))
	}
}

// ApplyOrientation returns the upright version of img. OrientationUp returns
// img unchanged; every other case allocates a new image.
func ApplyOrientation(img image.Image, o Orientation) image.Image {
	switch o {
	case OrientationUpMirrored:
		return imaging.FlipH(img)
	case OrientationDown:
		return imaging.Rotate180(img)
	case OrientationDownMirrored:
		return imaging.FlipV(img)
	case OrientationLeft:
		// stored rows are 90° CCW from upright, rotate 90° CW back
		return imaging.Rotate270(img)
	case OrientationLeftMirrored:
		// a diagonal flip is its own inverse
		return imaging.Transpose(img)
	case OrientationRight:
		return imaging.Rotate90(img)
	case OrientationRightMirrored:
		return imaging.Transverse(img)
	default:
		return img
	}
}

// Upright decodes the image and applies its orientation, returning pixels
// ready for preprocessing.
func (i *Image) Upright() (image.Image, error) {
	img, err := i.ToImage()
	if err != nil {
		return nil, err
	}
	return ApplyOrientation(img, i.orientation), nil
}
