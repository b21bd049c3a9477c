package facelandmarker

import (
	"context"

	"github.com/edgevision/facemark/vimage"
)

// Engine is one loaded inference model able to produce face landmarks. A
// Landmarker owns exactly one Engine, drives it from one goroutine at a
// time, and closes it exactly once.
type Engine interface {
	// DetectFaceLandmarks runs inference on the image and decodes the
	// model output. timestampMS is the frame timestamp for video and live
	// stream calls and negative for still images. The image's orientation
	// must be accounted for before inference.
	DetectFaceLandmarks(ctx context.Context, img *vimage.Image, timestampMS int64) (*Result, error)
	// Close releases the underlying model handle.
	Close(ctx context.Context) error
}
