// Package inject provides injectable mocks of facemark interfaces for
// tests.
package inject

import (
	"context"

	"github.com/edgevision/facemark/facelandmarker"
	"github.com/edgevision/facemark/vimage"
)

// Engine is an injectable facelandmarker.Engine.
type Engine struct {
	facelandmarker.Engine
	DetectFaceLandmarksFunc func(ctx context.Context, img *vimage.Image, timestampMS int64) (*facelandmarker.Result, error)
	CloseFunc               func(ctx context.Context) error
}

// DetectFaceLandmarks calls the injected DetectFaceLandmarks or the real variant.
func (e *Engine) DetectFaceLandmarks(ctx context.Context, img *vimage.Image, timestampMS int64) (*facelandmarker.Result, error) {
	if e.DetectFaceLandmarksFunc == nil {
		return e.Engine.DetectFaceLandmarks(ctx, img, timestampMS)
	}
	return e.DetectFaceLandmarksFunc(ctx, img, timestampMS)
}

// Close calls the injected Close or the real variant.
func (e *Engine) Close(ctx context.Context) error {
	if e.CloseFunc == nil {
		if e.Engine == nil {
			return nil
		}
		return e.Engine.Close(ctx)
	}
	return e.CloseFunc(ctx)
}
