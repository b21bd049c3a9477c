package facelandmarker

import (
	"context"

	"github.com/pkg/errors"
	"go.opencensus.io/trace"
	goutils "go.viam.com/utils"

	"github.com/edgevision/facemark/vimage"
)

type liveFrame struct {
	img         *vimage.Image
	timestampMS int64
}

func (lm *Landmarker) startLiveStream() {
	lm.frames = make(chan liveFrame, 1)
	lm.activeBackgroundWorkers.Add(1)
	goutils.ManagedGo(lm.processLiveFrames, lm.activeBackgroundWorkers.Done)
}

// DetectAsync submits one live camera frame for detection. It is only valid
// on a Landmarker constructed in live stream running mode. The call returns
// once the frame is accepted; the result is delivered to the configured
// result callback in submission order. Timestamps must be strictly
// increasing. If detection cannot keep up with the frame rate, frames are
// dropped rather than queued without bound.
func (lm *Landmarker) DetectAsync(ctx context.Context, img *vimage.Image, timestampMS int64) error {
	_, span := trace.StartSpan(ctx, "facemark::landmarker::DetectAsync::"+lm.name)
	defer span.End()
	if lm.opts.RunningMode != RunningModeLiveStream {
		return &InvalidModeError{Op: "DetectAsync", Mode: lm.opts.RunningMode}
	}
	if err := checkInputImage(img); err != nil {
		return err
	}
	lm.mu.Lock()
	defer lm.mu.Unlock()
	if lm.closed {
		return errors.Wrap(ErrClosed, "cannot detect")
	}
	if timestampMS <= lm.lastTimestampMS {
		return &SequencingError{TimestampMS: timestampMS, LastTimestampMS: lm.lastTimestampMS}
	}
	lm.lastTimestampMS = timestampMS

	select {
	case lm.frames <- liveFrame{img: img, timestampMS: timestampMS}:
	default:
		lm.dropped++
		lm.logger.Debugw("dropping live stream frame, detection is falling behind",
			"timestamp_ms", timestampMS, "dropped_total", lm.dropped)
	}
	return nil
}

func (lm *Landmarker) processLiveFrames() {
	for {
		select {
		case <-lm.cancelCtx.Done():
			return
		case frame := <-lm.frames:
			res, err := lm.engine.DetectFaceLandmarks(lm.cancelCtx, frame.img, frame.timestampMS)
			lm.opts.ResultCallback(res, frame.img, frame.timestampMS, err)
		}
	}
}
