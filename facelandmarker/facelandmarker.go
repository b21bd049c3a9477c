// Package facelandmarker provides a detector that finds face landmarks in
// still images, sequential video frames, and live camera streams by
// delegating to a pluggable inference engine. A Landmarker wraps exactly
// one engine handle; engines for TensorFlow Lite and ONNX models register
// themselves when their packages are imported.
package facelandmarker

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"

	"github.com/edgevision/facemark/logging"
	"github.com/edgevision/facemark/vimage"
)

// Landmarker detects face landmarks using one underlying engine handle.
// Construct one with New or NewFromOptions; the zero value is not usable.
// Detection calls are serialized internally, so a single instance may be
// shared across goroutines.
type Landmarker struct {
	name   string
	opts   Options
	engine Engine
	logger logging.Logger

	mu              sync.Mutex
	lastTimestampMS int64
	closed          bool

	frames                  chan liveFrame
	dropped                 int64
	cancelCtx               context.Context
	cancelFunc              func()
	activeBackgroundWorkers sync.WaitGroup
}

// New returns a Landmarker in image running mode with default options,
// loading the model at modelPath.
func New(ctx context.Context, modelPath string) (*Landmarker, error) {
	return NewFromOptions(ctx, DefaultOptions(modelPath))
}

// NewFromOptions is the canonical constructor: the options fully determine
// the running mode, tuning values, and which engine loads the model. On
// failure no Landmarker is returned.
func NewFromOptions(ctx context.Context, opts *Options) (*Landmarker, error) {
	if opts == nil {
		return nil, &InitializationError{Cause: errors.New("options must not be nil")}
	}
	resolved := *opts
	resolved.applyDefaults()
	if err := resolved.Validate(); err != nil {
		return nil, &InitializationError{ModelPath: resolved.ModelPath, Cause: err}
	}
	logger := resolved.Logger
	if logger == nil {
		logger = logging.NewLogger("facelandmarker")
		resolved.Logger = logger
	}

	engine := resolved.Engine
	if engine == nil {
		builder, err := engineBuilderFor(resolved.EngineName, resolved.ModelPath)
		if err != nil {
			return nil, &InitializationError{ModelPath: resolved.ModelPath, Cause: err}
		}
		engine, err = builder(ctx, &resolved, logger)
		if err != nil {
			return nil, &InitializationError{ModelPath: resolved.ModelPath, Cause: err}
		}
	}

	cancelCtx, cancelFunc := context.WithCancel(context.Background())
	lm := &Landmarker{
		name:            uuid.NewString(),
		opts:            resolved,
		engine:          engine,
		logger:          logger,
		lastTimestampMS: -1,
		cancelCtx:       cancelCtx,
		cancelFunc:      cancelFunc,
	}
	if resolved.RunningMode == RunningModeLiveStream {
		lm.startLiveStream()
	}
	return lm, nil
}

// Name returns the unique name of this landmarker instance.
func (lm *Landmarker) Name() string {
	return lm.name
}

// RunningMode returns the mode the landmarker was constructed in.
func (lm *Landmarker) RunningMode() RunningMode {
	return lm.opts.RunningMode
}

// Detect finds face landmarks in a still image. It is only valid on a
// Landmarker constructed in image running mode and blocks until inference
// completes. For a fixed model, the result is a pure function of the image.
func (lm *Landmarker) Detect(ctx context.Context, img *vimage.Image) (*Result, error) {
	ctx, span := trace.StartSpan(ctx, "facemark::landmarker::Detect::"+lm.name)
	defer span.End()
	if lm.opts.RunningMode != RunningModeImage {
		return nil, &InvalidModeError{Op: "Detect", Mode: lm.opts.RunningMode}
	}
	if err := checkInputImage(img); err != nil {
		return nil, err
	}
	lm.mu.Lock()
	defer lm.mu.Unlock()
	if lm.closed {
		return nil, errors.Wrap(ErrClosed, "cannot detect")
	}
	return lm.engine.DetectFaceLandmarks(ctx, img, -1)
}

// DetectForVideo finds face landmarks in one decoded video frame. It is
// only valid on a Landmarker constructed in video running mode. Timestamps
// across calls must be strictly increasing; a non-increasing timestamp is
// rejected with a *SequencingError and does not advance the ordering state,
// leaving the instance usable.
func (lm *Landmarker) DetectForVideo(ctx context.Context, img *vimage.Image, timestampMS int64) (*Result, error) {
	ctx, span := trace.StartSpan(ctx, "facemark::landmarker::DetectForVideo::"+lm.name)
	defer span.End()
	if lm.opts.RunningMode != RunningModeVideo {
		return nil, &InvalidModeError{Op: "DetectForVideo", Mode: lm.opts.RunningMode}
	}
	if err := checkInputImage(img); err != nil {
		return nil, err
	}
	lm.mu.Lock()
	defer lm.mu.Unlock()
	if lm.closed {
		return nil, errors.Wrap(ErrClosed, "cannot detect")
	}
	if timestampMS <= lm.lastTimestampMS {
		return nil, &SequencingError{TimestampMS: timestampMS, LastTimestampMS: lm.lastTimestampMS}
	}
	res, err := lm.engine.DetectFaceLandmarks(ctx, img, timestampMS)
	if err != nil {
		return nil, err
	}
	lm.lastTimestampMS = timestampMS
	return res, nil
}

// Close releases the engine handle. It is idempotent; detection calls made
// after Close fail with ErrClosed.
func (lm *Landmarker) Close(ctx context.Context) error {
	ctx, span := trace.StartSpan(ctx, "facemark::landmarker::Close::"+lm.name)
	defer span.End()
	lm.mu.Lock()
	if lm.closed {
		lm.mu.Unlock()
		return nil
	}
	lm.closed = true
	lm.mu.Unlock()

	lm.cancelFunc()
	lm.activeBackgroundWorkers.Wait()
	return lm.engine.Close(ctx)
}

// checkInputImage gates detection inputs: buffer sourced images must be in
// one of the two supported 32-bit RGBA-family layouts.
func checkInputImage(img *vimage.Image) error {
	if img == nil {
		return &InvalidInputError{Reason: "image must not be nil"}
	}
	switch img.SourceType() {
	case vimage.SourceTypePixelBuffer, vimage.SourceTypeSampleBuffer:
		switch img.Format() {
		case vimage.FormatRGBA32, vimage.FormatBGRA32:
		default:
			return &InvalidInputError{Cause: &vimage.UnsupportedFormatError{
				Format: img.Format(),
				Source: img.SourceType(),
			}}
		}
	}
	return nil
}
