package facelandmarker

import (
	"encoding/json"
	"runtime"

	"github.com/pkg/errors"

	"github.com/edgevision/facemark/logging"
	"github.com/edgevision/facemark/vimage"
)

// RunningMode fixes how a Landmarker instance may be driven: still images,
// sequential video frames, or a live camera stream with asynchronous
// delivery. The mode is chosen at construction and cannot change.
type RunningMode string

const (
	// RunningModeImage drives the landmarker with single still images.
	RunningModeImage RunningMode = "image"
	// RunningModeVideo drives the landmarker with decoded video frames
	// carrying strictly increasing timestamps.
	RunningModeVideo RunningMode = "video"
	// RunningModeLiveStream drives the landmarker with camera frames;
	// results are delivered asynchronously to the result callback.
	RunningModeLiveStream RunningMode = "live_stream"
)

// ResultCallbackFunc receives live stream detection results. Exactly one of
// result and err is non-nil. The image and timestamp are the ones handed to
// DetectAsync for this frame.
type ResultCallbackFunc func(result *Result, img *vimage.Image, timestampMS int64, err error)

// Options configure a Landmarker. The struct is consumed once at
// construction; the Landmarker keeps its own copy and never mutates the
// caller's value. Zero values mean "use the default" where one is noted.
type Options struct {
	// ModelPath is the filesystem path of the model to load. Required
	// unless Engine is set.
	ModelPath string `json:"model_path"`
	// RunningMode defaults to RunningModeImage.
	RunningMode RunningMode `json:"running_mode"`
	// NumFaces caps how many faces a single call may return. Defaults to 1.
	NumFaces int `json:"num_faces"`
	// MinFaceDetectionConfidence is the minimum score for a face detection
	// to be considered successful. Defaults to 0.5.
	MinFaceDetectionConfidence float64 `json:"min_face_detection_confidence"`
	// MinFacePresenceConfidence is the minimum presence score for a face's
	// landmarks to be reported. Defaults to 0.5.
	MinFacePresenceConfidence float64 `json:"min_face_presence_confidence"`
	// MinTrackingConfidence is the minimum score for tracking to be
	// considered successful between video frames. Defaults to 0.5.
	MinTrackingConfidence float64 `json:"min_tracking_confidence"`
	// OutputBlendshapes requests blendshape coefficients per face.
	OutputBlendshapes bool `json:"output_blendshapes"`
	// OutputTransformationMatrixes requests a 4x4 facial transformation
	// matrix per face.
	OutputTransformationMatrixes bool `json:"output_transformation_matrixes"`
	// NumThreads hints how many threads the engine may use. Defaults to
	// the number of CPUs.
	NumThreads int `json:"num_threads"`
	// EngineName picks a registered engine by name instead of resolving
	// one from the model file extension.
	EngineName string `json:"engine_name"`
	// EngineAttributes carries engine specific settings, decoded into the
	// chosen engine's own config. See DecodeEngineAttributes.
	EngineAttributes map[string]interface{} `json:"engine_attributes,omitempty"`
	// ResultCallback receives live stream results. Required in live stream
	// running mode, disallowed otherwise.
	ResultCallback ResultCallbackFunc `json:"-"`
	// Engine uses an already built engine instead of loading one from
	// ModelPath. Mainly for tests and embedders with custom runtimes.
	Engine Engine `json:"-"`
	// Logger is used for internal logging. Defaults to a module logger.
	Logger logging.Logger `json:"-"`
}

// DefaultOptions returns the options New uses: image running mode with one
// face and 0.5 confidence thresholds.
func DefaultOptions(modelPath string) *Options {
	return &Options{
		ModelPath:                  modelPath,
		RunningMode:                RunningModeImage,
		NumFaces:                   1,
		MinFaceDetectionConfidence: 0.5,
		MinFacePresenceConfidence:  0.5,
		MinTrackingConfidence:      0.5,
		NumThreads:                 runtime.NumCPU(),
	}
}

func (o *Options) applyDefaults() {
	if o.RunningMode == "" {
		o.RunningMode = RunningModeImage
	}
	if o.NumFaces == 0 {
		o.NumFaces = 1
	}
	if o.MinFaceDetectionConfidence == 0 {
		o.MinFaceDetectionConfidence = 0.5
	}
	if o.MinFacePresenceConfidence == 0 {
		o.MinFacePresenceConfidence = 0.5
	}
	if o.MinTrackingConfidence == 0 {
		o.MinTrackingConfidence = 0.5
	}
	if o.NumThreads <= 0 {
		o.NumThreads = runtime.NumCPU()
	}
}

// DecodeEngineAttributes fills an engine config struct from the
// EngineAttributes map, matching keys to the config's JSON tags.
func (o *Options) DecodeEngineAttributes(conf interface{}) error {
	if len(o.EngineAttributes) == 0 {
		return nil
	}
	raw, err := json.Marshal(o.EngineAttributes)
	if err != nil {
		return errors.Wrap(err, "could not encode engine attributes")
	}
	if err := json.Unmarshal(raw, conf); err != nil {
		return errors.Wrap(err, "could not decode engine attributes")
	}
	return nil
}

// Validate ensures all parts of the options are valid.
func (o *Options) Validate() error {
	if o.ModelPath == "" && o.Engine == nil {
		return errors.New("model_path is required")
	}
	switch o.RunningMode {
	case RunningModeImage, RunningModeVideo, RunningModeLiveStream:
	default:
		return errors.Errorf("unknown running mode %q", o.RunningMode)
	}
	if o.NumFaces < 1 {
		return errors.Errorf("num_faces must be at least 1, got %d", o.NumFaces)
	}
	for name, conf := range map[string]float64{
		"min_face_detection_confidence": o.MinFaceDetectionConfidence,
		"min_face_presence_confidence":  o.MinFacePresenceConfidence,
		"min_tracking_confidence":       o.MinTrackingConfidence,
	} {
		if conf < 0 || conf > 1 {
			return errors.Errorf("%s must be between 0 and 1, got %v", name, conf)
		}
	}
	if o.RunningMode == RunningModeLiveStream && o.ResultCallback == nil {
		return errors.New("a result callback is required in live_stream running mode")
	}
	if o.RunningMode != RunningModeLiveStream && o.ResultCallback != nil {
		return errors.Errorf("a result callback may only be set in live_stream running mode, not %q", o.RunningMode)
	}
	return nil
}
