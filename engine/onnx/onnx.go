//go:build !no_cgo

package onnx

import (
	"context"
	"math"
	"sync"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
	"go.opencensus.io/trace"
	"go.viam.com/utils"
	"gorgonia.org/tensor"

	"github.com/edgevision/facemark/engine/facemesh"
	"github.com/edgevision/facemark/facelandmarker"
	"github.com/edgevision/facemark/logging"
	"github.com/edgevision/facemark/ml"
	"github.com/edgevision/facemark/vimage"
)

func init() {
	facelandmarker.RegisterEngine(EngineName, []string{".onnx"},
		func(ctx context.Context, opts *facelandmarker.Options, logger logging.Logger) (facelandmarker.Engine, error) {
			conf := &Config{}
			if err := opts.DecodeEngineAttributes(conf); err != nil {
				return nil, err
			}
			conf.ModelPath = opts.ModelPath
			if opts.NumThreads > 0 {
				conf.NumThreads = opts.NumThreads
			}
			return New(ctx, conf, opts, logger)
		})
}

var (
	runtimeMu   sync.Mutex
	runtimeRefs int
	ownsRuntime bool
)

// acquireRuntime initializes the onnxruntime environment on first use. The
// library path only takes effect before the first initialization in the
// process.
func acquireRuntime(libraryPath string) error {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	if runtimeRefs == 0 && !ort.IsInitialized() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return errors.Wrap(err, "could not initialize the onnx runtime")
		}
		ownsRuntime = true
	}
	runtimeRefs++
	return nil
}

func releaseRuntime() {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	if runtimeRefs == 0 {
		return
	}
	runtimeRefs--
	if runtimeRefs == 0 && ownsRuntime {
		utils.UncheckedError(ort.DestroyEnvironment())
		ownsRuntime = false
	}
}

// Engine runs a face mesh onnx model. It implements facelandmarker.Engine.
type Engine struct {
	conf        Config
	session     *ort.DynamicAdvancedSession
	inputShape  []int64
	outputNames []string
	nchw        bool
	mean        float32
	std         float32
	params      facemesh.Params
	logger      logging.Logger
}

// New builds an onnx engine around the model file named in the config.
func New(ctx context.Context, conf *Config, opts *facelandmarker.Options, logger logging.Logger) (*Engine, error) {
	_, span := trace.StartSpan(ctx, "engine::onnx::New")
	defer span.End()
	if conf == nil {
		return nil, errors.New("could not find parameters")
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewLogger(EngineName)
	}
	if err := acquireRuntime(conf.LibraryPath); err != nil {
		return nil, err
	}

	inputs, outputs, err := ort.GetInputOutputInfo(conf.ModelPath)
	if err != nil {
		releaseRuntime()
		return nil, errors.Wrapf(err, "could not read model info from %s", conf.ModelPath)
	}
	if len(inputs) != 1 {
		releaseRuntime()
		return nil, errors.Errorf("expected a model with one input tensor, got %d", len(inputs))
	}
	in := inputs[0]
	if in.DataType != ort.TensorElementDataTypeFloat {
		releaseRuntime()
		return nil, errors.Errorf("expected a float32 input tensor, got %s", in.DataType)
	}
	if len(in.Dimensions) != 4 {
		releaseRuntime()
		return nil, errors.Errorf("expected a 4D image input tensor, got %d dimensions", len(in.Dimensions))
	}

	dims := in.Dimensions
	nchw := dims[1] == 3 && dims[3] != 3
	var height, width int64
	if nchw {
		height, width = dims[2], dims[3]
	} else {
		height, width = dims[1], dims[2]
	}
	if height < 1 || width < 1 {
		releaseRuntime()
		return nil, errors.Errorf("model input has dynamic spatial dimensions %v", dims)
	}
	inputShape := make([]int64, len(dims))
	copy(inputShape, dims)
	inputShape[0] = 1

	outputNames := make([]string, 0, len(outputs))
	for _, out := range outputs {
		outputNames = append(outputNames, out.Name)
	}

	sessionOpts, err := ort.NewSessionOptions()
	if err != nil {
		releaseRuntime()
		return nil, errors.Wrap(err, "could not create session options")
	}
	defer utils.UncheckedErrorFunc(sessionOpts.Destroy)
	if conf.NumThreads > 0 {
		if err := sessionOpts.SetIntraOpNumThreads(conf.NumThreads); err != nil {
			releaseRuntime()
			return nil, errors.Wrap(err, "could not set session thread count")
		}
	}

	session, err := ort.NewDynamicAdvancedSession(conf.ModelPath, []string{in.Name}, outputNames, sessionOpts)
	if err != nil {
		releaseRuntime()
		return nil, errors.Wrapf(err, "could not create a session for %s", conf.ModelPath)
	}

	std := conf.InputStd
	if std == 0 {
		std = 255
	}
	e := &Engine{
		conf:        *conf,
		session:     session,
		inputShape:  inputShape,
		outputNames: outputNames,
		nchw:        nchw,
		mean:        float32(conf.InputMean),
		std:         float32(std),
		logger:      logger,
		params: facemesh.Params{
			InputWidth:      int(width),
			InputHeight:     int(height),
			NumFaces:        opts.NumFaces,
			MinPresence:     math.Max(opts.MinFaceDetectionConfidence, opts.MinFacePresenceConfidence),
			WantBlendshapes: opts.OutputBlendshapes,
			WantMatrixes:    opts.OutputTransformationMatrixes,
		},
	}
	if conf.BlendshapeLabelPath != "" {
		labels, err := facemesh.LoadLabels(conf.BlendshapeLabelPath)
		if err != nil {
			logger.Warnw("could not read blendshape labels, using canonical names",
				"path", conf.BlendshapeLabelPath, "error", err)
		} else {
			e.params.BlendshapeLabels = labels
		}
	}
	return e, nil
}

// DetectFaceLandmarks uprights the image, scales it to the model's input
// geometry, runs the session, and decodes the output tensors.
func (e *Engine) DetectFaceLandmarks(ctx context.Context, img *vimage.Image, timestampMS int64) (*facelandmarker.Result, error) {
	_, span := trace.StartSpan(ctx, "engine::onnx::DetectFaceLandmarks")
	defer span.End()

	upright, err := img.Upright()
	if err != nil {
		return nil, &facelandmarker.InvalidInputError{Cause: err}
	}
	resized := resize.Resize(uint(e.params.InputWidth), uint(e.params.InputHeight), upright, resize.Bilinear)

	var data []float32
	if e.nchw {
		data = vimage.ImageToNCHWFloat32Buffer(resized, e.mean, e.std)
	} else {
		data = vimage.ImageToFloat32Buffer(resized, e.mean, e.std)
	}
	input, err := ort.NewTensor(ort.NewShape(e.inputShape...), data)
	if err != nil {
		return nil, errors.Wrap(err, "could not create the input tensor")
	}
	defer utils.UncheckedErrorFunc(input.Destroy)

	outputs := make([]ort.Value, len(e.outputNames))
	if err := e.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, errors.Wrap(err, "onnx inference failed")
	}

	outMap := ml.Tensors{}
	for i, out := range outputs {
		if out == nil {
			continue
		}
		dense, err := valueToDense(out)
		utils.UncheckedError(out.Destroy())
		if err != nil {
			e.logger.Debugw("skipping model output", "name", e.outputNames[i], "error", err)
			continue
		}
		outMap[e.outputNames[i]] = dense
	}
	return facemesh.Decode(outMap, e.params)
}

// valueToDense copies an onnxruntime value into a dense tensor that outlives
// the value's backing memory.
func valueToDense(v ort.Value) (*tensor.Dense, error) {
	dims := v.GetShape()
	shape := make([]int, 0, len(dims))
	for _, d := range dims {
		if d < 1 {
			d = 1
		}
		shape = append(shape, int(d))
	}
	if len(shape) == 0 {
		shape = []int{1}
	}

	var backing interface{}
	switch t := v.(type) {
	case *ort.Tensor[float32]:
		backing = append([]float32(nil), t.GetData()...)
	case *ort.Tensor[float64]:
		backing = append([]float64(nil), t.GetData()...)
	case *ort.Tensor[uint8]:
		backing = append([]uint8(nil), t.GetData()...)
	case *ort.Tensor[int32]:
		backing = append([]int32(nil), t.GetData()...)
	case *ort.Tensor[int64]:
		backing = append([]int64(nil), t.GetData()...)
	default:
		return nil, errors.Errorf("unsupported output tensor type %T", v)
	}
	return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(backing)), nil
}

// Close destroys the session and releases the runtime.
func (e *Engine) Close(ctx context.Context) error {
	_, span := trace.StartSpan(ctx, "engine::onnx::Close")
	defer span.End()
	err := e.session.Destroy()
	releaseRuntime()
	if err != nil {
		return errors.Wrap(err, "could not destroy the onnx session")
	}
	return nil
}
