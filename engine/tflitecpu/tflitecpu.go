//go:build !no_tflite && !no_cgo

package tflitecpu

import (
	"context"
	"math"
	fp "path/filepath"
	"strings"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
	"gorgonia.org/tensor"

	"github.com/edgevision/facemark/engine/facemesh"
	"github.com/edgevision/facemark/facelandmarker"
	"github.com/edgevision/facemark/logging"
	"github.com/edgevision/facemark/ml"
	inf "github.com/edgevision/facemark/ml/inference"
	"github.com/edgevision/facemark/vimage"
)

func init() {
	facelandmarker.RegisterEngine(EngineName, []string{".tflite"},
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

// Engine runs a face mesh tflite model on the CPU. It implements
// facelandmarker.Engine.
type Engine struct {
	conf   Config
	model  *inf.TFLiteStruct
	params facemesh.Params
	logger logging.Logger
}

// New builds a tflite cpu engine around the model file named in the config.
func New(ctx context.Context, conf *Config, opts *facelandmarker.Options, logger logging.Logger) (*Engine, error) {
	_, span := trace.StartSpan(ctx, "engine::tflitecpu::New")
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

	var model *inf.TFLiteStruct
	var loader *inf.TFLiteModelLoader
	var err error

	addModel := func() (*inf.TFLiteStruct, error) {
		if conf.NumThreads <= 0 {
			loader, err = inf.NewDefaultTFLiteModelLoader()
		} else {
			loader, err = inf.NewTFLiteModelLoader(conf.NumThreads)
		}
		if err != nil {
			return nil, errors.Wrap(err, "could not get loader")
		}

		fullpath, err2 := fp.Abs(conf.ModelPath)
		if err2 != nil {
			model, err = loader.Load(conf.ModelPath)
		} else {
			model, err = loader.Load(fullpath)
		}

		if err != nil {
			if strings.Contains(err.Error(), "failed to load") {
				if err2 != nil {
					return nil, errors.Wrapf(err, "file not found at %s", conf.ModelPath)
				}
				return nil, errors.Wrapf(err, "file not found at %s", fullpath)
			}
			return nil, errors.Wrap(err, "loader could not load model")
		}
		return model, nil
	}
	model, err = addModel()
	if err != nil {
		return nil, errors.Wrapf(err, "could not add model from location %s", conf.ModelPath)
	}

	e := &Engine{
		conf:   *conf,
		model:  model,
		logger: logger,
		params: facemesh.Params{
			InputWidth:      model.Info.InputWidth,
			InputHeight:     model.Info.InputHeight,
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
// geometry, runs the interpreter, and decodes the output tensors.
func (e *Engine) DetectFaceLandmarks(ctx context.Context, img *vimage.Image, timestampMS int64) (*facelandmarker.Result, error) {
	_, span := trace.StartSpan(ctx, "engine::tflitecpu::DetectFaceLandmarks")
	defer span.End()

	upright, err := img.Upright()
	if err != nil {
		return nil, &facelandmarker.InvalidInputError{Cause: err}
	}
	resized := resize.Resize(uint(e.params.InputWidth), uint(e.params.InputHeight), upright, resize.Bilinear)

	inputs := ml.Tensors{}
	switch e.model.Info.InputTensorType {
	case inf.UInt8:
		inputs["image"] = tensor.New(
			tensor.WithShape(e.model.Info.InputShape...),
			tensor.WithBacking(vimage.ImageToUInt8Buffer(resized)),
		)
	case inf.Float32:
		// float face mesh models take inputs scaled to [0, 1]
		inputs["image"] = tensor.New(
			tensor.WithShape(e.model.Info.InputShape...),
			tensor.WithBacking(vimage.ImageToFloat32Buffer(resized, 0, 255)),
		)
	default:
		return nil, errors.New("invalid input type. try uint8 or float32")
	}

	outputs, err := e.model.Infer(inputs)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't infer from model")
	}
	return facemesh.Decode(outputs, e.params)
}

// Close releases the interpreter and the loaded model.
func (e *Engine) Close(ctx context.Context) error {
	_, span := trace.StartSpan(ctx, "engine::tflitecpu::Close")
	defer span.End()
	return e.model.Close()
}
