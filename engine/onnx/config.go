// Package onnx runs face mesh onnx model files through the ONNX Runtime.
package onnx

import "github.com/pkg/errors"

// EngineName is the name this engine registers under.
const EngineName = "onnx"

// Config contains the parameters specific to the onnx engine.
type Config struct {
	ModelPath string `json:"model_path"`
	// LibraryPath points at the onnxruntime shared library. It only takes
	// effect before the first session in the process is created.
	LibraryPath string `json:"library_path"`
	NumThreads  int    `json:"num_threads"`
	// InputMean and InputStd normalize input pixels as (v - mean) / std.
	// The zero values scale pixels to [0, 1].
	InputMean float64 `json:"input_mean"`
	InputStd  float64 `json:"input_std"`
	// BlendshapeLabelPath optionally points at a file naming the model's
	// blendshape outputs, one label per line.
	BlendshapeLabelPath string `json:"blendshape_label_path"`
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate() error {
	if conf.ModelPath == "" {
		return errors.New("model_path is required")
	}
	if conf.NumThreads < 0 {
		return errors.Errorf("num_threads must not be negative, got %d", conf.NumThreads)
	}
	if conf.InputStd < 0 {
		return errors.Errorf("input_std must not be negative, got %f", conf.InputStd)
	}
	return nil
}
