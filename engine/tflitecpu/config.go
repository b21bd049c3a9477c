// Package tflitecpu runs face mesh tflite model files on the host's CPU.
package tflitecpu

import "github.com/pkg/errors"

// EngineName is the name this engine registers under.
const EngineName = "tflite_cpu"

// Config contains the parameters specific to the tflite_cpu engine.
type Config struct {
	ModelPath  string `json:"model_path"`
	NumThreads int    `json:"num_threads"`
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
	return nil
}
