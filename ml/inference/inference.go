// Package inference loads TensorFlow Lite model files and runs inference
// on the host CPU.
package inference

import "github.com/pkg/errors"

// TensorType is an abstraction of the input tensor element types facemark
// supports.
type TensorType string

const (
	// UInt8 is for uint8 input tensors.
	UInt8 TensorType = "uint8"
	// Float32 is for float32 input tensors.
	Float32 TensorType = "float32"
)

// FailedToLoadError is the default error message for when expected
// resources for models fail to load.
func FailedToLoadError(name string) error {
	return errors.Errorf("failed to load %s", name)
}
