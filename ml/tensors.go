package ml

import (
	"gorgonia.org/tensor"
)

// Tensors are a data structure to hold the input and output map of tensors
// that a model will use, keyed by tensor name.
type Tensors map[string]*tensor.Dense
