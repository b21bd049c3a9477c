//go:build !no_tflite && !no_cgo

package inference

import (
	"log"
	"runtime"
	"strconv"
	"strings"
	"sync"

	tflite "github.com/mattn/go-tflite"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/edgevision/facemark/ml"
)

// TFLiteModelLoader holds the interpreter settings needed to load models.
type TFLiteModelLoader struct {
	numThreads int
}

// NewDefaultTFLiteModelLoader returns a loader that uses one thread per CPU.
func NewDefaultTFLiteModelLoader() (*TFLiteModelLoader, error) {
	return &TFLiteModelLoader{numThreads: runtime.NumCPU()}, nil
}

// NewTFLiteModelLoader returns a loader that uses numThreads threads.
func NewTFLiteModelLoader(numThreads int) (*TFLiteModelLoader, error) {
	if numThreads <= 0 {
		return nil, errors.New("numThreads must be a positive integer")
	}
	return &TFLiteModelLoader{numThreads: numThreads}, nil
}

// TFLiteInfo holds the shape and type information the interpreter reports
// about a loaded model.
type TFLiteInfo struct {
	InputHeight       int
	InputWidth        int
	InputChannels     int
	InputShape        []int
	InputTensorType   TensorType
	InputTensorCount  int
	OutputTensorCount int
	OutputTensorTypes []string
}

// TFLiteStruct is a loaded model with an allocated interpreter, ready to
// run inference.
type TFLiteStruct struct {
	// Info describes the loaded model's input and output tensors.
	Info TFLiteInfo

	mu                 sync.Mutex
	model              *tflite.Model
	interpreter        *tflite.Interpreter
	interpreterOptions *tflite.InterpreterOptions
}

// Load reads the model file at path and prepares an interpreter for it.
func (loader *TFLiteModelLoader) Load(path string) (*TFLiteStruct, error) {
	model := tflite.NewModelFromFile(path)
	if model == nil {
		return nil, FailedToLoadError("model")
	}

	options := tflite.NewInterpreterOptions()
	if options == nil {
		model.Delete()
		return nil, errors.New("interpreter options failed to be created")
	}
	options.SetNumThread(loader.numThreads)
	options.SetErrorReporter(func(msg string, userData interface{}) {
		log.Println(msg)
	}, nil)

	interpreter := tflite.NewInterpreter(model, options)
	if interpreter == nil {
		options.Delete()
		model.Delete()
		return nil, errors.New("failed to create interpreter")
	}
	if status := interpreter.AllocateTensors(); status != tflite.OK {
		interpreter.Delete()
		options.Delete()
		model.Delete()
		return nil, errors.New("failed to allocate tensors")
	}

	info, err := modelInfo(interpreter)
	if err != nil {
		interpreter.Delete()
		options.Delete()
		model.Delete()
		return nil, err
	}
	return &TFLiteStruct{
		Info:               info,
		model:              model,
		interpreter:        interpreter,
		interpreterOptions: options,
	}, nil
}

func modelInfo(interpreter *tflite.Interpreter) (TFLiteInfo, error) {
	if interpreter.GetInputTensorCount() < 1 {
		return TFLiteInfo{}, errors.New("model has no input tensors")
	}
	input := interpreter.GetInputTensor(0)
	shape := make([]int, 0, input.NumDims())
	for d := 0; d < input.NumDims(); d++ {
		shape = append(shape, input.Dim(d))
	}

	var inType TensorType
	switch input.Type() {
	case tflite.UInt8:
		inType = UInt8
	case tflite.Float32:
		inType = Float32
	default:
		return TFLiteInfo{}, errors.Errorf("unsupported input tensor type %s", input.Type().String())
	}

	numOut := interpreter.GetOutputTensorCount()
	outTypes := make([]string, 0, numOut)
	for i := 0; i < numOut; i++ {
		outTypes = append(outTypes, strings.ToLower(interpreter.GetOutputTensor(i).Type().String()))
	}

	info := TFLiteInfo{
		InputShape:        shape,
		InputTensorType:   inType,
		InputTensorCount:  interpreter.GetInputTensorCount(),
		OutputTensorCount: numOut,
		OutputTensorTypes: outTypes,
	}
	if len(shape) == 4 {
		if shape[1] == 3 && shape[3] != 3 { // channels first
			info.InputChannels, info.InputHeight, info.InputWidth = shape[1], shape[2], shape[3]
		} else {
			info.InputHeight, info.InputWidth, info.InputChannels = shape[1], shape[2], shape[3]
		}
	}
	return info, nil
}

// Infer runs the model on the input tensors and returns the output tensors,
// keyed by the interpreter's tensor names. When the model has one input
// tensor, a single entry map is accepted regardless of its key.
func (model *TFLiteStruct) Infer(inputTensors ml.Tensors) (ml.Tensors, error) {
	model.mu.Lock()
	defer model.mu.Unlock()

	interpreter := model.interpreter
	for i := 0; i < interpreter.GetInputTensorCount(); i++ {
		inputTensor := interpreter.GetInputTensor(i)
		input, err := matchInputTensor(inputTensor.Name(), i, inputTensors)
		if err != nil {
			return nil, err
		}
		if status := inputTensor.CopyFromBuffer(input.Data()); status != tflite.OK {
			return nil, errors.Errorf("copying to input tensor %d failed", i)
		}
	}

	if status := interpreter.Invoke(); status != tflite.OK {
		return nil, errors.New("interpreter invoke failed")
	}

	output := ml.Tensors{}
	for i := 0; i < interpreter.GetOutputTensorCount(); i++ {
		outputTensor := interpreter.GetOutputTensor(i)
		if outputTensor == nil {
			continue
		}
		name := outputTensor.Name()
		if name == "" {
			name = "out" + strconv.Itoa(i)
		}
		out, err := copyOutTensor(outputTensor)
		if err != nil {
			return nil, err
		}
		output[name] = out
	}
	return output, nil
}

func matchInputTensor(name string, index int, inputTensors ml.Tensors) (*tensor.Dense, error) {
	if t, ok := inputTensors[name]; ok {
		return t, nil
	}
	if len(inputTensors) == 1 && index == 0 {
		for _, t := range inputTensors {
			return t, nil
		}
	}
	return nil, errors.Errorf("no tensor was provided for input %q, have [%s]",
		name, strings.Join(ml.TensorNames(inputTensors), ", "))
}

func copyOutTensor(t *tflite.Tensor) (*tensor.Dense, error) {
	shape := make([]int, 0, t.NumDims())
	numElems := 1
	for d := 0; d < t.NumDims(); d++ {
		shape = append(shape, t.Dim(d))
		numElems *= t.Dim(d)
	}
	if len(shape) == 0 {
		shape = []int{1}
	}

	var backing interface{}
	switch t.Type() {
	case tflite.Float32:
		buf := make([]float32, numElems)
		if status := t.CopyToBuffer(buf); status != tflite.OK {
			return nil, errors.Errorf("copying output tensor %q failed", t.Name())
		}
		backing = buf
	case tflite.UInt8:
		buf := make([]uint8, numElems)
		if status := t.CopyToBuffer(buf); status != tflite.OK {
			return nil, errors.Errorf("copying output tensor %q failed", t.Name())
		}
		backing = buf
	case tflite.Int8:
		buf := make([]int8, numElems)
		if status := t.CopyToBuffer(buf); status != tflite.OK {
			return nil, errors.Errorf("copying output tensor %q failed", t.Name())
		}
		backing = buf
	case tflite.Int16:
		buf := make([]int16, numElems)
		if status := t.CopyToBuffer(buf); status != tflite.OK {
			return nil, errors.Errorf("copying output tensor %q failed", t.Name())
		}
		backing = buf
	case tflite.Int32:
		buf := make([]int32, numElems)
		if status := t.CopyToBuffer(buf); status != tflite.OK {
			return nil, errors.Errorf("copying output tensor %q failed", t.Name())
		}
		backing = buf
	case tflite.Int64:
		buf := make([]int64, numElems)
		if status := t.CopyToBuffer(buf); status != tflite.OK {
			return nil, errors.Errorf("copying output tensor %q failed", t.Name())
		}
		backing = buf
	default:
		return nil, errors.Errorf("unsupported output tensor type %s", t.Type().String())
	}
	return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(backing)), nil
}

// Close deletes the interpreter, its options, and the model.
func (model *TFLiteStruct) Close() error {
	model.mu.Lock()
	defer model.mu.Unlock()
	model.interpreter.Delete()
	model.interpreterOptions.Delete()
	model.model.Delete()
	return nil
}
