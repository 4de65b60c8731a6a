// Package tflite registers the "tflite" engine backend, backed by the
// TensorFlow Lite C API.
package tflite

import (
	"errors"
	"fmt"

	"FrameClassifier/engine"
	iface "FrameClassifier/interface"

	"github.com/mattn/go-tflite"
)

func init() {
	engine.Register("tflite", ".tflite", Open)
}

type Backend struct {
	cfg         iface.EngineConfig
	model       *tflite.Model
	options     *tflite.InterpreterOptions
	interpreter *tflite.Interpreter
	input       *tflite.Tensor
	output      *tflite.Tensor
	outputLen   int
}

// Open loads the model file, allocates tensors and checks the input is
// a float32 [1,224,224,3] tensor. The output length is read from the model.
func Open(cfg iface.EngineConfig) (iface.Backend, error) {
	model := tflite.NewModelFromFile(cfg.ModelPath)
	if model == nil {
		return nil, errors.New("cannot load model")
	}
	options := tflite.NewInterpreterOptions()
	if cfg.NumThreads > 0 {
		options.SetNumThread(cfg.NumThreads)
	}
	interpreter := tflite.NewInterpreter(model, options)
	if interpreter == nil {
		options.Delete()
		model.Delete()
		return nil, errors.New("cannot create interpreter")
	}
	b := &Backend{cfg: cfg, model: model, options: options, interpreter: interpreter}

	if status := interpreter.AllocateTensors(); status != tflite.OK {
		b.Destroy()
		return nil, errors.New("allocate tensors failed")
	}

	b.input = interpreter.GetInputTensor(0)
	b.output = interpreter.GetOutputTensor(0)
	if b.input == nil || b.output == nil {
		b.Destroy()
		return nil, errors.New("model has no input or output tensor")
	}
	if b.input.Type() != tflite.Float32 || b.input.NumDims() != 4 ||
		b.input.Dim(1) != iface.InputSize || b.input.Dim(2) != iface.InputSize || b.input.Dim(3) != iface.InputChannels {
		b.Destroy()
		return nil, fmt.Errorf("unexpected input tensor %s", describe(b.input))
	}
	if b.output.Type() != tflite.Float32 || b.output.NumDims() == 0 {
		b.Destroy()
		return nil, fmt.Errorf("unexpected output tensor %s", describe(b.output))
	}

	b.outputLen = b.output.Dim(b.output.NumDims() - 1)
	b.cfg.OutputLen = b.outputLen
	return b, nil
}

func describe(t *tflite.Tensor) string {
	dims := make([]int, t.NumDims())
	for i := range dims {
		dims[i] = t.Dim(i)
	}
	return fmt.Sprintf("%v%v", t.Type(), dims)
}

func (b *Backend) Infer(input []float32) ([]float32, error) {
	dst := b.input.Float32s()
	if len(input) != len(dst) {
		return nil, fmt.Errorf("input has %d values, model expects %d", len(input), len(dst))
	}
	copy(dst, input)
	if status := b.interpreter.Invoke(); status != tflite.OK {
		return nil, errors.New("invoke failed")
	}
	return append([]float32(nil), b.output.Float32s()...), nil
}

func (b *Backend) OutputLen() int {
	return b.outputLen
}

func (b *Backend) CheckConfig() iface.EngineConfig {
	return b.cfg
}

func (b *Backend) Destroy() {
	if b.interpreter != nil {
		b.interpreter.Delete()
		b.interpreter = nil
	}
	if b.options != nil {
		b.options.Delete()
		b.options = nil
	}
	if b.model != nil {
		b.model.Delete()
		b.model = nil
	}
	b.input, b.output = nil, nil
}
