// Package onnx registers the "onnx" engine backend, backed by ONNX Runtime.
package onnx

import (
	"errors"
	"fmt"
	"sync"

	"FrameClassifier/engine"
	iface "FrameClassifier/interface"

	ort "github.com/yalue/onnxruntime_go"
)

func init() {
	engine.Register("onnx", ".onnx", Open)
}

var envMu sync.Mutex

type Backend struct {
	cfg          iface.EngineConfig
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

// Open creates an ONNX Runtime session with pre-allocated input
// [1,224,224,3] and output [1,OutputLen] tensors.
func Open(cfg iface.EngineConfig) (iface.Backend, error) {
	if cfg.OutputLen <= 0 {
		return nil, errors.New("onnx backend needs a positive output length")
	}
	if cfg.InputName == "" {
		cfg.InputName = "input"
	}
	if cfg.OutputName == "" {
		cfg.OutputName = "output"
	}

	envMu.Lock()
	if !ort.IsInitialized() {
		if cfg.SharedLibraryPath == "" {
			// fall back to the loader's default search when nothing is found
			if p, err := FindSharedLibrary(); err == nil {
				cfg.SharedLibraryPath = p
			}
		}
		if cfg.SharedLibraryPath != "" {
			ort.SetSharedLibraryPath(cfg.SharedLibraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			envMu.Unlock()
			return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}
	envMu.Unlock()

	inputShape := ort.NewShape(1, iface.InputSize, iface.InputSize, iface.InputChannels)
	outputShape := ort.NewShape(1, int64(cfg.OutputLen))

	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	var options *ort.SessionOptions
	if cfg.NumThreads > 0 {
		options, err = ort.NewSessionOptions()
		if err != nil {
			inputTensor.Destroy()
			outputTensor.Destroy()
			return nil, fmt.Errorf("failed to create session options: %w", err)
		}
		defer options.Destroy()
		if err := options.SetIntraOpNumThreads(cfg.NumThreads); err != nil {
			inputTensor.Destroy()
			outputTensor.Destroy()
			return nil, fmt.Errorf("failed to set thread count: %w", err)
		}
	}

	session, err := ort.NewAdvancedSession(cfg.ModelPath,
		[]string{cfg.InputName}, []string{cfg.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		options)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &Backend{
		cfg:          cfg,
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

func (b *Backend) Infer(input []float32) ([]float32, error) {
	dst := b.inputTensor.GetData()
	if len(input) != len(dst) {
		return nil, fmt.Errorf("input has %d values, model expects %d", len(input), len(dst))
	}
	copy(dst, input)
	if err := b.session.Run(); err != nil {
		return nil, fmt.Errorf("session run: %w", err)
	}
	return append([]float32(nil), b.outputTensor.GetData()...), nil
}

func (b *Backend) OutputLen() int {
	return b.cfg.OutputLen
}

func (b *Backend) CheckConfig() iface.EngineConfig {
	return b.cfg
}

func (b *Backend) Destroy() {
	if b.session != nil {
		b.session.Destroy()
		b.session = nil
	}
	if b.inputTensor != nil {
		b.inputTensor.Destroy()
		b.inputTensor = nil
	}
	if b.outputTensor != nil {
		b.outputTensor.Destroy()
		b.outputTensor = nil
	}
}

// Shutdown tears down the process-wide ONNX Runtime environment.
func Shutdown() error {
	envMu.Lock()
	defer envMu.Unlock()
	if !ort.IsInitialized() {
		return nil
	}
	return ort.DestroyEnvironment()
}
