package onnx

import (
	"os"
	"testing"

	"FrameClassifier/engine"
	iface "FrameClassifier/interface"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistered(t *testing.T) {
	assert.Contains(t, engine.Backends(), "onnx")
}

func TestOpenRequiresOutputLen(t *testing.T) {
	_, err := Open(iface.EngineConfig{Backend: "onnx", ModelPath: "model.onnx"})
	assert.Error(t, err)
}

// Runs against a real model when ONNXRUNTIME_LIB and CLASSIFIER_ONNX_MODEL are set.
func TestInferWithRuntime(t *testing.T) {
	lib, model := os.Getenv("ONNXRUNTIME_LIB"), os.Getenv("CLASSIFIER_ONNX_MODEL")
	if lib == "" || model == "" {
		t.Skip("ONNXRUNTIME_LIB or CLASSIFIER_ONNX_MODEL not set")
	}
	inst, err := engine.Load(iface.EngineConfig{
		Backend:           "onnx",
		ModelPath:         model,
		SharedLibraryPath: lib,
		OutputLen:         2,
	})
	require.NoError(t, err)
	defer func() {
		inst.Destroy()
		_ = Shutdown()
	}()

	out, err := inst.Infer(make([]float32, iface.InputSize*iface.InputSize*iface.InputChannels))
	require.NoError(t, err)
	assert.Len(t, out, 2)

	_, err = inst.Infer(make([]float32, 3))
	assert.Error(t, err)
}
