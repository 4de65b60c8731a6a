package tflite

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"FrameClassifier/engine"
	iface "FrameClassifier/interface"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistered(t *testing.T) {
	assert.Contains(t, engine.Backends(), "tflite")
}

func TestLoadRejectsOtherFormats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model_unquant.onnx")
	require.NoError(t, os.WriteFile(path, []byte("model"), 0o644))

	_, err := engine.Load(iface.EngineConfig{Backend: "tflite", ModelPath: path})
	var loadErr *iface.ResourceLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "tflite", loadErr.Backend)
}

// Runs against the packaged model when CLASSIFIER_TFLITE_MODEL is set.
func TestInferWithModel(t *testing.T) {
	model := os.Getenv("CLASSIFIER_TFLITE_MODEL")
	if model == "" {
		t.Skip("CLASSIFIER_TFLITE_MODEL not set")
	}
	inst, err := engine.Load(iface.EngineConfig{Backend: "tflite", ModelPath: model, NumThreads: 1})
	require.NoError(t, err)
	defer inst.Destroy()

	out, err := inst.Infer(make([]float32, iface.InputSize*iface.InputSize*iface.InputChannels))
	require.NoError(t, err)
	assert.Len(t, out, inst.OutputLen())
}
