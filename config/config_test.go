package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
HTTPPort: 9090
logMode: development
engine:
  inferenceBackend: onnx
  modelPath: models/model.onnx
  sharedLibraryPath: /usr/lib/libonnxruntime.so
classifier:
  resampler: lanczos3
  labels: ["Safety Vest + Helmet", "Safety Vest Only", "Helmet Only", "Person"]
camera:
  enabled: false
webhook:
  url: http://display.local/predictions
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, 50051, cfg.RPCPort)
	assert.Equal(t, "development", cfg.LogMode)
	assert.Equal(t, "onnx", cfg.Engine.InferenceBackend)
	assert.Equal(t, "input", cfg.Engine.InputName)
	assert.Equal(t, "lanczos3", cfg.Classifier.Resampler)
	assert.Len(t, cfg.Classifier.Labels, 4)
	assert.False(t, cfg.Camera.Enabled)
	assert.Equal(t, 5, cfg.Webhook.TimeoutSeconds)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config")

	_, err = Load(writeConfig(t, "HTTPPort: [nope"))
	assert.ErrorContains(t, err, "parse config")
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.HTTPPort = 70000
	cfg.Engine.ModelPath = ""
	cfg.Classifier.Resampler = "nearest"
	cfg.Classifier.Labels = []string{"a"}
	cfg.Classifier.LabelsFile = "labels.txt"
	cfg.RegServer.Enabled = true

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "HTTPPort")
	assert.Contains(t, msg, "engine.modelPath")
	assert.Contains(t, msg, "classifier.resampler")
	assert.Contains(t, msg, "mutually exclusive")
	assert.Contains(t, msg, "regServer.host")
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
}
