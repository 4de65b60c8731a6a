// Package config loads the service configuration from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"FrameClassifier/classifier"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPPort    int    `yaml:"HTTPPort"`
	RPCPort     int    `yaml:"RPCPort"`
	MonitorPort int    `yaml:"MonitorPort"`
	LogMode     string `yaml:"logMode"`
	LogLevel    string `yaml:"logLevel"`

	Engine     EngineConfig     `yaml:"engine"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Camera     CameraConfig     `yaml:"camera"`
	Webhook    WebhookConfig    `yaml:"webhook"`
	RegServer  RegServerConfig  `yaml:"regServer"`
}

type EngineConfig struct {
	InferenceBackend  string `yaml:"inferenceBackend"`
	ModelPath         string `yaml:"modelPath"`
	SharedLibraryPath string `yaml:"sharedLibraryPath"`
	InputName         string `yaml:"inputName"`
	OutputName        string `yaml:"outputName"`
	NumThreads        int    `yaml:"numThreads"`
}

type ClassifierConfig struct {
	Resampler  string   `yaml:"resampler"`
	Labels     []string `yaml:"labels"`
	LabelsFile string   `yaml:"labelsFile"`
}

type CameraConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Required bool   `yaml:"required"`
	Device   string `yaml:"device"`
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
	FPS      int    `yaml:"fps"`
}

type WebhookConfig struct {
	URL            string `yaml:"url"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

type RegServerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

func Default() Config {
	return Config{
		HTTPPort:    8080,
		RPCPort:     50051,
		MonitorPort: 50052,
		LogMode:     "production",
		LogLevel:    "info",
		Engine: EngineConfig{
			InferenceBackend: "tflite",
			ModelPath:        "models/model_unquant.tflite",
			InputName:        "input",
			OutputName:       "output",
			NumThreads:       runtime.NumCPU(),
		},
		Classifier: ClassifierConfig{
			Resampler: string(classifier.BiLinear),
		},
		Camera: CameraConfig{
			Enabled: true,
			Device:  "0",
			Width:   640,
			Height:  480,
			FPS:     30,
		},
		Webhook: WebhookConfig{
			TimeoutSeconds: 5,
		},
		RegServer: RegServerConfig{
			Port: 80,
		},
	}
}

// Load reads path on top of Default and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	for name, port := range map[string]int{"HTTPPort": c.HTTPPort, "RPCPort": c.RPCPort, "MonitorPort": c.MonitorPort} {
		if port < 0 || port > 65535 {
			errs = append(errs, fmt.Errorf("%s must be between 0 and 65535, got %d", name, port))
		}
	}
	if c.Engine.InferenceBackend == "" {
		errs = append(errs, errors.New("engine.inferenceBackend is required"))
	}
	if c.Engine.ModelPath == "" {
		errs = append(errs, errors.New("engine.modelPath is required"))
	}
	if c.Engine.NumThreads < 0 {
		errs = append(errs, errors.New("engine.numThreads cannot be negative"))
	}
	if _, err := classifier.ParseResampler(c.Classifier.Resampler); err != nil {
		errs = append(errs, fmt.Errorf("classifier.resampler: %w", err))
	}
	if len(c.Classifier.Labels) > 0 && c.Classifier.LabelsFile != "" {
		errs = append(errs, errors.New("classifier.labels and classifier.labelsFile are mutually exclusive"))
	}
	if c.Camera.Enabled {
		if c.Camera.Device == "" {
			errs = append(errs, errors.New("camera.device is required when the camera is enabled"))
		}
		if c.Camera.Width < 0 || c.Camera.Height < 0 || c.Camera.FPS < 0 {
			errs = append(errs, errors.New("camera width, height and fps cannot be negative"))
		}
	}
	if c.Webhook.TimeoutSeconds <= 0 {
		errs = append(errs, errors.New("webhook.timeoutSeconds must be positive"))
	}
	if c.RegServer.Enabled && c.RegServer.Host == "" {
		errs = append(errs, errors.New("regServer.host is required when registration is enabled"))
	}
	return errors.Join(errs...)
}
