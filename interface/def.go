package iface

import (
	"fmt"
	"image"
	"sync"
	"time"
)

type EngineConfig struct {
	Backend           string
	ModelPath         string
	SharedLibraryPath string
	InputName         string
	OutputName        string
	NumThreads        int
	OutputLen         int
}

// Frame is a raster image borrowed from a source for one classification.
type Frame struct {
	ID         string
	Source     string
	Image      image.Image
	CapturedAt time.Time

	release     func()
	releaseOnce sync.Once
}

func NewFrame(id, source string, img image.Image, release func()) *Frame {
	return &Frame{
		ID:         id,
		Source:     source,
		Image:      img,
		CapturedAt: time.Now(),
		release:    release,
	}
}

// Release hands the frame buffer back to its source. Safe to call more than once.
func (f *Frame) Release() {
	if f == nil {
		return
	}
	f.releaseOnce.Do(func() {
		if f.release != nil {
			f.release()
		}
	})
}

type Prediction struct {
	Label             string  `json:"label"`
	ConfidencePercent int     `json:"confidencePercent"`
	Index             int     `json:"index"`
	Score             float32 `json:"score"`
}

// String is the display text, e.g. "Prediksi: jari 2 (80%)".
func (p Prediction) String() string {
	return fmt.Sprintf("Prediksi: %s (%d%%)", p.Label, p.ConfidencePercent)
}

// Report is what display surfaces receive for every classified frame.
type Report struct {
	FrameID    string        `json:"frameId"`
	Source     string        `json:"source"`
	CapturedAt time.Time     `json:"capturedAt"`
	Latency    time.Duration `json:"latencyNs"`
	Prediction Prediction    `json:"prediction"`
}

// Status is a snapshot of the running service for status endpoints.
type Status struct {
	Backend     string   `json:"backend"`
	ModelPath   string   `json:"modelPath"`
	EngineState string   `json:"engineState"`
	Labels      []string `json:"labels"`
	Predictions uint64   `json:"predictions"`
	Subscribers int      `json:"subscribers"`
	CameraOpen  bool     `json:"cameraOpen"`
	Uptime      string   `json:"uptime"`
}

// Input geometry shared by the classifier and every engine backend:
// one InputSize×InputSize image with InputChannels color channels.
const (
	InputSize     = 224
	InputChannels = 3
)
