// Package camera reads frames from a local capture device with gocv.
package camera

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"

	iface "FrameClassifier/interface"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

type Config struct {
	Device string
	Width  int
	Height int
	FPS    int
}

type Source struct {
	cfg     Config
	capture *gocv.VideoCapture
	log     *zap.Logger
}

// Open checks device access, then binds the capture device. The caller
// decides what a failure means for the application.
func Open(cfg Config, log *zap.Logger) (*Source, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := CheckPermission(cfg.Device); err != nil {
		return nil, err
	}
	var device interface{} = cfg.Device
	if id, err := strconv.Atoi(cfg.Device); err == nil {
		device = id
	}
	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("open camera %q: %w", cfg.Device, err)
	}
	if !capture.IsOpened() {
		_ = capture.Close()
		return nil, fmt.Errorf("open camera %q: device not opened", cfg.Device)
	}
	if cfg.Width > 0 {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	}
	if cfg.Height > 0 {
		capture.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	}
	if cfg.FPS > 0 {
		capture.Set(gocv.VideoCaptureFPS, float64(cfg.FPS))
	}
	log.Info("Camera opened",
		zap.String("device", cfg.Device),
		zap.Float64("width", capture.Get(gocv.VideoCaptureFrameWidth)),
		zap.Float64("height", capture.Get(gocv.VideoCaptureFrameHeight)),
	)
	return &Source{cfg: cfg, capture: capture, log: log}, nil
}

// CheckPermission maps a numeric device onto /dev/videoN on Linux and
// reports ErrPermissionDenied when the process cannot open it.
func CheckPermission(device string) error {
	path := device
	if id, err := strconv.Atoi(device); err == nil {
		if runtime.GOOS != "linux" {
			return nil
		}
		path = fmt.Sprintf("/dev/video%d", id)
	}
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		if os.IsPermission(err) {
			return fmt.Errorf("%s: %w", path, iface.ErrPermissionDenied)
		}
		// not a device node (stream URL, file); gocv reports its own errors
		return nil
	}
	return f.Close()
}

var ErrClosed = errors.New("camera closed")

// Run reads frames until ctx is cancelled or the device stops delivering.
// Each frame owns its Mat; releasing the frame closes it.
func (s *Source) Run(ctx context.Context, offer func(*iface.Frame) bool) error {
	source := "camera:" + s.cfg.Device
	empty := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		mat := gocv.NewMat()
		if ok := s.capture.Read(&mat); !ok {
			_ = mat.Close()
			return ErrClosed
		}
		if mat.Empty() {
			_ = mat.Close()
			empty++
			if empty > 100 {
				return fmt.Errorf("%w: too many empty frames", ErrClosed)
			}
			continue
		}
		empty = 0
		f, err := FrameFromMat(uuid.NewString(), source, mat)
		if err != nil {
			s.log.Warn("frame conversion failed", zap.Error(err))
			continue
		}
		offer(f)
	}
}

// FrameFromMat wraps a BGR mat in a Frame. The Mat is closed when the frame
// is released, or immediately if conversion fails.
func FrameFromMat(id, source string, mat gocv.Mat) (*iface.Frame, error) {
	img, err := mat.ToImage()
	if err != nil {
		_ = mat.Close()
		return nil, err
	}
	return iface.NewFrame(id, source, img, func() { _ = mat.Close() }), nil
}

func (s *Source) Close() error {
	return s.capture.Close()
}
