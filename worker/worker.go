// Package worker runs every classification on one dedicated goroutine.
//
// Camera frames arrive through a keep-only-latest slot: at most one frame
// waits while another is being classified, and a newer frame replaces a
// waiting one. Synchronous requests (HTTP, gRPC) go through a job queue
// served by the same goroutine, so engine calls never overlap.
package worker

import (
	"context"
	"errors"
	"fmt"
	"image"
	"runtime"
	"time"

	"FrameClassifier/display"
	iface "FrameClassifier/interface"
	"FrameClassifier/monitor"

	"go.uber.org/zap"
)

// FrameClassifier is the part of the classifier the worker drives.
type FrameClassifier interface {
	ClassifyFrame(img image.Image) (iface.Prediction, error)
}

type JobPackage struct {
	frame  *iface.Frame
	Result chan jobResult
}

type jobResult struct {
	Report iface.Report
	Err    error
}

var ErrStopped = errors.New("worker stopped")

type Worker struct {
	clf     FrameClassifier
	sink    display.Sink
	log     *zap.Logger
	latest  chan *iface.Frame
	jobs    chan JobPackage
	stopped chan struct{}
}

func New(clf FrameClassifier, sink display.Sink, log *zap.Logger, queueSize int) *Worker {
	if sink == nil {
		sink = display.Multi{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Worker{
		clf:     clf,
		sink:    sink,
		log:     log,
		latest:  make(chan *iface.Frame, 1),
		jobs:    make(chan JobPackage, queueSize),
		stopped: make(chan struct{}),
	}
}

// Offer hands a frame to the keep-latest slot without blocking. If an older
// frame is still waiting it is released and replaced; displaced reports that.
// Once the worker has stopped, offered frames are released right away.
func (w *Worker) Offer(f *iface.Frame) (displaced bool) {
	monitor.FramesOffered.Inc()
	for {
		select {
		case w.latest <- f:
			w.reclaimIfStopped()
			return displaced
		default:
		}
		select {
		case stale := <-w.latest:
			stale.Release()
			monitor.FramesDropped.Inc()
			displaced = true
		default:
		}
	}
}

// reclaimIfStopped empties the slot after drain has run, since nobody will
// read it again. A send that raced drain is either drained or reclaimed here.
func (w *Worker) reclaimIfStopped() {
	select {
	case <-w.stopped:
	default:
		return
	}
	select {
	case f := <-w.latest:
		f.Release()
	default:
	}
}

// Submit classifies f on the worker goroutine and waits for the result.
// The frame is released once classified. Cancelling ctx stops the wait,
// not the inference.
func (w *Worker) Submit(ctx context.Context, f *iface.Frame) (iface.Report, error) {
	select {
	case <-w.stopped:
		f.Release()
		return iface.Report{}, ErrStopped
	default:
	}
	job := JobPackage{frame: f, Result: make(chan jobResult, 1)}
	select {
	case w.jobs <- job:
	case <-w.stopped:
		f.Release()
		return iface.Report{}, ErrStopped
	case <-ctx.Done():
		f.Release()
		return iface.Report{}, ctx.Err()
	}
	select {
	case res := <-job.Result:
		return res.Report, res.Err
	case <-w.stopped:
		select {
		case res := <-job.Result:
			return res.Report, res.Err
		default:
			return iface.Report{}, ErrStopped
		}
	case <-ctx.Done():
		return iface.Report{}, ctx.Err()
	}
}

// Run serves frames and jobs until ctx is cancelled. Pending frames are
// released on the way out. Run must be called once.
func (w *Worker) Run(ctx context.Context) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer w.drain()
	w.log.Info("Worker started")

	for {
		// jobs first: someone is waiting on them
		select {
		case <-ctx.Done():
			w.log.Info("Worker stopped")
			return
		case job := <-w.jobs:
			w.serve(job)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			w.log.Info("Worker stopped")
			return
		case job := <-w.jobs:
			w.serve(job)
		case f := <-w.latest:
			if _, err := w.process(f); err != nil {
				w.log.Warn("frame dropped", zap.String("frame", f.ID), zap.Error(err))
			}
		}
	}
}

func (w *Worker) serve(job JobPackage) {
	report, err := w.process(job.frame)
	job.Result <- jobResult{Report: report, Err: err}
}

func (w *Worker) process(f *iface.Frame) (report iface.Report, err error) {
	defer f.Release()
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = &iface.InferenceError{Err: fmt.Errorf("panic: %v", r)}
		}
		if err != nil {
			monitor.FrameErrors.WithLabelValues(errorKind(err)).Inc()
		}
	}()

	pred, err := w.clf.ClassifyFrame(f.Image)
	if err != nil {
		return iface.Report{}, err
	}
	latency := time.Since(start)
	monitor.InferenceSeconds.Observe(latency.Seconds())
	monitor.Predictions.WithLabelValues(pred.Label).Inc()

	report = iface.Report{
		FrameID:    f.ID,
		Source:     f.Source,
		CapturedAt: f.CapturedAt,
		Latency:    latency,
		Prediction: pred,
	}
	w.sink.Show(report)
	return report, nil
}

func (w *Worker) drain() {
	close(w.stopped)
	for {
		select {
		case f := <-w.latest:
			f.Release()
		case job := <-w.jobs:
			job.frame.Release()
			job.Result <- jobResult{Err: ErrStopped}
		default:
			return
		}
	}
}

func errorKind(err error) string {
	var inferErr *iface.InferenceError
	switch {
	case errors.Is(err, iface.ErrInvalidOutput):
		return "invalid_output"
	case errors.As(err, &inferErr):
		return "inference"
	default:
		return "other"
	}
}
