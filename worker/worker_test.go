package worker

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"FrameClassifier/display"
	iface "FrameClassifier/interface"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type scriptedClassifier struct {
	mu      sync.Mutex
	calls   []image.Image
	gate    chan struct{}
	entered chan struct{}
	fail    func(n int) error
	panicAt int
}

func (s *scriptedClassifier) ClassifyFrame(img image.Image) (iface.Prediction, error) {
	s.mu.Lock()
	s.calls = append(s.calls, img)
	n := len(s.calls)
	s.mu.Unlock()
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.gate != nil {
		<-s.gate
	}
	if s.panicAt == n {
		panic("native crash")
	}
	if s.fail != nil {
		if err := s.fail(n); err != nil {
			return iface.Prediction{}, err
		}
	}
	return iface.Prediction{Label: "jari 2", ConfidencePercent: 80, Index: 1, Score: 0.8}, nil
}

func (s *scriptedClassifier) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func frame(id string, released *int32) *iface.Frame {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	return iface.NewFrame(id, "test", img, func() { atomic.AddInt32(released, 1) })
}

func start(t *testing.T, w *Worker) (cancel func()) {
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	return func() {
		stop()
		<-done
	}
}

func TestOfferKeepsOnlyLatest(t *testing.T) {
	clf := &scriptedClassifier{gate: make(chan struct{}), entered: make(chan struct{}, 8)}
	var latest display.Latest
	w := New(clf, &latest, zaptest.NewLogger(t), 1)
	stop := start(t, w)
	defer stop()

	var released int32
	assert.False(t, w.Offer(frame("f1", &released)))
	<-clf.entered // f1 is in flight

	assert.False(t, w.Offer(frame("f2", &released)))
	assert.True(t, w.Offer(frame("f3", &released)))
	assert.True(t, w.Offer(frame("f4", &released)))
	// f2 and f3 were displaced without being classified
	assert.Equal(t, int32(2), atomic.LoadInt32(&released))

	clf.gate <- struct{}{} // finish f1
	<-clf.entered          // f4 in flight
	clf.gate <- struct{}{}

	require.Eventually(t, func() bool { return latest.Count() == 2 }, time.Second, 5*time.Millisecond)
	got, _ := latest.Get()
	assert.Equal(t, "f4", got.FrameID)
	assert.Equal(t, 2, clf.count())
	assert.Equal(t, int32(4), atomic.LoadInt32(&released))
}

func TestWorkerSurvivesFrameErrors(t *testing.T) {
	clf := &scriptedClassifier{
		panicAt: 2,
		fail: func(n int) error {
			if n == 1 {
				return &iface.InferenceError{Err: errors.New("engine exploded")}
			}
			if n == 3 {
				return &iface.InvalidOutputError{Got: 3, Want: 2}
			}
			return nil
		},
	}
	var latest display.Latest
	w := New(clf, &latest, zaptest.NewLogger(t), 1)
	stop := start(t, w)
	defer stop()

	var released int32
	ctx := context.Background()

	_, err := w.Submit(ctx, frame("a", &released))
	var inferErr *iface.InferenceError
	assert.True(t, errors.As(err, &inferErr))

	_, err = w.Submit(ctx, frame("b", &released))
	require.True(t, errors.As(err, &inferErr))
	assert.ErrorContains(t, err, "native crash")

	_, err = w.Submit(ctx, frame("c", &released))
	assert.ErrorIs(t, err, iface.ErrInvalidOutput)

	report, err := w.Submit(ctx, frame("d", &released))
	require.NoError(t, err)
	assert.Equal(t, "d", report.FrameID)
	assert.Equal(t, "test", report.Source)
	assert.Equal(t, "jari 2", report.Prediction.Label)

	assert.Equal(t, int32(4), atomic.LoadInt32(&released))
	got, ok := latest.Get()
	require.True(t, ok)
	assert.Equal(t, "d", got.FrameID)
	assert.Equal(t, uint64(1), latest.Count())
}

func TestSubmitAfterStop(t *testing.T) {
	w := New(&scriptedClassifier{}, nil, nil, 1)
	stop := start(t, w)
	stop()

	var released int32
	_, err := w.Submit(context.Background(), frame("late", &released))
	assert.ErrorIs(t, err, ErrStopped)
	assert.False(t, w.Offer(frame("late2", &released)))
	assert.Equal(t, int32(2), atomic.LoadInt32(&released))
}

func TestOfferAfterStopLeavesSlotEmpty(t *testing.T) {
	w := New(&scriptedClassifier{}, nil, zaptest.NewLogger(t), 1)
	stop := start(t, w)
	stop()

	var released int32
	for i := 0; i < 3; i++ {
		w.Offer(frame("after-stop", &released))
		assert.Empty(t, w.latest, "slot must not hold a frame nobody will read")
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&released))
}

func TestSubmitHonoursContext(t *testing.T) {
	clf := &scriptedClassifier{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	w := New(clf, nil, zaptest.NewLogger(t), 1)
	stop := start(t, w)
	defer func() {
		close(clf.gate)
		stop()
	}()

	var released int32
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := w.Submit(ctx, frame("slow", &released))
		errCh <- err
	}()
	<-clf.entered
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
}

func TestRunReleasesPendingFramesOnStop(t *testing.T) {
	clf := &scriptedClassifier{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	w := New(clf, nil, zaptest.NewLogger(t), 1)
	stop := start(t, w)

	var released int32
	w.Offer(frame("busy", &released))
	<-clf.entered
	w.Offer(frame("pending", &released))

	close(clf.gate)
	stop()
	assert.Equal(t, int32(2), atomic.LoadInt32(&released))
}
