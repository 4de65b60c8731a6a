// Package display fans prediction reports out to whatever renders them.
// Sinks are called from the inference worker and must return quickly.
package display

import (
	"sync"

	iface "FrameClassifier/interface"

	"go.uber.org/zap"
)

type Sink interface {
	Show(r iface.Report)
}

type SinkFunc func(r iface.Report)

func (f SinkFunc) Show(r iface.Report) { f(r) }

// Multi shows every report on each sink in order.
type Multi []Sink

func (m Multi) Show(r iface.Report) {
	for _, s := range m {
		s.Show(r)
	}
}

// Latest keeps the most recent report for polling clients.
type Latest struct {
	mu     sync.RWMutex
	report iface.Report
	seq    uint64
}

func (l *Latest) Show(r iface.Report) {
	l.mu.Lock()
	l.report = r
	l.seq++
	l.mu.Unlock()
}

// Get returns the latest report and false if nothing was shown yet.
func (l *Latest) Get() (iface.Report, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.report, l.seq > 0
}

func (l *Latest) Count() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.seq
}

type LogSink struct {
	Logger *zap.Logger
}

func (s LogSink) Show(r iface.Report) {
	s.Logger.Info(r.Prediction.String(),
		zap.String("frame", r.FrameID),
		zap.String("source", r.Source),
		zap.String("label", r.Prediction.Label),
		zap.Int("confidence", r.Prediction.ConfidencePercent),
		zap.Duration("latency", r.Latency),
	)
}
