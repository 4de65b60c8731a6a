package monitor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"time"

	"FrameClassifier/logger"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
)

var (
	Registry = prometheus.NewRegistry()

	memUsage = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "memory_usage_Megabytes",
		Help: "Memory usage in Megabytes",
	})
	cpuUsage = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cpu_usage_percent",
		Help: "CPU usage in percent",
	})

	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "requests_total",
		Help: "Total number of API requests processed",
	}, []string{"transport"})
	FramesOffered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "frames_offered_total",
		Help: "Frames handed to the keep-latest slot",
	})
	FramesDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "frames_dropped_total",
		Help: "Pending frames displaced by a newer frame before being classified",
	})
	Predictions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "predictions_total",
		Help: "Predictions produced, by label",
	}, []string{"label"})
	FrameErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "frame_errors_total",
		Help: "Frames whose prediction was dropped, by error kind",
	}, []string{"kind"})
	InferenceSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "inference_duration_seconds",
		Help:    "Time spent in prepare, forward pass and decide for one frame",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	})
)

func init() {
	Registry.MustRegister(memUsage, cpuUsage, RequestsTotal, FramesOffered, FramesDropped,
		Predictions, FrameErrors, InferenceSeconds)
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

// NewRouter serves /metrics and a /healthz liveness probe.
func NewRouter() *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	return r
}

func checkProcessInfo(p *process.Process) {
	if memInfo, err := p.MemoryInfo(); err == nil {
		memUsage.Set(float64(memInfo.RSS / 1024 / 1024))
	}
	if cpuPercent, err := p.CPUPercent(); err == nil {
		cpuUsage.Set(math.Round(cpuPercent*100) / 100)
	}
}

// StartMon serves /metrics on port and samples process CPU and memory
// until ctx is cancelled.
func StartMon(ctx context.Context, port int) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return fmt.Errorf("open own process: %w", err)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: NewRouter(),
	}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	logger.Named("monitor").Info("Prometheus metrics listening", zap.Int("port", port))

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
checkPcs:
	for {
		select {
		case <-ctx.Done():
			break checkPcs
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("metrics server: %w", err)
			}
		case <-ticker.C:
			checkProcessInfo(p)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("metrics server shutdown: %w", err)
	}
	return nil
}
