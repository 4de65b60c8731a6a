package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"FrameClassifier/api"
	"FrameClassifier/camera"
	"FrameClassifier/classifier"
	"FrameClassifier/config"
	"FrameClassifier/display"
	"FrameClassifier/engine"
	"FrameClassifier/engine/onnx"
	_ "FrameClassifier/engine/tflite"
	proto "FrameClassifier/gRPC"
	iface "FrameClassifier/interface"
	"FrameClassifier/logger"
	"FrameClassifier/monitor"
	"FrameClassifier/notify"
	"FrameClassifier/worker"

	"github.com/lithammer/dedent"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// app holds everything built at startup. It is created once in run and
// torn down in reverse order.
type app struct {
	cfg     config.Config
	log     *zap.Logger
	labels  []string
	engine  *engine.Instance
	clf     *classifier.Classifier
	latest  *display.Latest
	hub     *display.Broadcaster
	webhook *notify.Webhook
	worker  *worker.Worker
	camera  *camera.Source

	cameraOpen atomic.Bool
	started    time.Time
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "FrameClassifier:", err)
		var loadErr *iface.ResourceLoadError
		if errors.As(err, &loadErr) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.LogMode, cfg.LogLevel); err != nil {
		return err
	}
	defer logger.Sync()
	log := logger.Log()

	fmt.Println(banner(cfg))
	log.Info("Starting FrameClassifier",
		zap.Int("cpuCores", runtime.NumCPU()),
		zap.String("backend", cfg.Engine.InferenceBackend),
		zap.String("model", cfg.Engine.ModelPath),
	)

	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.serve(ctx)
}

func banner(cfg config.Config) string {
	cam := "off"
	if cfg.Camera.Enabled {
		cam = fmt.Sprintf("device %s (%dx%d@%d)", cfg.Camera.Device, cfg.Camera.Width, cfg.Camera.Height, cfg.Camera.FPS)
	}
	return fmt.Sprintf(strings.TrimSpace(dedent.Dedent(`
		################################################################
		 FrameClassifier
		 backend  : %s
		 model    : %s
		 camera   : %s
		 ports    : HTTP %d | gRPC %d | metrics %d
		################################################################
	`)), cfg.Engine.InferenceBackend, cfg.Engine.ModelPath, cam, cfg.HTTPPort, cfg.RPCPort, cfg.MonitorPort)
}

// resolveLabels picks the label table: a file, an inline list, or the
// built-in default, in that order.
func resolveLabels(cfg config.ClassifierConfig) ([]string, error) {
	switch {
	case cfg.LabelsFile != "":
		labels, err := engine.ReadLines(cfg.LabelsFile)
		if err != nil {
			return nil, fmt.Errorf("read labels: %w", err)
		}
		if len(labels) == 0 {
			return nil, fmt.Errorf("labels file %s is empty", cfg.LabelsFile)
		}
		return labels, nil
	case len(cfg.Labels) > 0:
		return cfg.Labels, nil
	default:
		return classifier.DefaultLabels, nil
	}
}

func newApp(cfg config.Config, log *zap.Logger) (*app, error) {
	labels, err := resolveLabels(cfg.Classifier)
	if err != nil {
		return nil, err
	}
	resampler, err := classifier.ParseResampler(cfg.Classifier.Resampler)
	if err != nil {
		return nil, err
	}

	inst, err := engine.Load(iface.EngineConfig{
		Backend:           cfg.Engine.InferenceBackend,
		ModelPath:         cfg.Engine.ModelPath,
		SharedLibraryPath: cfg.Engine.SharedLibraryPath,
		InputName:         cfg.Engine.InputName,
		OutputName:        cfg.Engine.OutputName,
		NumThreads:        cfg.Engine.NumThreads,
		OutputLen:         len(labels),
	})
	if err != nil {
		return nil, err
	}
	log.Info("Engine loaded", zap.String("backend", cfg.Engine.InferenceBackend),
		zap.Int("outputLen", inst.OutputLen()), zap.Strings("labels", labels))

	clf, err := classifier.New(inst, labels, classifier.WithResampler(resampler))
	if err != nil {
		inst.Destroy()
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		log:     log,
		labels:  labels,
		engine:  inst,
		clf:     clf,
		latest:  &display.Latest{},
		hub:     display.NewBroadcaster(),
		started: time.Now(),
	}
	sinks := display.Multi{a.latest, display.LogSink{Logger: logger.Named("display")}, a.hub}
	if cfg.Webhook.URL != "" {
		a.webhook = notify.NewWebhook(cfg.Webhook.URL, time.Duration(cfg.Webhook.TimeoutSeconds)*time.Second, logger.Named("webhook"))
		sinks = append(sinks, a.webhook)
	}
	a.worker = worker.New(clf, sinks, logger.Named("worker"), runtime.NumCPU())
	return a, nil
}

func (a *app) status() iface.Status {
	engineCfg := a.engine.CheckConfig()
	return iface.Status{
		Backend:     engineCfg.Backend,
		ModelPath:   engineCfg.ModelPath,
		EngineState: engine.StateName(a.engine.CurrentState()),
		Labels:      a.clf.Labels(),
		Predictions: a.latest.Count(),
		Subscribers: a.hub.Subscribers(),
		CameraOpen:  a.cameraOpen.Load(),
		Uptime:      time.Since(a.started).Round(time.Second).String(),
	}
}

// openCamera returns an error only when the camera is required.
func (a *app) openCamera() error {
	if !a.cfg.Camera.Enabled {
		return nil
	}
	src, err := camera.Open(camera.Config{
		Device: a.cfg.Camera.Device,
		Width:  a.cfg.Camera.Width,
		Height: a.cfg.Camera.Height,
		FPS:    a.cfg.Camera.FPS,
	}, logger.Named("camera"))
	if err != nil {
		if a.cfg.Camera.Required {
			return err
		}
		a.log.Warn("Camera unavailable, serving remote frames only", zap.Error(err))
		return nil
	}
	a.camera = src
	a.cameraOpen.Store(true)
	return nil
}

// serve runs until ctx is cancelled or a required component fails.
// Sources and servers stop first; the worker outlives them so in-flight
// requests still get an answer.
func (a *app) serve(ctx context.Context) error {
	if err := a.openCamera(); err != nil {
		return err
	}

	workerCtx, stopWorker := context.WithCancel(context.Background())
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		a.worker.Run(workerCtx)
	}()
	defer func() {
		stopWorker()
		<-workerDone
	}()

	g, gctx := errgroup.WithContext(ctx)

	if a.camera != nil {
		g.Go(func() error {
			err := a.camera.Run(gctx, a.worker.Offer)
			a.cameraOpen.Store(false)
			if closeErr := a.camera.Close(); closeErr != nil {
				a.log.Warn("camera close failed", zap.Error(closeErr))
			}
			if err != nil && a.cfg.Camera.Required {
				return err
			}
			if err != nil {
				a.log.Warn("Camera stopped", zap.Error(err))
			}
			return nil
		})
	}

	if a.cfg.HTTPPort > 0 {
		httpServer := api.New(api.Options{
			Worker: a.worker,
			Labels: a.labels,
			Latest: a.latest,
			Hub:    a.hub,
			Status: a.status,
			Logger: logger.Named("http"),
		})
		g.Go(func() error { return httpServer.Run(gctx, a.cfg.HTTPPort) })
	}

	if a.cfg.RPCPort > 0 {
		rpcServer := proto.NewServer(a.worker, a.labels, a.status, logger.Named("grpc"))
		g.Go(func() error { return proto.StartGRPCServer(gctx, a.cfg.RPCPort, rpcServer) })
	}

	if a.cfg.MonitorPort > 0 {
		g.Go(func() error { return monitor.StartMon(gctx, a.cfg.MonitorPort) })
	}

	if a.webhook != nil {
		g.Go(func() error {
			a.webhook.Run(gctx)
			return nil
		})
	}

	if a.cfg.RegServer.Enabled {
		ip, err := notify.GetOutboundIP()
		if err != nil {
			a.log.Warn("Failed to get outbound IP", zap.Error(err))
		}
		reg := notify.NewRegistrar(
			notify.RegServerConfig{Addr: a.cfg.RegServer.Host, Port: a.cfg.RegServer.Port},
			notify.RegisterRequest{
				IP:       ip,
				HTTPPort: a.cfg.HTTPPort,
				RPCPort:  a.cfg.RPCPort,
				Backend:  a.cfg.Engine.InferenceBackend,
				Labels:   a.labels,
			}, logger.Named("registry"))
		a.log.Info("Registering with registry server", zap.String("id", reg.ID()), zap.String("ip", ip))
		g.Go(func() error {
			reg.SendAliveMessage(gctx)
			return nil
		})
	}

	err := g.Wait()
	a.log.Info("Shutting down")
	return err
}

func (a *app) close() {
	a.hub.Close()
	a.engine.Destroy()
	if err := onnx.Shutdown(); err != nil {
		a.log.Warn("onnxruntime shutdown failed", zap.Error(err))
	}
	a.log.Info("Engine destroyed")
}
