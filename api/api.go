// Package api exposes the classifier over HTTP and a WebSocket prediction
// stream.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"FrameClassifier/classifier"
	"FrameClassifier/display"
	iface "FrameClassifier/interface"
	"FrameClassifier/monitor"
	"FrameClassifier/worker"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	SourceUpload   = "http"
	maxUploadBytes = 16 << 20
	writeWait      = 5 * time.Second
	pingPeriod     = 30 * time.Second
)

// FrameWorker is the part of the worker the HTTP handlers use.
type FrameWorker interface {
	Offer(f *iface.Frame) bool
	Submit(ctx context.Context, f *iface.Frame) (iface.Report, error)
}

type Server struct {
	worker FrameWorker
	labels []string
	latest *display.Latest
	hub    *display.Broadcaster
	status func() iface.Status
	log    *zap.Logger
}

type Options struct {
	Worker FrameWorker
	Labels []string
	Latest *display.Latest
	Hub    *display.Broadcaster
	Status func() iface.Status
	Logger *zap.Logger
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func New(opts Options) *Server {
	s := &Server{
		worker: opts.Worker,
		labels: append([]string(nil), opts.Labels...),
		latest: opts.Latest,
		hub:    opts.Hub,
		status: opts.Status,
		log:    opts.Logger,
	}
	if s.latest == nil {
		s.latest = &display.Latest{}
	}
	if s.hub == nil {
		s.hub = display.NewBroadcaster()
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.status == nil {
		s.status = func() iface.Status { return iface.Status{Labels: s.labels} }
	}
	return s
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.countRequests)
	r.MaxMultipartMemory = maxUploadBytes

	r.GET("/api/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/api/labels", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"labels": s.labels})
	})
	r.GET("/api/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.status())
	})
	r.POST("/api/classify", s.classify)
	r.POST("/api/frames", s.offerFrame)
	r.GET("/api/predictions/latest", func(c *gin.Context) {
		report, ok := s.latest.Get()
		if !ok {
			c.Status(http.StatusNoContent)
			return
		}
		c.JSON(http.StatusOK, report)
	})
	r.GET("/ws/predictions", s.streamPredictions)
	return r
}

func (s *Server) countRequests(c *gin.Context) {
	monitor.RequestsTotal.WithLabelValues("http").Inc()
	c.Next()
}

// Run serves on port until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.Router(),
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", zap.Int("port", port))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.hub.Close()
	return srv.Shutdown(shutdownCtx)
}

// readUpload decodes the multipart "image" field into a frame.
func readUpload(c *gin.Context) (*iface.Frame, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		return nil, fmt.Errorf("missing image field: %w", err)
	}
	if fh.Size > maxUploadBytes {
		return nil, fmt.Errorf("image too large: %d bytes", fh.Size)
	}
	file, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return nil, err
	}
	img, _, err := classifier.DecodeImage(data)
	if err != nil {
		return nil, err
	}
	return iface.NewFrame(uuid.New().String(), SourceUpload, img, nil), nil
}

func (s *Server) classify(c *gin.Context) {
	frame, err := readUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	report, err := s.worker.Submit(c.Request.Context(), frame)
	if err != nil {
		s.log.Warn("classification failed", zap.String("frame", frame.ID), zap.Error(err))
		c.JSON(StatusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) offerFrame(c *gin.Context) {
	frame, err := readUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	displaced := s.worker.Offer(frame)
	c.JSON(http.StatusAccepted, gin.H{"frameId": frame.ID, "displaced": displaced})
}

func (s *Server) streamPredictions(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	reports, cancel := s.hub.Subscribe()
	defer cancel()

	// the reader only notices the client going away
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-gone:
			return
		case report, ok := <-reports:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(writeWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(report); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// StatusFor maps classification errors to HTTP status codes.
func StatusFor(err error) int {
	var inferErr *iface.InferenceError
	switch {
	case errors.Is(err, worker.ErrStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, iface.ErrInvalidOutput), errors.As(err, &inferErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
