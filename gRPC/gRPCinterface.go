// Package proto serves the classifier over gRPC.
package proto

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"FrameClassifier/classifier"
	iface "FrameClassifier/interface"
	"FrameClassifier/monitor"
	"FrameClassifier/worker"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const SourceRPC = "grpc"

// Submitter runs one frame through the worker and waits for the report.
type Submitter interface {
	Submit(ctx context.Context, f *iface.Frame) (iface.Report, error)
}

type Server struct {
	worker Submitter
	labels []string
	status func() iface.Status
	log    *zap.Logger
}

func NewServer(w Submitter, labels []string, statusFn func() iface.Status, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		worker: w,
		labels: append([]string(nil), labels...),
		status: statusFn,
		log:    log,
	}
	if s.status == nil {
		s.status = func() iface.Status { return iface.Status{Labels: s.labels} }
	}
	return s
}

func (s *Server) Classify(ctx context.Context, req *wrapperspb.BytesValue) (*structpb.Struct, error) {
	img, _, err := classifier.DecodeImage(req.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	report, err := s.worker.Submit(ctx, iface.NewFrame(uuid.New().String(), SourceRPC, img, nil))
	if err != nil {
		return nil, status.Error(CodeFor(err), err.Error())
	}
	return ReportToStruct(report)
}

func (s *Server) Labels(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	values := make([]interface{}, len(s.labels))
	for i, l := range s.labels {
		values[i] = l
	}
	return structpb.NewList(values)
}

func (s *Server) Status(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	st := s.status()
	labels := make([]interface{}, len(st.Labels))
	for i, l := range st.Labels {
		labels[i] = l
	}
	return structpb.NewStruct(map[string]interface{}{
		"backend":     st.Backend,
		"modelPath":   st.ModelPath,
		"engineState": st.EngineState,
		"labels":      labels,
		"predictions": st.Predictions,
		"subscribers": st.Subscribers,
		"cameraOpen":  st.CameraOpen,
		"uptime":      st.Uptime,
	})
}

func ReportToStruct(r iface.Report) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"frameId":    r.FrameID,
		"source":     r.Source,
		"capturedAt": r.CapturedAt.Format(time.RFC3339Nano),
		"latencyNs":  r.Latency.Nanoseconds(),
		"prediction": map[string]interface{}{
			"label":             r.Prediction.Label,
			"confidencePercent": r.Prediction.ConfidencePercent,
			"index":             r.Prediction.Index,
			"score":             r.Prediction.Score,
		},
	})
}

// CodeFor maps classification errors to gRPC status codes.
func CodeFor(err error) codes.Code {
	var inferErr *iface.InferenceError
	switch {
	case errors.Is(err, worker.ErrStopped):
		return codes.Unavailable
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, iface.ErrInvalidOutput), errors.As(err, &inferErr):
		return codes.Internal
	default:
		return codes.Unknown
	}
}

// metricsInterceptor counts every call and logs failed ones.
func metricsInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		monitor.RequestsTotal.WithLabelValues("grpc").Inc()
		start := time.Now()
		resp, err := handler(ctx, req)
		if err != nil {
			log.Warn("gRPC call failed", zap.String("method", info.FullMethod),
				zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		}
		return resp, err
	}
}

func NewGRPCServer(srv *Server) *grpc.Server {
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(metricsInterceptor(srv.log)))
	RegisterClassifierServer(s, srv)
	return s
}

// StartGRPCServer serves on port until ctx is cancelled.
func StartGRPCServer(ctx context.Context, port int, srv *Server) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", port, err)
	}
	s := NewGRPCServer(srv)
	go func() {
		<-ctx.Done()
		s.GracefulStop()
	}()
	srv.log.Info("gRPC server listening", zap.Int("port", port))
	if err := s.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}
