package proto

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net"
	"testing"

	iface "FrameClassifier/interface"
	"FrameClassifier/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type mockSubmitter struct {
	err  error
	seen []*iface.Frame
}

func (m *mockSubmitter) Submit(ctx context.Context, f *iface.Frame) (iface.Report, error) {
	defer f.Release()
	m.seen = append(m.seen, f)
	if m.err != nil {
		return iface.Report{}, m.err
	}
	return iface.Report{
		FrameID:    f.ID,
		Source:     f.Source,
		CapturedAt: f.CapturedAt,
		Prediction: iface.Prediction{Label: "jari 2", ConfidencePercent: 80, Index: 1, Score: 0.8},
	}, nil
}

func startBufconn(t *testing.T, srv *Server) *ClassifierClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := NewGRPCServer(srv)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewClassifierClient(conn)
}

func encodedImage(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func TestClassify(t *testing.T) {
	sub := &mockSubmitter{}
	client := startBufconn(t, NewServer(sub, []string{"jari 1", "jari 2"}, nil, zaptest.NewLogger(t)))

	resp, err := client.Classify(context.Background(), wrapperspb.Bytes(encodedImage(t)))
	require.NoError(t, err)
	require.Len(t, sub.seen, 1)

	fields := resp.GetFields()
	assert.Equal(t, sub.seen[0].ID, fields["frameId"].GetStringValue())
	assert.Equal(t, SourceRPC, fields["source"].GetStringValue())
	pred := fields["prediction"].GetStructValue().GetFields()
	assert.Equal(t, "jari 2", pred["label"].GetStringValue())
	assert.Equal(t, float64(80), pred["confidencePercent"].GetNumberValue())
	assert.Equal(t, float64(1), pred["index"].GetNumberValue())
}

func TestClassifyBadImage(t *testing.T) {
	sub := &mockSubmitter{}
	client := startBufconn(t, NewServer(sub, []string{"a"}, nil, zaptest.NewLogger(t)))

	_, err := client.Classify(context.Background(), wrapperspb.Bytes([]byte("garbage")))
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Empty(t, sub.seen)
}

func TestClassifyErrorCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code codes.Code
	}{
		{"stopped", worker.ErrStopped, codes.Unavailable},
		{"invalid output", &iface.InvalidOutputError{Got: 3, Want: 2}, codes.Internal},
		{"inference", &iface.InferenceError{Err: errors.New("boom")}, codes.Internal},
		{"unknown", errors.New("what"), codes.Unknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := startBufconn(t, NewServer(&mockSubmitter{err: tc.err}, []string{"a"}, nil, zaptest.NewLogger(t)))
			_, err := client.Classify(context.Background(), wrapperspb.Bytes(encodedImage(t)))
			assert.Equal(t, tc.code, status.Code(err))
		})
	}
}

func TestLabelsAndStatus(t *testing.T) {
	statusFn := func() iface.Status {
		return iface.Status{
			Backend:     "tflite",
			EngineState: "IDLE",
			Labels:      []string{"jari 1", "jari 2"},
			Predictions: 7,
		}
	}
	client := startBufconn(t, NewServer(&mockSubmitter{}, []string{"jari 1", "jari 2"}, statusFn, zaptest.NewLogger(t)))

	labels, err := client.Labels(context.Background(), &emptypb.Empty{})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"jari 1", "jari 2"}, labels.AsSlice())

	st, err := client.Status(context.Background(), &emptypb.Empty{})
	require.NoError(t, err)
	fields := st.GetFields()
	assert.Equal(t, "tflite", fields["backend"].GetStringValue())
	assert.Equal(t, "IDLE", fields["engineState"].GetStringValue())
	assert.Equal(t, float64(7), fields["predictions"].GetNumberValue())
	assert.Len(t, fields["labels"].GetListValue().GetValues(), 2)
}

func TestCodeForContext(t *testing.T) {
	assert.Equal(t, codes.Canceled, CodeFor(context.Canceled))
	assert.Equal(t, codes.DeadlineExceeded, CodeFor(context.DeadlineExceeded))
}
