package classifier

import (
	"errors"
	"testing"

	iface "FrameClassifier/interface"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecide(t *testing.T) {
	labels := []string{"jari 1", "jari 2"}

	tests := []struct {
		name    string
		output  []float32
		want    iface.Prediction
		wantErr bool
	}{
		{
			name:   "second class wins",
			output: []float32{0.2, 0.8},
			want:   iface.Prediction{Label: "jari 2", ConfidencePercent: 80, Index: 1, Score: 0.8},
		},
		{
			name:   "tie goes to first index",
			output: []float32{0.5, 0.5},
			want:   iface.Prediction{Label: "jari 1", ConfidencePercent: 50, Index: 0, Score: 0.5},
		},
		{
			name:   "confidence is truncated",
			output: []float32{0.8675, 0.1325},
			want:   iface.Prediction{Label: "jari 1", ConfidencePercent: 86, Index: 0, Score: 0.8675},
		},
		{
			name:   "negative scores truncate toward zero",
			output: []float32{-0.459, -0.9},
			want:   iface.Prediction{Label: "jari 1", ConfidencePercent: -45, Index: 0, Score: -0.459},
		},
		{
			name:    "empty output",
			output:  []float32{},
			wantErr: true,
		},
		{
			name:    "length mismatch",
			output:  []float32{0.1, 0.2, 0.7},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decide(tt.output, labels)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, iface.ErrInvalidOutput))
				var invalid *iface.InvalidOutputError
				require.True(t, errors.As(err, &invalid))
				assert.Equal(t, len(tt.output), invalid.Got)
				assert.Equal(t, len(labels), invalid.Want)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecideDeterministic(t *testing.T) {
	out := []float32{0.31, 0.69}
	first, err := Decide(out, DefaultLabels)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Decide(out, DefaultLabels)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestPredictionString(t *testing.T) {
	p := iface.Prediction{Label: "jari 2", ConfidencePercent: 80}
	assert.Equal(t, "Prediksi: jari 2 (80%)", p.String())
}
