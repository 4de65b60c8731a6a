package classifier

import (
	iface "FrameClassifier/interface"
)

// Decide picks the first index holding the highest score and maps it onto
// the label table. Confidence is truncated toward zero, not rounded.
func Decide(output []float32, labels []string) (iface.Prediction, error) {
	if len(output) == 0 || len(output) != len(labels) {
		return iface.Prediction{}, &iface.InvalidOutputError{Got: len(output), Want: len(labels)}
	}
	maxIdx := 0
	maxVal := output[0]
	for i, val := range output[1:] {
		if val > maxVal {
			maxVal = val
			maxIdx = i + 1
		}
	}
	return iface.Prediction{
		Label:             labels[maxIdx],
		ConfidencePercent: int(maxVal * 100),
		Index:             maxIdx,
		Score:             maxVal,
	}, nil
}
