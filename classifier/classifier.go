// Package classifier turns raster images into labeled predictions using an
// injected inference backend.
package classifier

import (
	"errors"
	"fmt"
	"image"

	iface "FrameClassifier/interface"
)

type Classifier struct {
	backend   iface.Backend
	labels    []string
	resampler Resampler
}

type Option func(*Classifier)

func WithResampler(r Resampler) Option {
	return func(c *Classifier) {
		c.resampler = r
	}
}

// New checks that the backend produces exactly one score per label.
// A mismatch is a configuration error.
func New(backend iface.Backend, labels []string, opts ...Option) (*Classifier, error) {
	if backend == nil {
		return nil, errors.New("classifier: nil backend")
	}
	if len(labels) == 0 {
		return nil, errors.New("classifier: empty label table")
	}
	if n := backend.OutputLen(); n != len(labels) {
		return nil, fmt.Errorf("classifier: %w", &iface.InvalidOutputError{Got: n, Want: len(labels)})
	}
	c := &Classifier{
		backend:   backend,
		labels:    append([]string(nil), labels...),
		resampler: BiLinear,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Classifier) Labels() []string {
	return append([]string(nil), c.labels...)
}

func (c *Classifier) PrepareInput(img image.Image) *Tensor {
	return PrepareInput(img, c.resampler)
}

// Classify runs one forward pass. It blocks until the backend returns.
func (c *Classifier) Classify(t *Tensor) (out []float32, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, &iface.InferenceError{Err: fmt.Errorf("backend panic: %v", r)}
		}
	}()
	out, err = c.backend.Infer(t.Data)
	if err != nil {
		return nil, &iface.InferenceError{Err: err}
	}
	return out, nil
}

func (c *Classifier) Decide(output []float32) (iface.Prediction, error) {
	return Decide(output, c.labels)
}

func (c *Classifier) ClassifyFrame(img image.Image) (iface.Prediction, error) {
	out, err := c.Classify(c.PrepareInput(img))
	if err != nil {
		return iface.Prediction{}, err
	}
	return c.Decide(out)
}
