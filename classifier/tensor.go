package classifier

import iface "FrameClassifier/interface"

const (
	InputSize = iface.InputSize
	Channels  = iface.InputChannels
)

const (
	ChannelR = iota
	ChannelG
	ChannelB
)

// Tensor is a batch-of-one float32 tensor laid out as [0][x][y][c]:
// the first spatial index is the horizontal pixel coordinate.
type Tensor struct {
	Data     []float32
	Width    int
	Height   int
	Channels int
}

func NewTensor(width, height, channels int) *Tensor {
	return &Tensor{
		Data:     make([]float32, width*height*channels),
		Width:    width,
		Height:   height,
		Channels: channels,
	}
}

func (t *Tensor) Index(x, y, c int) int {
	return (x*t.Height+y)*t.Channels + c
}

func (t *Tensor) At(x, y, c int) float32 {
	return t.Data[t.Index(x, y, c)]
}

func (t *Tensor) Set(x, y, c int, v float32) {
	t.Data[t.Index(x, y, c)] = v
}

func (t *Tensor) Shape() []int64 {
	return []int64{1, int64(t.Width), int64(t.Height), int64(t.Channels)}
}
