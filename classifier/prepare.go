package classifier

import (
	"fmt"
	"image"
	"image/color"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
)

type Resampler string

const (
	BiLinear Resampler = "bilinear"
	Lanczos3 Resampler = "lanczos3"
)

func ParseResampler(name string) (Resampler, error) {
	switch Resampler(name) {
	case "", BiLinear:
		return BiLinear, nil
	case Lanczos3:
		return Lanczos3, nil
	default:
		return "", fmt.Errorf("unknown resampler %q", name)
	}
}

func (r Resampler) scale(src image.Image, size int) image.Image {
	if r == Lanczos3 {
		return resize.Resize(uint(size), uint(size), src, resize.Lanczos3)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// PrepareInput rescales img to InputSize×InputSize and normalizes every
// channel byte into [0, 1]. Channels are read without alpha premultiplied,
// so a translucent pixel keeps its color.
func PrepareInput(img image.Image, r Resampler) *Tensor {
	scaled := r.scale(img, InputSize)
	t := NewTensor(InputSize, InputSize, Channels)
	b := scaled.Bounds()

	if nrgba, ok := scaled.(*image.NRGBA); ok {
		for x := 0; x < InputSize; x++ {
			for y := 0; y < InputSize; y++ {
				off := nrgba.PixOffset(b.Min.X+x, b.Min.Y+y)
				i := t.Index(x, y, ChannelR)
				t.Data[i+ChannelR] = float32(nrgba.Pix[off]) / 255.0
				t.Data[i+ChannelG] = float32(nrgba.Pix[off+1]) / 255.0
				t.Data[i+ChannelB] = float32(nrgba.Pix[off+2]) / 255.0
			}
		}
		return t
	}

	// nfnt/resize hands back premultiplied RGBA
	for x := 0; x < InputSize; x++ {
		for y := 0; y < InputSize; y++ {
			c := color.NRGBAModel.Convert(scaled.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			i := t.Index(x, y, ChannelR)
			t.Data[i+ChannelR] = float32(c.R) / 255.0
			t.Data[i+ChannelG] = float32(c.G) / 255.0
			t.Data[i+ChannelB] = float32(c.B) / 255.0
		}
	}
	return t
}
