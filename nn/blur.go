// blur.go - FIR Kerne und Resampling Layer
//
// Enthaelt:
// - MakeKernel (normalisierter 2D Kern aus 1D Taps)
// - Blur, Upsample, Downsample auf Basis von UpFIRDn2D

package nn

import "github.com/stylegen/stylegen/tensor"

// MakeKernel builds a normalized 2D FIR kernel from 1D taps via outer
// product. The result sums to one.
func MakeKernel(taps []float32) *tensor.Array {
	k := len(taps)
	var sum float32
	data := make([]float32, k*k)
	for y := 0; y < k; y++ {
		for x := 0; x < k; x++ {
			v := taps[y] * taps[x]
			data[y*k+x] = v
			sum += v
		}
	}
	for i := range data {
		data[i] /= sum
	}
	return tensor.NewArray(data, k, k)
}

// Blur filters NCHW input with a fixed FIR kernel at unchanged
// resolution apart from the given padding.
type Blur struct {
	Kernel *tensor.Array
	Pad0   int
	Pad1   int
}

// NewBlur creates a blur layer. upsampleFactor > 1 scales the kernel by
// factor^2 to preserve signal magnitude after zero-insertion upsampling.
func NewBlur(taps []float32, pad0, pad1, upsampleFactor int) *Blur {
	kernel := MakeKernel(taps)
	if upsampleFactor > 1 {
		kernel = tensor.MulScalar(kernel, float32(upsampleFactor*upsampleFactor))
	}
	return &Blur{Kernel: kernel, Pad0: pad0, Pad1: pad1}
}

// Forward applies the FIR filter.
func (b *Blur) Forward(x *tensor.Array) *tensor.Array {
	return UpFIRDn2D(x, b.Kernel, 1, 1, b.Pad0, b.Pad1)
}

// Upsample doubles (or scales by factor) the spatial resolution with a
// smoothing FIR kernel.
type Upsample struct {
	Kernel *tensor.Array
	Factor int
	Pad0   int
	Pad1   int
}

// NewUpsample creates an upsampling layer for the given taps and factor.
func NewUpsample(taps []float32, factor int) *Upsample {
	kernel := tensor.MulScalar(MakeKernel(taps), float32(factor*factor))
	p := len(taps) - factor
	return &Upsample{
		Kernel: kernel,
		Factor: factor,
		Pad0:   (p+1)/2 + factor - 1,
		Pad1:   p / 2,
	}
}

// Forward maps [N, C, H, W] to [N, C, H*factor, W*factor].
func (u *Upsample) Forward(x *tensor.Array) *tensor.Array {
	return UpFIRDn2D(x, u.Kernel, u.Factor, 1, u.Pad0, u.Pad1)
}

// Downsample reduces the spatial resolution by an integer factor after
// FIR smoothing.
type Downsample struct {
	Kernel *tensor.Array
	Factor int
	Pad0   int
	Pad1   int
}

// NewDownsample creates a downsampling layer for the given taps and factor.
func NewDownsample(taps []float32, factor int) *Downsample {
	p := len(taps) - factor
	return &Downsample{
		Kernel: MakeKernel(taps),
		Factor: factor,
		Pad0:   (p + 1) / 2,
		Pad1:   p / 2,
	}
}

// Forward maps [N, C, H, W] to [N, C, H/factor, W/factor].
func (d *Downsample) Forward(x *tensor.Array) *tensor.Array {
	return UpFIRDn2D(x, d.Kernel, 1, d.Factor, d.Pad0, d.Pad1)
}
