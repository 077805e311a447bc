// modulated.go - Stil-modulierte Convolution
//
// Enthaelt:
// - ModulatedConv2D: Modulation, Demodulation und gruppierte Ausfuehrung
//   ueber den Batch, optional mit Up- oder Downsampling.

package nn

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/stylegen/stylegen/tensor"
)

// ModConvOpts configures a ModulatedConv2D. The zero value means:
// demodulation on, no resampling, blur taps [1 3 3 1].
type ModConvOpts struct {
	Upsample   bool
	Downsample bool
	NoDemod    bool
	BlurKernel []float32
}

// ModulatedConv2D scales the shared convolution weight per sample with a
// learned style projection, optionally normalizes the result back to
// unit variance (demodulation), and runs the whole batch as one grouped
// convolution with groups equal to the batch size.
type ModulatedConv2D struct {
	InChannel  int
	OutChannel int
	KernelSize int

	Weight     *tensor.Array // [1, outChannel, inChannel, k, k]
	Modulation *EqualLinear  // styleDim -> inChannel, bias init 1

	Demodulate bool
	Upsample   bool
	Downsample bool

	blur    *Blur
	scale   float32
	padding int
}

// NewModulatedConv2D creates a modulated convolution layer.
func NewModulatedConv2D(inChannel, outChannel, kernelSize, styleDim int, opts ModConvOpts) (*ModulatedConv2D, error) {
	if opts.Upsample && opts.Downsample {
		return nil, fmt.Errorf("modulated conv: upsample and downsample are mutually exclusive")
	}
	taps := opts.BlurKernel
	if taps == nil {
		taps = []float32{1, 3, 3, 1}
	}

	m := &ModulatedConv2D{
		InChannel:  inChannel,
		OutChannel: outChannel,
		KernelSize: kernelSize,
		Weight:     tensor.RandN(1, outChannel, inChannel, kernelSize, kernelSize),
		Modulation: NewEqualLinear(styleDim, inChannel, LinearOpts{BiasInit: 1}),
		Demodulate: !opts.NoDemod,
		Upsample:   opts.Upsample,
		Downsample: opts.Downsample,
		scale:      1 / math32.Sqrt(float32(inChannel*kernelSize*kernelSize)),
		padding:    kernelSize / 2,
	}

	switch {
	case opts.Upsample:
		factor := 2
		p := (len(taps) - factor) - (kernelSize - 1)
		m.blur = NewBlur(taps, (p+1)/2+factor-1, p/2+1, factor)
	case opts.Downsample:
		factor := 2
		p := (len(taps) - factor) + (kernelSize - 1)
		m.blur = NewBlur(taps, (p+1)/2, p/2, 0)
	}
	return m, nil
}

// Forward maps input [N, inChannel, H, W] and style [N, styleDim] to
// [N, outChannel, H', W'] where H' is H, 2H or H/2 depending on the
// resampling mode.
func (m *ModulatedConv2D) Forward(x, style *tensor.Array) *tensor.Array {
	if x.Ndim() != 4 || x.Dim(1) != m.InChannel {
		panic(fmt.Sprintf("modulated conv: input %v, expected [N %d H W]", x.Shape(), m.InChannel))
	}
	batch, h, w := x.Dim(0), x.Dim(2), x.Dim(3)
	if style.Ndim() != 2 || style.Dim(0) != batch {
		panic(fmt.Sprintf("modulated conv: style %v does not match batch %d", style.Shape(), batch))
	}
	k := m.KernelSize

	// per-sample weight: scale * W * style, [N, O, I, k, k]
	s := tensor.Reshape(m.Modulation.Forward(style), batch, 1, m.InChannel, 1, 1)
	weight := tensor.Mul(tensor.MulScalar(m.Weight, m.scale), s)

	if m.Demodulate {
		sq := tensor.Sum(tensor.Sum(tensor.Sum(tensor.Square(weight), 4, true), 3, true), 2, true)
		weight = tensor.Mul(weight, tensor.RSqrt(tensor.AddScalar(sq, 1e-8)))
	}

	// groups=batch trick: fold the batch into the channel axis
	xg := tensor.Reshape(x, 1, batch*m.InChannel, h, w)

	switch {
	case m.Upsample:
		// conv_transpose wants [N*I, O, k, k]
		wt := tensor.Transpose(weight, 0, 2, 1, 3, 4)
		wt = tensor.Reshape(wt, batch*m.InChannel, m.OutChannel, k, k)
		out := tensor.ConvTranspose2d(xg, wt, 2, 2, 0, 0, batch)
		out = tensor.Reshape(out, batch, m.OutChannel, out.Dim(2), out.Dim(3))
		return m.blur.Forward(out)

	case m.Downsample:
		xb := m.blur.Forward(x)
		xg = tensor.Reshape(xb, 1, batch*m.InChannel, xb.Dim(2), xb.Dim(3))
		wg := tensor.Reshape(weight, batch*m.OutChannel, m.InChannel, k, k)
		out := tensor.Conv2d(xg, wg, 2, 2, 0, 0, batch)
		return tensor.Reshape(out, batch, m.OutChannel, out.Dim(2), out.Dim(3))

	default:
		wg := tensor.Reshape(weight, batch*m.OutChannel, m.InChannel, k, k)
		out := tensor.Conv2d(xg, wg, 1, 1, m.padding, m.padding, batch)
		return tensor.Reshape(out, batch, m.OutChannel, out.Dim(2), out.Dim(3))
	}
}
