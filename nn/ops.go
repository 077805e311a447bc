// Package nn - Layer-Primitive fuer stilbasierte Convolution-Netze
//
// Enthaelt:
// - Ops Interface (FusedLeakyReLU, UpFIRDn2D) mit Referenz-Implementierung
// - Package-Level Wrapper, die an die Default-Implementierung delegieren
//
// Die Referenz-Implementierung fuehrt jeden Schritt explizit aus
// (Bias-Add, Leaky-ReLU, Gain bzw. Zero-Insert, Pad, Falten, Stride).
// Eine hardware-beschleunigte Implementierung kann ueber Default
// eingehaengt werden.
package nn

import (
	"github.com/chewxy/math32"

	"github.com/stylegen/stylegen/tensor"
)

// Ops is the pluggable boundary for the two fused operations the layers
// depend on. Both must match the reference semantics exactly.
type Ops interface {
	// FusedLeakyReLU adds a per-channel bias (nil for none), applies a
	// leaky ReLU with the given negative slope and multiplies by gain.
	FusedLeakyReLU(x, bias *tensor.Array, negSlope, gain float32) *tensor.Array

	// UpFIRDn2D upsamples by zero-insertion (factor up), pads both
	// spatial axes with (pad0, pad1), convolves with the 2D FIR kernel
	// and keeps every down-th sample. x is NCHW, kernel is [kH, kW].
	UpFIRDn2D(x, kernel *tensor.Array, up, down, pad0, pad1 int) *tensor.Array
}

// Default is the Ops implementation used by all layers in this package.
var Default Ops = Reference{}

// Reference implements Ops in pure Go on the tensor package.
type Reference struct{}

// FusedLeakyReLU applies bias, leaky ReLU and gain as separate steps.
func (Reference) FusedLeakyReLU(x, bias *tensor.Array, negSlope, gain float32) *tensor.Array {
	out := x
	if bias != nil {
		b := bias
		if x.Ndim() == 4 {
			b = tensor.Reshape(bias, 1, bias.Size(), 1, 1)
		}
		out = tensor.Add(out, b)
	}
	out = tensor.LeakyReLU(out, negSlope)
	return tensor.MulScalar(out, gain)
}

// UpFIRDn2D performs zero-insert, pad, correlate, stride-drop.
func (Reference) UpFIRDn2D(x, kernel *tensor.Array, up, down, pad0, pad1 int) *tensor.Array {
	n, c, h, w := x.Dim(0), x.Dim(1), x.Dim(2), x.Dim(3)

	out := x
	if up > 1 {
		// insert up-1 zeros after every sample along both spatial axes
		data := x.Data()
		zd := make([]float32, n*c*h*up*w*up)
		for nc := 0; nc < n*c; nc++ {
			for y := 0; y < h; y++ {
				for xx := 0; xx < w; xx++ {
					zd[((nc*h*up)+y*up)*(w*up)+xx*up] = data[(nc*h+y)*w+xx]
				}
			}
		}
		out = tensor.NewArray(zd, n, c, h*up, w*up)
	}

	out = tensor.Pad(out, []int{0, 0, 0, 0, pad0, pad1, pad0, pad1})

	// convolution (not correlation): flip the kernel in both axes
	kh, kw := kernel.Dim(0), kernel.Dim(1)
	kd := kernel.Data()
	flipped := make([]float32, len(kd))
	for y := 0; y < kh; y++ {
		for xx := 0; xx < kw; xx++ {
			flipped[y*kw+xx] = kd[(kh-1-y)*kw+(kw-1-xx)]
		}
	}
	weight := tensor.NewArray(flipped, 1, 1, kh, kw)

	// every channel uses the same single-channel kernel
	flat := tensor.Reshape(out, n*c, 1, out.Dim(2), out.Dim(3))
	flat = tensor.Conv2d(flat, weight, down, down, 0, 0, 1)

	return tensor.Reshape(flat, n, c, flat.Dim(2), flat.Dim(3))
}

// FusedLeakyReLU applies the default fused activation: bias add, leaky
// ReLU with slope 0.2, gain sqrt(2).
func FusedLeakyReLU(x, bias *tensor.Array) *tensor.Array {
	return Default.FusedLeakyReLU(x, bias, 0.2, math32.Sqrt(2))
}

// UpFIRDn2D applies the default FIR resampling op.
func UpFIRDn2D(x, kernel *tensor.Array, up, down, pad0, pad1 int) *tensor.Array {
	return Default.UpFIRDn2D(x, kernel, up, down, pad0, pad1)
}
