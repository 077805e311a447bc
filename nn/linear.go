// linear.go - Equalized Layer und Aktivierungen
//
// Enthaelt:
// - PixelNorm, ScaledLeakyReLU
// - EqualLinear (mit lrMul und optional fusionierter Aktivierung)
// - EqualConv2D
//
// Equalized Learning Rate: Gewichte werden mit N(0,1) initialisiert und
// erst im Forward mit 1/sqrt(fanIn) skaliert.

package nn

import (
	"github.com/chewxy/math32"

	"github.com/stylegen/stylegen/tensor"
)

// PixelNorm normalizes every feature vector to unit RMS along axis 1.
type PixelNorm struct{}

// Forward divides x by sqrt(mean(x^2, axis=1) + 1e-8).
func (PixelNorm) Forward(x *tensor.Array) *tensor.Array {
	ms := tensor.Mean(tensor.Square(x), 1, true)
	return tensor.Mul(x, tensor.RSqrt(tensor.AddScalar(ms, 1e-8)))
}

// ScaledLeakyReLU is a leaky ReLU followed by a sqrt(2) gain.
type ScaledLeakyReLU struct {
	NegativeSlope float32
}

// NewScaledLeakyReLU creates the activation with the given slope.
func NewScaledLeakyReLU(negativeSlope float32) *ScaledLeakyReLU {
	return &ScaledLeakyReLU{NegativeSlope: negativeSlope}
}

// Forward applies the activation.
func (s *ScaledLeakyReLU) Forward(x *tensor.Array) *tensor.Array {
	return tensor.MulScalar(tensor.LeakyReLU(x, s.NegativeSlope), math32.Sqrt(2))
}

// LinearOpts configures an EqualLinear layer. The zero value means:
// bias enabled with init 0, lrMul 1, no activation.
type LinearOpts struct {
	NoBias   bool
	BiasInit float32
	LRMul    float32 // 0 means 1
	Activate bool    // fused leaky ReLU after the affine map
}

// EqualLinear is a fully connected layer with equalized learning rate.
// The stored weight is divided by lrMul; forward rescales with
// (1/sqrt(inDim)) * lrMul and the bias with lrMul.
type EqualLinear struct {
	Weight *tensor.Array // [outDim, inDim]
	Bias   *tensor.Array // [outDim], nil when disabled

	scale    float32
	lrMul    float32
	activate bool
}

// NewEqualLinear creates an equalized linear layer.
func NewEqualLinear(inDim, outDim int, opts LinearOpts) *EqualLinear {
	lrMul := opts.LRMul
	if lrMul == 0 {
		lrMul = 1
	}
	l := &EqualLinear{
		Weight:   tensor.DivScalar(tensor.RandN(outDim, inDim), lrMul),
		scale:    1 / math32.Sqrt(float32(inDim)) * lrMul,
		lrMul:    lrMul,
		activate: opts.Activate,
	}
	if !opts.NoBias {
		l.Bias = tensor.Full(opts.BiasInit, outDim)
	}
	return l
}

// Forward maps [N, inDim] to [N, outDim].
func (l *EqualLinear) Forward(x *tensor.Array) *tensor.Array {
	w := tensor.MulScalar(tensor.Transpose(l.Weight, 1, 0), l.scale)
	out := tensor.Matmul(x, w)

	var bias *tensor.Array
	if l.Bias != nil {
		bias = tensor.MulScalar(l.Bias, l.lrMul)
	}
	if l.activate {
		return FusedLeakyReLU(out, bias)
	}
	if bias != nil {
		out = tensor.Add(out, bias)
	}
	return out
}

// EqualConv2D is a 2D convolution with equalized learning rate.
type EqualConv2D struct {
	Weight *tensor.Array // [outChannel, inChannel, k, k]
	Bias   *tensor.Array // [outChannel], nil when disabled

	Stride  int
	Padding int
	scale   float32
}

// NewEqualConv2D creates an equalized convolution layer.
func NewEqualConv2D(inChannel, outChannel, kernelSize, stride, padding int, bias bool) *EqualConv2D {
	c := &EqualConv2D{
		Weight:  tensor.RandN(outChannel, inChannel, kernelSize, kernelSize),
		Stride:  stride,
		Padding: padding,
		scale:   1 / math32.Sqrt(float32(inChannel*kernelSize*kernelSize)),
	}
	if bias {
		c.Bias = tensor.Zeros(outChannel)
	}
	return c
}

// Forward maps [N, inChannel, H, W] to [N, outChannel, H', W'].
func (c *EqualConv2D) Forward(x *tensor.Array) *tensor.Array {
	w := tensor.MulScalar(c.Weight, c.scale)
	out := tensor.Conv2d(x, w, c.Stride, c.Stride, c.Padding, c.Padding, 1)
	if c.Bias != nil {
		out = tensor.Add(out, tensor.Reshape(c.Bias, 1, c.Bias.Size(), 1, 1))
	}
	return out
}
