// blocks.go - Synthese- und Trunk-Bausteine
//
// Enthaelt:
// - StyledConv (modulierte Conv + Rauschen + fusionierte Aktivierung)
// - ToRGB (1x1 modulierte Conv ohne Demodulation, mit Skip-Pfad)
// - ConvLayer und ResBlock fuer die Downsampling-Trunks
// - minibatchStdDev

package stylegan2

import (
	"github.com/chewxy/math32"

	"github.com/stylegen/stylegen/nn"
	"github.com/stylegen/stylegen/tensor"
)

// StyledConv is one synthesis step: modulated convolution, noise
// injection and a fused leaky ReLU with its own channel bias.
type StyledConv struct {
	Conv    *nn.ModulatedConv2D
	Noise   *nn.NoiseInjection
	ActBias *tensor.Array
}

func newStyledConv(inChannel, outChannel, kernelSize, styleDim int, upsample bool, taps []float32) (*StyledConv, error) {
	conv, err := nn.NewModulatedConv2D(inChannel, outChannel, kernelSize, styleDim, nn.ModConvOpts{
		Upsample:   upsample,
		BlurKernel: taps,
	})
	if err != nil {
		return nil, err
	}
	return &StyledConv{
		Conv:    conv,
		Noise:   nn.NewNoiseInjection(),
		ActBias: tensor.Zeros(outChannel),
	}, nil
}

// Forward applies the block. A nil noise tensor draws fresh noise.
func (s *StyledConv) Forward(x, style, noise *tensor.Array) *tensor.Array {
	out := s.Conv.Forward(x, style)
	out = s.Noise.Forward(out, noise)
	return nn.FusedLeakyReLU(out, s.ActBias)
}

// ToRGB projects features to RGB with a demodulation-free 1x1 modulated
// convolution and accumulates the upsampled skip image.
type ToRGB struct {
	Upsample *nn.Upsample
	Conv     *nn.ModulatedConv2D
	Bias     *tensor.Array // [1, 3, 1, 1]
}

func newToRGB(inChannel, styleDim int, upsample bool, taps []float32) (*ToRGB, error) {
	conv, err := nn.NewModulatedConv2D(inChannel, 3, 1, styleDim, nn.ModConvOpts{NoDemod: true, BlurKernel: taps})
	if err != nil {
		return nil, err
	}
	t := &ToRGB{
		Conv: conv,
		Bias: tensor.Zeros(1, 3, 1, 1),
	}
	if upsample {
		t.Upsample = nn.NewUpsample(taps, 2)
	}
	return t, nil
}

// Forward projects to RGB and adds the skip image (nil for the first
// resolution).
func (t *ToRGB) Forward(x, style, skip *tensor.Array) *tensor.Array {
	out := tensor.Add(t.Conv.Forward(x, style), t.Bias)
	if skip != nil {
		out = tensor.Add(out, t.Upsample.Forward(skip))
	}
	return out
}

// ConvLayer is the discriminator/encoder building block: optional blur
// plus strided downsampling, equalized convolution, activation.
type ConvLayer struct {
	Blur    *nn.Blur
	Conv    *nn.EqualConv2D
	ActBias *tensor.Array       // fused activation bias, nil when not used
	Act     *nn.ScaledLeakyReLU // fallback when bias is disabled
}

func newConvLayer(inChannel, outChannel, kernelSize int, downsample bool, taps []float32, bias, activate bool) *ConvLayer {
	l := &ConvLayer{}

	stride, padding := 1, kernelSize/2
	if downsample {
		factor := 2
		p := (len(taps) - factor) + (kernelSize - 1)
		l.Blur = nn.NewBlur(taps, (p+1)/2, p/2, 0)
		stride, padding = 2, 0
	}

	l.Conv = nn.NewEqualConv2D(inChannel, outChannel, kernelSize, stride, padding, bias && !activate)

	if activate {
		if bias {
			l.ActBias = tensor.Zeros(outChannel)
		} else {
			l.Act = nn.NewScaledLeakyReLU(0.2)
		}
	}
	return l
}

func (l *ConvLayer) Forward(x *tensor.Array) *tensor.Array {
	if l.Blur != nil {
		x = l.Blur.Forward(x)
	}
	out := l.Conv.Forward(x)
	if l.ActBias != nil {
		return nn.FusedLeakyReLU(out, l.ActBias)
	}
	if l.Act != nil {
		return l.Act.Forward(out)
	}
	return out
}

// ResBlock halves the resolution. The resnet wiring adds a 1x1 skip
// path and rescales by 1/sqrt(2).
type ResBlock struct {
	Conv1 *ConvLayer
	Conv2 *ConvLayer
	Skip  *ConvLayer
}

func newResBlock(inChannel, outChannel int, taps []float32, arch Architecture) *ResBlock {
	b := &ResBlock{
		Conv1: newConvLayer(inChannel, inChannel, 3, false, taps, true, true),
		Conv2: newConvLayer(inChannel, outChannel, 3, true, taps, true, true),
	}
	if arch == ArchResNet {
		b.Skip = newConvLayer(inChannel, outChannel, 1, true, taps, false, false)
	}
	return b
}

func (b *ResBlock) Forward(x *tensor.Array) *tensor.Array {
	out := b.Conv2.Forward(b.Conv1.Forward(x))
	if b.Skip != nil {
		out = tensor.DivScalar(tensor.Add(out, b.Skip.Forward(x)), math32.Sqrt(2))
	}
	return out
}

// minibatchStdDev appends one channel holding the mean standard
// deviation across groups of samples. The batch must be divisible by
// the effective group size.
func minibatchStdDev(x *tensor.Array, group, feat int) *tensor.Array {
	batch, channel, height, width := x.Dim(0), x.Dim(1), x.Dim(2), x.Dim(3)
	if batch < group {
		group = batch
	}

	s := tensor.Reshape(x, group, -1, feat, channel/feat, height, width)
	s = tensor.Var(s, 0, false)
	s = tensor.Sqrt(tensor.AddScalar(s, 1e-8))
	s = tensor.Mean(tensor.Mean(tensor.Mean(s, 4, true), 3, true), 2, true)
	s = tensor.Reshape(s, s.Dim(0), feat, 1, 1)
	s = tensor.Tile(s, []int{group, 1, height, width})

	return tensor.Concat(x, s, 1)
}
