// discriminator.go - Kritiker mit waehlbarem Scoring-Kopf
//
// Enthaelt:
// - Downsampling-Trunk aus ResBlocks
// - Minibatch-StdDev Feature
// - Scoring-Koepfe lin1/lin2/lin4/avg1/avg2

package stylegan2

import (
	"fmt"
	"log/slog"

	"github.com/stylegen/stylegen/nn"
	"github.com/stylegen/stylegen/tensor"
)

// Discriminator scores images with a single scalar per sample.
type Discriminator struct {
	Size      int
	InChannel int
	Head      ScoringHead

	FromRGB   *ConvLayer
	Blocks    []*ResBlock
	FinalConv *ConvLayer
	Final     []*nn.EqualLinear

	stddevGroup int
	stddevFeat  int
	headPool    bool // avg heads pool before the linear stack
}

// NewDiscriminator builds a discriminator for the given configuration.
func NewDiscriminator(cfg DiscriminatorConfig) (*Discriminator, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("discriminator config: %w", err)
	}
	log2, _ := logSize(cfg.Size)
	channels := channelTable(cfg.ChannelMultiplier)

	d := &Discriminator{
		Size:        cfg.Size,
		InChannel:   cfg.InChannel,
		Head:        cfg.Head,
		FromRGB:     newConvLayer(cfg.InChannel, channels[cfg.Size], 1, false, cfg.BlurKernel, true, true),
		stddevGroup: cfg.StddevGroup,
		stddevFeat:  1,
	}

	inChannel := channels[cfg.Size]
	for i := log2; i > 2; i-- {
		outChannel := channels[1<<(i-1)]
		d.Blocks = append(d.Blocks, newResBlock(inChannel, outChannel, cfg.BlurKernel, cfg.Architecture))
		inChannel = outChannel
	}

	d.FinalConv = newConvLayer(inChannel+1, channels[4], 3, false, cfg.BlurKernel, true, true)

	c4 := channels[4]
	switch cfg.Head {
	case ScoringHeadLin1:
		d.Final = []*nn.EqualLinear{
			nn.NewEqualLinear(c4*4*4, 1, nn.LinearOpts{}),
		}
	case ScoringHeadLin2:
		d.Final = []*nn.EqualLinear{
			nn.NewEqualLinear(c4*4*4, c4, nn.LinearOpts{Activate: true}),
			nn.NewEqualLinear(c4, 1, nn.LinearOpts{}),
		}
	case ScoringHeadLin4:
		d.Final = []*nn.EqualLinear{
			nn.NewEqualLinear(c4*4*4, c4, nn.LinearOpts{Activate: true}),
			nn.NewEqualLinear(c4, c4, nn.LinearOpts{Activate: true}),
			nn.NewEqualLinear(c4, c4, nn.LinearOpts{Activate: true}),
			nn.NewEqualLinear(c4, 1, nn.LinearOpts{}),
		}
	case ScoringHeadAvg1:
		d.headPool = true
		d.Final = []*nn.EqualLinear{
			nn.NewEqualLinear(c4, 1, nn.LinearOpts{}),
		}
	case ScoringHeadAvg2:
		d.headPool = true
		d.Final = []*nn.EqualLinear{
			nn.NewEqualLinear(c4, c4, nn.LinearOpts{Activate: true}),
			nn.NewEqualLinear(c4, 1, nn.LinearOpts{}),
		}
	}

	slog.Debug("discriminator created", "size", cfg.Size, "head", cfg.Head,
		"blocks", len(d.Blocks))
	return d, nil
}

// Forward scores a batch of images [N, inChannel, size, size] and
// returns [N, 1].
func (d *Discriminator) Forward(img *tensor.Array) (*tensor.Array, error) {
	if img.Ndim() != 4 || img.Dim(1) != d.InChannel || img.Dim(2) != d.Size || img.Dim(3) != d.Size {
		return nil, fmt.Errorf("discriminator: input %v, want [N %d %d %d]", img.Shape(), d.InChannel, d.Size, d.Size)
	}
	batch := img.Dim(0)

	out := d.FromRGB.Forward(img)
	for _, b := range d.Blocks {
		out = b.Forward(out)
	}

	out = minibatchStdDev(out, d.stddevGroup, d.stddevFeat)
	out = d.FinalConv.Forward(out)

	if d.headPool {
		out = tensor.AvgPool2d(out, 4)
	}
	out = tensor.Reshape(out, batch, -1)
	for _, l := range d.Final {
		out = l.Forward(out)
	}
	return out, nil
}
