// encoder.go - Bild-zu-Latent Encoder
//
// Enthaelt:
// - Trunk wie beim Discriminator, Kopf auf latentFull Dimensionen
// - w_plus/w_tied Layout, optional variational (mean, logvar)
// - Latent-Raum Projektion inklusive PCA-Whitening (pn)

package stylegan2

import (
	"fmt"
	"log/slog"

	"github.com/stylegen/stylegen/nn"
	"github.com/stylegen/stylegen/tensor"
)

// PCAState holds the whitening statistics for the pn latent space.
// Lambda and Mu are [styleDim], CT is [styleDim, styleDim].
type PCAState struct {
	Lambda *tensor.Array
	CT     *tensor.Array
	Mu     *tensor.Array
}

// Encoder maps images to latent codes.
type Encoder struct {
	Size        int
	StyleDim    int
	NLatent     int
	LatentFull  int
	WhichLatent WhichLatent
	Head        EncoderHead
	Space       LatentSpace
	Variational bool

	FromRGB   *ConvLayer
	Blocks    []*ResBlock
	FinalConv *ConvLayer
	Final     []*nn.EqualLinear
	PCA       *PCAState

	stddevGroup int
	stddevFeat  int
	headPool    bool
}

// NewEncoder builds an encoder for the given configuration.
func NewEncoder(cfg EncoderConfig) (*Encoder, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("encoder config: %w", err)
	}
	log2, _ := logSize(cfg.Size)
	channels := channelTable(cfg.ChannelMultiplier)

	e := &Encoder{
		Size:        cfg.Size,
		StyleDim:    cfg.StyleDim,
		NLatent:     log2*2 - 2,
		WhichLatent: cfg.WhichLatent,
		Head:        cfg.Head,
		Space:       cfg.LatentSpace,
		Variational: cfg.Variational,
		FromRGB:     newConvLayer(3, channels[cfg.Size], 1, false, cfg.BlurKernel, true, true),
		PCA:         cfg.PCA,
		stddevGroup: cfg.StddevGroup,
		stddevFeat:  1,
	}

	switch cfg.WhichLatent {
	case LatentWPlus:
		e.LatentFull = cfg.StyleDim * e.NLatent
	case LatentWTied:
		e.LatentFull = cfg.StyleDim
	}

	inChannel := channels[cfg.Size]
	for i := log2; i > 2; i-- {
		outChannel := channels[1<<(i-1)]
		e.Blocks = append(e.Blocks, newResBlock(inChannel, outChannel, cfg.BlurKernel, ArchResNet))
		inChannel = outChannel
	}

	// the stddev feature adds one channel only when groups are active
	finalIn := inChannel
	if cfg.StddevGroup > 1 {
		finalIn++
	}
	e.FinalConv = newConvLayer(finalIn, channels[4], 3, false, cfg.BlurKernel, true, true)

	c4 := channels[4]
	outDim := e.LatentFull
	if cfg.Variational {
		outDim *= 2
	}
	switch cfg.Head {
	case EncoderHeadAvg0:
		if c4 != outDim {
			return nil, fmt.Errorf("encoder head avg0 needs %d channels, trunk has %d", outDim, c4)
		}
		e.headPool = true
	case EncoderHeadAvg1:
		e.headPool = true
		e.Final = []*nn.EqualLinear{
			nn.NewEqualLinear(c4, outDim, nn.LinearOpts{}),
		}
	case EncoderHeadLin1:
		e.Final = []*nn.EqualLinear{
			nn.NewEqualLinear(c4*4*4, outDim, nn.LinearOpts{}),
		}
	case EncoderHeadLin2:
		e.Final = []*nn.EqualLinear{
			nn.NewEqualLinear(c4*4*4, c4, nn.LinearOpts{Activate: true}),
			nn.NewEqualLinear(c4, outDim, nn.LinearOpts{}),
		}
	}

	slog.Debug("encoder created", "size", cfg.Size, "head", cfg.Head,
		"latent_full", e.LatentFull, "space", cfg.LatentSpace)
	return e, nil
}

// projectLatent maps the raw head output into the configured latent
// space.
func (e *Encoder) projectLatent(style *tensor.Array) *tensor.Array {
	switch e.Space {
	case SpaceW, SpaceZ:
		return style
	case SpaceP:
		return tensor.LeakyReLU(style, 0.2)
	case SpacePN:
		var p *tensor.Array
		if style.Dim(1) > e.StyleDim {
			chunks := tensor.Chunk(style, style.Dim(1)/e.StyleDim, 1)
			parts := make([]*tensor.Array, len(chunks))
			for i, w := range chunks {
				parts[i] = tensor.Add(tensor.Matmul(tensor.Mul(w, e.PCA.Lambda), e.PCA.CT), e.PCA.Mu)
			}
			p = tensor.Concatenate(parts, 1)
		} else {
			p = tensor.Add(tensor.Matmul(tensor.Mul(style, e.PCA.Lambda), e.PCA.CT), e.PCA.Mu)
		}
		return tensor.LeakyReLU(p, 0.2)
	}
	return style
}

// Forward encodes images [N, 3, size, size]. The second return value is
// the log variance in variational mode and nil otherwise.
func (e *Encoder) Forward(img *tensor.Array) (*tensor.Array, *tensor.Array, error) {
	if img.Ndim() != 4 || img.Dim(1) != 3 || img.Dim(2) != e.Size || img.Dim(3) != e.Size {
		return nil, nil, fmt.Errorf("encoder: input %v, want [N 3 %d %d]", img.Shape(), e.Size, e.Size)
	}
	batch := img.Dim(0)

	out := e.FromRGB.Forward(img)
	for _, b := range e.Blocks {
		out = b.Forward(out)
	}

	if e.stddevGroup > 1 {
		out = minibatchStdDev(out, e.stddevGroup, e.stddevFeat)
	}
	out = e.FinalConv.Forward(out)

	if e.headPool {
		out = tensor.AvgPool2d(out, 4)
	}
	out = tensor.Reshape(out, batch, -1)
	for _, l := range e.Final {
		out = l.Forward(out)
	}

	if e.Variational {
		halves := tensor.Chunk(out, 2, 1)
		return halves[0], halves[1], nil
	}
	return e.projectLatent(out), nil, nil
}
