// generator.go - Style-basierter Generator
//
// Enthaelt:
// - Mapping-Netz (PixelNorm + MLP mit lrMul)
// - Synthese-Netz (konstanter Eingang, StyledConvs, ToRGB Skip-Pfad)
// - Style-Mixing, Truncation und Rausch-Verwaltung

package stylegan2

import (
	"fmt"
	"log/slog"

	"github.com/stylegen/stylegen/nn"
	"github.com/stylegen/stylegen/tensor"
)

// Generator synthesizes images from latent codes.
type Generator struct {
	Size      int
	StyleDim  int
	LogSize   int
	NumLayers int // noise inputs
	NLatent   int // per-block styles

	Style  []*nn.EqualLinear // mapping network, applied after PixelNorm
	Input  *nn.ConstantInput
	Conv1  *StyledConv
	ToRGB1 *ToRGB
	Convs  []*StyledConv
	ToRGBs []*ToRGB
	Noises []*tensor.Array // frozen per-layer noise buffers

	channels map[int]int
}

// NewGenerator builds a generator for the given configuration.
func NewGenerator(cfg GeneratorConfig) (*Generator, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("generator config: %w", err)
	}
	log2, _ := logSize(cfg.Size)
	channels := channelTable(cfg.ChannelMultiplier)

	g := &Generator{
		Size:      cfg.Size,
		StyleDim:  cfg.StyleDim,
		LogSize:   log2,
		NumLayers: (log2-2)*2 + 1,
		NLatent:   log2*2 - 2,
		channels:  channels,
	}

	for i := 0; i < cfg.NMLP; i++ {
		g.Style = append(g.Style, nn.NewEqualLinear(cfg.StyleDim, cfg.StyleDim, nn.LinearOpts{
			LRMul:    cfg.LRMLP,
			Activate: true,
		}))
	}

	g.Input = nn.NewConstantInput(channels[4], 4)

	var err error
	if g.Conv1, err = newStyledConv(channels[4], channels[4], 3, cfg.StyleDim, false, cfg.BlurKernel); err != nil {
		return nil, fmt.Errorf("generator conv1: %w", err)
	}
	if g.ToRGB1, err = newToRGB(channels[4], cfg.StyleDim, false, cfg.BlurKernel); err != nil {
		return nil, fmt.Errorf("generator to_rgb1: %w", err)
	}

	for layer := 0; layer < g.NumLayers; layer++ {
		res := 1 << ((layer + 5) / 2)
		g.Noises = append(g.Noises, tensor.RandN(1, 1, res, res))
	}

	inChannel := channels[4]
	for i := 3; i <= log2; i++ {
		outChannel := channels[1<<i]

		up, err := newStyledConv(inChannel, outChannel, 3, cfg.StyleDim, true, cfg.BlurKernel)
		if err != nil {
			return nil, fmt.Errorf("generator conv %d: %w", i, err)
		}
		same, err := newStyledConv(outChannel, outChannel, 3, cfg.StyleDim, false, cfg.BlurKernel)
		if err != nil {
			return nil, fmt.Errorf("generator conv %d: %w", i, err)
		}
		rgb, err := newToRGB(outChannel, cfg.StyleDim, true, cfg.BlurKernel)
		if err != nil {
			return nil, fmt.Errorf("generator to_rgb %d: %w", i, err)
		}
		g.Convs = append(g.Convs, up, same)
		g.ToRGBs = append(g.ToRGBs, rgb)

		inChannel = outChannel
	}

	slog.Debug("generator created", "size", cfg.Size, "style_dim", cfg.StyleDim,
		"n_latent", g.NLatent, "num_layers", g.NumLayers)
	return g, nil
}

// mapStyle runs one vector through PixelNorm and the mapping MLP.
func (g *Generator) mapStyle(z *tensor.Array) *tensor.Array {
	out := nn.PixelNorm{}.Forward(z)
	for _, l := range g.Style {
		out = l.Forward(out)
	}
	return out
}

// GetLatent maps latent codes from Z to W. Inputs whose last axis is a
// multiple of the style dim are mapped vector-wise and reshaped back.
func (g *Generator) GetLatent(z *tensor.Array) (*tensor.Array, error) {
	if z.Dim(-1)%g.StyleDim != 0 {
		return nil, fmt.Errorf("generator: latent width %d is not a multiple of style dim %d", z.Dim(-1), g.StyleDim)
	}
	if z.Ndim() == 2 && z.Dim(1) == g.StyleDim {
		return g.mapStyle(z), nil
	}
	shape := z.Shape()
	flat := g.mapStyle(tensor.Reshape(z, -1, g.StyleDim))
	return tensor.Reshape(flat, shape...), nil
}

// MakeNoise samples one fresh noise tensor per synthesis layer.
func (g *Generator) MakeNoise() []*tensor.Array {
	noises := []*tensor.Array{tensor.RandN(1, 1, 4, 4)}
	for i := 3; i <= g.LogSize; i++ {
		for j := 0; j < 2; j++ {
			noises = append(noises, tensor.RandN(1, 1, 1<<i, 1<<i))
		}
	}
	return noises
}

// MeanLatent estimates the mean W vector from n random draws.
func (g *Generator) MeanLatent(n int) *tensor.Array {
	latent := g.mapStyle(tensor.RandN(n, g.StyleDim))
	return tensor.Mean(latent, 0, true)
}

// LastLayerWeights returns the modulated weights of the final ToRGB and
// the final StyledConv.
func (g *Generator) LastLayerWeights() []*tensor.Array {
	return []*tensor.Array{
		g.ToRGBs[len(g.ToRGBs)-1].Conv.Weight,
		g.Convs[len(g.Convs)-1].Conv.Weight,
	}
}

// ForwardOptions controls a synthesis pass. The zero value means: map
// inputs through the mapping network, no truncation, fresh noise,
// random mixing cut.
type ForwardOptions struct {
	ReturnLatents    bool
	InjectIndex      int // 0 picks a random cut when mixing
	Truncation       float32
	TruncationLatent *tensor.Array
	InputIsLatent    bool
	Noise            []*tensor.Array
	FreezeNoise      bool // use the stored per-layer buffers
}

// GetStyles resolves the input codes into the per-block latent tensor
// [N, nLatent, styleDim], applying mapping, truncation and mixing.
func (g *Generator) GetStyles(styles []*tensor.Array, opts *ForwardOptions) (*tensor.Array, error) {
	if opts == nil {
		opts = &ForwardOptions{}
	}
	if len(styles) < 1 || len(styles) > 2 {
		return nil, fmt.Errorf("generator: got %d style inputs, want 1 or 2", len(styles))
	}
	batch := styles[0].Dim(0)
	for _, s := range styles {
		if s.Dim(0) != batch {
			return nil, fmt.Errorf("generator: style batch sizes differ (%d vs %d)", batch, s.Dim(0))
		}
	}

	// mixing takes plain style vectors only, pre-broadcast latents are
	// a single-input form
	if len(styles) == 2 {
		for _, s := range styles {
			if s.Ndim() != 2 || s.Dim(1) != g.StyleDim {
				return nil, fmt.Errorf("generator: mixing style %v, want [N %d]", s.Shape(), g.StyleDim)
			}
		}
	}

	if !opts.InputIsLatent {
		mapped := make([]*tensor.Array, len(styles))
		for i, s := range styles {
			m, err := g.GetLatent(s)
			if err != nil {
				return nil, err
			}
			mapped[i] = m
		}
		styles = mapped
	}

	if opts.Truncation != 0 && opts.Truncation < 1 {
		if opts.TruncationLatent == nil {
			return nil, fmt.Errorf("generator: truncation %f needs a truncation latent", opts.Truncation)
		}
		truncated := make([]*tensor.Array, len(styles))
		for i, s := range styles {
			truncated[i] = tensor.Add(opts.TruncationLatent,
				tensor.MulScalar(tensor.Sub(s, opts.TruncationLatent), opts.Truncation))
		}
		styles = truncated
	}

	if len(styles) < 2 {
		s := styles[0]
		if s.Ndim() >= 3 {
			if s.Dim(1) != g.NLatent || s.Dim(2) != g.StyleDim {
				return nil, fmt.Errorf("generator: latent %v, want [N %d %d]", s.Shape(), g.NLatent, g.StyleDim)
			}
			return s, nil
		}
		if s.Dim(1) == g.StyleDim {
			return tensor.Tile(tensor.ExpandDims(s, 1), []int{1, g.NLatent, 1}), nil
		}
		if s.Dim(1) != g.NLatent*g.StyleDim {
			return nil, fmt.Errorf("generator: latent %v, want width %d or %d", s.Shape(), g.StyleDim, g.NLatent*g.StyleDim)
		}
		return tensor.Reshape(s, batch, -1, g.StyleDim), nil
	}

	inject := opts.InjectIndex
	if inject == 0 {
		inject = tensor.RandIntn(1, g.NLatent)
	}
	if inject < 1 || inject >= g.NLatent {
		return nil, fmt.Errorf("generator: inject index %d outside [1, %d)", inject, g.NLatent)
	}
	a := tensor.Tile(tensor.ExpandDims(styles[0], 1), []int{1, inject, 1})
	b := tensor.Tile(tensor.ExpandDims(styles[1], 1), []int{1, g.NLatent - inject, 1})
	return tensor.Concat(a, b, 1), nil
}

// layerNoise resolves the per-layer noise tensors for one pass.
func (g *Generator) layerNoise(opts *ForwardOptions) ([]*tensor.Array, error) {
	if opts.Noise != nil {
		if len(opts.Noise) != g.NumLayers {
			return nil, fmt.Errorf("generator: got %d noise tensors, want %d", len(opts.Noise), g.NumLayers)
		}
		return opts.Noise, nil
	}
	if opts.FreezeNoise {
		return g.Noises, nil
	}
	return make([]*tensor.Array, g.NumLayers), nil
}

// Forward synthesizes images. styles holds one or two [N, styleDim]
// codes (two trigger style mixing), or one pre-broadcast latent of
// shape [N, nLatent, styleDim] or [N, nLatent*styleDim]. Returns the
// image [N, 3, size, size] and, when requested, the latent tensor.
func (g *Generator) Forward(styles []*tensor.Array, opts *ForwardOptions) (*tensor.Array, *tensor.Array, error) {
	if opts == nil {
		opts = &ForwardOptions{}
	}
	latent, err := g.GetStyles(styles, opts)
	if err != nil {
		return nil, nil, err
	}
	noise, err := g.layerNoise(opts)
	if err != nil {
		return nil, nil, err
	}

	styleAt := func(i int) *tensor.Array {
		s := tensor.Slice(latent, []int{0, i, 0}, []int{latent.Dim(0), i + 1, g.StyleDim})
		return tensor.Reshape(s, latent.Dim(0), g.StyleDim)
	}

	out := g.Input.Forward(latent.Dim(0))
	out = g.Conv1.Forward(out, styleAt(0), noise[0])
	skip := g.ToRGB1.Forward(out, styleAt(1), nil)

	i := 1
	for blk := 0; blk < len(g.ToRGBs); blk++ {
		out = g.Convs[2*blk].Forward(out, styleAt(i), noise[2*blk+1])
		out = g.Convs[2*blk+1].Forward(out, styleAt(i+1), noise[2*blk+2])
		skip = g.ToRGBs[blk].Forward(out, styleAt(i+2), skip)
		i += 2
	}

	if opts.ReturnLatents {
		return skip, latent, nil
	}
	return skip, nil, nil
}
