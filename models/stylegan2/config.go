// Package stylegan2 - Generator, Discriminator und Encoder
//
// Enthaelt:
// - Kanal-Tabelle und Konfigurationen mit Defaults
// - Enum-Typen fuer Scoring-Kopf, Encoder-Kopf, Latent-Layout und
//   Latent-Raum, validiert bei der Konstruktion
package stylegan2

import "fmt"

// channelTable returns the feature channel count per resolution.
func channelTable(multiplier int) map[int]int {
	return map[int]int{
		4:    512,
		8:    512,
		16:   512,
		32:   512,
		64:   256 * multiplier,
		128:  128 * multiplier,
		256:  64 * multiplier,
		512:  32 * multiplier,
		1024: 16 * multiplier,
	}
}

// logSize returns log2(size) if size is a supported power of two.
func logSize(size int) (int, error) {
	l := 0
	for s := size; s > 1; s >>= 1 {
		l++
	}
	if size < 4 || size > 1024 || 1<<l != size {
		return 0, fmt.Errorf("size %d must be a power of two in [4, 1024]", size)
	}
	return l, nil
}

// ScoringHead selects how the discriminator maps the final 4x4 feature
// map to a scalar score.
type ScoringHead string

const (
	ScoringHeadLin1 ScoringHead = "lin1"
	ScoringHeadLin2 ScoringHead = "lin2"
	ScoringHeadLin4 ScoringHead = "lin4"
	ScoringHeadAvg1 ScoringHead = "avg1"
	ScoringHeadAvg2 ScoringHead = "avg2"
)

// ParseScoringHead validates a scoring head name.
func ParseScoringHead(s string) (ScoringHead, error) {
	switch ScoringHead(s) {
	case ScoringHeadLin1, ScoringHeadLin2, ScoringHeadLin4, ScoringHeadAvg1, ScoringHeadAvg2:
		return ScoringHead(s), nil
	}
	return "", fmt.Errorf("unknown scoring head %q", s)
}

// EncoderHead selects how the encoder maps the final 4x4 feature map to
// the latent vector.
type EncoderHead string

const (
	EncoderHeadAvg0 EncoderHead = "avg0"
	EncoderHeadAvg1 EncoderHead = "avg1"
	EncoderHeadLin1 EncoderHead = "lin1"
	EncoderHeadLin2 EncoderHead = "lin2"
)

// ParseEncoderHead validates an encoder head name.
func ParseEncoderHead(s string) (EncoderHead, error) {
	switch EncoderHead(s) {
	case EncoderHeadAvg0, EncoderHeadAvg1, EncoderHeadLin1, EncoderHeadLin2:
		return EncoderHead(s), nil
	}
	return "", fmt.Errorf("unknown encoder head %q", s)
}

// WhichLatent selects the encoder output layout: one latent per
// synthesis block or a single tied latent.
type WhichLatent string

const (
	LatentWPlus WhichLatent = "w_plus"
	LatentWTied WhichLatent = "w_tied"
)

// ParseWhichLatent validates a latent layout name.
func ParseWhichLatent(s string) (WhichLatent, error) {
	switch WhichLatent(s) {
	case LatentWPlus, LatentWTied:
		return WhichLatent(s), nil
	}
	return "", fmt.Errorf("unknown latent layout %q", s)
}

// LatentSpace selects the space the encoder output lives in.
type LatentSpace string

const (
	SpaceW  LatentSpace = "w"
	SpaceP  LatentSpace = "p"
	SpacePN LatentSpace = "pn"
	SpaceZ  LatentSpace = "z"
)

// ParseLatentSpace validates a latent space name.
func ParseLatentSpace(s string) (LatentSpace, error) {
	switch LatentSpace(s) {
	case SpaceW, SpaceP, SpacePN, SpaceZ:
		return LatentSpace(s), nil
	}
	return "", fmt.Errorf("unknown latent space %q", s)
}

// Architecture selects the downsampling trunk wiring.
type Architecture string

const (
	ArchResNet Architecture = "resnet"
	ArchPlain  Architecture = "plain"
)

// ParseArchitecture validates an architecture name.
func ParseArchitecture(s string) (Architecture, error) {
	switch Architecture(s) {
	case ArchResNet, ArchPlain:
		return Architecture(s), nil
	}
	return "", fmt.Errorf("unknown architecture %q", s)
}

// GeneratorConfig configures a Generator. Zero values select the
// standard setup: channel multiplier 2, blur taps [1 3 3 1], mapping
// network lrMul 0.01.
type GeneratorConfig struct {
	Size              int
	StyleDim          int
	NMLP              int
	ChannelMultiplier int
	BlurKernel        []float32
	LRMLP             float32
}

func (c *GeneratorConfig) applyDefaults() {
	if c.ChannelMultiplier == 0 {
		c.ChannelMultiplier = 2
	}
	if c.BlurKernel == nil {
		c.BlurKernel = []float32{1, 3, 3, 1}
	}
	if c.LRMLP == 0 {
		c.LRMLP = 0.01
	}
}

func (c *GeneratorConfig) validate() error {
	if _, err := logSize(c.Size); err != nil {
		return err
	}
	if c.StyleDim < 1 {
		return fmt.Errorf("style dim %d must be positive", c.StyleDim)
	}
	if c.NMLP < 1 {
		return fmt.Errorf("mapping depth %d must be positive", c.NMLP)
	}
	return nil
}

// DiscriminatorConfig configures a Discriminator. Zero values select:
// 3 input channels, stddev group 4, head lin2, resnet trunk.
type DiscriminatorConfig struct {
	Size              int
	ChannelMultiplier int
	BlurKernel        []float32
	InChannel         int
	StddevGroup       int // 1 disables the minibatch stddev feature
	Head              ScoringHead
	Architecture      Architecture
}

func (c *DiscriminatorConfig) applyDefaults() {
	if c.ChannelMultiplier == 0 {
		c.ChannelMultiplier = 2
	}
	if c.BlurKernel == nil {
		c.BlurKernel = []float32{1, 3, 3, 1}
	}
	if c.InChannel == 0 {
		c.InChannel = 3
	}
	if c.StddevGroup == 0 {
		c.StddevGroup = 4
	}
	if c.Head == "" {
		c.Head = ScoringHeadLin2
	}
	if c.Architecture == "" {
		c.Architecture = ArchResNet
	}
}

func (c *DiscriminatorConfig) validate() error {
	if _, err := logSize(c.Size); err != nil {
		return err
	}
	if _, err := ParseScoringHead(string(c.Head)); err != nil {
		return err
	}
	if _, err := ParseArchitecture(string(c.Architecture)); err != nil {
		return err
	}
	if c.StddevGroup < 1 {
		return fmt.Errorf("stddev group %d must be positive", c.StddevGroup)
	}
	return nil
}

// EncoderConfig configures an Encoder. Zero values select: style dim
// 512, w_plus layout, head lin2, stddev group 4, latent space w.
type EncoderConfig struct {
	Size              int
	StyleDim          int
	ChannelMultiplier int
	BlurKernel        []float32
	WhichLatent       WhichLatent
	Head              EncoderHead
	StddevGroup       int // 1 disables the minibatch stddev feature
	Variational       bool
	LatentSpace       LatentSpace
	PCA               *PCAState // required for latent space pn
}

func (c *EncoderConfig) applyDefaults() {
	if c.StyleDim == 0 {
		c.StyleDim = 512
	}
	if c.ChannelMultiplier == 0 {
		c.ChannelMultiplier = 2
	}
	if c.BlurKernel == nil {
		c.BlurKernel = []float32{1, 3, 3, 1}
	}
	if c.WhichLatent == "" {
		c.WhichLatent = LatentWPlus
	}
	if c.Head == "" {
		c.Head = EncoderHeadLin2
	}
	if c.StddevGroup == 0 {
		c.StddevGroup = 4
	}
	if c.LatentSpace == "" {
		c.LatentSpace = SpaceW
	}
}

func (c *EncoderConfig) validate() error {
	if _, err := logSize(c.Size); err != nil {
		return err
	}
	if _, err := ParseWhichLatent(string(c.WhichLatent)); err != nil {
		return err
	}
	if _, err := ParseEncoderHead(string(c.Head)); err != nil {
		return err
	}
	if _, err := ParseLatentSpace(string(c.LatentSpace)); err != nil {
		return err
	}
	if c.LatentSpace == SpacePN && c.PCA == nil {
		return fmt.Errorf("latent space %q needs PCA state", c.LatentSpace)
	}
	if c.StddevGroup < 1 {
		return fmt.Errorf("stddev group %d must be positive", c.StddevGroup)
	}
	return nil
}
