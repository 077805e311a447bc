// noise.go - Rausch-Injektion und konstanter Eingang
//
// Enthaelt:
// - NoiseInjection (gelernte Rauschstaerke, Startwert 0)
// - ConstantInput (gelernter 4x4 Starttensor)

package nn

import (
	"fmt"

	"github.com/stylegen/stylegen/tensor"
)

// NoiseInjection adds per-pixel noise scaled by a single learned weight.
// The weight starts at zero, so a fresh layer passes its input through.
type NoiseInjection struct {
	Weight *tensor.Array // scalar
}

// NewNoiseInjection creates the layer with weight zero.
func NewNoiseInjection() *NoiseInjection {
	return &NoiseInjection{Weight: tensor.Zeros(1)}
}

// Forward adds weight*noise to img. A nil noise tensor draws fresh
// standard-normal noise of shape [N, 1, H, W].
func (ni *NoiseInjection) Forward(img, noise *tensor.Array) *tensor.Array {
	if noise == nil {
		noise = tensor.RandN(img.Dim(0), 1, img.Dim(2), img.Dim(3))
	}
	return tensor.Add(img, tensor.MulScalar(noise, ni.Weight.Data()[0]))
}

// ConstantInput is the learned constant the synthesis network starts
// from. It is broadcast over the batch.
type ConstantInput struct {
	Input *tensor.Array // [1, channel, size, size]
}

// NewConstantInput creates the constant with standard-normal init.
func NewConstantInput(channel, size int) *ConstantInput {
	return &ConstantInput{Input: tensor.RandN(1, channel, size, size)}
}

// Forward repeats the constant to batch size.
func (c *ConstantInput) Forward(batch int) *tensor.Array {
	if batch < 1 {
		panic(fmt.Sprintf("constant input: invalid batch %d", batch))
	}
	return tensor.Tile(c.Input, []int{batch, 1, 1, 1})
}
