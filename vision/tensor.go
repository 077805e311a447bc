// MODUL: tensor
// ZWECK: Konvertierung zwischen Bildern und Modell-Tensoren
// INPUT: ImageInput bzw. NCHW-Tensoren im Wertebereich [-1, 1]
// OUTPUT: [N, 3, H, W] float32-Tensoren bzw. RGBA-Bilder
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: tensor (intern)
// HINWEISE: Generator und Encoder arbeiten auf [-1, 1] normalisierten Bildern

package vision

import (
	"fmt"
	"image"

	"github.com/stylegen/stylegen/tensor"
)

// ToTensor skaliert ein Bild auf size x size und liefert einen
// [1, 3, size, size] Tensor im Wertebereich [-1, 1].
func ToTensor(img *ImageInput, size int) *tensor.Array {
	scaled := Resize(img, size, size)
	data := make([]float32, 3*size*size)
	plane := size * size

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			off := scaled.Image.PixOffset(x, y)
			idx := y*size + x
			data[idx] = float32(scaled.Image.Pix[off])/127.5 - 1
			data[plane+idx] = float32(scaled.Image.Pix[off+1])/127.5 - 1
			data[2*plane+idx] = float32(scaled.Image.Pix[off+2])/127.5 - 1
		}
	}
	return tensor.NewArray(data, 1, 3, size, size)
}

// ToBatchTensor stapelt mehrere Bilder zu einem [N, 3, size, size] Tensor.
func ToBatchTensor(imgs []*ImageInput, size int) (*tensor.Array, error) {
	if len(imgs) == 0 {
		return nil, fmt.Errorf("leerer bild-batch")
	}
	parts := make([]*tensor.Array, len(imgs))
	for i, img := range imgs {
		parts[i] = ToTensor(img, size)
	}
	return tensor.Concatenate(parts, 0), nil
}

// ToImages wandelt einen [N, 3, H, W] Tensor in RGBA-Bilder um. Werte
// werden von [-1, 1] auf 8-Bit skaliert und geklemmt.
func ToImages(t *tensor.Array) ([]*ImageInput, error) {
	if t.Ndim() != 4 || t.Dim(1) != 3 {
		return nil, fmt.Errorf("tensor %v, erwartet [N 3 H W]", t.Shape())
	}
	n, h, w := t.Dim(0), t.Dim(2), t.Dim(3)
	data := t.Data()
	plane := h * w

	out := make([]*ImageInput, n)
	for ni := 0; ni < n; ni++ {
		rgba := image.NewRGBA(image.Rect(0, 0, w, h))
		base := ni * 3 * plane
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				idx := y*w + x
				off := rgba.PixOffset(x, y)
				rgba.Pix[off] = clampByte(data[base+idx])
				rgba.Pix[off+1] = clampByte(data[base+plane+idx])
				rgba.Pix[off+2] = clampByte(data[base+2*plane+idx])
				rgba.Pix[off+3] = 255
			}
		}
		out[ni] = &ImageInput{Image: rgba, Width: w, Height: h}
	}
	return out, nil
}

// ToImage wandelt einen [1, 3, H, W] oder [3, H, W] Tensor in ein Bild um.
func ToImage(t *tensor.Array) (*ImageInput, error) {
	if t.Ndim() == 3 {
		t = tensor.ExpandDims(t, 0)
	}
	imgs, err := ToImages(t)
	if err != nil {
		return nil, err
	}
	if len(imgs) != 1 {
		return nil, fmt.Errorf("tensor enthaelt %d bilder, erwartet 1", len(imgs))
	}
	return imgs[0], nil
}

// clampByte bildet [-1, 1] auf [0, 255] ab
func clampByte(v float32) uint8 {
	s := (v + 1) * 127.5
	if s <= 0 {
		return 0
	}
	if s >= 255 {
		return 255
	}
	return uint8(s + 0.5)
}
