// MODUL: image
// ZWECK: Bild-Laden, Groessenanpassung und PNG-Export
// INPUT: Dateipfad, Bytes oder io.Reader
// OUTPUT: ImageInput Struktur mit dekodiertem RGBA-Bild
// NEBENEFFEKTE: Dateisystem-Zugriff bei LoadImage/SavePNG
// ABHAENGIGKEITEN: golang.org/x/image/draw (extern), image/jpeg, image/png
// HINWEISE: Alle Bilder werden als RGBA konvertiert

package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"os"

	// JPEG-Decoder registrieren (PNG kommt ueber den png-Import)
	_ "image/jpeg"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ImageInput enthaelt ein dekodiertes Bild
type ImageInput struct {
	Image  *image.RGBA
	Width  int
	Height int
}

// LoadImage laedt ein Bild von einem Dateipfad
func LoadImage(path string) (*ImageInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("datei lesen fehlgeschlagen: %w", err)
	}
	return LoadImageFromBytes(data)
}

// LoadImageFromBytes dekodiert ein Bild aus Byte-Daten
func LoadImageFromBytes(data []byte) (*ImageInput, error) {
	return DecodeImage(bytes.NewReader(data))
}

// DecodeImage dekodiert ein Bild aus einem io.Reader
func DecodeImage(reader io.Reader) (*ImageInput, error) {
	img, _, err := image.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("bild dekodieren fehlgeschlagen: %w", err)
	}
	return FromImage(img), nil
}

// FromImage konvertiert ein beliebiges image.Image in ein ImageInput
func FromImage(img image.Image) *ImageInput {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || bounds.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	return &ImageInput{Image: rgba, Width: bounds.Dx(), Height: bounds.Dy()}
}

// Resize skaliert das Bild bilinear auf die Zielgroesse
func Resize(img *ImageInput, width, height int) *ImageInput {
	if img.Width == width && img.Height == height {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), img.Image, img.Image.Bounds(), xdraw.Over, nil)
	return &ImageInput{Image: dst, Width: width, Height: height}
}

// SavePNG schreibt das Bild als PNG-Datei
func SavePNG(path string, img *ImageInput) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("datei erstellen fehlgeschlagen: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, img.Image); err != nil {
		return fmt.Errorf("png schreiben fehlgeschlagen: %w", err)
	}
	return nil
}
