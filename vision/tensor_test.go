// MODUL: tensor_test
// ZWECK: Tests fuer Bild-Tensor-Konvertierung
// INPUT: Synthetische Bilder und Tensoren
// OUTPUT: Testresultate
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: testing, image
// HINWEISE: Round-Trip muss innerhalb von 1/255 liegen

package vision

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stylegen/stylegen/tensor"
)

// createTestImage erzeugt ein einfarbiges Testbild
func createTestImage(w, h int, c color.Color) *ImageInput {
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			rgba.Set(x, y, c)
		}
	}
	return &ImageInput{Image: rgba, Width: w, Height: h}
}

func TestToTensorRange(t *testing.T) {
	// Rotes 4x4 Bild: R-Kanal 1.0, G/B -1.0
	img := createTestImage(4, 4, color.RGBA{255, 0, 0, 255})
	out := ToTensor(img, 4)
	if out.Dim(0) != 1 || out.Dim(1) != 3 || out.Dim(2) != 4 || out.Dim(3) != 4 {
		t.Fatalf("Tensor Shape = %v, erwartet [1 3 4 4]", out.Shape())
	}
	if out.Data()[0] != 1.0 {
		t.Errorf("R-Kanal = %f, erwartet 1.0", out.Data()[0])
	}
	if out.Data()[16] != -1.0 {
		t.Errorf("G-Kanal = %f, erwartet -1.0", out.Data()[16])
	}
}

func TestToTensorResizes(t *testing.T) {
	img := createTestImage(16, 8, color.RGBA{0, 255, 0, 255})
	out := ToTensor(img, 4)
	if out.Dim(2) != 4 || out.Dim(3) != 4 {
		t.Errorf("Tensor Shape = %v, erwartet 4x4", out.Shape())
	}
}

func TestRoundTrip(t *testing.T) {
	img := createTestImage(4, 4, color.RGBA{200, 100, 50, 255})
	out := ToTensor(img, 4)
	back, err := ToImage(out)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		got := back.Image.Pix[i]
		want := img.Image.Pix[i]
		if int(got)-int(want) > 1 || int(want)-int(got) > 1 {
			t.Errorf("Kanal %d = %d, erwartet %d (+-1)", i, got, want)
		}
	}
}

func TestToImagesClamps(t *testing.T) {
	// Werte ausserhalb [-1, 1] werden geklemmt
	d := make([]float32, 3*4)
	for i := range d {
		d[i] = 5
	}
	for i := 0; i < 4; i++ {
		d[2*4+i] = -5
	}
	imgs, err := ToImages(tensor.NewArray(d, 1, 3, 2, 2))
	if err != nil {
		t.Fatal(err)
	}
	if imgs[0].Image.Pix[0] != 255 {
		t.Errorf("geklemmter R-Kanal = %d, erwartet 255", imgs[0].Image.Pix[0])
	}
	if imgs[0].Image.Pix[2] != 0 {
		t.Errorf("geklemmter B-Kanal = %d, erwartet 0", imgs[0].Image.Pix[2])
	}
}

func TestToImagesRejectsBadShape(t *testing.T) {
	if _, err := ToImages(tensor.RandN(2, 4, 8, 8)); err == nil {
		t.Error("4 Kanaele muessen fehlschlagen")
	}
}

func TestToBatchTensor(t *testing.T) {
	imgs := []*ImageInput{
		createTestImage(4, 4, color.RGBA{255, 0, 0, 255}),
		createTestImage(4, 4, color.RGBA{0, 0, 255, 255}),
	}
	batch, err := ToBatchTensor(imgs, 4)
	if err != nil {
		t.Fatal(err)
	}
	if batch.Dim(0) != 2 {
		t.Fatalf("Batch Shape = %v", batch.Shape())
	}
	if _, err := ToBatchTensor(nil, 4); err == nil {
		t.Error("leerer Batch muss fehlschlagen")
	}
}

func TestClampByteMidpoint(t *testing.T) {
	// 0.0 liegt in der Mitte des Wertebereichs
	if got := clampByte(0); math.Abs(float64(got)-127.5) > 0.5 {
		t.Errorf("clampByte(0) = %d, erwartet ~128", got)
	}
}
