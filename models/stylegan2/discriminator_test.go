// discriminator_test.go - Tests fuer Trunk, StdDev-Feature und Koepfe

package stylegan2

import (
	"testing"

	"github.com/stylegen/stylegen/tensor"
)

func TestDiscriminatorHeads(t *testing.T) {
	heads := []ScoringHead{ScoringHeadLin1, ScoringHeadLin2, ScoringHeadLin4, ScoringHeadAvg1, ScoringHeadAvg2}
	img := tensor.RandN(2, 3, 8, 8)

	for _, head := range heads {
		d, err := NewDiscriminator(DiscriminatorConfig{Size: 8, Head: head, StddevGroup: 2})
		if err != nil {
			t.Fatalf("%s: %v", head, err)
		}
		score, err := d.Forward(img)
		if err != nil {
			t.Fatalf("%s: %v", head, err)
		}
		if score.Dim(0) != 2 || score.Dim(1) != 1 {
			t.Errorf("%s: Score Shape = %v, erwartet [2 1]", head, score.Shape())
		}
	}
}

func TestDiscriminatorPlainArchitecture(t *testing.T) {
	d, err := NewDiscriminator(DiscriminatorConfig{Size: 8, Architecture: ArchPlain, StddevGroup: 2})
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range d.Blocks {
		if b.Skip != nil {
			t.Error("plain Trunk darf keinen Skip-Pfad haben")
		}
	}
	if _, err := d.Forward(tensor.RandN(2, 3, 8, 8)); err != nil {
		t.Fatal(err)
	}
}

func TestDiscriminatorRejectsWrongInput(t *testing.T) {
	d, err := NewDiscriminator(DiscriminatorConfig{Size: 8})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Forward(tensor.RandN(2, 3, 16, 16)); err == nil {
		t.Error("falsche Aufloesung muss fehlschlagen")
	}
	if _, err := d.Forward(tensor.RandN(2, 1, 8, 8)); err == nil {
		t.Error("falsche Kanalzahl muss fehlschlagen")
	}
}

func TestDiscriminatorRejectsBadHead(t *testing.T) {
	if _, err := NewDiscriminator(DiscriminatorConfig{Size: 8, Head: "vec"}); err == nil {
		t.Error("unbekannter Kopf muss fehlschlagen")
	}
}

func TestMinibatchStdDev(t *testing.T) {
	// Konstante Eingabe: Streuung ist sqrt(1e-8)
	x := tensor.Ones(4, 8, 4, 4)
	out := minibatchStdDev(x, 4, 1)
	if out.Dim(1) != 9 {
		t.Fatalf("StdDev Shape = %v, erwartet 9 Kanaele", out.Shape())
	}
	almostEqual(t, out.Data()[8*16], 1e-4, 1e-5, "StdDev konstant")

	// Gruppe wird auf die Batchgroesse begrenzt
	small := minibatchStdDev(tensor.RandN(2, 8, 4, 4), 4, 1)
	if small.Dim(0) != 2 || small.Dim(1) != 9 {
		t.Errorf("StdDev Shape = %v", small.Shape())
	}
}

func TestChannelTable(t *testing.T) {
	c := channelTable(2)
	if c[4] != 512 || c[32] != 512 {
		t.Errorf("Basiskanaele = %d/%d, erwartet 512", c[4], c[32])
	}
	if c[64] != 512 || c[256] != 128 || c[1024] != 32 {
		t.Errorf("Multiplikator-Kanaele = %d/%d/%d", c[64], c[256], c[1024])
	}
	if channelTable(1)[256] != 64 {
		t.Errorf("channelTable(1)[256] = %d, erwartet 64", channelTable(1)[256])
	}
}
