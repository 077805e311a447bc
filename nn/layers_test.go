// layers_test.go - Unit Tests fuer Equalized Layer und modulierte Conv
//
// Testet die Forward-Skalierung von EqualLinear, PixelNorm, die
// Shape-Gesetze der ModulatedConv2D und die Demodulations-Statistik.

package nn

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/stat"

	"github.com/stylegen/stylegen/tensor"
)

func TestEqualLinearScale(t *testing.T) {
	l := NewEqualLinear(4, 2, LinearOpts{})
	l.Weight = tensor.Ones(2, 4)

	// scale = 1/sqrt(4) = 0.5, Eingabe aus Einsen: 4 * 0.5 = 2
	out := l.Forward(tensor.Ones(1, 4))
	if out.Dim(0) != 1 || out.Dim(1) != 2 {
		t.Fatalf("EqualLinear Shape = %v", out.Shape())
	}
	almostEqual(t, out.Data()[0], 2, 1e-5, "EqualLinear")
	almostEqual(t, out.Data()[1], 2, 1e-5, "EqualLinear")
}

func TestEqualLinearLRMul(t *testing.T) {
	l := NewEqualLinear(4, 1, LinearOpts{LRMul: 0.01, BiasInit: 3})
	l.Weight = tensor.Ones(1, 4)

	// scale = 0.5*0.01, Bias wirkt mit lrMul: 4*0.005 + 3*0.01
	out := l.Forward(tensor.Ones(1, 4))
	almostEqual(t, out.Data()[0], 4*0.005+0.03, 1e-5, "EqualLinear lrMul")
}

func TestEqualLinearActivate(t *testing.T) {
	l := NewEqualLinear(4, 1, LinearOpts{Activate: true})
	l.Weight = tensor.Ones(1, 4)

	out := l.Forward(tensor.Ones(1, 4))
	almostEqual(t, out.Data()[0], 2*float32(math.Sqrt2), 1e-5, "EqualLinear aktiviert")

	neg := l.Forward(tensor.MulScalar(tensor.Ones(1, 4), -1))
	almostEqual(t, neg.Data()[0], -2*0.2*float32(math.Sqrt2), 1e-5, "EqualLinear aktiviert negativ")
}

func TestPixelNormUnitRMS(t *testing.T) {
	x := tensor.Full(2, 3, 4)
	got := PixelNorm{}.Forward(x)
	for i := range got.Data() {
		almostEqual(t, got.Data()[i], 1, 1e-4, "PixelNorm")
	}

	// RMS der Ausgabe ist 1 fuer beliebige Eingaben
	r := PixelNorm{}.Forward(tensor.RandN(2, 16))
	ms := tensor.Mean(tensor.Square(r), 1, false)
	for i := range ms.Data() {
		almostEqual(t, ms.Data()[i], 1, 1e-3, "PixelNorm RMS")
	}
}

func TestEqualConv2DShape(t *testing.T) {
	c := NewEqualConv2D(3, 8, 3, 1, 1, true)
	out := c.Forward(tensor.RandN(2, 3, 16, 16))
	if out.Dim(0) != 2 || out.Dim(1) != 8 || out.Dim(2) != 16 || out.Dim(3) != 16 {
		t.Errorf("EqualConv2D Shape = %v, erwartet [2 8 16 16]", out.Shape())
	}

	s := NewEqualConv2D(3, 8, 3, 2, 0, false)
	out2 := s.Forward(tensor.RandN(1, 3, 16, 16))
	if out2.Dim(2) != 7 || out2.Dim(3) != 7 {
		t.Errorf("EqualConv2D strided Shape = %v", out2.Shape())
	}
}

func TestModulatedConvShapes(t *testing.T) {
	cases := []struct {
		name string
		opts ModConvOpts
		outH int
	}{
		{"same", ModConvOpts{}, 8},
		{"up", ModConvOpts{Upsample: true}, 16},
		{"down", ModConvOpts{Downsample: true}, 4},
	}
	for _, tc := range cases {
		m, err := NewModulatedConv2D(4, 6, 3, 16, tc.opts)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		out := m.Forward(tensor.RandN(2, 4, 8, 8), tensor.RandN(2, 16))
		if out.Dim(0) != 2 || out.Dim(1) != 6 || out.Dim(2) != tc.outH || out.Dim(3) != tc.outH {
			t.Errorf("%s: Shape = %v, erwartet [2 6 %d %d]", tc.name, out.Shape(), tc.outH, tc.outH)
		}
	}
}

func TestModulatedConvRejectsBothResamples(t *testing.T) {
	if _, err := NewModulatedConv2D(4, 4, 3, 16, ModConvOpts{Upsample: true, Downsample: true}); err == nil {
		t.Error("Upsample+Downsample zusammen muss fehlschlagen")
	}
}

func TestDemodulationUnitVariance(t *testing.T) {
	// Demodulierte Gewichte halten die Varianz von N(0,1) Eingaben bei ~1
	m, err := NewModulatedConv2D(32, 32, 3, 64, ModConvOpts{})
	if err != nil {
		t.Fatal(err)
	}
	out := m.Forward(tensor.RandN(2, 32, 16, 16), tensor.RandN(2, 64))

	vals := make([]float64, out.Size())
	for i, v := range out.Data() {
		vals[i] = float64(v)
	}
	variance := stat.Variance(vals, nil)
	if variance < 0.7 || variance > 1.4 {
		t.Errorf("Ausgangsvarianz = %f, erwartet ~1", variance)
	}
}

func TestDemodulationWeightNorm(t *testing.T) {
	// 1x1 Kern und Einheitsvektoren als Eingabe lesen die demodulierten
	// Gewichte direkt aus: pro Ausgangskanal summieren ihre Quadrate zu 1
	in, out := 8, 5
	m, err := NewModulatedConv2D(in, out, 1, 16, ModConvOpts{})
	if err != nil {
		t.Fatal(err)
	}

	// gleicher Style fuer alle Samples, x ist die Identitaet
	style := tensor.Tile(tensor.RandN(1, 16), []int{in, 1})
	eye := make([]float32, in*in)
	for i := 0; i < in; i++ {
		eye[i*in+i] = 1
	}
	x := tensor.NewArray(eye, in, in, 1, 1)

	w := m.Forward(x, style) // [in, out, 1, 1], w[i][o] = Gewicht(o, i)
	for o := 0; o < out; o++ {
		var sum float32
		for i := 0; i < in; i++ {
			v := w.Data()[i*out+o]
			sum += v * v
		}
		almostEqual(t, sum, 1, 1e-5, "Demodulation Gewichtsnorm")
	}
}

func TestNoiseInjectionStartsAsIdentity(t *testing.T) {
	ni := NewNoiseInjection()
	x := tensor.RandN(2, 4, 8, 8)
	out := ni.Forward(x, nil)
	for i := range x.Data() {
		if out.Data()[i] != x.Data()[i] {
			t.Fatalf("NoiseInjection mit Gewicht 0 veraendert die Eingabe bei [%d]", i)
		}
	}

	ni.Weight = tensor.Ones(1)
	noise := tensor.Ones(2, 1, 8, 8)
	out2 := ni.Forward(x, noise)
	almostEqual(t, out2.Data()[0], x.Data()[0]+1, 1e-6, "NoiseInjection addiert")
}

func TestConstantInputBroadcast(t *testing.T) {
	c := NewConstantInput(8, 4)
	out := c.Forward(3)
	if out.Dim(0) != 3 || out.Dim(1) != 8 || out.Dim(2) != 4 || out.Dim(3) != 4 {
		t.Fatalf("ConstantInput Shape = %v", out.Shape())
	}
	base := c.Input.Data()
	for n := 0; n < 3; n++ {
		for i := range base {
			if out.Data()[n*len(base)+i] != base[i] {
				t.Fatalf("ConstantInput Batch %d weicht ab", n)
			}
		}
	}
}
