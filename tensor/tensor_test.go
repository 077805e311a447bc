// tensor_test.go - Unit Tests fuer Array Erstellung, Math und Shape-Ops
//
// Testet Broadcasting, Reduktionen, Pad/Slice und Dtype Round-Trips.

package tensor

import (
	"math"
	"testing"
)

func almostEqual(t *testing.T, got, want, tol float32, ctx string) {
	t.Helper()
	if float32(math.Abs(float64(got-want))) > tol {
		t.Errorf("%s = %f, erwartet %f", ctx, got, want)
	}
}

func TestNewArrayShape(t *testing.T) {
	a := NewArray([]float32{1, 2, 3, 4, 5, 6}, 2, 3)
	if a.Ndim() != 2 || a.Size() != 6 {
		t.Fatalf("Ndim/Size = %d/%d, erwartet 2/6", a.Ndim(), a.Size())
	}
	if a.Dim(0) != 2 || a.Dim(-1) != 3 {
		t.Errorf("Dim = %d/%d, erwartet 2/3", a.Dim(0), a.Dim(-1))
	}
}

func TestAddBroadcast(t *testing.T) {
	// [2,3] + [3] broadcastet ueber die letzte Achse
	a := NewArray([]float32{1, 2, 3, 4, 5, 6}, 2, 3)
	b := NewArray([]float32{10, 20, 30}, 3)
	got := Add(a, b).Data()
	want := []float32{11, 22, 33, 14, 25, 36}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Add[%d] = %f, erwartet %f", i, got[i], want[i])
		}
	}
}

func TestMulBroadcastMiddleAxis(t *testing.T) {
	// [2,2,2] * [1,2,1] broadcastet ueber Achsen 0 und 2
	a := NewArray([]float32{1, 2, 3, 4, 5, 6, 7, 8}, 2, 2, 2)
	b := NewArray([]float32{2, 10}, 1, 2, 1)
	got := Mul(a, b).Data()
	want := []float32{2, 4, 30, 40, 10, 12, 70, 80}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Mul[%d] = %f, erwartet %f", i, got[i], want[i])
		}
	}
}

func TestMeanVar(t *testing.T) {
	a := NewArray([]float32{1, 2, 3, 4}, 2, 2)
	m := Mean(a, 1, false)
	if m.Dim(0) != 2 {
		t.Fatalf("Mean Shape = %v", m.Shape())
	}
	almostEqual(t, m.Data()[0], 1.5, 1e-6, "Mean[0]")
	almostEqual(t, m.Data()[1], 3.5, 1e-6, "Mean[1]")

	// Populationsvarianz von {1,2} ist 0.25
	v := Var(a, 1, true)
	if v.Dim(1) != 1 {
		t.Fatalf("Var keepdims Shape = %v", v.Shape())
	}
	almostEqual(t, v.Data()[0], 0.25, 1e-6, "Var[0]")
}

func TestMatmul(t *testing.T) {
	a := NewArray([]float32{1, 2, 3, 4, 5, 6}, 2, 3)
	b := NewArray([]float32{7, 8, 9, 10, 11, 12}, 3, 2)
	got := Matmul(a, b)
	want := []float32{58, 64, 139, 154}
	if got.Dim(0) != 2 || got.Dim(1) != 2 {
		t.Fatalf("Matmul Shape = %v", got.Shape())
	}
	for i, v := range want {
		almostEqual(t, got.Data()[i], v, 1e-5, "Matmul")
	}
}

func TestTranspose(t *testing.T) {
	a := NewArray([]float32{1, 2, 3, 4, 5, 6}, 2, 3)
	got := Transpose(a, 1, 0)
	want := []float32{1, 4, 2, 5, 3, 6}
	if got.Dim(0) != 3 || got.Dim(1) != 2 {
		t.Fatalf("Transpose Shape = %v", got.Shape())
	}
	for i, v := range want {
		if got.Data()[i] != v {
			t.Errorf("Transpose[%d] = %f, erwartet %f", i, got.Data()[i], v)
		}
	}
}

func TestReshapeInfer(t *testing.T) {
	a := NewArray([]float32{1, 2, 3, 4, 5, 6}, 2, 3)
	got := Reshape(a, 3, -1)
	if got.Dim(0) != 3 || got.Dim(1) != 2 {
		t.Errorf("Reshape Shape = %v, erwartet [3 2]", got.Shape())
	}
}

func TestConcatenateTile(t *testing.T) {
	a := NewArray([]float32{1, 2}, 1, 2)
	b := NewArray([]float32{3, 4}, 1, 2)
	c := Concat(a, b, 0)
	if c.Dim(0) != 2 || c.Dim(1) != 2 {
		t.Fatalf("Concat Shape = %v", c.Shape())
	}

	tiled := Tile(a, []int{3, 1})
	if tiled.Dim(0) != 3 {
		t.Fatalf("Tile Shape = %v", tiled.Shape())
	}
	for i := 0; i < 3; i++ {
		if tiled.Data()[i*2] != 1 || tiled.Data()[i*2+1] != 2 {
			t.Errorf("Tile Zeile %d = %v", i, tiled.Data()[i*2:i*2+2])
		}
	}
}

func TestPadAndCrop(t *testing.T) {
	a := NewArray([]float32{1, 2, 3, 4}, 2, 2)

	p := Pad(a, []int{1, 1, 1, 1})
	if p.Dim(0) != 4 || p.Dim(1) != 4 {
		t.Fatalf("Pad Shape = %v", p.Shape())
	}
	if p.Data()[0] != 0 || p.Data()[5] != 1 || p.Data()[10] != 4 {
		t.Errorf("Pad Daten = %v", p.Data())
	}

	// Negative Pads croppen
	c := Pad(p, []int{-1, -1, -1, -1})
	for i, v := range a.Data() {
		if c.Data()[i] != v {
			t.Errorf("Crop[%d] = %f, erwartet %f", i, c.Data()[i], v)
		}
	}
}

func TestSliceChunk(t *testing.T) {
	a := NewArray([]float32{1, 2, 3, 4, 5, 6, 7, 8}, 2, 4)
	s := Slice(a, []int{0, 1}, []int{2, 3})
	want := []float32{2, 3, 6, 7}
	for i, v := range want {
		if s.Data()[i] != v {
			t.Errorf("Slice[%d] = %f, erwartet %f", i, s.Data()[i], v)
		}
	}

	chunks := Chunk(a, 2, 1)
	if len(chunks) != 2 || chunks[0].Dim(1) != 2 {
		t.Fatalf("Chunk = %d Teile, Shape %v", len(chunks), chunks[0].Shape())
	}
	if chunks[1].Data()[0] != 3 || chunks[1].Data()[2] != 7 {
		t.Errorf("Chunk[1] Daten = %v", chunks[1].Data())
	}
}

func TestAvgPool2d(t *testing.T) {
	a := NewArray([]float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	}, 1, 1, 4, 4)
	got := AvgPool2d(a, 2)
	if got.Dim(2) != 2 || got.Dim(3) != 2 {
		t.Fatalf("AvgPool2d Shape = %v", got.Shape())
	}
	want := []float32{3.5, 5.5, 11.5, 13.5}
	for i, v := range want {
		almostEqual(t, got.Data()[i], v, 1e-6, "AvgPool2d")
	}
}

func TestBroadcastTo(t *testing.T) {
	a := NewArray([]float32{1, 2}, 1, 2)
	got := BroadcastTo(a, []int{3, 2})
	if got.Dim(0) != 3 {
		t.Fatalf("BroadcastTo Shape = %v", got.Shape())
	}
	for i := 0; i < 3; i++ {
		if got.Data()[i*2] != 1 || got.Data()[i*2+1] != 2 {
			t.Errorf("BroadcastTo Zeile %d = %v", i, got.Data()[i*2:i*2+2])
		}
	}
}

func TestDtypeRoundTrip(t *testing.T) {
	vals := []float32{0, 1, -1, 0.5, 1024, -3.25}
	for _, dtype := range []Dtype{DtypeFloat32, DtypeFloat16, DtypeBFloat16} {
		a := AsType(NewArray(vals, len(vals)), dtype)
		b := NewArrayFromBytes(a.Bytes(), []int{len(vals)}, dtype)
		if b.Dtype() != dtype {
			t.Errorf("%s: Dtype = %s", dtype, b.Dtype())
		}
		for i := range vals {
			// Werte sind in allen drei Formaten exakt darstellbar
			if b.Data()[i] != a.Data()[i] {
				t.Errorf("%s[%d]: %f != %f", dtype, i, b.Data()[i], a.Data()[i])
			}
		}
	}
}

func TestRandomNormalDeterministic(t *testing.T) {
	a := RandomNormal([]int{16}, 7)
	b := RandomNormal([]int{16}, 7)
	for i := range a.Data() {
		if a.Data()[i] != b.Data()[i] {
			t.Fatalf("RandomNormal mit gleichem Seed weicht bei [%d] ab", i)
		}
	}

	c := RandomNormal([]int{16}, 8)
	same := true
	for i := range a.Data() {
		if a.Data()[i] != c.Data()[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("RandomNormal mit anderem Seed liefert identische Werte")
	}
}
