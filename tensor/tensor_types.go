// Package tensor - Dichte float32 Arrays im NCHW Layout
//
// Enthaelt:
// - Array Struktur und Dtype Definitionen
// - Interne Stride- und Broadcast-Helfer
//
// Alle Operationen sind reine Referenz-Implementierungen ohne
// Hardware-Beschleunigung. Feature-Maps verwenden das NCHW Layout,
// Convolution-Gewichte das OIHW Layout.
package tensor

import "fmt"

// Dtype identifies the logical element type of an Array.
// Data is always held as float32 in memory; Dtype controls the
// encoding used by Bytes and NewArrayFromBytes and the rounding
// applied by AsType.
type Dtype int

const (
	DtypeFloat32 Dtype = iota
	DtypeFloat16
	DtypeBFloat16
)

// ItemSize returns the encoded size of one element in bytes.
func (d Dtype) ItemSize() int64 {
	switch d {
	case DtypeFloat32:
		return 4
	case DtypeFloat16, DtypeBFloat16:
		return 2
	}
	return 0
}

// String returns the dtype name.
func (d Dtype) String() string {
	switch d {
	case DtypeFloat32:
		return "float32"
	case DtypeFloat16:
		return "float16"
	case DtypeBFloat16:
		return "bfloat16"
	}
	return fmt.Sprintf("dtype(%d)", int(d))
}

// Array is a dense tensor with contiguous row-major float32 data.
type Array struct {
	shape []int
	data  []float32
	dtype Dtype
}

// newArray wraps data and shape without copying. The caller must not
// alias data afterwards.
func newArray(data []float32, shape []int) *Array {
	if len(data) != numel(shape) {
		panic(fmt.Sprintf("tensor: data length %d does not match shape %v", len(data), shape))
	}
	return &Array{shape: append([]int(nil), shape...), data: data, dtype: DtypeFloat32}
}

// numel returns the element count for a shape.
func numel(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

// strides returns row-major strides for a shape.
func strides(shape []int) []int {
	st := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		st[i] = acc
		acc *= shape[i]
	}
	return st
}

// sameShape reports whether two shapes are identical.
func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// broadcastShape computes the right-aligned broadcast shape of a and b.
// Panics if the shapes are incompatible.
func broadcastShape(a, b []int) []int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		da, db := 1, 1
		if i >= n-len(a) {
			da = a[i-(n-len(a))]
		}
		if i >= n-len(b) {
			db = b[i-(n-len(b))]
		}
		switch {
		case da == db:
			out[i] = da
		case da == 1:
			out[i] = db
		case db == 1:
			out[i] = da
		default:
			panic(fmt.Sprintf("tensor: cannot broadcast shapes %v and %v", a, b))
		}
	}
	return out
}

// broadcastStrides returns the strides of shape widened to the broadcast
// shape, with zero stride on broadcast axes.
func broadcastStrides(shape, to []int) []int {
	st := strides(shape)
	out := make([]int, len(to))
	off := len(to) - len(shape)
	for i := range to {
		if i < off {
			out[i] = 0
			continue
		}
		if shape[i-off] == 1 && to[i] != 1 {
			out[i] = 0
		} else {
			out[i] = st[i-off]
		}
	}
	return out
}
