// tensor_props.go - Array Eigenschaften und Datenzugriff
//
// Enthaelt:
// - Array Eigenschaften (Ndim, Size, Shape, Dim, Dtype, Nbytes)
// - Datenzugriff (Data, Item, Bytes)
// - String Repraesentation

package tensor

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"
)

// Ndim returns the number of dimensions.
func (a *Array) Ndim() int {
	return len(a.shape)
}

// Size returns the total number of elements.
func (a *Array) Size() int {
	return len(a.data)
}

// Dim returns the size of a dimension. Negative axes count from the end.
func (a *Array) Dim(axis int) int {
	if axis < 0 {
		axis += len(a.shape)
	}
	return a.shape[axis]
}

// Shape returns a copy of the shape.
func (a *Array) Shape() []int {
	return append([]int(nil), a.shape...)
}

// Dtype returns the logical data type.
func (a *Array) Dtype() Dtype {
	return a.dtype
}

// Nbytes returns the encoded size in bytes.
func (a *Array) Nbytes() int64 {
	return int64(a.Size()) * a.dtype.ItemSize()
}

// Data copies the float32 data out of the array.
func (a *Array) Data() []float32 {
	out := make([]float32, len(a.data))
	copy(out, a.data)
	return out
}

// Item returns the scalar value from a single-element array.
func (a *Array) Item() float32 {
	if len(a.data) != 1 {
		panic(fmt.Sprintf("tensor: Item on array of size %d", len(a.data)))
	}
	return a.data[0]
}

// Bytes encodes the array into little-endian bytes according to its dtype.
func (a *Array) Bytes() []byte {
	switch a.dtype {
	case DtypeFloat32:
		out := make([]byte, len(a.data)*4)
		for i, v := range a.data {
			binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
		}
		return out
	case DtypeFloat16:
		out := make([]byte, len(a.data)*2)
		for i, v := range a.data {
			binary.LittleEndian.PutUint16(out[i*2:], float16.Fromfloat32(v).Bits())
		}
		return out
	case DtypeBFloat16:
		return bfloat16.EncodeFloat32(a.data)
	}
	panic(fmt.Sprintf("tensor: unsupported dtype %s", a.dtype))
}

// String returns a short representation; small arrays include their data.
func (a *Array) String() string {
	if a.Size() <= 20 {
		return fmt.Sprintf("Array(shape=%v, data=%v)", a.shape, a.data)
	}
	return fmt.Sprintf("Array(shape=%v, size=%d)", a.shape, a.Size())
}
