// tensor_create.go - Array Erstellung
//
// Enthaelt:
// - NewArray, NewScalarArray
// - Zeros, ZerosLike, Ones, Full
// - Arange, Linspace
// - NewArrayFromBytes

package tensor

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"
)

// NewArray creates a new array from float32 data. The data is copied.
func NewArray(data []float32, shape ...int) *Array {
	if len(data) != numel(shape) {
		panic(fmt.Sprintf("tensor: data length %d does not match shape %v", len(data), shape))
	}
	d := make([]float32, len(data))
	copy(d, data)
	return newArray(d, shape)
}

// NewScalarArray creates a 0-dimensional scalar array from a float32 value.
func NewScalarArray(value float32) *Array {
	return newArray([]float32{value}, nil)
}

// Zeros creates an array of zeros.
func Zeros(shape ...int) *Array {
	return newArray(make([]float32, numel(shape)), shape)
}

// ZerosLike creates a zeros array with the same shape and dtype as a.
func ZerosLike(a *Array) *Array {
	out := Zeros(a.shape...)
	out.dtype = a.dtype
	return out
}

// Ones creates an array of ones.
func Ones(shape ...int) *Array {
	return Full(1.0, shape...)
}

// Full creates an array filled with a value.
func Full(value float32, shape ...int) *Array {
	d := make([]float32, numel(shape))
	for i := range d {
		d[i] = value
	}
	return newArray(d, shape)
}

// Arange creates a range of values [start, stop) with the given step.
func Arange(start, stop, step float32) *Array {
	if step == 0 {
		panic("tensor: Arange step must be non-zero")
	}
	n := int(math.Ceil(float64((stop - start) / step)))
	if n < 0 {
		n = 0
	}
	d := make([]float32, n)
	for i := range d {
		d[i] = start + float32(i)*step
	}
	return newArray(d, []int{n})
}

// Linspace creates steps evenly spaced values from start to stop inclusive.
func Linspace(start, stop float32, steps int) *Array {
	d := make([]float32, steps)
	if steps == 1 {
		d[0] = start
	} else {
		delta := (stop - start) / float32(steps-1)
		for i := range d {
			d[i] = start + float32(i)*delta
		}
	}
	return newArray(d, []int{steps})
}

// NewArrayFromBytes creates an array from raw little-endian bytes with the
// given dtype. Half-precision encodings are widened to float32 in memory;
// the array keeps the dtype so Bytes round-trips.
func NewArrayFromBytes(data []byte, shape []int, dtype Dtype) *Array {
	n := numel(shape)
	if int64(len(data)) != int64(n)*dtype.ItemSize() {
		panic(fmt.Sprintf("tensor: byte length %d does not match shape %v dtype %s", len(data), shape, dtype))
	}
	d := make([]float32, n)
	switch dtype {
	case DtypeFloat32:
		for i := 0; i < n; i++ {
			d[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		}
	case DtypeFloat16:
		for i := 0; i < n; i++ {
			d[i] = float16.Frombits(binary.LittleEndian.Uint16(data[i*2:])).Float32()
		}
	case DtypeBFloat16:
		copy(d, bfloat16.DecodeFloat32(data))
	default:
		panic(fmt.Sprintf("tensor: unsupported dtype %s", dtype))
	}
	out := newArray(d, shape)
	out.dtype = dtype
	return out
}
