// tensor_math.go - Mathematische Operationen
//
// Enthaelt:
// - Elementweise Operationen (Add, Sub, Mul, Div, Sqrt, Exp, etc.)
// - Scalar Operationen (AddScalar, MulScalar, DivScalar)
// - Matmul, LeakyReLU
// - AsType

package tensor

import (
	"fmt"

	"github.com/chewxy/math32"
)

// binaryOp applies fn element-wise with right-aligned broadcasting.
func binaryOp(a, b *Array, fn func(x, y float32) float32) *Array {
	if sameShape(a.shape, b.shape) {
		out := make([]float32, len(a.data))
		for i := range out {
			out[i] = fn(a.data[i], b.data[i])
		}
		return newArray(out, a.shape)
	}

	shape := broadcastShape(a.shape, b.shape)
	sa := broadcastStrides(a.shape, shape)
	sb := broadcastStrides(b.shape, shape)
	out := make([]float32, numel(shape))

	idx := make([]int, len(shape))
	ia, ib := 0, 0
	for i := range out {
		out[i] = fn(a.data[ia], b.data[ib])
		for d := len(shape) - 1; d >= 0; d-- {
			idx[d]++
			ia += sa[d]
			ib += sb[d]
			if idx[d] < shape[d] {
				break
			}
			idx[d] = 0
			ia -= sa[d] * shape[d]
			ib -= sb[d] * shape[d]
		}
	}
	return newArray(out, shape)
}

// unaryOp applies fn element-wise.
func unaryOp(a *Array, fn func(x float32) float32) *Array {
	out := make([]float32, len(a.data))
	for i, v := range a.data {
		out[i] = fn(v)
	}
	return newArray(out, a.shape)
}

// Add adds two arrays element-wise.
func Add(a, b *Array) *Array {
	return binaryOp(a, b, func(x, y float32) float32 { return x + y })
}

// Sub subtracts two arrays element-wise.
func Sub(a, b *Array) *Array {
	return binaryOp(a, b, func(x, y float32) float32 { return x - y })
}

// Mul multiplies two arrays element-wise.
func Mul(a, b *Array) *Array {
	return binaryOp(a, b, func(x, y float32) float32 { return x * y })
}

// Div divides two arrays element-wise.
func Div(a, b *Array) *Array {
	return binaryOp(a, b, func(x, y float32) float32 { return x / y })
}

// Max computes the element-wise maximum.
func Max(a, b *Array) *Array {
	return binaryOp(a, b, math32.Max)
}

// Min computes the element-wise minimum.
func Min(a, b *Array) *Array {
	return binaryOp(a, b, math32.Min)
}

// AddScalar adds a scalar to an array.
func AddScalar(a *Array, s float32) *Array {
	return unaryOp(a, func(x float32) float32 { return x + s })
}

// MulScalar multiplies an array by a scalar.
func MulScalar(a *Array, s float32) *Array {
	return unaryOp(a, func(x float32) float32 { return x * s })
}

// DivScalar divides an array by a scalar.
func DivScalar(a *Array, s float32) *Array {
	return unaryOp(a, func(x float32) float32 { return x / s })
}

// Sqrt computes the element-wise square root.
func Sqrt(a *Array) *Array {
	return unaryOp(a, math32.Sqrt)
}

// RSqrt computes the element-wise reciprocal square root.
func RSqrt(a *Array) *Array {
	return unaryOp(a, func(x float32) float32 { return 1 / math32.Sqrt(x) })
}

// Square computes the element-wise square.
func Square(a *Array) *Array {
	return unaryOp(a, func(x float32) float32 { return x * x })
}

// Exp computes the element-wise exponential.
func Exp(a *Array) *Array {
	return unaryOp(a, math32.Exp)
}

// Log computes the element-wise natural logarithm.
func Log(a *Array) *Array {
	return unaryOp(a, math32.Log)
}

// Neg negates the array.
func Neg(a *Array) *Array {
	return unaryOp(a, func(x float32) float32 { return -x })
}

// Abs computes the element-wise absolute value.
func Abs(a *Array) *Array {
	return unaryOp(a, math32.Abs)
}

// LeakyReLU applies max(x, negSlope*x) element-wise.
func LeakyReLU(a *Array, negSlope float32) *Array {
	return unaryOp(a, func(x float32) float32 {
		if x < 0 {
			return negSlope * x
		}
		return x
	})
}

// Clip clips values to [minVal, maxVal].
func Clip(a *Array, minVal, maxVal float32) *Array {
	return unaryOp(a, func(x float32) float32 {
		if x < minVal {
			return minVal
		}
		if x > maxVal {
			return maxVal
		}
		return x
	})
}

// Matmul performs 2D matrix multiplication: [m,k] x [k,n] -> [m,n].
func Matmul(a, b *Array) *Array {
	if a.Ndim() != 2 || b.Ndim() != 2 {
		panic(fmt.Sprintf("tensor: Matmul needs 2D arrays, got %v and %v", a.shape, b.shape))
	}
	m, k := a.shape[0], a.shape[1]
	k2, n := b.shape[0], b.shape[1]
	if k != k2 {
		panic(fmt.Sprintf("tensor: Matmul inner dims mismatch: %v x %v", a.shape, b.shape))
	}
	out := make([]float32, m*n)
	for i := 0; i < m; i++ {
		arow := a.data[i*k : (i+1)*k]
		orow := out[i*n : (i+1)*n]
		for p := 0; p < k; p++ {
			av := arow[p]
			if av == 0 {
				continue
			}
			brow := b.data[p*n : (p+1)*n]
			for j := 0; j < n; j++ {
				orow[j] += av * brow[j]
			}
		}
	}
	return newArray(out, []int{m, n})
}

// Linear performs matrix multiplication: a @ weight.
func Linear(a, weight *Array) *Array { return Matmul(a, weight) }

// AsType rounds the array through the precision of dtype. The returned
// array carries the dtype so Bytes encodes it accordingly.
func AsType(a *Array, dtype Dtype) *Array {
	out := unaryOp(a, roundTo(dtype))
	out.dtype = dtype
	return out
}

func roundTo(dtype Dtype) func(float32) float32 {
	switch dtype {
	case DtypeFloat32:
		return func(x float32) float32 { return x }
	case DtypeFloat16:
		return func(x float32) float32 { return f16Round(x) }
	case DtypeBFloat16:
		return func(x float32) float32 { return bf16Round(x) }
	}
	panic(fmt.Sprintf("tensor: unsupported dtype %s", dtype))
}
