// tensor_dtype.go - Praezisions-Rundung fuer Half-Precision Typen

package tensor

import (
	"github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"
)

// f16Round rounds through IEEE 754 half precision.
func f16Round(x float32) float32 {
	return float16.Fromfloat32(x).Float32()
}

// bf16Round rounds through bfloat16 precision.
func bf16Round(x float32) float32 {
	return bfloat16.ToFloat32(bfloat16.FromFloat32(x))
}
