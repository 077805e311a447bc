// tensor_reduce.go - Reduktionen und Shape-Operationen
//
// Enthaelt:
// - Reduktionen (Sum, Mean, Var, jeweils pro Achse und global)
// - Shape-Operationen (Reshape, Transpose, ExpandDims, Squeeze, Flatten)
// - Concatenation, Tile, BroadcastTo, Slice, Chunk, Pad, AvgPool2d

package tensor

import "fmt"

// normAxis resolves a possibly negative axis for ndim dimensions.
func normAxis(axis, ndim int) int {
	if axis < 0 {
		axis += ndim
	}
	if axis < 0 || axis >= ndim {
		panic(fmt.Sprintf("tensor: axis %d out of range for %d dims", axis, ndim))
	}
	return axis
}

// reduceAxis folds fn over one axis and divides by div (1 for Sum).
func reduceAxis(a *Array, axis int, keepdims bool, fn func(acc, v float32) float32, init float32, div float32) *Array {
	axis = normAxis(axis, a.Ndim())
	outer, n, inner := 1, a.shape[axis], 1
	for i := 0; i < axis; i++ {
		outer *= a.shape[i]
	}
	for i := axis + 1; i < len(a.shape); i++ {
		inner *= a.shape[i]
	}

	out := make([]float32, outer*inner)
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			acc := init
			for i := 0; i < n; i++ {
				acc = fn(acc, a.data[(o*n+i)*inner+in])
			}
			out[o*inner+in] = acc / div
		}
	}

	shape := make([]int, 0, len(a.shape))
	for i, s := range a.shape {
		if i == axis {
			if keepdims {
				shape = append(shape, 1)
			}
			continue
		}
		shape = append(shape, s)
	}
	return newArray(out, shape)
}

// Sum reduces along an axis.
func Sum(a *Array, axis int, keepdims bool) *Array {
	return reduceAxis(a, axis, keepdims, func(acc, v float32) float32 { return acc + v }, 0, 1)
}

// SumAll reduces the entire array to a scalar.
func SumAll(a *Array) *Array {
	var acc float32
	for _, v := range a.data {
		acc += v
	}
	return NewScalarArray(acc)
}

// Mean reduces along an axis.
func Mean(a *Array, axis int, keepdims bool) *Array {
	axis = normAxis(axis, a.Ndim())
	return reduceAxis(a, axis, keepdims, func(acc, v float32) float32 { return acc + v }, 0, float32(a.shape[axis]))
}

// MeanAll reduces the entire array to a scalar.
func MeanAll(a *Array) *Array {
	return NewScalarArray(SumAll(a).Item() / float32(a.Size()))
}

// Var computes the population variance along an axis.
func Var(a *Array, axis int, keepdims bool) *Array {
	m := Mean(a, axis, true)
	d := Sub(a, m)
	return Mean(Mul(d, d), axis, keepdims)
}

// Reshape reshapes the array. One dimension may be -1 and is inferred.
func Reshape(a *Array, shape ...int) *Array {
	shape = append([]int(nil), shape...)
	infer := -1
	known := 1
	for i, s := range shape {
		if s == -1 {
			if infer >= 0 {
				panic("tensor: Reshape with more than one -1")
			}
			infer = i
		} else {
			known *= s
		}
	}
	if infer >= 0 {
		if known == 0 || a.Size()%known != 0 {
			panic(fmt.Sprintf("tensor: cannot infer Reshape %v from size %d", shape, a.Size()))
		}
		shape[infer] = a.Size() / known
	}
	if numel(shape) != a.Size() {
		panic(fmt.Sprintf("tensor: Reshape %v incompatible with size %d", shape, a.Size()))
	}
	out := make([]float32, a.Size())
	copy(out, a.data)
	res := newArray(out, shape)
	res.dtype = a.dtype
	return res
}

// Transpose permutes the dimensions.
func Transpose(a *Array, axes ...int) *Array {
	if len(axes) != a.Ndim() {
		panic(fmt.Sprintf("tensor: Transpose axes %v for %d dims", axes, a.Ndim()))
	}
	shape := make([]int, len(axes))
	for i, ax := range axes {
		shape[i] = a.shape[normAxis(ax, a.Ndim())]
	}
	src := strides(a.shape)
	perm := make([]int, len(axes))
	for i, ax := range axes {
		perm[i] = src[normAxis(ax, a.Ndim())]
	}

	out := make([]float32, a.Size())
	idx := make([]int, len(shape))
	off := 0
	for i := range out {
		out[i] = a.data[off]
		for d := len(shape) - 1; d >= 0; d-- {
			idx[d]++
			off += perm[d]
			if idx[d] < shape[d] {
				break
			}
			idx[d] = 0
			off -= perm[d] * shape[d]
		}
	}
	return newArray(out, shape)
}

// ExpandDims adds a dimension of size one at the specified axis.
func ExpandDims(a *Array, axis int) *Array {
	if axis < 0 {
		axis += a.Ndim() + 1
	}
	shape := make([]int, 0, a.Ndim()+1)
	shape = append(shape, a.shape[:axis]...)
	shape = append(shape, 1)
	shape = append(shape, a.shape[axis:]...)
	return Reshape(a, shape...)
}

// Squeeze removes a dimension of size one at the specified axis.
func Squeeze(a *Array, axis int) *Array {
	axis = normAxis(axis, a.Ndim())
	if a.shape[axis] != 1 {
		panic(fmt.Sprintf("tensor: Squeeze axis %d of shape %v is not 1", axis, a.shape))
	}
	shape := make([]int, 0, a.Ndim()-1)
	shape = append(shape, a.shape[:axis]...)
	shape = append(shape, a.shape[axis+1:]...)
	return Reshape(a, shape...)
}

// Flatten flattens the array to 1D.
func Flatten(a *Array) *Array {
	return Reshape(a, a.Size())
}

// Concatenate concatenates arrays along an axis.
func Concatenate(arrs []*Array, axis int) *Array {
	if len(arrs) == 0 {
		panic("tensor: Concatenate of no arrays")
	}
	axis = normAxis(axis, arrs[0].Ndim())
	outShape := arrs[0].Shape()
	outShape[axis] = 0
	for _, arr := range arrs {
		for d, s := range arr.shape {
			if d != axis && s != arrs[0].shape[d] {
				panic(fmt.Sprintf("tensor: Concatenate shape mismatch %v vs %v", arrs[0].shape, arr.shape))
			}
		}
		outShape[axis] += arr.shape[axis]
	}

	outer := 1
	for i := 0; i < axis; i++ {
		outer *= outShape[i]
	}
	inner := 1
	for i := axis + 1; i < len(outShape); i++ {
		inner *= outShape[i]
	}

	out := make([]float32, numel(outShape))
	rowLen := outShape[axis] * inner
	for o := 0; o < outer; o++ {
		off := 0
		for _, arr := range arrs {
			n := arr.shape[axis] * inner
			copy(out[o*rowLen+off:], arr.data[o*n:(o+1)*n])
			off += n
		}
	}
	return newArray(out, outShape)
}

// Concat concatenates two arrays.
func Concat(a, b *Array, axis int) *Array { return Concatenate([]*Array{a, b}, axis) }

// Tile repeats the array along each dimension.
func Tile(a *Array, reps []int) *Array {
	if len(reps) != a.Ndim() {
		panic(fmt.Sprintf("tensor: Tile reps %v for shape %v", reps, a.shape))
	}
	out := a
	for d := a.Ndim() - 1; d >= 0; d-- {
		if reps[d] == 1 {
			continue
		}
		copies := make([]*Array, reps[d])
		for i := range copies {
			copies[i] = out
		}
		out = Concatenate(copies, d)
	}
	return out
}

// BroadcastTo broadcasts an array to a given shape.
func BroadcastTo(a *Array, shape []int) *Array {
	if bs := broadcastShape(a.shape, shape); !sameShape(bs, shape) {
		panic(fmt.Sprintf("tensor: cannot broadcast %v to %v", a.shape, shape))
	}
	st := broadcastStrides(a.shape, shape)
	out := make([]float32, numel(shape))
	idx := make([]int, len(shape))
	off := 0
	for i := range out {
		out[i] = a.data[off]
		for d := len(shape) - 1; d >= 0; d-- {
			idx[d]++
			off += st[d]
			if idx[d] < shape[d] {
				break
			}
			idx[d] = 0
			off -= st[d] * shape[d]
		}
	}
	return newArray(out, shape)
}

// Slice copies the half-open region [starts[d], stops[d]) in every dimension.
func Slice(a *Array, starts, stops []int) *Array {
	if len(starts) != a.Ndim() || len(stops) != a.Ndim() {
		panic(fmt.Sprintf("tensor: Slice bounds rank mismatch for shape %v", a.shape))
	}
	shape := make([]int, a.Ndim())
	for d := range shape {
		if starts[d] < 0 || stops[d] > a.shape[d] || starts[d] >= stops[d] {
			panic(fmt.Sprintf("tensor: Slice bounds [%d,%d) invalid for dim %d of %v", starts[d], stops[d], d, a.shape))
		}
		shape[d] = stops[d] - starts[d]
	}
	src := strides(a.shape)
	base := 0
	for d := range starts {
		base += starts[d] * src[d]
	}

	out := make([]float32, numel(shape))
	idx := make([]int, len(shape))
	off := base
	for i := range out {
		out[i] = a.data[off]
		for d := len(shape) - 1; d >= 0; d-- {
			idx[d]++
			off += src[d]
			if idx[d] < shape[d] {
				break
			}
			idx[d] = 0
			off -= src[d] * shape[d]
		}
	}
	return newArray(out, shape)
}

// Chunk splits the array into n equal parts along an axis.
func Chunk(a *Array, n, axis int) []*Array {
	axis = normAxis(axis, a.Ndim())
	if a.shape[axis]%n != 0 {
		panic(fmt.Sprintf("tensor: Chunk %d does not divide dim %d of %v", n, axis, a.shape))
	}
	step := a.shape[axis] / n
	out := make([]*Array, n)
	starts := make([]int, a.Ndim())
	stops := a.Shape()
	for i := 0; i < n; i++ {
		starts[axis] = i * step
		stops[axis] = (i + 1) * step
		out[i] = Slice(a, starts, stops)
	}
	return out
}

// Pad pads an array with zeros.
// paddings: [before_0, after_0, before_1, after_1, ...] for each dimension.
// Negative paddings crop.
func Pad(a *Array, paddings []int) *Array {
	if len(paddings) != 2*a.Ndim() {
		panic(fmt.Sprintf("tensor: Pad needs %d values, got %d", 2*a.Ndim(), len(paddings)))
	}
	shape := make([]int, a.Ndim())
	for d := range shape {
		shape[d] = a.shape[d] + paddings[2*d] + paddings[2*d+1]
		if shape[d] <= 0 {
			panic(fmt.Sprintf("tensor: Pad %v empties dim %d of %v", paddings, d, a.shape))
		}
	}

	out := make([]float32, numel(shape))
	dst := strides(shape)
	src := strides(a.shape)

	// copy the overlapping region element-row by element-row
	var fill func(d, srcOff, dstOff int)
	fill = func(d, srcOff, dstOff int) {
		lo := 0
		if paddings[2*d] < 0 {
			lo = -paddings[2*d]
		}
		hi := a.shape[d]
		if paddings[2*d+1] < 0 {
			hi += paddings[2*d+1]
		}
		if d == a.Ndim()-1 {
			for i := lo; i < hi; i++ {
				out[dstOff+(i+paddings[2*d])*dst[d]] = a.data[srcOff+i*src[d]]
			}
			return
		}
		for i := lo; i < hi; i++ {
			fill(d+1, srcOff+i*src[d], dstOff+(i+paddings[2*d])*dst[d])
		}
	}
	fill(0, 0, 0)
	return newArray(out, shape)
}

// AvgPool2d performs average pooling with window and stride k on NCHW input.
func AvgPool2d(a *Array, k int) *Array {
	if a.Ndim() != 4 {
		panic(fmt.Sprintf("tensor: AvgPool2d needs NCHW input, got %v", a.shape))
	}
	n, c, h, w := a.shape[0], a.shape[1], a.shape[2], a.shape[3]
	oh, ow := h/k, w/k
	out := make([]float32, n*c*oh*ow)
	norm := float32(k * k)
	for nc := 0; nc < n*c; nc++ {
		plane := a.data[nc*h*w : (nc+1)*h*w]
		for y := 0; y < oh; y++ {
			for x := 0; x < ow; x++ {
				var acc float32
				for ky := 0; ky < k; ky++ {
					for kx := 0; kx < k; kx++ {
						acc += plane[(y*k+ky)*w+(x*k+kx)]
					}
				}
				out[(nc*oh+y)*ow+x] = acc / norm
			}
		}
	}
	return newArray(out, []int{n, c, oh, ow})
}
