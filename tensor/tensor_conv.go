// tensor_conv.go - Convolution Operationen
//
// Enthaelt:
// - Conv2d (gruppiert, strided, gepolstert)
// - ConvTranspose2d (gruppiert)
//
// Direkte Schleifen-Implementierung; Parallelisierung ueber
// (Batch, Output-Kanal) Paare.

package tensor

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Conv2d performs 2D cross-correlation.
// x: [N, Cin, H, W], weight: [O, Cin/groups, kH, kW].
// Returns [N, O, H', W'] with H' = (H + 2*padH - kH)/strideH + 1.
func Conv2d(x, weight *Array, strideH, strideW, padH, padW, groups int) *Array {
	if x.Ndim() != 4 || weight.Ndim() != 4 {
		panic(fmt.Sprintf("tensor: Conv2d needs 4D input and weight, got %v and %v", x.shape, weight.shape))
	}
	n, cin, h, w := x.shape[0], x.shape[1], x.shape[2], x.shape[3]
	o, cinG, kh, kw := weight.shape[0], weight.shape[1], weight.shape[2], weight.shape[3]
	if groups < 1 || cin%groups != 0 || o%groups != 0 || cinG != cin/groups {
		panic(fmt.Sprintf("tensor: Conv2d groups=%d incompatible with Cin=%d weight %v", groups, cin, weight.shape))
	}
	oh := (h+2*padH-kh)/strideH + 1
	ow := (w+2*padW-kw)/strideW + 1
	if oh <= 0 || ow <= 0 {
		panic(fmt.Sprintf("tensor: Conv2d output would be empty for input %v weight %v", x.shape, weight.shape))
	}

	out := make([]float32, n*o*oh*ow)
	oPerG := o / groups

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for ni := 0; ni < n; ni++ {
		for oc := 0; oc < o; oc++ {
			ni, oc := ni, oc
			g.Go(func() error {
				grp := oc / oPerG
				dst := out[(ni*o+oc)*oh*ow:]
				for ci := 0; ci < cinG; ci++ {
					src := x.data[(ni*cin+grp*cinG+ci)*h*w:]
					ker := weight.data[((oc*cinG)+ci)*kh*kw:]
					for oy := 0; oy < oh; oy++ {
						iy0 := oy*strideH - padH
						for ox := 0; ox < ow; ox++ {
							ix0 := ox*strideW - padW
							var acc float32
							for ky := 0; ky < kh; ky++ {
								iy := iy0 + ky
								if iy < 0 || iy >= h {
									continue
								}
								row := src[iy*w:]
								krow := ker[ky*kw:]
								for kx := 0; kx < kw; kx++ {
									ix := ix0 + kx
									if ix < 0 || ix >= w {
										continue
									}
									acc += row[ix] * krow[kx]
								}
							}
							dst[oy*ow+ox] += acc
						}
					}
				}
				return nil
			})
		}
	}
	g.Wait()

	return newArray(out, []int{n, o, oh, ow})
}

// ConvTranspose2d performs transposed 2D convolution.
// x: [N, Cin, H, W], weight: [Cin, O/groups, kH, kW].
// Returns [N, O, H', W'] with H' = (H-1)*strideH - 2*padH + kH.
func ConvTranspose2d(x, weight *Array, strideH, strideW, padH, padW, groups int) *Array {
	if x.Ndim() != 4 || weight.Ndim() != 4 {
		panic(fmt.Sprintf("tensor: ConvTranspose2d needs 4D input and weight, got %v and %v", x.shape, weight.shape))
	}
	n, cin, h, w := x.shape[0], x.shape[1], x.shape[2], x.shape[3]
	cinW, oPerG, kh, kw := weight.shape[0], weight.shape[1], weight.shape[2], weight.shape[3]
	if groups < 1 || cin%groups != 0 || cinW != cin {
		panic(fmt.Sprintf("tensor: ConvTranspose2d groups=%d incompatible with Cin=%d weight %v", groups, cin, weight.shape))
	}
	o := oPerG * groups
	cinG := cin / groups
	oh := (h-1)*strideH - 2*padH + kh
	ow := (w-1)*strideW - 2*padW + kw
	if oh <= 0 || ow <= 0 {
		panic(fmt.Sprintf("tensor: ConvTranspose2d output would be empty for input %v weight %v", x.shape, weight.shape))
	}

	out := make([]float32, n*o*oh*ow)

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for ni := 0; ni < n; ni++ {
		for oc := 0; oc < o; oc++ {
			ni, oc := ni, oc
			g.Go(func() error {
				grp := oc / oPerG
				oj := oc % oPerG
				dst := out[(ni*o+oc)*oh*ow:]
				for ci := 0; ci < cinG; ci++ {
					src := x.data[(ni*cin+grp*cinG+ci)*h*w:]
					ker := weight.data[((grp*cinG+ci)*oPerG+oj)*kh*kw:]
					for iy := 0; iy < h; iy++ {
						for ix := 0; ix < w; ix++ {
							v := src[iy*w+ix]
							if v == 0 {
								continue
							}
							for ky := 0; ky < kh; ky++ {
								oy := iy*strideH - padH + ky
								if oy < 0 || oy >= oh {
									continue
								}
								for kx := 0; kx < kw; kx++ {
									ox := ix*strideW - padW + kx
									if ox < 0 || ox >= ow {
										continue
									}
									dst[oy*ow+ox] += v * ker[ky*kw+kx]
								}
							}
						}
					}
				}
				return nil
			})
		}
	}
	g.Wait()

	return newArray(out, []int{n, o, oh, ow})
}
