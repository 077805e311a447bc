// tensor_random.go - Zufallszahlen und PRNG
//
// Enthaelt:
// - RandomNormal, RandomUniform (mit explizitem Seed)
// - RandN (einfache API, prozessweiter Seed-Zaehler)
// - Seed fuer reproduzierbare Tests

package tensor

import (
	"math/rand"
	"sync/atomic"
	"time"
)

// Global random seed counter for RandN.
var randnSeedCounter uint64 = uint64(time.Now().UnixNano())

// Seed resets the process-wide seed counter. Tests use this to make the
// RandN sequence reproducible; pre-supplied noise tensors are preferred.
func Seed(seed uint64) {
	atomic.StoreUint64(&randnSeedCounter, seed)
}

// RandomNormal creates a standard-normal random array from a seed.
func RandomNormal(shape []int, seed uint64) *Array {
	rng := rand.New(rand.NewSource(int64(seed)))
	d := make([]float32, numel(shape))
	for i := range d {
		d[i] = float32(rng.NormFloat64())
	}
	return newArray(d, shape)
}

// RandomUniform generates uniform random values in [0, 1) from a seed.
func RandomUniform(shape []int, seed uint64) *Array {
	rng := rand.New(rand.NewSource(int64(seed)))
	d := make([]float32, numel(shape))
	for i := range d {
		d[i] = rng.Float32()
	}
	return newArray(d, shape)
}

// RandN creates an array of samples from a standard normal distribution.
func RandN(shape ...int) *Array {
	// Use incrementing seed for unique random values each call
	seed := atomic.AddUint64(&randnSeedCounter, 1)
	return RandomNormal(shape, seed)
}

// RandIntn returns a uniform random int in [lo, hi) from the process-wide
// counter. Used for the style-mixing cut index.
func RandIntn(lo, hi int) int {
	seed := atomic.AddUint64(&randnSeedCounter, 1)
	rng := rand.New(rand.NewSource(int64(seed)))
	return lo + rng.Intn(hi-lo)
}
