package core

import "math"

// Norm returns the Euclidean length of v.
func Norm(v []float32) float32 {
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	return float32(math.Sqrt(float64(sum)))
}

// Normalize returns a unit-length copy of v.
// A zero vector cannot be normalized and is returned as a zero copy
// rather than raising a division error.
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	n := Norm(v)
	if n == 0 {
		return out
	}
	for i, x := range v {
		out[i] = x / n
	}
	return out
}

// Dot returns the inner product of a and b.
// Both vectors must have the same length.
func Dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Mean returns the unconditional arithmetic mean of the given vectors.
// Returns nil for an empty input.
func Mean(vecs [][]float32) []float32 {
	if len(vecs) == 0 {
		return nil
	}
	out := make([]float32, len(vecs[0]))
	for _, v := range vecs {
		for i, x := range v {
			out[i] += x
		}
	}
	n := float32(len(vecs))
	for i := range out {
		out[i] /= n
	}
	return out
}

// Mix returns w*a + (1-w)*b.
// This is both the offline alpha-mix (w = alpha on the rating vector) and
// the online exponential fusion step (w = beta on the previous vector).
// Both vectors must have the same length.
func Mix(a, b []float32, w float32) []float32 {
	out := make([]float32, len(a))
	for i := range a {
		out[i] = w*a[i] + (1-w)*b[i]
	}
	return out
}
