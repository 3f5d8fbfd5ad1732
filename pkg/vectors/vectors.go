// Package vectors provides small utilities for embedding vectors.
package vectors

import "math"

// NormalizeL2 normalizes a vector to unit length in place. Zero vectors are
// left untouched.
func NormalizeL2(vector []float32) {
	var sumSquares float64

	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}

	if sumSquares == 0 {
		return
	}

	magnitude := math.Sqrt(sumSquares)

	for i := range vector {
		vector[i] = float32(float64(vector[i]) / magnitude)
	}
}

// IsZero reports whether the vector is nil, empty, or all zeros. A zero
// vector is semantically "not usefully embedded" and must be treated the
// same as a missing one by every consumer.
func IsZero(vector []float32) bool {
	for _, v := range vector {
		if v != 0 {
			return false
		}
	}

	return true
}
