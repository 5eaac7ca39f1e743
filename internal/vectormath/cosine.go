package vectormath

import (
	"fmt"
	"math"
)

func dot(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectors must have the same dimension (%d != %d)", len(a), len(b))
	}
	var product float32
	for i := range a {
		product += a[i] * b[i]
	}
	return product, nil
}

// magnitude calculates the L2 norm of a vector.
func magnitude(vec []float32) float32 {
	var sumOfSquares float32
	for _, v := range vec {
		sumOfSquares += v * v
	}
	return float32(math.Sqrt(float64(sumOfSquares)))
}

// CosineSimilarity returns the cosine similarity between two vectors.
// A zero-magnitude vector yields a similarity of 0 rather than an error.
func CosineSimilarity(a, b []float32) (float32, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, fmt.Errorf("vectors cannot be empty")
	}
	product, err := dot(a, b)
	if err != nil {
		return 0, err
	}

	magA := magnitude(a)
	magB := magnitude(b)
	if magA == 0 || magB == 0 {
		return 0, nil
	}

	return product / (magA * magB), nil
}
