package embedding

import "math"

// Similarity returns the cosine similarity of a and b in [-1, 1].
// It is 0 when either vector has zero norm or the dimensions differ.
func Similarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / math.Sqrt(normA*normB)
	// Rounding can push identical vectors a hair past 1.
	return math.Max(-1, math.Min(1, sim))
}
