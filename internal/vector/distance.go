package vector

import (
	"math"

	"github.com/warrendb/warrendb/internal/catalog"
)

// Distance computes a and b's separation under kind (spec §4.7
// "distance kind"). a and b must be the same length; callers
// (Insert/Search) only ever compare vectors already validated against
// the index's declared Dimension.
func Distance(kind catalog.VectorDistance, a, b []float64) float64 {
	switch kind {
	case catalog.DistanceCosine:
		return cosineDistance(a, b)
	case catalog.DistanceManhattan:
		return manhattanDistance(a, b)
	case catalog.DistanceHamming:
		return hammingDistance(a, b)
	default:
		return euclideanDistance(a, b)
	}
}

func euclideanDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

func manhattanDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		if d < 0 {
			d = -d
		}
		sum += d
	}
	return sum
}

// cosineDistance is 1 - cosine similarity, so 0 means identical
// direction the same way euclideanDistance's 0 means identical point.
func cosineDistance(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

// hammingDistance counts differing components, treating each as a
// bucketed symbol rather than requiring a binary vector.
func hammingDistance(a, b []float64) float64 {
	var diff float64
	for i := range a {
		if a[i] != b[i] {
			diff++
		}
	}
	return diff
}
