package vectorindex

import (
	"fmt"
	"math"
	"strings"

	"docsearch/internal/domain"
)

// Metric returns the distance between two vectors of equal width. Lower
// values mean nearer.
type Metric func(a, b []float32) float64

// SquaredL2 is the squared Euclidean distance.
func SquaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

// CosineDistance is 1 minus the cosine similarity. A zero vector is at
// distance 1 from everything.
func CosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

// NegativeInnerProduct ranks by descending dot product.
func NegativeInnerProduct(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return -dot
}

// MetricByName resolves "l2", "cosine" or "ip".
func MetricByName(name string) (Metric, error) {
	switch strings.ToLower(name) {
	case "", "l2", "squared_l2", "euclidean":
		return SquaredL2, nil
	case "cosine":
		return CosineDistance, nil
	case "ip", "inner_product", "dot":
		return NegativeInnerProduct, nil
	default:
		return nil, fmt.Errorf("%w: unknown distance metric: %s", domain.ErrConfiguration, name)
	}
}
