package encoding

import "math"

// MaxDistance is the sentinel returned for pairs that cannot be compared.
// Callers exclude invalid pairs with an ordinary numeric comparison instead
// of handling a separate error path.
const MaxDistance = math.MaxFloat64

// EuclideanDistance computes the Euclidean distance between two encodings.
// Mismatched lengths, empty vectors, or non-finite components yield
// MaxDistance. With unit-normalized inputs the practical range is [0, 2].
func EuclideanDistance(a, b FaceEncoding) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return MaxDistance
	}

	var sum float64
	for i := range a {
		x := float64(a[i])
		y := float64(b[i])
		if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(y) || math.IsInf(y, 0) {
			return MaxDistance
		}
		d := x - y
		sum += d * d
	}
	return math.Sqrt(sum)
}
