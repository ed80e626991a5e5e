package distribution

import "math"

// Combination returns C(n, k) as a float64 using the multiplicative form
// prod_{i=1..k} (n-k+i)/i over the smaller side. After step i the running value
// equals C(n-k+i, i), so it is exact while it fits in 53 bits and never overflows
// the way a factorial quotient does.
// It returns 0 when k < 0 or k > n.
func Combination(n, k int) float64 {
	if k < 0 || n < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	r := 1.0
	for i := 1; i <= k; i++ {
		r = r * float64(n-k+i) / float64(i)
	}
	return r
}

// clamp bounds p to [0, 1]; NaN maps to 0.
func clamp(p float64) float64 {
	switch {
	case math.IsNaN(p), p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}

// validDomain reports whether (N, K, n) describe a drawable deck.
func validDomain(populationSize, successesInPopulation, sampleSize int) bool {
	return populationSize > 0 &&
		successesInPopulation >= 0 && successesInPopulation <= populationSize &&
		sampleSize >= 0 && sampleSize <= populationSize
}

// survival computes 1 - sum_{i=0..t} pmf(i) for a distribution over 0..maxK.
func survival(thresholdExclusive, maxK int, pmf func(k int) float64) float64 {
	if thresholdExclusive >= maxK {
		return 0
	}
	cdf := 0.0
	for i := 0; i <= thresholdExclusive; i++ {
		cdf += pmf(i)
	}
	return clamp(1 - cdf)
}
