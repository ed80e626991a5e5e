package distribution

import (
	"PerfectRatio/internal/domain/models"
	domsvc "PerfectRatio/internal/domain/service"
)

// Hypergeometric models drawing without replacement from a finite deck.
type Hypergeometric struct{}

// NewHypergeometric returns the hypergeometric distribution.
func NewHypergeometric() *Hypergeometric { return &Hypergeometric{} }

func (Hypergeometric) Name() string { return string(models.ModelHypergeometric) }

// PMF returns C(K,k)*C(N-K,n-k)/C(N,n).
func (Hypergeometric) PMF(k, populationSize, successesInPopulation, sampleSize int) float64 {
	if !validDomain(populationSize, successesInPopulation, sampleSize) {
		return 0
	}
	if k < 0 || k > min(sampleSize, successesInPopulation) {
		return 0
	}
	num := Combination(successesInPopulation, k) * Combination(populationSize-successesInPopulation, sampleSize-k)
	if num == 0 {
		return 0
	}
	return clamp(num / Combination(populationSize, sampleSize))
}

// Survival returns P(X > thresholdExclusive).
func (h Hypergeometric) Survival(thresholdExclusive, populationSize, successesInPopulation, sampleSize int) float64 {
	if !validDomain(populationSize, successesInPopulation, sampleSize) {
		return 0
	}
	maxK := min(sampleSize, successesInPopulation)
	return survival(thresholdExclusive, maxK, func(k int) float64 {
		return h.PMF(k, populationSize, successesInPopulation, sampleSize)
	})
}

var _ domsvc.Distribution = (*Hypergeometric)(nil)
