package distribution

import (
	"math"

	"PerfectRatio/internal/domain/models"
	domsvc "PerfectRatio/internal/domain/service"
)

// Binomial approximates each draw as an independent trial with p = K/N.
// It is kept for comparison with earlier results; it is not exact for a finite deck.
type Binomial struct{}

// NewBinomial returns the binomial approximation.
func NewBinomial() *Binomial { return &Binomial{} }

func (Binomial) Name() string { return string(models.ModelBinomial) }

// PMF returns C(n,k)*p^k*(1-p)^(n-k).
func (Binomial) PMF(k, populationSize, successesInPopulation, sampleSize int) float64 {
	if !validDomain(populationSize, successesInPopulation, sampleSize) {
		return 0
	}
	// Trials are independent, so k may exceed K; the support is 0..n.
	if k < 0 || k > sampleSize {
		return 0
	}
	p := float64(successesInPopulation) / float64(populationSize)
	return clamp(Combination(sampleSize, k) * math.Pow(p, float64(k)) * math.Pow(1-p, float64(sampleSize-k)))
}

// Survival returns P(X > thresholdExclusive).
func (b Binomial) Survival(thresholdExclusive, populationSize, successesInPopulation, sampleSize int) float64 {
	if !validDomain(populationSize, successesInPopulation, sampleSize) {
		return 0
	}
	return survival(thresholdExclusive, sampleSize, func(k int) float64 {
		return b.PMF(k, populationSize, successesInPopulation, sampleSize)
	})
}

var _ domsvc.Distribution = (*Binomial)(nil)
