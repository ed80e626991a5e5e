package service

// Distribution evaluates the probability of drawing successes from a deck.
// Arguments follow the (k, N, K, n) convention: k successes observed, N cards in
// the population, K successes in the population, n cards drawn.
type Distribution interface {
	Name() string
	// PMF returns P(X = k). Outside the valid domain it returns exactly 0.
	PMF(k, populationSize, successesInPopulation, sampleSize int) float64
	// Survival returns P(X > thresholdExclusive) computed as 1 - CDF.
	Survival(thresholdExclusive, populationSize, successesInPopulation, sampleSize int) float64
}
