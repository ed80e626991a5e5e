package usecase

import (
	"fmt"
	"math"

	"PerfectRatio/internal/domain/models"
	domsvc "PerfectRatio/internal/domain/service"
	"PerfectRatio/internal/services/distribution"
)

// rateEpsilon absorbs floating-point noise when comparing a rate (percent) to the target.
const rateEpsilon = 1e-9

// CurveSolver turns a cost profile into an ink summary and curve series.
// It is pure: no I/O, no logging, no state between calls.
type CurveSolver struct {
	lookup func(models.ProbabilityModel) (domsvc.Distribution, error)
}

// NewCurveSolver creates a solver backed by the distribution registry.
func NewCurveSolver() *CurveSolver {
	return &CurveSolver{lookup: distribution.ForModel}
}

// NewCurveSolverWith creates a solver that always uses d.
func NewCurveSolverWith(d domsvc.Distribution) *CurveSolver {
	return &CurveSolver{lookup: func(models.ProbabilityModel) (domsvc.Distribution, error) { return d, nil }}
}

// Solve computes the result for profile under params.
func (s *CurveSolver) Solve(profile models.CostProfile, params models.CurveParameters) (models.SolveResult, error) {
	if err := profile.Validate(); err != nil {
		return models.SolveResult{}, err
	}
	if err := params.Validate(); err != nil {
		return models.SolveResult{}, err
	}
	dist, err := s.lookup(params.ProbabilityModel)
	if err != nil {
		return models.SolveResult{}, err
	}

	total := profile.TotalCards()
	if total == 0 {
		return models.SolveResult{}, fmt.Errorf("%w: please enter at least one card count", models.ErrEmptyDeck)
	}
	if params.RequiredDeckSize > 0 && total != params.RequiredDeckSize {
		return models.SolveResult{}, fmt.Errorf("%w: deck has %d cards, expected %d", models.ErrDeckSizeMismatch, total, params.RequiredDeckSize)
	}

	avg, err := profile.AverageCost()
	if err != nil {
		return models.SolveResult{}, err
	}
	targetTurn, err := params.TargetTurnRule.Apply(avg)
	if err != nil {
		return models.SolveResult{}, err
	}
	cardsSeen, err := params.DrawConvention.CardsSeen(params.OpeningHandSize, targetTurn)
	if err != nil {
		return models.SolveResult{}, err
	}

	rateAt := func(nonInkables int) float64 {
		return dist.Survival(targetTurn-1, total, total-nonInkables, cardsSeen) * 100
	}

	var nonInkables int
	if params.ManualNonInkables != nil {
		nonInkables = *params.ManualNonInkables
		if nonInkables < 0 || nonInkables > total {
			return models.SolveResult{}, fmt.Errorf("%w: non-inkables must be between 0 and %d, got %d", models.ErrInvalidOverride, total, nonInkables)
		}
	} else {
		nonInkables = maxSatisfying(total, func(n int) bool {
			return rateAt(n) >= params.TargetSuccessRate-rateEpsilon
		})
		if nonInkables < 0 {
			nonInkables = 0
		}
	}

	inkables := total - nonInkables
	rate := rateAt(nonInkables)

	series := make([]models.CurvePoint, 0, models.CurveHorizon)
	for turn := 1; turn <= models.CurveHorizon; turn++ {
		seen, err := params.DrawConvention.CardsSeen(params.OpeningHandSize, turn)
		if err != nil {
			return models.SolveResult{}, err
		}
		p := dist.Survival(turn-1, total, inkables, seen) * 100
		series = append(series, models.CurvePoint{Turn: turn, Probability: roundTo(p, 1)})
	}

	return models.SolveResult{
		TotalCards:        total,
		AverageCost:       avg,
		TargetTurn:        targetTurn,
		CardsSeen:         cardsSeen,
		InkablesInDeck:    inkables,
		NonInkablesInDeck: nonInkables,
		SuccessRate:       rate,
		TargetMet:         rate >= params.TargetSuccessRate-rateEpsilon,
		Model:             models.ProbabilityModel(dist.Name()),
		CurveSeries:       series,
	}, nil
}

// maxSatisfying returns the largest n in [0, hi] with ok(n), assuming ok is
// true on a prefix of the range. It returns -1 when ok(0) is false.
func maxSatisfying(hi int, ok func(int) bool) int {
	lo, best := 0, -1
	for lo <= hi {
		mid := lo + (hi-lo)/2
		if ok(mid) {
			best = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return best
}

func roundTo(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
