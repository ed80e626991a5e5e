package models

import (
	"fmt"
	"math"
)

const (
	// MaxCost is the highest playable cost bucket.
	MaxCost = 10
	// OpeningHandSize is the number of cards in the opening hand.
	OpeningHandSize = 7
	// CurveHorizon is the last turn reported in a curve series.
	CurveHorizon = 10
	// DefaultTargetSuccessRate matches the widget default.
	DefaultTargetSuccessRate = 85.0
)

// CostProfile maps a play cost (index 0..MaxCost) to a card count.
type CostProfile [MaxCost + 1]int

// CostProfileFromMap builds a profile from cost->count pairs.
// Costs outside 0..MaxCost are clamped to the nearest bucket.
func CostProfileFromMap(m map[int]int) CostProfile {
	var p CostProfile
	for cost, count := range m {
		p[ClampCost(cost)] += count
	}
	return p
}

// ClampCost bounds a cost to 0..MaxCost.
func ClampCost(cost int) int {
	if cost < 0 {
		return 0
	}
	if cost > MaxCost {
		return MaxCost
	}
	return cost
}

// Validate checks that every count is non-negative.
func (p CostProfile) Validate() error {
	for cost, count := range p {
		if count < 0 {
			return fmt.Errorf("%w: count for cost %d is negative (%d)", ErrInvalidParameters, cost, count)
		}
	}
	return nil
}

// TotalCards returns the sum of all counts.
func (p CostProfile) TotalCards() int {
	total := 0
	for _, count := range p {
		total += count
	}
	return total
}

// WeightedCost returns sum(cost*count).
func (p CostProfile) WeightedCost() int {
	sum := 0
	for cost, count := range p {
		sum += cost * count
	}
	return sum
}

// AverageCost returns WeightedCost/TotalCards, or ErrEmptyDeck for an empty profile.
func (p CostProfile) AverageCost() (float64, error) {
	total := p.TotalCards()
	if total == 0 {
		return 0, fmt.Errorf("%w: please enter at least one card count", ErrEmptyDeck)
	}
	return float64(p.WeightedCost()) / float64(total), nil
}

// Map returns the non-zero buckets as cost->count.
func (p CostProfile) Map() map[int]int {
	m := make(map[int]int)
	for cost, count := range p {
		if count != 0 {
			m[cost] = count
		}
	}
	return m
}

// TargetTurnRule derives the turn to evaluate from the average cost.
type TargetTurnRule string

const (
	// TurnRuleRound rounds to the nearest integer, halves away from zero.
	TurnRuleRound TargetTurnRule = "round"
	// TurnRuleCeil rounds up.
	TurnRuleCeil TargetTurnRule = "ceil"
)

// Apply converts an average cost into a target turn of at least 1.
func (r TargetTurnRule) Apply(averageCost float64) (int, error) {
	var turn float64
	switch r {
	case TurnRuleRound, "":
		turn = math.Round(averageCost)
	case TurnRuleCeil:
		turn = math.Ceil(averageCost)
	default:
		return 0, fmt.Errorf("%w: unknown target turn rule %q", ErrInvalidParameters, string(r))
	}
	if turn < 1 {
		return 1, nil
	}
	return int(turn), nil
}

// DrawConvention decides how many cards have been seen by a turn.
type DrawConvention string

const (
	// DrawInclusive counts the draw for the turn itself: hand + turn.
	DrawInclusive DrawConvention = "inclusive"
	// DrawBefore counts only draws strictly before the turn: hand + turn - 1.
	DrawBefore DrawConvention = "before"
)

// CardsSeen returns the number of cards seen by turn.
func (c DrawConvention) CardsSeen(handSize, turn int) (int, error) {
	switch c {
	case DrawInclusive, "":
		return handSize + turn, nil
	case DrawBefore:
		return handSize + turn - 1, nil
	default:
		return 0, fmt.Errorf("%w: unknown draw convention %q", ErrInvalidParameters, string(c))
	}
}

// ProbabilityModel names a distribution implementation.
type ProbabilityModel string

const (
	// ModelHypergeometric samples without replacement; the model of record.
	ModelHypergeometric ProbabilityModel = "hypergeometric"
	// ModelBinomial is the legacy independent-trial approximation.
	ModelBinomial ProbabilityModel = "binomial"
)

// CurveParameters configures a single solve.
type CurveParameters struct {
	TargetTurnRule    TargetTurnRule
	DrawConvention    DrawConvention
	ProbabilityModel  ProbabilityModel
	OpeningHandSize   int
	TargetSuccessRate float64 // percent, exclusive range (0,100)
	ManualNonInkables *int
	RequiredDeckSize  int // 0 disables the check
}

// DefaultCurveParameters returns the widget's behaviour with the hypergeometric model.
func DefaultCurveParameters() CurveParameters {
	return CurveParameters{
		TargetTurnRule:    TurnRuleRound,
		DrawConvention:    DrawInclusive,
		ProbabilityModel:  ModelHypergeometric,
		OpeningHandSize:   OpeningHandSize,
		TargetSuccessRate: DefaultTargetSuccessRate,
	}
}

// Validate checks the parameter ranges that do not depend on the profile.
func (p CurveParameters) Validate() error {
	if p.TargetSuccessRate <= 0 || p.TargetSuccessRate >= 100 || math.IsNaN(p.TargetSuccessRate) {
		return fmt.Errorf("%w: target success rate must be within (0, 100), got %v", ErrInvalidParameters, p.TargetSuccessRate)
	}
	if p.OpeningHandSize < 0 {
		return fmt.Errorf("%w: opening hand size must not be negative", ErrInvalidParameters)
	}
	if p.RequiredDeckSize < 0 {
		return fmt.Errorf("%w: required deck size must not be negative", ErrInvalidParameters)
	}
	return nil
}

// CurvePoint is the chance (percent, one decimal) of having enough ink on Turn.
type CurvePoint struct {
	Turn        int     `json:"turn"`
	Probability float64 `json:"probability"`
}

// SolveResult is the outcome of one solve. It has no identity beyond the response.
type SolveResult struct {
	TotalCards        int              `json:"total_cards"`
	AverageCost       float64          `json:"average_cost"`
	TargetTurn        int              `json:"target_turn"`
	CardsSeen         int              `json:"cards_seen"`
	InkablesInDeck    int              `json:"inkables_in_deck"`
	NonInkablesInDeck int              `json:"non_inkables_in_deck"`
	SuccessRate       float64          `json:"success_rate"`
	TargetMet         bool             `json:"target_met"`
	Model             ProbabilityModel `json:"model"`
	CurveSeries       []CurvePoint     `json:"curve_series"`
}
