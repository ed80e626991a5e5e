package models

import "time"

// DeckEntry is one line of an externally supplied deck description.
// A nil Count means one copy.
type DeckEntry struct {
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Cost  int    `json:"cost" yaml:"cost"`
	Count *int   `json:"count,omitempty" yaml:"count,omitempty"`
}

// SolveEvent records one completed solve for offline analytics.
// Events are write-only: nothing in the solve path reads them back.
type SolveEvent struct {
	ID                string           `json:"id"`
	Timestamp         time.Time        `json:"ts"`
	Source            string           `json:"source"` // http, ws, cli
	Counts            CostProfile      `json:"counts"`
	Model             ProbabilityModel `json:"model"`
	TurnRule          TargetTurnRule   `json:"turn_rule"`
	DrawConvention    DrawConvention   `json:"draw_convention"`
	TargetSuccessRate float64          `json:"target_success_rate"`
	ManualOverride    bool             `json:"manual_override"`
	TotalCards        int              `json:"total_cards"`
	TargetTurn        int              `json:"target_turn"`
	InkablesInDeck    int              `json:"inkables_in_deck"`
	NonInkablesInDeck int              `json:"non_inkables_in_deck"`
	SuccessRate       float64          `json:"success_rate"`
	TargetMet         bool             `json:"target_met"`
}
