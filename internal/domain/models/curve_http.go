package models

// Requests for curve HTTP/WebSocket endpoints. Defined in domain for reuse by both transports.

// CurveOptions carries the strategy choices shared by solve requests.
type CurveOptions struct {
	NonInkables    *int    `json:"non_inkables,omitempty" query:"non_inkables"`
	TargetRate     float64 `json:"target_rate" query:"target_rate" default:"85" validate:"gt=0,lt=100"`
	TurnRule       string  `json:"turn_rule" query:"turn_rule" default:"round" validate:"oneof=round ceil"`
	DrawConvention string  `json:"draw_convention" query:"draw_convention" default:"inclusive" validate:"oneof=inclusive before"`
	Model          string  `json:"model" query:"model" default:"hypergeometric" validate:"oneof=hypergeometric binomial"`
	DeckSize       int     `json:"deck_size" query:"deck_size" validate:"gte=0,lte=1000"`
}

// Parameters converts the options into solver parameters.
func (o CurveOptions) Parameters() CurveParameters {
	p := DefaultCurveParameters()
	p.TargetSuccessRate = o.TargetRate
	p.TargetTurnRule = TargetTurnRule(o.TurnRule)
	p.DrawConvention = DrawConvention(o.DrawConvention)
	p.ProbabilityModel = ProbabilityModel(o.Model)
	p.RequiredDeckSize = o.DeckSize
	if o.NonInkables != nil {
		v := *o.NonInkables
		p.ManualNonInkables = &v
	}
	return p
}

// SolveRequest solves a cost-count vector (index = cost) or a list of deck entries.
type SolveRequest struct {
	Counts []int       `json:"counts" validate:"required_without=Cards,omitempty,max=11,dive,gte=0,lte=1000"`
	Cards  []DeckEntry `json:"cards" validate:"required_without=Counts,omitempty,max=500"`
	CurveOptions
}

// ImportRequest imports a deck description given inline or as a YAML/JSON document.
type ImportRequest struct {
	Deck  string      `json:"deck" validate:"required_without=Cards,omitempty,max=65536"`
	Cards []DeckEntry `json:"cards" validate:"required_without=Deck,omitempty,max=500"`
}

// DeckSolveRequest imports a deck description and solves it in one call.
type DeckSolveRequest struct {
	ImportRequest
	CurveOptions
}

// DistributionRequest evaluates a single distribution value. For survival, K is
// the exclusive threshold.
type DistributionRequest struct {
	Model      string `param:"model" validate:"oneof=hypergeometric binomial"`
	Function   string `param:"function" validate:"oneof=pmf survival"`
	K          int    `query:"k"`
	Population int    `query:"population" validate:"gte=1,lte=1000"`
	Successes  int    `query:"successes" validate:"gte=0,lte=1000"`
	Sample     int    `query:"sample" validate:"gte=0,lte=1000"`
}

// DistributionResponse is the value returned for a DistributionRequest.
type DistributionResponse struct {
	Model       string  `json:"model"`
	Function    string  `json:"function"`
	K           int     `json:"k"`
	Population  int     `json:"population"`
	Successes   int     `json:"successes"`
	Sample      int     `json:"sample"`
	Probability float64 `json:"probability"`
}

// ImportResponse is the profile produced by an import.
type ImportResponse struct {
	Counts      CostProfile `json:"counts"`
	TotalCards  int         `json:"total_cards"`
	AverageCost float64     `json:"average_cost"`
}
