package distribution

import (
	"fmt"

	"PerfectRatio/internal/domain/models"
	domsvc "PerfectRatio/internal/domain/service"
)

// ForModel returns the distribution for a model name. An empty name selects
// the hypergeometric model.
func ForModel(m models.ProbabilityModel) (domsvc.Distribution, error) {
	switch m {
	case models.ModelHypergeometric, "":
		return NewHypergeometric(), nil
	case models.ModelBinomial:
		return NewBinomial(), nil
	default:
		return nil, fmt.Errorf("%w: unknown probability model %q", models.ErrInvalidParameters, string(m))
	}
}
