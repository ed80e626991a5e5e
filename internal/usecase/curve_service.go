package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"PerfectRatio/internal/domain/models"
	domrepo "PerfectRatio/internal/domain/repository"
	"PerfectRatio/internal/services/distribution"
	applogger "PerfectRatio/pkg/logger"
)

// Event sources.
const (
	SourceHTTP = "http"
	SourceWS   = "ws"
	SourceCLI  = "cli"
)

// CurveService runs imports and solves for the transports and ships a
// SolveEvent for every successful solve. Publishing happens in the background
// and never changes the result returned to the caller.
type CurveService struct {
	solver    *CurveSolver
	base      models.CurveParameters
	publisher domrepo.SolveEventPublisher
	metrics   domrepo.Metrics
	log       *applogger.Logger

	now            func() time.Time
	newID          func() string
	publishTimeout time.Duration
	inflight       chan struct{}
	wg             sync.WaitGroup
}

// CurveServiceOption configures CurveService.
type CurveServiceOption func(*CurveService)

// WithBaseParameters sets the opening hand size and required deck size used
// when a request does not carry its own.
func WithBaseParameters(p models.CurveParameters) CurveServiceOption {
	return func(s *CurveService) { s.base = p }
}

// WithPublishTimeout bounds a single background publish.
func WithPublishTimeout(d time.Duration) CurveServiceOption {
	return func(s *CurveService) { s.publishTimeout = d }
}

// WithMaxInflightPublishes caps concurrent background publishes. Events over
// the cap are dropped.
func WithMaxInflightPublishes(n int) CurveServiceOption {
	return func(s *CurveService) {
		if n > 0 {
			s.inflight = make(chan struct{}, n)
		}
	}
}

// WithClock overrides the event clock and id generator.
func WithClock(now func() time.Time, newID func() string) CurveServiceOption {
	return func(s *CurveService) {
		if now != nil {
			s.now = now
		}
		if newID != nil {
			s.newID = newID
		}
	}
}

// NewCurveService creates a CurveService. A nil publisher drops events.
func NewCurveService(
	solver *CurveSolver,
	publisher domrepo.SolveEventPublisher,
	metrics domrepo.Metrics,
	log *applogger.Logger,
	opts ...CurveServiceOption,
) *CurveService {
	s := &CurveService{
		solver:         solver,
		base:           models.DefaultCurveParameters(),
		publisher:      publisher,
		metrics:        metrics,
		log:            log,
		now:            time.Now,
		newID:          uuid.NewString,
		publishTimeout: 5 * time.Second,
		inflight:       make(chan struct{}, 256),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = applogger.Nop()
	}
	return s
}

// Parameters merges request options over the service defaults.
func (s *CurveService) Parameters(o models.CurveOptions) models.CurveParameters {
	p := o.Parameters()
	p.OpeningHandSize = s.base.OpeningHandSize
	if p.RequiredDeckSize == 0 {
		p.RequiredDeckSize = s.base.RequiredDeckSize
	}
	return p
}

// Solve solves profile and publishes the outcome as a SolveEvent.
func (s *CurveService) Solve(ctx context.Context, profile models.CostProfile, params models.CurveParameters, source string) (models.SolveResult, error) {
	start := time.Now()
	res, err := s.solver.Solve(profile, params)
	s.recordLatency("solve", start)
	if err != nil {
		s.recordError(errorKind(err))
		s.log.Debug("solve rejected", applogger.String("source", source), applogger.Error(err))
		return models.SolveResult{}, err
	}

	outcome := "unmet"
	switch {
	case params.ManualNonInkables != nil:
		outcome = "override"
	case res.TargetMet:
		outcome = "met"
	}
	if s.metrics != nil {
		s.metrics.RecordSolve(string(res.Model), outcome)
		s.metrics.RecordSuccessRate(string(res.Model), res.SuccessRate)
	}

	s.publish(ctx, s.event(profile, params, res, source))
	return res, nil
}

// SolveCounts solves a cost-count vector indexed by cost.
func (s *CurveService) SolveCounts(ctx context.Context, counts []int, params models.CurveParameters, source string) (models.SolveResult, error) {
	profile, err := ProfileFromCounts(counts)
	if err != nil {
		s.recordError(errorKind(err))
		return models.SolveResult{}, err
	}
	return s.Solve(ctx, profile, params, source)
}

// Import builds a profile from inline entries or a YAML/JSON document.
// Inline entries win when both are given.
func (s *CurveService) Import(req models.ImportRequest) (models.CostProfile, error) {
	start := time.Now()
	var (
		profile models.CostProfile
		err     error
	)
	if len(req.Cards) > 0 {
		profile, err = ImportEntries(req.Cards)
	} else {
		profile, err = ParseDeck([]byte(req.Deck))
	}
	s.recordLatency("import", start)
	if err != nil {
		s.recordError(errorKind(err))
		return models.CostProfile{}, err
	}
	return profile, nil
}

// ImportAndSolve imports a deck and solves it in one call.
func (s *CurveService) ImportAndSolve(ctx context.Context, req models.ImportRequest, params models.CurveParameters, source string) (models.SolveResult, error) {
	profile, err := s.Import(req)
	if err != nil {
		return models.SolveResult{}, err
	}
	return s.Solve(ctx, profile, params, source)
}

// Evaluate returns PMF ("pmf") or survival ("survival") for model.
func (s *CurveService) Evaluate(model models.ProbabilityModel, function string, k, population, successes, sample int) (float64, error) {
	dist, err := distribution.ForModel(model)
	if err != nil {
		return 0, err
	}
	if population < 1 || successes < 0 || sample < 0 {
		return 0, fmt.Errorf("%w: population must be positive and counts non-negative", models.ErrInvalidParameters)
	}
	switch function {
	case "pmf":
		return dist.PMF(k, population, successes, sample), nil
	case "survival":
		return dist.Survival(k, population, successes, sample), nil
	default:
		return 0, fmt.Errorf("%w: unknown function %q", models.ErrInvalidParameters, function)
	}
}

// Close waits for background publishes and closes the publisher.
func (s *CurveService) Close() error {
	s.wg.Wait()
	if s.publisher == nil {
		return nil
	}
	return s.publisher.Close()
}

// Flush waits for background publishes without closing the publisher.
func (s *CurveService) Flush() {
	s.wg.Wait()
}

func (s *CurveService) event(profile models.CostProfile, params models.CurveParameters, res models.SolveResult, source string) *models.SolveEvent {
	return &models.SolveEvent{
		ID:                s.newID(),
		Timestamp:         s.now().UTC(),
		Source:            source,
		Counts:            profile,
		Model:             res.Model,
		TurnRule:          params.TargetTurnRule,
		DrawConvention:    params.DrawConvention,
		TargetSuccessRate: params.TargetSuccessRate,
		ManualOverride:    params.ManualNonInkables != nil,
		TotalCards:        res.TotalCards,
		TargetTurn:        res.TargetTurn,
		InkablesInDeck:    res.InkablesInDeck,
		NonInkablesInDeck: res.NonInkablesInDeck,
		SuccessRate:       res.SuccessRate,
		TargetMet:         res.TargetMet,
	}
}

func (s *CurveService) publish(ctx context.Context, e *models.SolveEvent) {
	if s.publisher == nil {
		return
	}
	select {
	case s.inflight <- struct{}{}:
	default:
		s.recordError("publish_dropped")
		return
	}

	// the request context ends with the response; keep its values only
	pctx := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() { <-s.inflight }()

		ctx, cancel := context.WithTimeout(pctx, s.publishTimeout)
		defer cancel()
		start := time.Now()
		if err := s.publisher.Publish(ctx, e); err != nil {
			s.recordError("publish")
			s.log.Warn("solve event publish failed", applogger.String("event_id", e.ID), applogger.Error(err))
			return
		}
		s.recordLatency("publish", start)
	}()
}

func (s *CurveService) recordError(kind string) {
	if s.metrics != nil {
		s.metrics.RecordError(kind)
	}
}

func (s *CurveService) recordLatency(op string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordLatency(op, time.Since(start).Seconds())
	}
}

// ProfileFromCounts converts a count vector indexed by cost into a profile.
func ProfileFromCounts(counts []int) (models.CostProfile, error) {
	var p models.CostProfile
	if len(counts) > len(p) {
		return p, fmt.Errorf("%w: at most %d cost buckets, got %d", models.ErrInvalidParameters, len(p), len(counts))
	}
	copy(p[:], counts)
	return p, p.Validate()
}

// errorKind names a domain error for the error counter.
func errorKind(err error) string {
	switch {
	case errors.Is(err, models.ErrEmptyDeck):
		return "empty_deck"
	case errors.Is(err, models.ErrInvalidOverride):
		return "invalid_override"
	case errors.Is(err, models.ErrDeckSizeMismatch):
		return "deck_size_mismatch"
	case errors.Is(err, models.ErrImportParse):
		return "import_parse"
	case errors.Is(err, models.ErrInvalidParameters):
		return "invalid_parameters"
	default:
		return "internal"
	}
}
