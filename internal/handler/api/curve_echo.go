package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"PerfectRatio/internal/domain/models"
	"PerfectRatio/internal/service/ratelimit"
	"PerfectRatio/internal/usecase"
	xhttp "PerfectRatio/pkg/http"
	applogger "PerfectRatio/pkg/logger"
)

// HealthChecks are named dependency probes reported by /health.
type HealthChecks map[string]func(context.Context) error

// CurveEchoHandler serves the calculator REST API.
type CurveEchoHandler struct {
	logger  *applogger.Logger
	svc     *usecase.CurveService
	limiter *ratelimit.FixedWindow
	checks  HealthChecks
}

func NewCurveEchoHandler(logger *applogger.Logger, svc *usecase.CurveService, limiter *ratelimit.FixedWindow, checks HealthChecks) *CurveEchoHandler {
	return &CurveEchoHandler{logger: logger, svc: svc, limiter: limiter, checks: checks}
}

func (h *CurveEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	g := e.Group("/api", RateLimit(h.limiter, h.logger))
	g.POST("/curve/solve", h.Solve)
	g.POST("/deck/import", h.Import)
	g.POST("/deck/solve", h.DeckSolve)
	g.GET("/distribution/:model/:function", h.Distribution)
}

func (h *CurveEchoHandler) Solve(c echo.Context) error {
	req := &models.SolveRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx := c.Request().Context()
	params := h.svc.Parameters(req.CurveOptions)
	var (
		res models.SolveResult
		err error
	)
	if len(req.Cards) > 0 {
		res, err = h.svc.ImportAndSolve(ctx, models.ImportRequest{Cards: req.Cards}, params, usecase.SourceHTTP)
	} else {
		res, err = h.svc.SolveCounts(ctx, req.Counts, params, usecase.SourceHTTP)
	}
	if err != nil {
		return h.fail(c, "solve", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *CurveEchoHandler) Import(c echo.Context) error {
	req := &models.ImportRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	profile, err := h.svc.Import(*req)
	if err != nil {
		return h.fail(c, "import", err)
	}
	// an all-zero import is valid here; solving it reports the empty deck
	avg, _ := profile.AverageCost()
	return xhttp.SuccessResponse(c, models.ImportResponse{
		Counts:      profile,
		TotalCards:  profile.TotalCards(),
		AverageCost: avg,
	})
}

func (h *CurveEchoHandler) DeckSolve(c echo.Context) error {
	req := &models.DeckSolveRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.svc.ImportAndSolve(c.Request().Context(), req.ImportRequest, h.svc.Parameters(req.CurveOptions), usecase.SourceHTTP)
	if err != nil {
		return h.fail(c, "deck solve", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *CurveEchoHandler) Distribution(c echo.Context) error {
	req := &models.DistributionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	p, err := h.svc.Evaluate(models.ProbabilityModel(req.Model), req.Function, req.K, req.Population, req.Successes, req.Sample)
	if err != nil {
		return h.fail(c, "distribution", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=3600")
	return xhttp.SuccessResponse(c, models.DistributionResponse{
		Model:       req.Model,
		Function:    req.Function,
		K:           req.K,
		Population:  req.Population,
		Successes:   req.Successes,
		Sample:      req.Sample,
		Probability: p,
	})
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health probes every dependency concurrently and reports 503 if any fails.
func (h *CurveEchoHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok"}
	if len(h.checks) == 0 {
		return xhttp.SuccessResponse(c, resp)
	}

	var mu sync.Mutex
	resp.Checks = make(map[string]string, len(h.checks))
	// probes never return errors to the group so one failure does not cancel the rest
	var g errgroup.Group
	for name, check := range h.checks {
		name, check := name, check
		g.Go(func() error {
			result := "ok"
			if err := check(ctx); err != nil {
				h.logger.Warn("health check failed", applogger.String("check", name), applogger.Error(err))
				result = err.Error()
			}
			mu.Lock()
			resp.Checks[name] = result
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	status := http.StatusOK
	for _, result := range resp.Checks {
		if result != "ok" {
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			break
		}
	}
	return xhttp.DataResponse(c, status, resp)
}

func (h *CurveEchoHandler) fail(c echo.Context, op string, err error) error {
	appErr := toAppError(err)
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error(op+" failed", applogger.Error(err))
	} else {
		h.logger.Debug(op+" rejected", applogger.String("code", appErr.Code), applogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}
