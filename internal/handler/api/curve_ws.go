package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"PerfectRatio/internal/domain/models"
	"PerfectRatio/internal/service/ratelimit"
	"PerfectRatio/internal/usecase"
	xhttp "PerfectRatio/pkg/http"
	applogger "PerfectRatio/pkg/logger"
)

const (
	wsWriteWait      = 5 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingInterval   = (wsPongWait * 9) / 10
	wsMaxMessageSize = 64 << 10
)

// wsRequest is one solve request frame. ID is echoed back in the reply.
type wsRequest struct {
	ID string `json:"id,omitempty"`
	models.SolveRequest
}

// wsResponse is the reply to one frame: type "result" carries Data, type
// "error" carries Errors.
type wsResponse struct {
	ID     string      `json:"id,omitempty"`
	Type   string      `json:"type"`
	Data   interface{} `json:"data,omitempty"`
	Errors interface{} `json:"errors,omitempty"`
}

// CurveWSHandler streams solves over a WebSocket. Every frame is solved on its
// own; the connection carries no state between frames.
type CurveWSHandler struct {
	logger   *applogger.Logger
	svc      *usecase.CurveService
	limiter  *ratelimit.TokenBucket
	upgrader websocket.Upgrader
	connSeq  atomic.Uint64
}

// NewCurveWSHandler creates the handler. A nil limiter disables per-connection
// throttling; origins lists the allowed Origin headers ("*" allows any).
func NewCurveWSHandler(logger *applogger.Logger, svc *usecase.CurveService, limiter *ratelimit.TokenBucket, origins []string) *CurveWSHandler {
	h := &CurveWSHandler{logger: logger, svc: svc, limiter: limiter}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(origins),
	}
	return h
}

func (h *CurveWSHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/curve", h.Serve)
}

// Serve upgrades the request and answers frames until the client goes away.
func (h *CurveWSHandler) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader already wrote the HTTP error
		h.logger.Debug("websocket upgrade failed", applogger.Error(err))
		return nil
	}
	defer conn.Close()

	connID := fmt.Sprintf("%s#%d", c.RealIP(), h.connSeq.Add(1))
	log := h.logger.With(applogger.String("conn", connID))
	if h.limiter != nil {
		defer h.limiter.Forget(connID)
	}

	conn.SetReadLimit(wsMaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go h.pingLoop(conn, done)

	log.Debug("websocket connected")
	ctx := c.Request().Context()
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.Warn("websocket read failed", applogger.Error(err))
			}
			return nil
		}
		if msgType != websocket.TextMessage {
			continue
		}

		resp := h.handleFrame(c, connID, data)
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(resp); err != nil {
			log.Warn("websocket write failed", applogger.Error(err))
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (h *CurveWSHandler) handleFrame(c echo.Context, connID string, data []byte) wsResponse {
	if h.limiter != nil && !h.limiter.Allow(connID) {
		return errorFrame("", xhttp.TooManyRequestsError(http.StatusText(http.StatusTooManyRequests)))
	}

	req := &wsRequest{}
	if err := xhttp.SetDefaults(req); err != nil {
		return errorFrame("", xhttp.InternalError("Something went wrong").WithError(err))
	}
	if err := json.Unmarshal(data, req); err != nil {
		return wsResponse{Type: "error", Errors: []xhttp.ValidationError{{Code: "ERR_BIND", Message: err.Error()}}}
	}
	if verr := xhttp.ValidateStruct(c.Request().Context(), req); verr != nil {
		return wsResponse{ID: req.ID, Type: "error", Errors: verr}
	}

	ctx := c.Request().Context()
	params := h.svc.Parameters(req.CurveOptions)
	var (
		res models.SolveResult
		err error
	)
	if len(req.Cards) > 0 {
		res, err = h.svc.ImportAndSolve(ctx, models.ImportRequest{Cards: req.Cards}, params, usecase.SourceWS)
	} else {
		res, err = h.svc.SolveCounts(ctx, req.Counts, params, usecase.SourceWS)
	}
	if err != nil {
		appErr := toAppError(err)
		if appErr.Status >= http.StatusInternalServerError {
			h.logger.Error("websocket solve failed", applogger.Error(err))
		}
		return errorFrame(req.ID, appErr)
	}
	return wsResponse{ID: req.ID, Type: "result", Data: res}
}

func (h *CurveWSHandler) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

func errorFrame(id string, appErr *xhttp.AppError) wsResponse {
	return wsResponse{ID: id, Type: "error", Errors: []*xhttp.AppError{appErr}}
}

func originChecker(origins []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(origins) == 0 {
			return true
		}
		for _, o := range origins {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}
