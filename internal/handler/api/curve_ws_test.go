package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PerfectRatio/internal/domain/models"
	"PerfectRatio/internal/service/ratelimit"
	"PerfectRatio/internal/usecase"
	applogger "PerfectRatio/pkg/logger"
)

type wsReply struct {
	ID     string          `json:"id"`
	Type   string          `json:"type"`
	Data   json.RawMessage `json:"data"`
	Errors []apiError      `json:"errors"`
}

func dialWS(t *testing.T, e *echo.Echo) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/curve"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, frame string) wsReply {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
	var reply wsReply
	require.NoError(t, conn.ReadJSON(&reply))
	return reply
}

func TestWebSocketSolvesEachFrame(t *testing.T) {
	conn := dialWS(t, newTestEcho(t, nil, nil))

	reply := roundTrip(t, conn, `{"id":"a","counts":[0,10,10,10,10]}`)
	assert.Equal(t, "a", reply.ID)
	require.Equal(t, "result", reply.Type)
	var res models.SolveResult
	require.NoError(t, json.Unmarshal(reply.Data, &res))
	assert.Equal(t, 24, res.NonInkablesInDeck)

	reply = roundTrip(t, conn, `{"id":"b","counts":[0,10,10,10,10],"non_inkables":10}`)
	require.Equal(t, "result", reply.Type)
	require.NoError(t, json.Unmarshal(reply.Data, &res))
	assert.Equal(t, 30, res.InkablesInDeck)

	// no state carries over from the override frame
	reply = roundTrip(t, conn, `{"id":"c","counts":[0,10,10,10,10]}`)
	require.NoError(t, json.Unmarshal(reply.Data, &res))
	assert.Equal(t, 24, res.NonInkablesInDeck)
}

func TestWebSocketErrorFrames(t *testing.T) {
	conn := dialWS(t, newTestEcho(t, nil, nil))

	reply := roundTrip(t, conn, `{"id":"x","counts":[0,0]}`)
	assert.Equal(t, "x", reply.ID)
	assert.Equal(t, "error", reply.Type)
	require.NotEmpty(t, reply.Errors)
	assert.Equal(t, "ERR_EMPTY_DECK", reply.Errors[0].Code)

	reply = roundTrip(t, conn, `{"id":"y","counts":[0,10],"turn_rule":"floor"}`)
	assert.Equal(t, "error", reply.Type)
	assert.Equal(t, "ERR_ONEOF", reply.Errors[0].Code)

	reply = roundTrip(t, conn, `not json`)
	assert.Equal(t, "error", reply.Type)
	assert.Equal(t, "ERR_BIND", reply.Errors[0].Code)

	reply = roundTrip(t, conn, `{"counts":[0,10]}`)
	assert.Equal(t, "result", reply.Type, "the connection survives bad frames")
}

func TestWebSocketThrottlesPerConnection(t *testing.T) {
	svc := usecase.NewCurveService(usecase.NewCurveSolver(), nil, nil, nil)
	e := echo.New()
	NewCurveWSHandler(applogger.Nop(), svc, ratelimit.NewTokenBucket(1, 0.001), nil).RegisterRoutes(e)
	conn := dialWS(t, e)

	assert.Equal(t, "result", roundTrip(t, conn, `{"counts":[0,10]}`).Type)
	reply := roundTrip(t, conn, `{"counts":[0,10]}`)
	assert.Equal(t, "error", reply.Type)
	assert.Equal(t, "ERR_RATE_LIMITED", reply.Errors[0].Code)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://app.example"})
	r := httptest.NewRequest(http.MethodGet, "/ws/curve", nil)
	assert.True(t, check(r), "non-browser clients send no origin")

	r.Header.Set("Origin", "https://app.example")
	assert.True(t, check(r))
	r.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(r))

	assert.True(t, originChecker([]string{"*"})(r))
}
