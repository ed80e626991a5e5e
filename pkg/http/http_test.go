package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoRequest struct {
	Name  string  `json:"name" validate:"required,max=8"`
	Rate  float64 `json:"rate" default:"85" validate:"gt=0,lt=100"`
	Model string  `json:"model" default:"hypergeometric" validate:"oneof=hypergeometric binomial"`
}

func newEnvelopeServer(t *testing.T) *httptest.Server {
	t.Helper()
	e := echo.New()
	e.POST("/echo", func(c echo.Context) error {
		var req echoRequest
		if errs := ReadAndValidateRequest(c, &req); errs != nil {
			return BadRequestResponse(c, errs)
		}
		return SuccessResponse(c, req)
	})
	e.GET("/teapot", func(c echo.Context) error {
		return AppErrorResponse(c, UnprocessableError("ERR_TEAPOT", "short and stout"))
	})
	e.GET("/boom", func(c echo.Context) error {
		return AppErrorResponse(c, errors.New("hidden"))
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

func TestSendAndParseDecodesData(t *testing.T) {
	srv := newEnvelopeServer(t)
	c := NewClient(WithBaseURL(srv.URL))

	var got echoRequest
	err := c.SendAndParse(context.Background(), &RequestOptions{
		Method: http.MethodPost,
		URL:    "/echo",
		Body:   map[string]interface{}{"name": "deck"},
	}, &got)
	require.NoError(t, err)
	assert.Equal(t, echoRequest{Name: "deck", Rate: 85, Model: "hypergeometric"}, got)
}

func TestSendAndParseReturnsRemoteErrors(t *testing.T) {
	srv := newEnvelopeServer(t)
	c := NewClient(WithBaseURL(srv.URL))

	err := c.SendAndParse(context.Background(), &RequestOptions{
		Method: http.MethodPost,
		URL:    "/echo",
		Body:   `{"name":"far too long","rate":0,"model":"poisson"}`,
	}, nil)
	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, http.StatusBadRequest, remote.Status)
	codes := make([]string, 0, len(remote.Errors))
	for _, e := range remote.Errors {
		codes = append(codes, e.Code)
	}
	assert.ElementsMatch(t, []string{"ERR_MAX", "ERR_GT", "ERR_ONEOF"}, codes)

	err = c.SendAndParse(context.Background(), &RequestOptions{Method: http.MethodGet, URL: "/teapot"}, nil)
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, http.StatusUnprocessableEntity, remote.Status)
	assert.Equal(t, "422 Unprocessable Entity: short and stout (ERR_TEAPOT)", remote.Error())

	err = c.SendAndParse(context.Background(), &RequestOptions{Method: http.MethodGet, URL: "/boom"}, nil)
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, http.StatusInternalServerError, remote.Status)
	assert.Empty(t, remote.Errors)
}

func TestReadAndValidateRequestBindError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	var body echoRequest
	errs, ok := ReadAndValidateRequest(c, &body).([]ValidationError)
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_BIND", errs[0].Code)
}

func TestValidateStructMessages(t *testing.T) {
	errs, ok := ValidateStruct(context.Background(), &echoRequest{Rate: 100, Model: "binomial"}).([]ValidationError)
	require.True(t, ok)
	require.Len(t, errs, 2)

	byField := map[string]ValidationError{}
	for _, e := range errs {
		byField[e.Field] = e
	}
	assert.Equal(t, "name is required", byField["name"].Message)
	assert.Equal(t, "ERR_LT", byField["rate"].Code)
	assert.Equal(t, "100", byField["rate"].Params["value"])

	assert.Nil(t, ValidateStruct(context.Background(), &echoRequest{Name: "ok", Rate: 50, Model: "binomial"}))
}
