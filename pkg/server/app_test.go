package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PerfectRatio/internal/domain/models"
	"PerfectRatio/internal/usecase"
	"PerfectRatio/pkg/config"
	xhttp "PerfectRatio/pkg/http"
	applogger "PerfectRatio/pkg/logger"
)

type countingPublisher struct {
	published int
	closed    bool
}

func (p *countingPublisher) Publish(context.Context, *models.SolveEvent) error {
	p.published++
	return nil
}

func (p *countingPublisher) Close() error {
	p.closed = true
	return nil
}

func TestAppRunAndShutdown(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = 2 * time.Second

	l := applogger.Nop()
	pub := &countingPublisher{}
	svc := usecase.NewCurveService(usecase.NewCurveSolver(), pub, nil, l)
	srv := xhttp.NewServer(l, nil, xhttp.WithHost("127.0.0.1"), xhttp.WithPort(0), xhttp.WithMetrics("", nil, nil))

	var closed []string
	closer := func(name string, err error) Closer {
		return Closer{Name: name, Close: func() error {
			closed = append(closed, name)
			return err
		}}
	}
	app := New(cfg, l, srv, svc, nil, nil, Closers{
		closer("cache", nil),
		{Name: "noop"},
		closer("clickhouse", errors.New("already closed")),
	})

	_, err = svc.Solve(context.Background(), models.CostProfileFromMap(map[int]int{1: 20, 2: 20}), models.DefaultCurveParameters(), usecase.SourceCLI)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already closed")
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}

	assert.Equal(t, []string{"cache", "clickhouse"}, closed)
	assert.Equal(t, 1, pub.published)
	assert.True(t, pub.closed)
}
