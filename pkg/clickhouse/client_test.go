package clickhouse

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN(ClientConfig{
		Host:         "ch.local",
		Port:         9000,
		Database:     "perfectratio",
		User:         "writer",
		Password:     "p@ss",
		DialTimeout:  5 * time.Second,
		MaxExecTime:  30 * time.Second,
		AsyncInsert:  true,
		WaitForAsync: true,
	})

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "clickhouse", u.Scheme)
	assert.Equal(t, "ch.local:9000", u.Host)
	assert.Equal(t, "/perfectratio", u.Path)
	assert.Equal(t, "writer", u.User.Username())
	pw, _ := u.User.Password()
	assert.Equal(t, "p@ss", pw)

	q := u.Query()
	assert.Equal(t, "5s", q.Get("dial_timeout"))
	assert.Equal(t, "30", q.Get("max_execution_time"))
	assert.Equal(t, "1", q.Get("async_insert"))
	assert.Equal(t, "1", q.Get("wait_for_async_insert"))
	assert.False(t, q.Has("read_timeout"))
}

func TestBuildDSNHTTP(t *testing.T) {
	dsn := buildDSN(ClientConfig{Host: "ch", Port: 8123, Database: "db", UseHTTP: true})
	assert.True(t, strings.HasPrefix(dsn, "http://ch:8123/db"), dsn)
	assert.NotContains(t, dsn, "?")
}

func TestNewClientRequiresHost(t *testing.T) {
	_, err := NewClient(WithPort(9000))
	assert.Error(t, err)
}

func TestNewClientWithoutPing(t *testing.T) {
	c, err := NewClient(WithHost("127.0.0.1"), WithDatabase("analytics"), WithoutPing())
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, "analytics", c.Database())
}

func TestSolveEventsSchema(t *testing.T) {
	stmts := SolveEventsSchema("analytics")
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[0], "CREATE DATABASE IF NOT EXISTS analytics")
	assert.Contains(t, stmts[1], "analytics.solve_events")
	assert.Contains(t, stmts[1], "MergeTree")
}
