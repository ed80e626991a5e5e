package main

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PerfectRatio/internal/domain/models"
	"PerfectRatio/internal/handler/api"
	"PerfectRatio/internal/usecase"
	applogger "PerfectRatio/pkg/logger"
)

const evenDeck = `cards:
  - {name: One, cost: 1, count: 10}
  - {name: Two, cost: 2, count: 10}
  - {name: Three, cost: 3, count: 10}
  - {name: Four, cost: 4, count: 10}
`

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRunPrintsSummaryAndCurve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(evenDeck), 0o600))

	code, out, stderr := runCLI(t, "", "-deck", path)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "Total cards:      40")
	assert.Contains(t, out, "Target turn:      3 (10 cards seen)")
	assert.Contains(t, out, "Non-inkables:     24")
	assert.Contains(t, out, "Success rate:     86.9% (target met: yes)")
	assert.Contains(t, out, "Ink on curve")
}

func TestRunJSONFromStdinWithOverride(t *testing.T) {
	code, out, stderr := runCLI(t, evenDeck, "-deck", "-", "-json", "-non-inkables", "10")
	require.Equal(t, 0, code, stderr)

	var res models.SolveResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 30, res.InkablesInDeck)
	assert.Equal(t, 10, res.NonInkablesInDeck)
}

func TestRunCountsWithStrategies(t *testing.T) {
	code, out, stderr := runCLI(t, "", "-counts", "0,10,10,10,10", "-rule", "ceil", "-convention", "before", "-json")
	require.Equal(t, 0, code, stderr)

	var res models.SolveResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 9, res.CardsSeen)
	assert.Equal(t, 22, res.NonInkablesInDeck)
}

func TestRunErrors(t *testing.T) {
	code, _, stderr := runCLI(t, "")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "exactly one of -deck or -counts")

	code, _, stderr = runCLI(t, "", "-counts", "0,0,0")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "empty deck")

	code, _, stderr = runCLI(t, "", "-counts", "1,x")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "count for cost 1")

	code, _, stderr = runCLI(t, "", "-counts", "0,10", "-target", "100")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "target success rate")

	code, _, _ = runCLI(t, "", "-deck", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, 1, code)

	code, _, _ = runCLI(t, "", "-h")
	assert.Equal(t, 0, code)
}

func TestRunRemote(t *testing.T) {
	e := echo.New()
	svc := usecase.NewCurveService(usecase.NewCurveSolver(), nil, nil, nil)
	api.NewCurveEchoHandler(applogger.Nop(), svc, nil, nil).RegisterRoutes(e)
	srv := httptest.NewServer(e)
	defer srv.Close()

	code, out, stderr := runCLI(t, evenDeck, "-deck", "-", "-remote", srv.URL, "-model", "binomial", "-json")
	require.Equal(t, 0, code, stderr)
	var res models.SolveResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, models.ModelBinomial, res.Model)
	assert.Equal(t, 23, res.NonInkablesInDeck)

	code, _, stderr = runCLI(t, "", "-counts", "0,10", "-remote", srv.URL, "-non-inkables", "11")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "ERR_INVALID_OVERRIDE")
	assert.Contains(t, stderr, "422")
}

func TestParseCounts(t *testing.T) {
	counts, err := parseCounts(" 1, ,3")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 3}, counts)
	_, err = parseCounts("a")
	assert.ErrorIs(t, err, models.ErrInvalidParameters)
}
