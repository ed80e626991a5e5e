package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"PerfectRatio/internal/domain/models"
	"PerfectRatio/internal/usecase"
	xhttp "PerfectRatio/pkg/http"
	applogger "PerfectRatio/pkg/logger"
)

type options struct {
	deck        string
	counts      string
	target      float64
	rule        string
	convention  string
	model       string
	nonInkables int
	handSize    int
	deckSize    int
	remote      string
	asJSON      bool
	logLevel    string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	l := applogger.NewWriter(stderr, opts.logLevel)

	res, err := solve(context.Background(), opts, stdin, l)
	if err != nil {
		fmt.Fprintf(stderr, "curvecalc: %v\n", err)
		return 1
	}

	if opts.asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			fmt.Fprintf(stderr, "curvecalc: %v\n", err)
			return 1
		}
		return 0
	}
	printResult(stdout, res)
	return 0
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	def := models.DefaultCurveParameters()
	var o options
	fs := flag.NewFlagSet("curvecalc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.deck, "deck", "", "deck file (YAML or JSON), - for stdin")
	fs.StringVar(&o.counts, "counts", "", "comma-separated card counts by cost, starting at cost 0")
	fs.Float64Var(&o.target, "target", def.TargetSuccessRate, "target success rate in percent, exclusive (0,100)")
	fs.StringVar(&o.rule, "rule", string(def.TargetTurnRule), "target turn rule: round or ceil")
	fs.StringVar(&o.convention, "convention", string(def.DrawConvention), "draw convention: inclusive or before")
	fs.StringVar(&o.model, "model", string(def.ProbabilityModel), "probability model: hypergeometric or binomial")
	fs.IntVar(&o.nonInkables, "non-inkables", -1, "manual non-inkable count; -1 searches for the maximum")
	fs.IntVar(&o.handSize, "hand", def.OpeningHandSize, "opening hand size")
	fs.IntVar(&o.deckSize, "deck-size", 0, "required deck size; 0 disables the check")
	fs.StringVar(&o.remote, "remote", "", "solve on a running server at this base URL instead of locally")
	fs.BoolVar(&o.asJSON, "json", false, "print the result as JSON")
	fs.StringVar(&o.logLevel, "log-level", "warn", "log level")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if (o.deck == "") == (o.counts == "") {
		err := errors.New("exactly one of -deck or -counts is required")
		fmt.Fprintf(stderr, "curvecalc: %v\n", err)
		fs.Usage()
		return o, err
	}
	return o, nil
}

func (o options) curveOptions() models.CurveOptions {
	co := models.CurveOptions{
		TargetRate:     o.target,
		TurnRule:       o.rule,
		DrawConvention: o.convention,
		Model:          o.model,
		DeckSize:       o.deckSize,
	}
	if o.nonInkables >= 0 {
		n := o.nonInkables
		co.NonInkables = &n
	}
	return co
}

func solve(ctx context.Context, o options, stdin io.Reader, l *applogger.Logger) (models.SolveResult, error) {
	var (
		req    models.ImportRequest
		counts []int
		err    error
	)
	if o.deck != "" {
		req.Deck, err = readDeck(o.deck, stdin)
	} else {
		counts, err = parseCounts(o.counts)
	}
	if err != nil {
		return models.SolveResult{}, err
	}

	if o.remote != "" {
		return solveRemote(ctx, o, req, counts, l)
	}

	base := models.DefaultCurveParameters()
	base.OpeningHandSize = o.handSize
	svc := usecase.NewCurveService(usecase.NewCurveSolver(), nil, nil, l, usecase.WithBaseParameters(base))
	params := svc.Parameters(o.curveOptions())
	if counts != nil {
		return svc.SolveCounts(ctx, counts, params, usecase.SourceCLI)
	}
	return svc.ImportAndSolve(ctx, req, params, usecase.SourceCLI)
}

func solveRemote(ctx context.Context, o options, req models.ImportRequest, counts []int, l *applogger.Logger) (models.SolveResult, error) {
	client := xhttp.NewClient(xhttp.WithBaseURL(o.remote), xhttp.WithTimeout(15*time.Second))

	call := &xhttp.RequestOptions{Method: http.MethodPost}
	if counts != nil {
		call.URL = "/api/curve/solve"
		call.Body = models.SolveRequest{Counts: counts, CurveOptions: o.curveOptions()}
	} else {
		call.URL = "/api/deck/solve"
		call.Body = models.DeckSolveRequest{ImportRequest: req, CurveOptions: o.curveOptions()}
	}
	l.Debug("remote solve", applogger.String("url", o.remote+call.URL))

	var res models.SolveResult
	if err := client.SendAndParse(ctx, call, &res); err != nil {
		return models.SolveResult{}, err
	}
	return res, nil
}

func readDeck(path string, stdin io.Reader) (string, error) {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read deck: %w", err)
	}
	return string(b), nil
}

func parseCounts(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	counts := make([]int, 0, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			p = "0"
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("%w: count for cost %d: %v", models.ErrInvalidParameters, i, err)
		}
		counts = append(counts, n)
	}
	return counts, nil
}

func printResult(w io.Writer, res models.SolveResult) {
	met := "yes"
	if !res.TargetMet {
		met = "no"
	}
	fmt.Fprintf(w, "Total cards:      %d\n", res.TotalCards)
	fmt.Fprintf(w, "Average cost:     %.2f\n", res.AverageCost)
	fmt.Fprintf(w, "Target turn:      %d (%d cards seen)\n", res.TargetTurn, res.CardsSeen)
	fmt.Fprintf(w, "Inkables:         %d\n", res.InkablesInDeck)
	fmt.Fprintf(w, "Non-inkables:     %d\n", res.NonInkablesInDeck)
	fmt.Fprintf(w, "Success rate:     %.1f%% (target met: %s)\n", res.SuccessRate, met)
	fmt.Fprintf(w, "Model:            %s\n\n", res.Model)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Turn\tInk on curve\t")
	for _, p := range res.CurveSeries {
		fmt.Fprintf(tw, "%d\t%.1f%%\t\n", p.Turn, p.Probability)
	}
	_ = tw.Flush()
}
