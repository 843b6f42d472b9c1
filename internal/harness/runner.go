package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mikey/translation-grader/internal/core"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// timestampLayout names artifacts so that they sort chronologically
const timestampLayout = "2006-01-02T15-04-05"

// Evaluator is the part of the pipeline the harness drives
type Evaluator interface {
	Evaluate(ctx context.Context, req *core.GradingRequest) (*core.Evaluation, *int64, error)
}

// Options configures a run
type Options struct {
	Dataset     string
	Label       string
	Concurrency int
	StopOnFail  bool
}

// CaseResult is the outcome of one case
type CaseResult struct {
	ID         string           `json:"id"`
	OK         bool             `json:"ok"`
	Failures   []string         `json:"failures"`
	LatencyMS  float64          `json:"latency_ms"`
	Evaluation *core.Evaluation `json:"evaluation"`
}

// Summary aggregates a run
type Summary struct {
	Passed  int     `json:"passed"`
	Failed  int     `json:"failed"`
	TotalMS float64 `json:"total_ms"`
	P50MS   float64 `json:"p50_ms"`
	P90MS   float64 `json:"p90_ms"`
}

// Report is the run artifact
type Report struct {
	RunID     string       `json:"run_id"`
	Timestamp string       `json:"timestamp"`
	Dataset   string       `json:"dataset"`
	Label     string       `json:"label"`
	Results   []CaseResult `json:"results"`
	Summary   Summary      `json:"summary"`
}

// ExitCode is 0 when every case passed and 1 otherwise
func (r *Report) ExitCode() int {
	if r.Summary.Failed > 0 {
		return 1
	}
	return 0
}

// Runner executes dataset cases against an Evaluator
type Runner struct {
	evaluator Evaluator
	out       io.Writer
	logger    *zap.Logger
	now       func() time.Time
}

// NewRunner creates a runner that prints progress to out
func NewRunner(evaluator Evaluator, out io.Writer, logger *zap.Logger) *Runner {
	return &Runner{
		evaluator: evaluator,
		out:       out,
		logger:    logger,
		now:       time.Now,
	}
}

// Run evaluates every case and returns the report. Stop-on-fail runs the
// cases one at a time so that the first failure is well defined.
func (r *Runner) Run(ctx context.Context, cases []Case, opts Options) (*Report, error) {
	if len(cases) == 0 {
		return nil, fmt.Errorf("no cases found in %s", opts.Dataset)
	}

	concurrency := max(opts.Concurrency, 1)
	if opts.StopOnFail {
		concurrency = 1
	}

	report := &Report{
		RunID:     uuid.NewString(),
		Timestamp: r.now().Format(timestampLayout),
		Dataset:   opts.Dataset,
		Label:     opts.Label,
	}
	r.logger.Info("Starting evaluation run",
		zap.String("run_id", report.RunID),
		zap.Int("cases", len(cases)),
		zap.Int("concurrency", concurrency))

	results := make([]*CaseResult, len(cases))
	var (
		mu   sync.Mutex
		done int
	)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i := range cases {
		if gctx.Err() != nil {
			break
		}
		i := i
		c := &cases[i]
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			res := r.runCase(gctx, c)

			mu.Lock()
			results[i] = res
			done++
			r.printResult(done, len(cases), res)
			mu.Unlock()

			if !res.OK && opts.StopOnFail {
				return errStopped
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, errStopped) {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, res := range results {
		if res != nil {
			report.Results = append(report.Results, *res)
		}
	}
	report.Summary = summarize(report.Results, time.Since(start))

	fmt.Fprintln(r.out)
	fmt.Fprintf(r.out, "Summary: %d passed, %d failed, total %.0f ms\n",
		report.Summary.Passed, report.Summary.Failed, report.Summary.TotalMS)
	fmt.Fprintf(r.out, "Latency: p50=%.0f ms, p90=%.0f ms\n", report.Summary.P50MS, report.Summary.P90MS)

	return report, nil
}

var errStopped = errors.New("stopped on first failure")

func (r *Runner) runCase(ctx context.Context, c *Case) *CaseResult {
	start := time.Now()
	ev, _, err := r.evaluator.Evaluate(ctx, c.Request())
	latency := float64(time.Since(start).Microseconds()) / 1000

	res := &CaseResult{ID: c.ID, LatencyMS: latency, Failures: []string{}}
	if err != nil {
		r.logger.Warn("Case evaluation failed", zap.String("case", c.ID), zap.Error(err))
		res.Failures = append(res.Failures, fmt.Sprintf("evaluation error: %v", err))
		return res
	}

	res.Evaluation = ev
	if failures := Check(ev, c.Expect); len(failures) > 0 {
		res.Failures = failures
	}
	res.OK = len(res.Failures) == 0
	return res
}

func (r *Runner) printResult(idx, total int, res *CaseResult) {
	status := "PASS"
	if !res.OK {
		status = "FAIL"
	}
	fmt.Fprintf(r.out, "[%02d/%02d] %s %s (%.0f ms)\n", idx, total, status, res.ID, res.LatencyMS)
	for _, f := range res.Failures {
		fmt.Fprintf(r.out, "   - %s\n", f)
	}
}

func summarize(results []CaseResult, total time.Duration) Summary {
	s := Summary{TotalMS: float64(total.Microseconds()) / 1000}

	latencies := make([]float64, 0, len(results))
	for _, res := range results {
		if res.OK {
			s.Passed++
		} else {
			s.Failed++
		}
		latencies = append(latencies, res.LatencyMS)
	}
	slices.Sort(latencies)
	s.P50MS = percentile(latencies, 0.50)
	s.P90MS = percentile(latencies, 0.90)
	return s
}

// percentile uses the lower nearest rank
func percentile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[int(q*float64(len(sorted)-1))]
}

// WriteArtifact writes the report as <timestamp>[_label].json under dir
func WriteArtifact(dir string, report *Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}

	name := report.Timestamp
	if report.Label != "" {
		name += "_" + report.Label
	}
	path := filepath.Join(dir, name+".json")

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create artifact: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	return path, nil
}
