package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mikey/translation-grader/internal/core"
	"go.uber.org/zap"
)

type mockEvaluator struct {
	calls        atomic.Int32
	evaluateFunc func(ctx context.Context, req *core.GradingRequest) (*core.Evaluation, *int64, error)
}

func (m *mockEvaluator) Evaluate(ctx context.Context, req *core.GradingRequest) (*core.Evaluation, *int64, error) {
	m.calls.Add(1)
	return m.evaluateFunc(ctx, req)
}

// byVerdict answers with the verdict named in the submission
func byVerdict() *mockEvaluator {
	return &mockEvaluator{
		evaluateFunc: func(ctx context.Context, req *core.GradingRequest) (*core.Evaluation, *int64, error) {
			if req.UserNorwegian == "boom" {
				return nil, nil, errors.New("grader down")
			}
			ev := sampleEvaluation()
			ev.Verdict = core.Verdict(req.UserNorwegian)
			return ev, nil, nil
		},
	}
}

func casesFor(verdicts ...string) []Case {
	var cases []Case
	for i, v := range verdicts {
		cases = append(cases, Case{
			ID:            "case-" + string(rune('a'+i)),
			Level:         "A1",
			English:       "x",
			UserNorwegian: v,
			Expect:        Expect{VerdictIn: []core.Verdict{core.VerdictCorrect}},
		})
	}
	return cases
}

func TestRunner_Run(t *testing.T) {
	var out bytes.Buffer
	r := NewRunner(byVerdict(), &out, zap.NewNop())

	report, err := r.Run(context.Background(), casesFor("correct", "minor", "boom", "correct"), Options{Dataset: "d.jsonl", Concurrency: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.Results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(report.Results))
	}
	if report.Summary.Passed != 2 || report.Summary.Failed != 2 {
		t.Errorf("unexpected summary: %+v", report.Summary)
	}
	if report.ExitCode() != 1 {
		t.Errorf("expected exit code 1, got %d", report.ExitCode())
	}
	if report.Results[2].Evaluation != nil || !strings.Contains(report.Results[2].Failures[0], "grader down") {
		t.Errorf("expected evaluation error recorded, got %+v", report.Results[2])
	}
	if report.RunID == "" {
		t.Error("expected a run id")
	}

	printed := out.String()
	if strings.Count(printed, "PASS") != 2 || strings.Count(printed, "FAIL") != 2 {
		t.Errorf("unexpected progress output:\n%s", printed)
	}
	if !strings.Contains(printed, "Summary: 2 passed, 2 failed") {
		t.Errorf("expected summary line, got:\n%s", printed)
	}
}

func TestRunner_StopOnFail(t *testing.T) {
	eval := byVerdict()
	r := NewRunner(eval, &bytes.Buffer{}, zap.NewNop())

	report, err := r.Run(context.Background(), casesFor("correct", "minor", "correct", "correct"), Options{StopOnFail: true, Concurrency: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Results) != 2 {
		t.Errorf("expected run to stop after 2 cases, got %d", len(report.Results))
	}
	if got := eval.calls.Load(); got != 2 {
		t.Errorf("expected 2 evaluations, got %d", got)
	}
}

func TestRunner_AllPass(t *testing.T) {
	r := NewRunner(byVerdict(), &bytes.Buffer{}, zap.NewNop())
	report, err := r.Run(context.Background(), casesFor("correct"), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.ExitCode() != 0 {
		t.Errorf("expected exit code 0, got %d", report.ExitCode())
	}
}

func TestRunner_NoCases(t *testing.T) {
	r := NewRunner(byVerdict(), &bytes.Buffer{}, zap.NewNop())
	if _, err := r.Run(context.Background(), nil, Options{Dataset: "empty.jsonl"}); err == nil {
		t.Error("expected error for empty dataset")
	}
}

func TestPercentile(t *testing.T) {
	sorted := []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	if got := percentile(sorted, 0.5); got != 50 {
		t.Errorf("p50 = %v, want 50", got)
	}
	if got := percentile(sorted, 0.9); got != 90 {
		t.Errorf("p90 = %v, want 90", got)
	}
	if got := percentile(nil, 0.9); got != 0 {
		t.Errorf("expected 0 for no samples, got %v", got)
	}
}

func TestWriteArtifact(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "runs")
	r := NewRunner(byVerdict(), &bytes.Buffer{}, zap.NewNop())
	r.now = func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) }

	report, err := r.Run(context.Background(), casesFor("correct"), Options{Label: "grading-v1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	path, err := WriteArtifact(dir, report)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(path) != "2026-03-01T09-30-00_grading-v1.json" {
		t.Errorf("unexpected artifact name %q", filepath.Base(path))
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read artifact: %v", err)
	}
	var decoded Report
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("failed to decode artifact: %v", err)
	}
	if decoded.Summary.Passed != 1 || decoded.Label != "grading-v1" {
		t.Errorf("unexpected artifact contents: %+v", decoded)
	}
	if !strings.Contains(string(raw), "bøying") {
		t.Error("expected non-ASCII text to be written unescaped")
	}
}
