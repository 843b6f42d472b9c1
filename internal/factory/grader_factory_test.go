package factory

import (
	"context"
	"errors"
	"testing"

	"github.com/mikey/translation-grader/internal/core"
)

type stubGrader struct{}

func (stubGrader) Grade(ctx context.Context, prompt *core.GradingPrompt) (*core.Evaluation, error) {
	return nil, errors.New("not implemented")
}

func (stubGrader) ModelID() string { return "stub" }

type closingGrader struct {
	stubGrader
	closed int
	err    error
}

func (g *closingGrader) Close() error {
	g.closed++
	return g.err
}

func TestCloseGrader(t *testing.T) {
	g := &closingGrader{}
	if err := CloseGrader(g); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.closed != 1 {
		t.Errorf("expected Close to be called once, got %d", g.closed)
	}

	failing := &closingGrader{err: errors.New("close failed")}
	if err := CloseGrader(failing); err == nil {
		t.Error("expected close error to be returned")
	}

	if err := CloseGrader(stubGrader{}); err != nil {
		t.Errorf("expected no error for a grader without Close, got %v", err)
	}
}
