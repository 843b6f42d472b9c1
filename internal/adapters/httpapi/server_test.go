package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mikey/translation-grader/internal/core"
	"go.uber.org/zap"
)

type mockGrading struct {
	evaluateFunc func(ctx context.Context, req *core.GradingRequest) (*core.Evaluation, *int64, error)
	nextFunc     func(ctx context.Context, level core.Level, avoidID int64) (*core.SourceSentence, error)
}

func (m *mockGrading) Evaluate(ctx context.Context, req *core.GradingRequest) (*core.Evaluation, *int64, error) {
	return m.evaluateFunc(ctx, req)
}

func (m *mockGrading) NextSentence(ctx context.Context, level core.Level, avoidID int64) (*core.SourceSentence, error) {
	return m.nextFunc(ctx, level, avoidID)
}

func newTestServer(t *testing.T, svc *mockGrading) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewServer(svc, zap.NewNop(), "127.0.0.1:0", time.Second).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestServer_Evaluate(t *testing.T) {
	id := int64(17)
	svc := &mockGrading{
		evaluateFunc: func(ctx context.Context, req *core.GradingRequest) (*core.Evaluation, *int64, error) {
			if req.Level != "A1" || req.UserNorwegian != "jeg bor i norge" || req.SentenceID == nil || *req.SentenceID != 3 {
				t.Errorf("unexpected request: %+v", req)
			}
			return core.GoldEvaluation("Jeg bor i Norge."), &id, nil
		},
	}
	srv := newTestServer(t, svc)

	body := `{"level":"A1","english":"I live in Norway.","user_norwegian":"jeg bor i norge","sentence_id":3}`
	resp, err := http.Post(srv.URL+"/v1/evaluations", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out EvaluationResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if out.Evaluation.Verdict != core.VerdictCorrect || out.FeedbackID == nil || *out.FeedbackID != id {
		t.Errorf("unexpected response: %+v", out)
	}
}

func TestServer_EvaluateErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{name: "malformed body", body: `{"level":`, wantStatus: http.StatusBadRequest},
		{name: "unknown field", body: `{"level":"A1","extra":1}`, wantStatus: http.StatusBadRequest},
		{name: "invalid request", body: `{}`, err: fmt.Errorf("%w: empty submission", core.ErrInvalidRequest), wantStatus: http.StatusBadRequest},
		{name: "grader failure", body: `{}`, err: fmt.Errorf("%w: timeout", core.ErrGradingService), wantStatus: http.StatusBadGateway},
		{name: "internal failure", body: `{}`, err: errors.New("disk full"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockGrading{
				evaluateFunc: func(ctx context.Context, req *core.GradingRequest) (*core.Evaluation, *int64, error) {
					if tt.err == nil {
						t.Error("service should not be called")
					}
					return nil, nil, tt.err
				},
			}
			srv := newTestServer(t, svc)

			resp, err := http.Post(srv.URL+"/v1/evaluations", "application/json", bytes.NewBufferString(tt.body))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, resp.StatusCode)
			}
			var out errorResponse
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.Error == "" {
				t.Errorf("expected error body, got %+v (%v)", out, err)
			}
		})
	}
}

func TestServer_NextSentence(t *testing.T) {
	svc := &mockGrading{
		nextFunc: func(ctx context.Context, level core.Level, avoidID int64) (*core.SourceSentence, error) {
			if level != "B1" || avoidID != 4 {
				t.Errorf("unexpected arguments %q %d", level, avoidID)
			}
			return &core.SourceSentence{ID: 5, Level: level, Sentence: "The bus is late."}, nil
		},
	}
	srv := newTestServer(t, svc)

	resp, err := http.Get(srv.URL + "/v1/sentences/next?level=B1&avoid=4")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var out SentenceResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if out.ID != 5 || out.Sentence != "The bus is late." {
		t.Errorf("unexpected sentence: %+v", out)
	}

	resp, err = http.Get(srv.URL + "/v1/sentences/next?level=B1&avoid=x")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for bad avoid, got %d", resp.StatusCode)
	}
}

func TestServer_NextSentenceNotFound(t *testing.T) {
	svc := &mockGrading{
		nextFunc: func(ctx context.Context, level core.Level, avoidID int64) (*core.SourceSentence, error) {
			return nil, core.ErrSentenceNotFound
		},
	}
	srv := newTestServer(t, svc)

	resp, err := http.Get(srv.URL + "/v1/sentences/next?level=C2")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestServer_StartStop(t *testing.T) {
	s := NewServer(&mockGrading{}, zap.NewNop(), "127.0.0.1:0", time.Second)
	if err := s.Start(); err != nil {
		t.Fatalf("failed to start: %v", err)
	}

	resp, err := http.Get("http://" + s.Addr() + "/healthz")
	if err != nil {
		t.Fatalf("health check failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	if err := s.Stop(); err != nil {
		t.Errorf("failed to stop: %v", err)
	}
	if _, err := http.Get("http://" + s.Addr() + "/healthz"); err == nil {
		t.Error("expected requests to fail after stop")
	}
}
