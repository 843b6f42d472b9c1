package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mikey/translation-grader/internal/core"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

func newTestGrader(t *testing.T, handler http.HandlerFunc) *Grader {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = server.URL + "/v1"
	return NewGrader(openai.NewClientWithConfig(cfg), "gpt-5-nano", 600, 0, 0, zap.NewNop())
}

func completion(content string) map[string]any {
	return map[string]any{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"model":  "gpt-5-nano",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
		"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 20, "total_tokens": 30},
	}
}

func TestGrader_Grade(t *testing.T) {
	var captured openai.ChatCompletionRequest
	g := newTestGrader(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completion(
			`{"verdict":"minor","meaning":"same","corrected":"Jeg bor i Norge.","issues":[{"category":"rettskriving","severity":"error","explanation":"Stor forbokstav","fix":"Norge"}],"short_rule":"Landnavn skrives med stor forbokstav."}`))
	})

	prompt := &core.GradingPrompt{Level: "A1", English: "I live in Norway.", Submission: "Jeg bor i norge.", GrammarSummary: "Ingen funn."}
	ev, err := g.Grade(context.Background(), prompt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Verdict != core.VerdictMinor || len(ev.Issues) != 1 || ev.Issues[0].Fix != "Norge" {
		t.Errorf("unexpected evaluation: %+v", ev)
	}

	if captured.Model != "gpt-5-nano" {
		t.Errorf("expected model gpt-5-nano, got %q", captured.Model)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Content != core.SystemPrompt() {
		t.Error("expected the rubric as system message")
	}
	if !strings.Contains(captured.Messages[1].Content, "Jeg bor i norge.") {
		t.Error("expected the submission in the user message")
	}
	if captured.ResponseFormat == nil || captured.ResponseFormat.Type != openai.ChatCompletionResponseFormatTypeJSONSchema {
		t.Error("expected a JSON schema response format")
	}
}

func TestGrader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":{"message":"boom","type":"server_error"}}`, http.StatusInternalServerError)
			},
		},
		{
			name: "no choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				resp := completion("")
				resp["choices"] = []any{}
				_ = json.NewEncoder(w).Encode(resp)
			},
		},
		{
			name: "empty content",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(completion(""))
			},
		},
		{
			name: "schema violation",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(completion(`{"verdict":"perfect"}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGrader(t, tt.handler)
			if _, err := g.Grade(context.Background(), &core.GradingPrompt{Level: "A1"}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestEvaluationSchema(t *testing.T) {
	raw, err := json.Marshal(evaluationSchema())
	if err != nil {
		t.Fatalf("failed to marshal schema: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("failed to decode schema: %v", err)
	}
	if decoded["additionalProperties"] != false {
		t.Error("expected additionalProperties false for strict mode")
	}
	if req, _ := decoded["required"].([]any); len(req) != 5 {
		t.Errorf("expected 5 required properties, got %v", decoded["required"])
	}
}
