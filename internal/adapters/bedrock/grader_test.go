package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/translation-grader/internal/core"
	"go.uber.org/zap"
)

type mockInvoker struct {
	invokeFunc func(ctx context.Context, params *bedrockruntime.InvokeModelInput) (*bedrockruntime.InvokeModelOutput, error)
}

func (m *mockInvoker) InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	return m.invokeFunc(ctx, params)
}

func respond(text string) func(context.Context, *bedrockruntime.InvokeModelInput) (*bedrockruntime.InvokeModelOutput, error) {
	return func(ctx context.Context, params *bedrockruntime.InvokeModelInput) (*bedrockruntime.InvokeModelOutput, error) {
		body, _ := json.Marshal(map[string]any{
			"content":     []map[string]string{{"type": "text", "text": text}},
			"stop_reason": "end_turn",
		})
		return &bedrockruntime.InvokeModelOutput{Body: body}, nil
	}
}

func TestGrader_Grade(t *testing.T) {
	var sent messagesRequest
	invoker := &mockInvoker{}
	invoker.invokeFunc = func(ctx context.Context, params *bedrockruntime.InvokeModelInput) (*bedrockruntime.InvokeModelOutput, error) {
		if err := json.Unmarshal(params.Body, &sent); err != nil {
			t.Fatalf("failed to decode payload: %v", err)
		}
		if *params.ModelId != "anthropic.claude-3-haiku" {
			t.Errorf("unexpected model id %q", *params.ModelId)
		}
		return respond(`Vurdering: {"verdict":"correct","meaning":"same","corrected":"Hei.","issues":[],"short_rule":"Bra."}`)(ctx, params)
	}

	g := NewGrader(invoker, "anthropic.claude-3-haiku", 512, 0, 0, zap.NewNop())
	ev, err := g.Grade(context.Background(), &core.GradingPrompt{Level: "A1", English: "Hi.", Submission: "Hei."})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Verdict != core.VerdictCorrect {
		t.Errorf("expected correct, got %s", ev.Verdict)
	}

	if sent.AnthropicVersion != anthropicVersion || sent.System != core.SystemPrompt() {
		t.Error("expected messages payload with rubric as system prompt")
	}
	if len(sent.Messages) != 1 || !strings.Contains(sent.Messages[0].Content[0].Text, "Hei.") {
		t.Error("expected the submission in the user message")
	}
}

func TestGrader_Errors(t *testing.T) {
	tests := []struct {
		name   string
		invoke func(context.Context, *bedrockruntime.InvokeModelInput) (*bedrockruntime.InvokeModelOutput, error)
	}{
		{
			name: "invoke failure",
			invoke: func(context.Context, *bedrockruntime.InvokeModelInput) (*bedrockruntime.InvokeModelOutput, error) {
				return nil, errors.New("throttled")
			},
		},
		{
			name: "garbage body",
			invoke: func(context.Context, *bedrockruntime.InvokeModelInput) (*bedrockruntime.InvokeModelOutput, error) {
				return &bedrockruntime.InvokeModelOutput{Body: []byte("not json")}, nil
			},
		},
		{name: "empty content", invoke: respond("")},
		{name: "invalid evaluation", invoke: respond(`{"verdict":"maybe"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGrader(&mockInvoker{invokeFunc: tt.invoke}, "m", 512, 0, 0, zap.NewNop())
			if _, err := g.Grade(context.Background(), &core.GradingPrompt{Level: "A1"}); err == nil {
				t.Error("expected error")
			}
		})
	}
}
