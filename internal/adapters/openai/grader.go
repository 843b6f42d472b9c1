package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mikey/translation-grader/internal/core"
	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"
)

// Grader is an implementation of the core.Grader interface using OpenAI
// chat completions with a strict JSON schema response format
type Grader struct {
	client      *openai.Client
	modelName   string
	maxTokens   int
	temperature float32
	topP        float32
	logger      *zap.Logger
}

// NewGrader creates a new OpenAI grader
func NewGrader(
	client *openai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) *Grader {
	return &Grader{
		client:      client,
		modelName:   modelName,
		maxTokens:   maxTokens,
		temperature: temperature,
		topP:        topP,
		logger:      logger,
	}
}

// ModelID returns the configured model name
func (g *Grader) ModelID() string {
	return g.modelName
}

// evaluationSchema mirrors core.Evaluation. Strict mode requires every
// property to be listed as required and extra properties to be refused.
func evaluationSchema() *jsonschema.Definition {
	issue := jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"category":    {Type: jsonschema.String},
			"severity":    {Type: jsonschema.String, Enum: []string{string(core.SeverityError), string(core.SeverityVariant), string(core.SeverityStyle)}},
			"explanation": {Type: jsonschema.String},
			"fix":         {Type: jsonschema.String},
		},
		Required:             []string{"category", "severity", "explanation", "fix"},
		AdditionalProperties: false,
	}

	return &jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"verdict":    {Type: jsonschema.String, Enum: []string{string(core.VerdictCorrect), string(core.VerdictMinor), string(core.VerdictIncorrect)}},
			"meaning":    {Type: jsonschema.String, Enum: []string{string(core.MeaningSame), string(core.MeaningMinorDrift), string(core.MeaningDifferent)}},
			"corrected":  {Type: jsonschema.String},
			"issues":     {Type: jsonschema.Array, Items: &issue},
			"short_rule": {Type: jsonschema.String},
		},
		Required:             []string{"verdict", "meaning", "corrected", "issues", "short_rule"},
		AdditionalProperties: false,
	}
}

// Grade sends the rubric and the rendered prompt to the model and parses its answer
func (g *Grader) Grade(ctx context.Context, prompt *core.GradingPrompt) (*core.Evaluation, error) {
	req := openai.ChatCompletionRequest{
		Model: g.modelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: core.SystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: prompt.UserPrompt()},
		},
		MaxCompletionTokens: g.maxTokens,
		Temperature:         g.temperature,
		TopP:                g.topP,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "evaluation",
				Schema: evaluationSchema(),
				Strict: true,
			},
		},
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to call OpenAI API: %w", err)
	}

	g.logger.Debug("OpenAI grading completed",
		zap.String("model", resp.Model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("duration", time.Since(start)))

	if len(resp.Choices) == 0 {
		return nil, errors.New("empty response from OpenAI")
	}

	msg := resp.Choices[0].Message
	if msg.Content == "" {
		if msg.Refusal != "" {
			return nil, fmt.Errorf("model refused to grade: %s", msg.Refusal)
		}
		return nil, fmt.Errorf("empty content from OpenAI (finish reason %q)", resp.Choices[0].FinishReason)
	}

	return core.ParseEvaluation(msg.Content)
}
