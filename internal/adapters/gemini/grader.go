package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/mikey/translation-grader/internal/core"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Grader is an implementation of the core.Grader interface using Google Gemini
type Grader struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
	logger    *zap.Logger
}

// NewGrader creates a new Gemini grader
func NewGrader(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) (*Grader, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	if topP > 0 {
		model.SetTopP(topP)
	}
	model.SetMaxOutputTokens(int32(maxTokens))
	configureModel(model)

	return &Grader{
		client:    client,
		model:     model,
		modelName: modelName,
		logger:    logger,
	}, nil
}

// configureModel installs the rubric and constrains output to the evaluation schema
func configureModel(model *genai.GenerativeModel) {
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(core.SystemPrompt())}}
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = evaluationSchema()
}

func evaluationSchema() *genai.Schema {
	str := func() *genai.Schema { return &genai.Schema{Type: genai.TypeString} }
	enum := func(values ...string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Format: "enum", Enum: values}
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"verdict":   enum(string(core.VerdictCorrect), string(core.VerdictMinor), string(core.VerdictIncorrect)),
			"meaning":   enum(string(core.MeaningSame), string(core.MeaningMinorDrift), string(core.MeaningDifferent)),
			"corrected": str(),
			"issues": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"category":    str(),
						"severity":    enum(string(core.SeverityError), string(core.SeverityVariant), string(core.SeverityStyle)),
						"explanation": str(),
						"fix":         str(),
					},
					Required: []string{"category", "severity", "explanation", "fix"},
				},
			},
			"short_rule": str(),
		},
		Required: []string{"verdict", "meaning", "corrected", "issues", "short_rule"},
	}
}

// ModelID returns the configured model name
func (g *Grader) ModelID() string {
	return g.modelName
}

// Grade sends the rendered prompt to Gemini and parses its answer
func (g *Grader) Grade(ctx context.Context, prompt *core.GradingPrompt) (*core.Evaluation, error) {
	start := time.Now()
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt.UserPrompt()))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	if resp.UsageMetadata != nil {
		g.logger.Debug("Gemini grading completed",
			zap.Int32("prompt_tokens", resp.UsageMetadata.PromptTokenCount),
			zap.Int32("candidate_tokens", resp.UsageMetadata.CandidatesTokenCount),
			zap.Duration("duration", time.Since(start)))
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}
	return core.ParseEvaluation(text)
}

// responseText concatenates the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("empty response from Gemini")
	}

	cand := resp.Candidates[0]
	if cand.Content == nil {
		return "", fmt.Errorf("no content in Gemini response (finish reason %s)", cand.FinishReason)
	}

	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("no text parts in Gemini response")
	}
	return sb.String(), nil
}

// Close closes the Gemini client
func (g *Grader) Close() error {
	return g.client.Close()
}
