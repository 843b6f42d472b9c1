package gemini

import (
	"errors"

	"github.com/mikey/translation-grader/internal/config"
	"go.uber.org/zap"
)

// Factory creates new instances of Grader
type Factory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFactory creates a new factory for Grader instances
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateGrader creates a new Grader
func (f *Factory) CreateGrader() (*Grader, error) {
	geminiCfg := f.cfg.GetGemini()
	if geminiCfg.APIKey == "" {
		return nil, errors.New("gemini.api_key is not set")
	}

	return NewGrader(
		geminiCfg.APIKey,
		geminiCfg.ModelName,
		geminiCfg.MaxTokens,
		geminiCfg.Temperature,
		geminiCfg.TopP,
		f.logger.Named("gemini"),
	)
}
