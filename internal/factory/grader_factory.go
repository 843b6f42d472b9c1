package factory

import (
	"context"
	"fmt"
	"io"

	"github.com/mikey/translation-grader/internal/adapters/bedrock"
	"github.com/mikey/translation-grader/internal/adapters/gemini"
	"github.com/mikey/translation-grader/internal/adapters/openai"
	"github.com/mikey/translation-grader/internal/config"
	"github.com/mikey/translation-grader/internal/core"
	"go.uber.org/zap"
)

// GraderFactory creates qualitative graders
type GraderFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewGraderFactory creates a new grader factory
func NewGraderFactory(cfg *config.Config, logger *zap.Logger) *GraderFactory {
	return &GraderFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateGrader creates a new grader based on the configured provider
func (f *GraderFactory) CreateGrader(ctx context.Context) (core.Grader, error) {
	provider := f.cfg.GetGrader().Provider

	var (
		grader core.Grader
		err    error
	)
	switch provider {
	case "openai":
		grader, err = openai.NewFactory(f.cfg, f.logger).CreateGrader()
	case "gemini":
		grader, err = gemini.NewFactory(f.cfg, f.logger).CreateGrader()
	case "bedrock":
		grader, err = bedrock.NewFactory(f.cfg, f.logger).CreateGrader(ctx)
	default:
		return nil, fmt.Errorf("unsupported grader provider: %s", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s grader: %w", provider, err)
	}

	f.logger.Info("Grader created", zap.String("provider", provider), zap.String("model", grader.ModelID()))
	return grader, nil
}

// CloseGrader releases the client behind grader, if it holds one
func CloseGrader(grader core.Grader) error {
	if closer, ok := grader.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
