package factory

import (
	"github.com/mikey/translation-grader/internal/adapters/languagetool"
	"github.com/mikey/translation-grader/internal/config"
	"github.com/mikey/translation-grader/internal/core"
	"go.uber.org/zap"
)

// CheckerFactory creates the grammar signal adapter
type CheckerFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewCheckerFactory creates a new checker factory
func NewCheckerFactory(cfg *config.Config, logger *zap.Logger) *CheckerFactory {
	return &CheckerFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateGrammarAdapter wraps the configured checker. A disabled checker
// yields an adapter that always reports an unavailable signal.
func (f *CheckerFactory) CreateGrammarAdapter() (*core.GrammarAdapter, error) {
	ltCfg := f.cfg.GetLanguageTool()
	logger := f.logger.Named("grammar")

	if !ltCfg.Enabled {
		logger.Info("Grammar checker disabled")
		return core.NewGrammarAdapter(nil, ltCfg.Timeout, logger), nil
	}

	checker, err := languagetool.NewFactory(f.cfg, logger).CreateGrammarChecker()
	if err != nil {
		return nil, err
	}
	return core.NewGrammarAdapter(checker, ltCfg.Timeout, logger), nil
}
