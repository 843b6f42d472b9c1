package languagetool

import (
	"net/http"

	"github.com/mikey/translation-grader/internal/config"
	"github.com/mikey/translation-grader/internal/core"
	"go.uber.org/zap"
)

// Factory creates new instances of Client
type Factory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFactory creates a new factory for LanguageTool clients
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateGrammarChecker creates a new LanguageTool client. The timeout is
// enforced by the grammar adapter, the transport only bounds stuck connections.
func (f *Factory) CreateGrammarChecker() (core.GrammarChecker, error) {
	ltCfg := f.cfg.GetLanguageTool()

	return NewClient(
		ltCfg.Endpoint,
		ltCfg.Language,
		&http.Client{Timeout: 2 * ltCfg.Timeout},
		f.logger,
	), nil
}
