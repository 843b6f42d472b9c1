package di

import (
	"context"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/translation-grader/internal/config"
	"github.com/mikey/translation-grader/internal/core"
	"github.com/mikey/translation-grader/internal/factory"
	"github.com/mikey/translation-grader/internal/gold"
	"github.com/mikey/translation-grader/internal/logging"
	"github.com/mikey/translation-grader/internal/ports"
	"github.com/mikey/translation-grader/internal/utils"
)

// BuildContainer creates the container for the long-running server. The
// logger follows the logging section of the configuration.
func BuildContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}
	if err := container.Provide(loadConfig); err != nil {
		return nil, err
	}
	if err := container.Provide(func(cfg *config.Config, flags *CLIFlags) (*zap.Logger, error) {
		if flags.Verbose {
			cfg.Set("logging.level", "debug")
		}
		return logging.InitLogger(cfg)
	}); err != nil {
		return nil, err
	}

	if err := providePipeline(container); err != nil {
		return nil, err
	}
	return container, nil
}

// BuildCLIContainer creates the container for one-shot commands, logging to
// the console at warn level unless verbose.
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}
	if err := container.Provide(loadConfig); err != nil {
		return nil, err
	}
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	if err := providePipeline(container); err != nil {
		return nil, err
	}
	return container, nil
}

// providePipeline registers the factories and every pipeline component.
// Components are built lazily, so commands that never grade need no API key.
func providePipeline(container *dig.Container) error {
	providers := []interface{}{
		// Factories
		factory.NewGraderFactory,
		factory.NewStoreFactory,
		factory.NewCheckerFactory,
		factory.NewTextProcessorFactory,
		factory.NewSurfaceFactory,

		// Grader
		func(f *factory.GraderFactory) (core.Grader, error) {
			return f.CreateGrader(context.Background())
		},

		// Store
		func(f *factory.StoreFactory) (ports.Store, error) {
			return f.CreateStore(context.Background())
		},

		// Grammar signal
		func(f *factory.CheckerFactory) (*core.GrammarAdapter, error) {
			return f.CreateGrammarAdapter()
		},

		// Arbitration thresholds
		func(cfg *config.Config, logger *zap.Logger) (*core.Arbiter, error) {
			arb, err := cfg.GetArbitration()
			if err != nil {
				return nil, err
			}
			policy := core.FloorPolicy{MinorAt: arb.MinorFloorAt, IncorrectAt: arb.IncorrectFloorAt}
			return core.NewArbiter(policy, logger.Named("arbiter")), nil
		},

		// Gold matcher
		func(store ports.Store, logger *zap.Logger) core.GoldMatcher {
			return gold.NewMatcher(store, logger.Named("gold"))
		},

		// Text processor
		func(f *factory.TextProcessorFactory) *utils.TextProcessor {
			return f.CreateTextProcessor()
		},

		// Grading service
		func(
			cfg *config.Config,
			grader core.Grader,
			grammar *core.GrammarAdapter,
			arbiter *core.Arbiter,
			goldMatcher core.GoldMatcher,
			store ports.Store,
			textProcessor *utils.TextProcessor,
			logger *zap.Logger,
		) *core.Service {
			cacheCfg := cfg.GetCache()
			return core.NewService(
				grader,
				grammar,
				arbiter,
				goldMatcher,
				store,
				store,
				textProcessor,
				logger.Named("service"),
				core.ServiceOptions{
					PromptVersion:     cfg.GetGrader().PromptVersion,
					CacheEnabled:      cacheCfg.Enabled,
					Coalesce:          cacheCfg.Coalesce,
					MaxSubmissionSize: cfg.GetInt("submission.max_size"),
				},
			)
		},

		// Outer surface
		func(f *factory.SurfaceFactory) (ports.Surface, error) {
			return f.CreateSurface()
		},
	}

	for _, p := range providers {
		if err := container.Provide(p); err != nil {
			return err
		}
	}
	return nil
}
