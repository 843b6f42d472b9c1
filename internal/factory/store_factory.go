package factory

import (
	"context"
	"fmt"

	"github.com/mikey/translation-grader/internal/adapters/storage"
	"github.com/mikey/translation-grader/internal/config"
	"github.com/mikey/translation-grader/internal/ports"
	"go.uber.org/zap"
)

// StoreFactory creates the feedback and sentence store based on configuration
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateStore opens the configured backend and applies its schema
func (f *StoreFactory) CreateStore(ctx context.Context) (ports.Store, error) {
	cacheCfg := f.cfg.GetCache()
	logger := f.logger.Named("store")

	switch cacheCfg.Type {
	case "memory":
		return storage.NewMemoryStore(logger), nil
	case "sqlite":
		return storage.NewSQLiteStore(ctx, cacheCfg.SQLitePath, logger)
	case "mysql":
		return storage.NewMySQLStore(ctx, cacheCfg.MySQLDSN, logger)
	case "postgres":
		return storage.NewPostgresStore(ctx, cacheCfg.PostgresDSN, logger)
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cacheCfg.Type)
	}
}
