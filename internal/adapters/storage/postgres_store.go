package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

// NewPostgresStore connects to PostgreSQL through the pgx stdlib driver
func NewPostgresStore(ctx context.Context, dsn string, logger *zap.Logger) (*SQLStore, error) {
	db, err := sql.Open(postgresDialect.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	store, err := newSQLStore(ctx, db, postgresDialect, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("Connected to PostgreSQL store")
	return store, nil
}
