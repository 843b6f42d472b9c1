package ports

import (
	"context"

	"github.com/mikey/translation-grader/internal/core"
)

// Store is the persistent store behind the grading pipeline. It owns the
// feedback cache and serves the curated sentences and gold translations.
type Store interface {
	core.FeedbackRepository
	core.SentenceRepository

	// GoldTranslations returns the gold translations of a sentence in insertion order
	GoldTranslations(ctx context.Context, sentenceID int64) ([]string, error)

	// SeedSentence inserts a sentence and its translations unless present and
	// returns the sentence id and the number of translations added
	SeedSentence(ctx context.Context, level core.Level, sentence string, translations []string) (int64, int, error)

	// AddTranslation adds a gold translation to an existing sentence,
	// or returns core.ErrSentenceNotFound
	AddTranslation(ctx context.Context, sentenceID int64, translation string) (bool, error)

	// GetFeedback returns a feedback entry by id without counting a hit
	GetFeedback(ctx context.Context, id int64) (*core.CacheEntry, error)

	// ListFeedback returns the most recent feedback entries
	ListFeedback(ctx context.Context, limit int) ([]*core.CacheEntry, error)

	// Stats summarises the feedback cache
	Stats(ctx context.Context) (*core.CacheStats, error)

	// Close releases the underlying resources
	Close() error
}
