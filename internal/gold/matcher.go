package gold

import (
	"context"
	"fmt"

	"github.com/mikey/translation-grader/internal/utils"
	"go.uber.org/zap"
)

// Repository reads the curated gold translations of a sentence
type Repository interface {
	GoldTranslations(ctx context.Context, sentenceID int64) ([]string, error)
}

// Matcher checks submissions against gold translations using comparison normalization
type Matcher struct {
	repo   Repository
	logger *zap.Logger
}

// NewMatcher creates a new gold matcher
func NewMatcher(repo Repository, logger *zap.Logger) *Matcher {
	return &Matcher{
		repo:   repo,
		logger: logger,
	}
}

// Match returns the stored gold translation equal to submission, if any.
// The stored string is returned as is, never normalized.
func (m *Matcher) Match(ctx context.Context, sentenceID int64, submission string) (string, bool, error) {
	golds, err := m.repo.GoldTranslations(ctx, sentenceID)
	if err != nil {
		return "", false, fmt.Errorf("failed to load gold translations for sentence %d: %w", sentenceID, err)
	}
	if len(golds) == 0 {
		return "", false, nil
	}

	want := utils.NormalizeForComparison(submission)
	for _, gold := range golds {
		if utils.NormalizeForComparison(gold) == want {
			m.logger.Debug("Submission matched gold translation",
				zap.Int64("sentence_id", sentenceID),
				zap.String("gold", gold))
			return gold, true, nil
		}
	}

	return "", false, nil
}
