package core

import (
	"context"
)

// Grader defines the interface for the qualitative grading language model
type Grader interface {
	// Grade judges one submission and returns a draft evaluation
	Grade(ctx context.Context, prompt *GradingPrompt) (*Evaluation, error)

	// ModelID identifies the model, it is part of every cache signature
	ModelID() string
}

// GrammarChecker defines the interface for the external rule-based checker
type GrammarChecker interface {
	// Check returns the raw matches the checker reports for text
	Check(ctx context.Context, text string) ([]RawMatch, error)

	// Language returns the checker language, it is part of every cache signature
	Language() string
}

// GoldMatcher looks up a submission among the gold translations of a sentence
type GoldMatcher interface {
	// Match returns the stored gold translation equal to submission, if any
	Match(ctx context.Context, sentenceID int64, submission string) (string, bool, error)
}

// FeedbackRepository defines the interface for the content-addressed result cache
type FeedbackRepository interface {
	// Lookup returns the entry for signature and increments its hit count,
	// or ErrCacheMiss
	Lookup(ctx context.Context, signature string) (*CacheEntry, error)

	// Store inserts the entry unless its signature exists and returns the
	// identifier of the stored row
	Store(ctx context.Context, entry *CacheEntry) (int64, error)
}

// SentenceRepository defines the interface for reading curated source sentences
type SentenceRepository interface {
	// GetSentence returns a sentence by id, or ErrSentenceNotFound
	GetSentence(ctx context.Context, id int64) (*SourceSentence, error)

	// RandomSentence picks a sentence at level, avoiding avoidID when another exists
	RandomSentence(ctx context.Context, level Level, avoidID int64) (*SourceSentence, error)
}
