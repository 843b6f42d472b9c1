package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest is returned when a caller violates the request contract
	ErrInvalidRequest = errors.New("invalid grading request")
	// ErrGradingService is returned when the qualitative grader fails or returns an invalid evaluation
	ErrGradingService = errors.New("grading service failure")
	// ErrCacheMiss is returned by a FeedbackRepository when no entry has the signature
	ErrCacheMiss = errors.New("cache entry not found")
	// ErrCacheConsistency is returned when a stored entry cannot be read back
	ErrCacheConsistency = errors.New("cache consistency violation")
	// ErrSentenceNotFound is returned when a source sentence does not exist
	ErrSentenceNotFound = errors.New("source sentence not found")
)

// ValidationError reports a grader response that does not satisfy the Evaluation schema
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid evaluation: %s: %s", e.Field, e.Reason)
}
