package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mikey/translation-grader/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ServiceOptions tunes the grading pipeline
type ServiceOptions struct {
	PromptVersion     string
	CacheEnabled      bool
	Coalesce          bool
	MaxSubmissionSize int
}

// Service is the grading pipeline: gold check, cache, grammar signal, grader, arbitration
type Service struct {
	grader        Grader
	grammar       *GrammarAdapter
	arbiter       *Arbiter
	gold          GoldMatcher
	feedback      FeedbackRepository
	sentences     SentenceRepository
	textProcessor *utils.TextProcessor
	logger        *zap.Logger
	opts          ServiceOptions

	inflight singleflight.Group
}

// NewService creates a new grading service
func NewService(
	grader Grader,
	grammar *GrammarAdapter,
	arbiter *Arbiter,
	gold GoldMatcher,
	feedback FeedbackRepository,
	sentences SentenceRepository,
	textProcessor *utils.TextProcessor,
	logger *zap.Logger,
	opts ServiceOptions,
) *Service {
	if opts.PromptVersion == "" {
		opts.PromptVersion = DefaultPromptVersion
	}
	return &Service{
		grader:        grader,
		grammar:       grammar,
		arbiter:       arbiter,
		gold:          gold,
		feedback:      feedback,
		sentences:     sentences,
		textProcessor: textProcessor,
		logger:        logger,
		opts:          opts,
	}
}

type outcome struct {
	evaluation *Evaluation
	id         int64
}

// Evaluate grades one submission. The feedback id is nil for requests
// without a sentence id, and whenever caching is disabled.
func (s *Service) Evaluate(ctx context.Context, req *GradingRequest) (*Evaluation, *int64, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}

	// The signature covers the whole submission; only the prompt is truncated
	fullSubmission := s.textProcessor.SanitizeUTF8(req.UserNorwegian)
	submission := s.textProcessor.ProcessText(req.UserNorwegian, s.opts.MaxSubmissionSize)

	english, err := s.resolveEnglish(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	if req.SentenceID == nil {
		ev, err := s.grade(ctx, req.Level, english, submission)
		if err != nil {
			return nil, nil, err
		}
		s.logger.Info("Graded anonymous submission",
			zap.String("level", string(req.Level)),
			zap.String("verdict", string(ev.Verdict)))
		return ev, nil, nil
	}

	sentenceID := *req.SentenceID
	parts := SignatureParts{
		Level:           req.Level,
		SentenceID:      sentenceID,
		ModelID:         s.grader.ModelID(),
		PromptVersion:   s.opts.PromptVersion,
		Submission:      fullSubmission,
		CheckerLanguage: s.grammar.Language(),
	}
	signature := parts.Signature()

	if s.gold != nil {
		gold, ok, err := s.gold.Match(ctx, sentenceID, submission)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to match gold translations: %w", err)
		}
		if ok {
			s.logger.Info("Submission matches gold translation",
				zap.Int64("sentence_id", sentenceID),
				zap.String("action", "gold_bypass"))
			return s.finish(ctx, parts, signature, GoldEvaluation(gold))
		}
	}

	if s.opts.CacheEnabled {
		ev, id, err := s.lookup(ctx, signature)
		if err == nil {
			return ev, &id, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			return nil, nil, err
		}
	}

	if !s.opts.Coalesce {
		ev, err := s.grade(ctx, req.Level, english, submission)
		if err != nil {
			return nil, nil, err
		}
		return s.finish(ctx, parts, signature, ev)
	}

	// The shared call must not inherit the cancellation of whichever caller started it
	flightCtx := context.WithoutCancel(ctx)
	ch := s.inflight.DoChan(signature, func() (interface{}, error) {
		ev, err := s.grade(flightCtx, req.Level, english, submission)
		if err != nil {
			return nil, err
		}
		ev, id, err := s.finish(flightCtx, parts, signature, ev)
		if err != nil {
			return nil, err
		}
		out := outcome{evaluation: ev}
		if id != nil {
			out.id = *id
		}
		return out, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
	if res.Err != nil {
		return nil, nil, res.Err
	}
	if res.Shared {
		s.logger.Debug("Shared in-flight grading", zap.String("signature", signature))
	}

	out := res.Val.(outcome)
	if !s.opts.CacheEnabled {
		return out.evaluation.Clone(), nil, nil
	}
	id := out.id
	return out.evaluation.Clone(), &id, nil
}

// Submit grades a submission for a curated sentence. A missing sentence id is
// a caller error.
func (s *Service) Submit(ctx context.Context, req *GradingRequest) (*Evaluation, int64, error) {
	if req.SentenceID == nil {
		return nil, 0, fmt.Errorf("%w: sentence id is required", ErrInvalidRequest)
	}
	ev, id, err := s.Evaluate(ctx, req)
	if err != nil {
		return nil, 0, err
	}
	if id == nil {
		return ev, 0, nil
	}
	return ev, *id, nil
}

// NextSentence picks a practice sentence at level, avoiding avoidID when possible
func (s *Service) NextSentence(ctx context.Context, level Level, avoidID int64) (*SourceSentence, error) {
	if _, err := ParseLevel(string(level)); err != nil {
		return nil, err
	}
	if s.sentences == nil {
		return nil, ErrSentenceNotFound
	}
	return s.sentences.RandomSentence(ctx, level, avoidID)
}

func (s *Service) resolveEnglish(ctx context.Context, req *GradingRequest) (string, error) {
	if english := strings.TrimSpace(req.English); english != "" {
		return english, nil
	}
	if req.SentenceID == nil || s.sentences == nil {
		return "", fmt.Errorf("%w: english source text is required", ErrInvalidRequest)
	}

	sentence, err := s.sentences.GetSentence(ctx, *req.SentenceID)
	if err != nil {
		if errors.Is(err, ErrSentenceNotFound) {
			return "", fmt.Errorf("%w: sentence %d: %w", ErrInvalidRequest, *req.SentenceID, err)
		}
		return "", fmt.Errorf("failed to resolve sentence %d: %w", *req.SentenceID, err)
	}
	return sentence.Sentence, nil
}

func (s *Service) lookup(ctx context.Context, signature string) (*Evaluation, int64, error) {
	entry, err := s.feedback.Lookup(ctx, signature)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			s.logger.Debug("Cache miss", zap.String("signature", signature))
			return nil, 0, err
		}
		return nil, 0, fmt.Errorf("failed to look up cached evaluation: %w", err)
	}

	ev, err := entry.Evaluation()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrCacheConsistency, err)
	}

	s.logger.Debug("Cache hit",
		zap.String("signature", signature),
		zap.Int64("feedback_id", entry.ID),
		zap.Int64("hit_count", entry.HitCount))
	return ev, entry.ID, nil
}

// grade runs the grammar signal, the grader and arbitration
func (s *Service) grade(ctx context.Context, level Level, english, submission string) (*Evaluation, error) {
	signal := s.grammar.Collect(ctx, submission)

	prompt := &GradingPrompt{
		Level:          level,
		English:        english,
		Submission:     submission,
		GrammarSummary: signal.Summary(submission),
	}

	draft, err := s.grader.Grade(ctx, prompt)
	if err != nil {
		s.logger.Error("Grader failed",
			zap.String("model", s.grader.ModelID()),
			zap.Error(err))
		if errors.Is(err, ErrGradingService) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrGradingService, err)
	}
	if draft == nil {
		return nil, fmt.Errorf("%w: %w", ErrGradingService, &ValidationError{Field: "response", Reason: "empty evaluation"})
	}
	if err := draft.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGradingService, err)
	}

	final := s.arbiter.Merge(signal, draft)
	s.logger.Debug("Arbitrated evaluation",
		zap.String("draft_verdict", string(draft.Verdict)),
		zap.String("verdict", string(final.Verdict)),
		zap.Int("objective_matches", len(signal.Objective)),
		zap.Int("issues", len(final.Issues)))
	return final, nil
}

// finish persists ev under signature when caching is enabled
func (s *Service) finish(ctx context.Context, parts SignatureParts, signature string, ev *Evaluation) (*Evaluation, *int64, error) {
	if !s.opts.CacheEnabled {
		return ev, nil, nil
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode evaluation: %w", err)
	}

	normalized, hash := SubmissionKey(parts.Submission)
	id, err := s.feedback.Store(ctx, &CacheEntry{
		Signature:            signature,
		Level:                parts.Level,
		SentenceID:           parts.SentenceID,
		ModelID:              parts.ModelID,
		PromptVersion:        parts.PromptVersion,
		NormalizedSubmission: normalized,
		SubmissionHash:       hash,
		Verdict:              ev.Verdict,
		EvaluationJSON:       payload,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to store evaluation: %w", err)
	}

	s.logger.Info("Stored evaluation",
		zap.Int64("feedback_id", id),
		zap.Int64("sentence_id", parts.SentenceID),
		zap.String("verdict", string(ev.Verdict)))
	return ev, &id, nil
}
