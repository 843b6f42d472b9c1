package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/mikey/translation-grader/internal/core"
	"go.uber.org/zap"
)

var (
	feedbackColumns = []string{
		"id", "signature", "level", "sentence_id", "model_id", "prompt_version",
		"translation_norm", "translation_hash", "verdict", "feedback_json", "hit_count", "created_at",
	}
	sentenceColumns = []string{"id", "level", "sentence"}
)

// SQLStore is a database/sql implementation of ports.Store shared by all SQL engines
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	sb      sq.StatementBuilderType
	logger  *zap.Logger
}

func newSQLStore(ctx context.Context, db *sql.DB, d dialect, logger *zap.Logger) (*SQLStore, error) {
	for _, stmt := range d.schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to create %s schema: %w", d.name, err)
		}
	}

	return &SQLStore{
		db:      db,
		dialect: d,
		sb:      sq.StatementBuilder.PlaceholderFormat(d.placeholder),
		logger:  logger,
	}, nil
}

// Lookup returns the entry for signature and increments its hit count
func (s *SQLStore) Lookup(ctx context.Context, signature string) (*core.CacheEntry, error) {
	return withTx(ctx, s.db, func(tx *sql.Tx) (*core.CacheEntry, error) {
		query, args, err := s.sb.Update(feedbackTable).
			Set("hit_count", sq.Expr("hit_count + 1")).
			Where(sq.Eq{"signature": signature}).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("failed to build hit update: %w", err)
		}

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to increment hit count: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to read affected rows: %w", err)
		}
		if n == 0 {
			return nil, core.ErrCacheMiss
		}

		entry, err := s.feedbackWhere(ctx, tx, sq.Eq{"signature": signature})
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: signature %s vanished after hit", core.ErrCacheConsistency, signature)
		}
		return entry, err
	})
}

// Store inserts the entry unless its signature exists and returns the stored row's id
func (s *SQLStore) Store(ctx context.Context, entry *core.CacheEntry) (int64, error) {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	return withTx(ctx, s.db, func(tx *sql.Tx) (int64, error) {
		insert := s.sb.Insert(feedbackTable).
			Columns(feedbackColumns[1:]...).
			Values(
				entry.Signature,
				string(entry.Level),
				entry.SentenceID,
				entry.ModelID,
				entry.PromptVersion,
				entry.NormalizedSubmission,
				entry.SubmissionHash,
				string(entry.Verdict),
				string(entry.EvaluationJSON),
				0,
				createdAt,
			)
		query, args, err := s.dialect.insertIgnore(insert).ToSql()
		if err != nil {
			return 0, fmt.Errorf("failed to build feedback insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("failed to insert feedback: %w", err)
		}

		query, args, err = s.sb.Select("id").From(feedbackTable).Where(sq.Eq{"signature": entry.Signature}).ToSql()
		if err != nil {
			return 0, fmt.Errorf("failed to build feedback read-back: %w", err)
		}

		var id int64
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return 0, fmt.Errorf("%w: no row for signature %s after insert", core.ErrCacheConsistency, entry.Signature)
			}
			return 0, fmt.Errorf("failed to read back feedback id: %w", err)
		}
		return id, nil
	})
}

// GetFeedback returns a feedback entry by id without counting a hit
func (s *SQLStore) GetFeedback(ctx context.Context, id int64) (*core.CacheEntry, error) {
	entry, err := s.feedbackWhere(ctx, s.db, sq.Eq{"id": id})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrCacheMiss
	}
	return entry, err
}

// ListFeedback returns the most recent feedback entries
func (s *SQLStore) ListFeedback(ctx context.Context, limit int) ([]*core.CacheEntry, error) {
	q := s.sb.Select(feedbackColumns...).From(feedbackTable).OrderBy("id DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build feedback listing: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	entries := make([]*core.CacheEntry, 0)
	for rows.Next() {
		entry, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feedback: %w", err)
	}
	return entries, nil
}

// Stats summarises the feedback cache
func (s *SQLStore) Stats(ctx context.Context) (*core.CacheStats, error) {
	query, args, err := s.sb.Select("verdict", "COUNT(*)", "COALESCE(SUM(hit_count), 0)").
		From(feedbackTable).
		GroupBy("verdict").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build stats query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	stats := &core.CacheStats{ByVerdict: make(map[core.Verdict]int64)}
	for rows.Next() {
		var verdict string
		var count, hits int64
		if err := rows.Scan(&verdict, &count, &hits); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}
		stats.ByVerdict[core.Verdict(verdict)] = count
		stats.Entries += count
		stats.TotalHits += hits
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stats: %w", err)
	}
	return stats, nil
}

// GetSentence returns a source sentence by id
func (s *SQLStore) GetSentence(ctx context.Context, id int64) (*core.SourceSentence, error) {
	query, args, err := s.sb.Select(sentenceColumns...).From(sentencesTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sentence query: %w", err)
	}

	sentence, err := scanSentence(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrSentenceNotFound
	}
	return sentence, err
}

// RandomSentence picks a sentence at level, avoiding avoidID unless it is the only one
func (s *SQLStore) RandomSentence(ctx context.Context, level core.Level, avoidID int64) (*core.SourceSentence, error) {
	base := s.sb.Select(sentenceColumns...).
		From(sentencesTable).
		Where(sq.Eq{"level": string(level)}).
		OrderBy(s.dialect.random).
		Limit(1)

	candidates := []sq.SelectBuilder{base}
	if avoidID > 0 {
		candidates = []sq.SelectBuilder{base.Where(sq.NotEq{"id": avoidID}), base}
	}

	for _, q := range candidates {
		query, args, err := q.ToSql()
		if err != nil {
			return nil, fmt.Errorf("failed to build random sentence query: %w", err)
		}
		sentence, err := scanSentence(s.db.QueryRowContext(ctx, query, args...))
		if err == nil {
			return sentence, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}
	return nil, core.ErrSentenceNotFound
}

// GoldTranslations returns the gold translations of a sentence in insertion order
func (s *SQLStore) GoldTranslations(ctx context.Context, sentenceID int64) ([]string, error) {
	query, args, err := s.sb.Select("translation").
		From(translationsTable).
		Where(sq.Eq{"sentence_id": sentenceID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build gold query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query gold translations: %w", err)
	}
	defer rows.Close()

	var golds []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan gold translation: %w", err)
		}
		golds = append(golds, t)
	}
	return golds, rows.Err()
}

// SeedSentence inserts a sentence and its translations unless present
func (s *SQLStore) SeedSentence(ctx context.Context, level core.Level, sentence string, translations []string) (int64, int, error) {
	type seeded struct {
		id    int64
		added int
	}

	res, err := withTx(ctx, s.db, func(tx *sql.Tx) (seeded, error) {
		insert := s.sb.Insert(sentencesTable).Columns("level", "sentence").Values(string(level), sentence)
		query, args, err := s.dialect.insertIgnore(insert).ToSql()
		if err != nil {
			return seeded{}, fmt.Errorf("failed to build sentence insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return seeded{}, fmt.Errorf("failed to insert sentence: %w", err)
		}

		query, args, err = s.sb.Select("id").
			From(sentencesTable).
			Where(sq.Eq{"level": string(level), "sentence": sentence}).
			ToSql()
		if err != nil {
			return seeded{}, fmt.Errorf("failed to build sentence read-back: %w", err)
		}

		var out seeded
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&out.id); err != nil {
			return seeded{}, fmt.Errorf("failed to read back sentence id: %w", err)
		}

		for _, t := range translations {
			added, err := s.insertTranslation(ctx, tx, out.id, t)
			if err != nil {
				return seeded{}, err
			}
			if added {
				out.added++
			}
		}
		return out, nil
	})
	if err != nil {
		return 0, 0, err
	}
	return res.id, res.added, nil
}

// AddTranslation adds a gold translation to an existing sentence
func (s *SQLStore) AddTranslation(ctx context.Context, sentenceID int64, translation string) (bool, error) {
	return withTx(ctx, s.db, func(tx *sql.Tx) (bool, error) {
		return s.insertTranslation(ctx, tx, sentenceID, translation)
	})
}

func (s *SQLStore) insertTranslation(ctx context.Context, tx *sql.Tx, sentenceID int64, translation string) (bool, error) {
	insert := s.sb.Insert(translationsTable).Columns("sentence_id", "translation").Values(sentenceID, translation)
	query, args, err := s.dialect.insertIgnore(insert).ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build translation insert: %w", err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		if s.dialect.foreignKeyViolation(err) {
			return false, fmt.Errorf("%w: %d", core.ErrSentenceNotFound, sentenceID)
		}
		return false, fmt.Errorf("failed to insert translation: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n > 0 {
		return true, nil
	}

	// MySQL downgrades foreign key failures to warnings under INSERT IGNORE
	query, args, err = s.sb.Select("COUNT(*)").From(sentencesTable).Where(sq.Eq{"id": sentenceID}).ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build sentence check: %w", err)
	}
	var count int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check sentence: %w", err)
	}
	if count == 0 {
		return false, fmt.Errorf("%w: %d", core.ErrSentenceNotFound, sentenceID)
	}
	return false, nil
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close database", zap.String("dialect", s.dialect.name), zap.Error(err))
		return err
	}
	return nil
}

func (s *SQLStore) feedbackWhere(ctx context.Context, q querier, pred sq.Eq) (*core.CacheEntry, error) {
	query, args, err := s.sb.Select(feedbackColumns...).From(feedbackTable).Where(pred).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build feedback query: %w", err)
	}
	return scanFeedback(q.QueryRowContext(ctx, query, args...))
}

func scanFeedback(row scanner) (*core.CacheEntry, error) {
	var e core.CacheEntry
	var level, verdict string
	err := row.Scan(
		&e.ID, &e.Signature, &level, &e.SentenceID, &e.ModelID, &e.PromptVersion,
		&e.NormalizedSubmission, &e.SubmissionHash, &verdict, &e.EvaluationJSON, &e.HitCount, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan feedback: %w", err)
	}
	e.Level = core.Level(level)
	e.Verdict = core.Verdict(verdict)
	return &e, nil
}

func scanSentence(row scanner) (*core.SourceSentence, error) {
	var s core.SourceSentence
	var level string
	if err := row.Scan(&s.ID, &level, &s.Sentence); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan sentence: %w", err)
	}
	s.Level = core.Level(level)
	return &s, nil
}
