package storage

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/mikey/translation-grader/internal/core"
	"go.uber.org/zap"
)

// MemoryStore is an in-memory implementation of ports.Store for development and tests
type MemoryStore struct {
	mu           sync.Mutex
	sentences    map[int64]*core.SourceSentence
	translations map[int64][]string
	feedback     map[string]*core.CacheEntry
	byID         map[int64]*core.CacheEntry
	nextSentence int64
	nextFeedback int64
	logger       *zap.Logger
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		sentences:    make(map[int64]*core.SourceSentence),
		translations: make(map[int64][]string),
		feedback:     make(map[string]*core.CacheEntry),
		byID:         make(map[int64]*core.CacheEntry),
		logger:       logger,
	}
}

// Lookup returns the entry for signature and increments its hit count
func (m *MemoryStore) Lookup(ctx context.Context, signature string) (*core.CacheEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.feedback[signature]
	if !ok {
		return nil, core.ErrCacheMiss
	}
	entry.HitCount++
	return copyEntry(entry), nil
}

// Store inserts the entry unless its signature exists
func (m *MemoryStore) Store(ctx context.Context, entry *core.CacheEntry) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.feedback[entry.Signature]; ok {
		return existing.ID, nil
	}

	m.nextFeedback++
	stored := copyEntry(entry)
	stored.ID = m.nextFeedback
	stored.HitCount = 0
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	m.feedback[stored.Signature] = stored
	m.byID[stored.ID] = stored

	m.logger.Debug("Stored feedback entry", zap.Int64("feedback_id", stored.ID))
	return stored.ID, nil
}

// GetFeedback returns a feedback entry by id without counting a hit
func (m *MemoryStore) GetFeedback(ctx context.Context, id int64) (*core.CacheEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.byID[id]
	if !ok {
		return nil, core.ErrCacheMiss
	}
	return copyEntry(entry), nil
}

// ListFeedback returns the most recent feedback entries
func (m *MemoryStore) ListFeedback(ctx context.Context, limit int) ([]*core.CacheEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := make([]*core.CacheEntry, 0, len(m.byID))
	for _, e := range m.byID {
		entries = append(entries, copyEntry(e))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID > entries[j].ID })
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Stats summarises the feedback cache
func (m *MemoryStore) Stats(ctx context.Context) (*core.CacheStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := &core.CacheStats{ByVerdict: make(map[core.Verdict]int64)}
	for _, e := range m.byID {
		stats.Entries++
		stats.TotalHits += e.HitCount
		stats.ByVerdict[e.Verdict]++
	}
	return stats, nil
}

// GetSentence returns a source sentence by id
func (m *MemoryStore) GetSentence(ctx context.Context, id int64) (*core.SourceSentence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sentences[id]
	if !ok {
		return nil, core.ErrSentenceNotFound
	}
	c := *s
	return &c, nil
}

// RandomSentence picks a sentence at level, avoiding avoidID unless it is the only one
func (m *MemoryStore) RandomSentence(ctx context.Context, level core.Level, avoidID int64) (*core.SourceSentence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var all, others []*core.SourceSentence
	for _, s := range m.sentences {
		if s.Level != level {
			continue
		}
		all = append(all, s)
		if s.ID != avoidID {
			others = append(others, s)
		}
	}

	pool := others
	if len(pool) == 0 {
		pool = all
	}
	if len(pool) == 0 {
		return nil, core.ErrSentenceNotFound
	}
	c := *pool[rand.Intn(len(pool))]
	return &c, nil
}

// GoldTranslations returns the gold translations of a sentence in insertion order
func (m *MemoryStore) GoldTranslations(ctx context.Context, sentenceID int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]string(nil), m.translations[sentenceID]...), nil
}

// SeedSentence inserts a sentence and its translations unless present
func (m *MemoryStore) SeedSentence(ctx context.Context, level core.Level, sentence string, translations []string) (int64, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var id int64
	for _, s := range m.sentences {
		if s.Level == level && s.Sentence == sentence {
			id = s.ID
			break
		}
	}
	if id == 0 {
		m.nextSentence++
		id = m.nextSentence
		m.sentences[id] = &core.SourceSentence{ID: id, Level: level, Sentence: sentence}
	}

	added := 0
	for _, t := range translations {
		if m.addTranslationLocked(id, t) {
			added++
		}
	}
	return id, added, nil
}

// AddTranslation adds a gold translation to an existing sentence
func (m *MemoryStore) AddTranslation(ctx context.Context, sentenceID int64, translation string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sentences[sentenceID]; !ok {
		return false, fmt.Errorf("%w: %d", core.ErrSentenceNotFound, sentenceID)
	}
	return m.addTranslationLocked(sentenceID, translation), nil
}

func (m *MemoryStore) addTranslationLocked(sentenceID int64, translation string) bool {
	for _, t := range m.translations[sentenceID] {
		if t == translation {
			return false
		}
	}
	m.translations[sentenceID] = append(m.translations[sentenceID], translation)
	return true
}

// Close is a no-op for the in-memory store
func (m *MemoryStore) Close() error {
	return nil
}

func copyEntry(e *core.CacheEntry) *core.CacheEntry {
	c := *e
	c.EvaluationJSON = append([]byte(nil), e.EvaluationJSON...)
	return &c
}
