package core

import (
	"context"
	"sync"
	"sync/atomic"
)

type mockGrader struct {
	modelID   string
	gradeFunc func(ctx context.Context, prompt *GradingPrompt) (*Evaluation, error)
	calls     atomic.Int32
	lastMu    sync.Mutex
	last      *GradingPrompt
}

func (m *mockGrader) Grade(ctx context.Context, prompt *GradingPrompt) (*Evaluation, error) {
	m.calls.Add(1)
	m.lastMu.Lock()
	m.last = prompt
	m.lastMu.Unlock()
	if m.gradeFunc != nil {
		return m.gradeFunc(ctx, prompt)
	}
	return &Evaluation{
		Verdict:   VerdictCorrect,
		Meaning:   MeaningSame,
		Corrected: prompt.Submission,
		Issues:    []Issue{},
		ShortRule: "Bra.",
	}, nil
}

func (m *mockGrader) ModelID() string {
	if m.modelID == "" {
		return "mock-model"
	}
	return m.modelID
}

type mockChecker struct {
	language  string
	checkFunc func(ctx context.Context, text string) ([]RawMatch, error)
	calls     atomic.Int32
}

func (m *mockChecker) Check(ctx context.Context, text string) ([]RawMatch, error) {
	m.calls.Add(1)
	if m.checkFunc != nil {
		return m.checkFunc(ctx, text)
	}
	return nil, nil
}

func (m *mockChecker) Language() string {
	if m.language == "" {
		return "nb"
	}
	return m.language
}

type mockGold struct {
	golds map[int64][]string
	match func(a, b string) bool
}

func (m *mockGold) Match(ctx context.Context, sentenceID int64, submission string) (string, bool, error) {
	for _, g := range m.golds[sentenceID] {
		if m.match(g, submission) {
			return g, true, nil
		}
	}
	return "", false, nil
}

// memoryFeedback mirrors the storage contract: insert-if-absent, increment on hit
type memoryFeedback struct {
	mu      sync.Mutex
	nextID  int64
	entries map[string]*CacheEntry
	stores  int
}

func newMemoryFeedback() *memoryFeedback {
	return &memoryFeedback{entries: make(map[string]*CacheEntry)}
}

func (m *memoryFeedback) Lookup(ctx context.Context, signature string) (*CacheEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[signature]
	if !ok {
		return nil, ErrCacheMiss
	}
	e.HitCount++
	c := *e
	return &c, nil
}

func (m *memoryFeedback) Store(ctx context.Context, entry *CacheEntry) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stores++
	if e, ok := m.entries[entry.Signature]; ok {
		return e.ID, nil
	}
	m.nextID++
	c := *entry
	c.ID = m.nextID
	m.entries[entry.Signature] = &c
	return c.ID, nil
}

func (m *memoryFeedback) hitCount(signature string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[signature]; ok {
		return e.HitCount
	}
	return -1
}

type mockSentences struct {
	sentences map[int64]*SourceSentence
}

func (m *mockSentences) GetSentence(ctx context.Context, id int64) (*SourceSentence, error) {
	if s, ok := m.sentences[id]; ok {
		return s, nil
	}
	return nil, ErrSentenceNotFound
}

func (m *mockSentences) RandomSentence(ctx context.Context, level Level, avoidID int64) (*SourceSentence, error) {
	var fallback *SourceSentence
	for _, s := range m.sentences {
		if s.Level != level {
			continue
		}
		if s.ID != avoidID {
			return s, nil
		}
		fallback = s
	}
	if fallback == nil {
		return nil, ErrSentenceNotFound
	}
	return fallback, nil
}

func objectiveMatch(offset, length int, replacement string) RawMatch {
	return RawMatch{
		Offset:       offset,
		Length:       length,
		Message:      "Mulig stavefeil.",
		IssueType:    "misspelling",
		CategoryID:   "TYPOS",
		Replacements: []string{replacement},
	}
}

func styleMatch(offset, length int, replacement string) RawMatch {
	return RawMatch{
		Offset:       offset,
		Length:       length,
		Message:      "Vurder en annen formulering.",
		IssueType:    "style",
		CategoryID:   "STYLE",
		Replacements: []string{replacement},
	}
}
