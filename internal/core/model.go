package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MaxIssues is the maximum number of issues an Evaluation may carry
const MaxIssues = 3

// GoldShortRule is the short rule attached to every gold-matched evaluation
const GoldShortRule = "Godkjent: Svaret matcher en lagret fasit (bokmål)."

// Severity classifies how serious an issue is
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityVariant Severity = "variant"
	SeverityStyle   Severity = "style"
)

// Valid reports whether s is a known severity
func (s Severity) Valid() bool {
	switch s {
	case SeverityError, SeverityVariant, SeverityStyle:
		return true
	}
	return false
}

// Verdict is the overall grade of a submission
type Verdict string

const (
	VerdictCorrect   Verdict = "correct"
	VerdictMinor     Verdict = "minor"
	VerdictIncorrect Verdict = "incorrect"
)

// Valid reports whether v is a known verdict
func (v Verdict) Valid() bool {
	return v.rank() >= 0
}

// rank orders verdicts from most to least lenient.
func (v Verdict) rank() int {
	switch v {
	case VerdictCorrect:
		return 0
	case VerdictMinor:
		return 1
	case VerdictIncorrect:
		return 2
	}
	return -1
}

// Meaning classifies how well the submission preserves the source meaning
type Meaning string

const (
	MeaningSame       Meaning = "same"
	MeaningMinorDrift Meaning = "minor_drift"
	MeaningDifferent  Meaning = "different"
)

// Valid reports whether m is a known meaning class
func (m Meaning) Valid() bool {
	switch m {
	case MeaningSame, MeaningMinorDrift, MeaningDifferent:
		return true
	}
	return false
}

// Level is a proficiency tag from the fixed CEFR scale
type Level string

// Levels lists the supported proficiency levels in ascending order
var Levels = []Level{"A1", "A2", "B1", "B2", "C1", "C2"}

// ParseLevel validates a level tag
func ParseLevel(s string) (Level, error) {
	for _, l := range Levels {
		if string(l) == s {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: unknown level %q", ErrInvalidRequest, s)
}

// Issue is one reported problem in a submission
type Issue struct {
	Category    string   `json:"category"`
	Severity    Severity `json:"severity"`
	Explanation string   `json:"explanation"`
	Fix         string   `json:"fix"`
}

// sameAs reports whether two issues describe the same finding
func (i Issue) sameAs(other Issue) bool {
	return i.Category == other.Category && i.Fix == other.Fix
}

// Evaluation is the structured verdict for one submission
type Evaluation struct {
	Verdict   Verdict `json:"verdict"`
	Meaning   Meaning `json:"meaning"`
	Corrected string  `json:"corrected"`
	Issues    []Issue `json:"issues"`
	ShortRule string  `json:"short_rule"`
}

// Clone returns a deep copy of the evaluation
func (e *Evaluation) Clone() *Evaluation {
	if e == nil {
		return nil
	}
	c := *e
	c.Issues = append([]Issue(nil), e.Issues...)
	return &c
}

// HasErrors reports whether any issue has error severity
func (e *Evaluation) HasErrors() bool {
	return anyErrors(e.Issues)
}

// GoldEvaluation builds the fixed evaluation for a submission matching a gold translation
func GoldEvaluation(gold string) *Evaluation {
	return &Evaluation{
		Verdict:   VerdictCorrect,
		Meaning:   MeaningSame,
		Corrected: gold,
		Issues:    []Issue{},
		ShortRule: GoldShortRule,
	}
}

// GradingRequest is the input to the grading pipeline
type GradingRequest struct {
	Level         Level  `json:"level"`
	English       string `json:"english"`
	UserNorwegian string `json:"user_norwegian"`
	SentenceID    *int64 `json:"sentence_id,omitempty"`
}

// Validate checks the caller contract of a grading request
func (r *GradingRequest) Validate() error {
	if _, err := ParseLevel(string(r.Level)); err != nil {
		return err
	}
	if strings.TrimSpace(r.UserNorwegian) == "" {
		return fmt.Errorf("%w: empty submission", ErrInvalidRequest)
	}
	if r.SentenceID != nil && *r.SentenceID <= 0 {
		return fmt.Errorf("%w: sentence id must be positive, got %d", ErrInvalidRequest, *r.SentenceID)
	}
	return nil
}

// GradingPrompt is everything the qualitative grader sees for one submission
type GradingPrompt struct {
	Level          Level
	English        string
	Submission     string
	GrammarSummary string
}

// CacheEntry is a persisted grading result
type CacheEntry struct {
	ID                   int64
	Signature            string
	Level                Level
	SentenceID           int64
	ModelID              string
	PromptVersion        string
	NormalizedSubmission string
	SubmissionHash       string
	Verdict              Verdict
	EvaluationJSON       []byte
	HitCount             int64
	CreatedAt            time.Time
}

// Evaluation decodes the stored evaluation
func (c *CacheEntry) Evaluation() (*Evaluation, error) {
	var ev Evaluation
	if err := json.Unmarshal(c.EvaluationJSON, &ev); err != nil {
		return nil, fmt.Errorf("failed to decode cached evaluation %d: %w", c.ID, err)
	}
	if ev.Issues == nil {
		ev.Issues = []Issue{}
	}
	return &ev, nil
}

// SourceSentence is a curated English sentence learners translate
type SourceSentence struct {
	ID       int64
	Level    Level
	Sentence string
}

// GoldTranslation is a pre-approved translation of a source sentence
type GoldTranslation struct {
	SentenceID  int64
	Translation string
}

// CacheStats summarises the feedback cache
type CacheStats struct {
	Entries   int64
	TotalHits int64
	ByVerdict map[Verdict]int64
}
