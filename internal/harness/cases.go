// Package harness runs a JSONL dataset of graded cases through the pipeline
// and checks each evaluation against its expectations.
package harness

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mikey/translation-grader/internal/core"
)

// maxLineBytes bounds one JSONL line
const maxLineBytes = 1 << 20

// Case is one dataset entry
type Case struct {
	ID            string     `json:"id"`
	Level         core.Level `json:"level"`
	English       string     `json:"english"`
	UserNorwegian string     `json:"user_norwegian"`
	SentenceID    *int64     `json:"sentence_id,omitempty"`
	Expect        Expect     `json:"expect"`
}

// Request converts the case into a grading request
func (c *Case) Request() *core.GradingRequest {
	return &core.GradingRequest{
		Level:         c.Level,
		English:       c.English,
		UserNorwegian: c.UserNorwegian,
		SentenceID:    c.SentenceID,
	}
}

// Expect lists the constraints an evaluation must satisfy
type Expect struct {
	VerdictIn   []core.Verdict `json:"verdict_in,omitempty"`
	MeaningIn   []core.Meaning `json:"meaning_in,omitempty"`
	MustHave    []Clause       `json:"must_have,omitempty"`
	MustNotHave []Clause       `json:"must_not_have,omitempty"`
}

// Clause matches against the issues or the whole evaluation
type Clause struct {
	Field string `json:"field,omitempty"`
	Match Match  `json:"match"`
}

// Match is the body of a clause. Count bounds apply to issue clauses only.
type Match struct {
	Severity    core.Severity `json:"severity,omitempty"`
	ContainsAny []string      `json:"contains_any,omitempty"`
	CountMin    *int          `json:"count_min,omitempty"`
	CountMax    *int          `json:"count_max,omitempty"`
	CountEq     *int          `json:"count_eq,omitempty"`
}

// LoadCases reads a JSONL dataset, skipping blank lines
func LoadCases(path string) ([]Case, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	var cases []Case
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var c Case
		if err := json.Unmarshal([]byte(line), &c); err != nil {
			return nil, fmt.Errorf("invalid JSON on line %d in %s: %w", lineno, path, err)
		}
		if c.ID == "" {
			c.ID = fmt.Sprintf("line-%d", lineno)
		}
		cases = append(cases, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	return cases, nil
}
