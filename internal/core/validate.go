package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseEvaluation decodes a grader response and validates it.
// Text around the JSON object is tolerated.
func ParseEvaluation(raw string) (*Evaluation, error) {
	var ev Evaluation
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		start := strings.IndexByte(raw, '{')
		end := strings.LastIndexByte(raw, '}')
		if start < 0 || end <= start {
			return nil, &ValidationError{Field: "response", Reason: "no JSON object found"}
		}
		ev = Evaluation{}
		if err := json.Unmarshal([]byte(raw[start:end+1]), &ev); err != nil {
			return nil, &ValidationError{Field: "response", Reason: fmt.Sprintf("malformed JSON: %v", err)}
		}
	}

	if err := ev.Validate(); err != nil {
		return nil, err
	}
	if ev.Issues == nil {
		ev.Issues = []Issue{}
	}
	return &ev, nil
}

// Validate checks the evaluation against its schema.
// Any failure is a *ValidationError.
func (e *Evaluation) Validate() error {
	if !e.Verdict.Valid() {
		return &ValidationError{Field: "verdict", Reason: fmt.Sprintf("unknown value %q", e.Verdict)}
	}
	if !e.Meaning.Valid() {
		return &ValidationError{Field: "meaning", Reason: fmt.Sprintf("unknown value %q", e.Meaning)}
	}
	if strings.TrimSpace(e.Corrected) == "" {
		return &ValidationError{Field: "corrected", Reason: "must not be empty"}
	}
	if len(e.Issues) > MaxIssues {
		return &ValidationError{Field: "issues", Reason: fmt.Sprintf("%d issues, at most %d allowed", len(e.Issues), MaxIssues)}
	}
	for i, iss := range e.Issues {
		if !iss.Severity.Valid() {
			return &ValidationError{
				Field:  fmt.Sprintf("issues[%d].severity", i),
				Reason: fmt.Sprintf("unknown value %q", iss.Severity),
			}
		}
	}
	return nil
}
