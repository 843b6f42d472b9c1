package core

import (
	"go.uber.org/zap"
)

// FloorPolicy maps the number of objective grammar matches to a minimum verdict.
// A threshold of zero or less disables that floor.
type FloorPolicy struct {
	MinorAt     int
	IncorrectAt int
}

// DefaultFloorPolicy returns one match for minor, two for incorrect
func DefaultFloorPolicy() FloorPolicy {
	return FloorPolicy{MinorAt: 1, IncorrectAt: 2}
}

// Floor returns the minimum verdict for n objective matches, if any
func (p FloorPolicy) Floor(n int) (Verdict, bool) {
	switch {
	case n <= 0:
		return "", false
	case p.IncorrectAt > 0 && n >= p.IncorrectAt:
		return VerdictIncorrect, true
	case p.MinorAt > 0 && n >= p.MinorAt:
		return VerdictMinor, true
	}
	return "", false
}

// Arbiter merges the grammar signal and the grader draft into the final evaluation
type Arbiter struct {
	policy FloorPolicy
	logger *zap.Logger
}

// NewArbiter creates a new arbiter
func NewArbiter(policy FloorPolicy, logger *zap.Logger) *Arbiter {
	return &Arbiter{
		policy: policy,
		logger: logger,
	}
}

// Merge returns the final evaluation. The draft is not modified.
func (a *Arbiter) Merge(sig Signal, draft *Evaluation) *Evaluation {
	final := draft.Clone()
	objective := len(sig.Objective)

	// Grammar findings take the earliest slots
	issues := append([]Issue(nil), sig.Issues...)
	for _, candidate := range draft.Issues {
		if !containsIssue(issues, candidate) {
			issues = append(issues, candidate)
		}
	}
	issues = capIssues(issues)

	if floor, ok := a.policy.Floor(objective); ok && final.Verdict.rank() < floor.rank() {
		a.logger.Debug("Raising verdict to objective floor",
			zap.String("draft_verdict", string(final.Verdict)),
			zap.String("floor", string(floor)),
			zap.Int("objective_matches", objective))
		final.Verdict = floor
	}

	if len(sig.Issues) > 0 && !anyErrors(issues) {
		var reinjected []Issue
		for _, iss := range sig.Issues {
			if iss.Severity == SeverityError {
				reinjected = append(reinjected, iss)
			}
		}
		if len(reinjected) > 0 {
			issues = capIssues(append(reinjected, issues...))
		}
	}

	if objective == 0 && final.Meaning == MeaningSame && !anyErrors(issues) && final.Verdict != VerdictCorrect {
		a.logger.Debug("No objective evidence against submission, overriding verdict",
			zap.String("draft_verdict", string(final.Verdict)))
		final.Verdict = VerdictCorrect
	}

	final.Issues = issues
	return final
}

func containsIssue(issues []Issue, candidate Issue) bool {
	for _, iss := range issues {
		if iss.sameAs(candidate) {
			return true
		}
	}
	return false
}

func capIssues(issues []Issue) []Issue {
	if issues == nil {
		return []Issue{}
	}
	if len(issues) > MaxIssues {
		return issues[:MaxIssues]
	}
	return issues
}

func anyErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}
