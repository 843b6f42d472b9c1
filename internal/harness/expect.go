package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mikey/translation-grader/internal/core"
)

const (
	fieldIssues     = "issues"
	fieldEvaluation = "evaluation"
)

// Check returns one message per violated expectation
func Check(ev *core.Evaluation, expect Expect) []string {
	var failures []string

	if len(expect.MeaningIn) > 0 && !slices.Contains(expect.MeaningIn, ev.Meaning) {
		failures = append(failures, fmt.Sprintf("meaning=%s not in %v", ev.Meaning, expect.MeaningIn))
	}
	if len(expect.VerdictIn) > 0 && !slices.Contains(expect.VerdictIn, ev.Verdict) {
		failures = append(failures, fmt.Sprintf("verdict=%s not in %v", ev.Verdict, expect.VerdictIn))
	}

	for _, clause := range expect.MustHave {
		ok, err := clause.matches(ev)
		if err != nil {
			failures = append(failures, fmt.Sprintf("must_have: %v", err))
			continue
		}
		if !ok {
			failures = append(failures, fmt.Sprintf("must_have failed: %s", clause))
		}
	}

	for _, clause := range expect.MustNotHave {
		hit, err := clause.matches(ev)
		if err != nil {
			failures = append(failures, fmt.Sprintf("must_not_have: %v", err))
			continue
		}
		if hit {
			failures = append(failures, fmt.Sprintf("must_not_have failed (found match): %s", clause))
		}
	}

	return failures
}

func (c Clause) String() string {
	return fmt.Sprintf("field=%s match={%s}", c.field(), c.Match)
}

func (m Match) String() string {
	var parts []string
	if m.Severity != "" {
		parts = append(parts, "severity="+string(m.Severity))
	}
	if len(m.ContainsAny) > 0 {
		parts = append(parts, fmt.Sprintf("contains_any=%q", m.ContainsAny))
	}
	for _, b := range []struct {
		name string
		v    *int
	}{{"count_min", m.CountMin}, {"count_max", m.CountMax}, {"count_eq", m.CountEq}} {
		if b.v != nil {
			parts = append(parts, fmt.Sprintf("%s=%d", b.name, *b.v))
		}
	}
	return strings.Join(parts, " ")
}

func (c Clause) field() string {
	if c.Field == "" {
		return fieldIssues
	}
	return c.Field
}

func (c Clause) matches(ev *core.Evaluation) (bool, error) {
	switch c.field() {
	case fieldIssues:
		return c.Match.matchIssues(ev.Issues), nil
	case fieldEvaluation:
		return c.Match.matchEvaluation(ev), nil
	default:
		return false, fmt.Errorf("unknown field %q", c.Field)
	}
}

// matchIssues counts matching issues. Without count bounds at least one must match.
func (m Match) matchIssues(issues []core.Issue) bool {
	count := 0
	for _, iss := range issues {
		if m.Severity != "" && iss.Severity != m.Severity {
			continue
		}
		if len(m.ContainsAny) > 0 && !containsAny(issueBlob(iss), m.ContainsAny) {
			continue
		}
		count++
	}

	bounded := false
	if m.CountMin != nil {
		bounded = true
		if count < *m.CountMin {
			return false
		}
	}
	if m.CountMax != nil {
		bounded = true
		if count > *m.CountMax {
			return false
		}
	}
	if m.CountEq != nil {
		bounded = true
		if count != *m.CountEq {
			return false
		}
	}
	if bounded {
		return true
	}
	return count > 0
}

// matchEvaluation treats severity as "some issue has it" and searches the rendered evaluation
func (m Match) matchEvaluation(ev *core.Evaluation) bool {
	if m.Severity != "" {
		found := slices.ContainsFunc(ev.Issues, func(iss core.Issue) bool { return iss.Severity == m.Severity })
		if !found {
			return false
		}
	}
	if len(m.ContainsAny) > 0 {
		return containsAny(evaluationBlob(ev), m.ContainsAny)
	}
	return true
}

func issueBlob(iss core.Issue) string {
	return strings.Join([]string{iss.Category, string(iss.Severity), iss.Explanation, iss.Fix}, " | ")
}

func evaluationBlob(ev *core.Evaluation) string {
	lines := []string{
		"verdict=" + string(ev.Verdict),
		"meaning=" + string(ev.Meaning),
		"corrected=" + ev.Corrected,
		"short_rule=" + ev.ShortRule,
		"issues:",
	}
	for _, iss := range ev.Issues {
		lines = append(lines, issueBlob(iss))
	}
	return strings.Join(lines, "\n")
}

// containsAny is a case-insensitive substring search; empty needles never match
func containsAny(haystack string, needles []string) bool {
	h := strings.ToLower(haystack)
	for _, n := range needles {
		if n != "" && strings.Contains(h, strings.ToLower(n)) {
			return true
		}
	}
	return false
}
