package core

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	fixPlaceholder      = "—"
	fallbackExplanation = "Språkverktøyet fant et mulig problem."
	summaryMaxItems     = 6

	summaryNoMatches   = "Ingen funn."
	summaryUnavailable = "Ingen (LanguageTool ikke tilgjengelig)."

	// checkerDisabled stands in for the checker language in signatures when no checker is wired
	checkerDisabled = "none"
)

var titleCaser = cases.Title(language.Norwegian)

// RawMatch is one finding reported by the grammar checker
type RawMatch struct {
	Offset       int
	Length       int
	Message      string
	IssueType    string
	CategoryID   string
	Replacements []string
}

// Objective reports whether the match counts as an objective error
func (m RawMatch) Objective() bool {
	switch strings.ToLower(m.IssueType) {
	case "misspelling", "typographical", "grammar", "punctuation":
		return true
	}
	return false
}

// Category maps the checker issue type to a linguistic category
func (m RawMatch) Category() string {
	switch strings.ToLower(m.IssueType) {
	case "misspelling", "typographical":
		return "rettskriving"
	case "punctuation":
		return "tegnsetting"
	case "grammar":
		return "grammatikk"
	}
	return "stil"
}

// Span returns the flagged part of text. Offsets count runes.
func (m RawMatch) Span(text string) string {
	if m.Length <= 0 || m.Offset < 0 {
		return ""
	}
	runes := []rune(text)
	if m.Offset >= len(runes) {
		return ""
	}
	end := m.Offset + m.Length
	if end > len(runes) {
		end = len(runes)
	}
	return string(runes[m.Offset:end])
}

func (m RawMatch) concernsCasing() bool {
	if strings.EqualFold(m.CategoryID, "CASING") {
		return true
	}
	switch strings.ToLower(m.IssueType) {
	case "misspelling", "typographical":
		return true
	}
	return false
}

// SuggestFix picks the replacement to show for a match
func (m RawMatch) SuggestFix(text string) string {
	span := m.Span(text)

	if len(m.Replacements) > 0 {
		if m.concernsCasing() && span != "" {
			want := shapeOf(span)
			if atSentenceStart(text, m.Offset) {
				want = shapeCapitalized
			}
			if want != shapeMixed {
				for _, r := range m.Replacements {
					if r != "" && hasShape(r, want) {
						return r
					}
				}
			}
		}
		if m.Replacements[0] != "" {
			return m.Replacements[0]
		}
	}

	if s := strings.TrimSpace(span); s != "" {
		return s
	}
	return fixPlaceholder
}

type caseShape int

const (
	shapeMixed caseShape = iota
	shapeLower
	shapeUpper
	shapeTitle
	shapeCapitalized
)

func shapeOf(s string) caseShape {
	lower, upper := strings.ToLower(s), strings.ToUpper(s)
	switch {
	case lower == upper:
		return shapeMixed
	case s == lower:
		return shapeLower
	case s == upper && utf8.RuneCountInString(strings.TrimSpace(s)) > 1:
		return shapeUpper
	case s == titleCaser.String(s):
		return shapeTitle
	}
	return shapeMixed
}

func hasShape(s string, want caseShape) bool {
	switch want {
	case shapeCapitalized:
		r, _ := utf8.DecodeRuneInString(s)
		return unicode.IsUpper(r)
	case shapeLower:
		return s == strings.ToLower(s)
	case shapeUpper:
		return s == strings.ToUpper(s)
	case shapeTitle:
		return s == titleCaser.String(s)
	}
	return false
}

// atSentenceStart reports whether the rune offset begins a sentence in text
func atSentenceStart(text string, offset int) bool {
	runes := []rune(text)
	if offset > len(runes) {
		offset = len(runes)
	}
	before := strings.TrimRightFunc(string(runes[:offset]), func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(`"'«“‘(`, r)
	})
	if before == "" {
		return true
	}
	last, _ := utf8.DecodeLastRuneInString(before)
	return last == '.' || last == '!' || last == '?'
}

// Signal is the grammar checker's contribution to arbitration
type Signal struct {
	Available bool
	Matches   []RawMatch
	Objective []RawMatch
	Issues    []Issue
}

// BuildSignal converts raw checker matches into issues for text.
// Objective matches fill the issue slots first.
func BuildSignal(matches []RawMatch, text string) Signal {
	sig := Signal{Available: true, Matches: matches}

	var subjective []RawMatch
	for _, m := range matches {
		if m.Objective() {
			sig.Objective = append(sig.Objective, m)
		} else {
			subjective = append(subjective, m)
		}
	}

	add := func(m RawMatch, severity Severity) {
		explanation := strings.TrimSpace(m.Message)
		if explanation == "" {
			explanation = fallbackExplanation
		}
		sig.Issues = append(sig.Issues, Issue{
			Category:    m.Category(),
			Severity:    severity,
			Explanation: explanation,
			Fix:         m.SuggestFix(text),
		})
	}

	for _, m := range sig.Objective {
		if len(sig.Issues) >= MaxIssues {
			break
		}
		add(m, SeverityError)
	}
	for _, m := range subjective {
		if len(sig.Issues) >= MaxIssues {
			break
		}
		add(m, SeverityStyle)
	}

	return sig
}

// Summary renders a compact digest of the matches for the grader prompt
func (s Signal) Summary(text string) string {
	if !s.Available {
		return summaryUnavailable
	}
	if len(s.Matches) == 0 {
		return summaryNoMatches
	}

	var sb strings.Builder
	for i, m := range s.Matches {
		if i >= summaryMaxItems {
			break
		}
		kind := "STIL"
		if m.Objective() {
			kind = "OBJ"
		}
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "- [%s/%s] «%s» → forslag: «%s» (%s)",
			kind, m.Category(), m.Span(text), m.SuggestFix(text), strings.TrimSpace(m.Message))
	}
	return sb.String()
}

// GrammarAdapter collects the grammar signal and never fails the pipeline
type GrammarAdapter struct {
	checker GrammarChecker
	timeout time.Duration
	logger  *zap.Logger
}

// NewGrammarAdapter creates a grammar adapter; checker may be nil to disable the signal
func NewGrammarAdapter(checker GrammarChecker, timeout time.Duration, logger *zap.Logger) *GrammarAdapter {
	return &GrammarAdapter{
		checker: checker,
		timeout: timeout,
		logger:  logger,
	}
}

// Language returns the checker language used in cache signatures
func (a *GrammarAdapter) Language() string {
	if a.checker == nil {
		return checkerDisabled
	}
	return a.checker.Language()
}

// Collect checks text and converts the findings into a signal.
// Any checker failure yields an empty, unavailable signal.
func (a *GrammarAdapter) Collect(ctx context.Context, text string) Signal {
	if a.checker == nil {
		return Signal{}
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	matches, err := a.checker.Check(ctx, text)
	if err != nil {
		a.logger.Warn("Grammar checker unavailable, continuing without signal",
			zap.String("language", a.checker.Language()),
			zap.Error(err))
		return Signal{}
	}

	sig := BuildSignal(matches, text)
	a.logger.Debug("Grammar signal collected",
		zap.Int("matches", len(sig.Matches)),
		zap.Int("objective", len(sig.Objective)),
		zap.Int("issues", len(sig.Issues)))
	return sig
}
