package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

var (
	// \s alone is ASCII-only; \p{Z} adds no-break and thin spaces
	whitespaceRun    = regexp.MustCompile(`[\s\p{Z}]+`)
	trailingTerminal = regexp.MustCompile(`[.!?]+$`)

	// Curly quotes and apostrophes folded to their ASCII forms.
	quoteReplacer = strings.NewReplacer(
		"“", `"`,
		"”", `"`,
		"’", "'",
		"‘", "'",
	)
)

// NormalizeForComparison canonicalizes a translation for gold matching.
// The result is only used to decide equality and is never shown to a user.
func NormalizeForComparison(s string) string {
	s = strings.TrimSpace(s)
	s = quoteReplacer.Replace(s)
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = trailingTerminal.ReplaceAllString(strings.TrimSpace(s), "")
	return strings.ToLower(s)
}

// NormalizeForCacheKey canonicalizes a submission before it is hashed into a
// cache signature. Changing this function invalidates every stored signature.
func NormalizeForCacheKey(s string) string {
	s = norm.NFC.String(s)
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	s = quoteReplacer.Replace(s)
	return whitespaceRun.ReplaceAllString(s, " ")
}

// TextProcessor provides utilities for processing text
type TextProcessor struct {
	logger *zap.Logger
}

// NewTextProcessor creates a new TextProcessor
func NewTextProcessor(logger *zap.Logger) *TextProcessor {
	return &TextProcessor{
		logger: logger,
	}
}

// TruncateText safely truncates text to the specified maximum size
// and ensures the result is valid UTF-8
func (tp *TextProcessor) TruncateText(text string, maxSize int) string {
	if maxSize <= 0 || len(text) <= maxSize {
		return text
	}

	truncated := text[:maxSize]

	// Drop a split multi-byte rune at the cut
	for !utf8.ValidString(truncated) && len(truncated) > 0 {
		truncated = truncated[:len(truncated)-1]
	}

	tp.logger.Debug("Submission truncated",
		zap.Int("original_size", len(text)),
		zap.Int("truncated_size", len(truncated)),
		zap.Int("max_size", maxSize))

	return truncated
}

// SanitizeUTF8 drops invalid UTF-8 sequences from text
func (tp *TextProcessor) SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}

	sanitized := strings.ToValidUTF8(text, "")

	tp.logger.Debug("Submission sanitized",
		zap.Int("original_size", len(text)),
		zap.Int("sanitized_size", len(sanitized)))

	return sanitized
}

// ProcessText truncates and sanitizes text in one operation
func (tp *TextProcessor) ProcessText(text string, maxSize int) string {
	return tp.SanitizeUTF8(tp.TruncateText(text, maxSize))
}
