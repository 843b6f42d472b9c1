package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"go.uber.org/zap"
)

func TestNormalizeForComparison(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trailing period and case", "Jeg bor i Norge.", "jeg bor i norge"},
		{"multiple terminals", "Hei!?!", "hei"},
		{"collapse whitespace", "  Jeg   bor\ti  Norge ", "jeg bor i norge"},
		{"curly quotes", "Han sa “hei” og gikk’", `han sa "hei" og gikk'`},
		{"inner punctuation kept", "Ja, jeg kommer.", "ja, jeg kommer"},
		{"terminal after trailing space", "Jeg bor i Norge .", "jeg bor i norge "},
		{"empty", "   ", ""},
		{"no-break space", "Jeg\u00a0bor i Norge.", "jeg bor i norge"},
		{"thin space", "Jeg bor i\u2009Norge", "jeg bor i norge"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeForComparison(tt.in); got != tt.want {
				t.Errorf("NormalizeForComparison(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeForComparison_GoldScenario(t *testing.T) {
	if NormalizeForComparison("jeg bor i norge") != NormalizeForComparison("Jeg bor i Norge.") {
		t.Error("expected submission without punctuation to match gold")
	}
}

func TestNormalizeForCacheKey(t *testing.T) {
	// "å" as a + combining ring must compose to the same key as precomposed "å"
	decomposed := "Jeg ga\u030agr"
	precomposed := "jeg g\u00e5gr"

	if NormalizeForCacheKey(decomposed) != NormalizeForCacheKey(precomposed) {
		t.Errorf("expected NFC composition, got %q vs %q",
			NormalizeForCacheKey(decomposed), NormalizeForCacheKey(precomposed))
	}

	got := NormalizeForCacheKey("  Han  sa “Hei”. ")
	want := `han sa "hei".`
	if got != want {
		t.Errorf("NormalizeForCacheKey = %q, want %q", got, want)
	}
}

func TestNormalizeForCacheKey_UnicodeSpaces(t *testing.T) {
	plain := NormalizeForCacheKey("Jeg bor i Norge.")
	for _, in := range []string{"Jeg\u00a0bor i Norge.", "Jeg bor i\u2009Norge.", "Jeg \u00a0 bor\u202fi Norge."} {
		if got := NormalizeForCacheKey(in); got != plain {
			t.Errorf("NormalizeForCacheKey(%q) = %q, want %q", in, got, plain)
		}
	}
}

func TestNormalizeForCacheKey_KeepsTerminalPunctuation(t *testing.T) {
	if NormalizeForCacheKey("Jeg bor i Norge.") == NormalizeForCacheKey("Jeg bor i Norge") {
		t.Error("cache key normalization must not strip terminal punctuation")
	}
}

func TestTextProcessor_TruncateText(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	if got := tp.TruncateText("kort", 10); got != "kort" {
		t.Errorf("expected unchanged text, got %q", got)
	}
	if got := tp.TruncateText("kort", 0); got != "kort" {
		t.Errorf("expected unchanged text for zero limit, got %q", got)
	}

	// "blåbær" has multi-byte runes; cutting mid-rune must yield valid UTF-8
	got := tp.TruncateText("blåbær", 3)
	if !utf8.ValidString(got) {
		t.Errorf("truncated text is not valid UTF-8: %q", got)
	}
	if got != "bl" {
		t.Errorf("expected %q, got %q", "bl", got)
	}
}

func TestTextProcessor_SanitizeUTF8(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	invalid := "hei\xffverden"
	got := tp.SanitizeUTF8(invalid)
	if !utf8.ValidString(got) {
		t.Errorf("expected valid UTF-8, got %q", got)
	}
	if got != "heiverden" {
		t.Errorf("expected %q, got %q", "heiverden", got)
	}
}

func TestTextProcessor_ProcessText(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	long := strings.Repeat("a", 50)
	if got := tp.ProcessText(long, 10); len(got) != 10 {
		t.Errorf("expected 10 bytes, got %d", len(got))
	}
}
