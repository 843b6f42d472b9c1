package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mikey/translation-grader/internal/core"
	"go.uber.org/zap"
)

func writeSeedFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sentences.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write seed file: %v", err)
	}
	return path
}

func TestLoadSeedFile(t *testing.T) {
	path := writeSeedFile(t, `
sentences:
  - level: A1
    english: I live in Norway.
    translations:
      - Jeg bor i Norge.
  - level: B1
    english: She has lived here for years.
    translations:
      - Hun har bodd her i mange år.
      - Hun har bodd her i årevis.
`)

	file, err := LoadSeedFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(file.Sentences) != 2 {
		t.Fatalf("expected 2 sentences, got %d", len(file.Sentences))
	}
	if len(file.Sentences[1].Translations) != 2 {
		t.Errorf("expected 2 translations, got %d", len(file.Sentences[1].Translations))
	}
}

func TestLoadSeedFile_Invalid(t *testing.T) {
	tests := map[string]string{
		"unknown level":   "sentences:\n  - level: X1\n    english: Hi.\n",
		"empty english":   "sentences:\n  - level: A1\n    english: \"\"\n",
		"bad translation": "translations:\n  - sentence_id: 0\n    translation: Hei.\n",
		"malformed yaml":  "sentences: [",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadSeedFile(writeSeedFile(t, content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSeed_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(zap.NewNop())
	file := &SeedFile{
		Sentences: []SeedSentence{
			{Level: "A1", English: "I live in Norway.", Translations: []string{"Jeg bor i Norge.", "  "}},
			{Level: "A1", English: "I take the bus.", Translations: []string{"Jeg tar bussen."}},
		},
		Translations: []SeedTranslation{{SentenceID: 1, Translation: "Jeg er bosatt i Norge."}},
	}

	report, err := Seed(ctx, store, file, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Sentences != 2 || report.Translations != 3 {
		t.Errorf("unexpected first report %+v", report)
	}

	report, err = Seed(ctx, store, file, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Translations != 0 {
		t.Errorf("expected nothing new on second run, got %+v", report)
	}

	golds, _ := store.GoldTranslations(ctx, 1)
	if len(golds) != 2 {
		t.Errorf("expected 2 gold translations, got %v", golds)
	}
}

func TestSeed_UnknownSentence(t *testing.T) {
	store := NewMemoryStore(zap.NewNop())
	file := &SeedFile{Translations: []SeedTranslation{{SentenceID: 5, Translation: "Hei."}}}

	_, err := Seed(context.Background(), store, file, zap.NewNop())
	if !errors.Is(err, core.ErrSentenceNotFound) {
		t.Errorf("expected ErrSentenceNotFound, got %v", err)
	}
}
