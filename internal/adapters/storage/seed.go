package storage

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mikey/translation-grader/internal/core"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML document of curated sentences and gold translations
type SeedFile struct {
	Sentences    []SeedSentence    `yaml:"sentences"`
	Translations []SeedTranslation `yaml:"translations"`
}

// SeedSentence is one source sentence with its gold translations
type SeedSentence struct {
	Level        string   `yaml:"level"`
	English      string   `yaml:"english"`
	Translations []string `yaml:"translations"`
}

// SeedTranslation adds a gold translation to an already stored sentence
type SeedTranslation struct {
	SentenceID  int64  `yaml:"sentence_id"`
	Translation string `yaml:"translation"`
}

// SeedReport counts what a seed run changed
type SeedReport struct {
	Sentences    int
	Translations int
}

// Seeder is the write side of the store used for seeding
type Seeder interface {
	SeedSentence(ctx context.Context, level core.Level, sentence string, translations []string) (int64, int, error)
	AddTranslation(ctx context.Context, sentenceID int64, translation string) (bool, error)
}

// LoadSeedFile reads and validates a seed file
func LoadSeedFile(path string) (*SeedFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var file SeedFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}

	for i, s := range file.Sentences {
		if _, err := core.ParseLevel(s.Level); err != nil {
			return nil, fmt.Errorf("sentence %d: %w", i, err)
		}
		if strings.TrimSpace(s.English) == "" {
			return nil, fmt.Errorf("sentence %d: empty english text", i)
		}
	}
	for i, t := range file.Translations {
		if t.SentenceID <= 0 || strings.TrimSpace(t.Translation) == "" {
			return nil, fmt.Errorf("translation %d: sentence_id and translation are required", i)
		}
	}

	return &file, nil
}

// Seed applies a seed file. Running it twice changes nothing the second time.
func Seed(ctx context.Context, store Seeder, file *SeedFile, logger *zap.Logger) (*SeedReport, error) {
	report := &SeedReport{}

	for _, s := range file.Sentences {
		translations := make([]string, 0, len(s.Translations))
		for _, t := range s.Translations {
			if t = strings.TrimSpace(t); t != "" {
				translations = append(translations, t)
			}
		}

		id, added, err := store.SeedSentence(ctx, core.Level(s.Level), strings.TrimSpace(s.English), translations)
		if err != nil {
			return report, fmt.Errorf("failed to seed sentence %q: %w", s.English, err)
		}
		report.Sentences++
		report.Translations += added

		logger.Debug("Seeded sentence",
			zap.Int64("sentence_id", id),
			zap.String("level", s.Level),
			zap.Int("translations_added", added))
	}

	for _, t := range file.Translations {
		added, err := store.AddTranslation(ctx, t.SentenceID, strings.TrimSpace(t.Translation))
		if err != nil {
			return report, fmt.Errorf("failed to add translation for sentence %d: %w", t.SentenceID, err)
		}
		if added {
			report.Translations++
		}
	}

	logger.Info("Seed complete",
		zap.Int("sentences", report.Sentences),
		zap.Int("translations_added", report.Translations))
	return report, nil
}
