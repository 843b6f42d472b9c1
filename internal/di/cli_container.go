package di

import (
	"github.com/spf13/pflag"

	"github.com/mikey/translation-grader/internal/config"
)

// CLIFlags contains the command line flags shared by every command. Flags
// left at their zero value do not override the configuration.
type CLIFlags struct {
	ConfigFile string
	Verbose    bool
	JSONLog    bool

	// Grader overrides
	Provider      string
	Model         string
	PromptVersion string

	// Store overrides
	CacheType  string
	SQLitePath string
	NoCache    bool

	// Grammar checker overrides
	NoChecker bool
}

// Register binds the flags onto fs
func (f *CLIFlags) Register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.ConfigFile, "config", "c", "", "Path to config file")
	fs.BoolVarP(&f.Verbose, "verbose", "v", false, "Enable verbose logging")
	fs.BoolVar(&f.JSONLog, "json-log", false, "Output logs in JSON format")

	fs.StringVar(&f.Provider, "provider", "", "Grader provider (openai, gemini, bedrock)")
	fs.StringVar(&f.Model, "model", "", "Model name for the selected provider")
	fs.StringVar(&f.PromptVersion, "prompt-version", "", "Prompt version recorded in cache signatures")

	fs.StringVar(&f.CacheType, "cache-type", "", "Store backend (memory, sqlite, mysql, postgres)")
	fs.StringVar(&f.SQLitePath, "db", "", "SQLite database path")
	fs.BoolVar(&f.NoCache, "no-cache", false, "Disable the feedback cache")

	fs.BoolVar(&f.NoChecker, "no-checker", false, "Disable the LanguageTool grammar checker")
}

// loadConfig reads the configuration and applies the flag overrides
func loadConfig(flags *CLIFlags) (*config.Config, error) {
	cfg, err := config.New(flags.ConfigFile)
	if err != nil {
		return nil, err
	}
	applyFlags(cfg, flags)
	return cfg, nil
}

func applyFlags(cfg *config.Config, flags *CLIFlags) {
	if flags.Provider != "" {
		cfg.Set("grader.provider", flags.Provider)
	}
	if flags.Model != "" {
		switch cfg.GetGrader().Provider {
		case "openai":
			cfg.Set("openai.model_name", flags.Model)
		case "gemini":
			cfg.Set("gemini.model_name", flags.Model)
		case "bedrock":
			cfg.Set("bedrock.model_id", flags.Model)
		}
	}
	if flags.PromptVersion != "" {
		cfg.Set("grader.prompt_version", flags.PromptVersion)
	}

	if flags.CacheType != "" {
		cfg.Set("cache.type", flags.CacheType)
	}
	if flags.SQLitePath != "" {
		cfg.Set("cache.sqlite_path", flags.SQLitePath)
	}
	if flags.NoCache {
		cfg.Set("cache.enabled", false)
	}

	if flags.NoChecker {
		cfg.Set("languagetool.enabled", false)
	}
}
