package config

import (
	"fmt"
	"time"
)

// GraderConfig selects the qualitative grader
type GraderConfig struct {
	Provider      string
	PromptVersion string
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// LanguageToolConfig represents the configuration for the grammar checker
type LanguageToolConfig struct {
	Enabled  bool
	Endpoint string
	Language string
	Timeout  time.Duration
}

// ArbitrationConfig holds the verdict floor thresholds
type ArbitrationConfig struct {
	MinorFloorAt     int
	IncorrectFloorAt int
}

// CacheConfig represents the configuration for the feedback store
type CacheConfig struct {
	Type        string
	Enabled     bool
	Coalesce    bool
	SQLitePath  string
	MySQLDSN    string
	PostgresDSN string
}

// ServerConfig represents the configuration for the HTTP surface
type ServerConfig struct {
	ListenAddress   string
	ShutdownTimeout time.Duration
}

// LoggingConfig represents the logger configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// GetGrader returns the grader configuration
func (c *Config) GetGrader() GraderConfig {
	return GraderConfig{
		Provider:      c.GetString("grader.provider"),
		PromptVersion: c.GetString("grader.prompt_version"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		BaseURL:     c.GetString("openai.base_url"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
	}
}

// GetLanguageTool returns the grammar checker configuration
func (c *Config) GetLanguageTool() LanguageToolConfig {
	return LanguageToolConfig{
		Enabled:  c.GetBool("languagetool.enabled"),
		Endpoint: c.GetString("languagetool.endpoint"),
		Language: c.GetString("languagetool.language"),
		Timeout:  c.GetDuration("languagetool.timeout"),
	}
}

// GetArbitration returns the arbitration thresholds
func (c *Config) GetArbitration() (ArbitrationConfig, error) {
	cfg := ArbitrationConfig{
		MinorFloorAt:     c.GetInt("arbitration.minor_floor_at"),
		IncorrectFloorAt: c.GetInt("arbitration.incorrect_floor_at"),
	}
	if cfg.MinorFloorAt > 0 && cfg.IncorrectFloorAt > 0 && cfg.IncorrectFloorAt < cfg.MinorFloorAt {
		return cfg, fmt.Errorf("arbitration.incorrect_floor_at (%d) must not be below arbitration.minor_floor_at (%d)",
			cfg.IncorrectFloorAt, cfg.MinorFloorAt)
	}
	return cfg, nil
}

// GetCache returns the feedback store configuration
func (c *Config) GetCache() CacheConfig {
	return CacheConfig{
		Type:        c.GetString("cache.type"),
		Enabled:     c.GetBool("cache.enabled"),
		Coalesce:    c.GetBool("cache.coalesce"),
		SQLitePath:  c.GetString("cache.sqlite_path"),
		MySQLDSN:    c.GetString("cache.mysql_dsn"),
		PostgresDSN: c.GetString("cache.postgres_dsn"),
	}
}

// GetServer returns the HTTP surface configuration
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		ListenAddress:   c.GetString("server.listen_address"),
		ShutdownTimeout: c.GetDuration("server.shutdown_timeout"),
	}
}

// GetLogging returns the logger configuration
func (c *Config) GetLogging() LoggingConfig {
	return LoggingConfig{
		Level:  c.GetString("logging.level"),
		Format: c.GetString("logging.format"),
	}
}
