// Package config provides configuration management for Eigentalk.
// It loads settings from environment variables with the EIGENTALK_ prefix
// and provides sensible defaults for all configuration options. An optional
// YAML config file can overlay the environment: fields set in the file win.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration settings for the Eigentalk relay.
type Config struct {
	Server   ServerConfig
	LLM      LLMConfig
	Session  SessionConfig
	Security SecurityConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port           int      // Server port (default: 8000)
	Host           string   // Server host (default: 127.0.0.1)
	AllowedOrigins []string // WebSocket Origin allowlist (default: localhost dev origins)
}

// LLMConfig contains completion-service configuration.
type LLMConfig struct {
	Provider        string  // LLM provider: openai, anthropic, ollama (default: openai)
	OpenAIAPIKey    string  // OpenAI API key
	OpenAIModel     string  // OpenAI model name (default: gpt-4o-mini)
	AnthropicAPIKey string  // Anthropic API key
	AnthropicModel  string  // Anthropic model name (default: claude-haiku-4-5-20251001)
	OllamaURL       string  // Ollama API URL (default: http://localhost:11434)
	OllamaModel     string  // Ollama model name (default: qwen2.5:7b)
	MaxTokens       int     // Max output tokens per completion (default: 1000)
	Temperature     float64 // Sampling temperature (default: 0.6)
	TimeoutSeconds  int     // Per-request timeout in seconds (default: 60)
}

// SessionConfig contains per-connection session tuning.
type SessionConfig struct {
	HistoryWindow int     // Chat history entries sent to the model (default: 6)
	EventsPerSec  float64 // Sustained inbound event rate per connection (default: 2)
	EventBurst    int     // Burst size for the per-connection limiter (default: 5)
}

// SecurityConfig contains security and authentication settings.
type SecurityConfig struct {
	SecurityMode string // Security mode: development, production (default: development)
	APIToken     string // API authentication token
}

// fileConfig mirrors Config with pointer fields so the YAML overlay can
// distinguish "unset" from zero values.
type fileConfig struct {
	Server struct {
		Port           *int     `yaml:"port"`
		Host           *string  `yaml:"host"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	LLM struct {
		Provider        *string  `yaml:"provider"`
		OpenAIAPIKey    *string  `yaml:"openai_api_key"`
		OpenAIModel     *string  `yaml:"openai_model"`
		AnthropicAPIKey *string  `yaml:"anthropic_api_key"`
		AnthropicModel  *string  `yaml:"anthropic_model"`
		OllamaURL       *string  `yaml:"ollama_url"`
		OllamaModel     *string  `yaml:"ollama_model"`
		MaxTokens       *int     `yaml:"max_tokens"`
		Temperature     *float64 `yaml:"temperature"`
		TimeoutSeconds  *int     `yaml:"timeout_seconds"`
	} `yaml:"llm"`
	Session struct {
		HistoryWindow *int     `yaml:"history_window"`
		EventsPerSec  *float64 `yaml:"events_per_sec"`
		EventBurst    *int     `yaml:"event_burst"`
	} `yaml:"session"`
	Security struct {
		SecurityMode *string `yaml:"security_mode"`
		APIToken     *string `yaml:"api_token"`
	} `yaml:"security"`
}

// LoadConfig loads configuration from environment variables with sensible
// defaults. All environment variables use the EIGENTALK_ prefix.
func LoadConfig() (*Config, error) {
	cfg := buildBaseConfig()
	return cfg, nil
}

// LoadConfigFromFile loads configuration from environment variables and then
// overlays the YAML file at path. Fields set in the file take precedence.
func LoadConfigFromFile(path string) (*Config, error) {
	cfg := buildBaseConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	applyOverlay(cfg, &fc)
	return cfg, nil
}

// applyOverlay copies every set field of the file config onto cfg.
func applyOverlay(cfg *Config, fc *fileConfig) {
	if fc.Server.Port != nil {
		cfg.Server.Port = *fc.Server.Port
	}
	if fc.Server.Host != nil {
		cfg.Server.Host = *fc.Server.Host
	}
	if len(fc.Server.AllowedOrigins) > 0 {
		cfg.Server.AllowedOrigins = fc.Server.AllowedOrigins
	}
	if fc.LLM.Provider != nil {
		cfg.LLM.Provider = *fc.LLM.Provider
	}
	if fc.LLM.OpenAIAPIKey != nil {
		cfg.LLM.OpenAIAPIKey = *fc.LLM.OpenAIAPIKey
	}
	if fc.LLM.OpenAIModel != nil {
		cfg.LLM.OpenAIModel = *fc.LLM.OpenAIModel
	}
	if fc.LLM.AnthropicAPIKey != nil {
		cfg.LLM.AnthropicAPIKey = *fc.LLM.AnthropicAPIKey
	}
	if fc.LLM.AnthropicModel != nil {
		cfg.LLM.AnthropicModel = *fc.LLM.AnthropicModel
	}
	if fc.LLM.OllamaURL != nil {
		cfg.LLM.OllamaURL = *fc.LLM.OllamaURL
	}
	if fc.LLM.OllamaModel != nil {
		cfg.LLM.OllamaModel = *fc.LLM.OllamaModel
	}
	if fc.LLM.MaxTokens != nil {
		cfg.LLM.MaxTokens = *fc.LLM.MaxTokens
	}
	if fc.LLM.Temperature != nil {
		cfg.LLM.Temperature = *fc.LLM.Temperature
	}
	if fc.LLM.TimeoutSeconds != nil {
		cfg.LLM.TimeoutSeconds = *fc.LLM.TimeoutSeconds
	}
	if fc.Session.HistoryWindow != nil {
		cfg.Session.HistoryWindow = *fc.Session.HistoryWindow
	}
	if fc.Session.EventsPerSec != nil {
		cfg.Session.EventsPerSec = *fc.Session.EventsPerSec
	}
	if fc.Session.EventBurst != nil {
		cfg.Session.EventBurst = *fc.Session.EventBurst
	}
	if fc.Security.SecurityMode != nil {
		cfg.Security.SecurityMode = *fc.Security.SecurityMode
	}
	if fc.Security.APIToken != nil {
		cfg.Security.APIToken = *fc.Security.APIToken
	}
}

// buildBaseConfig constructs a Config with values from environment variables
// and defaults. This is the shared base for LoadConfig and LoadConfigFromFile.
func buildBaseConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           getEnvInt("EIGENTALK_PORT", 8000),
			Host:           getEnv("EIGENTALK_HOST", "127.0.0.1"),
			AllowedOrigins: getEnvList("EIGENTALK_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://127.0.0.1:3000"}),
		},
		LLM: LLMConfig{
			Provider:        getEnv("EIGENTALK_LLM_PROVIDER", "openai"),
			OpenAIAPIKey:    getEnv("EIGENTALK_OPENAI_API_KEY", os.Getenv("OPENAI_API_KEY")),
			OpenAIModel:     getEnv("EIGENTALK_OPENAI_MODEL", "gpt-4o-mini"),
			AnthropicAPIKey: getEnv("EIGENTALK_ANTHROPIC_API_KEY", ""),
			AnthropicModel:  getEnv("EIGENTALK_ANTHROPIC_MODEL", "claude-haiku-4-5-20251001"),
			OllamaURL:       getEnv("EIGENTALK_OLLAMA_URL", "http://localhost:11434"),
			OllamaModel:     getEnv("EIGENTALK_OLLAMA_MODEL", "qwen2.5:7b"),
			MaxTokens:       getEnvInt("EIGENTALK_MAX_TOKENS", 1000),
			Temperature:     getEnvFloat("EIGENTALK_TEMPERATURE", 0.6),
			TimeoutSeconds:  getEnvInt("EIGENTALK_LLM_TIMEOUT_SECONDS", 60),
		},
		Session: SessionConfig{
			HistoryWindow: getEnvInt("EIGENTALK_HISTORY_WINDOW", 6),
			EventsPerSec:  getEnvFloat("EIGENTALK_EVENTS_PER_SEC", 2.0),
			EventBurst:    getEnvInt("EIGENTALK_EVENT_BURST", 5),
		},
		Security: SecurityConfig{
			SecurityMode: getEnv("EIGENTALK_SECURITY_MODE", "development"),
			APIToken:     getEnv("EIGENTALK_API_TOKEN", ""),
		},
	}
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default
// value. If the environment variable exists but cannot be parsed as an
// integer, it returns the default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns a default
// value when unset or unparsable.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvList retrieves a comma-separated environment variable as a list,
// trimming whitespace around each entry.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
