package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string   `mapstructure:"PORT"`
	Env            string   `mapstructure:"ENV"`
	DatabaseURL    string   `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32    `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins    []string `mapstructure:"CORS_ORIGINS"`
	APIKey         string   `mapstructure:"API_KEY"`
	AuthMode       string   `mapstructure:"AUTH_MODE"`
	JWTSecret      string   `mapstructure:"JWT_SECRET"`
	RateLimitRPS   float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int      `mapstructure:"RATE_LIMIT_BURST"`
	UploadDir      string   `mapstructure:"UPLOAD_DIR"`

	// Generation backend (Ollama-compatible API).
	OllamaURL         string  `mapstructure:"OLLAMA_URL"`
	OllamaModel       string  `mapstructure:"OLLAMA_MODEL"`
	OllamaAPIKey      string  `mapstructure:"OLLAMA_API_KEY"`
	LLMContextLength  int     `mapstructure:"LLM_CONTEXT_LENGTH"`
	LLMTemperature    float64 `mapstructure:"LLM_TEMPERATURE"`
	LLMTopP           float64 `mapstructure:"LLM_TOP_P"`
	LLMMaxTokens      int     `mapstructure:"LLM_MAX_TOKENS"`
	LLMTimeoutSeconds int     `mapstructure:"LLM_TIMEOUT_SECONDS"`
	LLMSystemPrompt   string  `mapstructure:"LLM_SYSTEM_PROMPT"`
}

const defaultSystemPrompt = "You are a medical AI assistant powered by a language model. " +
	"Provide accurate, evidence-based medical information. Always recommend consulting " +
	"healthcare professionals for serious medical concerns. Be precise, clear, and helpful " +
	"in medical contexts."

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("AUTH_MODE", "")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("UPLOAD_DIR", "./uploads")
	v.SetDefault("OLLAMA_URL", "http://localhost:11434")
	v.SetDefault("OLLAMA_MODEL", "llama3")
	v.SetDefault("LLM_CONTEXT_LENGTH", 4096)
	v.SetDefault("LLM_TEMPERATURE", 0.3)
	v.SetDefault("LLM_TOP_P", 0.9)
	v.SetDefault("LLM_MAX_TOKENS", 1024)
	v.SetDefault("LLM_TIMEOUT_SECONDS", 120)
	v.SetDefault("LLM_SYSTEM_PROMPT", defaultSystemPrompt)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("API_KEY")
	v.BindEnv("AUTH_MODE")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("UPLOAD_DIR")
	v.BindEnv("OLLAMA_URL")
	v.BindEnv("OLLAMA_MODEL")
	v.BindEnv("OLLAMA_API_KEY")
	v.BindEnv("LLM_CONTEXT_LENGTH")
	v.BindEnv("LLM_TEMPERATURE")
	v.BindEnv("LLM_TOP_P")
	v.BindEnv("LLM_MAX_TOKENS")
	v.BindEnv("LLM_TIMEOUT_SECONDS")
	v.BindEnv("LLM_SYSTEM_PROMPT")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: server is running in DEVELOPMENT mode (ENV=development); API key auth is disabled")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ResolvedAuthMode returns the effective auth mode. If AUTH_MODE is explicitly
// set, it is returned. Otherwise the mode is inferred:
//   - ENV=development → "development" (no auth)
//   - JWT_SECRET set  → "jwt" (bearer tokens)
//   - Otherwise       → "apikey" (X-API-Key header)
func (c *Config) ResolvedAuthMode() string {
	if c.AuthMode != "" {
		return c.AuthMode
	}
	if c.IsDev() {
		return "development"
	}
	if c.JWTSecret != "" {
		return "jwt"
	}
	return "apikey"
}

// LLMTimeout returns the configured per-call generation timeout.
func (c *Config) LLMTimeout() time.Duration {
	if c.LLMTimeoutSeconds <= 0 {
		return 120 * time.Second
	}
	return time.Duration(c.LLMTimeoutSeconds) * time.Second
}

// Validate checks that the configuration is safe to run. Outside development,
// an API key or JWT secret must be configured so the API is not left open.
func (c *Config) Validate() error {
	switch mode := c.ResolvedAuthMode(); mode {
	case "development":
	case "apikey":
		if c.APIKey == "" {
			return fmt.Errorf("API_KEY must be set when AUTH_MODE is \"apikey\" (current ENV=%q)", c.Env)
		}
	case "jwt":
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET must be set when AUTH_MODE is \"jwt\"")
		}
	default:
		return fmt.Errorf("AUTH_MODE must be \"development\", \"apikey\", or \"jwt\", got %q", mode)
	}
	return nil
}
