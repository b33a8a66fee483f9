// Package config provides application configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/sambhav874/tuition-teacher/internal/llm"
)

// Config holds all application configuration.
type Config struct {
	Port                string
	FrontendURL         string
	DBPath              string
	CORSAllowedOrigins  []string
	MaxRequestBodyBytes int64
	StateTTL            time.Duration
	LLM                 LLMConfig
	RateLimit           RateLimitConfig
	Attachment          AttachmentConfig
	ConversationLog     ConversationLogConfig
}

// LLMConfig selects the model provider and its credentials.
type LLMConfig struct {
	Provider         string
	Model            string
	ImageModel       string
	GoogleAPIKey     string
	OpenRouterAPIKey string
	OpenAIAPIKey     string
	AnthropicAPIKey  string
}

// RateLimitConfig bounds tutoring turns per user.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// AttachmentConfig controls image compression before storage.
type AttachmentConfig struct {
	MaxWidth    int
	JPEGQuality int
}

// ConversationLogConfig controls JSON conversation logging.
type ConversationLogConfig struct {
	Enabled   bool
	Dir       string
	QueueSize int
}

// Load reads configuration from the optional TOML file named by CONFIG_FILE
// and from environment variables. Environment variables win.
func Load() (*Config, error) {
	src, err := newSource(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return nil, err
	}
	return load(src)
}

func load(src *source) (*Config, error) {
	queueSize := src.getInt("CONVERSATION_LOG_QUEUE_SIZE", 1000)
	if queueSize <= 0 {
		queueSize = 1000
	}

	cfg := &Config{
		Port:                src.get("PORT", "8080"),
		FrontendURL:         src.get("FRONTEND_URL", ""),
		DBPath:              src.get("DB_PATH", "./data/tutor.db"),
		CORSAllowedOrigins:  splitList(src.get("CORS_ALLOWED_ORIGINS", "")),
		MaxRequestBodyBytes: int64(src.getInt("MAX_REQUEST_BODY_BYTES", 12<<20)),
		StateTTL:            src.getDuration("STATE_TTL", 0),
		LLM: LLMConfig{
			Provider:         strings.ToLower(strings.TrimSpace(src.get("LLM_PROVIDER", llm.ProviderGoogle))),
			Model:            src.get("LLM_MODEL", ""),
			ImageModel:       src.get("IMAGE_MODEL", llm.DefaultImageModel),
			GoogleAPIKey:     src.get("GOOGLE_API_KEY", src.get("GEMINI_API_KEY", "")),
			OpenRouterAPIKey: src.get("OPENROUTER_API_KEY", ""),
			OpenAIAPIKey:     src.get("OPENAI_API_KEY", ""),
			AnthropicAPIKey:  src.get("ANTHROPIC_API_KEY", ""),
		},
		RateLimit: RateLimitConfig{
			Requests: src.getInt("RATE_LIMIT_REQUESTS", 20),
			Window:   src.getDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Attachment: AttachmentConfig{
			MaxWidth:    src.getInt("ATTACHMENT_MAX_WIDTH", 800),
			JPEGQuality: src.getInt("ATTACHMENT_JPEG_QUALITY", 70),
		},
		ConversationLog: ConversationLogConfig{
			Enabled:   src.getBool("CONVERSATION_LOG_ENABLED", false),
			Dir:       src.get("CONVERSATION_LOG_DIR", "./data/logs/conversations"),
			QueueSize: queueSize,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return errors.New("DB_PATH cannot be empty")
	}
	if !llm.KnownProvider(c.LLM.Provider) {
		return fmt.Errorf("LLM_PROVIDER %q is not supported", c.LLM.Provider)
	}
	if c.RateLimit.Requests <= 0 {
		return errors.New("RATE_LIMIT_REQUESTS must be > 0")
	}
	if c.RateLimit.Window <= 0 {
		return errors.New("RATE_LIMIT_WINDOW must be > 0")
	}
	if c.MaxRequestBodyBytes <= 0 {
		return errors.New("MAX_REQUEST_BODY_BYTES must be > 0")
	}
	if c.Attachment.MaxWidth <= 0 {
		return errors.New("ATTACHMENT_MAX_WIDTH must be > 0")
	}
	if c.Attachment.JPEGQuality < 1 || c.Attachment.JPEGQuality > 100 {
		return errors.New("ATTACHMENT_JPEG_QUALITY must be between 1 and 100")
	}
	if c.ConversationLog.Enabled && c.ConversationLog.Dir == "" {
		return errors.New("CONVERSATION_LOG_DIR cannot be empty")
	}
	return nil
}

// APIKey returns the credential for the configured provider.
func (c *Config) APIKey() string {
	switch c.LLM.Provider {
	case llm.ProviderOpenRouter:
		return c.LLM.OpenRouterAPIKey
	case llm.ProviderOpenAI:
		return c.LLM.OpenAIAPIKey
	case llm.ProviderAnthropic:
		return c.LLM.AnthropicAPIKey
	default:
		return c.LLM.GoogleAPIKey
	}
}

// APIKeyEnv names the environment variable holding the configured provider's key.
func (c *Config) APIKeyEnv() string {
	switch c.LLM.Provider {
	case llm.ProviderOpenRouter:
		return "OPENROUTER_API_KEY"
	case llm.ProviderOpenAI:
		return "OPENAI_API_KEY"
	case llm.ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return "GOOGLE_API_KEY"
	}
}

// LLMClientConfig returns the settings needed to construct a model client.
func (c *Config) LLMClientConfig() llm.Config {
	return llm.Config{
		Provider:   c.LLM.Provider,
		Model:      c.LLM.Model,
		ImageModel: c.LLM.ImageModel,
		APIKey:     c.APIKey(),
	}
}

// AllowedOrigins returns the CORS origins, defaulting to the frontend URL
// and local development hosts.
func (c *Config) AllowedOrigins() []string {
	if len(c.CORSAllowedOrigins) > 0 {
		return c.CORSAllowedOrigins
	}
	origins := []string{"http://localhost:5173", "http://localhost:" + c.Port}
	if c.FrontendURL != "" {
		origins = append(origins, c.FrontendURL)
	}
	return origins
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

// source resolves a key from the environment first, then from a flat TOML
// file whose keys are the lower-cased variable names.
type source struct {
	lookupEnv func(string) (string, bool)
	file      map[string]any
}

func newSource(path string) (*source, error) {
	src := &source{lookupEnv: os.LookupEnv, file: map[string]any{}}
	if path == "" {
		return src, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := toml.Unmarshal(data, &src.file); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return src, nil
}

func (s *source) lookup(key string) (string, bool) {
	if value, ok := s.lookupEnv(key); ok {
		return value, true
	}
	raw, ok := s.file[strings.ToLower(key)]
	if !ok {
		return "", false
	}
	switch v := raw.(type) {
	case string:
		return v, true
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ","), true
	default:
		return fmt.Sprint(v), true
	}
}

func (s *source) get(key, fallback string) string {
	if value, ok := s.lookup(key); ok {
		return value
	}
	return fallback
}

func (s *source) getBool(key string, fallback bool) bool {
	value, ok := s.lookup(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func (s *source) getInt(key string, fallback int) int {
	value, ok := s.lookup(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func (s *source) getDuration(key string, fallback time.Duration) time.Duration {
	value, ok := s.lookup(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
