package chatmem

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider names accepted by Config.Provider.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderStatic    = "static"
)

// Config configures the chatmem server: the store bounds, the HTTP
// surface, and which responder backs /chat.
type Config struct {
	// Addr is the HTTP listen address. Defaults to ":8080".
	Addr string

	// Limits are the store retention bounds.
	Limits Limits

	// Provider selects the responder backend: "openai", "anthropic" or
	// "static". Defaults to "static" so the server runs offline.
	Provider string

	// Model is the model name passed to the provider. Optional.
	Model string

	// OpenAIAPIKey is required when Provider is "openai".
	OpenAIAPIKey string

	// AnthropicAPIKey is required when Provider is "anthropic".
	AnthropicAPIKey string

	// AllowedOrigins for CORS. Defaults to allowing all origins.
	AllowedOrigins []string

	// RequestTimeout is the maximum time for a request.
	// Defaults to 60 seconds.
	RequestTimeout time.Duration

	// MaxRequestBodySize limits request bodies in bytes.
	// Defaults to 1 MiB.
	MaxRequestBodySize int64

	// RateLimit throttles requests per tenant.
	RateLimit RateLimitConfig

	// Logger is the structured logger. Defaults to slog.Default().
	Logger *slog.Logger
}

// RateLimitConfig bounds per-tenant request rates.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per tenant.
	// Defaults to 5.
	RequestsPerSecond float64

	// Burst is the per-tenant burst size. Defaults to 10.
	Burst int
}

// withDefaults applies default values to the config.
func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.Provider == "" {
		c.Provider = ProviderStatic
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 60 * time.Second
	}
	if c.MaxRequestBodySize <= 0 {
		c.MaxRequestBodySize = 1 << 20
	}
	if c.RateLimit.RequestsPerSecond <= 0 {
		c.RateLimit.RequestsPerSecond = 5
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = 10
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// validate checks that the config is usable.
func (c Config) validate() error {
	switch c.Provider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("provider %q requires an OpenAI API key", c.Provider)
		}
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("provider %q requires an Anthropic API key", c.Provider)
		}
	case ProviderStatic:
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	return nil
}

// NewResponder validates the provider selection and builds the
// responder it names.
func (c Config) NewResponder() (Responder, error) {
	c = c.withDefaults()
	if err := c.validate(); err != nil {
		return nil, err
	}
	switch c.Provider {
	case ProviderOpenAI:
		return NewOpenAIResponder(c.OpenAIAPIKey, c.Model, c.Logger)
	case ProviderAnthropic:
		return NewAnthropicResponder(c.AnthropicAPIKey, c.Model, c.Logger)
	case ProviderStatic:
		return &StaticResponder{}, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", c.Provider)
	}
}

// configYAML is the YAML structure for the config file.
type configYAML struct {
	Addr   string `yaml:"addr"`
	Limits struct {
		MaxConversationsPerTenant  int `yaml:"max_conversations_per_tenant"`
		MaxMessagesPerConversation int `yaml:"max_messages_per_conversation"`
	} `yaml:"limits"`
	Provider        string   `yaml:"provider"`
	Model           string   `yaml:"model"`
	OpenAIAPIKey    string   `yaml:"openai_api_key"`
	AnthropicAPIKey string   `yaml:"anthropic_api_key"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
	RequestTimeout  string   `yaml:"request_timeout"`
	RateLimit       struct {
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
	} `yaml:"rate_limit"`
}

// LoadConfigFile reads a YAML config file into a Config. Values absent
// from the file take their defaults at construction time.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var raw configYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	cfg := Config{
		Addr: raw.Addr,
		Limits: Limits{
			MaxConversationsPerTenant:  raw.Limits.MaxConversationsPerTenant,
			MaxMessagesPerConversation: raw.Limits.MaxMessagesPerConversation,
		},
		Provider:        raw.Provider,
		Model:           raw.Model,
		OpenAIAPIKey:    raw.OpenAIAPIKey,
		AnthropicAPIKey: raw.AnthropicAPIKey,
		AllowedOrigins:  raw.AllowedOrigins,
		RateLimit: RateLimitConfig{
			RequestsPerSecond: raw.RateLimit.RequestsPerSecond,
			Burst:             raw.RateLimit.Burst,
		},
	}

	if raw.RequestTimeout != "" {
		timeout, err := time.ParseDuration(raw.RequestTimeout)
		if err != nil {
			return Config{}, fmt.Errorf("invalid request_timeout: %w", err)
		}
		cfg.RequestTimeout = timeout
	}

	return cfg, nil
}
