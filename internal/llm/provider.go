package llm

import (
	"context"
	"errors"
	"time"
)

// ErrAPIKeyRequired is returned when a hosted provider is configured without a key
var ErrAPIKeyRequired = errors.New("API key required")

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends a single prompt and returns the model's answer
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest is one prompt for a model
type CompletionRequest struct {
	// Prompt is the user message
	Prompt string

	// System is an optional system instruction
	System string

	// Model overrides the configured model
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// CompletionResponse contains the model's answer
type CompletionResponse struct {
	// Text is the generated answer
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption (prompt + completion)
	TokensUsed int

	// Cached is true when the answer came from the response cache
	Cached bool
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "gemini", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for hosted providers
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, proxies, tests)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// System is the default system instruction
	System string

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Timeout:   60,
		MaxTokens: 1000,
	}
}

// Default models per provider
const (
	defaultOpenAIModel    = "gpt-4o-mini"
	defaultAnthropicModel = "claude-3-5-haiku-latest"
	defaultGeminiModel    = "gemini-2.0-flash"
	defaultMaxTokens      = 1000
)

// resolve fills request defaults from the provider config
func (c Config) resolve(req CompletionRequest, fallbackModel string) CompletionRequest {
	if req.Model == "" {
		req.Model = c.Model
	}
	if req.Model == "" {
		req.Model = fallbackModel
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = c.MaxTokens
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = defaultMaxTokens
	}
	if req.System == "" {
		req.System = c.System
	}
	return req
}

// timeout returns the request timeout, or fallback when unset
func (c Config) timeout(fallback time.Duration) time.Duration {
	if c.Timeout <= 0 {
		return fallback
	}
	return time.Duration(c.Timeout) * time.Second
}
