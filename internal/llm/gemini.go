package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiProvider implements the Provider interface for Google Gemini models
type GeminiProvider struct {
	config Config
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(config Config) (*GeminiProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini: %w: set GEMINI_API_KEY", ErrAPIKeyRequired)
	}
	return &GeminiProvider{config: config}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// client creates a Gemini API client bound to ctx
func (p *GeminiProvider) client(ctx context.Context) (*genai.Client, error) {
	cfg := &genai.ClientConfig{
		APIKey:     p.config.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient(p.config, 0),
	}
	if p.config.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: p.config.BaseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return client, nil
}

// IsAvailable checks if the provider is properly configured
func (p *GeminiProvider) IsAvailable(ctx context.Context) bool {
	client, err := p.client(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Gemini API check failed: %v\n", err)
		return false
	}

	model := p.config.Model
	if model == "" {
		model = defaultGeminiModel
	}
	if _, err := client.Models.Get(ctx, model, nil); err != nil {
		fmt.Fprintf(os.Stderr, "Gemini API check failed: %v\n", err)
		return false
	}
	return true
}

// Complete generates an answer using GenerateContent
func (p *GeminiProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	req = p.config.resolve(req, defaultGeminiModel)

	ctx, cancel := context.WithTimeout(ctx, p.config.timeout(60*time.Second))
	defer cancel()

	client, err := p.client(ctx)
	if err != nil {
		return nil, err
	}

	contents := []*genai.Content{
		{
			Parts: []*genai.Part{{Text: req.Prompt}},
			Role:  "user",
		},
	}

	genConfig := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.System != "" {
		genConfig.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}

	resp, err := client.Models.GenerateContent(ctx, req.Model, contents, genConfig)
	if err != nil {
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, fmt.Errorf("no response from Gemini")
	}

	tokens := 0
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	model := resp.ModelVersion
	if model == "" {
		model = req.Model
	}

	return &CompletionResponse{
		Text:       text,
		Model:      model,
		TokensUsed: tokens,
	}, nil
}
