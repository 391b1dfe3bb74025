package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultOllamaURL = "http://localhost:11434"

// OllamaProvider answers prompts with a local Ollama server through its chat API
type OllamaProvider struct {
	baseURL    string
	httpClient *http.Client
	config     Config
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  map[string]any  `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Model   string        `json:"model"`
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`

	// Present once done is true
	PromptEvalCount int `json:"prompt_eval_count,omitempty"`
	EvalCount       int `json:"eval_count,omitempty"`
}

// NewOllamaProvider creates a new Ollama provider. No key is needed; BaseURL
// defaults to the local server.
func NewOllamaProvider(config Config) (*OllamaProvider, error) {
	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}

	// Loading a model on first use takes a while
	return &OllamaProvider{
		baseURL:    baseURL,
		httpClient: httpClient(config, config.timeout(120*time.Second)),
		config:     config,
	}, nil
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// IsAvailable reports whether the server answers its model listing
func (p *OllamaProvider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Complete sends the prompt as a single-turn chat
func (p *OllamaProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	req = p.config.resolve(req, "")
	if req.Model == "" {
		return nil, fmt.Errorf("ollama: model must be specified (e.g. llama3.2, mistral)")
	}

	chat := ollamaChatRequest{
		Model:   req.Model,
		Options: map[string]any{"num_predict": req.MaxTokens},
	}
	if req.System != "" {
		chat.Messages = append(chat.Messages, ollamaMessage{Role: "system", Content: req.System})
	}
	chat.Messages = append(chat.Messages, ollamaMessage{Role: "user", Content: req.Prompt})

	var resp ollamaChatResponse
	if err := p.postJSON(ctx, "/api/chat", chat, &resp); err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}

	text := strings.TrimSpace(resp.Message.Content)
	tokens := resp.PromptEvalCount + resp.EvalCount
	if tokens == 0 {
		// Rough estimate, some models report no counts
		tokens = (len(req.Prompt) + len(text)) / 4
	}
	model := resp.Model
	if model == "" {
		model = req.Model
	}

	return &CompletionResponse{Text: text, Model: model, TokensUsed: tokens}, nil
}

// postJSON posts in to path and decodes the JSON answer into out
func (p *OllamaProvider) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("API error (%d): %s", httpResp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("API error (%d): %s", httpResp.StatusCode, strings.TrimSpace(string(data)))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
