package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

// ollamaServer answers /api/chat with handler and records the last request
func ollamaServer(t *testing.T, handler func(w http.ResponseWriter, req ollamaChatRequest)) (*httptest.Server, *ollamaChatRequest) {
	t.Helper()
	var last ollamaChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&last); err != nil {
			t.Errorf("decode request: %v", err)
		}
		handler(w, last)
	}))
	t.Cleanup(server.Close)
	return server, &last
}

func TestOllamaProvider_Complete(t *testing.T) {
	server, got := ollamaServer(t, func(w http.ResponseWriter, req ollamaChatRequest) {
		_ = json.NewEncoder(w).Encode(ollamaChatResponse{
			Model:           req.Model,
			Message:         ollamaMessage{Role: "assistant", Content: " שלום! Acme builds robots.\n"},
			Done:            true,
			PromptEvalCount: 12,
			EvalCount:       18,
		})
	})

	provider, err := NewOllamaProvider(Config{BaseURL: server.URL + "/", Model: "llama3.2", Timeout: 5})
	if err != nil {
		t.Fatalf("NewOllamaProvider() error = %v", err)
	}

	resp, err := provider.Complete(context.Background(), CompletionRequest{Prompt: "Who builds robots?", System: "Be brief."})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if resp.Text != "שלום! Acme builds robots." {
		t.Errorf("Unexpected text: %q", resp.Text)
	}
	if resp.TokensUsed != 30 || resp.Model != "llama3.2" {
		t.Errorf("Unexpected response: %+v", resp)
	}

	if got.Stream {
		t.Error("Expected a non-streaming request")
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "Who builds robots?" {
		t.Errorf("Unexpected messages: %+v", got.Messages)
	}
	// JSON numbers decode as float64
	if got.Options["num_predict"] != float64(defaultMaxTokens) {
		t.Errorf("Expected num_predict %d, got %v", defaultMaxTokens, got.Options["num_predict"])
	}
}

func TestOllamaProvider_Complete_NoSystemNoCounts(t *testing.T) {
	server, got := ollamaServer(t, func(w http.ResponseWriter, _ ollamaChatRequest) {
		_ = json.NewEncoder(w).Encode(ollamaChatResponse{Message: ollamaMessage{Content: "12345678"}, Done: true})
	})

	provider, _ := NewOllamaProvider(Config{BaseURL: server.URL, Model: "mistral"})
	resp, err := provider.Complete(context.Background(), CompletionRequest{Prompt: "12345678"})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if len(got.Messages) != 1 || got.Messages[0].Role != "user" {
		t.Errorf("Expected a single user message, got %+v", got.Messages)
	}
	if resp.TokensUsed != 4 {
		t.Errorf("Expected estimated 4 tokens, got %d", resp.TokensUsed)
	}
	if resp.Model != "mistral" {
		t.Errorf("Expected requested model when response omits it, got %q", resp.Model)
	}
}

func TestOllamaProvider_Complete_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "api error", status: http.StatusNotFound, body: `{"error": "model \"llama9\" not found"}`, wantErr: "not found"},
		{name: "plain error", status: http.StatusBadGateway, body: "upstream down", wantErr: "upstream down"},
		{name: "malformed json", status: http.StatusOK, body: `{malformed`, wantErr: "decode response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := ollamaServer(t, func(w http.ResponseWriter, _ ollamaChatRequest) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			provider, _ := NewOllamaProvider(Config{BaseURL: server.URL, Model: "llama3.2"})
			_, err := provider.Complete(context.Background(), CompletionRequest{Prompt: "hi"})
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestOllamaProvider_IsAvailable(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(int(status.Load()))
	}))
	defer server.Close()

	provider, _ := NewOllamaProvider(Config{BaseURL: server.URL})
	if !provider.IsAvailable(context.Background()) {
		t.Error("Expected server to be available")
	}

	status.Store(http.StatusInternalServerError)
	if provider.IsAvailable(context.Background()) {
		t.Error("Expected server to be unavailable on 500")
	}
}

func TestOllamaProvider_NoModel(t *testing.T) {
	provider, err := NewOllamaProvider(Config{})
	if err != nil {
		t.Fatalf("NewOllamaProvider() error = %v", err)
	}
	if provider.baseURL != defaultOllamaURL {
		t.Errorf("Expected default base URL, got %s", provider.baseURL)
	}

	_, err = provider.Complete(context.Background(), CompletionRequest{Prompt: "hi"})
	if err == nil || !strings.Contains(err.Error(), "must be specified") {
		t.Errorf("Expected missing model error, got %v", err)
	}
}
