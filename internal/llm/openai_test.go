package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/eigentalk/internal/llm"
)

func TestOpenAIClient_SendsMessagesAndOptions(t *testing.T) {
	var captured struct {
		Model       string        `json:"model"`
		Messages    []llm.Message `json:"messages"`
		MaxTokens   int           `json:"max_tokens"`
		Temperature float64       `json:"temperature"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  hey there \n"}}]}`))
	}))
	defer server.Close()

	client := llm.NewOpenAIClient(llm.OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	})

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: "context"},
		{Role: llm.RoleUser, Content: "question"},
	}
	text, err := client.Complete(context.Background(), messages, llm.CompleteOptions{MaxTokens: 1000, Temperature: 0.6})
	require.NoError(t, err)

	assert.Equal(t, "hey there", text, "response must be trimmed")
	assert.Equal(t, "gpt-4o-mini", captured.Model)
	assert.Equal(t, messages, captured.Messages)
	assert.Equal(t, 1000, captured.MaxTokens)
	assert.InDelta(t, 0.6, captured.Temperature, 1e-9)
}

func TestOpenAIClient_NonOKStatusIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := llm.NewOpenAIClient(llm.OpenAIConfig{APIKey: "k", BaseURL: server.URL})

	_, err := client.Complete(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}}, llm.CompleteOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestOpenAIClient_EmptyChoicesIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := llm.NewOpenAIClient(llm.OpenAIConfig{APIKey: "k", BaseURL: server.URL})

	_, err := client.Complete(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}}, llm.CompleteOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestAnthropicClient_HoistsSystemMessages(t *testing.T) {
	var captured struct {
		Model     string        `json:"model"`
		MaxTokens int           `json:"max_tokens"`
		System    string        `json:"system"`
		Messages  []llm.Message `json:"messages"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"text":"sure thing"}]}`))
	}))
	defer server.Close()

	client := llm.NewAnthropicClient(llm.AnthropicConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	})

	text, err := client.Complete(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: "context block"},
		{Role: llm.RoleUser, Content: "question"},
		{Role: llm.RoleAssistant, Content: "earlier answer"},
	}, llm.CompleteOptions{MaxTokens: 1000})
	require.NoError(t, err)

	assert.Equal(t, "sure thing", text)
	assert.Equal(t, "context block", captured.System)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, llm.RoleUser, captured.Messages[0].Role)
	assert.Equal(t, llm.RoleAssistant, captured.Messages[1].Role)
	assert.Equal(t, 1000, captured.MaxTokens)
}

func TestOllamaClient_SpeaksChatAPI(t *testing.T) {
	var captured struct {
		Model    string        `json:"model"`
		Messages []llm.Message `json:"messages"`
		Stream   bool          `json:"stream"`
		Options  struct {
			Temperature float64 `json:"temperature"`
			NumPredict  int     `json:"num_predict"`
		} `json:"options"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		_, _ = w.Write([]byte(`{"message":{"content":"local answer"},"done":true}`))
	}))
	defer server.Close()

	client := llm.NewOllamaClient(llm.OllamaConfig{BaseURL: server.URL, Model: "qwen2.5:7b"})

	text, err := client.Complete(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}}, llm.CompleteOptions{MaxTokens: 256, Temperature: 0.6})
	require.NoError(t, err)

	assert.Equal(t, "local answer", text)
	assert.Equal(t, "qwen2.5:7b", captured.Model)
	assert.False(t, captured.Stream)
	assert.Equal(t, 256, captured.Options.NumPredict)
	assert.InDelta(t, 0.6, captured.Options.Temperature, 1e-9)
}
