package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-qa-go/internal/apperr"
	"pdf-qa-go/internal/config"
)

func TestChatCompletion_ReturnsAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "the answer"}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	client := NewClient(config.LLMConfig{BaseURL: srv.URL, Model: "test-model"})
	answer, err := client.ChatCompletion(context.Background(), []Message{
		{Role: "system", Content: "instruction"},
		{Role: "user", Content: "question"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "the answer", answer)
}

func TestChatCompletion_GenerationParamsOverrideConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.Temperature)
		assert.InDelta(t, 0.1, *req.Temperature, 1e-9)

		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "ok"}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	client := NewClient(config.LLMConfig{
		BaseURL: srv.URL,
		Model:   "test-model",
		Generation: config.LLMGenerationConfig{
			Temperature: 0.9,
		},
	})
	temp := 0.1
	_, err := client.ChatCompletion(context.Background(), []Message{{Role: "user", Content: "q"}}, &GenerationParams{Temperature: &temp})
	require.NoError(t, err)
}

func TestChatCompletion_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(config.LLMConfig{BaseURL: srv.URL, Model: "test-model"})
	_, err := client.ChatCompletion(context.Background(), []Message{{Role: "user", Content: "q"}}, nil)
	assert.ErrorIs(t, err, apperr.ErrGenerationUnavailable)
}

func TestChatCompletion_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(config.LLMConfig{BaseURL: srv.URL, Model: "test-model"})
	_, err := client.ChatCompletion(context.Background(), []Message{{Role: "user", Content: "q"}}, nil)
	assert.ErrorIs(t, err, apperr.ErrGenerationUnavailable)
}
