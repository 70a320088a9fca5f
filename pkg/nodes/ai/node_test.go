package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/protocol"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/testutil"
)

func completionServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return server
}

func TestAICompletion(t *testing.T) {
	t.Parallel()

	var captured chatRequest

	server := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "Hello there"}},
			},
			"usage": map[string]any{"total_tokens": 12},
		})
	})

	executor := NewExecutor("ai-1", APIConfig{BaseURL: server.URL, APIKey: "test-key"})

	output, err := executor.Execute(context.Background(), testutil.CreateExecutionInput("ai-1", map[string]any{
		"prompt": "Say hello",
		"system": "You are terse.",
		"model":  "gpt-4o",
	}, nil))

	require.NoError(t, err)

	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "gpt-4o", captured.Model)

	result := output[DefaultVariable].(map[string]any)
	assert.Equal(t, "Hello there", result["response"])
	assert.Equal(t, 12, result["tokens"])
}

func TestAIMissingPrompt(t *testing.T) {
	t.Parallel()

	executor := NewExecutor("ai-1", APIConfig{APIKey: "test-key"})

	_, err := executor.Execute(context.Background(), testutil.CreateExecutionInput("ai-1", map[string]any{}, nil))

	require.Error(t, err)
	assert.True(t, protocol.IsNonRetriable(err))
}

func TestAIAuthErrorIsNotRetriable(t *testing.T) {
	t.Parallel()

	server := completionServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "invalid api key"},
		})
	})

	executor := NewExecutor("ai-1", APIConfig{BaseURL: server.URL, APIKey: "bad-key"})

	_, err := executor.Execute(context.Background(), testutil.CreateExecutionInput("ai-1", map[string]any{
		"prompt": "hi",
	}, nil))

	require.Error(t, err)
	assert.True(t, protocol.IsNonRetriable(err))
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestAIServerErrorIsRetriable(t *testing.T) {
	t.Parallel()

	server := completionServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("{}"))
	})

	executor := NewExecutor("ai-1", APIConfig{BaseURL: server.URL, APIKey: "test-key"})

	_, err := executor.Execute(context.Background(), testutil.CreateExecutionInput("ai-1", map[string]any{
		"prompt": "hi",
	}, nil))

	require.Error(t, err)
	assert.False(t, protocol.IsNonRetriable(err))
}
