package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/birdsql/birdsql/internal/errors"
)

func TestNewClientValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:    "valid config",
			config:  Config{APIKey: "sk-test", Model: "gpt-4o-mini"},
			wantErr: false,
		},
		{
			name:    "missing API key",
			config:  Config{Model: "gpt-4o-mini"},
			wantErr: true,
		},
		{
			name:    "blank API key",
			config:  Config{APIKey: "   ", Model: "gpt-4o-mini"},
			wantErr: true,
		},
		{
			name:    "missing model",
			config:  Config{APIKey: "sk-test"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewClientDefaults(t *testing.T) {
	client, err := NewClient(Config{APIKey: "sk-test", Model: "gpt-4o-mini"})
	require.NoError(t, err)

	assert.Equal(t, defaultBaseURL, client.config.BaseURL)
	assert.Equal(t, defaultMaxTokens, client.config.MaxTokens)
	assert.Equal(t, DefaultStop, client.config.Stop)
	assert.Equal(t, "gpt-4o-mini", client.Model())
}

func TestComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req completionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		assert.Equal(t, 256, req.MaxTokens)
		assert.Equal(t, []string{";", "#", "--"}, req.Stop)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"text":" COUNT(*) FROM students"}]}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{APIKey: "sk-test", Model: "gpt-4o-mini", BaseURL: server.URL})
	require.NoError(t, err)

	text, err := client.Complete(context.Background(), "schema\nSELECT ")
	require.NoError(t, err)
	assert.Equal(t, " COUNT(*) FROM students", text)
}

func TestChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Contains(t, req.Messages[0].Content, "Text-to-SQL expert")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  SELECT 1  "}}]}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{APIKey: "sk-test", Model: "gpt-4o-mini", BaseURL: server.URL})
	require.NoError(t, err)

	text, err := client.Chat(context.Background(), "refine this")
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", text)
}

func TestCompleteEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{APIKey: "sk-test", Model: "gpt-4o-mini", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "prompt")
	assert.True(t, errors.IsType(err, errors.ErrTypeCompletion))
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantType errors.ErrorType
	}{
		{
			name:     "plain rate limit",
			status:   http.StatusTooManyRequests,
			body:     `{"error":{"message":"slow down","type":"rate_limit_error","code":"rate_limit_exceeded"}}`,
			wantType: errors.ErrTypeRateLimit,
		},
		{
			name:     "quota exhaustion",
			status:   http.StatusTooManyRequests,
			body:     `{"error":{"message":"You exceeded your current quota","type":"insufficient_quota","code":"insufficient_quota"}}`,
			wantType: errors.ErrTypeQuota,
		},
		{
			name:     "server error",
			status:   http.StatusInternalServerError,
			body:     `{"error":{"message":"upstream error"}}`,
			wantType: errors.ErrTypeCompletion,
		},
		{
			name:     "gateway timeout",
			status:   http.StatusGatewayTimeout,
			body:     `{}`,
			wantType: errors.ErrTypeTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := NewClient(Config{APIKey: "sk-test", Model: "gpt-4o-mini", BaseURL: server.URL})
			require.NoError(t, err)

			_, err = client.Complete(context.Background(), "prompt")
			require.Error(t, err)
			assert.True(t, errors.IsType(err, tt.wantType),
				"expected %s, got %s", tt.wantType, errors.GetType(err))
		})
	}
}

func TestConfigStringHidesKey(t *testing.T) {
	cfg := Config{APIKey: "sk-secret", Model: "gpt-4o-mini", BaseURL: defaultBaseURL, MaxTokens: 256}

	assert.NotContains(t, cfg.String(), "sk-secret")
}
