package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strrl/copycat/pkg/models"
)

func TestCatalogCoversEveryProvider(t *testing.T) {
	require.Len(t, Catalog(), len(models.Providers))
	for _, p := range models.Providers {
		info, ok := Lookup(p)
		require.True(t, ok, p)
		assert.NotEmpty(t, info.BaseURL)
		assert.NotEmpty(t, info.DisplayName)
	}

	_, ok := Lookup("nope")
	assert.False(t, ok)
}

func TestProbeRequiresKey(t *testing.T) {
	err := NewProber(nil).Probe(context.Background(), models.LLMConfig{Provider: models.ProviderDeepSeek})
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestProbeUnknownProvider(t *testing.T) {
	err := NewProber(nil).Probe(context.Background(), models.LLMConfig{Provider: "nope", APIKey: "k"})
	assert.ErrorContains(t, err, "unknown provider")
}

func TestProbeOpenAICompatible(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"deepseek-chat","object":"model","owned_by":"deepseek"}]}`))
	}))
	defer srv.Close()

	err := NewProber(nil).Probe(context.Background(), models.LLMConfig{
		Provider: models.ProviderDeepSeek,
		APIKey:   "sk-test",
		BaseURL:  srv.URL + "/v1/",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "/v1/models", gotPath)
}

func TestProbeOpenAIRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	err := NewProber(nil).Probe(context.Background(), models.LLMConfig{
		Provider: models.ProviderOpenAI,
		APIKey:   "sk-bad",
		BaseURL:  srv.URL,
	})
	assert.ErrorContains(t, err, "failed to list models")
}

func TestProbeAnthropic(t *testing.T) {
	var gotKey, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-3-5-haiku-20241022",` +
			`"content":[{"type":"text","text":"p"}],"stop_reason":"max_tokens","stop_sequence":null,` +
			`"usage":{"input_tokens":1,"output_tokens":1}}`))
	}))
	defer srv.Close()

	err := NewProber(nil).Probe(context.Background(), models.LLMConfig{
		Provider: models.ProviderAnthropic,
		APIKey:   "ant-key",
		BaseURL:  srv.URL + "/v1",
	})
	require.NoError(t, err)
	assert.Equal(t, "ant-key", gotKey)
	assert.Equal(t, "/v1/messages", gotPath)
}

func TestProbeAnthropicRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer srv.Close()

	err := NewProber(nil).Probe(context.Background(), models.LLMConfig{
		Provider: models.ProviderAnthropic,
		APIKey:   "bad",
		BaseURL:  srv.URL,
	})
	assert.ErrorContains(t, err, "failed to send message")
}
