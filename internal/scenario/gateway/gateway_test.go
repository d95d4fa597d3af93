package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worldbuilder/internal/common/config"
	"worldbuilder/internal/common/errors"
	commonhttp "worldbuilder/internal/common/http"
	"worldbuilder/internal/common/logger"
	"worldbuilder/internal/scenario/refdata"
)

func testConfig(baseURL string) config.AnthropicConfig {
	return config.AnthropicConfig{
		BaseURL:   baseURL,
		APIKey:    "test-key",
		Model:     "claude-test",
		MaxTokens: 800,
		Timeout:   2000,
	}
}

func TestAnthropicClient_Generate(t *testing.T) {
	var got apiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"In 2045, "},{"type":"text","text":"Wanjiku codes."}]}`))
	}))
	defer server.Close()

	client := NewAnthropicClient(testConfig(server.URL), commonhttp.NewClientWith(server.Client()))
	text, err := client.Generate(context.Background(), "write a scenario")
	require.NoError(t, err)

	assert.Equal(t, "In 2045, Wanjiku codes.", text)
	assert.Equal(t, "claude-test", got.Model)
	assert.Equal(t, 800, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "write a scenario", got.Messages[0].Content)
}

func TestAnthropicClient_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode errors.ErrorCode
		wantHTTP int
	}{
		{"api error body", http.StatusTooManyRequests, `{"error":{"type":"rate_limit_error","message":"slow down"}}`, errors.ErrCodeGatewayRequestFailed, 429},
		{"plain 500", http.StatusInternalServerError, `oops`, errors.ErrCodeGatewayRequestFailed, 500},
		{"empty content", http.StatusOK, `{"content":[]}`, errors.ErrCodeGatewayRequestFailed, 0},
		{"bad json", http.StatusOK, `not json`, errors.ErrCodeGatewayRequestFailed, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewAnthropicClient(testConfig(server.URL), commonhttp.NewClientWith(server.Client()))
			_, err := client.Generate(context.Background(), "p")
			require.Error(t, err)

			if tt.wantHTTP != 0 {
				var gwErr *GatewayError
				require.ErrorAs(t, err, &gwErr)
				assert.Equal(t, tt.wantHTTP, gwErr.StatusCode)
			}
			assert.Equal(t, tt.wantCode, Classify(err).Code)
		})
	}
}

func TestAnthropicClient_NotConfigured(t *testing.T) {
	for _, key := range []string{"", "  ", "your_api_key_here"} {
		cfg := testConfig("http://127.0.0.1:1")
		cfg.APIKey = key
		client := NewAnthropicClient(cfg, nil)

		assert.False(t, client.Configured())
		_, err := client.Generate(context.Background(), "p")
		assert.ErrorIs(t, err, ErrNotConfigured)
		assert.Equal(t, errors.ErrCodeGatewayNotConfigured, Classify(err).Code)
	}
}

func TestAnthropicClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewAnthropicClient(testConfig(server.URL), commonhttp.NewClientWith(server.Client()))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Generate(ctx, "p")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeGatewayTimeout, Classify(err).Code)
}

type stubGenerator struct {
	text string
	err  error
}

func (s stubGenerator) Generate(context.Context, string) (string, error) {
	return s.text, s.err
}

func TestFallback(t *testing.T) {
	store := refdata.MustLoad()
	log := logger.NewTestLogger(t)

	t.Run("passes generated text through", func(t *testing.T) {
		f := NewFallback(stubGenerator{text: "generated"}, store, time.Second, log)
		res := f.Generate(context.Background(), "p", "Kenya", "2045")
		assert.Equal(t, Result{Text: "generated"}, res)
	})

	t.Run("demo scenario for known pair", func(t *testing.T) {
		want, ok := store.DemoScenario("Kenya", "2045")
		require.True(t, ok)

		f := NewFallback(stubGenerator{err: ErrNotConfigured}, store, time.Second, log)
		res := f.Generate(context.Background(), "p", "Kenya", "2045")
		assert.True(t, res.Demo)
		assert.Equal(t, want, res.Text)
		assert.Equal(t, string(errors.ErrCodeGatewayNotConfigured), res.Reason)
	})

	t.Run("generic placeholder otherwise", func(t *testing.T) {
		f := NewFallback(stubGenerator{err: &GatewayError{StatusCode: 503, Message: "down"}}, store, time.Second, log)
		res := f.Generate(context.Background(), "p", "Norway", "2055")
		assert.True(t, res.Demo)
		assert.Equal(t, store.GenericDemo("Norway", "2055"), res.Text)
		assert.Contains(t, res.Text, "Norway")
		assert.Equal(t, string(errors.ErrCodeGatewayRequestFailed), res.Reason)
	})
}
