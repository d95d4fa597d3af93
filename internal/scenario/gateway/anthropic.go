package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"worldbuilder/internal/common/config"
	commonhttp "worldbuilder/internal/common/http"
)

const (
	defaultBaseURL   = "https://api.anthropic.com"
	defaultVersion   = "2023-06-01"
	defaultMaxTokens = 800
)

// AnthropicClient calls the Messages API over plain HTTP.
type AnthropicClient struct {
	http *commonhttp.Client
	cfg  config.AnthropicConfig
}

func NewAnthropicClient(cfg config.AnthropicConfig, client *commonhttp.Client) *AnthropicClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Version == "" {
		cfg.Version = defaultVersion
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if client == nil {
		client = commonhttp.NewClient(cfg.GatewayTimeout())
	}
	return &AnthropicClient{http: client, cfg: cfg}
}

// Configured reports whether a real API key is present.
func (c *AnthropicClient) Configured() bool {
	return c.cfg.HasAnthropicKey()
}

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiResponse struct {
	Content []apiContentBlock `json:"content"`
	Error   *apiError         `json:"error,omitempty"`
}

type apiContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (c *AnthropicClient) Generate(ctx context.Context, prompt string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	reqBody := apiRequest{
		Model:     c.cfg.Model,
		MaxTokens: c.cfg.MaxTokens,
		Messages:  []apiMessage{{Role: "user", Content: prompt}},
	}
	headers := map[string]string{
		"x-api-key":         strings.TrimSpace(c.cfg.APIKey),
		"anthropic-version": c.cfg.Version,
	}

	resp, err := c.http.PostJSON(ctx, strings.TrimRight(c.cfg.BaseURL, "/")+"/v1/messages", headers, reqBody)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("generation request: %w", ctxErr)
		}
		return "", fmt.Errorf("generation request: %w", err)
	}

	var apiResp apiResponse
	decodeErr := json.Unmarshal(resp.Body, &apiResp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		gwErr := &GatewayError{StatusCode: resp.StatusCode, Message: snippet(resp.Body)}
		if decodeErr == nil && apiResp.Error != nil {
			gwErr.Type = apiResp.Error.Type
			gwErr.Message = apiResp.Error.Message
		}
		return "", gwErr
	}
	if decodeErr != nil {
		return "", fmt.Errorf("parsing response: %w", decodeErr)
	}

	var text strings.Builder
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", ErrEmptyResponse
	}
	return text.String(), nil
}

func snippet(body []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit]
	}
	return s
}
