package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/localpulse/platform/internal/app/metrics"
	"github.com/localpulse/platform/pkg/logger"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultModel         = "gpt-4o-mini"
)

// Completer generates text from a prompt pair.
type Completer interface {
	Complete(ctx context.Context, system, user string, n int) ([]string, error)
}

// OpenAIClient calls the chat completions endpoint.
type OpenAIClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
	log     *logger.Logger
}

var _ Completer = (*OpenAIClient)(nil)

// NewOpenAIClient constructs an OpenAI client. Empty baseURL and model select
// the production endpoint and the default model.
func NewOpenAIClient(client *http.Client, baseURL, apiKey, model string, log *logger.Logger) (*OpenAIClient, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key required")
	}
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse openai base url: %w", err)
	}
	if model == "" {
		model = defaultModel
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if log == nil {
		log = logger.NewDefault("openai")
	}
	return &OpenAIClient{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		log:     log,
	}, nil
}

// Complete requests n chat completions and returns their message contents.
func (c *OpenAIClient) Complete(ctx context.Context, system, user string, n int) ([]string, error) {
	if n <= 0 {
		n = 1
	}
	payload, err := json.Marshal(map[string]interface{}{
		"model": c.model,
		"n":     n,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.RecordOutboundRequest("openai", 0)
		return nil, fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	metrics.RecordOutboundRequest("openai", resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read completion response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(body, "error.message").String()
		return nil, fmt.Errorf("openai status %d: %s", resp.StatusCode, msg)
	}

	var out []string
	gjson.GetBytes(body, "choices").ForEach(func(_, choice gjson.Result) bool {
		if text := strings.TrimSpace(choice.Get("message.content").String()); text != "" {
			out = append(out, text)
		}
		return true
	})
	if len(out) == 0 {
		return nil, fmt.Errorf("completion returned no choices")
	}
	return out, nil
}
