// Package llm is the chat-completion boundary. Everything upstream of it
// (enhancement, estimation, categorization) talks to the Completer
// interface so tests can run without a provider.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/claimstack/pricing-service/internal/httpx"
)

// Completer produces one completion for a prompt pair.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Request is a single chat completion call.
type Request struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Config points the client at an OpenAI-compatible chat completions
// endpoint.
type Config struct {
	BaseURL   string             `mapstructure:"base_url"`
	APIKey    string             `mapstructure:"api_key"`
	Model     string             `mapstructure:"model"`
	MaxTokens int                `mapstructure:"max_tokens"`
	Client    httpx.ClientConfig `mapstructure:"client"`
}

// Defaults fills unset fields.
func (c *Config) Defaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 1024
	}
	if c.Client.Retry.MaxAttempts == 0 {
		c.Client = httpx.DefaultClientConfig()
	}
}

// Validate reports a missing API key.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("llm: api key is required")
	}
	return nil
}

// Client calls an OpenAI-compatible chat completions API through the
// shared HTTP layer.
type Client struct {
	cfg  Config
	http *httpx.Client
	log  zerolog.Logger
}

// NewClient builds the provider client.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	cfg.Defaults()
	return &Client{
		cfg:  cfg,
		http: httpx.NewClient(cfg.Client),
		log:  log.With().Str("component", "llm").Logger(),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete runs one chat completion and returns the raw text content.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.cfg.MaxTokens
	}

	var messages []chatMessage
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.User})

	payload := chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/chat/completions"

	var resp chatResponse
	if err := c.http.PostJSON(ctx, "llm.complete", url, header, payload, &resp); err != nil {
		c.log.Warn().Err(err).Msg("completion failed")
		return "", err
	}
	if resp.Error != nil {
		return "", fmt.Errorf("llm: provider error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("llm: empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}
