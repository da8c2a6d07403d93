// Package llm sends report prompts to the OpenAI chat-completion API.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/Adda-Baaj/market-brief/internal/domain"
	"github.com/Adda-Baaj/market-brief/internal/logger"
)

const (
	DefaultModel       = "gpt-4o"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1200
)

var (
	ErrNoAPIKey          = errors.New("llm: API key not configured")
	ErrClientUnavailable = errors.New("llm: completion client unavailable")
	ErrEmptyCompletion   = errors.New("llm: completion returned no text")
)

// Options configures the completion client.
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Client produces reports from prompts.
type Client struct {
	client      *openai.Client
	model       string
	temperature float64
	maxTokens   int
	log         logger.Logger
}

// NewClient builds a Client. It refuses to build one without an API key.
func NewClient(opts Options, log logger.Logger) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrNoAPIKey
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(strings.TrimRight(base, "/")+"/"))
	}
	if opts.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(opts.Timeout))
	}

	client := openai.NewClient(reqOpts...)

	c := &Client{
		client:      &client,
		model:       opts.Model,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
		log:         logger.Ensure(log),
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.temperature == 0 {
		c.temperature = DefaultTemperature
	}
	if c.maxTokens <= 0 {
		c.maxTokens = DefaultMaxTokens
	}
	return c, nil
}

// Complete sends prompt as a single user message and returns the first
// choice. Every failure, including a missing client, comes back as a failed
// report rather than an error.
func (c *Client) Complete(ctx context.Context, prompt string) domain.Report {
	if c == nil || c.client == nil {
		return domain.Failed(ErrClientUnavailable)
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(c.temperature),
		MaxTokens:   openai.Int(int64(c.maxTokens)),
	})
	if err != nil {
		return domain.Failed(fmt.Errorf("openai completion: %w", err))
	}
	if len(resp.Choices) == 0 {
		return domain.Failed(ErrEmptyCompletion)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return domain.Failed(ErrEmptyCompletion)
	}

	c.log.DebugObj("completion received", "llm_completion", map[string]any{
		"model":             resp.Model,
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
		"finish_reason":     resp.Choices[0].FinishReason,
		"latency_ms":        time.Since(start).Milliseconds(),
	})
	return domain.Ready(text)
}
