package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"estateflow/internal/config"
)

// systemPersona is sent as the system message; the catalog context itself
// travels in the prompt.
const systemPersona = "You are a helpful real estate assistant."

// OpenAIClient handles OpenAI-compatible chat completions
type OpenAIClient struct {
	config *config.OpenAIConfig
	client *openai.Client
	logger *slog.Logger
}

// NewOpenAIClient creates a client for any OpenAI-compatible API base.
func NewOpenAIClient(cfg *config.OpenAIConfig, logger *slog.Logger) *OpenAIClient {
	if logger == nil {
		logger = slog.Default()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.APIBase != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.APIBase, "/")
	}
	clientCfg.HTTPClient = &http.Client{
		Timeout: config.Seconds(cfg.Timeout),
	}

	return &OpenAIClient{
		config: cfg,
		client: openai.NewClientWithConfig(clientCfg),
		logger: logger.With("provider", "openai", "model", cfg.ChatModel),
	}
}

// IsEnabled returns whether the client is configured and ready
func (c *OpenAIClient) IsEnabled() bool {
	return c.config.Enabled && c.config.APIKey != ""
}

// Converse sends prompt as the user message of a single chat completion.
func (c *OpenAIClient) Converse(ctx context.Context, prompt string) (string, error) {
	if !c.IsEnabled() {
		return "", fmt.Errorf("openai: %w", ErrMissingCredential)
	}

	req := openai.ChatCompletionRequest{
		Model: c.config.ChatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPersona},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: float32(c.config.ChatTemperature),
		MaxTokens:   c.config.ChatMaxTokens,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classifyOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrMalformedResponse)
	}
	c.logger.Debug("chat completion finished", "finish_reason", resp.Choices[0].FinishReason,
		"total_tokens", resp.Usage.TotalTokens)

	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", fmt.Errorf("%w: empty message content", ErrMalformedResponse)
	}
	return reply, nil
}

// classifyOpenAIError sorts go-openai errors into the conversation failure
// categories.
func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &StatusError{Provider: "OpenAI", StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &StatusError{Provider: "OpenAI", StatusCode: reqErr.HTTPStatusCode, Body: truncateBody([]byte(reqErr.Error()))}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	return fmt.Errorf("%w: %w", ErrTransport, err)
}

var _ Conversation = (*OpenAIClient)(nil)
