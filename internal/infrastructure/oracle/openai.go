// Package oracle implements the reasoning oracle on an
// OpenAI-compatible chat completion endpoint.
package oracle

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/openivr/call-server/internal/config"
	"github.com/openivr/call-server/internal/domain/resolution"
)

// Client wraps the OpenAI chat completion API as a resolution.Oracle.
type Client struct {
	client *openai.Client
	model  string
	log    zerolog.Logger
}

// NewClient creates the oracle client. A non-empty base URL points it
// at any OpenAI-compatible endpoint.
func NewClient(cfg *config.Config, log zerolog.Logger) *Client {
	clientCfg := openai.DefaultConfig(cfg.OracleAPIKey)
	if cfg.OracleBaseURL != "" {
		clientCfg.BaseURL = cfg.OracleBaseURL
	}
	return &Client{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.OracleModel,
		log:    log.With().Str("component", "oracle-client").Logger(),
	}
}

var _ resolution.Oracle = (*Client)(nil)

// Infer submits the instruction set and one utterance, returning the
// oracle's raw text. Structure is not guaranteed; the caller parses
// defensively.
func (c *Client) Infer(ctx context.Context, instructions, utterance string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: instructions},
			{Role: openai.ChatMessageRoleUser, Content: utterance},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
