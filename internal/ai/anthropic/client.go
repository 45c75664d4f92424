// Package anthropic adapts the Anthropic Messages API to ai.Generator.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/spigell/visa-assessor/internal/ai"
)

const (
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 1024

	systemPrompt = "You classify job titles against a fixed occupation list. Respond only with a single JSON object."
)

type messageCreator interface {
	New(ctx context.Context, body anthropicsdk.MessageNewParams, opts ...option.RequestOption) (*anthropicsdk.Message, error)
}

type Generator struct {
	messages  messageCreator
	modelName string
}

// NewGenerator builds a client that performs exactly one request per prompt.
func NewGenerator(apiKey, model string) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: anthropic api key is required", ai.ErrNotConfigured)
	}

	client := anthropicsdk.NewClient(
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	)

	return newGenerator(&client.Messages, model), nil
}

func newGenerator(messages messageCreator, model string) *Generator {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	return &Generator{messages: messages, modelName: model}
}

func (g *Generator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.messages == nil {
		return "", fmt.Errorf("%w: anthropic generator is not initialized", ai.ErrNotConfigured)
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	msg, err := g.messages.New(ctx, anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(g.modelName),
		MaxTokens: defaultMaxTokens,
		System:    []anthropicsdk.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropicsdk.MessageParam{
			anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", classifyError(err)
	}

	var builder strings.Builder
	for _, block := range msg.Content {
		if block.Type != "text" {
			continue
		}
		text := strings.TrimSpace(block.Text)
		if text == "" {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(text)
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", fmt.Errorf("%w: anthropic api returned empty response", ai.ErrMalformedResponse)
	}

	return output, nil
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.modelName
}

func classifyError(err error) error {
	var apiErr *anthropicsdk.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return fmt.Errorf("%w: anthropic rejected the request: %w", ai.ErrNotConfigured, err)
		}
	}
	return fmt.Errorf("%w: anthropic messages: %w", ai.ErrTransport, err)
}
