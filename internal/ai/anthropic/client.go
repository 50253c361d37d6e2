package anthropic

import (
	"context"
	"errors"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/ai"
)

const (
	defaultModel     = "claude-3-opus-20240229"
	defaultMaxTokens = 4096
	providerName     = "anthropic"
)

// Client wraps the Anthropic Messages API.
type Client struct {
	messages    *sdk.MessageService
	name        string
	model       string
	temperature float64
	maxTokens   int
	logger      *zap.Logger
}

// NewClient builds a client. SDK level retries are disabled so that the
// shared call policy is the only place that retries.
func NewClient(apiKey string, settings ai.Settings, logger *zap.Logger, opts ...option.RequestOption) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("anthropic api key is required")
	}

	model := strings.TrimSpace(settings.Model)
	if model == "" {
		model = defaultModel
	}

	name := strings.TrimSpace(settings.Name)
	if name == "" {
		name = providerName
	}

	maxTokens := settings.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	options := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)
	client := sdk.NewClient(options...)

	return &Client{
		messages:    &client.Messages,
		name:        name,
		model:       model,
		temperature: settings.Temperature,
		maxTokens:   maxTokens,
		logger:      logger,
	}, nil
}

func (c *Client) Model() string { return c.model }

// Complete sends a single message exchange.
func (c *Client) Complete(ctx context.Context, prompt ai.Prompt) (*ai.Completion, error) {
	params := sdk.MessageNewParams{
		Model:       sdk.Model(c.model),
		MaxTokens:   int64(c.maxTokens),
		Temperature: sdk.Float(c.temperature),
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt.User)),
		},
	}
	if system := strings.TrimSpace(prompt.System); system != "" {
		params.System = []sdk.TextBlockParam{{Text: system}}
	}

	msg, err := c.messages.New(ctx, params)
	if err != nil {
		return nil, c.classify(err)
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
		return nil, ai.NewError(c.name, ai.Schema, errors.New("anthropic api returned empty response"))
	}

	c.logger.Debug("anthropic message received",
		zap.String("stop_reason", string(msg.StopReason)),
		zap.Int64("output_tokens", msg.Usage.OutputTokens),
	)

	return &ai.Completion{
		Text:         output,
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
	}, nil
}

func (c *Client) classify(err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return ai.Classify(c.name, apiErr.StatusCode, apiErr.Error(), err)
	}
	return ai.Classify(c.name, 0, err.Error(), err)
}
