package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/ai"
)

const (
	apiURL       = "https://api.openai.com/v1"
	defaultModel = "gpt-4-turbo-preview"
	providerName = "openai"
	userAgent    = "spigell/cv-screener"
	contentType  = "application/json"
)

// Client talks to the chat completions endpoint.
type Client struct {
	token       string
	name        string
	model       string
	temperature float64
	maxTokens   int
	logger      *zap.Logger

	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

func NewClient(apiKey string, settings ai.Settings, logger *zap.Logger) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	model := strings.TrimSpace(settings.Model)
	if model == "" {
		model = defaultModel
	}

	name := strings.TrimSpace(settings.Name)
	if name == "" {
		name = providerName
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		token:       apiKey,
		name:        name,
		model:       model,
		temperature: settings.Temperature,
		maxTokens:   settings.MaxOutputTokens,
		logger:      logger,
		HTTPClient:  &http.Client{Timeout: ai.MaxTimeout},
		UserAgent:   userAgent,
		APIURL:      apiURL,
	}, nil
}

func (c *Client) Model() string { return c.model }

// Complete performs one chat completion in JSON mode.
func (c *Client) Complete(ctx context.Context, prompt ai.Prompt) (*ai.Completion, error) {
	payload := chatRequest{
		Model:          c.model,
		Temperature:    c.temperature,
		MaxTokens:      c.maxTokens,
		ResponseFormat: &responseFormat{Type: "json_object"},
		Messages: []chatMessage{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.User},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, ai.NewError(c.name, ai.Rejected, fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.APIURL, "/")+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, ai.NewError(c.name, ai.Rejected, err)
	}
	c.setHeaders(req)

	resp, err := c.request(req)
	if err != nil {
		return nil, ai.Classify(c.name, 0, err.Error(), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ai.Classify(c.name, 0, err.Error(), err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(resp, data)
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, ai.NewError(c.name, ai.Schema, fmt.Errorf("decode response: %w", err))
	}

	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return nil, ai.NewError(c.name, ai.Schema, errors.New("openai api returned empty response"))
	}

	return &ai.Completion{
		Text:         parsed.Choices[0].Message.Content,
		InputTokens:  parsed.Usage.PromptTokens,
		OutputTokens: parsed.Usage.CompletionTokens,
	}, nil
}

func (c *Client) statusError(resp *http.Response, data []byte) error {
	msg := resp.Status
	var apiErr errorResponse
	if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error.Message != "" {
		msg = fmt.Sprintf("%s (%s %v)", apiErr.Error.Message, apiErr.Error.Type, apiErr.Error.Code)
	}

	perr := ai.Classify(c.name, resp.StatusCode, msg, nil)
	if after := resp.Header.Get("Retry-After"); after != "" && perr.Kind == ai.Transient {
		if d, err := time.ParseDuration(after + "s"); err == nil {
			perr.RetryAfter = d
		}
	}
	return perr
}

func (c *Client) request(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request",
		zap.String("url", req.URL.String()),
		zap.String("request_id", req.Header.Get("X-Request-ID")),
	)
	return c.HTTPClient.Do(req)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
}
