package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/cv-screener/internal/ai"
)

const (
	defaultModel = "gemini-2.5-pro"
	providerName = "gemini"
)

type chatSession interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type chatCreator interface {
	Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error)
}

type clientChats struct {
	chats *genai.Chats
}

func (c clientChats) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	chat, err := c.chats.Create(ctx, model, config, history)
	if err != nil {
		return nil, err
	}
	return chat, nil
}

// Generator sends one system+user exchange to Gemini per call.
type Generator struct {
	chats           chatCreator
	name            string
	model           string
	temperature     float64
	maxOutputTokens int
	logger          *zap.Logger
}

// NewGenerator creates a Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey string, settings ai.Settings, logger *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
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

	return &Generator{
		chats:           clientChats{chats: client.Chats},
		name:            name,
		model:           model,
		temperature:     settings.Temperature,
		maxOutputTokens: settings.MaxOutputTokens,
		logger:          logger,
	}, nil
}

// GenerateContent performs one round trip. Retries belong to the caller.
func (g *Generator) GenerateContent(ctx context.Context, prompt ai.Prompt) (*ai.Completion, error) {
	if g == nil || g.chats == nil {
		return nil, errors.New("gemini generator is not initialized")
	}

	message := strings.TrimSpace(prompt.User)
	if message == "" {
		return nil, ai.NewError(g.name, ai.Rejected, errors.New("prompt must not be empty"))
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr(float32(g.temperature)),
	}
	if g.maxOutputTokens > 0 {
		config.MaxOutputTokens = int32(g.maxOutputTokens)
	}
	if system := strings.TrimSpace(prompt.System); system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	chat, err := g.chats.Create(ctx, g.model, config, nil)
	if err != nil {
		return nil, g.classify(fmt.Errorf("create chat: %w", err))
	}

	resp, err := chat.SendMessage(ctx, genai.Part{Text: message})
	if err != nil {
		return nil, g.classify(err)
	}

	output := responseText(resp)
	if output == "" {
		return nil, ai.NewError(g.name, ai.Schema, errors.New("gemini api returned empty response"))
	}

	completion := &ai.Completion{Text: output}
	if resp.UsageMetadata != nil {
		completion.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		completion.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	g.logger.Debug("gemini response received",
		zap.String("model", g.model),
		zap.Int("input_tokens", completion.InputTokens),
		zap.Int("output_tokens", completion.OutputTokens),
	)

	return completion, nil
}

func (g *Generator) classify(err error) error {
	code, status := 0, err.Error()
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code, status = apiErr.Code, apiErr.Status+": "+apiErr.Message
	case errors.As(err, &apiErrPtr) && apiErrPtr != nil:
		code, status = apiErrPtr.Code, apiErrPtr.Status+": "+apiErrPtr.Message
	}

	classified := ai.Classify(g.name, code, status, err)
	g.logger.Debug("gemini api call failed",
		zap.String("model", g.model),
		zap.Int("code", code),
		zap.String("kind", string(classified.Kind)),
		zap.Error(err),
	)
	return classified
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}
