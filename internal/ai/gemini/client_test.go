package gemini

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/genai"

	"github.com/spigell/cv-screener/internal/ai"
)

type fakeChatCreator struct {
	mu    sync.Mutex
	calls []chatCallRecord
	queue map[string][]fakeChatResponse
}

type chatCallRecord struct {
	model  string
	config *genai.GenerateContentConfig
	chat   *fakeChat
}

type fakeChatResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

type fakeChat struct {
	mu       sync.Mutex
	response fakeChatResponse
	messages []string
}

func (f *fakeChat) SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, part := range parts {
		f.messages = append(f.messages, part.Text)
	}
	return f.response.resp, f.response.err
}

func newFakeChatCreator() *fakeChatCreator {
	return &fakeChatCreator{queue: make(map[string][]fakeChatResponse)}
}

func (f *fakeChatCreator) enqueue(model string, resp *genai.GenerateContentResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue[model] = append(f.queue[model], fakeChatResponse{resp: resp, err: err})
}

func (f *fakeChatCreator) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	responses := f.queue[model]
	if len(responses) == 0 {
		return nil, errors.New("unexpected call")
	}
	res := responses[0]
	f.queue[model] = responses[1:]
	chat := &fakeChat{response: res}
	f.calls = append(f.calls, chatCallRecord{model: model, config: config, chat: chat})
	return chat, nil
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     120,
			CandidatesTokenCount: 40,
		},
	}
}

func newTestGenerator(chats chatCreator) *Generator {
	return &Generator{
		chats:  chats,
		name:   providerName,
		model:  "gemini-pro",
		logger: zap.NewNop(),
	}
}

func TestGeneratorSendsSystemInstructionAndMessage(t *testing.T) {
	chats := newFakeChatCreator()
	chats.enqueue("gemini-pro", textResponse(`{"name":"Jane Doe"}`), nil)

	g := newTestGenerator(chats)

	completion, err := g.GenerateContent(context.Background(), ai.Prompt{System: "system", User: "message"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if completion.Text != `{"name":"Jane Doe"}` {
		t.Fatalf("unexpected output: %q", completion.Text)
	}
	if completion.InputTokens != 120 || completion.OutputTokens != 40 {
		t.Fatalf("unexpected usage: %+v", completion)
	}

	call := chats.calls[0]
	if call.config == nil || call.config.SystemInstruction == nil {
		t.Fatalf("expected system instruction to be set")
	}
	if got := call.config.SystemInstruction.Parts[0].Text; got != "system" {
		t.Fatalf("unexpected system instruction: %q", got)
	}
	if call.config.ResponseMIMEType != "application/json" {
		t.Fatalf("expected json response type, got %q", call.config.ResponseMIMEType)
	}
	if len(call.chat.messages) != 1 || call.chat.messages[0] != "message" {
		t.Fatalf("unexpected chat message: %+v", call.chat.messages)
	}
}

func TestGeneratorClassifiesAPIErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ai.ErrorKind
	}{
		{
			name: "internal error is transient",
			err:  genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"},
			want: ai.Transient,
		},
		{
			name: "long quota delay is quota",
			err: genai.APIError{
				Code:    http.StatusTooManyRequests,
				Status:  "RESOURCE_EXHAUSTED",
				Message: "quota exhausted, retry after 60 seconds",
			},
			want: ai.Quota,
		},
		{
			name: "invalid argument is rejected",
			err:  genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"},
			want: ai.Rejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chats := newFakeChatCreator()
			chats.enqueue("gemini-pro", nil, tt.err)

			_, err := newTestGenerator(chats).GenerateContent(context.Background(), ai.Prompt{System: "sys", User: "msg"})
			if kind, _ := ai.KindOf(err); kind != tt.want {
				t.Fatalf("expected %s, got %v", tt.want, err)
			}
		})
	}
}

func TestGeneratorEmptyResponseIsSchemaError(t *testing.T) {
	chats := newFakeChatCreator()
	chats.enqueue("gemini-pro", &genai.GenerateContentResponse{}, nil)

	_, err := newTestGenerator(chats).GenerateContent(context.Background(), ai.Prompt{User: "msg"})
	if kind, _ := ai.KindOf(err); kind != ai.Schema {
		t.Fatalf("expected schema error, got %v", err)
	}
}

func TestGeneratorLogsCalls(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	chats := newFakeChatCreator()
	chats.enqueue("gemini-pro", textResponse(`{"name":"Jane Doe"}`), nil)
	chats.enqueue("gemini-pro", nil, genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"})

	g := newTestGenerator(chats)
	g.logger = zap.New(core)

	if _, err := g.GenerateContent(context.Background(), ai.Prompt{User: "msg"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := g.GenerateContent(context.Background(), ai.Prompt{User: "msg"}); err == nil {
		t.Fatalf("expected api error")
	}

	received := logs.FilterMessage("gemini response received").All()
	if len(received) != 1 || received[0].ContextMap()["input_tokens"] != int64(120) {
		t.Fatalf("expected response entry with usage, got %+v", received)
	}
	failed := logs.FilterMessage("gemini api call failed").All()
	if len(failed) != 1 {
		t.Fatalf("expected one failure entry, got %d", len(failed))
	}
	fields := failed[0].ContextMap()
	if fields["code"] != int64(http.StatusBadRequest) || fields["kind"] != string(ai.Rejected) {
		t.Fatalf("unexpected failure fields: %+v", fields)
	}
}

func TestAdapterRetriesTemporaryErrorsThroughCaller(t *testing.T) {
	chats := newFakeChatCreator()
	tempErr := genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE"}
	chats.enqueue("gemini-pro", nil, tempErr)
	chats.enqueue("gemini-pro", textResponse(`{"title":"Go Engineer","required_skills":["Go","SQL","gRPC"]}`), nil)

	g := newTestGenerator(chats)
	caller := ai.NewCaller(ai.Settings{Name: providerName, Model: "gemini-pro", MaxRetries: 2}, nil, zap.NewNop()).WithBackoff(0)
	adapter := NewAdapter(g, caller)

	attempt, err := adapter.Extract(context.Background(), ai.Request{Kind: ai.KindJob, Text: strings.Repeat("We hire Go engineers. ", 10)})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(chats.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(chats.calls))
	}
	if attempt.Provider != providerName || adapter.Model() != "gemini-pro" {
		t.Fatalf("unexpected attempt identity: %+v", attempt)
	}
}
