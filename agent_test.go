package researchagent

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/packages/ssestream"
)

// fakeDecoder replays canned SSE events so streaming behavior can be tested
// without a live endpoint.
type fakeDecoder struct {
	events []ssestream.Event
	index  int
}

func (d *fakeDecoder) Next() bool {
	if d.index < len(d.events) {
		d.index++
		return true
	}
	return false
}

func (d *fakeDecoder) Event() ssestream.Event {
	return d.events[d.index-1]
}

func (d *fakeDecoder) Close() error {
	return nil
}

func (d *fakeDecoder) Err() error {
	return nil
}

// fakeStreamLLM serves one canned stream of chunk payloads per call.
type fakeStreamLLM struct {
	chunks []string
}

func (f *fakeStreamLLM) New(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeStreamLLM) NewStreaming(ctx context.Context, params openai.ChatCompletionNewParams) *ssestream.Stream[openai.ChatCompletionChunk] {
	events := make([]ssestream.Event, len(f.chunks))
	for i, chunk := range f.chunks {
		events[i] = ssestream.Event{Data: []byte(chunk)}
	}
	return ssestream.NewStream[openai.ChatCompletionChunk](&fakeDecoder{events: events}, nil)
}

func TestAgentToolManagement(t *testing.T) {
	agent := NewAgent("researcher", "test agent", "You are helpful.", nil)

	if len(agent.AvailableTools()) != 0 {
		t.Error("Expected no tools on a fresh agent")
	}

	if err := agent.AddTool(&fakeTool{name: "calculator"}); err != nil {
		t.Fatalf("Failed to add tool: %v", err)
	}
	if err := agent.AddTool(&fakeTool{name: "web_search"}); err != nil {
		t.Fatalf("Failed to add tool: %v", err)
	}

	expected := []string{"calculator", "web_search"}
	if !reflect.DeepEqual(agent.AvailableTools(), expected) {
		t.Errorf("Expected tools %v, got %v", expected, agent.AvailableTools())
	}

	if err := agent.AddTool(&fakeTool{name: ""}); err == nil {
		t.Error("Expected error adding a tool without a name")
	}
}

func TestAgentIdentity(t *testing.T) {
	agent := NewAgent("researcher", "Multi-tool research agent", "prompt", nil)
	if agent.Name() != "researcher" {
		t.Errorf("Expected name researcher, got %q", agent.Name())
	}
	if agent.Description() != "Multi-tool research agent" {
		t.Errorf("Expected description to be preserved, got %q", agent.Description())
	}
}

func TestAgentConfigure(t *testing.T) {
	agent := NewAgent("researcher", "", "prompt", nil)
	cfg := &Config{
		OpenAIAPIKey:  "key",
		MaxIterations: 9,
		MaxTokens:     123,
		Temperature:   0.1,
	}
	agent.Configure(cfg)

	if agent.maxIterations != 9 {
		t.Errorf("Expected max iterations 9, got %d", agent.maxIterations)
	}
	if agent.maxTokens != 123 {
		t.Errorf("Expected max tokens 123, got %d", agent.maxTokens)
	}
	if agent.temperature != 0.1 {
		t.Errorf("Expected temperature 0.1, got %f", agent.temperature)
	}
}

func TestRunAccumulatesTrailingUsage(t *testing.T) {
	llm := &fakeStreamLLM{chunks: []string{
		`{"id":"chatcmpl-1","object":"chat.completion.chunk","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"delta":{"role":"assistant","content":"hello"}}]}`,
		`{"id":"chatcmpl-1","object":"chat.completion.chunk","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`,
		`{"id":"chatcmpl-1","object":"chat.completion.chunk","created":1,"model":"gpt-4o-mini","choices":[],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`,
	}}

	agent := NewAgent("researcher", "", "prompt", nil)
	history := NewMessageList(UserMessage("hi"))
	out := make(chan Response, 16)

	result, err := agent.Run(context.Background(), llm, "gpt-4o-mini", history, "", out)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Answer != "hello" {
		t.Errorf("Expected answer 'hello', got %q", result.Answer)
	}
	// The usage chunk trails the finish-reason chunk; it must still be
	// accumulated.
	if result.InputTokens != 10 || result.OutputTokens != 5 {
		t.Errorf("Expected usage 10/5 tokens, got %d/%d", result.InputTokens, result.OutputTokens)
	}

	close(out)
	var streamed string
	for response := range out {
		if response.Type == ResponseTypePartialText {
			streamed += response.Content
		}
	}
	if streamed != "hello" {
		t.Errorf("Expected streamed content 'hello', got %q", streamed)
	}
}

func TestExecuteToolSuccess(t *testing.T) {
	agent := NewAgent("researcher", "", "prompt", nil)
	tool := &fakeTool{name: "calculator", output: "42"}

	message := agent.executeTool(context.Background(), tool, "call-1", `{"expression": "6*7"}`)

	text, err := messageText(message)
	if err != nil {
		t.Fatalf("Failed to read tool message: %v", err)
	}
	if text != "42" {
		t.Errorf("Expected tool output '42', got %q", text)
	}
}

func TestExecuteToolInvalidArguments(t *testing.T) {
	agent := NewAgent("researcher", "", "prompt", nil)
	tool := &fakeTool{name: "calculator", output: "never"}

	message := agent.executeTool(context.Background(), tool, "call-1", `{not json`)

	text, err := messageText(message)
	if err != nil {
		t.Fatalf("Failed to read tool message: %v", err)
	}
	if !strings.Contains(text, "Retry") {
		t.Errorf("Expected a retry message for invalid arguments, got %q", text)
	}
}

func TestExecuteToolErrorClassification(t *testing.T) {
	agent := NewAgent("researcher", "", "prompt", nil)

	tests := []struct {
		name      string
		err       error
		wantRetry bool
	}{
		{"ignorable", NewIgnorableError("nothing to do"), false},
		{"retryable", NewRetryableError("bad input"), true},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool := &fakeTool{name: "calculator", execErr: tt.err}
			message := agent.executeTool(context.Background(), tool, "call-1", `{}`)

			text, err := messageText(message)
			if err != nil {
				t.Fatalf("Failed to read tool message: %v", err)
			}
			if tt.wantRetry && !strings.Contains(text, "Retry") {
				t.Errorf("Expected retry message, got %q", text)
			}
			if !tt.wantRetry && !strings.Contains(text, "Do not retry") {
				t.Errorf("Expected do-not-retry message, got %q", text)
			}
		})
	}
}
