package researchagent

import (
	"context"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
)

// ContextKey is the type for values the runtime stashes in a context.
type ContextKey string

// LLMClient is the minimal contract the agent runtime needs from a
// language-model provider. The concrete LLM type below talks to any
// OpenAI-compatible endpoint; tests substitute their own implementations.
type LLMClient interface {
	// New issues a non-streaming chat completion request.
	New(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)

	// NewStreaming issues a streaming chat completion request, returning
	// an ssestream.Stream to consume the chunks.
	NewStreaming(ctx context.Context, params openai.ChatCompletionNewParams) *ssestream.Stream[openai.ChatCompletionChunk]
}

type LLM struct {
	APIKey  string
	BaseURL string
	Model   string
	client  *openai.Client
}

// NewLLM builds a client for the configured endpoint. An empty baseURL means
// the OpenAI default.
func NewLLM(apiKey string, baseURL string, model string) *LLM {
	var client *openai.Client
	if baseURL != "" {
		client = openai.NewClient(option.WithBaseURL(baseURL), option.WithAPIKey(apiKey))
	} else {
		client = openai.NewClient(option.WithAPIKey(apiKey))
	}
	return &LLM{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Model:   model,
		client:  client,
	}
}

// NewLLMFromConfig wires a client from a validated Config.
func NewLLMFromConfig(cfg *Config) *LLM {
	return NewLLM(cfg.OpenAIAPIKey, cfg.BaseURL, cfg.Model)
}

// optsWithIds forwards session/user identifiers from the context as request
// metadata so proxies can attribute usage.
func optsWithIds(ctx context.Context, opts []option.RequestOption) []option.RequestOption {
	if sessionID, ok := ctx.Value(ContextKey("sessionID")).(string); ok {
		opts = append(opts, option.WithJSONSet("custom_identifier", sessionID))
	}

	if userID, ok := ctx.Value(ContextKey("userID")).(string); ok {
		opts = append(opts, option.WithJSONSet("user_identifier", userID))
	}

	if extraMeta, ok := ctx.Value(ContextKey("extra")).(map[string]string); ok {
		for key, value := range extraMeta {
			opts = append(opts, option.WithJSONSet(key, value))
		}
	}

	return opts
}

func (c *LLM) New(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	opts := []option.RequestOption{}
	opts = optsWithIds(ctx, opts)
	return c.client.Chat.Completions.New(ctx, params, opts...)
}

func (c *LLM) NewStreaming(ctx context.Context, params openai.ChatCompletionNewParams) *ssestream.Stream[openai.ChatCompletionChunk] {
	opts := []option.RequestOption{}
	opts = optsWithIds(ctx, opts)
	return c.client.Chat.Completions.NewStreaming(ctx, params, opts...)
}

// GenerateSchema reflects a strict JSON schema for structured outputs.
func GenerateSchema[T any]() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)
	return schema
}
