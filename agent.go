// Package researchagent provides the Agent orchestrator, which uses an LLM
// and Tools to answer research queries.
package researchagent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/openai/openai-go"
)

// Agent orchestrates calls to the LLM, invokes Tools, and determines how to
// respond.
type Agent struct {
	name        string
	description string
	prompt      string
	tools       *Registry
	logger      *slog.Logger

	maxIterations int
	maxTokens     int64
	temperature   float64
}

// RunResult is what a finished agent run produced.
type RunResult struct {
	Answer       string
	ToolsUsed    []string
	InputTokens  int64
	OutputTokens int64
}

// NewAgent creates an Agent with the given identity and system prompt. A nil
// registry gets replaced with an empty one.
func NewAgent(name, description, prompt string, tools *Registry) *Agent {
	if tools == nil {
		tools = NewRegistry()
	}
	return &Agent{
		name:          name,
		description:   description,
		prompt:        prompt,
		tools:         tools,
		logger:        slog.Default(),
		maxIterations: defaultMaxIterations,
		maxTokens:     defaultMaxTokens,
		temperature:   defaultTemperature,
	}
}

// Configure applies the runtime limits from a validated Config.
func (a *Agent) Configure(cfg *Config) {
	a.maxIterations = cfg.MaxIterations
	a.maxTokens = cfg.MaxTokens
	a.temperature = cfg.Temperature
}

func (a *Agent) Name() string {
	return a.name
}

func (a *Agent) Description() string {
	return a.description
}

// AddTool registers a tool with the agent's toolkit.
func (a *Agent) AddTool(tool Tool) error {
	return a.tools.Register(tool)
}

// AvailableTools lists the names of the registered tools.
func (a *Agent) AvailableTools() []string {
	return a.tools.Names()
}

func (a *Agent) GetLogger() *slog.Logger {
	return a.logger
}

func (a *Agent) SetLogger(logger *slog.Logger) {
	a.logger = logger
}

// Run drives the conversation until the model answers without requesting a
// tool, or the iteration limit is hit. Partial text and tool status updates
// are sent on out as they happen; out stays open, the caller owns it.
// memoryContext, when non-empty, is appended to the system prompt so the
// model sees what earlier sessions established.
func (a *Agent) Run(ctx context.Context, llm LLMClient, modelName string, history *MessageList, memoryContext string, out chan<- Response) (*RunResult, error) {
	if a.logger == nil {
		panic("logger is not set")
	}

	prompt := a.prompt
	if memoryContext != "" {
		prompt = fmt.Sprintf("%s\n\n%s", a.prompt, memoryContext)
	}
	history.AddFirst(prompt)

	result := &RunResult{}

	for iteration := 0; iteration < a.maxIterations; iteration++ {
		params := openai.ChatCompletionNewParams{
			Messages:    openai.F(history.All()),
			Model:       openai.F(modelName),
			MaxTokens:   openai.F(a.maxTokens),
			Temperature: openai.F(a.temperature),
			StreamOptions: openai.F(openai.ChatCompletionStreamOptionsParam{
				IncludeUsage: openai.F(true),
			}),
		}
		if a.tools.Len() > 0 {
			params.Tools = openai.F(a.tools.OpenAITools())
		}

		stream := llm.NewStreaming(ctx, params)
		completion := openai.ChatCompletionAccumulator{}
		// The usage chunk arrives after the finish-reason chunk, so the
		// stream must be drained to the end; only the partial emission
		// stops once the content is complete.
		contentDone := false
		for stream.Next() {
			chunk := stream.Current()
			if !contentDone && len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
				out <- Response{Content: chunk.Choices[0].Delta.Content, Type: ResponseTypePartialText}
			}
			completion.AddChunk(chunk)
			if _, finished := completion.JustFinishedContent(); finished {
				contentDone = true
			}
		}
		err := stream.Err()
		stream.Close()
		if err != nil {
			return result, fmt.Errorf("streaming completion: %w", err)
		}
		if len(completion.Choices) == 0 {
			return result, ErrNoMessage
		}

		result.InputTokens += completion.Usage.PromptTokens
		result.OutputTokens += completion.Usage.CompletionTokens

		message := completion.Choices[0].Message
		history.Add(message)

		if len(message.ToolCalls) == 0 {
			result.Answer = message.Content
			return result, nil
		}

		a.runToolCalls(ctx, message.ToolCalls, history, result, out)
	}

	return result, fmt.Errorf("no final answer after %d iterations", a.maxIterations)
}

// runToolCalls executes the requested tool calls concurrently and appends
// one tool message per call to the history, in the order the model asked.
func (a *Agent) runToolCalls(ctx context.Context, toolCalls []openai.ChatCompletionMessageToolCall, history *MessageList, result *RunResult, out chan<- Response) {
	var wg sync.WaitGroup
	var mu sync.Mutex
	results := make(map[string]openai.ChatCompletionMessageParamUnion)

	for _, call := range toolCalls {
		tool, err := a.tools.Get(call.Function.Name)
		if err != nil {
			a.logger.Error("Tool requested by model is not registered", "tool", call.Function.Name)
			mu.Lock()
			results[call.ID] = MessageWhenToolError(call.ID)
			mu.Unlock()
			continue
		}

		if tool.StatusMessage() != "" {
			out <- Response{Content: tool.StatusMessage(), Type: ResponseTypeStatus}
		}
		result.ToolsUsed = append(result.ToolsUsed, tool.Name())

		wg.Add(1)
		go func(tool Tool, callID string, rawArgs string) {
			defer wg.Done()
			message := a.executeTool(ctx, tool, callID, rawArgs)
			mu.Lock()
			results[callID] = message
			mu.Unlock()
		}(tool, call.ID, call.Function.Arguments)
	}

	wg.Wait()

	for _, call := range toolCalls {
		if message, ok := results[call.ID]; ok {
			history.Add(message)
		}
	}
}

// executeTool runs one tool call and translates the outcome into a tool
// message for the model.
func (a *Agent) executeTool(ctx context.Context, tool Tool, callID string, rawArgs string) openai.ChatCompletionMessageParamUnion {
	arguments := map[string]interface{}{}
	// TODO validate the arguments against the tool's declared schema before executing
	if err := json.Unmarshal([]byte(rawArgs), &arguments); err != nil {
		a.logger.Error("Error unmarshalling tool arguments", "tool", tool.Name(), "error", err)
		return MessageWhenToolErrorWithRetry(fmt.Sprintf("invalid arguments: %s", err), callID)
	}

	a.logger.Info("Running tool", "tool", tool.Name(), "arguments", rawArgs)
	output, err := tool.Execute(ctx, arguments)
	if err != nil {
		a.logger.Error("Error executing tool", "tool", tool.Name(), "error", err)
		var ignErr *IgnorableError
		var retErr *RetryableError
		switch {
		case errors.As(err, &ignErr):
			return MessageWhenToolError(callID)
		case errors.As(err, &retErr):
			return MessageWhenToolErrorWithRetry(err.Error(), callID)
		default:
			return MessageWhenToolError(callID)
		}
	}

	return ToolMessage(output, callID)
}

// ToolMessage wraps a tool's output as a tool-role message for the model.
func ToolMessage(content string, toolCallID string) openai.ChatCompletionToolMessageParam {
	return openai.ChatCompletionToolMessageParam{
		Role:       openai.F(openai.ChatCompletionToolMessageParamRoleTool),
		Content:    openai.F([]openai.ChatCompletionContentPartTextParam{{Type: openai.F(openai.ChatCompletionContentPartTextTypeText), Text: openai.F(content)}}),
		ToolCallID: openai.F(toolCallID),
	}
}

func MessageWhenToolError(toolCallID string) openai.ChatCompletionToolMessageParam {
	return ToolMessage("Error occurred while running. Do not retry", toolCallID)
}

func MessageWhenToolErrorWithRetry(errorString string, toolCallID string) openai.ChatCompletionToolMessageParam {
	return ToolMessage(fmt.Sprintf("Error: %s.\nRetry", errorString), toolCallID)
}
