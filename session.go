// Package researchagent - session.go
// Session owns per-conversation state: one user message in, a stream of
// responses out, and the bookkeeping once the agent finishes.
package researchagent

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Session holds ephemeral conversation data and references to shared
// resources. Construct one per user message exchange.
type Session struct {
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	inUserChannel  chan string
	outUserChannel chan Response

	llm     LLMClient
	model   string
	memory  Memory
	storage Storage
	agent   *Agent

	relevanceFilter bool

	inputTokens  atomic.Int64
	outputTokens atomic.Int64

	logger *slog.Logger
}

// SessionOption adjusts a session at construction time.
type SessionOption func(*Session)

// WithModel overrides the model the session asks the LLM for.
func WithModel(model string) SessionOption {
	return func(s *Session) {
		s.model = model
	}
}

// WithStorage persists finished interactions to the given storage.
func WithStorage(storage Storage) SessionOption {
	return func(s *Session) {
		s.storage = storage
	}
}

// WithRelevanceFilter trims the memory context to interactions the model
// judges relevant to the incoming message. Costs one extra LLM call.
func WithRelevanceFilter() SessionOption {
	return func(s *Session) {
		s.relevanceFilter = true
	}
}

// NewSession constructs a session with references to shared LLM and memory,
// but isolated state, and starts its run loop.
func NewSession(ctx context.Context, llm LLMClient, mem Memory, ag *Agent, opts ...SessionOption) *Session {
	sessionID, err := gonanoid.New()
	if err != nil {
		panic(err)
	}
	ctx, cancel := context.WithCancel(ctx)
	ctx = context.WithValue(ctx, ContextKey("sessionID"), sessionID)
	s := &Session{
		ctx:       ctx,
		cancel:    cancel,
		closeOnce: sync.Once{},

		inUserChannel:  make(chan string),
		outUserChannel: make(chan Response),

		llm:    llm,
		memory: mem,
		agent:  ag,

		logger: slog.Default(),
	}
	if concrete, ok := llm.(*LLM); ok {
		s.model = concrete.Model
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.model == "" {
		s.model = defaultModel
	}
	go s.run()
	return s
}

func (s *Session) ID() string {
	return s.ctx.Value(ContextKey("sessionID")).(string)
}

// In submits the user message for processing. It returns ErrSessionClosed
// when the session has already finished.
func (s *Session) In(userMessage string) error {
	select {
	case s.inUserChannel <- userMessage:
		return nil
	case <-s.ctx.Done():
		return ErrSessionClosed
	}
}

// Out retrieves the next response, blocking until one is available. Once
// the session has finished it keeps returning end responses.
func (s *Session) Out() Response {
	response, ok := <-s.outUserChannel
	if !ok {
		return Response{Type: ResponseTypeEnd}
	}
	return response
}

// Close ends the session lifecycle. The run loop owns the channels and
// shuts them down once it observes the cancellation.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
	})
}

type runOutcome struct {
	result *RunResult
	err    error
}

// run is the session's main loop: wait for the user message, assemble the
// memory context, drive the agent, forward its responses, then persist the
// finished interaction.
func (s *Session) run() {
	s.logger.Info("Session started", "sessionID", s.ID())
	defer func() {
		s.Close()
		close(s.outUserChannel)
	}()
	select {
	case <-s.ctx.Done():
		// Best effort: the caller may already be gone.
		select {
		case s.outUserChannel <- Response{Type: ResponseTypeEnd}:
		default:
		}
	case userMessage, ok := <-s.inUserChannel:
		if !ok {
			s.logger.Error("Session input channel closed")
			return
		}

		interaction := NewInteraction(s.ID(), userMessage)

		memoryContext, err := s.memoryContext(userMessage)
		if err != nil {
			s.logger.Error("Error retrieving memory", "error", err)
			s.outUserChannel <- Response{Content: err.Error(), Type: ResponseTypeError}
			return
		}

		history := NewMessageList(UserMessage(userMessage))

		internal := make(chan Response)
		outcomes := make(chan runOutcome, 1)
		go func() {
			result, runErr := s.agent.Run(s.ctx, s.llm, s.model, history, memoryContext, internal)
			outcomes <- runOutcome{result: result, err: runErr}
			close(internal)
		}()

		for response := range internal {
			s.outUserChannel <- response
		}

		outcome := <-outcomes
		if outcome.result != nil {
			s.inputTokens.Add(outcome.result.InputTokens)
			s.outputTokens.Add(outcome.result.OutputTokens)
		}
		if outcome.err != nil {
			s.logger.Error("Agent run failed", "error", outcome.err)
			s.outUserChannel <- Response{Content: outcome.err.Error(), Type: ResponseTypeError}
			s.outUserChannel <- Response{Type: ResponseTypeEnd}
			return
		}

		interaction.Answer = outcome.result.Answer
		interaction.ToolsUsed = outcome.result.ToolsUsed
		s.record(interaction)

		s.outUserChannel <- Response{Type: ResponseTypeEnd}
	}
}

// memoryContext builds the context block from retained interactions,
// optionally filtered down to the ones relevant to the incoming message.
func (s *Session) memoryContext(userMessage string) (string, error) {
	recent, err := s.memory.Recent(s.ctx, 0)
	if err != nil {
		return "", err
	}

	if s.relevanceFilter && len(recent) > 0 {
		filtered, err := BuildRelevantHistory(s.ctx, recent, userMessage, s.llm, s.model)
		if err != nil {
			// Fall back to the unfiltered history rather than failing the query.
			s.logger.Error("Relevance filtering failed", "error", err)
		} else {
			recent = filtered
		}
	}

	return MemoryContext(recent), nil
}

// record writes the finished interaction to memory and, when configured,
// durable storage. Failures are logged, not surfaced: the user already has
// the answer.
func (s *Session) record(interaction Interaction) {
	if err := s.memory.Append(s.ctx, interaction); err != nil {
		s.logger.Error("Error appending to memory", "error", err)
	}
	if s.storage != nil {
		if err := s.storage.SaveInteraction(s.ctx, interaction); err != nil {
			s.logger.Error("Error persisting interaction", "error", err)
		}
	}
}
