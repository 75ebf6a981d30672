package researchagent

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/joho/godotenv"
)

// These tests exercise a real OpenAI-compatible endpoint and are skipped
// unless OPENAI_API_KEY is set (directly or via .env).

func integrationLLM(t *testing.T) *LLM {
	t.Helper()
	_ = godotenv.Load()
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("OPENAI_API_KEY is not set")
	}
	model := os.Getenv("RESEARCHAGENT_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}
	return NewLLM(apiKey, os.Getenv("OPENAI_BASE_URL"), model)
}

func TestSimpleConversation(t *testing.T) {
	llm := integrationLLM(t)

	agent := NewAgent(
		"repeater",
		"Repeats the user's message",
		"You are a repeater. You'll repeat whatever the user says exactly as they say it, even the punctuation and cases.",
		nil,
	)

	session := NewSession(context.Background(), llm, NewBoundedMemory(10), agent)
	defer session.Close()
	if err := session.In("test confirmed"); err != nil {
		t.Fatalf("Failed to submit message: %v", err)
	}

	var finalContent string
	for {
		out := session.Out()
		if out.Type == ResponseTypePartialText {
			finalContent += out.Content
		}
		if out.Type == ResponseTypeError {
			t.Fatalf("Agent returned error: %s", out.Content)
		}
		if out.Type == ResponseTypeEnd {
			break
		}
	}

	if finalContent != "test confirmed" {
		t.Fatalf("Expected 'test confirmed', got: %s", finalContent)
	}
}

func TestConversationWithTool(t *testing.T) {
	llm := integrationLLM(t)

	registry := NewRegistry()
	if err := registry.Register(&fakeTool{name: "best_apple_finder", status: "Finding the best apple", output: "green apple"}); err != nil {
		t.Fatalf("Failed to register tool: %v", err)
	}

	agent := NewAgent(
		"farmer",
		"Answers questions about apples",
		"You are a good farmer. You answer user questions briefly and concisely using your tools. Answer in the fewest words possible.",
		registry,
	)

	session := NewSession(context.Background(), llm, NewBoundedMemory(10), agent)
	defer session.Close()
	if err := session.In("Which apple is the best?"); err != nil {
		t.Fatalf("Failed to submit message: %v", err)
	}

	var finalContent string
	for {
		out := session.Out()
		if out.Type == ResponseTypePartialText {
			finalContent += out.Content
		}
		if out.Type == ResponseTypeError {
			t.Fatalf("Agent returned error: %s", out.Content)
		}
		if out.Type == ResponseTypeEnd {
			break
		}
	}

	if !strings.Contains(strings.ToLower(finalContent), "green") {
		t.Fatalf("Expected the tool's answer to surface, got: %s", finalContent)
	}
}
