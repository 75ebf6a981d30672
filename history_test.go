package researchagent

import (
	"strings"
	"testing"
)

func TestFormatInteractions(t *testing.T) {
	interactions := []Interaction{
		{Query: "What's the delivery time?", Answer: "3-5 business days."},
		{Query: "Did you get my payment?", Answer: "Yes, received."},
	}

	formatted := FormatInteractions(interactions, "When will my order arrive?")

	for _, want := range []string{
		"<ConversationHistory>",
		"</ConversationHistory>",
		"<Conversation ID=1>",
		"<Conversation ID=2>",
		"Human: What's the delivery time?",
		"Assistant: Yes, received.",
		"<LatestMessage>",
		"Human: When will my order arrive?",
		"</LatestMessage>",
	} {
		if !strings.Contains(formatted, want) {
			t.Errorf("Expected formatted history to contain %q:\n%s", want, formatted)
		}
	}

	if strings.Index(formatted, "</ConversationHistory>") > strings.Index(formatted, "<LatestMessage>") {
		t.Error("Expected the history block before the latest message")
	}
}

func TestMemoryContext(t *testing.T) {
	if got := MemoryContext(nil); got != "" {
		t.Errorf("Expected empty context for no interactions, got %q", got)
	}

	context := MemoryContext([]Interaction{
		{Query: "what is 2+2", Answer: "4"},
	})
	if !strings.Contains(context, "Human: what is 2+2") || !strings.Contains(context, "Assistant: 4") {
		t.Errorf("Expected context to contain the exchange, got %q", context)
	}
}
