package researchagent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
)

const promptFindRelevantInteractions = `Identify the IDs of conversations from the history that provide context for the user's latest message. Strictly adhere to identifying only directly or indirectly referred conversations. If the latest message does not reference any prior conversation, return an empty array.

- **Input Data**:
  - <ConversationHistory>: A series of conversations, each wrapped in <Conversation ID=X></Conversation> tags, where X is the conversation ID.
  - <LatestMessage>: The current message from the user.
- **Goal**: List the IDs of past conversations needed to understand the latest message, without assuming relevance based on topical similarity alone.

# Output Format
- **Format**: JSON object
  - conversationIDs: A list of relevant conversation IDs, e.g., ["2"] or [] if no relevant conversations are found.

# Notes
- Focus on relevance strictly based on explicit references in the latest message.
- Avoid assumptions based on conversational similarity without explicit links.
`

type relevantConversationIDs struct {
	ConversationIDs []string `json:"conversationIDs"`
}

// FormatInteractions renders past interactions in the tagged layout the
// relevance prompt expects, followed by the latest user message.
func FormatInteractions(interactions []Interaction, latestMessage string) string {
	var result strings.Builder

	fmt.Fprintf(&result, "<ConversationHistory>\n")
	for i, interaction := range interactions {
		fmt.Fprintf(&result, "<Conversation ID=%d>\n", i+1)
		fmt.Fprintf(&result, "Human: %s\n", interaction.Query)
		fmt.Fprintf(&result, "Assistant: %s\n", interaction.Answer)
		fmt.Fprintf(&result, "</Conversation>\n\n")
	}
	fmt.Fprintf(&result, "</ConversationHistory>\n")

	fmt.Fprintf(&result, "\n<LatestMessage>\n")
	fmt.Fprintf(&result, "Human: %s\n", latestMessage)
	fmt.Fprintf(&result, "</LatestMessage>\n")

	return result.String()
}

// MemoryContext renders retained interactions as a context block for the
// system prompt. Empty history yields an empty string.
func MemoryContext(interactions []Interaction) string {
	if len(interactions) == 0 {
		return ""
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Earlier conversations with this user:\n")
	for _, interaction := range interactions {
		fmt.Fprintf(&result, "Human: %s\nAssistant: %s\n", interaction.Query, interaction.Answer)
	}
	return result.String()
}

// BuildRelevantHistory uses the model to pick which past interactions still
// matter for the current message.
//
// It works by:
//  1. Formatting the interaction history into the tagged text layout
//  2. Asking the model, with a strict JSON schema, for relevant conversation IDs
//  3. Finding the oldest relevant conversation
//  4. Returning every interaction from that one onward
//
// Trimming older irrelevant interactions keeps the context short while
// preserving conversation coherence. An empty ID list means nothing earlier
// matters and an empty slice is returned.
func BuildRelevantHistory(ctx context.Context, interactions []Interaction, latestMessage string, llm LLMClient, modelName string) ([]Interaction, error) {
	if len(interactions) == 0 {
		return nil, nil
	}

	formatted := FormatInteractions(interactions, latestMessage)

	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        openai.F("relevantConversationIDs"),
		Description: openai.F("List of conversation IDs that are relevant to the current message"),
		Schema:      openai.F(GenerateSchema[relevantConversationIDs]()),
		Strict:      openai.Bool(true),
	}

	completion, err := llm.New(ctx, openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			SystemMessage(promptFindRelevantInteractions),
			UserMessage(formatted),
		}),
		Model: openai.F(modelName),
		ResponseFormat: openai.F[openai.ChatCompletionNewParamsResponseFormatUnion](
			openai.ResponseFormatJSONSchemaParam{
				Type:       openai.F(openai.ResponseFormatJSONSchemaTypeJSONSchema),
				JSONSchema: openai.F(schemaParam),
			},
		),
	})
	if err != nil {
		return nil, err
	}

	relevant := relevantConversationIDs{}
	if err := json.Unmarshal([]byte(completion.Choices[0].Message.Content), &relevant); err != nil {
		return nil, fmt.Errorf("parsing relevance response: %w", err)
	}

	if len(relevant.ConversationIDs) == 0 {
		return nil, nil
	}

	oldest := len(interactions) + 1
	for _, idStr := range relevant.ConversationIDs {
		var id int
		if _, err := fmt.Sscanf(idStr, "%d", &id); err != nil {
			return nil, fmt.Errorf("parsing conversation ID %q: %w", idStr, err)
		}
		if id < oldest {
			oldest = id
		}
	}

	// IDs are 1-based positions in the formatted history.
	if oldest < 1 || oldest > len(interactions) {
		return nil, nil
	}
	return interactions[oldest-1:], nil
}
