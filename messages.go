package researchagent

import (
	"fmt"

	"github.com/openai/openai-go"
)

func UserMessage(content string) openai.ChatCompletionMessageParamUnion {
	return openai.UserMessage(content)
}

func AssistantMessage(content string) openai.ChatCompletionMessageParamUnion {
	return openai.AssistantMessage(content)
}

func SystemMessage(content string) openai.ChatCompletionMessageParamUnion {
	return openai.SystemMessage(content)
}

// MessageList holds an ordered collection of chat messages to preserve the
// conversation history.
type MessageList struct {
	Messages []openai.ChatCompletionMessageParamUnion
}

func NewMessageList(msgs ...openai.ChatCompletionMessageParamUnion) *MessageList {
	return &MessageList{
		Messages: append([]openai.ChatCompletionMessageParamUnion{}, msgs...),
	}
}

func (ml *MessageList) Len() int {
	return len(ml.Messages)
}

// Add appends one or more new messages in FIFO order.
func (ml *MessageList) Add(msgs ...openai.ChatCompletionMessageParamUnion) {
	ml.Messages = append(ml.Messages, msgs...)
}

// AddFirst prepends the prompt as a system message.
func (ml *MessageList) AddFirst(prompt string) {
	ml.Messages = append([]openai.ChatCompletionMessageParamUnion{SystemMessage(prompt)}, ml.Messages...)
}

func (ml *MessageList) ReplaceAt(index int, newMsg openai.ChatCompletionMessageParamUnion) error {
	if index < 0 || index >= len(ml.Messages) {
		return fmt.Errorf("index out of range")
	}
	ml.Messages[index] = newMsg
	return nil
}

func (ml *MessageList) All() []openai.ChatCompletionMessageParamUnion {
	return ml.Messages
}

func (ml *MessageList) Clone() *MessageList {
	return &MessageList{
		Messages: append([]openai.ChatCompletionMessageParamUnion{}, ml.Messages...),
	}
}

func (ml *MessageList) Clear() {
	ml.Messages = []openai.ChatCompletionMessageParamUnion{}
}

// LastUserMessageString returns the text of the most recent user message, or
// an empty string when there is none.
func (ml *MessageList) LastUserMessageString() string {
	for i := len(ml.Messages) - 1; i >= 0; i-- {
		if msg, ok := ml.Messages[i].(openai.ChatCompletionUserMessageParam); ok {
			text, err := messageText(msg)
			if err != nil {
				return ""
			}
			return text
		}
	}
	return ""
}

// messageText extracts the plain text content from a chat message param of
// any role.
func messageText(message openai.ChatCompletionMessageParamUnion) (string, error) {
	switch m := message.(type) {
	case openai.ChatCompletionUserMessageParam:
		var text string
		for _, part := range m.Content.Value {
			if textPart, ok := part.(openai.ChatCompletionContentPartTextParam); ok {
				text += textPart.Text.Value
			}
		}
		return text, nil

	case openai.ChatCompletionAssistantMessageParam:
		var text string
		for _, part := range m.Content.Value {
			if textPart, ok := part.(openai.ChatCompletionContentPartTextParam); ok {
				text += textPart.Text.Value
			}
		}
		return text, nil

	case openai.ChatCompletionSystemMessageParam:
		var text string
		for _, part := range m.Content.Value {
			text += part.Text.Value
		}
		return text, nil

	case openai.ChatCompletionToolMessageParam:
		var text string
		for _, part := range m.Content.Value {
			text += part.Text.Value
		}
		return text, nil

	case openai.ChatCompletionMessage:
		return m.Content, nil

	default:
		return "", fmt.Errorf("unsupported message type: %T", message)
	}
}
