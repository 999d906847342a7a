// Package llm defines the chat model abstraction used for answer synthesis.
package llm

import "context"

// Role identifies the author of a chat message.
type Role string

// The closed set of message roles understood by chat backends.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single chat turn.
type Message struct {
	Role    Role
	Content string
}

// System builds a system-role message.
func System(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// User builds a user-role message.
func User(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Assistant builds an assistant-role message.
func Assistant(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// ChatModel is implemented by any backend that can complete a conversation.
type ChatModel interface {
	// Chat sends the messages to the model and returns its text completion.
	Chat(ctx context.Context, messages []Message) (string, error)
}
