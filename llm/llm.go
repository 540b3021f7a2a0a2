package llm

import (
	"context"
	"time"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func System(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func User(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func Assistant(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

type Result struct {
	Content  string
	Usage    Usage
	Duration time.Duration
}

// Request describes one chat completion call. Model and Temperature are
// per-request overrides; zero values fall back to the client's configured
// defaults.
type Request struct {
	Model       string
	Messages    []Message
	Temperature *float64
	MaxTokens   int
}

type Client interface {
	Chat(ctx context.Context, req Request) (Result, error)
}

// BuildMessages assembles a system prompt, prior history and the new user
// message in completion order.
func BuildMessages(systemPrompt string, history []Message, userMessage string) []Message {
	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, System(systemPrompt))
	messages = append(messages, history...)
	messages = append(messages, User(userMessage))
	return messages
}
