package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Defaults target the x.ai chat completions API, which speaks the OpenAI
// protocol. Any OpenAI-compatible endpoint works via Config.BaseURL.
const (
	DefaultBaseURL     = "https://api.x.ai/v1"
	DefaultModel       = "grok-2-latest"
	DefaultTemperature = 0.1
	DefaultMaxTokens   = 1000
	DefaultTimeout     = 60 * time.Second
)

// Config holds construction parameters for the OpenAI-compatible chat client.
type Config struct {
	// BaseURL is the chat completions API base URL (default: x.ai).
	BaseURL string

	// APIKey authenticates against the endpoint.
	APIKey string

	// Model is the completion model name (default: grok-2-latest).
	Model string

	// Temperature controls sampling randomness (default: 0.1).
	Temperature float64

	// MaxTokens caps the completion length (default: 1000).
	MaxTokens int

	// Timeout bounds each chat request (default: 60s).
	Timeout time.Duration
}

// OpenAIChat implements ChatModel against any OpenAI-compatible endpoint.
type OpenAIChat struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int
}

var _ ChatModel = (*OpenAIChat)(nil)

// NewOpenAIChat creates a chat client, filling unset config with defaults.
func NewOpenAIChat(cfg Config) *OpenAIChat {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	client := openai.NewClient(
		option.WithBaseURL(cfg.BaseURL),
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(cfg.Timeout),
	)

	return &OpenAIChat{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

// Chat sends the conversation to the completion endpoint and returns the
// generated text.
func (c *OpenAIChat) Chat(ctx context.Context, messages []Message) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       c.model,
		Temperature: openai.Float(c.temperature),
		MaxTokens:   openai.Int(int64(c.maxTokens)),
		Messages:    make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)),
	}

	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			params.Messages = append(params.Messages, openai.SystemMessage(msg.Content))
		case RoleAssistant:
			params.Messages = append(params.Messages, openai.AssistantMessage(msg.Content))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(msg.Content))
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: response has no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
