package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/NethermindEth/basesociety/core"
	openai "github.com/sashabaranov/go-openai"
)

// CompletionClient produces the next assistant turn for an agent.
type CompletionClient interface {
	Complete(ctx context.Context, preamble string, history []core.ChatTurn, prompt string) (string, error)
}

// LLMConfig holds configuration for LLM interactions
type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
}

// DefaultLLMConfig returns standard LLM configuration
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Model:       openai.GPT4oMini,
		MaxTokens:   1024,
		Temperature: 0.7,
	}
}

// OpenAIClient is a CompletionClient backed by the OpenAI chat API.
type OpenAIClient struct {
	client *openai.Client
	config LLMConfig
}

// NewOpenAIClient builds a client from config. BaseURL is optional and lets
// the client talk to any OpenAI-compatible endpoint.
func NewOpenAIClient(config LLMConfig) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, errors.New("OpenAI API key not set")
	}
	if config.Model == "" {
		config.Model = DefaultLLMConfig().Model
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Complete sends preamble, history and prompt as one chat completion.
func (c *OpenAIClient) Complete(ctx context.Context, preamble string, history []core.ChatTurn, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.config.Model,
		Messages:    buildMessages(preamble, history, prompt),
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrProvider, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", core.ErrProvider)
	}
	return resp.Choices[0].Message.Content, nil
}

// buildMessages maps the two-role history onto OpenAI chat messages.
func buildMessages(preamble string, history []core.ChatTurn, prompt string) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	if preamble != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: preamble,
		})
	}
	for _, turn := range history {
		role := openai.ChatMessageRoleAssistant
		if turn.Role == core.RoleUser {
			role = openai.ChatMessageRoleUser
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: turn.Content})
	}
	return append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})
}
