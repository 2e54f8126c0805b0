package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/NethermindEth/basesociety/core"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessages(t *testing.T) {
	history := []core.ChatTurn{
		{Role: core.RoleUser, Content: "hello"},
		{Role: core.RoleAssistant, Content: "hi there"},
	}

	messages := buildMessages("be nice", history, "what now?")
	require.Len(t, messages, 4)
	assert.Equal(t, openai.ChatMessageRoleSystem, messages[0].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, messages[1].Role)
	assert.Equal(t, openai.ChatMessageRoleAssistant, messages[2].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, messages[3].Role)
	assert.Equal(t, "what now?", messages[3].Content)

	assert.Len(t, buildMessages("", nil, "p"), 1)
}

func TestOpenAIClientComplete(t *testing.T) {
	var got openai.ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: "I will trade."}},
			},
		})
	}))
	defer server.Close()

	client, err := NewOpenAIClient(LLMConfig{APIKey: "test", BaseURL: server.URL + "/v1", Model: "test-model"})
	require.NoError(t, err)

	text, err := client.Complete(context.Background(), "preamble", []core.ChatTurn{{Role: core.RoleUser, Content: "earlier"}}, "now")
	require.NoError(t, err)
	assert.Equal(t, "I will trade.", text)
	assert.Equal(t, "test-model", got.Model)
	assert.Len(t, got.Messages, 3)
}

func TestOpenAIClientProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom","type":"server_error"}}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewOpenAIClient(LLMConfig{APIKey: "test", BaseURL: server.URL + "/v1"})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "", nil, "now")
	assert.True(t, errors.Is(err, core.ErrProvider))
}

func TestNewOpenAIClientRequiresKey(t *testing.T) {
	_, err := NewOpenAIClient(DefaultLLMConfig())
	assert.Error(t, err)
}

func TestPreambleMentionsProfile(t *testing.T) {
	preamble := Preamble(core.AgentProfile{
		Name:        "Ada",
		Personality: "curious",
		Desires:     "rare books",
		Skills:      []string{"math", "poetry"},
	})
	assert.Contains(t, preamble, "You are Ada")
	assert.Contains(t, preamble, "math, poetry")
	assert.Contains(t, ReflectionPrompt(42), "happiness score 42")
}
