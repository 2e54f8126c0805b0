package ai

import (
	"context"
	"sync"

	"github.com/NethermindEth/basesociety/core"
)

// CompletionCall is one recorded request to a MockLLM.
type CompletionCall struct {
	Preamble string
	History  []core.ChatTurn
	Prompt   string
}

// MockLLM is a deterministic CompletionClient for tests and offline runs.
// Respond decides the answer; when nil the prompt is echoed back.
type MockLLM struct {
	Respond func(prompt string, history []core.ChatTurn) (string, error)

	mu    sync.Mutex
	calls []CompletionCall
}

func (m *MockLLM) Complete(ctx context.Context, preamble string, history []core.ChatTurn, prompt string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, CompletionCall{
		Preamble: preamble,
		History:  append([]core.ChatTurn(nil), history...),
		Prompt:   prompt,
	})
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.Respond == nil {
		return "echo: " + prompt, nil
	}
	return m.Respond(prompt, history)
}

// Calls returns a copy of every recorded request.
func (m *MockLLM) Calls() []CompletionCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CompletionCall(nil), m.calls...)
}
