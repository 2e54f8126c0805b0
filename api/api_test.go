package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/NethermindEth/basesociety/agent"
	"github.com/NethermindEth/basesociety/ai"
	"github.com/NethermindEth/basesociety/api/handlers"
	"github.com/NethermindEth/basesociety/core"
	"github.com/NethermindEth/basesociety/manager"
	"github.com/NethermindEth/basesociety/registry"
	"github.com/NethermindEth/basesociety/storage"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owner = "0xAbCdEf0000000000000000000000000000000001"

func newTestRouter(t *testing.T, llm *ai.MockLLM) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := storage.NewSQLStore(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	config := agent.DefaultActorConfig()
	config.ReflectionInterval = 0
	m := manager.New(registry.New(), store, llm, config, zerolog.Nop())
	t.Cleanup(m.Shutdown)

	return NewRouter(handlers.New(m, zerolog.Nop()), nil, zerolog.Nop())
}

func do(router http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func launch(t *testing.T, router http.Handler, id string) {
	t.Helper()
	w := do(router, http.MethodPost, "/agents", manager.LaunchRequest{
		AgentID:      id,
		OwnerAddress: owner,
		TokenID:      "1",
		Profile:      core.AgentProfile{Name: "Ada", Personality: "curious", Skills: []string{"math"}},
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, id, got)
}

func TestRoot(t *testing.T) {
	router := newTestRouter(t, &ai.MockLLM{})
	w := do(router, http.MethodGet, "/", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "running")
}

func TestLaunchListInteractHistory(t *testing.T) {
	router := newTestRouter(t, &ai.MockLLM{})
	launch(t, router, "a1")

	w := do(router, http.MethodGet, "/agents", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var infos []manager.AgentInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, "a1", infos[0].ID)

	w = do(router, http.MethodPost, "/agents/a1/interact", map[string]string{"prompt": "hello"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var reply map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	assert.Equal(t, "echo: hello", reply["response"])

	// owner check is case-insensitive
	w = do(router, http.MethodGet, "/agents/a1/history", nil, map[string]string{handlers.OwnerHeader: "0xabcdef0000000000000000000000000000000001"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var history []core.Message
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.Len(t, history, 2)
	assert.Equal(t, "hello", history[0].Content)
	assert.Equal(t, core.OriginAgent, history[1].Origin)
}

func TestOwnerChecks(t *testing.T) {
	router := newTestRouter(t, &ai.MockLLM{})
	launch(t, router, "a1")

	for _, path := range []string{"/agents/a1", "/agents/a1/history"} {
		w := do(router, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)

		w = do(router, http.MethodGet, path, nil, map[string]string{handlers.OwnerHeader: "0x0000000000000000000000000000000000000002"})
		assert.Equal(t, http.StatusForbidden, w.Code, path)

		w = do(router, http.MethodGet, path, nil, map[string]string{handlers.OwnerHeader: owner})
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w := do(router, http.MethodGet, "/agents/missing", nil, map[string]string{handlers.OwnerHeader: owner})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetAgentDetails(t *testing.T) {
	router := newTestRouter(t, &ai.MockLLM{})
	launch(t, router, "a1")

	w := do(router, http.MethodGet, "/agents/a1", nil, map[string]string{handlers.OwnerHeader: owner})
	require.Equal(t, http.StatusOK, w.Code)

	var details struct {
		AgentID string            `json:"agent_id"`
		TokenID string            `json:"token_id"`
		Profile core.AgentProfile `json:"profile"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &details))
	assert.Equal(t, "a1", details.AgentID)
	assert.Equal(t, "1", details.TokenID)
	assert.Equal(t, "Ada", details.Profile.Name)
	assert.Equal(t, []string{"math"}, details.Profile.Skills)
}

func TestErrorMapping(t *testing.T) {
	llm := &ai.MockLLM{Respond: func(string, []core.ChatTurn) (string, error) {
		return "", errors.New("upstream down")
	}}
	router := newTestRouter(t, llm)
	launch(t, router, "a1")

	w := do(router, http.MethodPost, "/agents", manager.LaunchRequest{
		AgentID: "a1", OwnerAddress: owner, Profile: core.AgentProfile{Name: "Ada"},
	}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(router, http.MethodPost, "/agents", map[string]string{"agent_id": "a2"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodPost, "/agents/a1/interact", map[string]string{"prompt": "hi"}, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = do(router, http.MethodPost, "/agents/nobody/interact", map[string]string{"prompt": "hi"}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDelete(t *testing.T) {
	router := newTestRouter(t, &ai.MockLLM{})
	launch(t, router, "a1")

	w := do(router, http.MethodDelete, "/agents/a1", nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(router, http.MethodDelete, "/agents/a1", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(router, http.MethodPost, "/agents/a1/interact", map[string]string{"prompt": "hi"}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, &ai.MockLLM{})
	do(router, http.MethodGet, "/", nil, nil)

	w := do(router, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "basesociety_http_requests_total")
}
