package commands

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIClientSendsOwnerAndDecodes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/agents/a1/interact", r.URL.Path)
		assert.Equal(t, "0xabc", r.Header.Get("X-Owner-Address"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		json.NewEncoder(w).Encode(map[string]string{"response": "re: " + body["prompt"]})
	}))
	defer server.Close()

	c := &apiClient{baseURL: server.URL, owner: "0xabc", http: server.Client()}
	var reply struct {
		Response string `json:"response"`
	}
	require.NoError(t, c.do(context.Background(), "POST", "/agents/a1/interact", map[string]string{"prompt": "hi"}, &reply))
	assert.Equal(t, "re: hi", reply.Response)
}

func TestAPIClientErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"Access denied: Not the owner"}`))
	}))
	defer server.Close()

	c := &apiClient{baseURL: server.URL, http: server.Client()}
	err := c.do(context.Background(), "GET", "/agents/a1/history", nil, nil)
	require.Error(t, err)

	var apiErr *apiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "Access denied: Not the owner (HTTP 403)", err.Error())
}

func TestBuildProfileRequiresName(t *testing.T) {
	createTemplateName, createAgentName, createPersonality, createSkills = "", "", "", ""
	_, err := buildProfile()
	assert.ErrorContains(t, err, "name")

	createAgentName, createPersonality, createSkills = "Ada", "curious", "math, trade ,"
	t.Cleanup(func() { createAgentName, createPersonality, createSkills = "", "", "" })
	profile, err := buildProfile()
	require.NoError(t, err)
	assert.Equal(t, []string{"math", "trade"}, profile.Skills)
}
