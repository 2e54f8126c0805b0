package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/NethermindEth/basesociety/core"
	"github.com/NethermindEth/basesociety/manager"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// OwnerHeader carries the caller's wallet address on owner-only routes.
const OwnerHeader = "X-Owner-Address"

// Handler serves the agent API.
type Handler struct {
	agents *manager.Manager
	logger zerolog.Logger
}

func New(agents *manager.Manager, logger zerolog.Logger) *Handler {
	return &Handler{
		agents: agents,
		logger: logger.With().Str("component", "api").Logger(),
	}
}

type interactRequest struct {
	Prompt string `json:"prompt"`
}

type interactResponse struct {
	Response string `json:"response"`
}

type agentDetails struct {
	AgentID      string            `json:"agent_id"`
	OwnerAddress string            `json:"owner_address"`
	TokenID      string            `json:"token_id"`
	Profile      core.AgentProfile `json:"profile"`
	LastInteract *int64            `json:"last_interaction_ts"`
}

// Root is a liveness probe.
func (h *Handler) Root(c *gin.Context) {
	c.String(http.StatusOK, "BaseSociety agent runtime is running.")
}

// LaunchAgent starts a new agent and returns its id as a JSON string.
func (h *Handler) LaunchAgent(c *gin.Context) {
	var req manager.LaunchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid agent data"})
		return
	}

	id, err := h.agents.Launch(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, id)
}

// ListAgents returns every running agent.
func (h *Handler) ListAgents(c *gin.Context) {
	agents := h.agents.List()
	h.logger.Debug().Int("count", len(agents)).Msg("Listed agents")
	c.JSON(http.StatusOK, agents)
}

// GetAgent returns the stored record of an agent to its owner.
func (h *Handler) GetAgent(c *gin.Context) {
	owner, ok := requireOwner(c)
	if !ok {
		return
	}
	record, err := h.agents.Authorize(c.Request.Context(), c.Param("id"), owner)
	if err != nil {
		h.fail(c, err)
		return
	}
	profile, err := record.DecodeProfile()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, agentDetails{
		AgentID:      record.AgentID,
		OwnerAddress: record.OwnerAddress,
		TokenID:      record.TokenID,
		Profile:      profile,
		LastInteract: record.LastInteractionTS,
	})
}

// DeleteAgent stops an agent and removes its record.
func (h *Handler) DeleteAgent(c *gin.Context) {
	if err := h.agents.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// InteractAgent sends an owner prompt to an agent and returns the reply.
func (h *Handler) InteractAgent(c *gin.Context) {
	var req interactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid interact request"})
		return
	}

	agentID := c.Param("id")
	h.logger.Info().Str("agent_id", agentID).Int("prompt_len", len(req.Prompt)).Msg("Interact request")

	response, err := h.agents.Interact(c.Request.Context(), agentID, req.Prompt)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, interactResponse{Response: response})
}

// GetHistory returns an agent's conversation to its owner.
func (h *Handler) GetHistory(c *gin.Context) {
	owner, ok := requireOwner(c)
	if !ok {
		return
	}
	agentID := c.Param("id")
	if _, err := h.agents.Authorize(c.Request.Context(), agentID, owner); err != nil {
		h.fail(c, err)
		return
	}

	history, err := h.agents.History(c.Request.Context(), agentID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if history == nil {
		history = []core.Message{}
	}
	c.JSON(http.StatusOK, history)
}

func requireOwner(c *gin.Context) (string, bool) {
	owner := strings.TrimSpace(c.GetHeader(OwnerHeader))
	if owner == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing " + OwnerHeader + " header"})
		return "", false
	}
	return owner, true
}

// fail maps domain errors to HTTP status codes.
func (h *Handler) fail(c *gin.Context, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": message})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, core.ErrNotOwner):
		return http.StatusForbidden, "Access denied: Not the owner"
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "Agent not found"
	case errors.Is(err, core.ErrDuplicateID):
		return http.StatusConflict, "Agent already exists"
	case errors.Is(err, core.ErrProvider):
		return http.StatusBadGateway, "Completion provider failed"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
