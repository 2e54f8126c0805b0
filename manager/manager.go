package manager

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/NethermindEth/basesociety/agent"
	"github.com/NethermindEth/basesociety/ai"
	"github.com/NethermindEth/basesociety/communication"
	"github.com/NethermindEth/basesociety/core"
	"github.com/NethermindEth/basesociety/metrics"
	"github.com/NethermindEth/basesociety/registry"
	"github.com/NethermindEth/basesociety/storage"
	"github.com/NethermindEth/basesociety/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LaunchRequest carries everything needed to start a new agent. AgentID is
// generated when empty.
type LaunchRequest struct {
	AgentID      string            `json:"agent_id"`
	OwnerAddress string            `json:"owner_address"`
	TokenID      string            `json:"token_id"`
	Profile      core.AgentProfile `json:"profile"`
}

// AgentInfo is the public view of a running agent.
type AgentInfo struct {
	ID      string            `json:"id"`
	Profile core.AgentProfile `json:"profile"`
}

// Manager keeps the in-memory registry and the durable store in step. The
// store is the source of truth; Restore rebuilds the registry from it.
type Manager struct {
	registry    *registry.Registry
	store       storage.AgentStore
	llm         ai.CompletionClient
	actorConfig agent.ActorConfig
	events      communication.Publisher
	logger      zerolog.Logger
	actorLogger zerolog.Logger
	now         func() time.Time
}

// Option customizes a Manager.
type Option func(*Manager)

// WithEvents publishes lifecycle and message events.
func WithEvents(p communication.Publisher) Option {
	return func(m *Manager) { m.events = p }
}

// WithClock overrides the wall clock used for interaction timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func New(reg *registry.Registry, store storage.AgentStore, llm ai.CompletionClient, actorConfig agent.ActorConfig, logger zerolog.Logger, opts ...Option) *Manager {
	m := &Manager{
		registry:    reg,
		store:       store,
		llm:         llm,
		actorConfig: actorConfig,
		events:      communication.NopPublisher{},
		logger:      logger.With().Str("component", "manager").Logger(),
		actorLogger: logger.With().Str("component", "agent").Logger(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	hook := actorConfig.OnMessage
	m.actorConfig.OnMessage = func(agentID string, msg core.Message) {
		if hook != nil {
			hook(agentID, msg)
		}
		m.events.Publish(communication.NewEvent(communication.EventAgentMessage, agentID, msg))
	}
	return m
}

// Launch starts an actor and persists its record as one unit: if the store
// write fails the registry entry is rolled back and the actor stopped.
func (m *Manager) Launch(ctx context.Context, req LaunchRequest) (string, error) {
	if strings.TrimSpace(req.OwnerAddress) == "" {
		return "", fmt.Errorf("%w: owner_address is required", core.ErrInvalidInput)
	}
	if strings.TrimSpace(req.Profile.Name) == "" {
		return "", fmt.Errorf("%w: profile.name is required", core.ErrInvalidInput)
	}
	if req.AgentID == "" {
		req.AgentID = uuid.NewString()
	}

	record, err := core.NewAgentRecord(req.AgentID, req.OwnerAddress, req.TokenID, req.Profile)
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
	}

	actor := m.startActor(req.AgentID, req.Profile)
	if err := m.registry.Register(req.AgentID, actor); err != nil {
		actor.Stop()
		return "", err
	}

	if err := m.store.CreateAgent(ctx, record); err != nil {
		if _, rmErr := m.registry.Remove(req.AgentID); rmErr != nil {
			m.logger.Error().Err(rmErr).Str("agent_id", req.AgentID).Msg("Rollback of registry entry failed")
		}
		actor.Stop()
		m.logger.Error().Err(err).Str("agent_id", req.AgentID).Msg("Launch failed")
		return "", err
	}

	metrics.AgentsRunning.Set(float64(m.registry.Len()))
	m.events.Publish(communication.NewEvent(communication.EventAgentLaunched, req.AgentID, AgentInfo{ID: req.AgentID, Profile: req.Profile}))
	m.logger.Info().Str("agent_id", req.AgentID).Str("token_id", req.TokenID).Msg("Launched agent")
	return req.AgentID, nil
}

// Interact forwards prompt to the agent and records the interaction time so
// the decay oracle sees the activity.
func (m *Manager) Interact(ctx context.Context, agentID, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%w: prompt is required", core.ErrInvalidInput)
	}
	actor, err := m.registry.Lookup(agentID)
	if err != nil {
		return "", err
	}

	response, err := actor.Interact(ctx, prompt)
	if err != nil {
		if errors.Is(err, agent.ErrTerminated) {
			return "", fmt.Errorf("%w: %s", core.ErrNotFound, agentID)
		}
		return "", err
	}

	if err := m.store.TouchInteraction(ctx, agentID, m.now()); err != nil {
		m.logger.Error().Err(err).Str("agent_id", agentID).Msg("Failed to update last interaction timestamp")
	}
	return response, nil
}

// History returns a snapshot of the agent's conversation.
func (m *Manager) History(ctx context.Context, agentID string) ([]core.Message, error) {
	actor, err := m.registry.Lookup(agentID)
	if err != nil {
		return nil, err
	}
	history, err := actor.History(ctx)
	if errors.Is(err, agent.ErrTerminated) {
		return nil, fmt.Errorf("%w: %s", core.ErrNotFound, agentID)
	}
	return history, err
}

// List returns every running agent.
func (m *Manager) List() []AgentInfo {
	actors := m.registry.List()
	infos := make([]AgentInfo, 0, len(actors))
	for _, a := range actors {
		infos = append(infos, AgentInfo{ID: a.ID(), Profile: a.Profile()})
	}
	return infos
}

// Authorize loads the stored record and checks owner against it.
func (m *Manager) Authorize(ctx context.Context, agentID, owner string) (core.AgentRecord, error) {
	record, err := m.store.GetAgent(ctx, agentID)
	if err != nil {
		return record, err
	}
	if !utils.SameAddress(record.OwnerAddress, owner) {
		return record, core.ErrNotOwner
	}
	return record, nil
}

// Delete removes the agent from the registry, stops its actor and deletes
// its record. A record already missing from the store is not an error.
func (m *Manager) Delete(ctx context.Context, agentID string) error {
	actor, err := m.registry.Remove(agentID)
	if err != nil {
		m.logger.Warn().Str("agent_id", agentID).Msg("Delete attempted for non-existent agent")
		return err
	}
	actor.Stop()
	metrics.AgentsRunning.Set(float64(m.registry.Len()))
	m.logger.Info().Str("agent_id", agentID).Int("remaining", m.registry.Len()).Msg("Removed agent from memory")

	if err := m.store.DeleteAgent(ctx, agentID); err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			return err
		}
		m.logger.Info().Str("agent_id", agentID).Msg("Agent not found in store (already deleted?)")
	}

	m.events.Publish(communication.NewEvent(communication.EventAgentDeleted, agentID, nil))
	return nil
}

// Restore starts an actor for every stored record not yet running. History
// is not persisted, so restored agents start with an empty conversation.
func (m *Manager) Restore(ctx context.Context) (int, error) {
	records, err := m.store.ListAgents(ctx)
	if err != nil {
		return 0, err
	}

	restored := 0
	for _, record := range records {
		profile, err := record.DecodeProfile()
		if err != nil {
			m.logger.Warn().Err(err).Str("agent_id", record.AgentID).Msg("Skipping agent with unreadable profile")
			continue
		}
		actor := m.startActor(record.AgentID, profile)
		if err := m.registry.Register(record.AgentID, actor); err != nil {
			actor.Stop()
			continue
		}
		restored++
	}

	metrics.AgentsRunning.Set(float64(m.registry.Len()))
	m.logger.Info().Int("restored", restored).Int("stored", len(records)).Msg("Restored agents from store")
	return restored, nil
}

// Shutdown stops every running actor and empties the registry.
func (m *Manager) Shutdown() {
	for _, a := range m.registry.List() {
		if _, err := m.registry.Remove(a.ID()); err == nil {
			a.Stop()
		}
	}
	metrics.AgentsRunning.Set(0)
}

func (m *Manager) startActor(agentID string, profile core.AgentProfile) *agent.Actor {
	return agent.NewActor(agentID, profile, m.llm, m.actorConfig, m.actorLogger)
}
