package core

import (
	"encoding/json"
	"fmt"
	"time"
)

// AgentProfile is the creator-defined identity of an agent. It never changes
// after launch.
type AgentProfile struct {
	Name        string   `json:"name"`
	Personality string   `json:"personality"`
	Desires     string   `json:"desires"`
	Skills      []string `json:"skills"`
}

// Role is the speaker of a message as understood by the completion provider.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Origin records who actually produced a message.
type Origin string

const (
	OriginAgent  Origin = "Agent"
	OriginOwner  Origin = "Owner"
	OriginSystem Origin = "System"
)

// Message is one entry in an agent's conversation history.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Origin    Origin    `json:"origin"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage stamps a message with the current wall clock.
func NewMessage(role Role, origin Origin, content string) Message {
	return Message{
		Role:      role,
		Content:   content,
		Origin:    origin,
		Timestamp: time.Now().UTC(),
	}
}

// AgentRecord is the durable row kept for every launched agent.
type AgentRecord struct {
	AgentID           string `json:"agent_id"`
	OwnerAddress      string `json:"owner_address"`
	Profile           string `json:"profile"`
	TokenID           string `json:"token_id"`
	LastInteractionTS *int64 `json:"last_interaction_ts,omitempty"`
}

// NewAgentRecord serializes the profile into a fresh record.
func NewAgentRecord(agentID, owner, tokenID string, profile AgentProfile) (AgentRecord, error) {
	data, err := json.Marshal(profile)
	if err != nil {
		return AgentRecord{}, fmt.Errorf("failed to marshal profile: %w", err)
	}
	return AgentRecord{
		AgentID:      agentID,
		OwnerAddress: owner,
		Profile:      string(data),
		TokenID:      tokenID,
	}, nil
}

// DecodeProfile parses the stored profile JSON.
func (r AgentRecord) DecodeProfile() (AgentProfile, error) {
	var profile AgentProfile
	if err := json.Unmarshal([]byte(r.Profile), &profile); err != nil {
		return profile, fmt.Errorf("invalid profile for agent %s: %w", r.AgentID, err)
	}
	return profile, nil
}

// LastInteraction returns the last interaction time, or the zero time when
// the agent was never interacted with.
func (r AgentRecord) LastInteraction() time.Time {
	if r.LastInteractionTS == nil {
		return time.Time{}
	}
	return time.Unix(*r.LastInteractionTS, 0).UTC()
}
