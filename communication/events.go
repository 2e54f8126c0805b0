package communication

import (
	"time"

	"github.com/google/uuid"
)

// Event is a lifecycle or activity notification fanned out to websocket
// clients and NATS subscribers.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	AgentID   string      `json:"agent_id"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

const (
	EventAgentLaunched    = "AGENT_LAUNCHED"
	EventAgentDeleted     = "AGENT_DELETED"
	EventAgentMessage     = "AGENT_MESSAGE"
	EventAgentRegistered  = "AGENT_REGISTERED"
	EventHappinessDecayed = "HAPPINESS_DECAYED"
)

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType, agentID string, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		AgentID:   agentID,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// Publisher delivers events. Implementations must not block the caller for
// long; actors publish from their own goroutine.
type Publisher interface {
	Publish(event Event)
}

// Publishers fans an event out to every member.
type Publishers []Publisher

func (ps Publishers) Publish(event Event) {
	for _, p := range ps {
		if p != nil {
			p.Publish(event)
		}
	}
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}
