package communication

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// SubjectPrefix roots every subject the broker publishes on.
const SubjectPrefix = "basesociety"

// NATSBroker encapsulates a NATS connection.
type NATSBroker struct {
	Conn   *nats.Conn
	logger zerolog.Logger
}

// NewNATSBroker creates a new NATSBroker connected to the provided URL.
func NewNATSBroker(url string, logger zerolog.Logger) (*NATSBroker, error) {
	nc, err := nats.Connect(url,
		nats.Name("basesociety"),
		nats.Timeout(10*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	logger.Info().Str("url", url).Msg("Connected to NATS")
	return &NATSBroker{Conn: nc, logger: logger}, nil
}

// EventSubject is the subject an event is published on, e.g.
// basesociety.agent.42.agent_message.
func EventSubject(event Event) string {
	agentID := event.AgentID
	if agentID == "" {
		agentID = "_"
	}
	// NATS tokens cannot contain '.', '*', '>' or whitespace
	agentID = strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_").Replace(agentID)
	return fmt.Sprintf("%s.agent.%s.%s", SubjectPrefix, agentID, strings.ToLower(event.Type))
}

// Publish sends event as JSON. Failures are logged, never returned, so a
// broken broker cannot stall an actor.
func (b *NATSBroker) Publish(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error().Err(err).Str("type", event.Type).Msg("Failed to encode event")
		return
	}
	subject := EventSubject(event)
	if err := b.Conn.Publish(subject, data); err != nil {
		b.logger.Warn().Err(err).Str("subject", subject).Msg("Failed to publish event")
	}
}

// Subscribe registers a callback for a subject; wildcards are allowed.
func (b *NATSBroker) Subscribe(subject string, cb func(Event)) (*nats.Subscription, error) {
	return b.Conn.Subscribe(subject, func(msg *nats.Msg) {
		var event Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			b.logger.Warn().Err(err).Str("subject", msg.Subject).Msg("Dropping malformed event")
			return
		}
		cb(event)
	})
}

// Close drains pending messages and closes the connection.
func (b *NATSBroker) Close() {
	if err := b.Conn.Drain(); err != nil {
		b.Conn.Close()
	}
}
