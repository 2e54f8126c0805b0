package communication

import (
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runNATS(t *testing.T) string {
	t.Helper()
	ns, err := natsserver.NewServer(&natsserver.Options{
		Host:   "127.0.0.1",
		Port:   -1,
		NoLog:  true,
		NoSigs: true,
	})
	require.NoError(t, err)
	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		t.Fatal("nats server not ready")
	}
	t.Cleanup(ns.Shutdown)
	return ns.ClientURL()
}

func TestEventSubject(t *testing.T) {
	assert.Equal(t, "basesociety.agent.42.agent_message", EventSubject(Event{Type: EventAgentMessage, AgentID: "42"}))
	assert.Equal(t, "basesociety.agent.a_b_c.agent_deleted", EventSubject(Event{Type: EventAgentDeleted, AgentID: "a.b c"}))
	assert.Equal(t, "basesociety.agent._.happiness_decayed", EventSubject(Event{Type: EventHappinessDecayed}))
}

func TestBrokerPublishSubscribe(t *testing.T) {
	broker, err := NewNATSBroker(runNATS(t), zerolog.Nop())
	require.NoError(t, err)
	defer broker.Close()

	received := make(chan Event, 1)
	_, err = broker.Subscribe(SubjectPrefix+".agent.*.agent_launched", func(e Event) {
		received <- e
	})
	require.NoError(t, err)
	require.NoError(t, broker.Conn.Flush())

	broker.Publish(NewEvent(EventAgentLaunched, "7", map[string]string{"name": "Ada"}))

	select {
	case e := <-received:
		assert.Equal(t, EventAgentLaunched, e.Type)
		assert.Equal(t, "7", e.AgentID)
		assert.NotEmpty(t, e.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

type recordingPublisher struct{ events []Event }

func (r *recordingPublisher) Publish(e Event) { r.events = append(r.events, e) }

func TestPublishersFanOut(t *testing.T) {
	a, b := &recordingPublisher{}, &recordingPublisher{}
	Publishers{a, nil, NopPublisher{}, b}.Publish(NewEvent(EventAgentDeleted, "1", nil))

	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
}
