package manager

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/NethermindEth/basesociety/agent"
	"github.com/NethermindEth/basesociety/ai"
	"github.com/NethermindEth/basesociety/communication"
	"github.com/NethermindEth/basesociety/core"
	"github.com/NethermindEth/basesociety/registry"
	"github.com/NethermindEth/basesociety/storage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyStore fails CreateAgent while failCreate is set.
type flakyStore struct {
	storage.AgentStore
	failCreate bool
}

func (s *flakyStore) CreateAgent(ctx context.Context, record core.AgentRecord) error {
	if s.failCreate {
		return core.ErrPersistence
	}
	return s.AgentStore.CreateAgent(ctx, record)
}

type eventLog struct {
	mu     sync.Mutex
	events []communication.Event
}

func (l *eventLog) Publish(e communication.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) types() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var types []string
	for _, e := range l.events {
		types = append(types, e.Type)
	}
	return types
}

type fixture struct {
	manager  *Manager
	registry *registry.Registry
	store    *flakyStore
	llm      *ai.MockLLM
	events   *eventLog
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	sqlStore, err := storage.NewSQLStore(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sqlStore.Close() })

	config := agent.DefaultActorConfig()
	config.ReflectionInterval = 0

	f := &fixture{
		registry: registry.New(),
		store:    &flakyStore{AgentStore: sqlStore},
		llm:      &ai.MockLLM{},
		events:   &eventLog{},
	}
	opts = append([]Option{WithEvents(f.events)}, opts...)
	f.manager = New(f.registry, f.store, f.llm, config, zerolog.Nop(), opts...)
	t.Cleanup(f.manager.Shutdown)
	return f
}

func launchReq(id string) LaunchRequest {
	return LaunchRequest{
		AgentID:      id,
		OwnerAddress: "0xAbC",
		TokenID:      "1",
		Profile:      core.AgentProfile{Name: "Ada", Personality: "curious"},
	}
}

func TestLaunchThenInteract(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	f := newFixture(t, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	id, err := f.manager.Launch(ctx, launchReq("a1"))
	require.NoError(t, err)
	assert.Equal(t, "a1", id)

	response, err := f.manager.Interact(ctx, "a1", "hello")
	require.NoError(t, err)
	assert.Equal(t, "echo: hello", response)

	history, err := f.manager.History(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, core.RoleUser, history[0].Role)
	assert.Equal(t, core.RoleAssistant, history[1].Role)

	record, err := f.store.GetAgent(ctx, "a1")
	require.NoError(t, err)
	require.NotNil(t, record.LastInteractionTS)
	assert.Equal(t, now.Unix(), *record.LastInteractionTS)

	assert.Equal(t, []string{
		communication.EventAgentLaunched,
		communication.EventAgentMessage,
		communication.EventAgentMessage,
	}, f.events.types())
}

func TestLaunchGeneratesID(t *testing.T) {
	f := newFixture(t)
	req := launchReq("")

	id, err := f.manager.Launch(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	_, err = f.registry.Lookup(id)
	assert.NoError(t, err)
}

func TestLaunchValidates(t *testing.T) {
	f := newFixture(t)

	req := launchReq("a1")
	req.OwnerAddress = ""
	_, err := f.manager.Launch(context.Background(), req)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	req = launchReq("a1")
	req.Profile.Name = " "
	_, err = f.manager.Launch(context.Background(), req)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	assert.Zero(t, f.registry.Len())
}

func TestLaunchDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.manager.Launch(ctx, launchReq("a1"))
	require.NoError(t, err)
	_, err = f.manager.Launch(ctx, launchReq("a1"))
	assert.ErrorIs(t, err, core.ErrDuplicateID)
	assert.Equal(t, 1, f.registry.Len())
}

func TestLaunchRollsBackOnStoreFailure(t *testing.T) {
	f := newFixture(t)
	f.store.failCreate = true

	_, err := f.manager.Launch(context.Background(), launchReq("a1"))
	require.ErrorIs(t, err, core.ErrPersistence)

	_, err = f.registry.Lookup("a1")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Empty(t, f.events.types())

	// the id is free again once the store recovers
	f.store.failCreate = false
	_, err = f.manager.Launch(context.Background(), launchReq("a1"))
	assert.NoError(t, err)
}

func TestDeleteThenInteractIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.manager.Launch(ctx, launchReq("a1"))
	require.NoError(t, err)
	actor, err := f.registry.Lookup("a1")
	require.NoError(t, err)

	require.NoError(t, f.manager.Delete(ctx, "a1"))

	_, err = f.manager.Interact(ctx, "a1", "hello")
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = f.store.GetAgent(ctx, "a1")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, f.manager.Delete(ctx, "a1"), core.ErrNotFound)

	select {
	case <-actor.Done():
	case <-time.After(time.Second):
		t.Fatal("deleted actor still running")
	}
}

func TestDeleteToleratesMissingRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.manager.Launch(ctx, launchReq("a1"))
	require.NoError(t, err)
	require.NoError(t, f.store.DeleteAgent(ctx, "a1"))

	assert.NoError(t, f.manager.Delete(ctx, "a1"))
}

func TestInteractProviderError(t *testing.T) {
	f := newFixture(t)
	f.llm.Respond = func(string, []core.ChatTurn) (string, error) {
		return "", errors.New("quota exceeded")
	}
	ctx := context.Background()

	_, err := f.manager.Launch(ctx, launchReq("a1"))
	require.NoError(t, err)

	_, err = f.manager.Interact(ctx, "a1", "hello")
	assert.ErrorIs(t, err, core.ErrProvider)

	record, err := f.store.GetAgent(ctx, "a1")
	require.NoError(t, err)
	assert.Nil(t, record.LastInteractionTS)

	history, err := f.manager.History(ctx, "a1")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestInteractRequiresPrompt(t *testing.T) {
	f := newFixture(t)
	_, err := f.manager.Interact(context.Background(), "a1", "")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestAuthorize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.manager.Launch(ctx, launchReq("a1"))
	require.NoError(t, err)

	record, err := f.manager.Authorize(ctx, "a1", "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "a1", record.AgentID)

	_, err = f.manager.Authorize(ctx, "a1", "0xdef")
	assert.ErrorIs(t, err, core.ErrNotOwner)

	_, err = f.manager.Authorize(ctx, "missing", "0xabc")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestListAndRestore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, id := range []string{"b", "a"} {
		_, err := f.manager.Launch(ctx, launchReq(id))
		require.NoError(t, err)
	}
	infos := f.manager.List()
	require.Len(t, infos, 2)
	assert.Equal(t, "a", infos[0].ID)
	assert.Equal(t, "Ada", infos[0].Profile.Name)

	// simulate a restart: the registry is gone, the store remains
	f.manager.Shutdown()
	assert.Zero(t, f.registry.Len())

	restored, err := f.manager.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, restored)
	assert.Len(t, f.manager.List(), 2)

	restored, err = f.manager.Restore(ctx)
	require.NoError(t, err)
	assert.Zero(t, restored)
}
