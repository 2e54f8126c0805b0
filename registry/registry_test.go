package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/NethermindEth/basesociety/agent"
	"github.com/NethermindEth/basesociety/ai"
	"github.com/NethermindEth/basesociety/core"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newActor(t *testing.T, id string) *agent.Actor {
	t.Helper()
	config := agent.DefaultActorConfig()
	config.ReflectionInterval = 0
	a := agent.NewActor(id, core.AgentProfile{Name: id}, &ai.MockLLM{}, config, zerolog.Nop())
	t.Cleanup(a.Stop)
	return a
}

func TestRegisterLookupRemove(t *testing.T) {
	r := New()
	a1 := newActor(t, "a1")

	require.NoError(t, r.Register("a1", a1))
	assert.ErrorIs(t, r.Register("a1", newActor(t, "a1-dup")), core.ErrDuplicateID)

	got, err := r.Lookup("a1")
	require.NoError(t, err)
	assert.Same(t, a1, got)

	removed, err := r.Remove("a1")
	require.NoError(t, err)
	assert.Same(t, a1, removed)

	_, err = r.Lookup("a1")
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = r.Remove("a1")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestListSnapshotSorted(t *testing.T) {
	r := New()
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, r.Register(id, newActor(t, id)))
	}

	snapshot := r.List()
	require.NoError(t, r.Register("d", newActor(t, "d")))

	require.Len(t, snapshot, 3)
	assert.Equal(t, "a", snapshot[0].ID())
	assert.Equal(t, "b", snapshot[1].ID())
	assert.Equal(t, "c", snapshot[2].ID())
	assert.Equal(t, 4, r.Len())
}

func TestConcurrentRegister(t *testing.T) {
	r := New()
	a := newActor(t, "shared")

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := r.Register("shared", a); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
			_, _ = r.Lookup(fmt.Sprintf("missing-%d", i))
			_ = r.List()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, r.Len())
}
