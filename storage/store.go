package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NethermindEth/basesociety/core"
)

// AgentStore is the durable record of launched agents. Implementations wrap
// misses in core.ErrNotFound, duplicate ids in core.ErrDuplicateID and any
// other failure in core.ErrPersistence.
type AgentStore interface {
	CreateAgent(ctx context.Context, record core.AgentRecord) error
	GetAgent(ctx context.Context, agentID string) (core.AgentRecord, error)
	ListAgents(ctx context.Context) ([]core.AgentRecord, error)
	ListAgentIDs(ctx context.Context) ([]string, error)
	DeleteAgent(ctx context.Context, agentID string) error
	TouchInteraction(ctx context.Context, agentID string, at time.Time) error
	Close() error
}

// Open picks a backend from a database URL:
//
//	sqlite:<path>     SQLite file (sqlite::memory: for an in-memory database)
//	badger:<dir>      BadgerDB directory (badger::memory: for in-memory)
//
// A bare path is treated as SQLite.
func Open(ctx context.Context, databaseURL string) (AgentStore, error) {
	scheme, target, found := strings.Cut(databaseURL, ":")
	if !found || (scheme != "sqlite" && scheme != "badger") {
		return NewSQLStore(ctx, databaseURL)
	}

	switch scheme {
	case "badger":
		config := DefaultConfig(target)
		if target == ":memory:" {
			config = InMemoryConfig()
		}
		db, err := NewDBStorage(config)
		if err != nil {
			return nil, err
		}
		return NewAgentRepository(db), nil
	default:
		return NewSQLStore(ctx, target)
	}
}

func persistenceErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", core.ErrPersistence, op, err)
}
