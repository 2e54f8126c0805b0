package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/NethermindEth/basesociety/core"
)

const agentPrefix = "agent:"

// AgentRepository keeps agent records in BadgerDB under agent:<id>.
type AgentRepository struct {
	db *DBStorage
}

func NewAgentRepository(db *DBStorage) *AgentRepository {
	return &AgentRepository{db: db}
}

func agentKey(agentID string) string {
	return agentPrefix + agentID
}

func (r *AgentRepository) CreateAgent(ctx context.Context, record core.AgentRecord) error {
	data, err := encodeRecord(record)
	if err != nil {
		return persistenceErr("create agent", err)
	}
	if err := r.db.PutIfAbsent(agentKey(record.AgentID), data); err != nil {
		if errors.Is(err, ErrKeyExists) {
			return fmt.Errorf("%w: %s", core.ErrDuplicateID, record.AgentID)
		}
		return persistenceErr("create agent", err)
	}
	return nil
}

func (r *AgentRepository) GetAgent(ctx context.Context, agentID string) (core.AgentRecord, error) {
	var record core.AgentRecord
	found, err := r.db.GetObject(agentKey(agentID), &record)
	if err != nil {
		return record, persistenceErr("get agent", err)
	}
	if !found {
		return record, fmt.Errorf("%w: %s", core.ErrNotFound, agentID)
	}
	return record, nil
}

func (r *AgentRepository) ListAgents(ctx context.Context) ([]core.AgentRecord, error) {
	values, err := r.db.GetByPrefix(agentPrefix)
	if err != nil {
		return nil, persistenceErr("list agents", err)
	}

	records := make([]core.AgentRecord, 0, len(values))
	for key, value := range values {
		record, err := decodeRecord(value)
		if err != nil {
			return nil, persistenceErr("decode "+key, err)
		}
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].AgentID < records[j].AgentID
	})
	return records, nil
}

func (r *AgentRepository) ListAgentIDs(ctx context.Context) ([]string, error) {
	values, err := r.db.GetByPrefix(agentPrefix)
	if err != nil {
		return nil, persistenceErr("list agent ids", err)
	}

	ids := make([]string, 0, len(values))
	for key := range values {
		ids = append(ids, strings.TrimPrefix(key, agentPrefix))
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *AgentRepository) DeleteAgent(ctx context.Context, agentID string) error {
	existed, err := r.db.Delete(agentKey(agentID))
	if err != nil {
		return persistenceErr("delete agent", err)
	}
	if !existed {
		return fmt.Errorf("%w: %s", core.ErrNotFound, agentID)
	}
	return nil
}

func (r *AgentRepository) TouchInteraction(ctx context.Context, agentID string, at time.Time) error {
	var record core.AgentRecord
	ts := at.Unix()
	found, err := r.db.UpdateObject(agentKey(agentID), &record, func() error {
		record.LastInteractionTS = &ts
		return nil
	})
	if err != nil {
		return persistenceErr("touch interaction", err)
	}
	if !found {
		return fmt.Errorf("%w: %s", core.ErrNotFound, agentID)
	}
	return nil
}

func (r *AgentRepository) Close() error {
	return r.db.Close()
}
