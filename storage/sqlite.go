package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/NethermindEth/basesociety/core"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLStore handles SQLite database operations.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore opens (and creates if needed) the SQLite database at dbPath.
// If dbPath is empty, defaults to "./data/agents.db". ":memory:" opens a
// private in-memory database.
func NewSQLStore(ctx context.Context, dbPath string) (*SQLStore, error) {
	if dbPath == "" {
		dbPath = "./data/agents.db"
	}

	dsn := ":memory:"
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, persistenceErr("create data dir", err)
		}
		dsn = "file:" + dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, persistenceErr("open", err)
	}
	if dbPath == ":memory:" {
		// every new connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, persistenceErr("ping", err)
	}

	store := &SQLStore{db: db}
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, persistenceErr("init schema", err)
	}
	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *SQLStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS agents (
		agent_id TEXT PRIMARY KEY,
		owner_address TEXT NOT NULL,
		profile TEXT NOT NULL,
		token_id TEXT NOT NULL DEFAULT '',
		last_interaction_ts INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_agents_owner ON agents(owner_address);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// CreateAgent inserts a new agent row.
func (s *SQLStore) CreateAgent(ctx context.Context, record core.AgentRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO agents (agent_id, owner_address, profile, token_id, last_interaction_ts)
		VALUES (?, ?, ?, ?, ?)
	`, record.AgentID, record.OwnerAddress, record.Profile, record.TokenID, nullableTS(record.LastInteractionTS))
	if err != nil {
		if isConstraintErr(err) {
			return fmt.Errorf("%w: %s", core.ErrDuplicateID, record.AgentID)
		}
		return persistenceErr("insert agent", err)
	}
	return nil
}

// GetAgent retrieves an agent by id.
func (s *SQLStore) GetAgent(ctx context.Context, agentID string) (core.AgentRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT agent_id, owner_address, profile, token_id, last_interaction_ts
		FROM agents WHERE agent_id = ?
	`, agentID)

	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return record, fmt.Errorf("%w: %s", core.ErrNotFound, agentID)
		}
		return record, persistenceErr("get agent", err)
	}
	return record, nil
}

// ListAgents returns every agent ordered by id.
func (s *SQLStore) ListAgents(ctx context.Context) ([]core.AgentRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT agent_id, owner_address, profile, token_id, last_interaction_ts
		FROM agents ORDER BY agent_id
	`)
	if err != nil {
		return nil, persistenceErr("list agents", err)
	}
	defer rows.Close()

	var records []core.AgentRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, persistenceErr("scan agent", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr("list agents", err)
	}
	return records, nil
}

// ListAgentIDs returns every agent id ordered by id.
func (s *SQLStore) ListAgentIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT agent_id FROM agents ORDER BY agent_id`)
	if err != nil {
		return nil, persistenceErr("list agent ids", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, persistenceErr("scan agent id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr("list agent ids", err)
	}
	return ids, nil
}

// DeleteAgent removes an agent row.
func (s *SQLStore) DeleteAgent(ctx context.Context, agentID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM agents WHERE agent_id = ?`, agentID)
	if err != nil {
		return persistenceErr("delete agent", err)
	}
	return requireAffected(res, agentID)
}

// TouchInteraction records at as the agent's last interaction.
func (s *SQLStore) TouchInteraction(ctx context.Context, agentID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE agents SET last_interaction_ts = ? WHERE agent_id = ?
	`, at.Unix(), agentID)
	if err != nil {
		return persistenceErr("touch interaction", err)
	}
	return requireAffected(res, agentID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (core.AgentRecord, error) {
	var record core.AgentRecord
	var lastTS sql.NullInt64
	err := row.Scan(
		&record.AgentID,
		&record.OwnerAddress,
		&record.Profile,
		&record.TokenID,
		&lastTS,
	)
	if err != nil {
		return record, err
	}
	if lastTS.Valid {
		ts := lastTS.Int64
		record.LastInteractionTS = &ts
	}
	return record, nil
}

func nullableTS(ts *int64) sql.NullInt64 {
	if ts == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *ts, Valid: true}
}

func requireAffected(res sql.Result, agentID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return persistenceErr("rows affected", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", core.ErrNotFound, agentID)
	}
	return nil
}

func isConstraintErr(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return strings.Contains(err.Error(), "constraint failed")
}
