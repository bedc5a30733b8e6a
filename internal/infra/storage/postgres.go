// PostgreSQL implementation of EventRepository, for deployments where the
// event ledger outlives a single host.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// InitPostgres opens a PostgreSQL connection and ensures the event schema.
func InitPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping postgres database: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS event_log (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL,
			event_type TEXT NOT NULL,
			actor_id TEXT NOT NULL,
			target_id TEXT NOT NULL,
			payload JSONB NOT NULL,
			tick BIGINT NOT NULL,
			depth INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_event_log_run_id ON event_log(run_id);
		CREATE INDEX IF NOT EXISTS idx_event_log_depth ON event_log(depth);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create postgres schema: %w", err)
	}
	return db, nil
}

// PostgresEventRepository implements EventRepository using PostgreSQL.
type PostgresEventRepository struct {
	db *sql.DB
}

// NewPostgresEventRepository creates a new PostgreSQL event repository.
func NewPostgresEventRepository(db *sql.DB) *PostgresEventRepository {
	return &PostgresEventRepository{db: db}
}

// Append inserts a new event into the immutable ledger.
func (r *PostgresEventRepository) Append(ctx context.Context, event GameEvent) error {
	payloadJSON, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	query := `
		INSERT INTO event_log (id, run_id, timestamp, event_type, actor_id, target_id, payload, tick, depth)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = r.db.ExecContext(ctx, query,
		event.ID,
		event.RunID,
		event.Timestamp,
		event.EventType,
		event.ActorID,
		event.TargetID,
		payloadJSON,
		event.Tick,
		event.Depth,
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// GetByRunID retrieves all events for a run (the full replay).
func (r *PostgresEventRepository) GetByRunID(ctx context.Context, runID string) ([]GameEvent, error) {
	query := `
		SELECT id, run_id, timestamp, event_type, actor_id, target_id, payload, tick, depth
		FROM event_log
		WHERE run_id = $1
		ORDER BY tick ASC, timestamp ASC
	`
	return r.queryEvents(ctx, query, runID)
}

// GetByActorID retrieves all events performed by an actor.
func (r *PostgresEventRepository) GetByActorID(ctx context.Context, runID, actorID string) ([]GameEvent, error) {
	query := `
		SELECT id, run_id, timestamp, event_type, actor_id, target_id, payload, tick, depth
		FROM event_log
		WHERE run_id = $1 AND actor_id = $2
		ORDER BY tick ASC, timestamp ASC
	`
	return r.queryEvents(ctx, query, runID, actorID)
}

// GetByDepth retrieves all events from a specific level depth.
func (r *PostgresEventRepository) GetByDepth(ctx context.Context, runID string, depth int) ([]GameEvent, error) {
	query := `
		SELECT id, run_id, timestamp, event_type, actor_id, target_id, payload, tick, depth
		FROM event_log
		WHERE run_id = $1 AND depth = $2
		ORDER BY tick ASC, timestamp ASC
	`
	return r.queryEvents(ctx, query, runID, depth)
}

// GetByEventType retrieves all events of a specific type.
func (r *PostgresEventRepository) GetByEventType(ctx context.Context, runID string, eventType string) ([]GameEvent, error) {
	query := `
		SELECT id, run_id, timestamp, event_type, actor_id, target_id, payload, tick, depth
		FROM event_log
		WHERE run_id = $1 AND event_type = $2
		ORDER BY tick ASC, timestamp ASC
	`
	return r.queryEvents(ctx, query, runID, eventType)
}

func (r *PostgresEventRepository) queryEvents(ctx context.Context, query string, args ...interface{}) ([]GameEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []GameEvent
	for rows.Next() {
		var e GameEvent
		var payloadBytes []byte
		err := rows.Scan(
			&e.ID, &e.RunID, &e.Timestamp, &e.EventType, &e.ActorID,
			&e.TargetID, &payloadBytes, &e.Tick, &e.Depth,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payloadBytes, &e.Payload); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
