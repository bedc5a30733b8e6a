package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// SQLiteEventRepository implements EventRepository for SQLite.
type SQLiteEventRepository struct {
	db *sql.DB
}

func NewSQLiteEventRepository(db *sql.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

func (r *SQLiteEventRepository) Append(ctx context.Context, event GameEvent) error {
	payloadBytes, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	query := `
		INSERT INTO events (id, run_id, timestamp, event_type, actor_id, target_id, payload, tick, depth)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		event.ID, event.RunID, event.Timestamp, event.EventType, event.ActorID,
		event.TargetID, string(payloadBytes), event.Tick, event.Depth,
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (r *SQLiteEventRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]GameEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []GameEvent
	for rows.Next() {
		var e GameEvent
		var payloadStr string
		err := rows.Scan(
			&e.ID, &e.RunID, &e.Timestamp, &e.EventType, &e.ActorID,
			&e.TargetID, &payloadStr, &e.Tick, &e.Depth,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payloadStr), &e.Payload); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *SQLiteEventRepository) GetByRunID(ctx context.Context, runID string) ([]GameEvent, error) {
	query := `SELECT id, run_id, timestamp, event_type, actor_id, target_id, payload, tick, depth FROM events WHERE run_id = ? ORDER BY tick ASC, timestamp ASC`
	return r.getMany(ctx, query, runID)
}

func (r *SQLiteEventRepository) GetByActorID(ctx context.Context, runID, actorID string) ([]GameEvent, error) {
	query := `SELECT id, run_id, timestamp, event_type, actor_id, target_id, payload, tick, depth FROM events WHERE run_id = ? AND actor_id = ? ORDER BY tick ASC, timestamp ASC`
	return r.getMany(ctx, query, runID, actorID)
}

func (r *SQLiteEventRepository) GetByDepth(ctx context.Context, runID string, depth int) ([]GameEvent, error) {
	query := `SELECT id, run_id, timestamp, event_type, actor_id, target_id, payload, tick, depth FROM events WHERE run_id = ? AND depth = ? ORDER BY tick ASC, timestamp ASC`
	return r.getMany(ctx, query, runID, depth)
}

func (r *SQLiteEventRepository) GetByEventType(ctx context.Context, runID string, eventType string) ([]GameEvent, error) {
	query := `SELECT id, run_id, timestamp, event_type, actor_id, target_id, payload, tick, depth FROM events WHERE run_id = ? AND event_type = ? ORDER BY tick ASC, timestamp ASC`
	return r.getMany(ctx, query, runID, eventType)
}

// ---------------------------------------------------------
// SQLiteRunRepository
// ---------------------------------------------------------

type SQLiteRunRepository struct {
	db *sql.DB
}

func NewSQLiteRunRepository(db *sql.DB) *SQLiteRunRepository {
	return &SQLiteRunRepository{db: db}
}

func (r *SQLiteRunRepository) Upsert(ctx context.Context, snapshot RunSnapshot) error {
	query := `
		INSERT INTO runs (run_id, player_id, player_name, state, seed, depth, levels_cleared, kills, health, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			player_id=excluded.player_id,
			player_name=excluded.player_name,
			state=excluded.state,
			seed=excluded.seed,
			depth=excluded.depth,
			levels_cleared=excluded.levels_cleared,
			kills=excluded.kills,
			health=excluded.health,
			last_updated=excluded.last_updated
	`
	_, err := r.db.ExecContext(ctx, query,
		snapshot.RunID, snapshot.PlayerID, snapshot.PlayerName, snapshot.State,
		snapshot.Seed, snapshot.Depth, snapshot.LevelsCleared, snapshot.Kills,
		snapshot.Health, time.Now(),
	)
	return err
}

func (r *SQLiteRunRepository) GetByRunID(ctx context.Context, runID string) (*RunSnapshot, error) {
	query := `SELECT run_id, player_id, player_name, state, seed, depth, levels_cleared, kills, health, last_updated FROM runs WHERE run_id = ?`
	var s RunSnapshot
	err := r.db.QueryRowContext(ctx, query, runID).Scan(
		&s.RunID, &s.PlayerID, &s.PlayerName, &s.State, &s.Seed,
		&s.Depth, &s.LevelsCleared, &s.Kills, &s.Health, &s.LastUpdated,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *SQLiteRunRepository) List(ctx context.Context) ([]RunSnapshot, error) {
	query := `SELECT run_id, player_id, player_name, state, seed, depth, levels_cleared, kills, health, last_updated FROM runs ORDER BY last_updated DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []RunSnapshot
	for rows.Next() {
		var s RunSnapshot
		if err := rows.Scan(&s.RunID, &s.PlayerID, &s.PlayerName, &s.State, &s.Seed,
			&s.Depth, &s.LevelsCleared, &s.Kills, &s.Health, &s.LastUpdated); err != nil {
			return nil, err
		}
		snaps = append(snaps, s)
	}
	return snaps, rows.Err()
}
