package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadowcurse/fridges-must-die/server/internal/domain/player"
)

func testDB(t *testing.T) (*SQLiteEventRepository, *SQLiteRunRepository) {
	t.Helper()
	db, err := InitSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLiteEventRepository(db), NewSQLiteRunRepository(db)
}

func testEvent(id, runID, eventType, actorID string, tick int64, depth int) GameEvent {
	return GameEvent{
		ID:        id,
		RunID:     runID,
		Timestamp: time.Now(),
		EventType: eventType,
		ActorID:   actorID,
		Payload:   map[string]interface{}{"value": float64(tick)},
		Tick:      tick,
		Depth:     depth,
	}
}

func TestEventAppendAndGetByRunID(t *testing.T) {
	events, _ := testDB(t)
	ctx := context.Background()

	require.NoError(t, events.Append(ctx, testEvent("E2", "RUN_1", "KILL", "P1", 20, 0)))
	require.NoError(t, events.Append(ctx, testEvent("E1", "RUN_1", "SHOT_FIRED", "P1", 10, 0)))
	require.NoError(t, events.Append(ctx, testEvent("E3", "RUN_2", "KILL", "P1", 5, 0)))

	got, err := events.GetByRunID(ctx, "RUN_1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Ledger reads come back in tick order regardless of insert order.
	assert.Equal(t, "E1", got[0].ID)
	assert.Equal(t, "E2", got[1].ID)
	assert.Equal(t, float64(10), got[0].Payload["value"])
}

func TestEventGetByActorID(t *testing.T) {
	events, _ := testDB(t)
	ctx := context.Background()

	require.NoError(t, events.Append(ctx, testEvent("E1", "RUN_1", "SHOT_FIRED", "P1", 1, 0)))
	require.NoError(t, events.Append(ctx, testEvent("E2", "RUN_1", "ENEMY_SPAWNED", "SYSTEM_LEVEL", 2, 0)))

	got, err := events.GetByActorID(ctx, "RUN_1", "P1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "SHOT_FIRED", got[0].EventType)
}

func TestEventGetByDepth(t *testing.T) {
	events, _ := testDB(t)
	ctx := context.Background()

	require.NoError(t, events.Append(ctx, testEvent("E1", "RUN_1", "LEVEL_STARTED", "SYSTEM_LEVEL", 1, 0)))
	require.NoError(t, events.Append(ctx, testEvent("E2", "RUN_1", "LEVEL_STARTED", "SYSTEM_LEVEL", 100, 1)))
	require.NoError(t, events.Append(ctx, testEvent("E3", "RUN_1", "KILL", "P1", 120, 1)))

	got, err := events.GetByDepth(ctx, "RUN_1", 1)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestEventGetByEventType(t *testing.T) {
	events, _ := testDB(t)
	ctx := context.Background()

	require.NoError(t, events.Append(ctx, testEvent("E1", "RUN_1", "KILL", "P1", 1, 0)))
	require.NoError(t, events.Append(ctx, testEvent("E2", "RUN_1", "KILL", "P1", 2, 0)))
	require.NoError(t, events.Append(ctx, testEvent("E3", "RUN_1", "SHOT_FIRED", "P1", 3, 0)))

	got, err := events.GetByEventType(ctx, "RUN_1", "KILL")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestRunUpsert(t *testing.T) {
	_, runs := testDB(t)
	ctx := context.Background()

	snap := RunSnapshot{
		RunID:      "RUN_1",
		PlayerID:   "P1",
		PlayerName: "Tester",
		State:      "IN_GAME",
		Seed:       42,
		Health:     300,
	}
	require.NoError(t, runs.Upsert(ctx, snap))

	snap.State = "GAME_WON"
	snap.LevelsCleared = 5
	snap.Kills = 17
	require.NoError(t, runs.Upsert(ctx, snap))

	got, err := runs.GetByRunID(ctx, "RUN_1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "GAME_WON", got.State)
	assert.Equal(t, 5, got.LevelsCleared)
	assert.Equal(t, 17, got.Kills)

	all, err := runs.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRunGetMissing(t *testing.T) {
	_, runs := testDB(t)

	got, err := runs.GetByRunID(context.Background(), "NO_SUCH_RUN")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestReconstructorRebuildRun(t *testing.T) {
	events, _ := testDB(t)
	ctx := context.Background()

	base := time.Now()
	appendAt := func(id, eventType, actorID string, tick int64, depth int, payload map[string]interface{}) {
		e := GameEvent{
			ID:        id,
			RunID:     "RUN_1",
			Timestamp: base.Add(time.Duration(tick) * 50 * time.Millisecond),
			EventType: eventType,
			ActorID:   actorID,
			Payload:   payload,
			Tick:      tick,
			Depth:     depth,
		}
		require.NoError(t, events.Append(ctx, e))
	}

	appendAt("E1", "PLAYER_JOINED", "P1", 0, 0, map[string]interface{}{"name": "Tester"})
	appendAt("E2", "RUN_STARTED", "SYSTEM_ENGINE", 0, 0, map[string]interface{}{"seed": float64(42)})
	appendAt("E3", "KILL", "P1", 100, 0, nil)
	appendAt("E4", "LEVEL_FINISHED", "SYSTEM_LEVEL", 200, 0, nil)
	appendAt("E5", "KILL", "P1", 300, 1, nil)
	appendAt("E6", "DAMAGE_TAKEN", "FRIDGE_2", 350, 1,
		map[string]interface{}{"target_id": "P1", "amount": float64(120)})
	appendAt("E7", "DAMAGE_TAKEN", "FRIDGE_2", 390, 1,
		map[string]interface{}{"target_id": "P1", "amount": float64(200)})
	appendAt("E8", "GAME_OVER", "P1", 400, 1, nil)

	snap, err := NewReconstructor(events).RebuildRun(ctx, "RUN_1")
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.Equal(t, "P1", snap.PlayerID)
	assert.Equal(t, "Tester", snap.PlayerName)
	assert.Equal(t, int64(42), snap.Seed)
	assert.Equal(t, 2, snap.Kills)
	assert.Equal(t, 1, snap.LevelsCleared)
	assert.Equal(t, 1, snap.Depth)
	assert.Equal(t, "GAME_OVER", snap.State)
	// 320 damage against 300 health clamps to zero.
	assert.Equal(t, 0, snap.Health)
}

func TestReconstructorFoldsPlayerHealth(t *testing.T) {
	events, _ := testDB(t)
	ctx := context.Background()

	appendEvent := func(id, eventType, actorID string, tick int64, payload map[string]interface{}) {
		require.NoError(t, events.Append(ctx, GameEvent{
			ID: id, RunID: "RUN_1", Timestamp: time.Now(),
			EventType: eventType, ActorID: actorID, Payload: payload, Tick: tick,
		}))
	}

	appendEvent("E1", "PLAYER_JOINED", "P1", 0, map[string]interface{}{"name": "Tester"})
	appendEvent("E2", "DAMAGE_TAKEN", "FRIDGE_1", 50,
		map[string]interface{}{"target_id": "P1", "amount": float64(45)})
	// Fridge damage must not touch the player's health.
	appendEvent("E3", "DAMAGE_TAKEN", "P1", 60,
		map[string]interface{}{"target_id": "FRIDGE_1", "amount": float64(30)})

	snap, err := NewReconstructor(events).RebuildRun(ctx, "RUN_1")
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.Equal(t, player.Health-45, snap.Health)
}

func TestReconstructorEmptyRun(t *testing.T) {
	events, _ := testDB(t)

	snap, err := NewReconstructor(events).RebuildRun(context.Background(), "RUN_X")
	require.NoError(t, err)
	assert.Nil(t, snap)
}
