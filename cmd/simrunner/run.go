package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/shadowcurse/fridges-must-die/server/internal/engine"
	"github.com/shadowcurse/fridges-must-die/server/internal/events"
	"github.com/shadowcurse/fridges-must-die/server/internal/geom"
	"github.com/shadowcurse/fridges-must-die/server/internal/platform/logger"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute seeded headless runs with a bot player",
	Run: func(cmd *cobra.Command, args []string) {
		runs, _ := cmd.Flags().GetInt("runs")
		seed, _ := cmd.Flags().GetInt64("seed")
		levels, _ := cmd.Flags().GetInt("levels")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		tutorial, _ := cmd.Flags().GetBool("tutorial")

		failed := 0
		for i := 0; i < runs; i++ {
			result := executeRun(seed+int64(i), levels, timeout, tutorial)
			fmt.Printf("Run %d/%d seed=%d: %s (levels=%d kills=%d health=%d ticks=%d in %v)\n",
				i+1, runs, seed+int64(i), result.Outcome,
				result.LevelsCleared, result.Kills, result.Health, result.Ticks, result.Elapsed.Round(time.Second))
			if result.Outcome == outcomeTimeout {
				failed++
			}
		}

		if failed > 0 {
			fmt.Printf("\n%d of %d runs did not finish\n", failed, runs)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Int("runs", 1, "Number of runs to execute")
	runCmd.Flags().Int64("seed", 1, "Seed of the first run (subsequent runs increment it)")
	runCmd.Flags().Int("levels", 5, "Levels needed to win a run")
	runCmd.Flags().Duration("timeout", 10*time.Minute, "Per-run wall clock limit")
	runCmd.Flags().Bool("tutorial", false, "Generate tutorial geometry on the first level")
}

const (
	outcomeWon     = "GAME_WON"
	outcomeOver    = "GAME_OVER"
	outcomeTimeout = "TIMEOUT"
)

// RunResult summarizes a finished headless run.
type RunResult struct {
	Outcome       string
	LevelsCleared int
	Kills         int
	Health        int
	Ticks         int64
	Elapsed       time.Duration
}

func executeRun(seed int64, levels int, timeout time.Duration, tutorial bool) RunResult {
	log := logger.NewLogger()
	eventLog := events.NewEventLog(nil)

	gameEngine := engine.NewEngine(eventLog, log, engine.Options{
		RunLevels: levels,
		Seed:      seed,
		Tutorial:  tutorial,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	gameEngine.Start(ctx)

	playerID := events.GenerateEventID()
	eventLog.Append(events.GameEvent{
		Type:    events.EventTypePlayerJoined,
		ActorID: playerID,
		Payload: engine.PlayerJoinedPayload{PlayerID: playerID, Name: "SIMBOT"},
	})
	gameEngine.StartRun()

	started := time.Now()
	deadline := started.Add(timeout)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		snap := gameEngine.Snapshot()

		switch snap.State {
		case engine.StateGameWon:
			return result(outcomeWon, snap, started)
		case engine.StateGameOver:
			return result(outcomeOver, snap, started)
		}

		if time.Now().After(deadline) {
			return result(outcomeTimeout, snap, started)
		}
		if snap.Player == nil {
			continue
		}

		eventLog.Append(events.GameEvent{
			Type:    events.EventTypePlayerInput,
			ActorID: playerID,
			Payload: botInput(playerID, snap),
		})
	}

	snap := gameEngine.Snapshot()
	return result(outcomeTimeout, snap, started)
}

func result(outcome string, snap engine.WorldSnapshot, started time.Time) RunResult {
	r := RunResult{
		Outcome:       outcome,
		LevelsCleared: snap.LevelsCleared,
		Ticks:         snap.Tick,
		Elapsed:       time.Since(started),
	}
	if snap.Player != nil {
		r.Kills = snap.Player.Kills
		r.Health = snap.Player.Health
	}
	return r
}

// botInput is a greedy policy: grab the nearest weapon first, then walk at
// the nearest fridge with the trigger held. When the arena is clear it heads
// for an open door to descend.
func botInput(playerID string, snap engine.WorldSnapshot) engine.PlayerInputPayload {
	p := snap.Player

	target, ok := nearestPickup(p.Position, snap)
	if p.Weapon != nil || !ok {
		target, ok = nearestFridge(p.Position, snap)
	}
	if !ok {
		// Cleared arena: wander forward through whatever door opened.
		return engine.PlayerInputPayload{PlayerID: playerID, Forward: 1, Yaw: p.Yaw}
	}

	dx := target.X - p.Position.X
	dy := target.Y - p.Position.Y
	yaw := math.Atan2(-dx, dy)

	return engine.PlayerInputPayload{
		PlayerID: playerID,
		Forward:  1,
		Yaw:      yaw,
		Fire:     p.Weapon != nil && p.Weapon.Ammo > 0,
	}
}

func nearestPickup(from geom.Vec3, snap engine.WorldSnapshot) (geom.Vec3, bool) {
	best := geom.Vec3{}
	bestDist := math.MaxFloat64
	found := false
	for _, pk := range snap.Pickups {
		d := pk.Position.Sub(from).LengthSquared()
		if d < bestDist {
			best, bestDist, found = pk.Position, d, true
		}
	}
	return best, found
}

func nearestFridge(from geom.Vec3, snap engine.WorldSnapshot) (geom.Vec3, bool) {
	best := geom.Vec3{}
	bestDist := math.MaxFloat64
	found := false
	for _, f := range snap.Fridges {
		d := f.Position.Sub(from).LengthSquared()
		if d < bestDist {
			best, bestDist, found = f.Position, d, true
		}
	}
	return best, found
}
