// Package tuning provides concurrency profiles for different load shapes.
// A single player drives the simulation, but spectator sockets and the
// event firehose scale independently of them.
package tuning

import (
	"runtime"
)

// Profile holds tuned parameters for one load scenario.
type Profile struct {
	// Channel buffer sizes
	BroadcastBuffer  int
	ClientSendBuffer int

	// Connection pools
	DBMaxOpenConns int
	DBMaxIdleConns int

	// Socket limits
	MaxClients int
}

// Default returns sensible production settings.
func Default() *Profile {
	numCPU := runtime.NumCPU()

	return &Profile{
		BroadcastBuffer:  256, // Absorb event bursts on level switches
		ClientSendBuffer: 64,  // Per WebSocket

		DBMaxOpenConns: numCPU * 2,
		DBMaxIdleConns: numCPU,

		MaxClients: 200,
	}
}

// StressTest returns aggressive settings for agitator runs.
func StressTest() *Profile {
	numCPU := runtime.NumCPU()

	return &Profile{
		BroadcastBuffer:  1024,
		ClientSendBuffer: 128,

		DBMaxOpenConns: numCPU * 4,
		DBMaxIdleConns: numCPU * 2,

		MaxClients: 500,
	}
}

// LowResource returns minimal settings for development.
func LowResource() *Profile {
	return &Profile{
		BroadcastBuffer:  16,
		ClientSendBuffer: 8,

		DBMaxOpenConns: 5,
		DBMaxIdleConns: 2,

		MaxClients: 20,
	}
}

// ForName maps a config value to a profile. Unknown names fall back to the
// default profile.
func ForName(name string) *Profile {
	switch name {
	case "stress":
		return StressTest()
	case "low":
		return LowResource()
	default:
		return Default()
	}
}

// Recommendations provides suggestions based on observed metrics.
type Recommendations struct {
	IncreaseBroadcastBuffer bool
	IncreaseDBConnections   bool
	ReduceSnapshotRate      bool
	Notes                   []string
}

// Analyze examines a metrics snapshot and returns tuning recommendations.
func Analyze(snapshot map[string]interface{}) *Recommendations {
	rec := &Recommendations{
		Notes: make([]string, 0),
	}

	if tick, ok := snapshot["tick"].(map[string]interface{}); ok {
		if maxLat, ok := tick["max_latency_ms"].(float64); ok && maxLat > 50 {
			rec.ReduceSnapshotRate = true
			rec.Notes = append(rec.Notes, "Tick latency exceeds the 50ms budget, reduce snapshot rate or spectator count")
		}
	}

	if ws, ok := snapshot["websocket"].(map[string]interface{}); ok {
		if errs, ok := ws["errors"].(int64); ok && errs > 0 {
			rec.IncreaseBroadcastBuffer = true
			rec.Notes = append(rec.Notes, "WebSocket errors observed, slow consumers are being dropped")
		}
	}

	if ev, ok := snapshot["events"].(map[string]interface{}); ok {
		if errs, ok := ev["errors"].(int64); ok && errs > 0 {
			rec.IncreaseDBConnections = true
			rec.Notes = append(rec.Notes, "Event writes are failing, check the storage backend and pool size")
		}
	}

	if len(rec.Notes) == 0 {
		rec.Notes = append(rec.Notes, "All metrics within budget")
	}

	return rec
}
