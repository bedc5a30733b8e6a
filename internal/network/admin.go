// AdminBridge - REST API for run supervision.
//
// Spectator tools and the test harness use it to poke the simulation from
// outside: force an ambush, restart a run, read the raw world state.
package network

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/shadowcurse/fridges-must-die/server/internal/engine"
	"github.com/shadowcurse/fridges-must-die/server/internal/platform/logger"
	"github.com/shadowcurse/fridges-must-die/server/internal/platform/metrics"
	"github.com/shadowcurse/fridges-must-die/server/internal/platform/tuning"
)

// AdminBridge handles supervision requests.
type AdminBridge struct {
	engine *engine.Engine
	logger *logger.Logger
}

// NewAdminBridge creates a new supervision handler.
func NewAdminBridge(eng *engine.Engine, log *logger.Logger) *AdminBridge {
	return &AdminBridge{
		engine: eng,
		logger: log,
	}
}

// AmbushRequest is the payload for a forced fridge spawn.
type AmbushRequest struct {
	Reason  string `json:"reason"`
	AdminID string `json:"admin_id"`
}

// HandleAmbush forces the director to drop a fridge into the arena.
// POST /api/admin/ambush
func (ab *AdminBridge) HandleAmbush(w http.ResponseWriter, r *http.Request) {
	var req AmbushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ab.jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Reason == "" {
		req.Reason = "ADMIN"
	}

	if !ab.engine.TriggerAmbush(req.Reason) {
		ab.jsonError(w, "World cannot take an ambush right now", http.StatusConflict)
		return
	}

	ab.logger.Event("ADMIN_AMBUSH", req.AdminID, req.Reason)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "spawned"})
}

// HandleState returns the live world snapshot.
// GET /api/admin/state
func (ab *AdminBridge) HandleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ab.engine.Snapshot())
}

// HandleLevel returns the static geometry of the active arena.
// GET /api/admin/level
func (ab *AdminBridge) HandleLevel(w http.ResponseWriter, r *http.Request) {
	layout, ok := ab.engine.Layout()
	if !ok {
		ab.jsonError(w, "No run in progress", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(layout)
}

// HandleTuning analyzes live metrics and reports tuning recommendations.
// GET /api/admin/tuning
func (ab *AdminBridge) HandleTuning(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tuning.Analyze(metrics.Get().Snapshot()))
}

// RegisterRoutes sets up the supervision API routes.
func (ab *AdminBridge) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/admin/ambush", ab.HandleAmbush).Methods(http.MethodPost)
	router.HandleFunc("/api/admin/state", ab.HandleState).Methods(http.MethodGet)
	router.HandleFunc("/api/admin/level", ab.HandleLevel).Methods(http.MethodGet)
	router.HandleFunc("/api/admin/tuning", ab.HandleTuning).Methods(http.MethodGet)
}

// jsonError sends an error response.
func (ab *AdminBridge) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
