// Package main is the entry point for the "Fridges must die" game server.
// It only handles dependency injection and server initialization.
// NO business logic belongs here.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/shadowcurse/fridges-must-die/server/internal/engine"
	"github.com/shadowcurse/fridges-must-die/server/internal/events"
	"github.com/shadowcurse/fridges-must-die/server/internal/infra/storage"
	"github.com/shadowcurse/fridges-must-die/server/internal/network"
	"github.com/shadowcurse/fridges-must-die/server/internal/platform/config"
	"github.com/shadowcurse/fridges-must-die/server/internal/platform/logger"
	"github.com/shadowcurse/fridges-must-die/server/internal/platform/metrics"
	"github.com/shadowcurse/fridges-must-die/server/internal/platform/tuning"
)

// PersisterAdapter translates domain events to storage events.
type PersisterAdapter struct {
	repo  storage.EventRepository
	runID string
}

func (a *PersisterAdapter) Append(event events.GameEvent) error {
	payloadBytes, _ := json.Marshal(event.Payload)
	var payloadMap map[string]interface{}
	json.Unmarshal(payloadBytes, &payloadMap)

	storageEvent := storage.GameEvent{
		ID:        event.ID,
		RunID:     a.runID,
		Timestamp: event.Timestamp,
		EventType: string(event.Type),
		ActorID:   event.ActorID,
		TargetID:  event.TargetID,
		Payload:   payloadMap,
		Tick:      event.Tick,
		Depth:     event.Depth,
	}

	started := time.Now()
	err := a.repo.Append(context.Background(), storageEvent)
	metrics.Get().RecordEventWrite(time.Since(started), err)
	return err
}

func openEventRepository(cfg config.Server, appLogger *logger.Logger) (storage.EventRepository, *sql.DB, error) {
	switch cfg.StorageDriver {
	case "postgres":
		appLogger.Info("Initializing PostgreSQL event ledger...")
		db, err := storage.InitPostgres(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewPostgresEventRepository(db), db, nil
	default:
		appLogger.Info("Initializing SQLite database '" + cfg.SQLitePath + "'...")
		db, err := storage.InitSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewSQLiteEventRepository(db), db, nil
	}
}

// reconcileInterruptedRun repairs the headline row of a run that was still
// in flight when the previous process died. The snapshot ticker may be up to
// SnapshotEvery behind the ledger, so the row is rebuilt from the events and
// the run is closed out as abandoned.
func reconcileInterruptedRun(eventRepo storage.EventRepository, runRepo *storage.SQLiteRunRepository, appLogger *logger.Logger) {
	ctx := context.Background()

	runs, err := runRepo.List(ctx)
	if err != nil || len(runs) == 0 {
		return
	}
	last := runs[0]
	if last.State != "IN_GAME" && last.State != "PAUSED" {
		return
	}

	rebuilt, err := storage.NewReconstructor(eventRepo).RebuildRun(ctx, last.RunID)
	if err != nil || rebuilt == nil {
		appLogger.Warn("Interrupted run " + last.RunID + " has no ledger, leaving it as-is")
		return
	}

	rebuilt.State = "ABANDONED"
	if err := runRepo.Upsert(ctx, *rebuilt); err != nil {
		appLogger.Error("Failed to archive interrupted run " + last.RunID + ": " + err.Error())
		return
	}
	appLogger.Event("RUN_RECONCILED", "SYSTEM_STORAGE",
		last.RunID+" Kills:"+strconv.Itoa(rebuilt.Kills)+" Depth:"+strconv.Itoa(rebuilt.Depth))
}

func main() {
	log.Println("[FRIDGE-SERVER] Initializing 'Fridges must die' Authoritative Server...")

	appLogger := logger.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		appLogger.Error("Failed to load configuration: " + err.Error())
		os.Exit(1)
	}

	balance, err := config.LoadBalance(cfg.BalancePath)
	if err != nil {
		appLogger.Error("Failed to load balance file: " + err.Error())
		os.Exit(1)
	}

	profile := tuning.ForName(cfg.Profile)

	eventRepo, db, err := openEventRepository(cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to initialize storage: " + err.Error())
		os.Exit(1)
	}
	defer db.Close()
	db.SetMaxOpenConns(profile.DBMaxOpenConns)
	db.SetMaxIdleConns(profile.DBMaxIdleConns)

	var runRepo *storage.SQLiteRunRepository
	if cfg.StorageDriver != "postgres" {
		runRepo = storage.NewSQLiteRunRepository(db)
		reconcileInterruptedRun(eventRepo, runRepo, appLogger)
	}

	runID := "RUN_" + events.GenerateEventID()
	eventPersister := &PersisterAdapter{repo: eventRepo, runID: runID}

	appLogger.Info("Bootstrapping EventLog...")
	eventLog := events.NewEventLog(eventPersister)

	appLogger.Info("Bootstrapping Engine Subsystems...")
	gameEngine := engine.NewEngine(eventLog, appLogger, engine.Options{
		RunLevels:   cfg.RunLevels,
		Seed:        cfg.Seed,
		Tutorial:    cfg.Tutorial,
		WeaponSpecs: balance.WeaponSpecs(),
		EnemySpec:   balance.EnemySpec(),
		LevelParams: balance.LevelParams(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gameEngine.Start(ctx)

	// Automated run snapshot backup routine. SQLite carries the run table;
	// postgres deployments keep only the ledger.
	if runRepo != nil {
		go func() {
			backupTicker := time.NewTicker(cfg.SnapshotEvery)
			defer backupTicker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-backupTicker.C:
					snap := gameEngine.Snapshot()
					runSnap := storage.RunSnapshot{
						RunID:         runID,
						State:         string(snap.State),
						Seed:          cfg.Seed,
						Depth:         snap.Depth,
						LevelsCleared: snap.LevelsCleared,
					}
					if snap.Player != nil {
						runSnap.PlayerID = snap.Player.ID
						runSnap.PlayerName = snap.Player.Name
						runSnap.Kills = snap.Player.Kills
						runSnap.Health = snap.Player.Health
					}
					_ = runRepo.Upsert(ctx, runSnap)
				}
			}
		}()
	}

	appLogger.Info("Bootstrapping WebSocket Hub...")
	hub := network.NewHub(gameEngine, appLogger, profile)
	go hub.Run(ctx)
	hub.StartEventPoller(ctx, eventLog)
	hub.StartSnapshotBroadcaster(ctx)

	// Setup API routes
	router := mux.NewRouter()
	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		if hub.ClientCount() >= profile.MaxClients {
			http.Error(w, "too many clients", http.StatusServiceUnavailable)
			return
		}
		serveWs(hub, w, r, appLogger)
	})

	network.NewReplayHandler(eventLog, appLogger).RegisterRoutes(router)
	network.NewAdminBridge(gameEngine, appLogger).RegisterRoutes(router)

	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	router.Handle("/metrics/prometheus", metrics.PrometheusHandler()).Methods(http.MethodGet)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: router,
	}

	go func() {
		log.Printf("[FRIDGE-SERVER] HTTP API & WS Server listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	log.Println("[FRIDGE-SERVER] Server running. Press Ctrl+C to exit.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[FRIDGE-SERVER] Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow cross-origin requests from the game client
	},
}

// serveWs handles websocket requests from the peer.
func serveWs(hub *network.Hub, w http.ResponseWriter, r *http.Request, log *logger.Logger) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("Failed to upgrade websocket connection")
		return
	}

	client := network.NewClient(hub, conn)
	client.Register()

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.WritePump()
	go client.ReadPump()
}
