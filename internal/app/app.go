package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"wildcam/internal/camera"
	"wildcam/internal/config"
	"wildcam/internal/database"
	"wildcam/internal/eventlog"
	"wildcam/internal/logger"
	"wildcam/internal/routes"
	"wildcam/internal/services/ai"
	"wildcam/internal/services/cooldown"
	"wildcam/internal/services/notify"
	"wildcam/internal/services/storage"
	"wildcam/internal/services/stream"
	"wildcam/internal/services/websocket"
)

type App struct {
	config   *config.Config
	logger   *logger.Logger
	detector *ai.Detector
	tracker  *cooldown.Tracker
	captures *storage.CaptureStore
	events   *eventlog.Log
	db       *database.Database
	registry *camera.Registry
	hub      *websocket.HubService
	watcher  *notify.Watcher
	streamer *stream.Streamer
}

func NewApp() (*App, error) {
	cfg := config.Load()
	log := logger.NewLogger(cfg)

	events := eventlog.New(cfg.EventLogPath)
	if err := events.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize event log: %w", err)
	}

	registry := camera.NewRegistry(cfg.CamerasFile)
	if err := registry.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize camera registry: %w", err)
	}

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open detections index: %w", err)
	}

	detector := ai.NewDetector(cfg, log)
	tracker := cooldown.NewTracker(time.Duration(cfg.CooldownSeconds) * time.Second)
	captures := storage.NewCaptureStore(cfg.CapturesDir)
	hub := websocket.NewHubService(log)
	watcher := notify.NewWatcher(events, time.Duration(cfg.WatchIntervalSeconds)*time.Second, hub, log)

	streamer := stream.NewStreamer(cfg, detector, tracker, captures, events, db, registry, log)

	return &App{
		config:   cfg,
		logger:   log,
		detector: detector,
		tracker:  tracker,
		captures: captures,
		events:   events,
		db:       db,
		registry: registry,
		hub:      hub,
		watcher:  watcher,
		streamer: streamer,
	}, nil
}

func (a *App) Run() error {
	defer a.db.Close()
	defer a.detector.Close()

	// Start background services
	go a.hub.Run()
	go a.watcher.Run(context.Background())

	router := routes.SetupRoutes(a.config, a.streamer, a.events, a.db, a.registry, a.watcher, a.hub, a.logger)

	a.logger.Info("🦊 Wildlife Camera Server")
	a.logger.Info("📍 URL: http://localhost:%d", a.config.Port)
	a.logger.Info("📁 Captures: %s", a.config.CapturesDir)
	a.logger.Info("📄 Event log: %s", a.config.EventLogPath)
	if a.detector.Ready() {
		a.logger.Info("🤖 Model: %s", a.config.ModelPath)
	} else {
		a.logger.Warning("🤖 Model unavailable, streaming without inference")
	}

	return http.ListenAndServe(fmt.Sprintf(":%d", a.config.Port), router)
}
