package routes

import (
	"net/http"
	"os"
	"path/filepath"

	"wildcam/internal/camera"
	"wildcam/internal/config"
	"wildcam/internal/database"
	"wildcam/internal/eventlog"
	"wildcam/internal/handlers"
	"wildcam/internal/logger"
	"wildcam/internal/services/notify"
	"wildcam/internal/services/stream"
	"wildcam/internal/services/websocket"
)

// dynamicHTMLHandler serves /path as /static/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	if path == "/" {
		path = "/index"
	}

	filePath := filepath.Join("static", path+".html")

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, filePath)
}

// SetupRoutes registers the live stream, the record/dashboard API, camera
// registry CRUD, change-notification feeds, capture and static file serving,
// and the log endpoints.
func SetupRoutes(
	cfg *config.Config,
	streamer *stream.Streamer,
	events *eventlog.Log,
	db *database.Database,
	registry *camera.Registry,
	watcher *notify.Watcher,
	hub *websocket.HubService,
	logger *logger.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))

	// Saved captures
	mux.Handle("/captures/", http.StripPrefix("/captures/", http.FileServer(http.Dir(cfg.CapturesDir))))

	// Live stream
	mux.HandleFunc("/video/", handlers.StreamHandler(streamer, logger))

	// Record and dashboard API
	mux.HandleFunc("/api/records/latest", handlers.LatestRecordsHandler(events, logger))
	mux.HandleFunc("/api/records", handlers.AllRecordsHandler(events, logger))
	mux.HandleFunc("/api/detections", handlers.DetectionsHandler(db, logger))
	mux.HandleFunc("/api/species", handlers.SpeciesHandler(db, logger))
	mux.HandleFunc("/api/stats", handlers.StatsHandler(db, logger))
	mux.HandleFunc("/api/summary", handlers.SummaryHandler(db, registry, logger))

	// Camera registry
	mux.HandleFunc("/api/cameras", handlers.ListCamerasHandler(registry))
	mux.HandleFunc("/api/cameras/save", handlers.SaveCameraHandler(registry, logger))
	mux.HandleFunc("/api/cameras/device", handlers.SetCameraDeviceHandler(registry, logger))
	mux.HandleFunc("/api/cameras/delete", handlers.DeleteCameraHandler(registry, logger))

	// Change-notification feeds
	mux.HandleFunc("/api/stream", handlers.SSEHandler(watcher, logger))
	mux.HandleFunc("/api/notify", handlers.NotifyWebsocketHandler(hub, logger))

	// Log endpoints
	mux.HandleFunc("/logs/info", handlers.ShowInfoLogsHandler(cfg))
	mux.HandleFunc("/logs/warning", handlers.ShowWarningLogsHandler(cfg))
	mux.HandleFunc("/logs/error", handlers.ShowErrorLogsHandler(cfg))

	mux.HandleFunc("/logs/info/clear", handlers.ClearInfoLogsHandler(logger))
	mux.HandleFunc("/logs/warning/clear", handlers.ClearWarningLogsHandler(logger))
	mux.HandleFunc("/logs/error/clear", handlers.ClearErrorLogsHandler(logger))

	// Automatic HTML handler mapping for example: /dashboard -> /static/dashboard.html
	mux.HandleFunc("/", dynamicHTMLHandler)

	return mux
}
