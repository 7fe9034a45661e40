package handlers

import (
	"net/http"
	"strings"

	"wildcam/internal/logger"
	"wildcam/internal/services/stream"
)

// StreamHandler serves the live MJPEG stream for one camera. The response
// stays open until the viewer disconnects; only a device-open failure ends it
// early.
func StreamHandler(streamer *stream.Streamer, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		camID := strings.TrimPrefix(r.URL.Path, "/video/")
		if camID == "" || strings.Contains(camID, "/") {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", stream.ContentType)
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		if err := streamer.ServeCamera(r.Context(), w, camID); err != nil {
			logger.Error("Stream for camera %q ended: %v", camID, err)
			http.Error(w, "Camera unavailable", http.StatusServiceUnavailable)
		}
	}
}
