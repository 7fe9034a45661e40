package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"wildcam/internal/logger"
	"wildcam/internal/services/notify"
	ws "wildcam/internal/services/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SSEHandler pushes a minimal update marker whenever the event store changes.
// Consumers re-fetch the data themselves.
func SSEHandler(watcher *notify.Watcher, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		sub := watcher.Subscribe()
		defer watcher.Unsubscribe(sub)

		// initial marker so a fresh client loads current data right away
		fmt.Fprintf(w, "data: %s\n\n", notify.UpdatePayload)
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-sub:
				if _, err := fmt.Fprintf(w, "data: %s\n\n", notify.UpdatePayload); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}

// NotifyWebsocketHandler registers a websocket client with the hub; the hub
// pushes the same update markers as the SSE feed.
func NotifyWebsocketHandler(hub *ws.HubService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}
		connection.SetReadLimit(512)
		connection.SetReadDeadline(time.Now().Add(60 * time.Second))
		connection.SetPongHandler(func(appData string) error {
			connection.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})
		defer connection.Close()

		hub.Register(connection)
		defer hub.Unregister(connection)

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				return
			}
		}
	}
}
