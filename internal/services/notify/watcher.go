package notify

import (
	"context"
	"sync"
	"time"

	"wildcam/internal/eventlog"
	"wildcam/internal/logger"
)

// UpdatePayload is the change marker pushed to consumers. It carries no data;
// consumers re-fetch what they need.
var UpdatePayload = []byte(`{"type":"update"}`)

// Broadcaster fans a message out to a set of connected clients.
type Broadcaster interface {
	Broadcast(message []byte)
}

// Watcher polls the event store's modification time and signals subscribers
// whenever it changes. It backs both the SSE feed and the websocket hub.
type Watcher struct {
	log      *eventlog.Log
	interval time.Duration
	hub      Broadcaster
	logger   *logger.Logger

	mu          sync.Mutex
	subscribers map[chan struct{}]bool
}

func NewWatcher(log *eventlog.Log, interval time.Duration, hub Broadcaster, logger *logger.Logger) *Watcher {
	return &Watcher{
		log:         log,
		interval:    interval,
		hub:         hub,
		logger:      logger,
		subscribers: make(map[chan struct{}]bool),
	}
}

// Run polls until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var lastMtime time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			mtime, err := w.log.ModTime()
			if err != nil {
				w.logger.Warning("Failed to stat event log: %v", err)
				continue
			}
			if mtime.Equal(lastMtime) {
				continue
			}
			lastMtime = mtime
			w.notify()
		}
	}
}

func (w *Watcher) notify() {
	if w.hub != nil {
		w.hub.Broadcast(UpdatePayload)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for ch := range w.subscribers {
		select {
		case ch <- struct{}{}:
		default:
			// subscriber has not drained the previous signal yet
		}
	}
}

// Subscribe registers a change-signal channel for an SSE connection.
func (w *Watcher) Subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.subscribers[ch] = true
	return ch
}

// Unsubscribe removes a previously subscribed channel.
func (w *Watcher) Unsubscribe(ch chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.subscribers, ch)
}
