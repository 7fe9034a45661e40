package notify

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"wildcam/internal/config"
	"wildcam/internal/eventlog"
	"wildcam/internal/logger"
)

type recordingBroadcaster struct {
	mu       sync.Mutex
	messages [][]byte
}

func (b *recordingBroadcaster) Broadcast(message []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, message)
}

func (b *recordingBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.messages)
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return logger.NewLogger(&config.Config{LogDirectory: t.TempDir()})
}

func TestWatcher_SignalsOnStoreChange(t *testing.T) {
	log := eventlog.New(filepath.Join(t.TempDir(), "events.csv"))
	hub := &recordingBroadcaster{}
	watcher := NewWatcher(log, 10*time.Millisecond, hub, newTestLogger(t))

	sub := watcher.Subscribe()
	defer watcher.Unsubscribe(sub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watcher.Run(ctx)

	// store does not exist yet: no signal expected
	time.Sleep(50 * time.Millisecond)
	if hub.count() != 0 {
		t.Fatalf("Expected no broadcast before the store exists, got %d", hub.count())
	}

	if err := log.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	select {
	case <-sub:
	case <-time.After(time.Second):
		t.Fatal("Expected a change signal after the store was created")
	}

	if hub.count() == 0 {
		t.Error("Expected the hub to receive the update payload")
	}
}

func TestWatcher_NoSignalWithoutChange(t *testing.T) {
	log := eventlog.New(filepath.Join(t.TempDir(), "events.csv"))
	if err := log.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	hub := &recordingBroadcaster{}
	watcher := NewWatcher(log, 10*time.Millisecond, hub, newTestLogger(t))
	sub := watcher.Subscribe()
	defer watcher.Unsubscribe(sub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watcher.Run(ctx)

	// first poll notices the existing file (mtime moves from zero)
	select {
	case <-sub:
	case <-time.After(time.Second):
		t.Fatal("Expected the initial change signal")
	}

	// no further writes: no further signals
	time.Sleep(100 * time.Millisecond)
	select {
	case <-sub:
		t.Error("Unexpected signal without a store change")
	default:
	}
}
