package logger

import (
	"os"
	"path/filepath"
	"testing"

	"wildcam/internal/config"
)

func TestCleanLogs_TruncatesFile(t *testing.T) {
	dir := t.TempDir()
	log := NewLogger(&config.Config{LogDirectory: dir})

	log.Info("something worth clearing")

	infoPath := filepath.Join(dir, "info.log")
	before, err := os.Stat(infoPath)
	if err != nil {
		t.Fatalf("Failed to stat info log: %v", err)
	}
	if before.Size() == 0 {
		t.Fatal("Expected info log to have content before clearing")
	}

	log.CleanLogs("info.log")

	after, err := os.Stat(infoPath)
	if err != nil {
		t.Fatalf("Failed to stat info log after clear: %v", err)
	}
	if after.Size() != 0 {
		t.Errorf("Expected empty info log after clear, got %d bytes", after.Size())
	}
}

func TestCleanLogs_MissingFile(t *testing.T) {
	dir := t.TempDir()
	log := NewLogger(&config.Config{LogDirectory: dir})

	log.CleanLogs("no-such.log")

	if _, err := os.Stat(filepath.Join(dir, "no-such.log")); !os.IsNotExist(err) {
		t.Error("Clearing a missing log file must not create it")
	}
}
