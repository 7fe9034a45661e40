package config

import (
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	Port                 int
	CapturesDir          string
	EventLogPath         string
	CamerasFile          string
	DatabasePath         string
	ModelPath            string
	ModelConfigPath      string
	LabelsPath           string
	ConfidenceThreshold  float64
	CooldownSeconds      int
	ReadRetryMillis      int // delay between retries after a failed camera read
	WatchIntervalSeconds int // event store mtime poll interval
	LogDirectory         string
}

func Load() *Config {
	return &Config{
		Port:                 getEnvAsInt("PORT", 8080),
		CapturesDir:          getEnv("CAPTURES_DIR", filepath.Join(".", "captures")),
		EventLogPath:         getEnv("EVENT_LOG", "registro_detectados.csv"),
		CamerasFile:          getEnv("CAMERAS_FILE", "cameras.json"),
		DatabasePath:         getEnv("DB_PATH", filepath.Join(".", "data", "detections.db")),
		ModelPath:            getEnv("MODEL_PATH", filepath.Join(".", "models", "wildlife.pb")),
		ModelConfigPath:      getEnv("MODEL_CONFIG", filepath.Join(".", "models", "wildlife.pbtxt")),
		LabelsPath:           getEnv("LABELS_PATH", filepath.Join(".", "models", "labels.txt")),
		ConfidenceThreshold:  getEnvAsFloat("CONF_THRESHOLD", 0.6),
		CooldownSeconds:      getEnvAsInt("COOLDOWN_SECONDS", 10),
		ReadRetryMillis:      getEnvAsInt("READ_RETRY_MS", 100),
		WatchIntervalSeconds: getEnvAsInt("WATCH_INTERVAL_SECONDS", 2),
		LogDirectory:         getEnv("LOG_DIR", filepath.Join(".", "logs")),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
