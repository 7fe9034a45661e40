package handlers

import (
	"encoding/json"
	"net/http"

	"wildcam/internal/camera"
	"wildcam/internal/database"
	"wildcam/internal/eventlog"
	"wildcam/internal/logger"
)

const latestRecordCount = 5

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// LatestRecordsHandler returns the newest records from the event store,
// newest first.
func LatestRecordsHandler(events *eventlog.Log, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := events.ReadAll()
		if err != nil {
			logger.Error("Error reading event log: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		start := len(records) - latestRecordCount
		if start < 0 {
			start = 0
		}
		latest := make([]map[string]string, 0, latestRecordCount)
		for i := len(records) - 1; i >= start; i-- {
			latest = append(latest, records[i])
		}
		writeJSON(w, latest)
	}
}

// AllRecordsHandler returns every record from the event store in append order.
func AllRecordsHandler(events *eventlog.Log, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := events.ReadAll()
		if err != nil {
			logger.Error("Error reading event log: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, records)
	}
}

// DetectionsHandler queries the detections index with optional start/end date
// and species filters.
func DetectionsHandler(db *database.Database, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := &database.DetectionFilter{
			StartDate: q.Get("start"),
			EndDate:   q.Get("end"),
			Species:   q.Get("species"),
		}

		detections, err := db.GetDetections(filter)
		if err != nil {
			logger.Error("Error querying detections: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, detections)
	}
}

// SpeciesHandler lists the distinct species seen so far, sorted.
func SpeciesHandler(db *database.Database, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		species, err := db.Species()
		if err != nil {
			logger.Error("Error querying species: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, species)
	}
}

// StatsHandler returns detection counts per species for the dashboard.
func StatsHandler(db *database.Database, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := db.CountBySpecies()
		if err != nil {
			logger.Error("Error counting species: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, counts)
	}
}

// SummaryHandler aggregates totals plus the number of registered cameras.
func SummaryHandler(db *database.Database, registry *camera.Registry, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := db.GetSummary()
		if err != nil {
			logger.Error("Error building summary: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, struct {
			*database.Summary
			CamerasActive int `json:"cameras_active"`
		}{
			Summary:       summary,
			CamerasActive: len(registry.Load()),
		})
	}
}
