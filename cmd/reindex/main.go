package main

import (
	"flag"
	"fmt"
	"log"
	"strconv"

	"wildcam/internal/database"
	"wildcam/internal/eventlog"
)

// reindex rebuilds the SQLite detections index from the CSV event log, for
// installations that predate the index or whose database file was lost.
func main() {
	csvPath := flag.String("events", "registro_detectados.csv", "Event log path")
	dbPath := flag.String("db", "data/detections.db", "Detections index path")
	flag.Parse()

	fmt.Printf("Rebuilding index %s from event log %s\n", *dbPath, *csvPath)

	events := eventlog.New(*csvPath)
	records, err := events.ReadAll()
	if err != nil {
		log.Fatalf("Failed to read event log: %v", err)
	}

	db, err := database.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open detections index: %v", err)
	}
	defer db.Close()

	inserted := 0
	skipped := 0
	for _, rec := range records {
		det, err := toDetection(rec)
		if err != nil {
			log.Printf("⚠️  Skipping record: %v", err)
			skipped++
			continue
		}
		if _, err := db.InsertDetection(det); err != nil {
			log.Fatalf("Failed to insert detection: %v", err)
		}
		inserted++
	}

	fmt.Printf("✅ Indexed %d detections (%d skipped)\n", inserted, skipped)
}

func toDetection(rec map[string]string) (*database.Detection, error) {
	if rec["especie"] == "" {
		return nil, fmt.Errorf("record without species")
	}

	confidence, err := strconv.ParseFloat(rec["confianza"], 64)
	if err != nil {
		confidence = 0
	}

	return &database.Detection{
		Camera:     rec["camara"],
		Date:       rec["fecha"],
		Time:       rec["hora"],
		Species:    rec["especie"],
		X1:         atoiOrZero(rec["x1"]),
		Y1:         atoiOrZero(rec["y1"]),
		X2:         atoiOrZero(rec["x2"]),
		Y2:         atoiOrZero(rec["y2"]),
		Confidence: confidence,
		Lat:        rec["lat"],
		Lon:        rec["lon"],
		ImagePath:  rec["imagen"],
	}, nil
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
