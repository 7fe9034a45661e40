package database

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleDetection(species, date, tod string) *Detection {
	return &Detection{
		Camera:     "Cam 0",
		Date:       date,
		Time:       tod,
		Species:    species,
		X1:         10,
		Y1:         20,
		X2:         110,
		Y2:         140,
		Confidence: 0.87,
		Lat:        "42.5",
		Lon:        "-3.7",
		ImagePath:  "2024/" + species + "/120000.jpg",
	}
}

func TestDatabase_CreatesFile(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "nested", "test.db")

	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file should exist")
	}
}

func TestDatabase_InsertAndQuery(t *testing.T) {
	db := newTestDB(t)

	id, err := db.InsertDetection(sampleDetection("fox", "2024-06-01", "12:00:00"))
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if id == 0 {
		t.Error("Expected non-zero insert id")
	}

	detections, err := db.GetDetections(&DetectionFilter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(detections) != 1 {
		t.Fatalf("Expected 1 detection, got %d", len(detections))
	}

	det := detections[0]
	if det.Species != "fox" || det.Camera != "Cam 0" || det.Confidence != 0.87 {
		t.Errorf("Unexpected detection: %+v", det)
	}
	if det.X1 != 10 || det.Y1 != 20 || det.X2 != 110 || det.Y2 != 140 {
		t.Errorf("Unexpected bounding box: %+v", det)
	}
}

func TestDatabase_FilterByDateAndSpecies(t *testing.T) {
	db := newTestDB(t)

	seed := []*Detection{
		sampleDetection("fox", "2024-05-30", "08:00:00"),
		sampleDetection("fox", "2024-06-01", "09:00:00"),
		sampleDetection("deer", "2024-06-01", "10:00:00"),
		sampleDetection("deer", "2024-06-02", "11:00:00"),
	}
	for _, det := range seed {
		if _, err := db.InsertDetection(det); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	tests := []struct {
		name     string
		filter   DetectionFilter
		expected int
	}{
		{"no filter", DetectionFilter{}, 4},
		{"start date", DetectionFilter{StartDate: "2024-06-01"}, 3},
		{"end date", DetectionFilter{EndDate: "2024-06-01"}, 3},
		{"date range", DetectionFilter{StartDate: "2024-06-01", EndDate: "2024-06-01"}, 2},
		{"species", DetectionFilter{Species: "deer"}, 2},
		{"species and range", DetectionFilter{Species: "deer", StartDate: "2024-06-02"}, 1},
		{"limit", DetectionFilter{Limit: 2}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detections, err := db.GetDetections(&tt.filter)
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if len(detections) != tt.expected {
				t.Errorf("Expected %d detections, got %d", tt.expected, len(detections))
			}
		})
	}
}

func TestDatabase_CountBySpecies(t *testing.T) {
	db := newTestDB(t)

	for _, species := range []string{"fox", "fox", "deer"} {
		if _, err := db.InsertDetection(sampleDetection(species, "2024-06-01", "12:00:00")); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	counts, err := db.CountBySpecies()
	if err != nil {
		t.Fatalf("CountBySpecies failed: %v", err)
	}
	if counts["fox"] != 2 || counts["deer"] != 1 {
		t.Errorf("Unexpected counts: %v", counts)
	}
}

func TestDatabase_SpeciesSorted(t *testing.T) {
	db := newTestDB(t)

	for _, species := range []string{"zorro", "ave", "jabali"} {
		if _, err := db.InsertDetection(sampleDetection(species, "2024-06-01", "12:00:00")); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	species, err := db.Species()
	if err != nil {
		t.Fatalf("Species failed: %v", err)
	}
	expected := []string{"ave", "jabali", "zorro"}
	if len(species) != len(expected) {
		t.Fatalf("Expected %d species, got %d", len(expected), len(species))
	}
	for i := range expected {
		if species[i] != expected[i] {
			t.Errorf("Species[%d] = %s, expected %s", i, species[i], expected[i])
		}
	}
}

func TestDatabase_Summary(t *testing.T) {
	db := newTestDB(t)

	summary, err := db.GetSummary()
	if err != nil {
		t.Fatalf("GetSummary failed: %v", err)
	}
	if summary.Total != 0 || summary.SpeciesCount != 0 || summary.LastDetection != "" {
		t.Errorf("Empty index should yield zero summary, got %+v", summary)
	}

	seed := []*Detection{
		sampleDetection("fox", "2024-06-01", "09:00:00"),
		sampleDetection("deer", "2024-06-02", "11:30:00"),
	}
	for _, det := range seed {
		if _, err := db.InsertDetection(det); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	summary, err = db.GetSummary()
	if err != nil {
		t.Fatalf("GetSummary failed: %v", err)
	}
	if summary.Total != 2 || summary.SpeciesCount != 2 {
		t.Errorf("Unexpected summary: %+v", summary)
	}
	if summary.LastDetection != "2024-06-02 11:30:00" {
		t.Errorf("Unexpected last detection: %s", summary.LastDetection)
	}
}
