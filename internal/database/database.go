package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// Detection is one accepted detection in the query index. Date and Time are
// stored as text in the same format as the event log so filters compare the
// same values the log holds.
type Detection struct {
	ID         int64   `json:"id"`
	Camera     string  `json:"camara"`
	Date       string  `json:"fecha"`
	Time       string  `json:"hora"`
	Species    string  `json:"especie"`
	X1         int     `json:"x1"`
	Y1         int     `json:"y1"`
	X2         int     `json:"x2"`
	Y2         int     `json:"y2"`
	Confidence float64 `json:"confianza"`
	Lat        string  `json:"lat"`
	Lon        string  `json:"lon"`
	ImagePath  string  `json:"imagen"`
}

// DetectionFilter narrows queries over the index. Zero values mean "no
// constraint".
type DetectionFilter struct {
	StartDate string // inclusive, 2006-01-02
	EndDate   string // inclusive
	Species   string
	Limit     int
}

// Summary aggregates the index for the dashboard.
type Summary struct {
	Total         int    `json:"total"`
	SpeciesCount  int    `json:"species_count"`
	LastDetection string `json:"last_detection,omitempty"`
}

// Database is the SQLite-backed query index over accepted detections. The
// append-only CSV event log stays the record of truth; this index serves the
// filtered dashboard queries.
type Database struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates and initializes the detections index.
func New(dbPath string) (*Database, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	database := &Database{db: db}

	if err := database.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return database, nil
}

// migrate creates the necessary tables if they don't exist.
func (d *Database) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS detections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		camera TEXT NOT NULL,
		date TEXT NOT NULL,
		time TEXT NOT NULL,
		species TEXT NOT NULL,
		x1 INTEGER DEFAULT 0,
		y1 INTEGER DEFAULT 0,
		x2 INTEGER DEFAULT 0,
		y2 INTEGER DEFAULT 0,
		confidence REAL DEFAULT 0,
		lat TEXT DEFAULT '',
		lon TEXT DEFAULT '',
		image_path TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_detections_species ON detections(species);
	CREATE INDEX IF NOT EXISTS idx_detections_date ON detections(date, time);
	`

	_, err := d.db.Exec(schema)
	return err
}

// InsertDetection adds an accepted detection to the index.
func (d *Database) InsertDetection(det *Detection) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	result, err := d.db.Exec(`
		INSERT INTO detections (camera, date, time, species, x1, y1, x2, y2, confidence, lat, lon, image_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, det.Camera, det.Date, det.Time, det.Species, det.X1, det.Y1, det.X2, det.Y2, det.Confidence, det.Lat, det.Lon, det.ImagePath)
	if err != nil {
		return 0, fmt.Errorf("failed to insert detection: %w", err)
	}

	return result.LastInsertId()
}

// GetDetections retrieves detections matching the filter, oldest first.
func (d *Database) GetDetections(filter *DetectionFilter) ([]Detection, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	query := `
		SELECT id, camera, date, time, species, x1, y1, x2, y2, confidence, lat, lon, image_path
		FROM detections
		WHERE 1=1
	`
	args := []interface{}{}

	if filter.StartDate != "" {
		query += " AND date >= ?"
		args = append(args, filter.StartDate)
	}
	if filter.EndDate != "" {
		query += " AND date <= ?"
		args = append(args, filter.EndDate)
	}
	if filter.Species != "" {
		query += " AND species = ?"
		args = append(args, filter.Species)
	}

	query += " ORDER BY date, time, id"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query detections: %w", err)
	}
	defer rows.Close()

	detections := make([]Detection, 0)
	for rows.Next() {
		var det Detection
		if err := rows.Scan(&det.ID, &det.Camera, &det.Date, &det.Time, &det.Species,
			&det.X1, &det.Y1, &det.X2, &det.Y2, &det.Confidence,
			&det.Lat, &det.Lon, &det.ImagePath); err != nil {
			return nil, fmt.Errorf("failed to scan detection: %w", err)
		}
		detections = append(detections, det)
	}

	return detections, rows.Err()
}

// CountBySpecies returns the number of accepted detections per species.
func (d *Database) CountBySpecies() (map[string]int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.db.Query(`SELECT species, COUNT(*) FROM detections GROUP BY species`)
	if err != nil {
		return nil, fmt.Errorf("failed to count species: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var species string
		var count int
		if err := rows.Scan(&species, &count); err != nil {
			return nil, fmt.Errorf("failed to scan species count: %w", err)
		}
		counts[species] = count
	}

	return counts, rows.Err()
}

// Species lists the distinct species seen, sorted alphabetically.
func (d *Database) Species() ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.db.Query(`SELECT DISTINCT species FROM detections ORDER BY species`)
	if err != nil {
		return nil, fmt.Errorf("failed to query species: %w", err)
	}
	defer rows.Close()

	species := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan species: %w", err)
		}
		species = append(species, name)
	}

	return species, rows.Err()
}

// GetSummary aggregates totals for the dashboard.
func (d *Database) GetSummary() (*Summary, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	summary := &Summary{}
	if err := d.db.QueryRow(`SELECT COUNT(*), COUNT(DISTINCT species) FROM detections`).
		Scan(&summary.Total, &summary.SpeciesCount); err != nil {
		return nil, fmt.Errorf("failed to query summary: %w", err)
	}

	var date, tod sql.NullString
	err := d.db.QueryRow(`SELECT date, time FROM detections ORDER BY date DESC, time DESC, id DESC LIMIT 1`).
		Scan(&date, &tod)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to query last detection: %w", err)
	}
	if date.Valid {
		summary.LastDetection = date.String + " " + tod.String
	}

	return summary, nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}
