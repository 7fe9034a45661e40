package eventlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// columns is the fixed schema of the event store. ReadAll backfills any of
// these that an older store is missing, so the order here can grow but never
// shrink or reorder.
var columns = []string{
	"camara", "fecha", "hora", "especie",
	"x1", "y1", "x2", "y2",
	"confianza", "lat", "lon", "imagen",
}

// Record is one accepted detection as stored in the event log.
type Record struct {
	Camera     string
	Date       string // 2006-01-02
	Time       string // 15:04:05
	Species    string
	X1, Y1     int
	X2, Y2     int
	Confidence float64
	Lat        string // empty when the camera has no coordinates
	Lon        string
	ImagePath  string
}

// Log is an append-only CSV event store. A single shared instance serializes
// appends from all streaming connections.
type Log struct {
	path string
	mu   sync.Mutex
}

func New(path string) *Log {
	return &Log{path: path}
}

// Path returns the location of the underlying store.
func (l *Log) Path() string {
	return l.path
}

// Init creates the store with its header row if it does not exist yet.
func (l *Log) Init() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ensureLocked()
}

func (l *Log) ensureLocked() error {
	if _, err := os.Stat(l.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create event log directory: %w", err)
		}
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return fmt.Errorf("failed to create event log: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("failed to write event log header: %w", err)
	}
	writer.Flush()
	return writer.Error()
}

// Append writes one record to the store. The file is opened in append mode for
// each write; no handle is held between calls.
func (l *Log) Append(rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLocked(); err != nil {
		return err
	}

	file, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open event log: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(rec.row()); err != nil {
		return fmt.Errorf("failed to append event record: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush event record: %w", err)
	}
	return nil
}

func (r Record) row() []string {
	return []string{
		r.Camera,
		r.Date,
		r.Time,
		r.Species,
		fmt.Sprintf("%d", r.X1),
		fmt.Sprintf("%d", r.Y1),
		fmt.Sprintf("%d", r.X2),
		fmt.Sprintf("%d", r.Y2),
		fmt.Sprintf("%.2f", r.Confidence),
		r.Lat,
		r.Lon,
		r.ImagePath,
	}
}

// ReadAll returns every stored record as a column-name keyed map, in append
// order. The read is lenient: a missing or empty store yields an empty slice,
// rows that do not match the stored header's column count are skipped, and any
// expected column absent from the stored header is backfilled with "".
func (l *Log) ReadAll() ([]map[string]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		// empty store: header not written yet
		return []map[string]string{}, nil
	}

	records := make([]map[string]string, 0)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if _, ok := err.(*csv.ParseError); ok {
				// malformed row, skip it
				continue
			}
			return nil, fmt.Errorf("failed to read event log: %w", err)
		}
		if len(row) != len(header) {
			continue
		}

		rec := make(map[string]string, len(columns))
		for i, name := range header {
			rec[name] = row[i]
		}
		for _, name := range columns {
			if _, ok := rec[name]; !ok {
				rec[name] = ""
			}
		}
		records = append(records, rec)
	}

	return records, nil
}

// ModTime reports the store's last modification time. A missing store reports
// the zero time without an error so pollers can treat it as "no changes yet".
func (l *Log) ModTime() (time.Time, error) {
	info, err := os.Stat(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// Columns returns the expected column set in schema order.
func Columns() []string {
	out := make([]string, len(columns))
	copy(out, columns)
	return out
}
