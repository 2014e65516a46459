package checkpoint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// HistoryFileName is the history log name inside the data dir.
const HistoryFileName = "history.jsonl"

// HistoryRecord is one completed stage run: a timestamp plus the run's
// aggregate counters. Records are append-only and never read back by
// the crawl itself.
type HistoryRecord struct {
	Stage    string         `json:"stage"`
	At       time.Time      `json:"at"`
	Counters map[string]int `json:"counters"`
}

// History appends completed-run records to the history log, one JSON
// object per line.
type History struct {
	path string
}

// NewHistory creates a History writing under dir.
func NewHistory(dir string) *History {
	return &History{path: filepath.Join(dir, HistoryFileName)}
}

// Path returns the history file path.
func (h *History) Path() string {
	return h.path
}

// Append adds one record for a completed stage run.
func (h *History) Append(stage string, counters map[string]int) error {
	if err := os.MkdirAll(filepath.Dir(h.path), 0750); err != nil {
		return fmt.Errorf("create history directory: %w", err)
	}

	record := HistoryRecord{Stage: stage, At: time.Now().UTC(), Counters: counters}
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode history record: %w", err)
	}

	f, err := os.OpenFile(h.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
	if err != nil {
		return fmt.Errorf("open history file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append history record: %w", err)
	}
	return nil
}

// Records reads all history records, oldest first. The crawl never
// calls this; it exists for the report command and tests.
func (h *History) Records() ([]HistoryRecord, error) {
	data, err := os.ReadFile(h.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history file: %w", err)
	}

	var records []HistoryRecord
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var r HistoryRecord
		if err := dec.Decode(&r); err != nil {
			return nil, fmt.Errorf("parse history file %s: %w", h.path, err)
		}
		records = append(records, r)
	}
	return records, nil
}
