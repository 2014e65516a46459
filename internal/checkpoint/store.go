package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileName is the checkpoint document name inside the data dir.
const FileName = "checkpoint.json"

// Cursor is a stage-specific resume position. The shape is opaque to
// this package; stages store whatever they need to skip completed units
// (e.g. {"actor": ..., "index": ...}).
type Cursor map[string]any

// Int reads an integer cursor field. JSON numbers decode as float64,
// so stages use this instead of type-asserting themselves.
func (c Cursor) Int(key string) int {
	switch v := c[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// String reads a string cursor field; absent or mistyped fields read as
// the empty string.
func (c Cursor) String(key string) string {
	s, _ := c[key].(string)
	return s
}

// Entry is one stage's persisted state inside the document.
type Entry struct {
	Cursor    Cursor    `json:"cursor"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store reads and writes the checkpoint document.
type Store struct {
	path string
}

// NewStore creates a Store for the checkpoint document under dir.
// The file is created lazily on first Save.
func NewStore(dir string) *Store {
	return &Store{path: filepath.Join(dir, FileName)}
}

// Path returns the checkpoint file path.
func (s *Store) Path() string {
	return s.path
}

// Load returns the cursor for a stage. ok is false when the stage has
// no checkpoint; a missing document reads as empty, not as an error.
func (s *Store) Load(stage string) (Cursor, bool, error) {
	doc, err := s.read()
	if err != nil {
		return nil, false, err
	}
	entry, ok := doc[stage]
	if !ok {
		return nil, false, nil
	}
	return entry.Cursor, true, nil
}

// Save records the cursor for a stage, overwriting any previous one.
// The whole document is rewritten atomically so a crash mid-update
// never leaves a torn file.
func (s *Store) Save(stage string, cursor Cursor) error {
	doc, err := s.read()
	if err != nil {
		return err
	}
	doc[stage] = Entry{Cursor: cursor, UpdatedAt: time.Now().UTC()}
	return s.write(doc)
}

// Clear removes the stage's checkpoint. Clearing an absent stage is not
// an error.
func (s *Store) Clear(stage string) error {
	doc, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := doc[stage]; !ok {
		return nil
	}
	delete(doc, stage)
	return s.write(doc)
}

// read loads the whole document, treating a missing file as empty.
func (s *Store) read() (map[string]Entry, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return make(map[string]Entry), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read checkpoint file: %w", err)
	}

	doc := make(map[string]Entry)
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse checkpoint file %s: %w", s.path, err)
	}
	return doc, nil
}

// write rewrites the document via temp file + rename.
func (s *Store) write(doc map[string]Entry) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0750); err != nil {
		return fmt.Errorf("create checkpoint directory: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), FileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("create checkpoint temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write checkpoint temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close checkpoint temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace checkpoint file: %w", err)
	}
	return nil
}
