package selector

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hfcj478/Crawl-DB/internal/database"
)

// Writer maintains one pick file per actor under a picks directory.
// Files are append-only: reruns add picks for newly harvested works
// and never rewrite or reorder what a torrent client may already have
// consumed.
type Writer struct {
	dir    string
	logger *slog.Logger
}

// NewWriter creates a Writer rooted at dir.
func NewWriter(dir string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{dir: dir, logger: logger}
}

// Summary aggregates one Write pass.
type Summary struct {
	// Actors is the number of actors with at least one pick.
	Actors int
	// Picked is the number of works that yielded a pick.
	Picked int
	// Skipped is the number of works whose candidates all lacked a
	// parseable size.
	Skipped int
	// Appended is the number of pick lines newly added to files.
	Appended int
}

// Write picks the best magnet of every work and appends the new ones
// to the owning actor's file. The input keeps the catalog's ordering,
// so lines land sorted by work code on first write.
func (w *Writer) Write(groups []database.ActorMagnets) (Summary, error) {
	var sum Summary

	if len(groups) == 0 {
		return sum, nil
	}
	if err := os.MkdirAll(w.dir, 0750); err != nil {
		return sum, fmt.Errorf("create picks directory: %w", err)
	}

	for _, group := range groups {
		var lines []string
		for _, work := range group.Works {
			best, ok := Best(work.Magnets)
			if !ok {
				sum.Skipped++
				w.logger.Debug("no qualifying magnet", "work", work.Work.Code)
				continue
			}
			sum.Picked++
			lines = append(lines, best.URI)
		}
		if len(lines) == 0 {
			continue
		}
		sum.Actors++

		appended, err := w.appendNew(pickFileName(group.Actor.Name), lines)
		if err != nil {
			return sum, err
		}
		sum.Appended += appended
	}
	return sum, nil
}

// appendNew appends the lines not already present in the actor's file
// and returns how many it added.
func (w *Writer) appendNew(name string, lines []string) (int, error) {
	path := filepath.Join(w.dir, name)

	existing, err := readLines(path)
	if err != nil {
		return 0, err
	}

	var fresh []string
	for _, line := range lines {
		if _, ok := existing[line]; ok {
			continue
		}
		existing[line] = struct{}{}
		fresh = append(fresh, line)
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
	if err != nil {
		return 0, fmt.Errorf("open pick file: %w", err)
	}
	defer f.Close()

	for _, line := range fresh {
		if _, err := fmt.Fprintln(f, line); err != nil {
			return 0, fmt.Errorf("append to pick file %s: %w", path, err)
		}
	}
	return len(fresh), nil
}

// readLines returns the set of non-empty lines in a pick file; a
// missing file reads as empty.
func readLines(path string) (map[string]struct{}, error) {
	lines := make(map[string]struct{})

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return lines, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read pick file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines[line] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan pick file %s: %w", path, err)
	}
	return lines, nil
}

// pickFileName maps an actor name onto a safe file name. Separators
// would otherwise escape the picks directory.
func pickFileName(actor string) string {
	safe := strings.NewReplacer("/", "_", string(filepath.Separator), "_").Replace(actor)
	return safe + ".txt"
}
