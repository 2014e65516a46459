package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/hfcj478/Crawl-DB/internal/fetch"
)

// Traversal walks one paginated listing and accumulates the records it
// extracts. The record type is whatever the stage harvests; the stage
// supplies the extraction and pagination functions for its page layout.
type Traversal[T any] struct {
	// Fetcher retrieves each page.
	Fetcher fetch.Fetcher

	// Extract parses the records out of one page.
	Extract func(content []byte) ([]T, error)

	// Next returns the absolute URL of the following page, or the empty
	// string on the last page.
	Next func(content []byte) (string, error)

	// Key returns the identity of a record for the early-stop check.
	Key func(record T) string

	// DelayMin and DelayMax bound the politeness sleep between pages.
	DelayMin time.Duration
	DelayMax time.Duration

	// EarlyStop cuts the walk short at the first record whose key is
	// already known. It presumes the listing is ordered newest first;
	// with that ordering, a known record means every later page holds
	// only known records too.
	EarlyStop bool

	Logger *slog.Logger
}

// Walk fetches pages from startURL until the listing ends, the early
// stop triggers, or the context is canceled. It returns the extracted
// records in page order, truncated at the first known key when early
// stop is on. Fetch and extract errors abort the walk; the caller
// decides whether that fails the unit or the whole stage.
func (t *Traversal[T]) Walk(ctx context.Context, startURL string, known map[string]struct{}) ([]T, error) {
	var records []T

	visited := make(map[string]struct{})
	pageURL := startURL

	for pageURL != "" {
		if _, ok := visited[pageURL]; ok {
			// Defective pagination that links back to an earlier page
			// would otherwise loop forever.
			t.Logger.Warn("pagination revisits a page, stopping walk", "url", pageURL)
			break
		}
		visited[pageURL] = struct{}{}

		content, err := t.Fetcher.Fetch(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("fetch page %s: %w", pageURL, err)
		}

		pageRecords, err := t.Extract(content)
		if err != nil {
			return nil, fmt.Errorf("extract records from %s: %w", pageURL, err)
		}

		for _, record := range pageRecords {
			if t.EarlyStop {
				if _, ok := known[t.Key(record)]; ok {
					t.Logger.Debug("known record reached, stopping walk",
						"key", t.Key(record), "url", pageURL)
					return records, nil
				}
			}
			records = append(records, record)
		}

		next, err := t.Next(content)
		if err != nil {
			return nil, fmt.Errorf("find next page after %s: %w", pageURL, err)
		}
		if next == "" || next == pageURL {
			break
		}
		pageURL = next

		if err := sleepJitter(ctx, t.DelayMin, t.DelayMax); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// sleepJitter blocks for a random duration between min and max, or
// until the context is canceled.
func sleepJitter(ctx context.Context, min, max time.Duration) error {
	delay := min
	if span := max - min; span > 0 {
		delay += rand.N(span)
	}
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
