package report

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/hfcj478/Crawl-DB/internal/checkpoint"
	"github.com/hfcj478/Crawl-DB/internal/database"
	"github.com/hfcj478/Crawl-DB/internal/model"
)

// createTestSummary creates a summary with sample data for testing.
func createTestSummary() *Summary {
	return &Summary{
		GeneratedAt:  time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		TotalActors:  2,
		TotalWorks:   3,
		TotalMagnets: 5,
		Actors: []ActorSummary{
			{Name: "Alice", Works: 2, Magnets: 4, Picked: 2},
			{Name: "Beth", Works: 1, Magnets: 1, Picked: 0},
		},
		RecentRuns: []checkpoint.HistoryRecord{
			{
				Stage:    "actor_works",
				At:       time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
				Counters: map[string]int{"actors": 2, "works_total": 3},
			},
		},
	}
}

// TestSimpleWriter tests the human-readable summary writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header and totals", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestSummary()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "CATALOG SUMMARY") {
			t.Error("expected output to contain header")
		}
		if !strings.Contains(output, "Actors: 2  Works: 3  Magnets: 5") {
			t.Error("expected output to contain totals")
		}
	})

	t.Run("writes counters in stable order", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestSummary()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "actors=2 works_total=3") {
			t.Errorf("expected sorted counters, got:\n%s", buf.String())
		}
	})

	t.Run("hides actors without works by default", func(t *testing.T) {
		t.Parallel()

		summary := createTestSummary()
		summary.Actors = append(summary.Actors, ActorSummary{Name: "Cara"})

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(summary); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), "Cara") {
			t.Error("actor without works shown without WithShowEmpty")
		}

		buf.Reset()
		if _, err := NewSimpleWriter(&buf, WithShowEmpty(true)).Write(summary); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "Cara") {
			t.Error("actor without works hidden despite WithShowEmpty")
		}
	})
}

// TestJSONWriter tests the machine-readable summary writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes valid JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestSummary()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded Summary
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if decoded.TotalMagnets != 5 {
			t.Errorf("total_magnets = %d, want 5", decoded.TotalMagnets)
		}
	})

	t.Run("pretty print indents output", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createTestSummary()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"") {
			t.Error("expected indented JSON output")
		}
	})
}

// TestMarkdownWriter tests the markdown summary writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(createTestSummary()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	for _, want := range []string{"# Catalog Summary", "## Actors", "## Recent Runs", "Alice", "mermaid"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected markdown output to contain %q", want)
		}
	}
}

// TestMultiWriter tests fan-out to several writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var text, md bytes.Buffer
	w := NewMultiWriter(NewSimpleWriter(&text), NewMarkdownWriter(&md))
	if _, err := w.Write(createTestSummary()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text.Len() == 0 || md.Len() == 0 {
		t.Error("expected both writers to receive output")
	}
}

// TestBuildSummary tests assembling a summary from a real catalog.
func TestBuildSummary(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()

	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	actorID, err := db.UpsertActor(ctx, "Alice", "https://example.test/actors/alice")
	if err != nil {
		t.Fatalf("failed to seed actor: %v", err)
	}
	works := []model.Work{{Code: "AAA-111", Title: "First", Href: "https://example.test/v/aaa"}}
	if _, err := db.UpsertWorks(ctx, actorID, works); err != nil {
		t.Fatalf("failed to seed works: %v", err)
	}
	group, err := db.WorksByActor(ctx)
	if err != nil || len(group) != 1 {
		t.Fatalf("failed to read back works: %v", err)
	}
	magnets := []model.Magnet{
		{URI: "magnet:?xt=urn:btih:aaa", SizeText: "4.2GB", Tags: []string{"字幕"}},
		{URI: "magnet:?xt=urn:btih:bbb", SizeText: "no size"},
	}
	if _, err := db.ReplaceMagnets(ctx, group[0].Works[0].ID, magnets); err != nil {
		t.Fatalf("failed to seed magnets: %v", err)
	}

	history := checkpoint.NewHistory(dir)
	if err := history.Append("collect_actors", map[string]int{"actors": 1}); err != nil {
		t.Fatalf("failed to seed history: %v", err)
	}

	summary, err := BuildSummary(ctx, db, history)
	if err != nil {
		t.Fatalf("BuildSummary failed: %v", err)
	}

	if summary.TotalActors != 1 || summary.TotalWorks != 1 || summary.TotalMagnets != 2 {
		t.Errorf("totals = %d/%d/%d, want 1/1/2",
			summary.TotalActors, summary.TotalWorks, summary.TotalMagnets)
	}
	if len(summary.Actors) != 1 {
		t.Fatalf("actors = %+v, want one entry", summary.Actors)
	}
	actor := summary.Actors[0]
	if actor.Name != "Alice" || actor.Works != 1 || actor.Magnets != 2 || actor.Picked != 1 {
		t.Errorf("actor summary = %+v, want Alice 1/2/1", actor)
	}
	if len(summary.RecentRuns) != 1 || summary.RecentRuns[0].Stage != "collect_actors" {
		t.Errorf("recent runs = %+v, want one collect_actors record", summary.RecentRuns)
	}
}
