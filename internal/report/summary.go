package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/hfcj478/Crawl-DB/internal/checkpoint"
	"github.com/hfcj478/Crawl-DB/internal/database"
	"github.com/hfcj478/Crawl-DB/internal/selector"
)

// maxRecentRuns bounds how many history records a summary carries.
const maxRecentRuns = 10

// Summary is a point-in-time view of the catalog: aggregate counts,
// per-actor breakdowns, and the most recent completed stage runs.
type Summary struct {
	// GeneratedAt is when the summary was built.
	GeneratedAt time.Time `json:"generated_at"`

	// TotalActors, TotalWorks and TotalMagnets are catalog-wide counts.
	TotalActors  int `json:"total_actors"`
	TotalWorks   int `json:"total_works"`
	TotalMagnets int `json:"total_magnets"`

	// Actors holds the per-actor breakdown, sorted by collated name so
	// mixed-script names order the way a person would expect.
	Actors []ActorSummary `json:"actors"`

	// RecentRuns are the latest completed stage runs, newest first.
	RecentRuns []checkpoint.HistoryRecord `json:"recent_runs,omitempty"`
}

// ActorSummary is one actor's row in the breakdown.
type ActorSummary struct {
	Name    string `json:"name"`
	Works   int    `json:"works"`
	Magnets int    `json:"magnets"`

	// Picked counts the actor's works that yield a best-magnet pick.
	Picked int `json:"picked"`
}

// BuildSummary assembles a Summary from the catalog and the history
// log. A nil history produces a summary without recent runs.
func BuildSummary(ctx context.Context, db *database.CatalogDB, history *checkpoint.History) (*Summary, error) {
	stats, err := db.CountStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("count catalog: %w", err)
	}

	summary := &Summary{
		GeneratedAt:  time.Now().UTC(),
		TotalActors:  stats.Actors,
		TotalWorks:   stats.Works,
		TotalMagnets: stats.Magnets,
	}

	byName := make(map[string]*ActorSummary)
	actorRow := func(name string) *ActorSummary {
		row, ok := byName[name]
		if !ok {
			row = &ActorSummary{Name: name}
			byName[name] = row
		}
		return row
	}

	works, err := db.WorksByActor(ctx)
	if err != nil {
		return nil, fmt.Errorf("load works: %w", err)
	}
	for _, group := range works {
		actorRow(group.Actor.Name).Works = len(group.Works)
	}

	magnets, err := db.MagnetsByWork(ctx)
	if err != nil {
		return nil, fmt.Errorf("load magnets: %w", err)
	}
	for _, group := range magnets {
		row := actorRow(group.Actor.Name)
		for _, work := range group.Works {
			row.Magnets += len(work.Magnets)
			if _, ok := selector.Best(work.Magnets); ok {
				row.Picked++
			}
		}
	}

	for _, row := range byName {
		summary.Actors = append(summary.Actors, *row)
	}
	collator := collate.New(language.Und)
	sort.Slice(summary.Actors, func(i, j int) bool {
		return collator.CompareString(summary.Actors[i].Name, summary.Actors[j].Name) < 0
	})

	if history != nil {
		records, err := history.Records()
		if err != nil {
			return nil, fmt.Errorf("load history: %w", err)
		}
		for i := len(records) - 1; i >= 0 && len(summary.RecentRuns) < maxRecentRuns; i-- {
			summary.RecentRuns = append(summary.RecentRuns, records[i])
		}
	}
	return summary, nil
}
