package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/hfcj478/Crawl-DB/internal/database"
	"github.com/hfcj478/Crawl-DB/internal/model"
	"github.com/hfcj478/Crawl-DB/internal/parse"
)

// WorksOptions configures a Stage 2 run.
type WorksOptions struct {
	// Tags filters each actor's works listing via the "t" query
	// parameter, joined with commas the way the site expects.
	Tags []string

	// SortType, when non-empty, is passed through as the listing's
	// "sort_type" query parameter.
	SortType string

	// Actors restricts the run to these actor names. A scoped run
	// neither reads nor writes the stage checkpoint and leaves the
	// history log alone, so it never disturbs a resumable full run.
	Actors []string
}

// RunWorks harvests the works listing of every stored actor. Each
// actor is one unit: after a unit's write commits, the checkpoint
// records the completed unit, so a rerun resumes one past it. On the
// first unit failure the checkpoint freezes while the remaining units
// still run, so a rerun retries from the first failure without redoing
// what already succeeded. Fetch errors fail the unit; store errors
// fail the run.
func (c *Coordinator) RunWorks(ctx context.Context, opts WorksOptions) error {
	actors, err := c.db.Actors(ctx)
	if err != nil {
		return fmt.Errorf("load actors: %w", err)
	}
	if len(actors) == 0 {
		return errors.New("no actors stored, collect actors first")
	}

	scoped := len(opts.Actors) > 0
	if scoped {
		actors = filterActors(actors, opts.Actors, c)
		if len(actors) == 0 {
			return errors.New("none of the requested actors are stored")
		}
	}

	start := 0
	if !scoped {
		cursor, ok, err := c.checkpoints.Load(StageWorks)
		if err != nil {
			return err
		}
		if ok {
			start = resumeIndex(actorNames(actors), cursor)
			if start < len(actors) {
				c.logger.Info("resuming works harvest",
					"actor", actors[start].Name, "index", start, "total", len(actors))
			}
		}
	}

	var (
		failed     int
		firstFail  string
		processed  int
		worksTotal int
	)
	for i := start; i < len(actors); i++ {
		actor := actors[i]

		known, err := c.db.KnownWorkCodes(ctx, actor.ID)
		if err != nil {
			return fmt.Errorf("load known works for %s: %w", actor.Name, err)
		}

		works, err := c.walkActorWorks(ctx, actor, known, opts)
		if err != nil {
			if fatalFetch(err) {
				return err
			}
			c.logger.Error("actor works harvest failed, skipping",
				"actor", actor.Name, "error", err)
			if failed == 0 {
				firstFail = actor.Name
			}
			failed++
			continue
		}

		stored, err := c.db.UpsertWorks(ctx, actor.ID, works)
		if err != nil {
			return fmt.Errorf("store works for %s: %w", actor.Name, err)
		}
		c.logger.Info("actor works harvested",
			"actor", actor.Name, "new", stored, "known", len(known))

		processed++
		worksTotal += stored

		// The cursor names the unit just completed; a rerun resumes
		// one past it. It stays frozen once a unit has failed so the
		// rerun retries the failure.
		if !scoped && failed == 0 {
			cursor := map[string]any{cursorActor: actor.Name, cursorIndex: i + 1}
			if err := c.checkpoints.Save(StageWorks, cursor); err != nil {
				return err
			}
		}

		if err := sleepJitter(ctx, c.delayMin, c.delayMax); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d actors failed, rerun resumes at %q",
			failed, len(actors)-start, firstFail)
	}

	c.logger.Info("works harvest complete", "actors", processed, "works", worksTotal)
	if scoped {
		return nil
	}
	if err := c.checkpoints.Clear(StageWorks); err != nil {
		return err
	}
	return c.history.Append(StageWorks, map[string]int{
		"actors":      processed,
		"works_total": worksTotal,
	})
}

// walkActorWorks walks one actor's works listing. The walk stops at
// the first already-stored work code unless early stop is disabled.
func (c *Coordinator) walkActorWorks(ctx context.Context, actor database.ActorRow, known map[string]struct{}, opts WorksOptions) ([]model.Work, error) {
	startURL, err := worksURL(actor.Href, opts)
	if err != nil {
		return nil, err
	}

	walk := &Traversal[model.Work]{
		Fetcher: c.fetcher,
		Extract: func(content []byte) ([]model.Work, error) {
			works, err := c.extractor.Works(content)
			if errors.Is(err, parse.ErrNoContainer) {
				c.logger.Warn("works grid missing, treating page as empty", "actor", actor.Name)
				return nil, nil
			}
			return works, err
		},
		Next:      c.extractor.NextPageURL,
		Key:       func(w model.Work) string { return w.Code },
		DelayMin:  c.delayMin,
		DelayMax:  c.delayMax,
		EarlyStop: c.earlyStop,
		Logger:    c.logger,
	}
	return walk.Walk(ctx, startURL, known)
}

// worksURL builds an actor's works listing URL with the optional tag
// and sort filters applied. Filters already present on the stored href
// are replaced, not stacked.
func worksURL(href string, opts WorksOptions) (string, error) {
	u, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("invalid actor href %q: %w", href, err)
	}

	q := u.Query()
	q.Del("t")
	q.Del("sort_type")
	if len(opts.Tags) > 0 {
		q.Set("t", strings.Join(opts.Tags, ","))
	}
	if opts.SortType != "" {
		q.Set("sort_type", opts.SortType)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// filterActors keeps the stored actors named in the scope filter,
// preserving stored order, and warns about names that are not stored.
func filterActors(actors []database.ActorRow, names []string, c *Coordinator) []database.ActorRow {
	wanted := make(map[string]struct{}, len(names))
	for _, name := range names {
		wanted[name] = struct{}{}
	}

	var kept []database.ActorRow
	for _, actor := range actors {
		if _, ok := wanted[actor.Name]; ok {
			kept = append(kept, actor)
			delete(wanted, actor.Name)
		}
	}
	for name := range wanted {
		c.logger.Warn("requested actor is not stored", "actor", name)
	}
	return kept
}

// actorNames projects the name column for cursor resolution.
func actorNames(actors []database.ActorRow) []string {
	names := make([]string, len(actors))
	for i, actor := range actors {
		names[i] = actor.Name
	}
	return names
}
