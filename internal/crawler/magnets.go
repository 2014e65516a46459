package crawler

import (
	"context"
	"errors"
	"fmt"

	"github.com/hfcj478/Crawl-DB/internal/checkpoint"
	"github.com/hfcj478/Crawl-DB/internal/database"
	"github.com/hfcj478/Crawl-DB/internal/model"
	"github.com/hfcj478/Crawl-DB/internal/parse"
)

// MagnetsOptions configures a Stage 3 run.
type MagnetsOptions struct {
	// Actors restricts the run to these actor names, with the same
	// checkpoint and history bypass as in Stage 2.
	Actors []string
}

// RunMagnets fetches the detail page of every stored work and replaces
// its magnet snapshot with what the page lists now. Each work is one
// unit; after a unit's snapshot commits, the checkpoint records the
// owning actor plus the work's position within that actor's list, so a
// rerun resumes one past it. The checkpoint freezes at the first failed
// unit just like the works stage. Fetch errors fail the unit; store
// errors fail the run.
func (c *Coordinator) RunMagnets(ctx context.Context, opts MagnetsOptions) error {
	groups, err := c.db.WorksByActor(ctx)
	if err != nil {
		return fmt.Errorf("load works: %w", err)
	}

	scoped := len(opts.Actors) > 0
	if scoped {
		groups = filterGroups(groups, opts.Actors, c)
	}
	if len(groups) == 0 {
		if scoped {
			return errors.New("none of the requested actors have stored works")
		}
		return errors.New("no works stored, harvest works first")
	}

	startGroup, startIndex := 0, 0
	if !scoped {
		cursor, ok, err := c.checkpoints.Load(StageMagnets)
		if err != nil {
			return err
		}
		if ok {
			startGroup, startIndex = resumePosition(groups, cursor)
			c.logger.Info("resuming magnet harvest",
				"actor", groups[startGroup].Actor.Name, "index", startIndex)
		}
	}

	var (
		failed       int
		firstFail    string
		units        int
		processed    int
		magnetsTotal int
	)
	for g := startGroup; g < len(groups); g++ {
		group := groups[g]

		first := 0
		if g == startGroup {
			first = startIndex
		}
		for i := first; i < len(group.Works); i++ {
			work := group.Works[i]
			units++

			magnets, err := c.fetchWorkMagnets(ctx, work)
			if err != nil {
				if fatalFetch(err) {
					return err
				}
				c.logger.Error("work magnet harvest failed, skipping",
					"actor", group.Actor.Name, "work", work.Code, "error", err)
				if failed == 0 {
					firstFail = fmt.Sprintf("%s/%s", group.Actor.Name, work.Code)
				}
				failed++
				continue
			}

			stored, err := c.db.ReplaceMagnets(ctx, work.ID, magnets)
			if err != nil {
				return fmt.Errorf("store magnets for %s: %w", work.Code, err)
			}
			c.logger.Debug("work magnets harvested", "work", work.Code, "magnets", stored)

			processed++
			magnetsTotal += stored

			// The cursor names the position just completed; a rerun
			// resumes one past it. It stays frozen once a unit has
			// failed so the rerun retries the failure.
			if !scoped && failed == 0 {
				cursor := map[string]any{cursorActor: group.Actor.Name, cursorIndex: i + 1}
				if err := c.checkpoints.Save(StageMagnets, cursor); err != nil {
					return err
				}
			}

			if err := sleepJitter(ctx, c.delayMin, c.delayMax); err != nil {
				return err
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d works failed, rerun resumes at %s",
			failed, units, firstFail)
	}

	c.logger.Info("magnet harvest complete", "works", processed, "magnets", magnetsTotal)
	if scoped {
		return nil
	}
	if err := c.checkpoints.Clear(StageMagnets); err != nil {
		return err
	}
	return c.history.Append(StageMagnets, map[string]int{
		"works":         processed,
		"magnets_total": magnetsTotal,
	})
}

// fetchWorkMagnets fetches one work's detail page and extracts its
// magnet rows. A page without the magnet container yields an empty set,
// which the caller still stores: the page is the source of truth, and
// stale magnets are worse than none.
func (c *Coordinator) fetchWorkMagnets(ctx context.Context, work database.WorkRow) ([]model.Magnet, error) {
	content, err := c.fetcher.Fetch(ctx, work.Href)
	if err != nil {
		return nil, err
	}

	magnets, err := c.extractor.Magnets(content)
	if err != nil {
		if !errors.Is(err, parse.ErrNoContainer) {
			return nil, err
		}
		c.logger.Warn("magnet container missing, clearing snapshot", "work", work.Code)
		return nil, nil
	}
	return magnets, nil
}

// resumePosition maps a saved cursor onto the current work groups. The
// cursor index points one past the last completed work, so a cursor
// that has walked off the end of its group skips that group entirely.
// An actor that disappeared from the catalog since the cursor was
// written restarts the stage from the beginning.
func resumePosition(groups []database.ActorWorks, cursor checkpoint.Cursor) (int, int) {
	actor := cursor.String(cursorActor)
	for g, group := range groups {
		if group.Actor.Name != actor {
			continue
		}
		index := cursor.Int(cursorIndex)
		if index < 0 || index > len(group.Works) {
			index = 0
		}
		return g, index
	}
	return 0, 0
}

// filterGroups keeps the work groups named in the scope filter and
// warns about names without stored works.
func filterGroups(groups []database.ActorWorks, names []string, c *Coordinator) []database.ActorWorks {
	wanted := make(map[string]struct{}, len(names))
	for _, name := range names {
		wanted[name] = struct{}{}
	}

	var kept []database.ActorWorks
	for _, group := range groups {
		if _, ok := wanted[group.Actor.Name]; ok {
			kept = append(kept, group)
			delete(wanted, group.Actor.Name)
		}
	}
	for name := range wanted {
		c.logger.Warn("requested actor has no stored works", "actor", name)
	}
	return kept
}
