package crawler

import (
	"context"
	"errors"
	"fmt"

	"github.com/hfcj478/Crawl-DB/internal/model"
	"github.com/hfcj478/Crawl-DB/internal/parse"
)

// RunActors harvests the collected-actors listing starting at startURL
// and upserts every actor found. The stage is one unit, so it carries
// no checkpoint; rerunning it repeats the whole walk and the upserts
// absorb the duplicates.
func (c *Coordinator) RunActors(ctx context.Context, startURL string) error {
	c.logger.Info("collecting actors", "url", startURL)

	walk := &Traversal[model.Actor]{
		Fetcher: c.fetcher,
		Extract: func(content []byte) ([]model.Actor, error) {
			actors, err := c.extractor.Actors(content)
			if errors.Is(err, parse.ErrNoContainer) {
				c.logger.Warn("actor grid missing, treating page as empty")
				return nil, nil
			}
			return actors, err
		},
		Next:     c.extractor.NextPageURL,
		Key:      func(a model.Actor) string { return a.Name },
		DelayMin: c.delayMin,
		DelayMax: c.delayMax,
		Logger:   c.logger,
	}

	actors, err := walk.Walk(ctx, startURL, nil)
	if err != nil {
		return err
	}
	if len(actors) == 0 {
		return errors.New("no actors found in the collection listing, the session cookies may be expired")
	}

	stored, err := c.db.UpsertActors(ctx, actors)
	if err != nil {
		return fmt.Errorf("store actors: %w", err)
	}

	c.logger.Info("actors collected", "found", len(actors), "stored", stored)
	if err := c.history.Append(StageActors, map[string]int{"actors": stored}); err != nil {
		return err
	}
	return nil
}
