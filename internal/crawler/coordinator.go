package crawler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hfcj478/Crawl-DB/internal/checkpoint"
	"github.com/hfcj478/Crawl-DB/internal/database"
	"github.com/hfcj478/Crawl-DB/internal/fetch"
	"github.com/hfcj478/Crawl-DB/internal/model"
	"github.com/hfcj478/Crawl-DB/internal/parse"
)

// catalog is the slice of the catalog store the stages depend on.
// *database.CatalogDB satisfies it.
type catalog interface {
	Actors(ctx context.Context) ([]database.ActorRow, error)
	UpsertActors(ctx context.Context, actors []model.Actor) (int, error)
	KnownWorkCodes(ctx context.Context, actorID int64) (map[string]struct{}, error)
	UpsertWorks(ctx context.Context, actorID int64, works []model.Work) (int, error)
	WorksByActor(ctx context.Context) ([]database.ActorWorks, error)
	ReplaceMagnets(ctx context.Context, workID int64, magnets []model.Magnet) (int, error)
}

// Stage names. They key the checkpoint document and the history log, so
// changing one orphans existing state under the old name.
const (
	StageActors  = "collect_actors"
	StageWorks   = "actor_works"
	StageMagnets = "work_magnets"
)

// Cursor field names shared by the stages that checkpoint per unit.
const (
	cursorActor = "actor"
	cursorIndex = "index"
)

// Coordinator runs the harvest stages. One Coordinator serves one
// invocation; it is not safe for concurrent use, and stages are meant
// to run one at a time anyway.
type Coordinator struct {
	db          catalog
	checkpoints *checkpoint.Store
	history     *checkpoint.History
	fetcher     fetch.Fetcher
	extractor   *parse.Extractor
	logger      *slog.Logger

	delayMin  time.Duration
	delayMax  time.Duration
	earlyStop bool
}

// Params collects the collaborators a Coordinator needs.
type Params struct {
	DB          *database.CatalogDB
	Checkpoints *checkpoint.Store
	History     *checkpoint.History
	Fetcher     fetch.Fetcher
	Extractor   *parse.Extractor
	Logger      *slog.Logger

	// DelayMin and DelayMax bound the politeness sleep between fetches.
	DelayMin time.Duration
	DelayMax time.Duration

	// DisableEarlyStop makes Stage 2 walk every page of every actor
	// instead of stopping at the first already-stored work.
	DisableEarlyStop bool
}

// New creates a Coordinator from its collaborators.
func New(p Params) *Coordinator {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		db:          p.DB,
		checkpoints: p.Checkpoints,
		history:     p.History,
		fetcher:     p.Fetcher,
		extractor:   p.Extractor,
		logger:      logger,
		delayMin:    p.DelayMin,
		delayMax:    p.DelayMax,
		earlyStop:   !p.DisableEarlyStop,
	}
}

// fatalFetch reports whether a unit fetch error must abort the whole
// stage instead of being skipped. Cancellation is the caller asking the
// run to stop; treating it as a skippable unit would churn through the
// remaining units canceling each one.
func fatalFetch(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// resumeIndex maps a saved cursor onto the current unit list. The
// cursor names the last completed unit, so the run resumes one past
// it. The name is matched first, because positions shift when the
// underlying list changes between runs; the saved index is the
// fallback when the named unit has disappeared.
func resumeIndex(names []string, cursor checkpoint.Cursor) int {
	if actor := cursor.String(cursorActor); actor != "" {
		for i, name := range names {
			if name == actor {
				return i + 1
			}
		}
	}
	if i := cursor.Int(cursorIndex); i > 0 && i <= len(names) {
		return i
	}
	return 0
}
