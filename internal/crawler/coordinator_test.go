package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/hfcj478/Crawl-DB/internal/checkpoint"
	"github.com/hfcj478/Crawl-DB/internal/database"
	"github.com/hfcj478/Crawl-DB/internal/model"
	"github.com/hfcj478/Crawl-DB/internal/parse"
)

const testBaseURL = "https://cat.test"

// testEnv bundles a Coordinator with the collaborators the assertions
// need to inspect. Delays are zero so tests never sleep.
type testEnv struct {
	coord   *Coordinator
	db      *database.CatalogDB
	store   *checkpoint.Store
	history *checkpoint.History
	fetcher *fakeFetcher
}

func newTestEnv(t *testing.T, fetcher *fakeFetcher) *testEnv {
	t.Helper()

	dir := t.TempDir()
	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	extractor, err := parse.New(testBaseURL)
	if err != nil {
		t.Fatalf("failed to create extractor: %v", err)
	}

	store := checkpoint.NewStore(dir)
	history := checkpoint.NewHistory(dir)
	return &testEnv{
		coord: New(Params{
			DB:          db,
			Checkpoints: store,
			History:     history,
			Fetcher:     fetcher,
			Extractor:   extractor,
			Logger:      discardLogger(),
		}),
		db:      db,
		store:   store,
		history: history,
		fetcher: fetcher,
	}
}

// seedActor stores one actor and returns its id.
func (e *testEnv) seedActor(t *testing.T, name string) int64 {
	t.Helper()

	id, err := e.db.UpsertActor(context.Background(), name, actorURL(name))
	if err != nil {
		t.Fatalf("failed to seed actor %s: %v", name, err)
	}
	return id
}

func actorURL(name string) string {
	return testBaseURL + "/actors/" + strings.ToLower(name)
}

func workURL(code string) string {
	return testBaseURL + "/v/" + strings.ToLower(code)
}

// actorsPage renders a collection listing page.
func actorsPage(next string, names ...string) []byte {
	var b strings.Builder
	b.WriteString(`<html><body><div id="actors">`)
	for _, name := range names {
		fmt.Fprintf(&b,
			`<div class="box actor-box"><a href="/actors/%s"><strong>%s</strong></a></div>`,
			strings.ToLower(name), name)
	}
	b.WriteString(`</div>`)
	if next != "" {
		fmt.Fprintf(&b, `<a class="pagination-next" href="%s">next</a>`, next)
	}
	b.WriteString(`</body></html>`)
	return []byte(b.String())
}

// worksListPage renders an actor's works listing page.
func worksListPage(next string, codes ...string) []byte {
	var b strings.Builder
	b.WriteString(`<html><body><div class="movie-list h cols-4">`)
	for _, code := range codes {
		fmt.Fprintf(&b,
			`<div class="item"><a href="/v/%s"><div class="video-title"><strong>%s</strong> Title</div></a></div>`,
			strings.ToLower(code), code)
	}
	b.WriteString(`</div>`)
	if next != "" {
		fmt.Fprintf(&b, `<a class="pagination-next" href="%s">next</a>`, next)
	}
	b.WriteString(`</body></html>`)
	return []byte(b.String())
}

// magnetsDetailPage renders a work detail page with magnet entries.
func magnetsDetailPage(uris ...string) []byte {
	var b strings.Builder
	b.WriteString(`<html><body><div id="magnets-content">`)
	for i, uri := range uris {
		fmt.Fprintf(&b,
			`<div class="item"><div class="magnet-name"><a href="%s"><div><span class="name">entry-%d</span><span class="meta">2.1GB</span><span>字幕</span></div></a></div></div>`,
			uri, i)
	}
	b.WriteString(`</div></body></html>`)
	return []byte(b.String())
}

func TestRunActors(t *testing.T) {
	t.Parallel()

	start := testBaseURL + "/users/collection_actors"
	env := newTestEnv(t, &fakeFetcher{pages: map[string][]byte{
		start: actorsPage("/users/collection_actors?page=2", "Alice", "Beth"),
		testBaseURL + "/users/collection_actors?page=2": actorsPage("", "Cara"),
	}})

	if err := env.coord.RunActors(context.Background(), start); err != nil {
		t.Fatalf("RunActors failed: %v", err)
	}

	actors, err := env.db.Actors(context.Background())
	if err != nil {
		t.Fatalf("failed to query actors: %v", err)
	}
	if len(actors) != 3 {
		t.Fatalf("stored %d actors, want 3", len(actors))
	}
	if actors[0].Name != "Alice" || actors[0].Href != actorURL("Alice") {
		t.Errorf("first actor = %+v, want Alice with resolved href", actors[0])
	}

	records, err := env.history.Records()
	if err != nil {
		t.Fatalf("failed to read history: %v", err)
	}
	if len(records) != 1 || records[0].Stage != StageActors {
		t.Fatalf("history = %+v, want one %s record", records, StageActors)
	}
	if records[0].Counters["actors"] != 3 {
		t.Errorf("actors counter = %d, want 3", records[0].Counters["actors"])
	}
}

func TestRunActorsMissingGrid(t *testing.T) {
	t.Parallel()

	start := testBaseURL + "/users/collection_actors"
	env := newTestEnv(t, &fakeFetcher{pages: map[string][]byte{
		start: []byte(`<html><body><p>please verify you are human</p></body></html>`),
	}})

	// A page without the grid is treated as empty rather than aborting
	// the walk; the run still fails because nothing was collected.
	err := env.coord.RunActors(context.Background(), start)
	if err == nil {
		t.Fatal("RunActors succeeded on a listing without actors")
	}
	if errors.Is(err, parse.ErrNoContainer) {
		t.Errorf("RunActors error = %v, want the missing grid absorbed as an empty page", err)
	}
	if records, _ := env.history.Records(); len(records) != 0 {
		t.Errorf("history has %d records after an empty run, want 0", len(records))
	}
}

// seedWork stores one work for an actor.
func (e *testEnv) seedWork(t *testing.T, actorID int64, code string) {
	t.Helper()

	work := model.Work{Code: code, Title: code + " Title", Href: workURL(code)}
	if _, err := e.db.UpsertWorks(context.Background(), actorID, []model.Work{work}); err != nil {
		t.Fatalf("failed to seed work %s: %v", code, err)
	}
}

func TestRunWorksEarlyStop(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, &fakeFetcher{pages: map[string][]byte{
		actorURL("Alice"):                    worksListPage("/actors/alice?page=2", "AAA-111", "BBB-222", "CCC-333"),
		testBaseURL + "/actors/alice?page=2": worksListPage("", "DDD-444"),
	}})

	ctx := context.Background()
	aliceID := env.seedActor(t, "Alice")
	env.seedWork(t, aliceID, "BBB-222")

	if err := env.coord.RunWorks(ctx, WorksOptions{}); err != nil {
		t.Fatalf("RunWorks failed: %v", err)
	}

	codes, err := env.db.KnownWorkCodes(ctx, aliceID)
	if err != nil {
		t.Fatalf("failed to query work codes: %v", err)
	}
	if _, ok := codes["AAA-111"]; !ok {
		t.Error("AAA-111 before the known work was not stored")
	}
	if _, ok := codes["CCC-333"]; ok {
		t.Error("CCC-333 after the known work was stored; walk should have stopped")
	}
	if len(codes) != 2 {
		t.Errorf("stored %d works, want 2 (new AAA-111 plus seeded BBB-222)", len(codes))
	}
	for _, url := range env.fetcher.fetched {
		if strings.Contains(url, "page=2") {
			t.Error("second listing page was fetched despite early stop")
		}
	}

	if _, ok, _ := env.store.Load(StageWorks); ok {
		t.Error("checkpoint survived a completed run")
	}
	records, err := env.history.Records()
	if err != nil {
		t.Fatalf("failed to read history: %v", err)
	}
	if len(records) != 1 || records[0].Stage != StageWorks {
		t.Fatalf("history = %+v, want one %s record", records, StageWorks)
	}
	if records[0].Counters["works_total"] != 1 {
		t.Errorf("works_total counter = %d, want 1", records[0].Counters["works_total"])
	}
}

func TestRunWorksEarlyStopDisabled(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string][]byte{
		actorURL("Alice"):                    worksListPage("/actors/alice?page=2", "AAA-111", "BBB-222"),
		testBaseURL + "/actors/alice?page=2": worksListPage("", "CCC-333"),
	}}
	env := newTestEnv(t, fetcher)
	env.coord.earlyStop = false

	ctx := context.Background()
	aliceID := env.seedActor(t, "Alice")
	env.seedWork(t, aliceID, "BBB-222")

	if err := env.coord.RunWorks(ctx, WorksOptions{}); err != nil {
		t.Fatalf("RunWorks failed: %v", err)
	}

	codes, err := env.db.KnownWorkCodes(ctx, aliceID)
	if err != nil {
		t.Fatalf("failed to query work codes: %v", err)
	}
	if len(codes) != 3 {
		t.Errorf("stored %d works, want 3: disabled early stop walks every page", len(codes))
	}
}

func TestRunWorksResume(t *testing.T) {
	t.Parallel()

	// The cursor records Alice as completed; only Beth and Cara are
	// served, so touching Alice's listing again would fail the run.
	env := newTestEnv(t, &fakeFetcher{pages: map[string][]byte{
		actorURL("Beth"): worksListPage("", "BBB-111"),
		actorURL("Cara"): worksListPage("", "CCC-111"),
	}})

	ctx := context.Background()
	env.seedActor(t, "Alice")
	env.seedActor(t, "Beth")
	env.seedActor(t, "Cara")

	if err := env.store.Save(StageWorks, map[string]any{cursorActor: "Alice", cursorIndex: 1}); err != nil {
		t.Fatalf("failed to seed checkpoint: %v", err)
	}

	if err := env.coord.RunWorks(ctx, WorksOptions{}); err != nil {
		t.Fatalf("RunWorks failed: %v", err)
	}

	for _, url := range env.fetcher.fetched {
		if url == actorURL("Alice") {
			t.Error("resume re-fetched an already completed actor")
		}
	}
	if _, ok, _ := env.store.Load(StageWorks); ok {
		t.Error("checkpoint survived a completed run")
	}
}

func TestRunWorksFirstFailureFreeze(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, &fakeFetcher{
		pages: map[string][]byte{
			actorURL("Alice"): worksListPage("", "AAA-111"),
			actorURL("Cara"):  worksListPage("", "CCC-111"),
		},
		fail: map[string]error{actorURL("Beth"): errors.New("connection reset")},
	})

	ctx := context.Background()
	env.seedActor(t, "Alice")
	bethID := env.seedActor(t, "Beth")
	caraID := env.seedActor(t, "Cara")

	err := env.coord.RunWorks(ctx, WorksOptions{})
	if err == nil {
		t.Fatal("RunWorks succeeded despite a failed actor")
	}

	// Later units still ran.
	codes, err2 := env.db.KnownWorkCodes(ctx, caraID)
	if err2 != nil {
		t.Fatalf("failed to query work codes: %v", err2)
	}
	if len(codes) != 1 {
		t.Errorf("Cara has %d works, want 1: units after the failure must still run", len(codes))
	}
	if bethCodes, _ := env.db.KnownWorkCodes(ctx, bethID); len(bethCodes) != 0 {
		t.Errorf("Beth has %d works, want 0", len(bethCodes))
	}

	// The checkpoint froze at the last unit completed before the
	// failure, so a rerun resumes exactly at Beth.
	cursor, ok, err2 := env.store.Load(StageWorks)
	if err2 != nil || !ok {
		t.Fatalf("checkpoint missing after failed run: ok=%v err=%v", ok, err2)
	}
	if got := cursor.String(cursorActor); got != "Alice" {
		t.Errorf("checkpoint actor = %q, want Alice", got)
	}
	if got := cursor.Int(cursorIndex); got != 1 {
		t.Errorf("checkpoint index = %d, want 1", got)
	}
	if got := resumeIndex([]string{"Alice", "Beth", "Cara"}, cursor); got != 1 {
		t.Errorf("resume index = %d, want 1 so the rerun retries Beth", got)
	}

	if records, _ := env.history.Records(); len(records) != 0 {
		t.Errorf("history has %d records after a failed run, want 0", len(records))
	}
}

// cancelAfterFetcher cancels its context once a given URL has been
// served, like an operator hitting Ctrl-C mid-run.
type cancelAfterFetcher struct {
	*fakeFetcher
	cancel context.CancelFunc
	after  string
}

func (f *cancelAfterFetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	content, err := f.fakeFetcher.Fetch(ctx, pageURL)
	if pageURL == f.after {
		f.cancel()
	}
	return content, err
}

func TestRunWorksInterruptedRunResumesAfterCompletedUnit(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, &fakeFetcher{pages: map[string][]byte{
		actorURL("Alice"): worksListPage("", "AAA-111"),
		actorURL("Beth"):  worksListPage("", "BBB-111"),
	}})

	env.seedActor(t, "Alice")
	env.seedActor(t, "Beth")

	// Cancel right after Alice's listing; the politeness sleep after
	// her unit notices it and the run stops with Alice committed.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	env.coord.fetcher = &cancelAfterFetcher{
		fakeFetcher: env.fetcher,
		cancel:      cancel,
		after:       actorURL("Alice"),
	}
	env.coord.delayMin, env.coord.delayMax = time.Second, time.Second

	if err := env.coord.RunWorks(ctx, WorksOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("RunWorks error = %v, want context.Canceled", err)
	}

	// The cursor names the unit whose write committed, not the one
	// that was about to start.
	cursor, ok, err := env.store.Load(StageWorks)
	if err != nil || !ok {
		t.Fatalf("checkpoint missing after interrupted run: ok=%v err=%v", ok, err)
	}
	if got := cursor.String(cursorActor); got != "Alice" {
		t.Errorf("checkpoint actor = %q, want Alice", got)
	}
	if got := cursor.Int(cursorIndex); got != 1 {
		t.Errorf("checkpoint index = %d, want 1", got)
	}

	// A restart picks up at Beth without re-fetching Alice.
	env.coord.fetcher = env.fetcher
	env.coord.delayMin, env.coord.delayMax = 0, 0
	env.fetcher.fetched = nil
	if err := env.coord.RunWorks(context.Background(), WorksOptions{}); err != nil {
		t.Fatalf("restarted RunWorks failed: %v", err)
	}
	for _, url := range env.fetcher.fetched {
		if url == actorURL("Alice") {
			t.Error("restart re-fetched an already completed actor")
		}
	}
}

// failingCatalog wraps the real store and fails selected writes.
type failingCatalog struct {
	catalog
	upsertWorksErr    error
	replaceMagnetsErr error
}

func (f *failingCatalog) UpsertWorks(ctx context.Context, actorID int64, works []model.Work) (int, error) {
	if f.upsertWorksErr != nil {
		return 0, f.upsertWorksErr
	}
	return f.catalog.UpsertWorks(ctx, actorID, works)
}

func (f *failingCatalog) ReplaceMagnets(ctx context.Context, workID int64, magnets []model.Magnet) (int, error) {
	if f.replaceMagnetsErr != nil {
		return 0, f.replaceMagnetsErr
	}
	return f.catalog.ReplaceMagnets(ctx, workID, magnets)
}

func TestRunWorksStoreErrorIsFatal(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, &fakeFetcher{pages: map[string][]byte{
		actorURL("Alice"): worksListPage("", "AAA-111"),
		actorURL("Beth"):  worksListPage("", "BBB-111"),
	}})

	ctx := context.Background()
	env.seedActor(t, "Alice")
	env.seedActor(t, "Beth")

	storeErr := errors.New("disk I/O error")
	env.coord.db = &failingCatalog{catalog: env.db, upsertWorksErr: storeErr}

	err := env.coord.RunWorks(ctx, WorksOptions{})
	if !errors.Is(err, storeErr) {
		t.Fatalf("RunWorks error = %v, want the store error", err)
	}

	// A broken store aborts the stage instead of burning a fetch per
	// remaining unit.
	if got := len(env.fetcher.fetched); got != 1 {
		t.Errorf("fetched %d pages after the store failed, want 1", got)
	}
	if records, _ := env.history.Records(); len(records) != 0 {
		t.Errorf("history has %d records after a failed run, want 0", len(records))
	}
}

func TestRunMagnetsStoreErrorIsFatal(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, &fakeFetcher{pages: map[string][]byte{
		workURL("AAA-111"): magnetsDetailPage("magnet:?xt=urn:btih:aaa"),
		workURL("AAA-222"): magnetsDetailPage("magnet:?xt=urn:btih:bbb"),
	}})

	ctx := context.Background()
	aliceID := env.seedActor(t, "Alice")
	env.seedWork(t, aliceID, "AAA-111")
	env.seedWork(t, aliceID, "AAA-222")

	storeErr := errors.New("disk I/O error")
	env.coord.db = &failingCatalog{catalog: env.db, replaceMagnetsErr: storeErr}

	err := env.coord.RunMagnets(ctx, MagnetsOptions{})
	if !errors.Is(err, storeErr) {
		t.Fatalf("RunMagnets error = %v, want the store error", err)
	}
	if got := len(env.fetcher.fetched); got != 1 {
		t.Errorf("fetched %d pages after the store failed, want 1", got)
	}
}

func TestRunWorksScopedBypassesCheckpoint(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, &fakeFetcher{pages: map[string][]byte{
		actorURL("Beth"): worksListPage("", "BBB-111"),
	}})

	ctx := context.Background()
	env.seedActor(t, "Alice")
	bethID := env.seedActor(t, "Beth")

	if err := env.store.Save(StageWorks, map[string]any{cursorActor: "Alice", cursorIndex: 0}); err != nil {
		t.Fatalf("failed to seed checkpoint: %v", err)
	}

	if err := env.coord.RunWorks(ctx, WorksOptions{Actors: []string{"Beth"}}); err != nil {
		t.Fatalf("RunWorks failed: %v", err)
	}

	codes, err := env.db.KnownWorkCodes(ctx, bethID)
	if err != nil {
		t.Fatalf("failed to query work codes: %v", err)
	}
	if len(codes) != 1 {
		t.Errorf("Beth has %d works, want 1", len(codes))
	}

	cursor, ok, err := env.store.Load(StageWorks)
	if err != nil || !ok {
		t.Fatalf("checkpoint gone after scoped run: ok=%v err=%v", ok, err)
	}
	if got := cursor.String(cursorActor); got != "Alice" {
		t.Errorf("checkpoint actor = %q, want Alice untouched", got)
	}
	if records, _ := env.history.Records(); len(records) != 0 {
		t.Errorf("history has %d records after a scoped run, want 0", len(records))
	}
}

func TestRunMagnets(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, &fakeFetcher{pages: map[string][]byte{
		workURL("AAA-111"): magnetsDetailPage("magnet:?xt=urn:btih:aaa", "magnet:?xt=urn:btih:bbb"),
		workURL("AAA-222"): []byte(`<html><body><p>nothing listed</p></body></html>`),
	}})

	ctx := context.Background()
	aliceID := env.seedActor(t, "Alice")
	env.seedWork(t, aliceID, "AAA-111")
	env.seedWork(t, aliceID, "AAA-222")

	if err := env.coord.RunMagnets(ctx, MagnetsOptions{}); err != nil {
		t.Fatalf("RunMagnets failed: %v", err)
	}

	groups, err := env.db.MagnetsByWork(ctx)
	if err != nil {
		t.Fatalf("failed to query magnets: %v", err)
	}
	// AAA-222's page has no magnet container, so its snapshot is empty
	// and only AAA-111 carries magnets.
	if len(groups) != 1 || len(groups[0].Works) != 1 {
		t.Fatalf("groups = %+v, want one actor with one magnet-bearing work", groups)
	}
	if got := groups[0].Works[0].Work.Code; got != "AAA-111" {
		t.Errorf("magnet-bearing work = %s, want AAA-111", got)
	}
	if got := len(groups[0].Works[0].Magnets); got != 2 {
		t.Errorf("AAA-111 has %d magnets, want 2", got)
	}

	if _, ok, _ := env.store.Load(StageMagnets); ok {
		t.Error("checkpoint survived a completed run")
	}
	records, err := env.history.Records()
	if err != nil {
		t.Fatalf("failed to read history: %v", err)
	}
	if len(records) != 1 || records[0].Stage != StageMagnets {
		t.Fatalf("history = %+v, want one %s record", records, StageMagnets)
	}
	if records[0].Counters["magnets_total"] != 2 {
		t.Errorf("magnets_total counter = %d, want 2", records[0].Counters["magnets_total"])
	}
}

func TestRunMagnetsResume(t *testing.T) {
	t.Parallel()

	// The cursor records the first work as completed; only the second
	// is served, so re-fetching the first would fail the run.
	env := newTestEnv(t, &fakeFetcher{pages: map[string][]byte{
		workURL("AAA-222"): magnetsDetailPage("magnet:?xt=urn:btih:bbb"),
	}})

	ctx := context.Background()
	aliceID := env.seedActor(t, "Alice")
	env.seedWork(t, aliceID, "AAA-111")
	env.seedWork(t, aliceID, "AAA-222")

	if err := env.store.Save(StageMagnets, map[string]any{cursorActor: "Alice", cursorIndex: 1}); err != nil {
		t.Fatalf("failed to seed checkpoint: %v", err)
	}

	if err := env.coord.RunMagnets(ctx, MagnetsOptions{}); err != nil {
		t.Fatalf("RunMagnets failed: %v", err)
	}

	for _, url := range env.fetcher.fetched {
		if url == workURL("AAA-111") {
			t.Error("resume fetched a work before the checkpoint")
		}
	}
}

func TestRunMagnetsReplacesSnapshot(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, &fakeFetcher{pages: map[string][]byte{
		workURL("AAA-111"): magnetsDetailPage("magnet:?xt=urn:btih:new"),
	}})

	ctx := context.Background()
	aliceID := env.seedActor(t, "Alice")
	env.seedWork(t, aliceID, "AAA-111")

	// Two successive runs: the second page drops one magnet and adds
	// another, and the snapshot must follow the page.
	if err := env.coord.RunMagnets(ctx, MagnetsOptions{}); err != nil {
		t.Fatalf("first RunMagnets failed: %v", err)
	}
	env.fetcher.pages[workURL("AAA-111")] = magnetsDetailPage("magnet:?xt=urn:btih:newer")
	if err := env.coord.RunMagnets(ctx, MagnetsOptions{}); err != nil {
		t.Fatalf("second RunMagnets failed: %v", err)
	}

	groups, err := env.db.MagnetsByWork(ctx)
	if err != nil {
		t.Fatalf("failed to query magnets: %v", err)
	}
	magnets := groups[0].Works[0].Magnets
	if len(magnets) != 1 || magnets[0].URI != "magnet:?xt=urn:btih:newer" {
		t.Errorf("snapshot = %+v, want only the latest magnet", magnets)
	}
}
