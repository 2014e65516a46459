package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/hfcj478/Crawl-DB/internal/model"
)

// DBFileName is the catalog database file name inside the data dir.
const DBFileName = "crawldb.db"

// CatalogDB stores the harvested catalog in a single SQLite file.
//
// One file holds all three levels; cross-level reads (grouped works,
// grouped magnets) are plain joins instead of cross-file bookkeeping.
type CatalogDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures CatalogDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging. Recommended: the crawl
	// interleaves reads (known-code lookups) with writes.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the catalog database under dbDir.
func Open(dbDir string, opts Options) (*CatalogDB, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite uses mode=rw / mode=rwc in the DSN to control
	// whether a missing file may be created.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports a single writer; the crawl is single-threaded
	// anyway, so one connection is all it ever needs.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CatalogDB{db: db, dbPath: dbPath}

	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return cdb, nil
}

// Close closes the database connection.
func (cdb *CatalogDB) Close() error {
	return cdb.db.Close()
}

// Path returns the database file path.
func (cdb *CatalogDB) Path() string {
	return cdb.dbPath
}

// createTables creates the schema if it doesn't exist.
func (cdb *CatalogDB) createTables() error {
	schema := `
	-- Actors are the top level of the catalog. Name is the unique key.
	CREATE TABLE IF NOT EXISTS actors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		href TEXT
	);

	-- Works belong to one actor; (actor_id, code) is the unique key.
	CREATE TABLE IF NOT EXISTS works (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		actor_id INTEGER NOT NULL REFERENCES actors(id) ON DELETE CASCADE,
		code TEXT NOT NULL,
		title TEXT,
		href TEXT,
		UNIQUE(actor_id, code)
	);

	CREATE INDEX IF NOT EXISTS idx_works_actor ON works(actor_id);

	-- Magnets are a per-work snapshot: Stage 3 replaces the whole set
	-- on every fetch, so rows never accumulate stale entries.
	CREATE TABLE IF NOT EXISTS magnets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		work_id INTEGER NOT NULL REFERENCES works(id) ON DELETE CASCADE,
		uri TEXT NOT NULL,
		tags TEXT,
		size_text TEXT,
		UNIQUE(work_id, uri)
	);

	CREATE INDEX IF NOT EXISTS idx_magnets_work ON magnets(work_id);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// ActorRow is a stored actor with its stable identifier.
type ActorRow struct {
	ID   int64
	Name string
	Href string
}

// WorkRow is a stored work with its stable identifier.
type WorkRow struct {
	ID    int64
	Code  string
	Title string
	Href  string
}

// ActorWorks groups one actor with all of its stored works, ordered by
// code.
type ActorWorks struct {
	Actor ActorRow
	Works []WorkRow
}

// WorkMagnets groups one work with its stored magnet snapshot, in
// insertion order.
type WorkMagnets struct {
	Work    WorkRow
	Magnets []model.Magnet
}

// ActorMagnets groups one actor with the magnet snapshots of all its
// works, ordered by work code.
type ActorMagnets struct {
	Actor ActorRow
	Works []WorkMagnets
}

// UpsertActor inserts or updates one actor by unique name and returns
// its stable id. A changed href overwrites the stored one; an empty
// href never clears it.
func (cdb *CatalogDB) UpsertActor(ctx context.Context, name, href string) (int64, error) {
	query := `
	INSERT INTO actors (name, href) VALUES (?, ?)
	ON CONFLICT(name) DO UPDATE SET
		href = CASE WHEN excluded.href != '' THEN excluded.href ELSE actors.href END
	RETURNING id
	`

	var id int64
	if err := cdb.db.QueryRowContext(ctx, query, name, href).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to upsert actor %q: %w", name, err)
	}
	return id, nil
}

// UpsertActors applies UpsertActor to a batch inside one transaction
// and returns the number of valid records written. Invalid records
// (missing name) are skipped and not counted.
func (cdb *CatalogDB) UpsertActors(ctx context.Context, actors []model.Actor) (int, error) {
	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	query := `
	INSERT INTO actors (name, href) VALUES (?, ?)
	ON CONFLICT(name) DO UPDATE SET
		href = CASE WHEN excluded.href != '' THEN excluded.href ELSE actors.href END
	`

	written := 0
	for _, actor := range actors {
		if !actor.Valid() {
			continue
		}
		if _, err := tx.ExecContext(ctx, query, actor.Name, actor.Href); err != nil {
			return 0, fmt.Errorf("failed to upsert actor %q: %w", actor.Name, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit actors: %w", err)
	}
	return written, nil
}

// UpsertWorks inserts or updates works for one actor by the
// (actor_id, code) key, all inside one transaction. Malformed works
// (missing code or href) are skipped silently and not counted.
func (cdb *CatalogDB) UpsertWorks(ctx context.Context, actorID int64, works []model.Work) (int, error) {
	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	query := `
	INSERT INTO works (actor_id, code, title, href) VALUES (?, ?, ?, ?)
	ON CONFLICT(actor_id, code) DO UPDATE SET
		title = excluded.title,
		href = excluded.href
	`

	written := 0
	for _, work := range works {
		if !work.Valid() {
			continue
		}
		if _, err := tx.ExecContext(ctx, query, actorID, work.Code, work.Title, work.Href); err != nil {
			return 0, fmt.Errorf("failed to upsert work %q: %w", work.Code, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit works: %w", err)
	}
	return written, nil
}

// ReplaceMagnets replaces the complete magnet set of one work: it
// deletes all stored rows for the work and inserts the fresh set inside
// one transaction. An empty input still clears prior rows; "no magnets
// found" is a valid persisted state.
func (cdb *CatalogDB) ReplaceMagnets(ctx context.Context, workID int64, magnets []model.Magnet) (int, error) {
	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM magnets WHERE work_id = ?", workID); err != nil {
		return 0, fmt.Errorf("failed to clear magnets for work %d: %w", workID, err)
	}

	query := `INSERT OR IGNORE INTO magnets (work_id, uri, tags, size_text) VALUES (?, ?, ?, ?)`
	written := 0
	for _, m := range magnets {
		if !m.Valid() {
			continue
		}
		if _, err := tx.ExecContext(ctx, query, workID, m.URI, m.JoinTags(), m.SizeText); err != nil {
			return 0, fmt.Errorf("failed to insert magnet for work %d: %w", workID, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit magnets: %w", err)
	}
	return written, nil
}

// Actors returns all stored actors ordered case-insensitively by name.
func (cdb *CatalogDB) Actors(ctx context.Context) ([]ActorRow, error) {
	rows, err := cdb.db.QueryContext(ctx, `
	SELECT id, name, COALESCE(href, '') FROM actors
	ORDER BY name COLLATE NOCASE
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query actors: %w", err)
	}
	defer rows.Close()

	var actors []ActorRow
	for rows.Next() {
		var a ActorRow
		if err := rows.Scan(&a.ID, &a.Name, &a.Href); err != nil {
			return nil, fmt.Errorf("failed to scan actor: %w", err)
		}
		actors = append(actors, a)
	}
	return actors, rows.Err()
}

// ActorByName returns one actor by unique name, or nil when absent.
func (cdb *CatalogDB) ActorByName(ctx context.Context, name string) (*ActorRow, error) {
	var a ActorRow
	err := cdb.db.QueryRowContext(ctx,
		"SELECT id, name, COALESCE(href, '') FROM actors WHERE name = ?", name,
	).Scan(&a.ID, &a.Name, &a.Href)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query actor %q: %w", name, err)
	}
	return &a, nil
}

// KnownWorkCodes returns the set of work codes already stored for one
// actor. Stage 2 seeds its early-stop check with this set.
func (cdb *CatalogDB) KnownWorkCodes(ctx context.Context, actorID int64) (map[string]struct{}, error) {
	rows, err := cdb.db.QueryContext(ctx, "SELECT code FROM works WHERE actor_id = ?", actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query work codes: %w", err)
	}
	defer rows.Close()

	codes := make(map[string]struct{})
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan work code: %w", err)
		}
		codes[code] = struct{}{}
	}
	return codes, rows.Err()
}

// WorksByActor returns every stored work grouped by actor, actors
// ordered case-insensitively and works by code. Stage 3 enumerates its
// scope from this.
func (cdb *CatalogDB) WorksByActor(ctx context.Context) ([]ActorWorks, error) {
	rows, err := cdb.db.QueryContext(ctx, `
	SELECT a.id, a.name, COALESCE(a.href, ''),
	       w.id, w.code, COALESCE(w.title, ''), COALESCE(w.href, '')
	FROM works w
	JOIN actors a ON a.id = w.actor_id
	ORDER BY a.name COLLATE NOCASE, w.code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query works: %w", err)
	}
	defer rows.Close()

	var grouped []ActorWorks
	for rows.Next() {
		var a ActorRow
		var w WorkRow
		if err := rows.Scan(&a.ID, &a.Name, &a.Href, &w.ID, &w.Code, &w.Title, &w.Href); err != nil {
			return nil, fmt.Errorf("failed to scan work: %w", err)
		}
		if len(grouped) == 0 || grouped[len(grouped)-1].Actor.ID != a.ID {
			grouped = append(grouped, ActorWorks{Actor: a})
		}
		last := &grouped[len(grouped)-1]
		last.Works = append(last.Works, w)
	}
	return grouped, rows.Err()
}

// MagnetsByWork returns every stored magnet grouped by actor and work,
// in the same ordering as WorksByActor with magnets in insertion order.
// This is the candidate selector's input.
func (cdb *CatalogDB) MagnetsByWork(ctx context.Context) ([]ActorMagnets, error) {
	rows, err := cdb.db.QueryContext(ctx, `
	SELECT a.id, a.name, COALESCE(a.href, ''),
	       w.id, w.code, COALESCE(w.title, ''), COALESCE(w.href, ''),
	       m.uri, COALESCE(m.tags, ''), COALESCE(m.size_text, '')
	FROM magnets m
	JOIN works w ON w.id = m.work_id
	JOIN actors a ON a.id = w.actor_id
	ORDER BY a.name COLLATE NOCASE, w.code, m.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query magnets: %w", err)
	}
	defer rows.Close()

	var grouped []ActorMagnets
	for rows.Next() {
		var a ActorRow
		var w WorkRow
		var uri, tags, sizeText string
		if err := rows.Scan(&a.ID, &a.Name, &a.Href, &w.ID, &w.Code, &w.Title, &w.Href,
			&uri, &tags, &sizeText); err != nil {
			return nil, fmt.Errorf("failed to scan magnet: %w", err)
		}

		if len(grouped) == 0 || grouped[len(grouped)-1].Actor.ID != a.ID {
			grouped = append(grouped, ActorMagnets{Actor: a})
		}
		actorBucket := &grouped[len(grouped)-1]

		if len(actorBucket.Works) == 0 || actorBucket.Works[len(actorBucket.Works)-1].Work.ID != w.ID {
			actorBucket.Works = append(actorBucket.Works, WorkMagnets{Work: w})
		}
		workBucket := &actorBucket.Works[len(actorBucket.Works)-1]

		workBucket.Magnets = append(workBucket.Magnets, model.Magnet{
			URI:      uri,
			Tags:     model.SplitTags(tags),
			SizeText: sizeText,
		})
	}
	return grouped, rows.Err()
}

// Stats holds aggregate row counts for operational summaries.
type Stats struct {
	Actors  int
	Works   int
	Magnets int
}

// CountStats returns the catalog's aggregate row counts.
func (cdb *CatalogDB) CountStats(ctx context.Context) (Stats, error) {
	var s Stats
	err := cdb.db.QueryRowContext(ctx, `
	SELECT (SELECT COUNT(*) FROM actors),
	       (SELECT COUNT(*) FROM works),
	       (SELECT COUNT(*) FROM magnets)
	`).Scan(&s.Actors, &s.Works, &s.Magnets)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count catalog rows: %w", err)
	}
	return s, nil
}
