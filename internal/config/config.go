package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values. The delay bounds mirror the source's
// tolerance observed in practice; everything else is a conventional
// polite-crawler default.
const (
	// DefaultBaseURL is the catalog site all stage URLs are resolved
	// against.
	DefaultBaseURL = "https://javdb.com"

	// DefaultCollectionPath is the path of the collected-actors listing,
	// the Stage 1 start page.
	DefaultCollectionPath = "/users/collection_actors"

	// DefaultTimeout applies to each HTTP request. The site sits behind
	// a CDN and normally answers quickly; 30 seconds covers slow edges
	// without hanging a stage for minutes on a dead connection.
	DefaultTimeout = 30 * time.Second

	// DefaultDelayMin and DefaultDelayMax bound the randomized politeness
	// sleep between page fetches. The jitter avoids a fixed request
	// cadence; this is a self-imposed rate limit, not a correctness
	// mechanism.
	DefaultDelayMin = 800 * time.Millisecond
	DefaultDelayMax = 1600 * time.Millisecond

	// DefaultUserAgent imitates a desktop browser. The catalog serves an
	// interstitial to clients it does not recognize, so a scanner-style
	// User-Agent would only get challenge pages.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

	// DefaultMaxBodySize limits the response body size read per page.
	// Listing pages are tens of kilobytes; 5MB leaves ample headroom
	// while preventing memory exhaustion on unexpected responses.
	DefaultMaxBodySize = 5 * 1024 * 1024

	// DefaultCookieFile is the credential bundle path relative to the
	// working directory.
	DefaultCookieFile = "cookie.json"

	// AppName is used for XDG directory paths.
	AppName = "crawldb"
)

// Config holds all options for a crawldb invocation. It is populated
// from CLI flags plus the optional .crawldb file and passed explicitly
// into each component; there is no package-level configuration state.
type Config struct {
	// BaseURL is the catalog site root. Relative hrefs from extracted
	// records are resolved against it.
	BaseURL string

	// CollectionPath is the Stage 1 start page path, joined to BaseURL.
	CollectionPath string

	// CookiePath is the path of the cookie.json credential bundle.
	// The bundle is required: crawling without a valid session only
	// yields interstitial pages.
	CookiePath string

	// DataDir holds the SQLite catalog, the checkpoint document, and the
	// history log. Defaults to the XDG data directory.
	DataDir string

	// PicksDir is where the candidate selector writes its per-actor
	// output files. Defaults to "picks" under DataDir.
	PicksDir string

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// DelayMin and DelayMax bound the politeness sleep between page
	// fetches. DelayMax must not be smaller than DelayMin.
	DelayMin time.Duration
	DelayMax time.Duration

	// UserAgent is sent with every request.
	UserAgent string

	// MaxBodySize caps the response body bytes read per page.
	MaxBodySize int64

	// DisableEarlyStop turns off the stop-on-known-record rule during
	// Stage 2 traversal. The rule presumes the source lists works newest
	// first; when that ordering cannot be trusted, disabling it makes the
	// crawl walk every page and rely on upsert idempotence instead.
	DisableEarlyStop bool

	// Tags are work-list filter codes appended to each actor's works URL
	// as the "t" query parameter (Stage 2 only).
	Tags []string

	// SortType, when non-empty, is passed through as the works-list
	// "sort_type" query parameter.
	SortType string

	// Actors is an optional explicit scope filter: when set, Stage 2 and
	// Stage 3 process only these actor names, starting fresh and leaving
	// the shared checkpoint untouched.
	Actors []string

	// Verbose enables debug-level logging.
	Verbose bool
}

// NewConfig returns a Config populated with defaults. Callers override
// individual fields from flags and the config file afterwards.
func NewConfig() *Config {
	return &Config{
		BaseURL:        DefaultBaseURL,
		CollectionPath: DefaultCollectionPath,
		CookiePath:     DefaultCookieFile,
		DataDir:        XDGDataDir(),
		Timeout:        DefaultTimeout,
		DelayMin:       DefaultDelayMin,
		DelayMax:       DefaultDelayMax,
		UserAgent:      DefaultUserAgent,
		MaxBodySize:    DefaultMaxBodySize,
	}
}

// XDGDataDir returns the XDG data directory for crawldb.
// On Linux: ~/.local/share/crawldb
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// PicksDirOrDefault returns PicksDir, falling back to DataDir/picks.
func (c *Config) PicksDirOrDefault() string {
	if c.PicksDir != "" {
		return c.PicksDir
	}
	return filepath.Join(c.DataDir, "picks")
}

// CollectionURL returns the absolute Stage 1 start URL.
func (c *Config) CollectionURL() string {
	return c.BaseURL + c.CollectionPath
}

// Validate checks the configuration and returns the first problem found.
// It runs once after flag parsing, before any stage begins, so invalid
// invocations fail fast instead of partway through a crawl.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrNoBaseURL
	}
	if c.CookiePath == "" {
		return ErrNoCookiePath
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.DelayMin < 0 || c.DelayMax < 0 {
		return ErrInvalidDelay
	}
	if c.DelayMax < c.DelayMin {
		return ErrDelayBoundsSwapped
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	return nil
}
