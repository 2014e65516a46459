// Package log provides structured logging for crawldb on top of the
// standard slog package, with automatic masking of the session cookie
// material the crawler carries on every request.
//
// The cookie bundle is the only credential this tool handles; leaking it
// into a shared log file would hand out the operator's authenticated
// session. RedactHandler masks cookie and session attribute values
// before they reach the underlying handler, so components can log freely
// without each call site worrying about what a value contains.
//
// Usage:
//
//	logger := log.NewLogger(os.Stderr, verbose)
//	logger.Info("client ready", "cookie", bundle) // value is masked
package log
