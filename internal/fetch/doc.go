// Package fetch provides the cookie-authenticated HTTP client used to
// retrieve catalog pages.
//
// The client is a plain transport adapter: it attaches the session
// cookies and browser-like headers, follows redirects, and returns the
// raw page bytes. It never retries; a failed fetch is reported to the
// caller, which decides whether to skip the unit or abort the stage.
package fetch
