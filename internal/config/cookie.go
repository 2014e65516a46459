package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// RecommendedSessionKeys are cookie names the catalog is known to check.
// Their absence does not stop a run (the bundle is treated as opaque
// beyond structure), but it usually means every fetch will hit an
// interstitial, so missing keys are surfaced as warnings.
var RecommendedSessionKeys = []string{"over18", "cf_clearance", "_jdb_session"}

// ErrEmptyCookieBundle is returned when the cookie file parses but
// contains no usable pairs. This is fatal at process start: the crawl
// cannot see authenticated pages without a session.
var ErrEmptyCookieBundle = errors.New("cookie bundle contains no cookies")

// LoadCookies reads the cookie.json credential bundle and normalizes it
// to name/value pairs. Two layouts are accepted:
//
//	{"cookie": "a=b; c=d"}       a raw Cookie header string
//	{"a": "b", "c": "d"}         an explicit name/value map
//
// Any other shape, an unreadable file, or an empty result is an error.
func LoadCookies(path string) (map[string]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided cookie path is intentional
	if err != nil {
		return nil, fmt.Errorf("read cookie file: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse cookie file %s: %w", path, err)
	}

	cookies := make(map[string]string)
	if header, ok := raw["cookie"].(string); ok && len(raw) == 1 {
		cookies = ParseCookieHeader(header)
	} else {
		for k, v := range raw {
			s, ok := v.(string)
			if !ok {
				continue
			}
			if k = strings.TrimSpace(k); k != "" {
				cookies[k] = strings.TrimSpace(s)
			}
		}
	}

	if len(cookies) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyCookieBundle)
	}
	return cookies, nil
}

// ParseCookieHeader splits a raw "a=b; c=d" Cookie header string into
// name/value pairs. Segments without "=" are dropped.
func ParseCookieHeader(header string) map[string]string {
	cookies := make(map[string]string)
	for _, segment := range strings.Split(header, ";") {
		name, value, found := strings.Cut(segment, "=")
		if !found {
			continue
		}
		if name = strings.TrimSpace(name); name != "" {
			cookies[name] = strings.TrimSpace(value)
		}
	}
	return cookies
}

// MissingSessionKeys returns the recommended session keys absent from
// the bundle, in the order of RecommendedSessionKeys.
func MissingSessionKeys(cookies map[string]string) []string {
	var missing []string
	for _, key := range RecommendedSessionKeys {
		if _, ok := cookies[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing
}
