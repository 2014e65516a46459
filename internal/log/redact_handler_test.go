package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// TestRedactHandlerMasksSensitiveKeys tests that cookie-shaped
// attributes never reach the output.
func TestRedactHandlerMasksSensitiveKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"cookie", "cookie", "over18=1; _jdb_session=abc"},
		{"session key", "_jdb_session", "abc123"},
		{"clearance", "cf_clearance", "xyz"},
		{"uppercase key", "Cookie", "a=b"},
		{"token", "token", "deadbeef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := slog.New(NewRedactHandler(slog.NewTextHandler(&buf, nil)))
			logger.Info("test", tt.key, tt.value)

			out := buf.String()
			if strings.Contains(out, tt.value) {
				t.Errorf("output leaked value %q: %s", tt.value, out)
			}
			if !strings.Contains(out, MaskValue) {
				t.Errorf("output missing mask: %s", out)
			}
		})
	}
}

// TestRedactHandlerKeepsOrdinaryAttrs tests that normal attributes pass
// through untouched.
func TestRedactHandlerKeepsOrdinaryAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewRedactHandler(slog.NewTextHandler(&buf, nil)))
	logger.Info("fetched page", "url", "https://example.com/page/2", "records", 17)

	out := buf.String()
	if !strings.Contains(out, "https://example.com/page/2") {
		t.Errorf("ordinary attribute dropped: %s", out)
	}
	if strings.Contains(out, MaskValue) {
		t.Errorf("ordinary attribute masked: %s", out)
	}
}

// TestRedactHandlerGroups tests that group members are masked too.
func TestRedactHandlerGroups(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewRedactHandler(slog.NewTextHandler(&buf, nil)))
	logger.Info("request", slog.Group("http", slog.String("cookie", "a=b"), slog.String("url", "u")))

	out := buf.String()
	if strings.Contains(out, "a=b") {
		t.Errorf("grouped cookie leaked: %s", out)
	}
	if !strings.Contains(out, "url=u") {
		t.Errorf("grouped ordinary attribute dropped: %s", out)
	}
}

// TestRedactHandlerWithAttrs tests masking of pre-bound attributes.
func TestRedactHandlerWithAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewRedactHandler(slog.NewTextHandler(&buf, nil)))
	logger.With("session", "sensitive").Info("bound")

	if strings.Contains(buf.String(), "sensitive") {
		t.Errorf("bound sensitive attribute leaked: %s", buf.String())
	}
}

// TestNewLoggerLevels tests the verbose level switch.
func TestNewLoggerLevels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	quiet := NewLogger(&buf, false)
	quiet.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug record emitted at info level: %s", buf.String())
	}

	verbose := NewLogger(&buf, true)
	verbose.Debug("visible")
	if buf.Len() == 0 {
		t.Error("debug record dropped at debug level")
	}
}
