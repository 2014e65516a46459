package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// TestClientFetch tests header and cookie transmission plus body return.
func TestClientFetch(t *testing.T) {
	t.Parallel()

	var gotCookie, gotUA, gotReferer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		gotUA = r.Header.Get("User-Agent")
		gotReferer = r.Header.Get("Referer")
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	client := NewClient(
		map[string]string{"over18": "1", "_jdb_session": "abc"},
		WithUserAgent("test-agent"),
		WithReferer("https://example.com/"),
	)

	body, err := client.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(body) != "<html>ok</html>" {
		t.Errorf("body = %q", body)
	}
	if !strings.Contains(gotCookie, "_jdb_session=abc") || !strings.Contains(gotCookie, "over18=1") {
		t.Errorf("Cookie header = %q", gotCookie)
	}
	if gotUA != "test-agent" {
		t.Errorf("User-Agent = %q", gotUA)
	}
	if gotReferer != "https://example.com/" {
		t.Errorf("Referer = %q", gotReferer)
	}
}

// TestClientFetchStatusError tests that non-2xx responses are errors.
func TestClientFetchStatusError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
	}{
		{"forbidden", http.StatusForbidden},
		{"not found", http.StatusNotFound},
		{"server error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			if _, err := NewClient(nil).Fetch(context.Background(), srv.URL); err == nil {
				t.Errorf("expected error for status %d", tt.status)
			}
		})
	}
}

// TestClientFetchBodyLimit tests the response size cap.
func TestClientFetchBodyLimit(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 1024)))
	}))
	defer srv.Close()

	client := NewClient(nil, WithMaxBodySize(100))
	body, err := client.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(body) != 100 {
		t.Errorf("body length = %d, want 100", len(body))
	}
}

// TestClientFetchContextCancel tests cancellation mid-request.
func TestClientFetchContextCancel(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := NewClient(nil).Fetch(ctx, srv.URL); err == nil {
		t.Error("expected error after context cancellation")
	}
}
