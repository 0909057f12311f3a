package idealista

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"idealista-watcher/config"
	"idealista-watcher/utils"
)

func testConfig() *config.Config {
	return &config.Config{
		SearchCity:      "barcelona-barcelona",
		MaxPrice:        1400,
		MinSize:         40,
		MaxRetries:      1,
		FetchTimeoutSec: 5,
	}
}

func TestSearchURL(t *testing.T) {
	cfg := testConfig()
	got := SearchURL(cfg)

	for _, part := range []string{
		"/alquiler-viviendas/barcelona-barcelona/",
		"con-precio-hasta_1400",
		"metros-cuadrados-mas-de_40",
		"publicado_ultimas-24-horas",
		"ordenado-por=fecha-publicacion-desc",
	} {
		if !strings.Contains(got, part) {
			t.Errorf("SearchURL %q missing %q", got, part)
		}
	}

	cfg.SearchURL = "https://example.com/custom"
	if SearchURL(cfg) != "https://example.com/custom" {
		t.Error("SearchURL should honour the override")
	}
}

func TestHTTPFetcherReturnsStatusAndBody(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"ok", http.StatusOK, "<html>listings</html>"},
		{"blocked", http.StatusForbidden, "captcha"},
		{"server error", http.StatusInternalServerError, "oops"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUA, gotReferer string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUA = r.Header.Get("User-Agent")
				gotReferer = r.Header.Get("Referer")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			f := NewHTTPFetcher(testConfig(), utils.NewDiscardLogger())
			res, err := f.Fetch(context.Background(), srv.URL)
			if err != nil {
				t.Fatalf("Fetch: %v", err)
			}
			if res.StatusCode != tt.status {
				t.Errorf("StatusCode: got %d, want %d", res.StatusCode, tt.status)
			}
			if string(res.Body) != tt.body {
				t.Errorf("Body: got %q, want %q", res.Body, tt.body)
			}
			if !strings.Contains(gotUA, "Mozilla/5.0") {
				t.Errorf("User-Agent not browser-like: %q", gotUA)
			}
			if gotReferer != "https://www.google.com/" {
				t.Errorf("Referer: got %q", gotReferer)
			}
		})
	}
}

func TestHTTPFetcherTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	f := NewHTTPFetcher(testConfig(), utils.NewDiscardLogger())
	if _, err := f.Fetch(context.Background(), url); err == nil {
		t.Error("expected error from closed server")
	}
}
