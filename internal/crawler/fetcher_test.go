package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestHTTPFetcher tests the HTTP fetch+parse collaborator.
func TestHTTPFetcher(t *testing.T) {
	t.Parallel()

	t.Run("fetches and extracts anchors", func(t *testing.T) {
		t.Parallel()

		var gotUA, gotHeader string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
			gotHeader = r.Header.Get("X-Token")
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, `<html><body><a href="/a">A</a><a href="/b">B</a></body></html>`)
		}))
		defer srv.Close()

		f := NewHTTPFetcher(srv.Client(),
			WithUserAgent("test-agent/1.0"),
			WithHeaders(map[string]string{"X-Token": "secret"}),
		)

		anchors, err := f.FetchAndExtract(context.Background(), srv.URL+"/")
		if err != nil {
			t.Fatal(err)
		}
		if len(anchors) != 2 {
			t.Errorf("got %d anchors, want 2", len(anchors))
		}
		if gotUA != "test-agent/1.0" {
			t.Errorf("User-Agent = %q", gotUA)
		}
		if gotHeader != "secret" {
			t.Errorf("extra header not sent, got %q", gotHeader)
		}
	})

	t.Run("non-success status is a FetchError", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		}))
		defer srv.Close()

		f := NewHTTPFetcher(srv.Client())
		_, err := f.FetchAndExtract(context.Background(), srv.URL+"/missing")

		var fe *FetchError
		if !errors.As(err, &fe) {
			t.Fatalf("err = %v, want *FetchError", err)
		}
		if fe.StatusCode != http.StatusNotFound {
			t.Errorf("StatusCode = %d, want 404", fe.StatusCode)
		}
	})

	t.Run("network failure is a FetchError", func(t *testing.T) {
		t.Parallel()

		f := NewHTTPFetcher(&http.Client{Timeout: 200 * time.Millisecond})
		_, err := f.FetchAndExtract(context.Background(), "http://127.0.0.1:1/unreachable")

		var fe *FetchError
		if !errors.As(err, &fe) {
			t.Fatalf("err = %v, want *FetchError", err)
		}
	})

	t.Run("non-HTML content yields no anchors and no error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/pdf")
			fmt.Fprint(w, "%PDF-1.4")
		}))
		defer srv.Close()

		f := NewHTTPFetcher(srv.Client())
		anchors, err := f.FetchAndExtract(context.Background(), srv.URL+"/doc.pdf")
		if err != nil {
			t.Fatal(err)
		}
		if len(anchors) != 0 {
			t.Errorf("got %v, want none", anchors)
		}
	})

	t.Run("body size limit truncates oversized pages", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `<html><body><a href="/first">F</a>`)
			for i := 0; i < 1000; i++ {
				fmt.Fprint(w, "<p>padding padding padding</p>")
			}
			fmt.Fprint(w, `<a href="/last">L</a></body></html>`)
		}))
		defer srv.Close()

		f := NewHTTPFetcher(srv.Client(), WithMaxBodySize(256))
		anchors, err := f.FetchAndExtract(context.Background(), srv.URL+"/")
		if err != nil {
			t.Fatal(err)
		}
		// Only the part inside the limit is parsed.
		if len(anchors) != 1 || anchors[0].RawHref != "/first" {
			t.Errorf("got %v, want only the first anchor", anchors)
		}
	})

	t.Run("decodes non-UTF8 charsets", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
			// 0xE9 is é in ISO-8859-1.
			_, _ = w.Write([]byte("<html><body><a href=\"/caf\xe9\">Caf\xe9</a></body></html>"))
		}))
		defer srv.Close()

		f := NewHTTPFetcher(srv.Client())
		anchors, err := f.FetchAndExtract(context.Background(), srv.URL+"/")
		if err != nil {
			t.Fatal(err)
		}
		if len(anchors) != 1 {
			t.Fatalf("got %d anchors, want 1", len(anchors))
		}
		if anchors[0].Text != "Café" {
			t.Errorf("Text = %q, want decoded Café", anchors[0].Text)
		}
	})
}
