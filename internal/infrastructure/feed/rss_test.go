package feed

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cancaonovachor/nova-internal-tools/internal/domain"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Choral Feed</title>
<link>https://example.com/</link>
<item>
  <title>  Choir wins international competition  </title>
  <link>https://example.com/news/1</link>
  <pubDate>Mon, 02 Mar 2026 10:00:00 GMT</pubDate>
  <description>The choir took first prize in the chamber category.</description>
</item>
<item>
  <title>Undated announcement</title>
  <link>https://example.com/news/2</link>
</item>
<item>
  <title>Broken entry without a link</title>
</item>
</channel>
</rss>`

func serveFeed(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRSSScanMapsEntries(t *testing.T) {
	t.Parallel()

	srv := serveFeed(t, sampleFeed)
	s := NewRSSScanner(nil, "choralnews-test/1.0")

	got, err := s.Scan(context.Background(), domain.Source{
		ID:       "feed",
		Name:     "Choral News",
		URL:      srv.URL,
		Language: "en",
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2 (linkless entries dropped): %+v", len(got), got)
	}

	first := got[0]
	if first.Title != "Choir wins international competition" {
		t.Fatalf("title = %q, want it trimmed", first.Title)
	}
	if first.URL != "https://example.com/news/1" {
		t.Fatalf("url = %q", first.URL)
	}
	want := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	if !first.PublishedAt.Equal(want) {
		t.Fatalf("published = %v, want %v", first.PublishedAt, want)
	}
	if first.Excerpt != "The choir took first prize in the chamber category." {
		t.Fatalf("excerpt = %q", first.Excerpt)
	}
	if first.Source != "Choral News" || first.Language != "en" {
		t.Fatalf("source fields not filled: %+v", first)
	}

	if got[1].HasDate() {
		t.Fatalf("undated entry got %v, want zero time", got[1].PublishedAt)
	}
}

func TestRSSScanRejectsBrokenFeeds(t *testing.T) {
	t.Parallel()

	srv := serveFeed(t, "this is not xml")
	s := NewRSSScanner(nil, "choralnews-test/1.0")

	if _, err := s.Scan(context.Background(), domain.Source{ID: "feed", Name: "F", URL: srv.URL}); err == nil {
		t.Fatal("expected an error for an unparseable feed")
	}
}

func TestRSSScannerName(t *testing.T) {
	t.Parallel()

	if got := NewRSSScanner(nil, "ua").Name(); got != "rss" {
		t.Fatalf("name = %q, want rss", got)
	}
}
