package feeds

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <item>
      <title>Shares surge after record profit</title>
      <link>https://example.com/a</link>
      <pubDate>Mon, 04 Mar 2024 14:30:00 GMT</pubDate>
    </item>
    <item>
      <title>Stock plunges on fraud probe</title>
      <link>https://example.com/b</link>
      <pubDate>Tue, 05 Mar 2024 09:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

func TestFetchParsesFeed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		fmt.Fprint(w, sampleRSS)
	}))
	defer srv.Close()

	c := NewClient()
	items, err := c.Fetch(context.Background(), []string{srv.URL}, 0, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)

	// Newest first.
	assert.Equal(t, "Stock plunges on fraud probe", items[0].Title)
	assert.Equal(t, time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC), items[0].PublishedAt)
	assert.NotEmpty(t, items[0].ID)
	assert.Equal(t, srv.URL, items[0].Source)
}

func TestFetchLimitAndCap(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sampleRSS)
	}))
	defer srv.Close()

	c := NewClient()

	items, err := c.Fetch(context.Background(), []string{srv.URL}, 1, 0)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	items, err = c.Fetch(context.Background(), []string{srv.URL}, 0, 1)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestFetchRetriesOnThrottle(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, sampleRSS)
	}))
	defer srv.Close()

	c := NewClient(WithRetries(2, time.Millisecond))
	items, err := c.Fetch(context.Background(), []string{srv.URL}, 0, 0)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchAllFeedsFailed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(WithRetries(0, 0))
	_, err := c.Fetch(context.Background(), []string{srv.URL, srv.URL}, 0, 0)
	assert.Error(t, err)
}

func TestFetchSkipsFailingFeed(t *testing.T) {
	t.Parallel()

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sampleRSS)
	}))
	defer good.Close()

	c := NewClient(WithRetries(0, 0))
	items, err := c.Fetch(context.Background(), []string{bad.URL, good.URL}, 0, 0)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestDedupe(t *testing.T) {
	t.Parallel()

	day := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	items := []Item{
		{Title: "Same Headline", PublishedAt: day, Source: "a"},
		{Title: "same headline", PublishedAt: day.Add(2 * time.Hour), Source: "b"},
		{Title: "Same Headline", PublishedAt: day.AddDate(0, 0, 1), Source: "a"},
		{Title: "Different", PublishedAt: day, Source: "a"},
	}

	out := Dedupe(items)
	require.Len(t, out, 3)
	assert.Equal(t, "a", out[0].Source, "first occurrence wins")
}

func TestGoogleNewsURL(t *testing.T) {
	t.Parallel()

	u := GoogleNewsURL("AAPL stock", 7)
	assert.Contains(t, u, "news.google.com/rss/search")
	assert.Contains(t, u, "AAPL+stock+when%3A7d")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "news.json")
	items := []Item{
		{ID: "x", Title: "t", Link: "l", PublishedAt: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), Source: "s"},
	}

	require.NoError(t, Save(items, path))
	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, items, back)
}
