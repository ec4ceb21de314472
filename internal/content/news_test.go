package content

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func rssServer(t *testing.T, items string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, `<?xml version="1.0"?>
<rss version="2.0"><channel><title>test</title>%s</channel></rss>`, items)
	}))
}

func TestRSSFeedPicksMostRecentItem(t *testing.T) {
	srv := rssServer(t, `
		<item><title>older</title><link>http://x/1</link>
			<pubDate>Mon, 02 Mar 2026 08:00:00 GMT</pubDate></item>
		<item><title>newest</title><link>http://x/2</link>
			<pubDate>Mon, 02 Mar 2026 11:30:00 GMT</pubDate></item>
		<item><title>oldest</title><link>http://x/3</link>
			<pubDate>Sun, 01 Mar 2026 20:00:00 GMT</pubDate></item>`)
	defer srv.Close()

	res, err := NewRSSFeed(srv.URL).Fetch(context.Background(), Params{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.News.Title != "newest" || res.News.Link != "http://x/2" {
		t.Errorf("picked %+v, want the newest item", res.News)
	}
}

func TestRSSFeedUndatedItemsKeepFeedOrder(t *testing.T) {
	srv := rssServer(t, `
		<item><title>first</title><link>http://x/1</link></item>
		<item><title>second</title><link>http://x/2</link></item>`)
	defer srv.Close()

	res, err := NewRSSFeed(srv.URL).Fetch(context.Background(), Params{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.News.Title != "first" {
		t.Errorf("picked %q, want the first listed item", res.News.Title)
	}
}

func TestRSSFeedEmptyChannelMeansNothingToShow(t *testing.T) {
	srv := rssServer(t, "")
	defer srv.Close()

	res, err := NewRSSFeed(srv.URL).Fetch(context.Background(), Params{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res != nil {
		t.Errorf("want nil result for empty feed, got %+v", res)
	}
}

func TestRSSFeedUnreachableIsTransient(t *testing.T) {
	srv := rssServer(t, "")
	srv.Close()

	_, err := NewRSSFeed(srv.URL).Fetch(context.Background(), Params{})
	if err == nil {
		t.Fatal("want error for unreachable feed")
	}
}

func TestHeadlineScrapeResolvesRelativeLinks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<a class="headline" href="/news/42">  Breaking story  </a>
			<a class="headline" href="/news/43">second story</a>
		</body></html>`)
	}))
	defer srv.Close()

	prov := NewHeadlineScrape(srv.URL, "a.headline")
	res, err := prov.Fetch(context.Background(), Params{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.News.Title != "Breaking story" {
		t.Errorf("title = %q, want trimmed first match", res.News.Title)
	}
	if want := srv.URL + "/news/42"; res.News.Link != want {
		t.Errorf("link = %q, want %q", res.News.Link, want)
	}
}

func TestHeadlineScrapeNoMatchMeansNothingToShow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>nothing here</p></body></html>`)
	}))
	defer srv.Close()

	res, err := NewHeadlineScrape(srv.URL, "a.headline").Fetch(context.Background(), Params{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res != nil {
		t.Errorf("want nil result when selector matches nothing, got %+v", res)
	}
}
