package content

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// RSSFeed serves the single freshest item of one feed. Configure one
// provider per feed URL; the chain order doubles as the feed preference.
type RSSFeed struct {
	URL    string
	parser *gofeed.Parser
}

func NewRSSFeed(feedURL string) *RSSFeed {
	return &RSSFeed{URL: feedURL, parser: gofeed.NewParser()}
}

func (f *RSSFeed) Name() string { return "rss:" + f.URL }

func (f *RSSFeed) Fetch(ctx context.Context, _ Params) (*Result, error) {
	feed, err := f.parser.ParseURLWithContext(f.URL, ctx)
	if err != nil {
		return nil, transientErr(f.Name(), err)
	}
	if len(feed.Items) == 0 {
		return nil, nil
	}

	// Most recent dated item wins; equal or missing dates keep feed order.
	best := 0
	for i, item := range feed.Items {
		if itemTime(item).After(itemTime(feed.Items[best])) {
			best = i
		}
	}
	item := feed.Items[best]
	if item.Title == "" {
		return nil, nil
	}
	return &Result{News: &NewsItem{
		Title:     strings.TrimSpace(item.Title),
		Link:      item.Link,
		Published: itemTime(item),
	}}, nil
}

func itemTime(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	return time.Time{}
}

// HeadlineScrape pulls the first matching headline link off a news page.
// Last-resort provider for sites without a usable feed.
type HeadlineScrape struct {
	PageURL  string
	Selector string
	Client   *http.Client
}

func NewHeadlineScrape(pageURL, selector string) *HeadlineScrape {
	return &HeadlineScrape{PageURL: pageURL, Selector: selector, Client: http.DefaultClient}
}

func (h *HeadlineScrape) Name() string { return "scrape:" + h.PageURL }

func (h *HeadlineScrape) Fetch(ctx context.Context, _ Params) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.PageURL, nil)
	if err != nil {
		return nil, transientErr(h.Name(), err)
	}
	res, err := h.Client.Do(req)
	if err != nil {
		return nil, transientErr(h.Name(), err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, transientErr(h.Name(), fmt.Errorf("status %d", res.StatusCode))
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, transientErr(h.Name(), err)
	}
	base, err := url.Parse(h.PageURL)
	if err != nil {
		return nil, transientErr(h.Name(), err)
	}

	sel := doc.Find(h.Selector).First()
	title := strings.TrimSpace(sel.Text())
	if title == "" {
		return nil, nil
	}
	link := ""
	if href, ok := sel.Attr("href"); ok {
		if u, err := url.Parse(href); err == nil {
			link = base.ResolveReference(u).String()
		}
	}
	return &Result{News: &NewsItem{Title: title, Link: link}}, nil
}
