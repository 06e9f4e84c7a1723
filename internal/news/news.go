// Package news aggregates market-news headlines from RSS feeds. Feed
// failures degrade to whatever could be fetched; the journal never blocks
// on a news outage.
package news

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
)

// Item is one headline.
type Item struct {
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"publishedAt"`
}

// Source fetches headlines from one feed.
type Source interface {
	Fetch(ctx context.Context) ([]Item, error)
}

// RSSSource fetches and normalizes one RSS/Atom feed via gofeed.
type RSSSource struct {
	name   string
	url    string
	parser *gofeed.Parser
}

// NewRSSSource creates a source for the given feed URL. name labels items
// in the aggregated output.
func NewRSSSource(name, url string) *RSSSource {
	return &RSSSource{name: name, url: url, parser: gofeed.NewParser()}
}

func (s *RSSSource) Fetch(ctx context.Context) ([]Item, error) {
	feed, err := s.parser.ParseURLWithContext(s.url, ctx)
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(feed.Items))
	for _, entry := range feed.Items {
		item := Item{
			Title:  entry.Title,
			Link:   entry.Link,
			Source: s.name,
		}
		if entry.PublishedParsed != nil {
			item.PublishedAt = *entry.PublishedParsed
		} else if entry.UpdatedParsed != nil {
			item.PublishedAt = *entry.UpdatedParsed
		}
		items = append(items, item)
	}
	return items, nil
}

// Aggregator fans out to all sources and caches the merged result.
type Aggregator struct {
	logger  *zap.Logger
	sources []Source
	ttl     time.Duration
	limit   int

	mu        sync.Mutex
	cached    []Item
	fetchedAt time.Time
}

// NewAggregator creates an aggregator. A non-positive ttl defaults to
// 5 minutes, a non-positive limit to 50 headlines.
func NewAggregator(logger *zap.Logger, sources []Source, ttl time.Duration, limit int) *Aggregator {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if limit <= 0 {
		limit = 50
	}
	return &Aggregator{logger: logger, sources: sources, ttl: ttl, limit: limit}
}

// Headlines returns the newest headlines across all sources, newest first.
// Results are served from cache within the TTL. Individual feed failures
// are logged and skipped.
func (a *Aggregator) Headlines(ctx context.Context) []Item {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cached != nil && time.Since(a.fetchedAt) < a.ttl {
		return a.cached
	}

	var merged []Item
	for _, src := range a.sources {
		items, err := src.Fetch(ctx)
		if err != nil {
			a.logger.Warn("news feed fetch failed", zap.Error(err))
			continue
		}
		merged = append(merged, items...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].PublishedAt.After(merged[j].PublishedAt)
	})
	if len(merged) > a.limit {
		merged = merged[:a.limit]
	}
	if merged == nil {
		merged = []Item{}
	}
	a.cached = merged
	a.fetchedAt = time.Now()
	return merged
}
