package news

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

type stubSource struct {
	items []Item
	err   error
	calls int
}

func (s *stubSource) Fetch(ctx context.Context) ([]Item, error) {
	s.calls++
	return s.items, s.err
}

func at(hour int) time.Time {
	return time.Date(2024, 3, 1, hour, 0, 0, 0, time.UTC)
}

func TestHeadlinesMergedNewestFirst(t *testing.T) {
	a := NewAggregator(zap.NewNop(), []Source{
		&stubSource{items: []Item{{Title: "old", PublishedAt: at(8)}, {Title: "newest", PublishedAt: at(12)}}},
		&stubSource{items: []Item{{Title: "middle", PublishedAt: at(10)}}},
	}, time.Minute, 50)

	got := a.Headlines(context.Background())
	if len(got) != 3 {
		t.Fatalf("got %d items, want 3", len(got))
	}
	want := []string{"newest", "middle", "old"}
	for i, title := range want {
		if got[i].Title != title {
			t.Fatalf("item %d = %q, want %q", i, got[i].Title, title)
		}
	}
}

func TestHeadlinesCached(t *testing.T) {
	src := &stubSource{items: []Item{{Title: "a", PublishedAt: at(9)}}}
	a := NewAggregator(zap.NewNop(), []Source{src}, time.Minute, 50)

	a.Headlines(context.Background())
	a.Headlines(context.Background())
	if src.calls != 1 {
		t.Fatalf("source fetched %d times, want 1", src.calls)
	}
}

func TestHeadlinesDegradesOnFailure(t *testing.T) {
	a := NewAggregator(zap.NewNop(), []Source{
		&stubSource{err: errors.New("feed down")},
		&stubSource{items: []Item{{Title: "survivor", PublishedAt: at(9)}}},
	}, time.Minute, 50)

	got := a.Headlines(context.Background())
	if len(got) != 1 || got[0].Title != "survivor" {
		t.Fatalf("unexpected items: %+v", got)
	}
}

func TestHeadlinesAllFailedReturnsEmpty(t *testing.T) {
	a := NewAggregator(zap.NewNop(), []Source{
		&stubSource{err: errors.New("feed down")},
	}, time.Minute, 50)

	got := a.Headlines(context.Background())
	if got == nil || len(got) != 0 {
		t.Fatalf("want empty non-nil slice, got %v", got)
	}
}

func TestHeadlinesLimit(t *testing.T) {
	items := make([]Item, 10)
	for i := range items {
		items[i] = Item{Title: "t", PublishedAt: at(i)}
	}
	a := NewAggregator(zap.NewNop(), []Source{&stubSource{items: items}}, time.Minute, 3)

	if got := a.Headlines(context.Background()); len(got) != 3 {
		t.Fatalf("got %d items, want 3", len(got))
	}
}
