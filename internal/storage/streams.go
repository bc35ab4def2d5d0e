package storage

import (
	"context"
	"time"

	"walletmate/internal/core"
)

// Live streams: each returns an immediate snapshot followed by a fresh
// one after every data change, until ctx is cancelled. Consumers hold no
// polling loop; coalescing in the notifier bounds the re-query rate.

func (s *Store) StreamAll(ctx context.Context) <-chan []core.TransactionDetail {
	return liveQuery(ctx, s.notifier, s.ListAll)
}

func (s *Store) StreamRange(ctx context.Context, start, end time.Time) <-chan []core.TransactionDetail {
	return liveQuery(ctx, s.notifier, func(ctx context.Context) ([]core.TransactionDetail, error) {
		return s.ListRange(ctx, start, end)
	})
}

func (s *Store) StreamByTag(ctx context.Context, tagID string) <-chan []core.TransactionDetail {
	return liveQuery(ctx, s.notifier, func(ctx context.Context) ([]core.TransactionDetail, error) {
		return s.ListByTag(ctx, tagID)
	})
}

func (s *Store) StreamByTitleSearch(ctx context.Context, text string) <-chan []core.TransactionDetail {
	return liveQuery(ctx, s.notifier, func(ctx context.Context) ([]core.TransactionDetail, error) {
		return s.ListByTitleSearch(ctx, text)
	})
}

func (s *Store) StreamCategories(ctx context.Context) <-chan []core.Category {
	return liveQuery(ctx, s.notifier, s.ListCategories)
}

func (s *Store) StreamTags(ctx context.Context) <-chan []core.Tag {
	return liveQuery(ctx, s.notifier, s.ListTags)
}
