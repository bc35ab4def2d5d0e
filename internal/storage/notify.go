package storage

import (
	"context"
	"sync"
)

// notifier is a broadcast hub for data-change signals. Subscriber channels
// are buffered with capacity one so rapid mutations coalesce instead of
// blocking writers.
type notifier struct {
	mu   sync.Mutex
	subs map[int]chan struct{}
	next int
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[int]chan struct{})}
}

func (n *notifier) subscribe() (int, <-chan struct{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.next
	n.next++
	ch := make(chan struct{}, 1)
	n.subs[id] = ch
	return id, ch
}

func (n *notifier) unsubscribe(id int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.subs, id)
}

func (n *notifier) broadcast() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs {
		select {
		case ch <- struct{}{}:
		default: // a pending signal already covers this change
		}
	}
}

// liveQuery pushes a fresh snapshot immediately and again after every
// data change, until ctx is cancelled. The returned channel is closed on
// cancellation; query errors end the stream.
func liveQuery[T any](ctx context.Context, n *notifier, query func(context.Context) (T, error)) <-chan T {
	out := make(chan T)
	id, changes := n.subscribe()

	go func() {
		defer close(out)
		defer n.unsubscribe(id)

		for {
			snap, err := query(ctx)
			if err != nil {
				return
			}
			select {
			case out <- snap:
			case <-ctx.Done():
				return
			}

			select {
			case <-changes:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
