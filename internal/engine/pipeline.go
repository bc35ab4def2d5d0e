package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"walletmate/internal/core"
	"walletmate/internal/log"
	"walletmate/internal/period"
)

const (
	TypeAll     TypeFilter = "ALL"
	TypeIncome  TypeFilter = "INCOME"
	TypeExpense TypeFilter = "EXPENSE"
)

type (
	// TypeFilter narrows the visible transaction list by kind. It is
	// applied in memory after query results arrive, never pushed down to
	// the store.
	TypeFilter string

	// RecordStreamer is the live-query surface of the record store.
	RecordStreamer interface {
		StreamAll(ctx context.Context) <-chan []core.TransactionDetail
		StreamRange(ctx context.Context, start, end time.Time) <-chan []core.TransactionDetail
		StreamByTitleSearch(ctx context.Context, text string) <-chan []core.TransactionDetail
		StreamTags(ctx context.Context) <-chan []core.Tag
	}

	// CurrencyStreamer pushes the display currency and its changes.
	CurrencyStreamer interface {
		StreamCurrency(ctx context.Context) <-chan string
	}

	// Snapshot is what a screen renders: the aggregated summary plus the
	// type-filtered transaction list, newest first.
	Snapshot struct {
		Summary      Summary
		Transactions []core.TransactionDetail
		Generation   uint64
	}

	// Pipeline reacts to filter changes and store change notifications,
	// keeping the latest Snapshot in line with the latest inputs. A
	// generation counter gives switch semantics: results of a superseded
	// query are discarded, never applied.
	Pipeline struct {
		store    RecordStreamer
		currency CurrencyStreamer
		resolver period.Resolver
		agg      Aggregator
		logger   *log.Logger
		now      func() time.Time

		mu          sync.Mutex
		ctx         context.Context
		gen         uint64
		cancelQuery context.CancelFunc

		periodFilter period.Filter
		customStart  *time.Time
		customEnd    *time.Time
		typeFilter   TypeFilter
		search       string

		tags        []core.Tag
		cur         string
		details     []core.TransactionDetail
		haveDetails bool

		out chan Snapshot
	}
)

func (f TypeFilter) Valid() bool {
	return f == TypeAll || f == TypeIncome || f == TypeExpense
}

// ParseTypeFilter maps a request parameter to a TypeFilter; empty means
// no narrowing.
func ParseTypeFilter(s string) (TypeFilter, error) {
	if s == "" {
		return TypeAll, nil
	}
	f := TypeFilter(strings.ToUpper(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("unknown type filter %q", s)
	}
	return f, nil
}

func NewPipeline(store RecordStreamer, currency CurrencyStreamer, resolver period.Resolver, agg Aggregator, logger *log.Logger) *Pipeline {
	return &Pipeline{
		store:        store,
		currency:     currency,
		resolver:     resolver,
		agg:          agg,
		logger:       logger.WithComponent(log.ComponentPipeline),
		now:          time.Now,
		periodFilter: period.ThisMonth,
		typeFilter:   TypeAll,
		cur:          core.DefaultCurrency,
		out:          make(chan Snapshot, 1),
	}
}

// Snapshots returns the output channel. It always holds at most the
// latest snapshot; slow consumers only ever miss intermediate states.
func (p *Pipeline) Snapshots() <-chan Snapshot {
	return p.out
}

// Start subscribes to the store and begins deriving snapshots. It runs
// until ctx is cancelled.
func (p *Pipeline) Start(ctx context.Context) {
	p.mu.Lock()
	p.ctx = ctx
	p.restartQueryLocked()
	p.mu.Unlock()

	go p.watchTags(ctx)
	if p.currency != nil {
		go p.watchCurrency(ctx)
	}
}

// SetPeriod changes the period selection. A Custom filter requires both
// bounds; period.ErrInvalidFilterState is returned and the previous
// selection stays active otherwise.
func (p *Pipeline) SetPeriod(f period.Filter, customStart, customEnd *time.Time) error {
	if f == period.Custom && (customStart == nil || customEnd == nil) {
		return period.ErrInvalidFilterState
	}
	if !f.Valid() {
		return fmt.Errorf("unknown period filter %q", f)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.periodFilter == f && equalBound(p.customStart, customStart) && equalBound(p.customEnd, customEnd) {
		return nil
	}
	p.periodFilter = f
	p.customStart = customStart
	p.customEnd = customEnd
	p.restartQueryLocked()
	return nil
}

// SetTypeFilter narrows the visible list by kind. No re-query: the
// filter is in-memory only.
func (p *Pipeline) SetTypeFilter(f TypeFilter) error {
	if !f.Valid() {
		return fmt.Errorf("unknown type filter %q", f)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.typeFilter == f {
		return nil
	}
	p.typeFilter = f
	p.recomputeLocked()
	return nil
}

// SetSearch switches between search mode and period mode. A non-empty
// query spans all time and overrides the period selection entirely.
func (p *Pipeline) SetSearch(query string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.search == query {
		return
	}
	p.search = query
	p.restartQueryLocked()
}

// restartQueryLocked supersedes any in-flight query and subscribes to
// the stream matching the current inputs. Callers hold p.mu.
func (p *Pipeline) restartQueryLocked() {
	if p.ctx == nil {
		return // not started yet
	}

	p.gen++
	gen := p.gen
	p.haveDetails = false

	if p.cancelQuery != nil {
		p.cancelQuery()
	}
	queryCtx, cancel := context.WithCancel(p.ctx)
	p.cancelQuery = cancel

	var stream <-chan []core.TransactionDetail
	switch {
	case p.search != "":
		stream = p.store.StreamByTitleSearch(queryCtx, p.search)
	case p.periodFilter == period.AllTime:
		stream = p.store.StreamAll(queryCtx)
	default:
		r, err := p.resolver.Resolve(p.periodFilter, p.now(), p.customStart, p.customEnd)
		if err != nil {
			// SetPeriod validates Custom bounds, so this is unreachable;
			// fall back to the unfiltered query rather than going dark.
			p.logger.Error("Period resolution failed", log.FieldError, err, log.FieldPeriod, string(p.periodFilter))
			stream = p.store.StreamAll(queryCtx)
			break
		}
		if r.Unbounded() {
			stream = p.store.StreamAll(queryCtx)
		} else {
			stream = p.store.StreamRange(queryCtx, r.Start, r.End)
		}
	}

	go p.consume(gen, stream)
}

func (p *Pipeline) consume(gen uint64, stream <-chan []core.TransactionDetail) {
	for details := range stream {
		p.mu.Lock()
		if gen != p.gen {
			// Superseded while in flight; the stale result must never
			// reach the snapshot.
			p.logger.Debug("Discarding stale query result",
				log.FieldGeneration, gen)
			p.mu.Unlock()
			return
		}
		p.details = details
		p.haveDetails = true
		p.recomputeLocked()
		p.mu.Unlock()
	}
}

// Category names reach the snapshot through the joined detail rows, so
// there is no separate category watcher: a category change triggers the
// store notifier and the detail stream re-queries.
func (p *Pipeline) watchTags(ctx context.Context) {
	for tags := range p.store.StreamTags(ctx) {
		p.mu.Lock()
		p.tags = tags
		p.recomputeLocked()
		p.mu.Unlock()
	}
}

func (p *Pipeline) watchCurrency(ctx context.Context) {
	for cur := range p.currency.StreamCurrency(ctx) {
		p.mu.Lock()
		p.cur = cur
		p.recomputeLocked()
		p.mu.Unlock()
	}
}

// recomputeLocked rebuilds the snapshot from the cached inputs and
// publishes it. Callers hold p.mu.
func (p *Pipeline) recomputeLocked() {
	if !p.haveDetails {
		return
	}

	// Totals and breakdowns cover the whole result set; the type filter
	// narrows only the visible list.
	summary := p.agg.Aggregate(p.details, p.tags, p.cur)

	visible := filterByType(p.details, p.typeFilter)
	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].Transaction.OccurredAt.After(visible[j].Transaction.OccurredAt)
	})

	p.publish(Snapshot{
		Summary:      summary,
		Transactions: visible,
		Generation:   p.gen,
	})
}

// publish replaces whatever snapshot is waiting in the channel.
func (p *Pipeline) publish(s Snapshot) {
	for {
		select {
		case p.out <- s:
			return
		default:
		}
		select {
		case <-p.out:
		default:
		}
	}
}

func filterByType(details []core.TransactionDetail, f TypeFilter) []core.TransactionDetail {
	if f == TypeAll {
		out := make([]core.TransactionDetail, len(details))
		copy(out, details)
		return out
	}
	var out []core.TransactionDetail
	for _, d := range details {
		if string(d.Transaction.Kind) == string(f) {
			out = append(out, d)
		}
	}
	return out
}

func equalBound(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
