package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"walletmate/internal/core"
	"walletmate/internal/log"
)

type (
	// TitleMemory is the persistent title to category association table.
	TitleMemory interface {
		LookupCategoryForTitle(ctx context.Context, title string) (string, bool, error)
		RecordTitleCategory(ctx context.Context, title, categoryID string) error
	}

	// CategoryLister resolves category ids to full records.
	CategoryLister interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
	}

	// Suggester proposes a category for a transaction title based on past
	// categorizations. Lookups go through a short-lived cache so typing
	// the same title repeatedly does not hammer the store.
	Suggester struct {
		memory     TitleMemory
		categories CategoryLister
		cache      *cache.Cache
		logger     *log.Logger
	}
)

func NewSuggester(memory TitleMemory, categories CategoryLister, ttl time.Duration, logger *log.Logger) *Suggester {
	return &Suggester{
		memory:     memory,
		categories: categories,
		cache:      cache.New(ttl, 2*ttl),
		logger:     logger.WithComponent(log.ComponentEngine),
	}
}

// Suggest returns the remembered category for a title, or nil when the
// title is unknown, the category no longer exists, or its kind does not
// match the transaction being edited.
func (s *Suggester) Suggest(ctx context.Context, title string, kind core.Kind) (*core.Category, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil
	}

	categoryID, ok, err := s.lookup(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("lookup title %q: %w", title, err)
	}
	if !ok {
		return nil, nil
	}

	categories, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve suggested category: %w", err)
	}
	for _, c := range categories {
		if c.ID == categoryID {
			if c.Kind != kind {
				// Remembered under the other kind; suggesting it here
				// would flip an expense category onto an income row.
				return nil, nil
			}
			found := c
			return &found, nil
		}
	}
	return nil, nil
}

// Remember records that a title was filed under a category. Last write
// wins; empty titles and ids are ignored.
func (s *Suggester) Remember(ctx context.Context, title, categoryID string) error {
	title = strings.TrimSpace(title)
	if title == "" || categoryID == "" {
		return nil
	}
	if err := s.memory.RecordTitleCategory(ctx, title, categoryID); err != nil {
		return fmt.Errorf("remember title %q: %w", title, err)
	}
	s.cache.Set(title, categoryID, cache.DefaultExpiration)
	s.logger.Debug("Title association recorded",
		log.FieldTitle, title, log.FieldCategoryID, categoryID)
	return nil
}

func (s *Suggester) lookup(ctx context.Context, title string) (string, bool, error) {
	if cached, ok := s.cache.Get(title); ok {
		id := cached.(string)
		return id, id != "", nil
	}
	id, ok, err := s.memory.LookupCategoryForTitle(ctx, title)
	if err != nil {
		return "", false, err
	}
	if !ok {
		// Negative entries are cached too so unknown titles stay cheap.
		s.cache.Set(title, "", cache.DefaultExpiration)
		return "", false, nil
	}
	s.cache.Set(title, id, cache.DefaultExpiration)
	return id, true, nil
}

// EditSession tracks one transaction form being edited. Title keystrokes
// feed a debounced suggestion lookup; a category picked by hand is not
// overwritten by later suggestions unless override is enabled.
type EditSession struct {
	suggester *Suggester
	debouncer *Debouncer
	override  bool
	onSuggest func(core.Category)

	mu         sync.Mutex
	kind       core.Kind
	categoryID string
	manual     bool
}

// NewEditSession wires a form to the suggester. onSuggest is invoked
// from a timer goroutine whenever a suggestion is applied.
func NewEditSession(suggester *Suggester, settle time.Duration, override bool, onSuggest func(core.Category)) *EditSession {
	return &EditSession{
		suggester: suggester,
		debouncer: NewDebouncer(settle),
		override:  override,
		onSuggest: onSuggest,
		kind:      core.Expense,
	}
}

func (e *EditSession) SetKind(kind core.Kind) {
	e.mu.Lock()
	e.kind = kind
	e.mu.Unlock()
}

// SelectCategory records an explicit user choice. It pins the category
// against future suggestions unless override mode is on.
func (e *EditSession) SelectCategory(categoryID string) {
	e.mu.Lock()
	e.categoryID = categoryID
	e.manual = true
	e.mu.Unlock()
}

// CategoryID returns the currently effective category selection.
func (e *EditSession) CategoryID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.categoryID
}

// TitleChanged feeds a keystroke. Once the title settles, the remembered
// category is looked up and applied if the form allows it.
func (e *EditSession) TitleChanged(ctx context.Context, title string) {
	e.debouncer.Trigger(func() {
		e.mu.Lock()
		kind := e.kind
		skip := e.manual && !e.override
		e.mu.Unlock()
		if skip {
			return
		}

		suggestion, err := e.suggester.Suggest(ctx, title, kind)
		if err != nil || suggestion == nil {
			return
		}

		e.mu.Lock()
		if e.manual && !e.override {
			e.mu.Unlock()
			return
		}
		e.categoryID = suggestion.ID
		e.mu.Unlock()
		if e.onSuggest != nil {
			e.onSuggest(*suggestion)
		}
	})
}

// Close cancels any pending lookup.
func (e *EditSession) Close() {
	e.debouncer.Stop()
}
