package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Expense Kind = "EXPENSE"
	Income  Kind = "INCOME"
)

// DefaultCurrency is the display currency used until the user picks one.
const DefaultCurrency = "EUR"

// UncategorizedName labels the bucket for transactions without a category.
const UncategorizedName = "Uncategorized"

type (
	// Kind discriminates expense and income transactions and categories.
	Kind string

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID            string
		Title         string
		Amount        Money
		Kind          Kind
		OccurredAt    time.Time
		CategoryID    string // empty means uncategorized
		AttachmentRef string // opaque receipt reference, lifecycle owned elsewhere
		LastModified  time.Time
	}

	Category struct {
		ID    string
		Name  string
		Kind  Kind
		Icon  string
		Color string
	}

	Tag struct {
		ID    string
		Name  string
		Color string
	}

	// TransactionDetail is a transaction joined with its category (if any)
	// and tags, the shape every store query returns.
	TransactionDetail struct {
		Transaction Transaction
		Category    *Category
		Tags        []Tag
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidKind   = errors.New("invalid kind")
	ErrEmptyTitle    = errors.New("empty title")
	ErrEmptyName     = errors.New("empty name")
	ErrEmptyID       = errors.New("empty id")
)

func (k Kind) Valid() bool {
	return k == Expense || k == Income
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyID
	}
	if len(strings.TrimSpace(t.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(t.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.OccurredAt.IsZero() {
		return errors.New("occurred at cannot be zero")
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Kind.Valid() {
		return ErrInvalidKind
	}
	return nil
}

func (tg Tag) Validate() error {
	if strings.TrimSpace(tg.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(tg.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// CategoryName returns the joined category's name or the uncategorized label.
func (d TransactionDetail) CategoryName() string {
	if d.Category == nil {
		return UncategorizedName
	}
	return d.Category.Name
}

// HasTag reports whether the detail references the given tag id.
func (d TransactionDetail) HasTag(tagID string) bool {
	for _, tg := range d.Tags {
		if tg.ID == tagID {
			return true
		}
	}
	return false
}
