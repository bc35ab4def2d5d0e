package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"walletmate/internal/core"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "walletmate.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testTransaction(id string, cents int64, kind core.Kind, occurred time.Time) core.Transaction {
	return core.Transaction{
		ID:           id,
		Title:        "Test " + id,
		Amount:       core.Money{Cents: cents},
		Kind:         kind,
		OccurredAt:   occurred,
		LastModified: occurred,
	}
}

func TestInsertAndGetTransaction(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	occurred := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	tx := testTransaction("t1", 1250, core.Expense, occurred)
	tx.CategoryID = "uncategorized-expense"
	if err := s.InsertTransaction(ctx, tx, nil); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := s.GetTransaction(ctx, "t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Transaction.Amount.Cents != 1250 {
		t.Errorf("expected 1250 cents, got %d", got.Transaction.Amount.Cents)
	}
	if !got.Transaction.OccurredAt.Equal(occurred) {
		t.Errorf("expected occurred_at %v, got %v", occurred, got.Transaction.OccurredAt)
	}
	if got.Category == nil || got.Category.Name != core.UncategorizedName {
		t.Errorf("expected joined seed category, got %+v", got.Category)
	}
}

func TestGetTransactionNotFound(t *testing.T) {
	s := testStore(t)
	_, err := s.GetTransaction(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateTransactionMissing(t *testing.T) {
	s := testStore(t)
	tx := testTransaction("missing", 100, core.Expense, time.Now())
	err := s.UpdateTransaction(context.Background(), tx, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInsertValidates(t *testing.T) {
	s := testStore(t)
	tx := testTransaction("t1", -100, core.Expense, time.Now())
	if err := s.InsertTransaction(context.Background(), tx, nil); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestListRangeBoundsInclusive(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 23, 59, 59, 999e6, time.UTC)

	for _, tx := range []core.Transaction{
		testTransaction("before", 100, core.Expense, start.Add(-time.Millisecond)),
		testTransaction("at-start", 200, core.Expense, start),
		testTransaction("inside", 300, core.Expense, start.AddDate(0, 0, 15)),
		testTransaction("at-end", 400, core.Expense, end),
		testTransaction("after", 500, core.Expense, end.Add(time.Millisecond)),
	} {
		if err := s.InsertTransaction(ctx, tx, nil); err != nil {
			t.Fatalf("insert %s: %v", tx.ID, err)
		}
	}

	got, err := s.ListRange(ctx, start, end)
	if err != nil {
		t.Fatalf("list range: %v", err)
	}
	ids := make(map[string]bool)
	for _, d := range got {
		ids[d.Transaction.ID] = true
	}
	for _, want := range []string{"at-start", "inside", "at-end"} {
		if !ids[want] {
			t.Errorf("expected %s inside range", want)
		}
	}
	if ids["before"] || ids["after"] {
		t.Errorf("out-of-range rows leaked: %v", ids)
	}
}

func TestListAllOrderNewestFirstThenInsertion(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	when := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	// Same timestamp: insertion order breaks the tie.
	for _, id := range []string{"first", "second", "third"} {
		if err := s.InsertTransaction(ctx, testTransaction(id, 100, core.Expense, when), nil); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}
	if err := s.InsertTransaction(ctx, testTransaction("newest", 100, core.Expense, when.Add(time.Hour)), nil); err != nil {
		t.Fatalf("insert newest: %v", err)
	}

	got, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	wantOrder := []string{"newest", "first", "second", "third"}
	if len(got) != len(wantOrder) {
		t.Fatalf("expected %d rows, got %d", len(wantOrder), len(got))
	}
	for i, want := range wantOrder {
		if got[i].Transaction.ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, got[i].Transaction.ID)
		}
	}
}

func TestTagRefsFollowTransaction(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	work := core.Tag{ID: "tag-work", Name: "Work", Color: "#FF0000FF"}
	travel := core.Tag{ID: "tag-travel", Name: "Travel", Color: "#FF00FF00"}
	for _, tg := range []core.Tag{work, travel} {
		if err := s.UpsertTag(ctx, tg); err != nil {
			t.Fatalf("upsert tag: %v", err)
		}
	}

	tx := testTransaction("t1", 5000, core.Expense, time.Now())
	if err := s.InsertTransaction(ctx, tx, []string{work.ID, travel.ID}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := s.GetTransaction(ctx, "t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Tags) != 2 {
		t.Fatalf("expected 2 tags, got %d", len(got.Tags))
	}

	// Update with a narrower tag set replaces the refs.
	tx.LastModified = time.Now()
	if err := s.UpdateTransaction(ctx, tx, []string{travel.ID}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err = s.GetTransaction(ctx, "t1")
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if len(got.Tags) != 1 || got.Tags[0].ID != travel.ID {
		t.Errorf("expected only travel tag, got %+v", got.Tags)
	}

	byTag, err := s.ListByTag(ctx, travel.ID)
	if err != nil {
		t.Fatalf("list by tag: %v", err)
	}
	if len(byTag) != 1 || byTag[0].Transaction.ID != "t1" {
		t.Errorf("expected t1 under travel tag, got %+v", byTag)
	}
}

func TestDeleteTagDetachesTransactions(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	tg := core.Tag{ID: "tag-work", Name: "Work"}
	if err := s.UpsertTag(ctx, tg); err != nil {
		t.Fatalf("upsert tag: %v", err)
	}
	if err := s.InsertTransaction(ctx, testTransaction("t1", 100, core.Expense, time.Now()), []string{tg.ID}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := s.DeleteTag(ctx, tg.ID); err != nil {
		t.Fatalf("delete tag: %v", err)
	}

	got, err := s.GetTransaction(ctx, "t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Tags) != 0 {
		t.Errorf("expected no tags after delete, got %+v", got.Tags)
	}
}

func TestDeleteCategoryLeavesTransactionsUncategorized(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	c := core.Category{ID: "cat-food", Name: "Food", Kind: core.Expense}
	if err := s.UpsertCategory(ctx, c); err != nil {
		t.Fatalf("upsert category: %v", err)
	}
	tx := testTransaction("t1", 100, core.Expense, time.Now())
	tx.CategoryID = c.ID
	if err := s.InsertTransaction(ctx, tx, nil); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := s.DeleteCategory(ctx, c.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}

	got, err := s.GetTransaction(ctx, "t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Transaction.CategoryID != "" || got.Category != nil {
		t.Errorf("expected detached transaction, got category %+v", got.Category)
	}
}

func TestListByTitleSearch(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	titles := map[string]string{
		"t1": "Morning coffee",
		"t2": "Coffee beans",
		"t3": "Lunch",
	}
	for id, title := range titles {
		tx := testTransaction(id, 100, core.Expense, time.Now())
		tx.Title = title
		if err := s.InsertTransaction(ctx, tx, nil); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}

	got, err := s.ListByTitleSearch(ctx, "offee")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
}

func TestTitleCategoryMapLastWriteWins(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.RecordTitleCategory(ctx, "Groceries", "cat-a"); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := s.RecordTitleCategory(ctx, "Groceries", "cat-b"); err != nil {
		t.Fatalf("record: %v", err)
	}

	id, ok, err := s.LookupCategoryForTitle(ctx, "Groceries")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !ok || id != "cat-b" {
		t.Errorf("expected cat-b, got %q ok=%v", id, ok)
	}

	_, ok, err = s.LookupCategoryForTitle(ctx, "Never categorized")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if ok {
		t.Error("expected miss for unknown title")
	}
}

func TestPrefsRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, ok, err := s.GetPref(ctx, "currency")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("expected unset pref")
	}

	if err := s.SetPref(ctx, "currency", "USD"); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, ok, err := s.GetPref(ctx, "currency")
	if err != nil || !ok || value != "USD" {
		t.Errorf("expected USD, got %q ok=%v err=%v", value, ok, err)
	}
}

func TestSeedDefaultsIdempotent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.SeedDefaults(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := s.SeedDefaults(ctx); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	categories, err := s.ListCategories(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(categories) != 2 {
		t.Fatalf("expected exactly the 2 seed categories, got %d", len(categories))
	}
}

func TestClearAllWipesAndReseeds(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.InsertTransaction(ctx, testTransaction("t1", 100, core.Expense, time.Now()), nil); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.UpsertTag(ctx, core.Tag{ID: "tag-work", Name: "Work"}); err != nil {
		t.Fatalf("upsert tag: %v", err)
	}
	if err := s.SetPref(ctx, "currency", "USD"); err != nil {
		t.Fatalf("set pref: %v", err)
	}
	if err := s.RecordTitleCategory(ctx, "Groceries", "cat-a"); err != nil {
		t.Fatalf("record title: %v", err)
	}

	if err := s.ClearAll(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}

	if rows, err := s.ListAll(ctx); err != nil || len(rows) != 0 {
		t.Errorf("expected no transactions, got %d err=%v", len(rows), err)
	}
	if tags, err := s.ListTags(ctx); err != nil || len(tags) != 0 {
		t.Errorf("expected no tags, got %d err=%v", len(tags), err)
	}
	if _, ok, _ := s.GetPref(ctx, "currency"); ok {
		t.Error("expected prefs wiped")
	}
	if _, ok, _ := s.LookupCategoryForTitle(ctx, "Groceries"); ok {
		t.Error("expected title map wiped")
	}

	categories, err := s.ListCategories(ctx)
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(categories) != 2 {
		t.Errorf("expected seed categories restored, got %d", len(categories))
	}
}

func TestStreamAllPushesChanges(t *testing.T) {
	s := testStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := s.StreamAll(ctx)

	// Initial snapshot is empty.
	select {
	case snap := <-stream:
		if len(snap) != 0 {
			t.Fatalf("expected empty initial snapshot, got %d rows", len(snap))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no initial snapshot")
	}

	if err := s.InsertTransaction(ctx, testTransaction("t1", 100, core.Expense, time.Now()), nil); err != nil {
		t.Fatalf("insert: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap := <-stream:
			if len(snap) == 1 && snap[0].Transaction.ID == "t1" {
				return
			}
		case <-deadline:
			t.Fatal("insert never reached the stream")
		}
	}
}

func TestStreamByTagFollowsTagChanges(t *testing.T) {
	s := testStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.UpsertTag(ctx, core.Tag{ID: "tg1", Name: "travel", Color: "#FF0000FF"}); err != nil {
		t.Fatalf("upsert tag: %v", err)
	}

	stream := s.StreamByTag(ctx, "tg1")
	select {
	case snap := <-stream:
		if len(snap) != 0 {
			t.Fatalf("expected empty initial snapshot, got %d rows", len(snap))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no initial snapshot")
	}

	tx := testTransaction("t1", 2500, core.Expense, time.Now())
	if err := s.InsertTransaction(ctx, tx, []string{"tg1"}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap := <-stream:
			if len(snap) == 1 && snap[0].Transaction.ID == "t1" {
				return
			}
		case <-deadline:
			t.Fatal("tagged insert never reached the stream")
		}
	}
}

func TestStreamClosesOnCancel(t *testing.T) {
	s := testStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	stream := s.StreamCategories(ctx)
	<-stream // initial snapshot
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-stream:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("stream not closed after cancel")
		}
	}
}
