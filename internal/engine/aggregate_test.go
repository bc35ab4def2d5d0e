package engine

import (
	"testing"
	"time"

	"walletmate/internal/core"
)

var testLoc = time.UTC

func detail(id, title string, cents int64, kind core.Kind, occurred time.Time, category *core.Category, tags ...core.Tag) core.TransactionDetail {
	d := core.TransactionDetail{
		Transaction: core.Transaction{
			ID:         id,
			Title:      title,
			Amount:     core.Money{Cents: cents},
			Kind:       kind,
			OccurredAt: occurred,
		},
		Category: category,
		Tags:     tags,
	}
	if category != nil {
		d.Transaction.CategoryID = category.ID
	}
	return d
}

func TestAggregateEmpty(t *testing.T) {
	agg := NewAggregator(testLoc)
	s := agg.Aggregate(nil, nil, "EUR")

	if s.TotalIncome.Cents != 0 || s.TotalExpense.Cents != 0 || s.Balance.Cents != 0 {
		t.Errorf("expected zero totals, got income=%d expense=%d balance=%d",
			s.TotalIncome.Cents, s.TotalExpense.Cents, s.Balance.Cents)
	}
	if len(s.ExpenseByCategory) != 0 || len(s.IncomeByCategory) != 0 {
		t.Error("expected empty breakdowns")
	}
	if len(s.IncomeTrend) != 0 || len(s.ExpenseTrend) != 0 {
		t.Error("expected empty trends")
	}
	if s.Currency != "EUR" {
		t.Errorf("expected currency EUR, got %q", s.Currency)
	}
}

func TestAggregateTotalsAndBreakdown(t *testing.T) {
	food := &core.Category{ID: "cat-food", Name: "Food", Kind: core.Expense, Color: "#FFFF0000"}
	day1 := time.Date(2024, 3, 1, 10, 0, 0, 0, testLoc)
	day2 := time.Date(2024, 3, 2, 9, 0, 0, 0, testLoc)

	details := []core.TransactionDetail{
		detail("t1", "Lunch", 1000, core.Expense, day1, food),
		detail("t2", "Snack", 500, core.Expense, day1, food),
		detail("t3", "Refund", 2000, core.Income, day2, nil),
	}

	agg := NewAggregator(testLoc)
	s := agg.Aggregate(details, nil, "EUR")

	if s.TotalExpense.Cents != 1500 {
		t.Errorf("expected expense total 1500, got %d", s.TotalExpense.Cents)
	}
	if s.TotalIncome.Cents != 2000 {
		t.Errorf("expected income total 2000, got %d", s.TotalIncome.Cents)
	}
	if s.Balance.Cents != 500 {
		t.Errorf("expected balance 500, got %d", s.Balance.Cents)
	}

	if len(s.ExpenseByCategory) != 1 {
		t.Fatalf("expected 1 expense bucket, got %d", len(s.ExpenseByCategory))
	}
	if b := s.ExpenseByCategory[0]; b.Label != "Food" || b.Total.Cents != 1500 || b.ColorHint != "#FFFF0000" {
		t.Errorf("unexpected expense bucket %+v", b)
	}

	if len(s.IncomeByCategory) != 1 {
		t.Fatalf("expected 1 income bucket, got %d", len(s.IncomeByCategory))
	}
	if b := s.IncomeByCategory[0]; b.Label != core.UncategorizedName || b.ColorHint != core.NeutralColor {
		t.Errorf("unexpected income bucket %+v", b)
	}
	if s.IncomeByCategory[0].Total.Cents != 2000 {
		t.Errorf("expected income bucket total 2000, got %d", s.IncomeByCategory[0].Total.Cents)
	}
}

func TestAggregateBucketOrderFirstEncounter(t *testing.T) {
	rent := &core.Category{ID: "cat-rent", Name: "Rent", Kind: core.Expense}
	food := &core.Category{ID: "cat-food", Name: "Food", Kind: core.Expense}
	day := time.Date(2024, 3, 1, 12, 0, 0, 0, testLoc)

	details := []core.TransactionDetail{
		detail("t1", "March rent", 90000, core.Expense, day, rent),
		detail("t2", "Groceries", 4000, core.Expense, day, food),
		detail("t3", "Dinner", 3000, core.Expense, day, food),
	}

	s := NewAggregator(testLoc).Aggregate(details, nil, "EUR")
	if len(s.ExpenseByCategory) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(s.ExpenseByCategory))
	}
	if s.ExpenseByCategory[0].Label != "Rent" || s.ExpenseByCategory[1].Label != "Food" {
		t.Errorf("expected first-encounter order [Rent Food], got [%s %s]",
			s.ExpenseByCategory[0].Label, s.ExpenseByCategory[1].Label)
	}
	if s.ExpenseByCategory[1].Total.Cents != 7000 {
		t.Errorf("expected Food total 7000, got %d", s.ExpenseByCategory[1].Total.Cents)
	}
}

func TestAggregateDailyTrendSparseAscending(t *testing.T) {
	day1 := time.Date(2024, 3, 1, 23, 30, 0, 0, testLoc)
	day3 := time.Date(2024, 3, 3, 0, 15, 0, 0, testLoc)

	details := []core.TransactionDetail{
		detail("t1", "Lunch", 1000, core.Expense, day3, nil),
		detail("t2", "Coffee", 300, core.Expense, day1, nil),
		detail("t3", "Salary", 5000, core.Income, day3, nil),
	}

	s := NewAggregator(testLoc).Aggregate(details, nil, "EUR")

	wantExpense := []struct {
		day   time.Time
		cents int64
	}{
		{time.Date(2024, 3, 1, 0, 0, 0, 0, testLoc), 300},
		{time.Date(2024, 3, 3, 0, 0, 0, 0, testLoc), 1000},
	}
	if len(s.ExpenseTrend) != len(wantExpense) {
		t.Fatalf("expected %d expense points, got %d", len(wantExpense), len(s.ExpenseTrend))
	}
	for i, want := range wantExpense {
		got := s.ExpenseTrend[i]
		if !got.Day.Equal(want.day) || got.Total.Cents != want.cents {
			t.Errorf("expense point %d: expected %v/%d, got %v/%d",
				i, want.day, want.cents, got.Day, got.Total.Cents)
		}
	}

	// Day 1 had no income, so the income series skips it entirely.
	if len(s.IncomeTrend) != 1 {
		t.Fatalf("expected 1 income point, got %d", len(s.IncomeTrend))
	}
	if !s.IncomeTrend[0].Day.Equal(time.Date(2024, 3, 3, 0, 0, 0, 0, testLoc)) {
		t.Errorf("unexpected income trend day %v", s.IncomeTrend[0].Day)
	}
}

func TestAggregateTrendGroupsByLocation(t *testing.T) {
	rome, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		t.Skip("tzdata unavailable")
	}

	// 23:30 UTC on March 1st is already March 2nd in Rome.
	occurred := time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC)
	details := []core.TransactionDetail{
		detail("t1", "Late snack", 500, core.Expense, occurred, nil),
	}

	s := NewAggregator(rome).Aggregate(details, nil, "EUR")
	if len(s.ExpenseTrend) != 1 {
		t.Fatalf("expected 1 trend point, got %d", len(s.ExpenseTrend))
	}
	want := time.Date(2024, 3, 2, 0, 0, 0, 0, rome)
	if !s.ExpenseTrend[0].Day.Equal(want) {
		t.Errorf("expected day %v, got %v", want, s.ExpenseTrend[0].Day)
	}
}

func TestAggregateTagAnalysis(t *testing.T) {
	work := core.Tag{ID: "tag-work", Name: "Work"}
	travel := core.Tag{ID: "tag-travel", Name: "Travel"}
	unused := core.Tag{ID: "tag-unused", Name: "Unused"}
	day := time.Date(2024, 3, 1, 12, 0, 0, 0, testLoc)

	details := []core.TransactionDetail{
		detail("t1", "Flight", 12000, core.Expense, day, nil, travel),
		detail("t2", "Hotel", 8000, core.Expense, day, nil, travel, work),
		detail("t3", "Laptop", 3000, core.Expense, day, nil, work),
	}

	s := NewAggregator(testLoc).Aggregate(details, []core.Tag{work, travel, unused}, "EUR")

	if len(s.TagAnalysis) != 2 {
		t.Fatalf("expected 2 tag summaries, got %d", len(s.TagAnalysis))
	}
	// Travel 20000 outranks Work 11000; Unused is dropped.
	if s.TagAnalysis[0].Tag.ID != "tag-travel" || s.TagAnalysis[0].Total.Cents != 20000 || s.TagAnalysis[0].Count != 2 {
		t.Errorf("unexpected first tag summary %+v", s.TagAnalysis[0])
	}
	if s.TagAnalysis[1].Tag.ID != "tag-work" || s.TagAnalysis[1].Total.Cents != 11000 || s.TagAnalysis[1].Count != 2 {
		t.Errorf("unexpected second tag summary %+v", s.TagAnalysis[1])
	}
}
