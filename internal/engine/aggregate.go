// Package engine derives summary snapshots from transaction records: the
// totals, breakdowns, trend series and tag analysis behind the dashboard
// and analytics views.
package engine

import (
	"sort"
	"time"

	"walletmate/internal/core"
)

type (
	// Summary is an immutable aggregation snapshot. Currency is a display
	// label copied through verbatim; no conversion happens here.
	Summary struct {
		TotalIncome  core.Money
		TotalExpense core.Money
		Balance      core.Money

		ExpenseByCategory []CategoryBucket
		IncomeByCategory  []CategoryBucket

		IncomeTrend  []TrendPoint
		ExpenseTrend []TrendPoint

		TagAnalysis []TagSummary

		Currency string
	}

	// CategoryBucket is one slice of a per-kind category breakdown.
	CategoryBucket struct {
		Label     string
		ColorHint string
		Total     core.Money
	}

	// TrendPoint is a per-day sum; Day is the day's midnight instant.
	TrendPoint struct {
		Day   time.Time
		Total core.Money
	}

	// TagSummary counts and sums the transactions referencing one tag.
	TagSummary struct {
		Tag   core.Tag
		Count int
		Total core.Money
	}

	// Aggregator computes summaries. Loc decides where calendar days
	// begin for the trend series.
	Aggregator struct {
		Loc *time.Location
	}
)

func NewAggregator(loc *time.Location) Aggregator {
	if loc == nil {
		loc = time.Local
	}
	return Aggregator{Loc: loc}
}

// Aggregate computes a Summary from a snapshot of joined transactions and
// the current tag collection. It is pure and never fails: empty or
// partially-null input degrades to empty sections.
func (a Aggregator) Aggregate(details []core.TransactionDetail, tags []core.Tag, currency string) Summary {
	s := Summary{Currency: currency}

	for _, d := range details {
		switch d.Transaction.Kind {
		case core.Income:
			s.TotalIncome.Cents += d.Transaction.Amount.Cents
		case core.Expense:
			s.TotalExpense.Cents += d.Transaction.Amount.Cents
		}
	}
	s.Balance.Cents = s.TotalIncome.Cents - s.TotalExpense.Cents

	s.ExpenseByCategory = a.categoryBreakdown(details, core.Expense)
	s.IncomeByCategory = a.categoryBreakdown(details, core.Income)
	s.IncomeTrend, s.ExpenseTrend = a.dailyTrend(details)
	s.TagAnalysis = a.tagAnalysis(details, tags)

	return s
}

// categoryBreakdown groups the given kind's transactions by category and
// sums each group. Buckets keep first-encounter order; transactions
// without a category land in the uncategorized bucket.
func (a Aggregator) categoryBreakdown(details []core.TransactionDetail, kind core.Kind) []CategoryBucket {
	var buckets []CategoryBucket
	index := make(map[string]int)

	for _, d := range details {
		if d.Transaction.Kind != kind {
			continue
		}
		key := d.Transaction.CategoryID // empty key = uncategorized
		i, ok := index[key]
		if !ok {
			color := core.NeutralColor
			if d.Category != nil {
				color = core.ColorOrNeutral(d.Category.Color)
			}
			buckets = append(buckets, CategoryBucket{
				Label:     d.CategoryName(),
				ColorHint: color,
			})
			i = len(buckets) - 1
			index[key] = i
		}
		buckets[i].Total.Cents += d.Transaction.Amount.Cents
	}
	return buckets
}

// dailyTrend groups transactions by calendar day and sums income and
// expense separately. Days with no transactions of a kind are omitted
// from that kind's series; both series are ordered by day ascending.
func (a Aggregator) dailyTrend(details []core.TransactionDetail) (income, expense []TrendPoint) {
	type daySums struct {
		income  int64
		expense int64
	}
	sums := make(map[time.Time]*daySums)

	for _, d := range details {
		occurred := d.Transaction.OccurredAt.In(a.Loc)
		day := time.Date(occurred.Year(), occurred.Month(), occurred.Day(), 0, 0, 0, 0, a.Loc)
		ds, ok := sums[day]
		if !ok {
			ds = &daySums{}
			sums[day] = ds
		}
		switch d.Transaction.Kind {
		case core.Income:
			ds.income += d.Transaction.Amount.Cents
		case core.Expense:
			ds.expense += d.Transaction.Amount.Cents
		}
	}

	days := make([]time.Time, 0, len(sums))
	for day := range sums {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	for _, day := range days {
		ds := sums[day]
		if ds.income > 0 {
			income = append(income, TrendPoint{Day: day, Total: core.Money{Cents: ds.income}})
		}
		if ds.expense > 0 {
			expense = append(expense, TrendPoint{Day: day, Total: core.Money{Cents: ds.expense}})
		}
	}
	return income, expense
}

// tagAnalysis counts and sums the transactions referencing each tag
// within the given set. Tags with no matches are excluded; the result is
// ordered by total descending.
func (a Aggregator) tagAnalysis(details []core.TransactionDetail, tags []core.Tag) []TagSummary {
	var result []TagSummary
	for _, tg := range tags {
		var ts TagSummary
		ts.Tag = tg
		for _, d := range details {
			if d.HasTag(tg.ID) {
				ts.Count++
				ts.Total.Cents += d.Transaction.Amount.Cents
			}
		}
		if ts.Count > 0 {
			result = append(result, ts)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Total.Cents > result[j].Total.Cents
	})
	return result
}
