package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"walletmate/internal/core"
	"walletmate/internal/engine"
)

type (
	errorResponse struct {
		Error string `json:"error"`
	}

	categoryDTO struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Kind  string `json:"kind"`
		Icon  string `json:"icon,omitempty"`
		Color string `json:"color,omitempty"`
	}

	tagDTO struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Color string `json:"color,omitempty"`
	}

	transactionDTO struct {
		ID            string       `json:"id"`
		Title         string       `json:"title"`
		AmountCents   int64        `json:"amount_cents"`
		Amount        float64      `json:"amount"`
		Kind          string       `json:"kind"`
		OccurredAt    time.Time    `json:"occurred_at"`
		Category      *categoryDTO `json:"category,omitempty"`
		Tags          []tagDTO     `json:"tags,omitempty"`
		AttachmentRef string       `json:"attachment_ref,omitempty"`
		LastModified  time.Time    `json:"last_modified"`
	}

	bucketDTO struct {
		Label       string  `json:"label"`
		ColorHint   string  `json:"color_hint"`
		AmountCents int64   `json:"amount_cents"`
		Amount      float64 `json:"amount"`
	}

	trendPointDTO struct {
		Day         string `json:"day"`
		AmountCents int64  `json:"amount_cents"`
	}

	tagSummaryDTO struct {
		Tag         tagDTO `json:"tag"`
		Count       int    `json:"count"`
		AmountCents int64  `json:"amount_cents"`
	}

	summaryDTO struct {
		TotalIncomeCents  int64           `json:"total_income_cents"`
		TotalExpenseCents int64           `json:"total_expense_cents"`
		BalanceCents      int64           `json:"balance_cents"`
		ExpenseByCategory []bucketDTO     `json:"expense_by_category"`
		IncomeByCategory  []bucketDTO     `json:"income_by_category"`
		IncomeTrend       []trendPointDTO `json:"income_trend"`
		ExpenseTrend      []trendPointDTO `json:"expense_trend"`
		TagAnalysis       []tagSummaryDTO `json:"tag_analysis"`
		Currency          string          `json:"currency"`
	}
)

func toCategoryDTO(c core.Category) categoryDTO {
	return categoryDTO{ID: c.ID, Name: c.Name, Kind: string(c.Kind), Icon: c.Icon, Color: c.Color}
}

func toTagDTO(t core.Tag) tagDTO {
	return tagDTO{ID: t.ID, Name: t.Name, Color: t.Color}
}

func toTransactionDTO(d core.TransactionDetail) transactionDTO {
	dto := transactionDTO{
		ID:            d.Transaction.ID,
		Title:         d.Transaction.Title,
		AmountCents:   d.Transaction.Amount.Cents,
		Amount:        d.Transaction.Amount.Units(),
		Kind:          string(d.Transaction.Kind),
		OccurredAt:    d.Transaction.OccurredAt,
		AttachmentRef: d.Transaction.AttachmentRef,
		LastModified:  d.Transaction.LastModified,
	}
	if d.Category != nil {
		c := toCategoryDTO(*d.Category)
		dto.Category = &c
	}
	for _, tg := range d.Tags {
		dto.Tags = append(dto.Tags, toTagDTO(tg))
	}
	return dto
}

func toTransactionDTOs(details []core.TransactionDetail) []transactionDTO {
	out := make([]transactionDTO, 0, len(details))
	for _, d := range details {
		out = append(out, toTransactionDTO(d))
	}
	return out
}

func toSummaryDTO(s engine.Summary) summaryDTO {
	dto := summaryDTO{
		TotalIncomeCents:  s.TotalIncome.Cents,
		TotalExpenseCents: s.TotalExpense.Cents,
		BalanceCents:      s.Balance.Cents,
		ExpenseByCategory: toBucketDTOs(s.ExpenseByCategory),
		IncomeByCategory:  toBucketDTOs(s.IncomeByCategory),
		IncomeTrend:       toTrendDTOs(s.IncomeTrend),
		ExpenseTrend:      toTrendDTOs(s.ExpenseTrend),
		Currency:          s.Currency,
	}
	for _, ts := range s.TagAnalysis {
		dto.TagAnalysis = append(dto.TagAnalysis, tagSummaryDTO{
			Tag:         toTagDTO(ts.Tag),
			Count:       ts.Count,
			AmountCents: ts.Total.Cents,
		})
	}
	return dto
}

func toBucketDTOs(buckets []engine.CategoryBucket) []bucketDTO {
	out := make([]bucketDTO, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, bucketDTO{
			Label:       b.Label,
			ColorHint:   b.ColorHint,
			AmountCents: b.Total.Cents,
			Amount:      b.Total.Units(),
		})
	}
	return out
}

func toTrendDTOs(points []engine.TrendPoint) []trendPointDTO {
	out := make([]trendPointDTO, 0, len(points))
	for _, p := range points {
		out = append(out, trendPointDTO{
			Day:         p.Day.Format("2006-01-02"),
			AmountCents: p.Total.Cents,
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// sanitizeInput trims whitespace and strips control characters.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
