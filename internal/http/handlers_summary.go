package http

import (
	"fmt"
	"net/http"
	"time"

	"walletmate/internal/core"
	"walletmate/internal/engine"
	"walletmate/internal/period"
)

type summaryResponse struct {
	Summary      summaryDTO       `json:"summary"`
	Transactions []transactionDTO `json:"transactions"`
}

// handleSummary is the one-shot counterpart of the live pipeline: it
// resolves the requested filters, queries the store once and aggregates.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	details, status, err := s.queryTransactions(r)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}

	typeFilter, err := engine.ParseTypeFilter(r.URL.Query().Get("type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tags, err := s.store.ListTags(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	currency, err := s.currency.Currency(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	// Totals cover the full result set; the type filter narrows only
	// the returned list.
	summary := s.agg.Aggregate(details, tags, currency)

	visible := details
	if typeFilter != engine.TypeAll {
		visible = nil
		for _, d := range details {
			if string(d.Transaction.Kind) == string(typeFilter) {
				visible = append(visible, d)
			}
		}
	}

	writeJSON(w, http.StatusOK, summaryResponse{
		Summary:      toSummaryDTO(summary),
		Transactions: toTransactionDTOs(visible),
	})
}

// queryTransactions resolves the period/search parameters shared by the
// list and summary endpoints. A non-empty q overrides the period and
// searches across all time.
func (s *Server) queryTransactions(r *http.Request) ([]core.TransactionDetail, int, error) {
	ctx := r.Context()
	q := r.URL.Query()

	if text := q.Get("q"); text != "" {
		details, err := s.store.ListByTitleSearch(ctx, text)
		if err != nil {
			return nil, http.StatusInternalServerError, fmt.Errorf("search transactions: %w", err)
		}
		return details, http.StatusOK, nil
	}

	filter, err := period.ParseFilter(q.Get("period"))
	if err != nil {
		return nil, http.StatusBadRequest, err
	}

	customStart, err := parseBound(q.Get("start"), false)
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("invalid start: %w", err)
	}
	customEnd, err := parseBound(q.Get("end"), true)
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("invalid end: %w", err)
	}

	rng, err := s.resolver.Resolve(filter, time.Now(), customStart, customEnd)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}

	var details []core.TransactionDetail
	if rng.Unbounded() {
		details, err = s.store.ListAll(ctx)
	} else {
		details, err = s.store.ListRange(ctx, rng.Start, rng.End)
	}
	if err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("query transactions: %w", err)
	}
	return details, http.StatusOK, nil
}

// parseBound accepts RFC 3339 instants or plain dates. A plain date
// expands to the day's first or last millisecond depending on which
// bound it is.
func parseBound(s string, isEnd bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	day, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return nil, err
	}
	if isEnd {
		day = day.AddDate(0, 0, 1).Add(-time.Millisecond)
	}
	return &day, nil
}
