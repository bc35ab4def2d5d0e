package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"walletmate/internal/engine"
	"walletmate/internal/log"
	"walletmate/internal/period"
)

// handleLiveSummary streams summary snapshots over server-sent events.
// Each connection runs its own pipeline: an event arrives immediately
// and again whenever the underlying data changes.
func (s *Server) handleLiveSummary(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	q := r.URL.Query()
	filter, err := period.ParseFilter(q.Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	typeFilter, err := engine.ParseTypeFilter(q.Get("type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	customStart, err := parseBound(q.Get("start"), false)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid start: %v", err))
		return
	}
	customEnd, err := parseBound(q.Get("end"), true)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid end: %v", err))
		return
	}

	pipeline := engine.NewPipeline(s.store, s.currency, s.resolver, s.agg, s.logger)
	if err := pipeline.SetPeriod(filter, customStart, customEnd); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := pipeline.SetTypeFilter(typeFilter); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	pipeline.SetSearch(q.Get("q"))

	ctx := r.Context()
	pipeline.Start(ctx)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-pipeline.Snapshots():
			payload, err := json.Marshal(summaryResponse{
				Summary:      toSummaryDTO(snap.Summary),
				Transactions: toTransactionDTOs(snap.Transactions),
			})
			if err != nil {
				log.FromContext(ctx).Error("Failed to encode snapshot", log.FieldError, err)
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
