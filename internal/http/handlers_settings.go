package http

import (
	"encoding/json"
	"net/http"

	"walletmate/internal/core"
	"walletmate/internal/log"
)

type currencyPayload struct {
	Currency string `json:"currency"`
}

func (s *Server) handleGetCurrency(w http.ResponseWriter, r *http.Request) {
	currency, err := s.currency.Currency(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, currencyPayload{Currency: currency})
}

func (s *Server) handleSetCurrency(w http.ResponseWriter, r *http.Request) {
	var req currencyPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.currency.SetCurrency(r.Context(), req.Currency); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	currency, err := s.currency.Currency(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, currencyPayload{Currency: currency})
}

// handleClearData wipes every user record and restores the seed
// categories. There is no undo.
func (s *Server) handleClearData(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ClearAll(r.Context()); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	log.FromContext(r.Context()).Info("All user data cleared via API")
	w.WriteHeader(http.StatusNoContent)
}

type suggestSettingsPayload struct {
	Override   bool  `json:"override"`
	DebounceMS int64 `json:"debounce_ms"`
}

// handleGetSuggestSettings publishes the suggestion policy so edit
// forms debounce and apply suggestions the way the server is configured.
func (s *Server) handleGetSuggestSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, suggestSettingsPayload{
		Override:   s.suggestCfg.Override,
		DebounceMS: s.suggestCfg.Debounce.Milliseconds(),
	})
}

type suggestResponse struct {
	Category *categoryDTO `json:"category"`
}

// handleSuggest returns the remembered category for a title, filtered
// by the kind being edited. No match is a 200 with a null category.
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	kind := core.Kind(r.URL.Query().Get("kind"))
	if kind == "" {
		kind = core.Expense
	}
	if !kind.Valid() {
		writeError(w, http.StatusBadRequest, "unknown kind")
		return
	}

	suggestion, err := s.suggester.Suggest(r.Context(), title, kind)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	var resp suggestResponse
	if suggestion != nil {
		c := toCategoryDTO(*suggestion)
		resp.Category = &c
	}
	writeJSON(w, http.StatusOK, resp)
}
