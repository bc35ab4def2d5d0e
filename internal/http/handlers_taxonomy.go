package http

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"walletmate/internal/core"
)

type categoryRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.store.ListCategories(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	out := make([]categoryDTO, 0, len(categories))
	for _, c := range categories {
		out = append(out, toCategoryDTO(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpsertCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status := http.StatusOK
	if req.ID == "" {
		req.ID = uuid.NewString()
		status = http.StatusCreated
	}
	c := core.Category{
		ID:    req.ID,
		Name:  sanitizeInput(req.Name),
		Kind:  core.Kind(req.Kind),
		Icon:  req.Icon,
		Color: core.ColorOrNeutral(req.Color),
	}
	if err := s.store.UpsertCategory(r.Context(), c); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, status, toCategoryDTO(c))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type tagRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.store.ListTags(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	out := make([]tagDTO, 0, len(tags))
	for _, tg := range tags {
		out = append(out, toTagDTO(tg))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpsertTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if id := r.PathValue("id"); id != "" {
		req.ID = id
	}
	status := http.StatusOK
	if req.ID == "" {
		req.ID = uuid.NewString()
		status = http.StatusCreated
	}
	tg := core.Tag{
		ID:    req.ID,
		Name:  sanitizeInput(req.Name),
		Color: core.ColorOrNeutral(req.Color),
	}
	if err := s.store.UpsertTag(r.Context(), tg); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, status, toTagDTO(tg))
}

func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteTag(r.Context(), r.PathValue("id")); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleTagTransactions lists the transactions referencing one tag,
// the drill-down behind the tag analysis view.
func (s *Server) handleTagTransactions(w http.ResponseWriter, r *http.Request) {
	details, err := s.store.ListByTag(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTOs(details))
}
