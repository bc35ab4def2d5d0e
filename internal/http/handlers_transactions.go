package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"walletmate/internal/amqp"
	"walletmate/internal/core"
	"walletmate/internal/log"
	"walletmate/internal/storage"
)

type transactionRequest struct {
	Title         string     `json:"title"`
	Amount        string     `json:"amount"`
	Kind          string     `json:"kind"`
	OccurredAt    *time.Time `json:"occurred_at"`
	CategoryID    string     `json:"category_id"`
	TagIDs        []string   `json:"tag_ids"`
	AttachmentRef string     `json:"attachment_ref"`
}

// toTransaction builds the domain record. A malformed amount becomes
// zero rather than blocking the save; everything else is validated by
// the store.
func (req transactionRequest) toTransaction(id string, now time.Time) core.Transaction {
	occurred := now
	if req.OccurredAt != nil {
		occurred = *req.OccurredAt
	}
	return core.Transaction{
		ID:            id,
		Title:         sanitizeInput(req.Title),
		Amount:        core.ParseAmountOrZero(req.Amount),
		Kind:          core.Kind(req.Kind),
		OccurredAt:    occurred,
		CategoryID:    req.CategoryID,
		AttachmentRef: req.AttachmentRef,
		LastModified:  now,
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	now := time.Now()
	tx := req.toTransaction(uuid.NewString(), now)
	if err := s.store.InsertTransaction(r.Context(), tx, req.TagIDs); err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	s.rememberTitle(r, tx)
	s.publishEvent(r, tx.ID, amqp.ActionCreated, tx.LastModified.UnixMilli())

	detail, err := s.store.GetTransaction(r.Context(), tx.ID)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionDTO(detail))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	details, status, err := s.queryTransactions(r)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTOs(details))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	detail, err := s.store.GetTransaction(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(detail))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tx := req.toTransaction(r.PathValue("id"), time.Now())
	if err := s.store.UpdateTransaction(r.Context(), tx, req.TagIDs); err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	s.rememberTitle(r, tx)
	s.publishEvent(r, tx.ID, amqp.ActionUpdated, tx.LastModified.UnixMilli())

	detail, err := s.store.GetTransaction(r.Context(), tx.ID)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(detail))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteTransaction(r.Context(), id); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.publishEvent(r, id, amqp.ActionDeleted, time.Now().UnixMilli())
	w.WriteHeader(http.StatusNoContent)
}

// rememberTitle records the title to category association behind the
// suggestion feature. Failures are logged, never surfaced: suggestions
// are best effort.
func (s *Server) rememberTitle(r *http.Request, tx core.Transaction) {
	if s.suggester == nil || tx.CategoryID == "" {
		return
	}
	if err := s.suggester.Remember(r.Context(), tx.Title, tx.CategoryID); err != nil {
		log.FromContext(r.Context()).Warn("Failed to record title association",
			log.FieldError, err, log.FieldTitle, tx.Title)
	}
}

// publishEvent notifies the export worker. The save already succeeded
// locally, so publish failures only degrade the mirror.
func (s *Server) publishEvent(r *http.Request, id, action string, version int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionEvent(r.Context(), id, action, version); err != nil {
		log.FromContext(r.Context()).Warn("Failed to publish transaction event",
			log.FieldError, err,
			log.FieldTransactionID, id,
			"action", action)
	}
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidKind),
		errors.Is(err, core.ErrEmptyTitle),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrEmptyID):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		log.FromContext(r.Context()).Error("Store operation failed", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
