// Package backup exposes admin-only snapshot endpoints.
package backup

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/quicklendx/quicklendx/internal/auth"
	"github.com/quicklendx/quicklendx/internal/backup"
	"github.com/quicklendx/quicklendx/internal/http/httperr"
)

type Handler struct {
	svc   *backup.Service
	guard *auth.Guard
}

func NewHandler(svc *backup.Service, guard *auth.Guard) *Handler {
	return &Handler{svc: svc, guard: guard}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Post("/{id}/restore", h.restore)
	r.Post("/{id}/archive", h.archive)
}

type createBackupRequest struct {
	Description string `json:"description"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, err := h.guard.Require(r.Context(), auth.RoleAdmin)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	var req createBackupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	b, err := h.svc.Create(r.Context(), actor, req.Description)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	httperr.WriteJSON(w, http.StatusCreated, b)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	if _, err := h.guard.Require(r.Context(), auth.RoleAdmin); err != nil {
		httperr.Write(w, err)
		return
	}

	backups, err := h.svc.List(r.Context())
	if err != nil {
		httperr.Write(w, err)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, backups)
}

func (h *Handler) restore(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.svc.Restore)
}

func (h *Handler) archive(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.svc.Archive)
}

func (h *Handler) action(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, actor auth.Actor, id uuid.UUID) error) {
	actor, err := h.guard.Require(r.Context(), auth.RoleAdmin)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := fn(r.Context(), actor, id); err != nil {
		httperr.Write(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
