// Package audit exposes the cross-invoice audit-trail queries. Per-invoice
// trails live under the invoice resource.
package audit

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quicklendx/quicklendx/internal/auth"
	"github.com/quicklendx/quicklendx/internal/event"
	"github.com/quicklendx/quicklendx/internal/http/httperr"
)

type Handler struct {
	svc   *event.Service
	guard *auth.Guard
}

func NewHandler(svc *event.Service, guard *auth.Guard) *Handler {
	return &Handler{svc: svc, guard: guard}
}

// Routes registers the audit endpoints. Admin only: the per-actor trail
// crosses invoice ownership boundaries.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.byActor)
	r.Get("/stats", h.stats)
}

func (h *Handler) byActor(w http.ResponseWriter, r *http.Request) {
	if _, err := h.guard.Require(r.Context(), auth.RoleAdmin); err != nil {
		httperr.Write(w, err)
		return
	}

	actor := r.URL.Query().Get("actor")
	if actor == "" {
		http.Error(w, "actor query parameter required", http.StatusBadRequest)
		return
	}

	events, err := h.svc.ByActor(r.Context(), auth.Identity(actor))
	if err != nil {
		httperr.Write(w, err)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, events)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	if _, err := h.guard.Require(r.Context(), auth.RoleAdmin); err != nil {
		httperr.Write(w, err)
		return
	}

	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		httperr.Write(w, err)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, stats)
}
