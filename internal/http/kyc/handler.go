// Package kyc exposes business verification endpoints.
package kyc

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quicklendx/quicklendx/internal/auth"
	"github.com/quicklendx/quicklendx/internal/http/httperr"
	"github.com/quicklendx/quicklendx/internal/verification"
)

type Handler struct {
	svc   *verification.Service
	guard *auth.Guard
}

func NewHandler(svc *verification.Service, guard *auth.Guard) *Handler {
	return &Handler{svc: svc, guard: guard}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.submit)
	r.Get("/", h.listByStatus)
	r.Get("/{business}", h.get)
	r.Post("/{business}/verify", h.verify)
	r.Post("/{business}/reject", h.reject)
}

type submitRequest struct {
	KycData string `json:"kyc_data"`
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	actor, err := h.guard.Require(r.Context(), auth.RoleBusiness)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.KycData == "" {
		http.Error(w, "kyc_data required", http.StatusBadRequest)
		return
	}

	v, err := h.svc.Submit(r.Context(), actor, req.KycData)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	httperr.WriteJSON(w, http.StatusCreated, toResponse(v))
}

func (h *Handler) listByStatus(w http.ResponseWriter, r *http.Request) {
	if _, err := h.guard.Require(r.Context(), auth.RoleAdmin); err != nil {
		httperr.Write(w, err)
		return
	}

	status := verification.Status(r.URL.Query().Get("status"))
	if status == "" {
		status = verification.StatusPending
	}

	ids, err := h.svc.ListByStatus(r.Context(), status)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, ids)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	business := auth.Identity(chi.URLParam(r, "business"))

	v, err := h.svc.Get(r.Context(), business)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, toResponse(v))
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	actor, err := h.guard.Require(r.Context(), auth.RoleAdmin)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	business := auth.Identity(chi.URLParam(r, "business"))

	if err := h.svc.Verify(r.Context(), actor, business); err != nil {
		httperr.Write(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	actor, err := h.guard.Require(r.Context(), auth.RoleAdmin)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	business := auth.Identity(chi.URLParam(r, "business"))

	var req rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.svc.Reject(r.Context(), actor, business, req.Reason); err != nil {
		httperr.Write(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
