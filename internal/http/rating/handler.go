// Package rating exposes invoice rating endpoints.
package rating

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/quicklendx/quicklendx/internal/auth"
	"github.com/quicklendx/quicklendx/internal/http/httperr"
	"github.com/quicklendx/quicklendx/internal/rating"
)

type Handler struct {
	svc   *rating.Service
	guard *auth.Guard
}

func NewHandler(svc *rating.Service, guard *auth.Guard) *Handler {
	return &Handler{svc: svc, guard: guard}
}

// InvoiceRoutes registers rating endpoints under the invoice resource.
func (h *Handler) InvoiceRoutes(r chi.Router) {
	r.Post("/{id}/rating", h.rate)
	r.Get("/{id}/rating", h.list)
	r.Get("/{id}/rating/stats", h.stats)
}

// Routes registers the cross-invoice rating queries.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.aboveThreshold)
	r.Get("/count", h.count)
}

type rateRequest struct {
	Score    int64  `json:"score"`
	Feedback string `json:"feedback"`
}

func (h *Handler) rate(w http.ResponseWriter, r *http.Request) {
	actor, err := h.guard.Require(r.Context(), auth.RoleInvestor)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	invoiceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req rateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rated, err := h.svc.Rate(r.Context(), actor, invoiceID, req.Score, req.Feedback)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	httperr.WriteJSON(w, http.StatusCreated, rated)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	ratings, err := h.svc.For(r.Context(), invoiceID)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, ratings)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	stats, err := h.svc.StatsFor(r.Context(), invoiceID)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, stats)
}

type invoiceIDsResponse struct {
	InvoiceIDs []uuid.UUID `json:"invoice_ids"`
}

func (h *Handler) aboveThreshold(w http.ResponseWriter, r *http.Request) {
	threshold := rating.MinScore

	if s := r.URL.Query().Get("threshold"); s != "" {
		parsed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			http.Error(w, "invalid threshold", http.StatusBadRequest)
			return
		}

		threshold = parsed
	}

	var (
		ids []uuid.UUID
		err error
	)

	if business := r.URL.Query().Get("business"); business != "" {
		ids, err = h.svc.ByBusinessAboveThreshold(r.Context(), auth.Identity(business), threshold)
	} else {
		ids, err = h.svc.AboveThreshold(r.Context(), threshold)
	}

	if err != nil {
		httperr.Write(w, err)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, invoiceIDsResponse{InvoiceIDs: ids})
}

type countResponse struct {
	Count int64 `json:"count"`
}

func (h *Handler) count(w http.ResponseWriter, r *http.Request) {
	count, err := h.svc.RatedCount(r.Context())
	if err != nil {
		httperr.Write(w, err)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, countResponse{Count: count})
}
