// Package settlement exposes repayment, default, escrow, and account
// endpoints.
package settlement

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/quicklendx/quicklendx/internal/auth"
	"github.com/quicklendx/quicklendx/internal/escrow"
	"github.com/quicklendx/quicklendx/internal/http/httperr"
)

type Handler struct {
	svc   *escrow.Service
	guard *auth.Guard
}

func NewHandler(svc *escrow.Service, guard *auth.Guard) *Handler {
	return &Handler{svc: svc, guard: guard}
}

// InvoiceRoutes registers settlement endpoints under the invoice resource.
func (h *Handler) InvoiceRoutes(r chi.Router) {
	r.Post("/{id}/repay", h.repay)
	r.Post("/{id}/default", h.markDefault)
	r.Get("/{id}/escrow", h.escrowRecord)
}

// AccountRoutes registers the account endpoints.
func (h *Handler) AccountRoutes(r chi.Router) {
	r.Post("/{id}/deposit", h.deposit)
	r.Get("/{id}/balance", h.balance)
}

type repayRequest struct {
	Amount int64 `json:"amount"`
}

type repayResponse struct {
	InvestorReturn int64 `json:"investor_return"`
	PlatformFee    int64 `json:"platform_fee"`
	BusinessMargin int64 `json:"business_margin"`
}

func (h *Handler) repay(w http.ResponseWriter, r *http.Request) {
	actor, err := h.guard.Require(r.Context(), auth.RoleBusiness)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	invoiceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req repayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.svc.SettleRepayment(r.Context(), actor, invoiceID, req.Amount)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, repayResponse{
		InvestorReturn: result.InvestorReturn,
		PlatformFee:    result.PlatformFee,
		BusinessMargin: result.BusinessMargin,
	})
}

func (h *Handler) markDefault(w http.ResponseWriter, r *http.Request) {
	actor, err := h.guard.RequireAny(r.Context(), auth.RoleAdmin, auth.RoleInvestor)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	invoiceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.svc.SettleDefault(r.Context(), actor, invoiceID); err != nil {
		httperr.Write(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) escrowRecord(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	rec, err := h.svc.RecordFor(r.Context(), invoiceID)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, rec)
}

type depositRequest struct {
	Amount int64 `json:"amount"`
}

func (h *Handler) deposit(w http.ResponseWriter, r *http.Request) {
	actor, err := h.guard.Require(r.Context(), auth.RoleAdmin)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	account := auth.Identity(chi.URLParam(r, "id"))

	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.svc.Deposit(r.Context(), actor, account, req.Amount); err != nil {
		httperr.Write(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type balanceResponse struct {
	Account auth.Identity `json:"account"`
	Balance int64         `json:"balance"`
}

func (h *Handler) balance(w http.ResponseWriter, r *http.Request) {
	account := auth.Identity(chi.URLParam(r, "id"))

	balance, err := h.svc.Balance(r.Context(), account)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, balanceResponse{Account: account, Balance: balance})
}
