package bid

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/quicklendx/quicklendx/internal/auth"
	"github.com/quicklendx/quicklendx/internal/bid"
	"github.com/quicklendx/quicklendx/internal/http/httperr"
)

type Handler struct {
	svc   *bid.Service
	guard *auth.Guard
}

func NewHandler(svc *bid.Service, guard *auth.Guard) *Handler {
	return &Handler{svc: svc, guard: guard}
}

// Routes registers the bid book under the invoice resource.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/{id}/bids", h.place)
	r.Get("/{id}/bids", h.list)
	r.Post("/{id}/bids/withdraw", h.withdraw)
	r.Post("/{id}/bids/{bidID}/accept", h.accept)
}

type placeBidRequest struct {
	Amount  int64 `json:"amount"`
	RateBps int64 `json:"rate_bps"`
}

func (h *Handler) place(w http.ResponseWriter, r *http.Request) {
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

	var req placeBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	placed, err := h.svc.Place(r.Context(), actor, bid.PlaceParams{
		InvoiceID: invoiceID,
		Amount:    req.Amount,
		RateBps:   req.RateBps,
	})
	if err != nil {
		httperr.Write(w, err)
		return
	}

	httperr.WriteJSON(w, http.StatusCreated, toResponse(placed))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	bids, err := h.svc.ListByInvoice(r.Context(), invoiceID)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, toResponseList(bids))
}

func (h *Handler) withdraw(w http.ResponseWriter, r *http.Request) {
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

	withdrawn, err := h.svc.Withdraw(r.Context(), actor, invoiceID)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, toResponse(withdrawn))
}

func (h *Handler) accept(w http.ResponseWriter, r *http.Request) {
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

	bidID, err := uuid.Parse(chi.URLParam(r, "bidID"))
	if err != nil {
		http.Error(w, "invalid bid id", http.StatusBadRequest)
		return
	}

	result, err := h.svc.Accept(r.Context(), actor, invoiceID, bidID)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, acceptResponse{
		Bid:        toResponse(result.Bid),
		Disbursed:  result.Disbursed,
		FundingFee: result.FundingFee,
	})
}
