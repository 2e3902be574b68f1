package invoice

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/quicklendx/quicklendx/internal/auth"
	"github.com/quicklendx/quicklendx/internal/event"
	"github.com/quicklendx/quicklendx/internal/http/httperr"
	"github.com/quicklendx/quicklendx/internal/invoice"
)

type Handler struct {
	svc    *invoice.Service
	guard  *auth.Guard
	events *event.Service
}

func NewHandler(svc *invoice.Service, guard *auth.Guard, events *event.Service) *Handler {
	return &Handler{svc: svc, guard: guard, events: events}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Post("/{id}/verify", h.verify)
	r.Post("/{id}/open", h.open)
	r.Post("/{id}/cancel", h.cancel)
	r.Get("/{id}/events", h.listEvents)
}

type createInvoiceRequest struct {
	FaceValue   int64     `json:"face_value"`
	DueDate     time.Time `json:"due_date"`
	Description string    `json:"description"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, err := h.guard.Require(r.Context(), auth.RoleBusiness)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	var req createInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	inv, err := h.svc.Create(r.Context(), actor, invoice.CreateParams{
		FaceValue:   req.FaceValue,
		DueDate:     req.DueDate,
		Description: req.Description,
	})
	if err != nil {
		httperr.Write(w, err)
		return
	}

	httperr.WriteJSON(w, http.StatusCreated, toResponse(inv))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := invoice.ListFilter{}

	if s := r.URL.Query().Get("status"); s != "" {
		status := invoice.Status(s)
		filter.Status = &status
	}

	if s := r.URL.Query().Get("business"); s != "" {
		business := auth.Identity(s)
		filter.Business = &business
	}

	invoices, err := h.svc.List(r.Context(), filter)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, toResponseList(invoices))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	inv, err := h.svc.Get(r.Context(), id)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, toResponse(inv))
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, auth.RoleAdmin, h.svc.Verify)
}

func (h *Handler) open(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, auth.RoleBusiness, h.svc.OpenForBidding)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, auth.RoleBusiness, h.svc.Cancel)
}

type transitionFunc func(ctx context.Context, actor auth.Actor, id uuid.UUID) (*invoice.Invoice, error)

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, role auth.Role, fn transitionFunc) {
	actor, err := h.guard.Require(r.Context(), role)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	inv, err := fn(r.Context(), actor, id)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, toResponse(inv))
}

func (h *Handler) listEvents(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	events, err := h.events.ByInvoice(r.Context(), id)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, events)
}
