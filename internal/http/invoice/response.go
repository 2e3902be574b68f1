package invoice

import (
	"time"

	"github.com/google/uuid"

	"github.com/quicklendx/quicklendx/internal/auth"
	"github.com/quicklendx/quicklendx/internal/invoice"
)

type invoiceResponse struct {
	ID           uuid.UUID      `json:"id"`
	Business     auth.Identity  `json:"business"`
	FaceValue    int64          `json:"face_value"`
	DueDate      time.Time      `json:"due_date"`
	Status       invoice.Status `json:"status"`
	Description  string         `json:"description"`
	FundedAmount int64          `json:"funded_amount"`
	Investor     *auth.Identity `json:"investor,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	FundedAt     *time.Time     `json:"funded_at,omitempty"`
	SettledAt    *time.Time     `json:"settled_at,omitempty"`
}

func toResponse(inv *invoice.Invoice) invoiceResponse {
	return invoiceResponse{
		ID:           inv.ID,
		Business:     inv.Business,
		FaceValue:    inv.FaceValue,
		DueDate:      inv.DueDate,
		Status:       inv.Status,
		Description:  inv.Description,
		FundedAmount: inv.FundedAmount,
		Investor:     inv.Investor,
		CreatedAt:    inv.CreatedAt,
		FundedAt:     inv.FundedAt,
		SettledAt:    inv.SettledAt,
	}
}

func toResponseList(invoices []*invoice.Invoice) []invoiceResponse {
	resp := make([]invoiceResponse, len(invoices))
	for i, inv := range invoices {
		resp[i] = toResponse(inv)
	}

	return resp
}
