package bid

import (
	"time"

	"github.com/google/uuid"

	"github.com/quicklendx/quicklendx/internal/auth"
	"github.com/quicklendx/quicklendx/internal/bid"
)

type bidResponse struct {
	ID          uuid.UUID     `json:"id"`
	InvoiceID   uuid.UUID     `json:"invoice_id"`
	Investor    auth.Identity `json:"investor"`
	Amount      int64         `json:"amount"`
	RateBps     int64         `json:"rate_bps"`
	SubmittedAt time.Time     `json:"submitted_at"`
	Status      bid.Status    `json:"status"`
}

func toResponse(b *bid.Bid) bidResponse {
	return bidResponse{
		ID:          b.ID,
		InvoiceID:   b.InvoiceID,
		Investor:    b.Investor,
		Amount:      b.Amount,
		RateBps:     b.RateBps,
		SubmittedAt: b.SubmittedAt,
		Status:      b.Status,
	}
}

func toResponseList(bids []*bid.Bid) []bidResponse {
	resp := make([]bidResponse, len(bids))
	for i, b := range bids {
		resp[i] = toResponse(b)
	}

	return resp
}

type acceptResponse struct {
	Bid        bidResponse `json:"bid"`
	Disbursed  int64       `json:"disbursed"`
	FundingFee int64       `json:"funding_fee"`
}
