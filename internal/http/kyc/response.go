package kyc

import (
	"time"

	"github.com/quicklendx/quicklendx/internal/auth"
	"github.com/quicklendx/quicklendx/internal/verification"
)

// kycResponse omits the opaque application payload; only the applicant and
// the admin review it.
type kycResponse struct {
	Business        auth.Identity       `json:"business"`
	Status          verification.Status `json:"status"`
	SubmittedAt     time.Time           `json:"submitted_at"`
	VerifiedAt      *time.Time          `json:"verified_at,omitempty"`
	RejectionReason string              `json:"rejection_reason,omitempty"`
}

func toResponse(v *verification.Verification) kycResponse {
	return kycResponse{
		Business:        v.Business,
		Status:          v.Status,
		SubmittedAt:     v.SubmittedAt,
		VerifiedAt:      v.VerifiedAt,
		RejectionReason: v.RejectionReason,
	}
}
