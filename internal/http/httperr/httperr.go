// Package httperr maps domain errors onto HTTP status codes so handlers
// stay thin. A rejected operation observes no state change; the status code
// is the only signal the client gets.
package httperr

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/quicklendx/quicklendx/internal/auth"
	"github.com/quicklendx/quicklendx/internal/backup"
	"github.com/quicklendx/quicklendx/internal/bid"
	"github.com/quicklendx/quicklendx/internal/escrow"
	"github.com/quicklendx/quicklendx/internal/invoice"
	"github.com/quicklendx/quicklendx/internal/money"
	"github.com/quicklendx/quicklendx/internal/rating"
	"github.com/quicklendx/quicklendx/internal/verification"
)

// Status returns the HTTP status for a domain error.
func Status(err error) int {
	switch {
	case errors.Is(err, invoice.ErrNotFound),
		errors.Is(err, bid.ErrNotFound),
		errors.Is(err, escrow.ErrNotFound),
		errors.Is(err, verification.ErrNotFound),
		errors.Is(err, backup.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrUnauthorized), errors.Is(err, invoice.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, invoice.ErrInvalidState),
		errors.Is(err, bid.ErrDuplicateBid),
		errors.Is(err, bid.ErrNotBestBid),
		errors.Is(err, bid.ErrNotActive),
		errors.Is(err, escrow.ErrAlreadySettled),
		errors.Is(err, rating.ErrAlreadyRated),
		errors.Is(err, verification.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, invoice.ErrInvalidAmount),
		errors.Is(err, invoice.ErrInvalidDueDate),
		errors.Is(err, invoice.ErrInvalidDesc),
		errors.Is(err, bid.ErrInvalidAmount),
		errors.Is(err, bid.ErrInsufficientCapacity),
		errors.Is(err, escrow.ErrInsufficientFunds),
		errors.Is(err, escrow.ErrNoContribution),
		errors.Is(err, rating.ErrInvalidScore),
		errors.Is(err, verification.ErrNotVerified),
		errors.Is(err, backup.ErrCorrupted),
		errors.Is(err, money.ErrOverflow):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Write reports a failed operation to the client. Internal errors are not
// echoed back.
func Write(w http.ResponseWriter, err error) {
	status := Status(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}

	http.Error(w, message, status)
}

// WriteJSON encodes a response body, logging encode failures.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
