// Package rating records investor feedback on funded invoices. Only the
// funding investor may rate, once per invoice, after funds have moved.
package rating

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/quicklendx/quicklendx/internal/auth"
)

var (
	ErrInvalidScore = errors.New("rating score must be between 1 and 5")
	ErrAlreadyRated = errors.New("invoice already rated")
)

// MinScore and MaxScore bound the accepted rating scale.
const (
	MinScore int64 = 1
	MaxScore int64 = 5
)

// Rating is one investor's score for an invoice.
type Rating struct {
	InvoiceID uuid.UUID     `json:"invoice_id"`
	Investor  auth.Identity `json:"investor"`
	Score     int64         `json:"score"`
	Feedback  string        `json:"feedback,omitempty"`
	RatedAt   time.Time     `json:"rated_at"`
}

// Stats aggregates the ratings of one invoice. Average, Highest, and Lowest
// are nil while the invoice has no ratings.
type Stats struct {
	Average *int64 `json:"average,omitempty"`
	Total   int64  `json:"total"`
	Highest *int64 `json:"highest,omitempty"`
	Lowest  *int64 `json:"lowest,omitempty"`
}

// statsOf folds ratings into Stats. The average truncates toward zero.
func statsOf(ratings []Rating) Stats {
	if len(ratings) == 0 {
		return Stats{}
	}

	var sum int64

	highest := ratings[0].Score
	lowest := ratings[0].Score

	for _, r := range ratings {
		sum += r.Score

		if r.Score > highest {
			highest = r.Score
		}

		if r.Score < lowest {
			lowest = r.Score
		}
	}

	average := sum / int64(len(ratings))

	return Stats{
		Average: &average,
		Total:   int64(len(ratings)),
		Highest: &highest,
		Lowest:  &lowest,
	}
}
