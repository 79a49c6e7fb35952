package sale

import "github.com/possale/backend/internal/domain/shared"

// Outcome tags a checkout result
type Outcome string

const (
	OutcomeCommitted Outcome = "committed"
	OutcomeRejected  Outcome = "rejected"
)

// Result is either Committed(Sale) or Rejected(reason). Exactly one of Sale
// and Reason is set.
type Result struct {
	Outcome Outcome
	Sale    *Sale
	Reason  *shared.DomainError
}

// Committed wraps a persisted sale
func Committed(s *Sale) Result {
	return Result{Outcome: OutcomeCommitted, Sale: s}
}

// Rejected wraps the reason a cart was refused
func Rejected(reason *shared.DomainError) Result {
	return Result{Outcome: OutcomeRejected, Reason: reason}
}

// IsCommitted reports whether the sale was recorded
func (r Result) IsCommitted() bool {
	return r.Outcome == OutcomeCommitted
}
