package sale

import (
	"context"
	"time"
)

// Repository is the append-only sale record store
type Repository interface {
	// Append stores a committed sale with its line items
	Append(ctx context.Context, s *Sale) error

	// QueryByWindow returns sales created in [start, end), oldest first
	QueryByWindow(ctx context.Context, start, end time.Time) ([]*Sale, error)

	// FindAll returns every sale, oldest first
	FindAll(ctx context.Context) ([]*Sale, error)
}
