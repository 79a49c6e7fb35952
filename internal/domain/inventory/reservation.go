package inventory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Line is one product quantity to reserve against the ledger
type Line struct {
	ProductID   uuid.UUID
	ProductName string
	Quantity    int64
}

// ReserveAll decrements every line as one unit. Lines are applied in ascending
// product ID order; when one fails, the lines already applied are restocked in
// reverse order before the failure is returned. Inside a database transaction the
// compensation is redundant but harmless, since the rollback discards it too.
func ReserveAll(ctx context.Context, ledger Ledger, lines []Line) error {
	ordered := make([]Line, len(lines))
	copy(ordered, lines)
	sort.Slice(ordered, func(i, j int) bool {
		return bytes.Compare(ordered[i].ProductID[:], ordered[j].ProductID[:]) < 0
	})

	applied := make([]Line, 0, len(ordered))
	for _, line := range ordered {
		err := ValidateQuantity(line.Quantity)
		if err == nil {
			err = ledger.TryDecrement(ctx, line.ProductID, line.Quantity)
		}
		if err != nil {
			var stockErr *InsufficientStockError
			if errors.As(err, &stockErr) && stockErr.ProductName == "" {
				stockErr.ProductName = line.ProductName
			}
			if cerr := compensate(ctx, ledger, applied); cerr != nil {
				return errors.Join(err, cerr)
			}
			return err
		}
		applied = append(applied, line)
	}
	return nil
}

// ReleaseAll restocks every line. It is used when a reservation succeeded
// but the sale could not be recorded.
func ReleaseAll(ctx context.Context, ledger Ledger, lines []Line) error {
	var errs []error
	for i := len(lines) - 1; i >= 0; i-- {
		if err := ledger.Restock(ctx, lines[i].ProductID, lines[i].Quantity); err != nil {
			errs = append(errs, fmt.Errorf("release product %s: %w", lines[i].ProductID, err))
		}
	}
	return errors.Join(errs...)
}

func compensate(ctx context.Context, ledger Ledger, applied []Line) error {
	if len(applied) == 0 {
		return nil
	}
	if err := ReleaseAll(ctx, ledger, applied); err != nil {
		return fmt.Errorf("compensating restock failed: %w", err)
	}
	return nil
}
