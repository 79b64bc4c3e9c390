// Package inventory exposes the stock snapshot and reservation contract the
// engine depends on. Reservation transaction mechanics live with the external
// inventory system; this package only offers a reserve/release pair with a
// conditional update.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrInsufficientStock is returned when a reservation would exceed the
	// available-to-sell figure.
	ErrInsufficientStock = errors.New("inventory: insufficient stock to reserve")
	// ErrSnapshotNotFound is returned when no snapshot row exists for the
	// product/warehouse/vat-mode combination.
	ErrSnapshotNotFound = errors.New("inventory: snapshot not found")
)

// Snapshot is a read-only view of stock for one product in one warehouse.
type Snapshot struct {
	TheoreticalStock int64 `json:"theoreticalStock"`
	Reserved         int64 `json:"reserved"`
	AvailableToSell  int64 `json:"availableToSell"`
}

// Service is the engine-facing inventory contract. Get is read-only and
// cacheable; Reserve and Release mutate the reserved figure.
type Service interface {
	Get(ctx context.Context, productCode, warehouseCode, vatMode string) (Snapshot, error)
	Reserve(ctx context.Context, productCode, warehouseCode string, baseQty int64) error
	Release(ctx context.Context, productCode, warehouseCode string, baseQty int64) error
}

// PGService implements Service on the stock_snapshots table.
type PGService struct {
	Pool *pgxpool.Pool
}

// Get returns the current snapshot for a product/warehouse/vat-mode.
func (s *PGService) Get(ctx context.Context, productCode, warehouseCode, vatMode string) (Snapshot, error) {
	const q = `
SELECT theoretical_stock, reserved
FROM stock_snapshots
WHERE product_code = $1 AND warehouse_code = $2 AND vat_mode = $3`
	var snap Snapshot
	err := s.Pool.QueryRow(ctx, q,
		normalize(productCode), normalize(warehouseCode), normalize(vatMode)).
		Scan(&snap.TheoreticalStock, &snap.Reserved)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Snapshot{}, ErrSnapshotNotFound
		}
		return Snapshot{}, fmt.Errorf("inventory: get snapshot: %w", err)
	}
	snap.AvailableToSell = snap.TheoreticalStock - snap.Reserved
	return snap, nil
}

// Reserve raises the reserved figure when enough stock remains. The update is
// conditional so concurrent reservations cannot oversell.
func (s *PGService) Reserve(ctx context.Context, productCode, warehouseCode string, baseQty int64) error {
	if baseQty <= 0 {
		return nil
	}
	const q = `
UPDATE stock_snapshots
SET reserved = reserved + $3
WHERE product_code = $1 AND warehouse_code = $2
  AND theoretical_stock - reserved >= $3`
	tag, err := s.Pool.Exec(ctx, q, normalize(productCode), normalize(warehouseCode), baseQty)
	if err != nil {
		return fmt.Errorf("inventory: reserve: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// Release lowers the reserved figure, flooring at zero.
func (s *PGService) Release(ctx context.Context, productCode, warehouseCode string, baseQty int64) error {
	if baseQty <= 0 {
		return nil
	}
	const q = `
UPDATE stock_snapshots
SET reserved = GREATEST(reserved - $3, 0)
WHERE product_code = $1 AND warehouse_code = $2`
	if _, err := s.Pool.Exec(ctx, q, normalize(productCode), normalize(warehouseCode), baseQty); err != nil {
		return fmt.Errorf("inventory: release: %w", err)
	}
	return nil
}

func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
