package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/silid-lounge/api/internal/database"
)

// ErrAddonItemNotFound is returned when a checkout line references an
// unknown catalog item.
var ErrAddonItemNotFound = errors.New("addon item not found")

// CheckoutLine is one line of an add-on checkout.
type CheckoutLine struct {
	ItemID uuid.UUID
	Qty    int32
}

// CheckoutStore defines the DB methods needed to record a checkout.
// Satisfied by *database.Queries (and its WithTx variant).
type CheckoutStore interface {
	GetAddonItem(ctx context.Context, id uuid.UUID) (database.AddonItem, error)
	CreateAddonOrder(ctx context.Context, arg database.CreateAddonOrderParams) (database.AddonOrder, error)
}

// NewCheckoutStore creates a CheckoutStore from a DBTX (pool or tx).
type NewCheckoutStore func(db database.DBTX) CheckoutStore

// AddonService records checkouts. A checkout spans one row per line,
// so the insert loop runs in a transaction.
type AddonService struct {
	pool     TxBeginner
	newStore NewCheckoutStore
}

// NewAddonService creates a new AddonService.
func NewAddonService(pool TxBeginner, newStore NewCheckoutStore) *AddonService {
	return &AddonService{pool: pool, newStore: newStore}
}

// Checkout inserts every line of one order atomically, pricing each
// line from the catalog. All lines share orderedAt so the grouping
// heuristic reassembles them as one logical order. A failed line
// rolls back the whole checkout.
func (s *AddonService) Checkout(ctx context.Context, customerName, seatID string, lines []CheckoutLine, orderedAt time.Time) ([]database.AddonOrder, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	created := make([]database.AddonOrder, 0, len(lines))
	for i, line := range lines {
		item, err := store.GetAddonItem(ctx, line.ItemID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrAddonItemNotFound
			}
			return nil, fmt.Errorf("get addon item: %w", err)
		}

		unitPrice := numericToDecimal(item.Price)
		row, err := store.CreateAddonOrder(ctx, database.CreateAddonOrderParams{
			CustomerName: customerName,
			SeatID:       seatID,
			ItemID:       item.ID,
			ItemName:     item.Name,
			Qty:          line.Qty,
			UnitPrice:    decimalToNumeric(unitPrice),
			LineTotal:    decimalToNumeric(unitPrice.Mul(decimal.NewFromInt32(line.Qty))),
			OrderedAt:    orderedAt,
		})
		if err != nil {
			return nil, fmt.Errorf("create order line %d: %w", i, err)
		}
		created = append(created, row)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return created, nil
}
