package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/silid-lounge/api/internal/database"
)

// Errors returned by the consignment service.
var (
	ErrItemNotFound = errors.New("item not found")
	ErrEmptyMove    = errors.New("restock and sold deltas are both zero")
	ErrOversold     = errors.New("sold would exceed restocked")
)

// StockStore defines the DB methods needed to move consignment stock.
// Satisfied by *database.Queries (and its WithTx variant).
type StockStore interface {
	AdjustConsignmentStock(ctx context.Context, arg database.AdjustConsignmentStockParams) (database.ConsignmentItem, error)
	CreateConsignmentMove(ctx context.Context, arg database.CreateConsignmentMoveParams) (database.ConsignmentMove, error)
}

// NewStockStore creates a StockStore from a DBTX (pool or tx).
type NewStockStore func(db database.DBTX) StockStore

// ConsignmentService handles stock movements, which update the item
// counters and append to the movement log in one transaction.
type ConsignmentService struct {
	pool     TxBeginner
	newStore NewStockStore
}

// NewConsignmentService creates a new ConsignmentService.
func NewConsignmentService(pool TxBeginner, newStore NewStockStore) *ConsignmentService {
	return &ConsignmentService{pool: pool, newStore: newStore}
}

// MoveStock applies restock/sold deltas to an item and logs the move.
// The counters are the source of truth for current stock; the log is
// what the daily report aggregates.
func (s *ConsignmentService) MoveStock(ctx context.Context, itemID uuid.UUID, restockDelta, soldDelta int32, movedAt time.Time) (database.ConsignmentItem, error) {
	if restockDelta == 0 && soldDelta == 0 {
		return database.ConsignmentItem{}, ErrEmptyMove
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.ConsignmentItem{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	item, err := store.AdjustConsignmentStock(ctx, database.AdjustConsignmentStockParams{
		ID:           itemID,
		RestockDelta: restockDelta,
		SoldDelta:    soldDelta,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.ConsignmentItem{}, ErrItemNotFound
		}
		return database.ConsignmentItem{}, fmt.Errorf("adjust stock: %w", err)
	}
	if item.Sold > item.Restocked {
		return database.ConsignmentItem{}, ErrOversold
	}

	if _, err := store.CreateConsignmentMove(ctx, database.CreateConsignmentMoveParams{
		ItemID:       itemID,
		RestockDelta: restockDelta,
		SoldDelta:    soldDelta,
		MovedAt:      movedAt,
	}); err != nil {
		return database.ConsignmentItem{}, fmt.Errorf("create move: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.ConsignmentItem{}, fmt.Errorf("commit tx: %w", err)
	}
	return item, nil
}
