// Package service holds the compound writes and the daily report
// aggregator. Handlers stay thin; anything touching more than one
// table in one logical step lives here, behind narrow store
// interfaces satisfied by *database.Queries.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/silid-lounge/api/internal/database"
)

// Errors returned by the session service.
var (
	ErrDescriptionRequired = errors.New("description is required")
	ErrSessionNotFound     = errors.New("session not found")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// CancelStore defines the DB methods needed to cancel a session.
// Satisfied by *database.Queries (and its WithTx variant).
type CancelStore interface {
	GetSession(ctx context.Context, id uuid.UUID) (database.Session, error)
	CreateCancelledSession(ctx context.Context, arg database.CreateCancelledSessionParams) (database.CancelledSession, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
}

// NewCancelStore creates a CancelStore from a DBTX (pool or tx).
type NewCancelStore func(db database.DBTX) CancelStore

// SessionService handles session writes that span tables.
type SessionService struct {
	pool     TxBeginner
	newStore NewCancelStore
}

// NewSessionService creates a new SessionService.
func NewSessionService(pool TxBeginner, newStore NewCancelStore) *SessionService {
	return &SessionService{pool: pool, newStore: newStore}
}

// Cancel archives a session into cancelled_sessions and removes the
// original row atomically. A reason is mandatory so the archive stays
// auditable.
func (s *SessionService) Cancel(ctx context.Context, sessionID uuid.UUID, description string, cancelledBy uuid.UUID) (database.CancelledSession, error) {
	if description == "" {
		return database.CancelledSession{}, ErrDescriptionRequired
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.CancelledSession{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	sess, err := store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.CancelledSession{}, ErrSessionNotFound
		}
		return database.CancelledSession{}, fmt.Errorf("get session: %w", err)
	}

	cancelled, err := store.CreateCancelledSession(ctx, database.CreateCancelledSessionParams{
		SessionID:     sess.ID,
		CustomerName:  sess.CustomerName,
		SeatID:        sess.SeatID,
		StartedAt:     sess.StartedAt,
		EndedAt:       sess.EndedAt,
		HourlyRate:    sess.HourlyRate,
		DiscountKind:  sess.DiscountKind,
		DiscountValue: sess.DiscountValue,
		CashPaid:      sess.CashPaid,
		GcashPaid:     sess.GcashPaid,
		Paid:          sess.Paid,
		Description:   description,
		CancelledBy:   cancelledBy,
	})
	if err != nil {
		return database.CancelledSession{}, fmt.Errorf("create cancelled session: %w", err)
	}

	if err := store.DeleteSession(ctx, sessionID); err != nil {
		return database.CancelledSession{}, fmt.Errorf("delete session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.CancelledSession{}, fmt.Errorf("commit tx: %w", err)
	}
	return cancelled, nil
}

// --- Helpers ---

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
