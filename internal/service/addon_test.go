package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/silid-lounge/api/internal/database"
)

// mockCheckoutStore implements CheckoutStore with configurable behavior.
type mockCheckoutStore struct {
	getAddonItemFn     func(ctx context.Context, id uuid.UUID) (database.AddonItem, error)
	createAddonOrderFn func(ctx context.Context, arg database.CreateAddonOrderParams) (database.AddonOrder, error)
}

func (m *mockCheckoutStore) GetAddonItem(ctx context.Context, id uuid.UUID) (database.AddonItem, error) {
	return m.getAddonItemFn(ctx, id)
}
func (m *mockCheckoutStore) CreateAddonOrder(ctx context.Context, arg database.CreateAddonOrderParams) (database.AddonOrder, error) {
	return m.createAddonOrderFn(ctx, arg)
}

func newCheckoutTestService(store *mockCheckoutStore) (*AddonService, *mockTx) {
	tx := &mockTx{}
	pool := &mockTxBeginner{tx: tx}
	newStore := func(db database.DBTX) CheckoutStore { return store }
	return NewAddonService(pool, newStore), tx
}

func TestCheckoutPricesLinesFromCatalog(t *testing.T) {
	itemID := uuid.New()
	var inserted []database.CreateAddonOrderParams
	store := &mockCheckoutStore{
		getAddonItemFn: func(ctx context.Context, id uuid.UUID) (database.AddonItem, error) {
			return database.AddonItem{ID: id, Name: "Iced Latte", Price: makeNumeric("95.00")}, nil
		},
		createAddonOrderFn: func(ctx context.Context, arg database.CreateAddonOrderParams) (database.AddonOrder, error) {
			inserted = append(inserted, arg)
			return database.AddonOrder{ID: uuid.New(), ItemName: arg.ItemName, Qty: arg.Qty}, nil
		},
	}
	svc, tx := newCheckoutTestService(store)

	orderedAt := time.Now()
	created, err := svc.Checkout(context.Background(), "Ana", "S1", []CheckoutLine{
		{ItemID: itemID, Qty: 2},
		{ItemID: itemID, Qty: 1},
	}, orderedAt)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("created lines: got %d, want 2", len(created))
	}
	if !tx.committed {
		t.Error("transaction was not committed")
	}
	if !numericEquals(inserted[0].LineTotal, "190.00") {
		t.Errorf("line 0 total: got %v, want 190.00", inserted[0].LineTotal)
	}
	if !inserted[0].OrderedAt.Equal(orderedAt) || !inserted[1].OrderedAt.Equal(orderedAt) {
		t.Error("lines do not share the checkout timestamp")
	}
}

func TestCheckoutFailedLineLeavesNothingCommitted(t *testing.T) {
	itemID := uuid.New()
	calls := 0
	store := &mockCheckoutStore{
		getAddonItemFn: func(ctx context.Context, id uuid.UUID) (database.AddonItem, error) {
			return database.AddonItem{ID: id, Name: "Brownie", Price: makeNumeric("60.00")}, nil
		},
		createAddonOrderFn: func(ctx context.Context, arg database.CreateAddonOrderParams) (database.AddonOrder, error) {
			calls++
			if calls == 2 {
				return database.AddonOrder{}, errors.New("insert failed")
			}
			return database.AddonOrder{ID: uuid.New()}, nil
		},
	}
	svc, tx := newCheckoutTestService(store)

	_, err := svc.Checkout(context.Background(), "Ana", "S1", []CheckoutLine{
		{ItemID: itemID, Qty: 1},
		{ItemID: itemID, Qty: 1},
	}, time.Now())
	if err == nil {
		t.Fatal("expected error from failed second line")
	}
	if tx.committed {
		t.Error("transaction must not commit when a line fails")
	}
}

func TestCheckoutUnknownItem(t *testing.T) {
	store := &mockCheckoutStore{
		getAddonItemFn: func(ctx context.Context, id uuid.UUID) (database.AddonItem, error) {
			return database.AddonItem{}, pgx.ErrNoRows
		},
		createAddonOrderFn: func(ctx context.Context, arg database.CreateAddonOrderParams) (database.AddonOrder, error) {
			t.Fatal("no line should be inserted for an unknown item")
			return database.AddonOrder{}, nil
		},
	}
	svc, tx := newCheckoutTestService(store)

	_, err := svc.Checkout(context.Background(), "Ana", "S1", []CheckoutLine{
		{ItemID: uuid.New(), Qty: 1},
	}, time.Now())
	if !errors.Is(err, ErrAddonItemNotFound) {
		t.Fatalf("expected ErrAddonItemNotFound, got %v", err)
	}
	if tx.committed {
		t.Error("transaction must not commit")
	}
}
