package checkout

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dogu-dev/commerce-core/internal/basket"
	"github.com/dogu-dev/commerce-core/internal/ledger"
	"github.com/dogu-dev/commerce-core/internal/orders"
)

func newService() (*Service, *ledger.Ledger, *basket.Store, *orders.Store) {
	lg := ledger.New()
	bs := basket.NewStore(99)
	os := orders.NewStore(lg)
	svc := &Service{Basket: bs, Ledger: lg, Orders: os}
	return svc, lg, bs, os
}

func available(t *testing.T, lg *ledger.Ledger, id int64) int {
	t.Helper()
	p, err := lg.Get(id)
	require.NoError(t, err)
	return p.Available
}

func TestCheckoutHappyPath(t *testing.T) {
	svc, lg, bs, os := newService()
	lg.Upsert(ledger.Product{ID: 1, Name: "mug", PriceCents: 500, Available: 10})
	lg.Upsert(ledger.Product{ID: 2, Name: "pot", PriceCents: 1200, Available: 5})
	_, _ = bs.Add("u1", 2, 1)
	_, _ = bs.Add("u1", 1, 2)

	o, err := svc.Checkout(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, orders.StatusPlaced, o.Status)
	require.Len(t, o.Lines, 2)
	assert.Equal(t, int64(1), o.Lines[0].ProductID, "lines follow ascending product id")
	assert.Equal(t, int64(500), o.Lines[0].UnitPriceCents)
	assert.Equal(t, int64(2200), o.TotalCents)

	assert.Equal(t, 8, available(t, lg, 1))
	assert.Equal(t, 4, available(t, lg, 2))
	assert.Empty(t, bs.Snapshot("u1"), "basket cleared on success")

	stored, err := os.Get(o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.TotalCents, stored.TotalCents)

	for _, res := range lg.ReservationsByOrder(o.ID) {
		assert.Equal(t, ledger.ReservationCommitted, res.State)
	}
}

func TestCheckoutPriceSnapshotSurvivesCatalogChange(t *testing.T) {
	svc, lg, bs, _ := newService()
	lg.Upsert(ledger.Product{ID: 1, Name: "mug", PriceCents: 500, Available: 10})
	_, _ = bs.Add("u1", 1, 2)

	o, err := svc.Checkout(context.Background(), "u1")
	require.NoError(t, err)

	lg.Upsert(ledger.Product{ID: 1, Name: "mug", PriceCents: 900, Available: 0})
	assert.Equal(t, int64(500), o.Lines[0].UnitPriceCents, "price at purchase never recomputed")
}

func TestCheckoutAllOrNothing(t *testing.T) {
	svc, lg, bs, os := newService()
	lg.Upsert(ledger.Product{ID: 1, Name: "A", PriceCents: 100, Available: 10})
	lg.Upsert(ledger.Product{ID: 2, Name: "B", PriceCents: 200, Available: 1})
	_, _ = bs.Add("u1", 1, 3)
	_, _ = bs.Add("u1", 2, 2)

	_, err := svc.Checkout(context.Background(), "u1")
	var ise *ledger.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, int64(2), ise.ProductID, "error names the failing product")
	assert.Equal(t, 2, ise.Requested)
	assert.Equal(t, 1, ise.Available)

	assert.Equal(t, 10, available(t, lg, 1), "no partial reservation survives")
	assert.Equal(t, 1, available(t, lg, 2))
	assert.Len(t, bs.Snapshot("u1"), 2, "basket untouched on failure")
	assert.Empty(t, os.ListAll())
}

func TestCheckoutUnknownProductRollsBack(t *testing.T) {
	svc, lg, bs, _ := newService()
	lg.Upsert(ledger.Product{ID: 1, Name: "A", PriceCents: 100, Available: 10})
	_, _ = bs.Add("u1", 1, 3)
	_, _ = bs.Add("u1", 9, 1) // never registered

	_, err := svc.Checkout(context.Background(), "u1")
	assert.ErrorIs(t, err, ledger.ErrProductNotFound)
	assert.Equal(t, 10, available(t, lg, 1))
}

func TestCheckoutEmptyBasket(t *testing.T) {
	svc, lg, _, _ := newService()
	lg.Upsert(ledger.Product{ID: 1, PriceCents: 100, Available: 10})

	_, err := svc.Checkout(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrEmptyBasket)
	assert.Empty(t, lg.ReservationsByOrder(""), "zero reservation attempts")
	assert.Equal(t, 10, available(t, lg, 1))
}

func TestCancelBeforeShipRestoresStock(t *testing.T) {
	svc, lg, bs, os := newService()
	lg.Upsert(ledger.Product{ID: 7, Name: "kettle", PriceCents: 500, Available: 10})
	_, _ = bs.Add("u1", 7, 2)

	o, err := svc.Checkout(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 8, available(t, lg, 7))

	cancelled, err := os.Cancel(o.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCancelled, cancelled.Status)
	assert.Equal(t, 10, available(t, lg, 7), "committed holds credited back on cancel")
}

func TestCancelAfterShipLeavesStock(t *testing.T) {
	svc, lg, bs, os := newService()
	lg.Upsert(ledger.Product{ID: 7, PriceCents: 500, Available: 10})
	_, _ = bs.Add("u1", 7, 2)

	o, err := svc.Checkout(context.Background(), "u1")
	require.NoError(t, err)
	_, err = os.UpdateStatus(o.ID, orders.StatusConfirmed)
	require.NoError(t, err)
	_, err = os.UpdateStatus(o.ID, orders.StatusShipped)
	require.NoError(t, err)

	_, err = os.Cancel(o.ID)
	assert.ErrorIs(t, err, orders.ErrOrderNotCancellable)
	assert.Equal(t, 8, available(t, lg, 7), "stock unchanged")
}

// Two users race for overlapping products with stock for only one of them.
// Exactly one checkout wins, and the loser leaves no trace.
func TestConcurrentOverlappingCheckouts(t *testing.T) {
	svc, lg, bs, os := newService()
	lg.Upsert(ledger.Product{ID: 1, PriceCents: 100, Available: 3})
	lg.Upsert(ledger.Product{ID: 2, PriceCents: 200, Available: 3})
	_, _ = bs.Add("u1", 1, 2)
	_, _ = bs.Add("u1", 2, 2)
	_, _ = bs.Add("u2", 1, 2)
	_, _ = bs.Add("u2", 2, 2)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, user := range []string{"u1", "u2"} {
		wg.Add(1)
		go func(i int, user string) {
			defer wg.Done()
			_, errs[i] = svc.Checkout(context.Background(), user)
		}(i, user)
	}
	wg.Wait()

	okCount := 0
	for _, err := range errs {
		if err == nil {
			okCount++
		}
	}
	require.Equal(t, 1, okCount, "stock for exactly one of the two")
	assert.Equal(t, 1, available(t, lg, 1))
	assert.Equal(t, 1, available(t, lg, 2))
	assert.Len(t, os.ListAll(), 1)
}

// Many users, one contested product, qty 1 each: successes must equal the
// initial stock and the counter must end at zero.
func TestManyConcurrentCheckoutsNeverOversell(t *testing.T) {
	const stock = 20
	const users = 60

	svc, lg, bs, os := newService()
	lg.Upsert(ledger.Product{ID: 1, PriceCents: 100, Available: stock})

	userIDs := make([]string, users)
	for i := range userIDs {
		userIDs[i] = string(rune('a'+i%26)) + string(rune('0'+i/26))
		_, _ = bs.Add(userIDs[i], 1, 1)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for _, uid := range userIDs {
		wg.Add(1)
		go func(uid string) {
			defer wg.Done()
			if _, err := svc.Checkout(context.Background(), uid); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(uid)
	}
	wg.Wait()

	assert.Equal(t, stock, succeeded)
	assert.Equal(t, 0, available(t, lg, 1))
	assert.Len(t, os.ListAll(), stock)
}
