package reports

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novapharm/novapharm/internal/sales"
	"github.com/novapharm/novapharm/internal/shared"
	_ "github.com/novapharm/novapharm/testing"
)

type stubSource struct {
	list  []sales.Sale
	calls int
}

func (s *stubSource) ListWithItemsSince(ctx context.Context, since time.Time) ([]sales.Sale, error) {
	s.calls++
	return s.list, nil
}

func newCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestSummaryRequiresTenant(t *testing.T) {
	svc := NewService(&stubSource{}, newCache(t))

	_, err := svc.Summary(context.Background(), time.Now())
	assert.ErrorIs(t, err, shared.ErrNotAuthenticated)
}

func TestSummaryAggregates(t *testing.T) {
	today := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	source := &stubSource{list: []sales.Sale{
		{
			SaleDate: today.AddDate(0, 0, -1), FinalAmount: 100,
			PaymentStatus: sales.PaymentStatusCompleted,
			Items:         []sales.SaleItem{{ProductName: "Paracetamol", Quantity: 4, TotalPrice: 100}},
		},
		{
			SaleDate: today, FinalAmount: 50,
			PaymentStatus: sales.PaymentStatusPending,
			Items:         []sales.SaleItem{{ProductName: "Ibuprofen", Quantity: 1, TotalPrice: 50}},
		},
	}}
	svc := NewService(source, newCache(t))
	ctx := shared.ContextWithTenant(context.Background(), uuid.New())

	summary, err := svc.Summary(ctx, today)
	require.NoError(t, err)

	assert.InDelta(t, 100, summary.TotalRevenue, 1e-9, "pending sales do not count as revenue")
	assert.Equal(t, 2, summary.SaleCount)
	require.Len(t, summary.Daily, 2)
	require.Len(t, summary.Statuses, 2)
	require.NotEmpty(t, summary.TopProducts)
	assert.Equal(t, "Paracetamol", summary.TopProducts[0].Name)
}

func TestSummaryUsesCacheUntilInvalidated(t *testing.T) {
	today := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	source := &stubSource{}
	svc := NewService(source, newCache(t))
	ctx := shared.ContextWithTenant(context.Background(), uuid.New())

	_, err := svc.Summary(ctx, today)
	require.NoError(t, err)
	_, err = svc.Summary(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, 1, source.calls, "second call should hit the cache")

	require.NoError(t, svc.Invalidate(ctx))
	_, err = svc.Summary(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls, "bump should force a recompute")
}

func TestSummaryKeysAreTenantScoped(t *testing.T) {
	today := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	source := &stubSource{}
	svc := NewService(source, newCache(t))

	ctxA := shared.ContextWithTenant(context.Background(), uuid.New())
	ctxB := shared.ContextWithTenant(context.Background(), uuid.New())

	_, err := svc.Summary(ctxA, today)
	require.NoError(t, err)
	_, err = svc.Summary(ctxB, today)
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls, "each tenant computes its own summary")
}
