package products

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novapharm/novapharm/internal/shared"
	_ "github.com/novapharm/novapharm/testing"
)

type fakeRepo struct {
	Repository
	created  []Product
	expiring []Product
}

func (f *fakeRepo) Create(ctx context.Context, product Product) (Product, error) {
	product.ID = uuid.New()
	f.created = append(f.created, product)
	return product, nil
}

func (f *fakeRepo) ListExpiringBefore(ctx context.Context, pharmacyID uuid.UUID, cutoff time.Time) ([]Product, error) {
	return f.expiring, nil
}

func tenantCtx(id uuid.UUID) context.Context {
	return shared.ContextWithTenant(context.Background(), id)
}

func TestCreateRequiresTenant(t *testing.T) {
	svc := NewService(&fakeRepo{})

	_, err := svc.Create(context.Background(), Product{Name: "Paracetamol"})
	assert.ErrorIs(t, err, shared.ErrNotAuthenticated)
}

func TestCreateStampsTenant(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)
	pharmacyID := uuid.New()

	created, err := svc.Create(tenantCtx(pharmacyID), Product{Name: "Paracetamol", Price: 12.5})
	require.NoError(t, err)
	assert.Equal(t, pharmacyID, created.PharmacyID)
	require.Len(t, repo.created, 1)
	assert.Equal(t, pharmacyID, repo.created[0].PharmacyID)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(&fakeRepo{})
	pharmacyID := uuid.New()

	cases := []struct {
		name    string
		product Product
		field   string
	}{
		{"missing name", Product{Price: 5}, "name"},
		{"blank name", Product{Name: "   "}, "name"},
		{"negative price", Product{Name: "x", Price: -1}, "price"},
		{"negative cost", Product{Name: "x", CostPrice: -0.5}, "cost_price"},
		{"negative stock", Product{Name: "x", StockQuantity: -3}, "stock_quantity"},
		{"negative min level", Product{Name: "x", MinStockLevel: -1}, "min_stock_level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(tenantCtx(pharmacyID), tc.product)
			require.Error(t, err)
			ve, ok := shared.AsValidationError(err)
			require.True(t, ok, "expected validation error, got %v", err)
			assert.Contains(t, ve.Fields, tc.field)
		})
	}
}

func TestListExpiringSoonSkipsExpired(t *testing.T) {
	today := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	in10 := today.AddDate(0, 0, 10)
	in30 := today.AddDate(0, 0, 30)
	in31 := today.AddDate(0, 0, 31)
	past := today.AddDate(0, 0, -5)

	repo := &fakeRepo{expiring: []Product{
		{Name: "already expired", ExpiryDate: &past},
		{Name: "soon", ExpiryDate: &in10},
		{Name: "edge of window", ExpiryDate: &in30},
		{Name: "beyond window", ExpiryDate: &in31},
		{Name: "no expiry"},
	}}
	svc := NewService(repo)

	items, err := svc.ListExpiringSoon(tenantCtx(uuid.New()), today)
	require.NoError(t, err)

	names := make([]string, 0, len(items))
	for _, p := range items {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"soon", "edge of window"}, names)
}
