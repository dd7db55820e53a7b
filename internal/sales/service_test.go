package sales

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novapharm/novapharm/internal/products"
	"github.com/novapharm/novapharm/internal/shared"
	_ "github.com/novapharm/novapharm/testing"
)

type fakeRepo struct {
	Repository
	created   *Sale
	completed []uuid.UUID
	cancelled []uuid.UUID
	sales     map[uuid.UUID]Sale
	seq       int
}

func (f *fakeRepo) CreateWithItems(ctx context.Context, sale Sale) (Sale, error) {
	sale.ID = uuid.New()
	f.created = &sale
	return sale, nil
}

func (f *fakeRepo) Get(ctx context.Context, pharmacyID, id uuid.UUID) (Sale, error) {
	sale, ok := f.sales[id]
	if !ok {
		return Sale{}, shared.ErrNotFound
	}
	return sale, nil
}

func (f *fakeRepo) CompleteAndDeductStock(ctx context.Context, pharmacyID, id uuid.UUID) error {
	f.completed = append(f.completed, id)
	return nil
}

func (f *fakeRepo) CancelAndRestock(ctx context.Context, pharmacyID, id uuid.UUID) error {
	f.cancelled = append(f.cancelled, id)
	return nil
}

func (f *fakeRepo) GenerateInvoiceNumber(ctx context.Context, pharmacyID uuid.UUID, date time.Time) (string, error) {
	f.seq++
	return fmt.Sprintf("INV-%s-%04d", date.Format("20060102"), f.seq), nil
}

type fakeCatalog struct {
	items map[uuid.UUID]products.Product
}

func (f *fakeCatalog) Get(ctx context.Context, id uuid.UUID) (products.Product, error) {
	p, ok := f.items[id]
	if !ok {
		return products.Product{}, shared.ErrNotFound
	}
	return p, nil
}

func catalogWith(ps ...products.Product) *fakeCatalog {
	c := &fakeCatalog{items: map[uuid.UUID]products.Product{}}
	for _, p := range ps {
		c.items[p.ID] = p
	}
	return c
}

func tenantCtx() context.Context {
	return shared.ContextWithTenant(context.Background(), uuid.New())
}

func TestCreatePricesFromCatalog(t *testing.T) {
	paracetamol := products.Product{ID: uuid.New(), Name: "Paracetamol 500mg", Price: 8.5, StockQuantity: 100}
	ibuprofen := products.Product{ID: uuid.New(), Name: "Ibuprofen 200mg", Price: 12, StockQuantity: 50}
	repo := &fakeRepo{}
	svc := NewService(repo, catalogWith(paracetamol, ibuprofen), nil)

	sale, err := svc.Create(tenantCtx(), CreateSaleInput{
		PaymentMethod: PaymentMethodCash,
		PaymentStatus: PaymentStatusCompleted,
		Discount:      5,
		Items: []CreateSaleItemInput{
			{ProductID: paracetamol.ID, Quantity: 2},
			{ProductID: ibuprofen.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)

	assert.InDelta(t, 29.0, sale.TotalAmount, 1e-9)
	assert.InDelta(t, 24.0, sale.FinalAmount, 1e-9)
	require.Len(t, sale.Items, 2)
	assert.Equal(t, "Paracetamol 500mg", sale.Items[0].ProductName)
	assert.InDelta(t, 17.0, sale.Items[0].TotalPrice, 1e-9)
	assert.NotEmpty(t, sale.InvoiceNumber)
}

func TestCreateDiscountNeverGoesNegative(t *testing.T) {
	p := products.Product{ID: uuid.New(), Name: "Vitamin C", Price: 3, StockQuantity: 10}
	svc := NewService(&fakeRepo{}, catalogWith(p), nil)

	sale, err := svc.Create(tenantCtx(), CreateSaleInput{
		PaymentMethod: PaymentMethodCash,
		PaymentStatus: PaymentStatusCompleted,
		Discount:      100,
		Items:         []CreateSaleItemInput{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, sale.FinalAmount)
}

func TestCreateRejectsInsufficientStock(t *testing.T) {
	p := products.Product{ID: uuid.New(), Name: "Insulin", Price: 90, StockQuantity: 2}
	svc := NewService(&fakeRepo{}, catalogWith(p), nil)

	_, err := svc.Create(tenantCtx(), CreateSaleInput{
		PaymentMethod: PaymentMethodCard,
		PaymentStatus: PaymentStatusCompleted,
		Items:         []CreateSaleItemInput{{ProductID: p.ID, Quantity: 3}},
	})
	require.Error(t, err)
	ve, ok := shared.AsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "items")
}

func TestCreateAllowsPendingBeyondStock(t *testing.T) {
	// Pending sales do not touch inventory, so stock is not checked.
	p := products.Product{ID: uuid.New(), Name: "Insulin", Price: 90, StockQuantity: 2}
	svc := NewService(&fakeRepo{}, catalogWith(p), nil)

	_, err := svc.Create(tenantCtx(), CreateSaleInput{
		PaymentMethod: PaymentMethodCard,
		PaymentStatus: PaymentStatusPending,
		Items:         []CreateSaleItemInput{{ProductID: p.ID, Quantity: 3}},
	})
	require.NoError(t, err)
}

func TestCreateValidation(t *testing.T) {
	p := products.Product{ID: uuid.New(), Name: "Aspirin", Price: 4, StockQuantity: 10}
	svc := NewService(&fakeRepo{}, catalogWith(p), nil)

	cases := []struct {
		name  string
		input CreateSaleInput
		field string
	}{
		{"no items", CreateSaleInput{PaymentMethod: PaymentMethodCash, PaymentStatus: PaymentStatusCompleted}, "items"},
		{"zero quantity", CreateSaleInput{
			PaymentMethod: PaymentMethodCash, PaymentStatus: PaymentStatusCompleted,
			Items: []CreateSaleItemInput{{ProductID: p.ID, Quantity: 0}},
		}, "items"},
		{"negative discount", CreateSaleInput{
			PaymentMethod: PaymentMethodCash, PaymentStatus: PaymentStatusCompleted, Discount: -1,
			Items: []CreateSaleItemInput{{ProductID: p.ID, Quantity: 1}},
		}, "discount"},
		{"bad method", CreateSaleInput{
			PaymentMethod: "barter", PaymentStatus: PaymentStatusCompleted,
			Items: []CreateSaleItemInput{{ProductID: p.ID, Quantity: 1}},
		}, "payment_method"},
		{"bad status", CreateSaleInput{
			PaymentMethod: PaymentMethodCash, PaymentStatus: "refunded",
			Items: []CreateSaleItemInput{{ProductID: p.ID, Quantity: 1}},
		}, "payment_status"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(tenantCtx(), tc.input)
			require.Error(t, err)
			ve, ok := shared.AsValidationError(err)
			require.True(t, ok, "expected validation error, got %v", err)
			assert.Contains(t, ve.Fields, tc.field)
		})
	}
}

func TestMarkPaidOnlyPending(t *testing.T) {
	saleID := uuid.New()
	repo := &fakeRepo{sales: map[uuid.UUID]Sale{
		saleID: {ID: saleID, PaymentStatus: PaymentStatusCompleted},
	}}
	svc := NewService(repo, catalogWith(), nil)

	err := svc.MarkPaid(tenantCtx(), saleID)
	require.Error(t, err)
	_, ok := shared.AsValidationError(err)
	assert.True(t, ok)
	assert.Empty(t, repo.completed)
}

func TestMarkPaidDeductsStock(t *testing.T) {
	saleID := uuid.New()
	repo := &fakeRepo{sales: map[uuid.UUID]Sale{
		saleID: {ID: saleID, PaymentStatus: PaymentStatusPending},
	}}
	svc := NewService(repo, catalogWith(), nil)

	require.NoError(t, svc.MarkPaid(tenantCtx(), saleID))
	assert.Equal(t, []uuid.UUID{saleID}, repo.completed)
}

func TestCancelAlreadyCancelled(t *testing.T) {
	saleID := uuid.New()
	repo := &fakeRepo{sales: map[uuid.UUID]Sale{
		saleID: {ID: saleID, PaymentStatus: PaymentStatusCancelled},
	}}
	svc := NewService(repo, catalogWith(), nil)

	err := svc.Cancel(tenantCtx(), saleID)
	require.Error(t, err)
	assert.Empty(t, repo.cancelled)
}

func TestCalculateTotals(t *testing.T) {
	items := []SaleItem{
		{TotalPrice: 10},
		{TotalPrice: 2.5},
	}
	total, final := CalculateTotals(items, 2)
	assert.InDelta(t, 12.5, total, 1e-9)
	assert.InDelta(t, 10.5, final, 1e-9)
}
