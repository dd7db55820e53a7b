package procurement

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
	created  *PurchaseOrder
	orders   map[uuid.UUID]PurchaseOrder
	received []uuid.UUID
	updated  map[uuid.UUID]string
	seq      int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{orders: map[uuid.UUID]PurchaseOrder{}, updated: map[uuid.UUID]string{}}
}

func (f *fakeRepo) CreateWithItems(ctx context.Context, order PurchaseOrder) (PurchaseOrder, error) {
	order.ID = uuid.New()
	f.created = &order
	return order, nil
}

func (f *fakeRepo) Get(ctx context.Context, pharmacyID, id uuid.UUID) (PurchaseOrder, error) {
	order, ok := f.orders[id]
	if !ok {
		return PurchaseOrder{}, shared.ErrNotFound
	}
	return order, nil
}

func (f *fakeRepo) UpdateStatus(ctx context.Context, pharmacyID, id uuid.UUID, status string) error {
	f.updated[id] = status
	return nil
}

func (f *fakeRepo) ReceiveAndRestock(ctx context.Context, pharmacyID, id uuid.UUID) error {
	f.received = append(f.received, id)
	return nil
}

func (f *fakeRepo) GenerateOrderNumber(ctx context.Context, pharmacyID uuid.UUID, date time.Time) (string, error) {
	f.seq++
	return fmt.Sprintf("PO-%s-%04d", date.Format("20060102"), f.seq), nil
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

func tenantCtx() context.Context {
	return shared.ContextWithTenant(context.Background(), uuid.New())
}

func TestCreateDefaultsUnitCost(t *testing.T) {
	product := products.Product{ID: uuid.New(), Name: "Amoxicillin", CostPrice: 6.5}
	repo := newFakeRepo()
	svc := NewService(repo, &fakeCatalog{items: map[uuid.UUID]products.Product{product.ID: product}})

	order, err := svc.Create(tenantCtx(), CreateInput{
		SupplierID: uuid.New(),
		Items:      []CreateItemInput{{ProductID: product.ID, Quantity: 10}},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusDraft, order.Status)
	require.Len(t, order.Items, 1)
	assert.InDelta(t, 6.5, order.Items[0].UnitCost, 1e-9)
	assert.InDelta(t, 65, order.TotalCost, 1e-9)
	assert.NotEmpty(t, order.OrderNumber)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newFakeRepo(), &fakeCatalog{})

	_, err := svc.Create(tenantCtx(), CreateInput{})
	require.Error(t, err)
	ve, ok := shared.AsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "supplier_id")
	assert.Contains(t, ve.Fields, "items")
}

func TestSubmitOnlyDraft(t *testing.T) {
	orderID := uuid.New()
	repo := newFakeRepo()
	repo.orders[orderID] = PurchaseOrder{ID: orderID, Status: StatusReceived}
	svc := NewService(repo, &fakeCatalog{})

	err := svc.Submit(tenantCtx(), orderID)
	require.Error(t, err)
	_, ok := shared.AsValidationError(err)
	assert.True(t, ok)
	assert.Empty(t, repo.updated)
}

func TestSubmitMovesDraftToOrdered(t *testing.T) {
	orderID := uuid.New()
	repo := newFakeRepo()
	repo.orders[orderID] = PurchaseOrder{ID: orderID, Status: StatusDraft}
	svc := NewService(repo, &fakeCatalog{})

	require.NoError(t, svc.Submit(tenantCtx(), orderID))
	assert.Equal(t, StatusOrdered, repo.updated[orderID])
}

func TestCancelReceivedRejected(t *testing.T) {
	orderID := uuid.New()
	repo := newFakeRepo()
	repo.orders[orderID] = PurchaseOrder{ID: orderID, Status: StatusReceived}
	svc := NewService(repo, &fakeCatalog{})

	err := svc.Cancel(tenantCtx(), orderID)
	require.Error(t, err)
	assert.Empty(t, repo.updated)
}

func TestReceiveDelegatesToRepo(t *testing.T) {
	orderID := uuid.New()
	repo := newFakeRepo()
	svc := NewService(repo, &fakeCatalog{})

	require.NoError(t, svc.Receive(tenantCtx(), orderID))
	assert.Equal(t, []uuid.UUID{orderID}, repo.received)
}
