package customers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novapharm/novapharm/internal/shared"
	_ "github.com/novapharm/novapharm/testing"
)

type fakeRepo struct {
	Repository
	created []Customer
}

func (f *fakeRepo) Create(ctx context.Context, customer Customer) (Customer, error) {
	customer.ID = uuid.New()
	f.created = append(f.created, customer)
	return customer, nil
}

func TestCreateRequiresTenant(t *testing.T) {
	svc := NewService(&fakeRepo{})

	_, err := svc.Create(context.Background(), Customer{Name: "Sara"})
	assert.ErrorIs(t, err, shared.ErrNotAuthenticated)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(&fakeRepo{})
	ctx := shared.ContextWithTenant(context.Background(), uuid.New())

	_, err := svc.Create(ctx, Customer{Name: " ", Email: "not-an-email"})
	require.Error(t, err)
	ve, ok := shared.AsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "name")
	assert.Contains(t, ve.Fields, "email")
}

func TestCreateStampsTenant(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)
	pharmacyID := uuid.New()
	ctx := shared.ContextWithTenant(context.Background(), pharmacyID)

	created, err := svc.Create(ctx, Customer{Name: "Sara", Email: "sara@example.com"})
	require.NoError(t, err)
	assert.Equal(t, pharmacyID, created.PharmacyID)
}
