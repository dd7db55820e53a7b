package customers

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/novapharm/novapharm/internal/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func tenant(ctx context.Context) (uuid.UUID, error) {
	id := shared.TenantFromContext(ctx)
	if id == uuid.Nil {
		return uuid.Nil, shared.ErrNotAuthenticated
	}
	return id, nil
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Customer, int, error) {
	pharmacyID, err := tenant(ctx)
	if err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, pharmacyID, filters)
}

func (s *Service) ListAll(ctx context.Context) ([]Customer, error) {
	pharmacyID, err := tenant(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListAll(ctx, pharmacyID)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Customer, error) {
	pharmacyID, err := tenant(ctx)
	if err != nil {
		return Customer{}, err
	}
	if id == uuid.Nil {
		return Customer{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, pharmacyID, id)
}

func (s *Service) Create(ctx context.Context, customer Customer) (Customer, error) {
	pharmacyID, err := tenant(ctx)
	if err != nil {
		return Customer{}, err
	}
	if err := validate(customer); err != nil {
		return Customer{}, err
	}
	customer.PharmacyID = pharmacyID
	return s.repo.Create(ctx, customer)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, customer Customer) error {
	pharmacyID, err := tenant(ctx)
	if err != nil {
		return err
	}
	if id == uuid.Nil {
		return shared.ErrNotFound
	}
	if err := validate(customer); err != nil {
		return err
	}
	return s.repo.Update(ctx, pharmacyID, id, customer)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	pharmacyID, err := tenant(ctx)
	if err != nil {
		return err
	}
	if id == uuid.Nil {
		return shared.ErrNotFound
	}
	return s.repo.Delete(ctx, pharmacyID, id)
}

func validate(c Customer) error {
	fields := map[string]string{}
	if strings.TrimSpace(c.Name) == "" {
		fields["name"] = "customer name is required"
	}
	if c.Email != "" && !strings.Contains(c.Email, "@") {
		fields["email"] = "email address is not valid"
	}
	if len(fields) == 0 {
		return nil
	}
	return &shared.ValidationError{Fields: fields}
}
