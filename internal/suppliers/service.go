package suppliers

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

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Supplier, int, error) {
	pharmacyID, err := tenant(ctx)
	if err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, pharmacyID, filters)
}

func (s *Service) ListAll(ctx context.Context) ([]Supplier, error) {
	pharmacyID, err := tenant(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListAll(ctx, pharmacyID)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Supplier, error) {
	pharmacyID, err := tenant(ctx)
	if err != nil {
		return Supplier{}, err
	}
	if id == uuid.Nil {
		return Supplier{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, pharmacyID, id)
}

func (s *Service) Create(ctx context.Context, supplier Supplier) (Supplier, error) {
	pharmacyID, err := tenant(ctx)
	if err != nil {
		return Supplier{}, err
	}
	if err := validate(supplier); err != nil {
		return Supplier{}, err
	}
	supplier.PharmacyID = pharmacyID
	return s.repo.Create(ctx, supplier)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, supplier Supplier) error {
	pharmacyID, err := tenant(ctx)
	if err != nil {
		return err
	}
	if id == uuid.Nil {
		return shared.ErrNotFound
	}
	if err := validate(supplier); err != nil {
		return err
	}
	return s.repo.Update(ctx, pharmacyID, id, supplier)
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

func validate(s Supplier) error {
	fields := map[string]string{}
	if strings.TrimSpace(s.Name) == "" {
		fields["name"] = "supplier name is required"
	}
	if s.Email != "" && !strings.Contains(s.Email, "@") {
		fields["email"] = "email address is not valid"
	}
	if len(fields) == 0 {
		return nil
	}
	return &shared.ValidationError{Fields: fields}
}
