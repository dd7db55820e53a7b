package products

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/novapharm/novapharm/internal/inventory"
	"github.com/novapharm/novapharm/internal/shared"
)

// Service wraps product business rules on top of the repository.
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

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	pharmacyID, err := tenant(ctx)
	if err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, pharmacyID, filters)
}

func (s *Service) ListAll(ctx context.Context) ([]Product, error) {
	pharmacyID, err := tenant(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListAll(ctx, pharmacyID)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Product, error) {
	pharmacyID, err := tenant(ctx)
	if err != nil {
		return Product{}, err
	}
	if id == uuid.Nil {
		return Product{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, pharmacyID, id)
}

func (s *Service) GetByBarcode(ctx context.Context, barcode string) (Product, error) {
	pharmacyID, err := tenant(ctx)
	if err != nil {
		return Product{}, err
	}
	if barcode == "" {
		return Product{}, shared.ErrNotFound
	}
	return s.repo.GetByBarcode(ctx, pharmacyID, barcode)
}

func (s *Service) Create(ctx context.Context, product Product) (Product, error) {
	pharmacyID, err := tenant(ctx)
	if err != nil {
		return Product{}, err
	}
	if err := validate(product); err != nil {
		return Product{}, err
	}
	product.PharmacyID = pharmacyID
	return s.repo.Create(ctx, product)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, product Product) error {
	pharmacyID, err := tenant(ctx)
	if err != nil {
		return err
	}
	if id == uuid.Nil {
		return shared.ErrNotFound
	}
	if err := validate(product); err != nil {
		return err
	}
	return s.repo.Update(ctx, pharmacyID, id, product)
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

// AdjustStock applies a relative quantity change, for example after a sale
// or a received purchase order.
func (s *Service) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	pharmacyID, err := tenant(ctx)
	if err != nil {
		return 0, err
	}
	return s.repo.AdjustStock(ctx, pharmacyID, id, delta)
}

// ListExpiringSoon returns products whose expiry date falls inside the
// warning window, soonest first. Already expired items are excluded.
func (s *Service) ListExpiringSoon(ctx context.Context, today time.Time) ([]Product, error) {
	pharmacyID, err := tenant(ctx)
	if err != nil {
		return nil, err
	}
	cutoff := today.AddDate(0, 0, inventory.ExpiryWindowDays+1)
	candidates, err := s.repo.ListExpiringBefore(ctx, pharmacyID, cutoff)
	if err != nil {
		return nil, err
	}
	var items []Product
	for _, p := range candidates {
		if inventory.EvaluateExpiry(p.ExpiryDate, today) == inventory.ExpirySoon {
			items = append(items, p)
		}
	}
	return items, nil
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	pharmacyID, err := tenant(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.Categories(ctx, pharmacyID)
}
