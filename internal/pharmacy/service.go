package pharmacy

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

// Get loads a profile by its id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Profile, error) {
	if id == uuid.Nil {
		return Profile{}, shared.ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// ResolveTenant returns the profile owned by the given user account.
func (s *Service) ResolveTenant(ctx context.Context, userID uuid.UUID) (Profile, error) {
	if userID == uuid.Nil {
		return Profile{}, shared.ErrNotAuthenticated
	}
	return s.repo.GetByUser(ctx, userID)
}

// Update persists changes to a tenant's profile.
func (s *Service) Update(ctx context.Context, profile Profile) error {
	if err := validate(profile); err != nil {
		return err
	}
	return s.repo.Update(ctx, profile)
}

// Validate checks the required profile fields. Exported because the auth
// registration flow validates the profile before opening a transaction.
func Validate(p Profile) error {
	return validate(p)
}

func validate(p Profile) error {
	fields := make(map[string]string)
	if strings.TrimSpace(p.PharmacyName) == "" {
		fields["pharmacy_name"] = "pharmacy name is required"
	}
	if strings.TrimSpace(p.OwnerName) == "" {
		fields["owner_name"] = "owner name is required"
	}
	if strings.TrimSpace(p.LicenseNumber) == "" {
		fields["license_number"] = "license number is required"
	}
	if strings.TrimSpace(p.Phone) == "" {
		fields["phone"] = "phone is required"
	}
	if strings.TrimSpace(p.Address) == "" {
		fields["address"] = "address is required"
	}
	if strings.TrimSpace(p.City) == "" {
		fields["city"] = "city is required"
	}
	if p.EmployeeCount != nil && *p.EmployeeCount < 0 {
		fields["employee_count"] = "employee count must not be negative"
	}
	if len(fields) > 0 {
		return &shared.ValidationError{Fields: fields}
	}
	return nil
}
