package pharmacy

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/novapharm/novapharm/internal/shared"
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Profile, error)
	GetByUser(ctx context.Context, userID uuid.UUID) (Profile, error)
	Update(ctx context.Context, profile Profile) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const profileColumns = `id, user_id, pharmacy_name, owner_name, license_number, phone, address, city, employee_count, created_at, updated_at`

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (Profile, error) {
	row := r.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM pharmacy_profiles WHERE id = $1`, id)
	return scanProfile(row)
}

func (r *repository) GetByUser(ctx context.Context, userID uuid.UUID) (Profile, error) {
	row := r.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM pharmacy_profiles WHERE user_id = $1`, userID)
	return scanProfile(row)
}

func (r *repository) Update(ctx context.Context, profile Profile) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE pharmacy_profiles
		 SET pharmacy_name = $1, owner_name = $2, license_number = $3, phone = $4,
		     address = $5, city = $6, employee_count = $7, updated_at = $8
		 WHERE id = $9`,
		profile.PharmacyName, profile.OwnerName, profile.LicenseNumber, profile.Phone,
		profile.Address, profile.City, profile.EmployeeCount, time.Now(), profile.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanProfile(row pgx.Row) (Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.UserID, &p.PharmacyName, &p.OwnerName, &p.LicenseNumber,
		&p.Phone, &p.Address, &p.City, &p.EmployeeCount, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, shared.ErrNotFound
	}
	return p, err
}
