package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/novapharm/novapharm/internal/pharmacy"
	"github.com/novapharm/novapharm/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	CreateUserWithProfile(ctx context.Context, user User, profile pharmacy.Profile) (User, pharmacy.Profile, error)
	CreateSession(ctx context.Context, id string, userID uuid.UUID, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, id string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByEmail fetches a user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, is_active, created_at, updated_at FROM users WHERE email = $1`,
		email).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CreateUserWithProfile inserts the account and its pharmacy profile in a
// single transaction so registration cannot leave an orphaned user.
func (r *PGRepository) CreateUserWithProfile(ctx context.Context, user User, profile pharmacy.Profile) (User, pharmacy.Profile, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return User{}, pharmacy.Profile{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now()
	err = tx.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $4) RETURNING id`,
		user.Email, user.PasswordHash, true, now).Scan(&user.ID)
	if err != nil {
		return User{}, pharmacy.Profile{}, err
	}
	user.IsActive = true
	user.CreatedAt = now
	user.UpdatedAt = now

	profile.UserID = user.ID
	err = tx.QueryRow(ctx,
		`INSERT INTO pharmacy_profiles (user_id, pharmacy_name, owner_name, license_number, phone, address, city, employee_count, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9) RETURNING id`,
		profile.UserID, profile.PharmacyName, profile.OwnerName, profile.LicenseNumber,
		profile.Phone, profile.Address, profile.City, profile.EmployeeCount, now).Scan(&profile.ID)
	if err != nil {
		return User{}, pharmacy.Profile{}, err
	}
	profile.CreatedAt = now
	profile.UpdatedAt = now

	if err := tx.Commit(ctx); err != nil {
		return User{}, pharmacy.Profile{}, err
	}
	return user, profile, nil
}

// CreateSession persists a new login session in the database for auditing.
func (r *PGRepository) CreateSession(ctx context.Context, id string, userID uuid.UUID, expiresAt time.Time, ip, ua string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO sessions (id, user_id, created_at, expires_at, ip, ua) VALUES ($1, $2, NOW(), $3, $4, $5)`,
		id, userID, expiresAt.UTC(), nullable(ip), nullable(ua))
	return err
}

// DeleteSession removes a session record from the database.
func (r *PGRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

var _ Repository = (*PGRepository)(nil)
