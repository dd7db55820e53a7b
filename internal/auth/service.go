package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/novapharm/novapharm/internal/pharmacy"
	"github.com/novapharm/novapharm/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// RegisterInput carries the account and pharmacy fields submitted on the
// registration form.
type RegisterInput struct {
	Email    string
	Password string
	Profile  pharmacy.Profile
}

// Register creates the user account together with its pharmacy profile.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*User, pharmacy.Profile, error) {
	if err := pharmacy.Validate(input.Profile); err != nil {
		return nil, pharmacy.Profile{}, err
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, pharmacy.Profile{}, err
	}

	user, profile, err := s.repo.CreateUserWithProfile(ctx, User{Email: email, PasswordHash: string(hash)}, input.Profile)
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return nil, pharmacy.Profile{}, shared.NewValidationError("email", "an account with this email already exists")
		}
		return nil, pharmacy.Profile{}, err
	}
	return &user, profile, nil
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id string, userID uuid.UUID, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}
