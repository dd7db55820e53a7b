package pharmacy

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the tenant root. Every other entity is scoped to a profile
// through its pharmacy_id column.
type Profile struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	PharmacyName  string    `json:"pharmacy_name"`
	OwnerName     string    `json:"owner_name"`
	LicenseNumber string    `json:"license_number"`
	Phone         string    `json:"phone"`
	Address       string    `json:"address"`
	City          string    `json:"city"`
	EmployeeCount *int      `json:"employee_count,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
