package suppliers

import (
	"time"

	"github.com/google/uuid"
)

// Supplier is a pharmacy-scoped supplier record.
type Supplier struct {
	ID            uuid.UUID `json:"id"`
	PharmacyID    uuid.UUID `json:"pharmacy_id"`
	Name          string    `json:"name"`
	ContactPerson string    `json:"contact_person"`
	Phone         string    `json:"phone"`
	Email         string    `json:"email"`
	Address       string    `json:"address"`
	Notes         string    `json:"notes"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
