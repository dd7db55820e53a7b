package procurement

import (
	"time"

	"github.com/google/uuid"
)

// Purchase order lifecycle.
const (
	StatusDraft     = "draft"
	StatusOrdered   = "ordered"
	StatusReceived  = "received"
	StatusCancelled = "cancelled"
)

// PurchaseOrder is a restock order sent to a supplier.
type PurchaseOrder struct {
	ID           uuid.UUID  `json:"id"`
	PharmacyID   uuid.UUID  `json:"pharmacy_id"`
	SupplierID   uuid.UUID  `json:"supplier_id"`
	SupplierName string     `json:"supplier_name"`
	OrderNumber  string     `json:"order_number"`
	Status       string     `json:"status"`
	OrderDate    time.Time  `json:"order_date"`
	ExpectedDate *time.Time `json:"expected_date"`
	TotalCost    float64    `json:"total_cost"`
	Notes        string     `json:"notes"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Items []PurchaseOrderItem `json:"items,omitempty"`
}

// PurchaseOrderItem is one requested product line on an order.
type PurchaseOrderItem struct {
	ID              uuid.UUID  `json:"id"`
	PurchaseOrderID uuid.UUID  `json:"purchase_order_id"`
	ProductID       *uuid.UUID `json:"product_id"`
	ProductName     string     `json:"product_name"`
	Quantity        int        `json:"quantity"`
	UnitCost        float64    `json:"unit_cost"`
	TotalCost       float64    `json:"total_cost"`
}

// ValidStatus reports whether s is a known order status.
func ValidStatus(s string) bool {
	switch s {
	case StatusDraft, StatusOrdered, StatusReceived, StatusCancelled:
		return true
	}
	return false
}
