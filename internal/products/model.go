package products

import (
	"time"

	"github.com/google/uuid"
)

// Product is a pharmacy-scoped inventory item.
type Product struct {
	ID            uuid.UUID  `json:"id"`
	PharmacyID    uuid.UUID  `json:"pharmacy_id"`
	Name          string     `json:"name"`
	Barcode       string     `json:"barcode"`
	Category      string     `json:"category"`
	Description   string     `json:"description"`
	Manufacturer  string     `json:"manufacturer"`
	Price         float64    `json:"price"`
	CostPrice     float64    `json:"cost_price"`
	StockQuantity int        `json:"stock_quantity"`
	MinStockLevel int        `json:"min_stock_level"`
	ExpiryDate    *time.Time `json:"expiry_date"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
