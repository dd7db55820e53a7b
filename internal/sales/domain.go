package sales

import (
	"time"

	"github.com/google/uuid"
)

// Payment statuses for a sale.
const (
	PaymentStatusCompleted = "completed"
	PaymentStatusPending   = "pending"
	PaymentStatusCancelled = "cancelled"
)

// Payment methods accepted at the counter.
const (
	PaymentMethodCash     = "cash"
	PaymentMethodCard     = "card"
	PaymentMethodTransfer = "transfer"
)

// Sale is an invoice header. Items carry the line detail.
type Sale struct {
	ID            uuid.UUID  `json:"id"`
	PharmacyID    uuid.UUID  `json:"pharmacy_id"`
	InvoiceNumber string     `json:"invoice_number"`
	SaleDate      time.Time  `json:"sale_date"`
	CustomerID    *uuid.UUID `json:"customer_id"`
	CustomerName  string     `json:"customer_name"`
	TotalAmount   float64    `json:"total_amount"`
	Discount      float64    `json:"discount"`
	FinalAmount   float64    `json:"final_amount"`
	PaymentMethod string     `json:"payment_method"`
	PaymentStatus string     `json:"payment_status"`
	Notes         string     `json:"notes"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	Items []SaleItem `json:"items,omitempty"`
}

// SaleItem is one invoice line. ProductID may be nil when the product was
// deleted after the sale; ProductName keeps the display name in that case.
type SaleItem struct {
	ID          uuid.UUID  `json:"id"`
	SaleID      uuid.UUID  `json:"sale_id"`
	ProductID   *uuid.UUID `json:"product_id"`
	ProductName string     `json:"product_name"`
	Quantity    int        `json:"quantity"`
	UnitPrice   float64    `json:"unit_price"`
	TotalPrice  float64    `json:"total_price"`
}

// ValidPaymentStatus reports whether s is one of the accepted statuses.
func ValidPaymentStatus(s string) bool {
	switch s {
	case PaymentStatusCompleted, PaymentStatusPending, PaymentStatusCancelled:
		return true
	}
	return false
}

// ValidPaymentMethod reports whether m is one of the accepted methods.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodTransfer:
		return true
	}
	return false
}

// CalculateTotals sums line totals and applies the invoice-level discount.
// The final amount never drops below zero even when the discount exceeds
// the subtotal.
func CalculateTotals(items []SaleItem, discount float64) (total, final float64) {
	for _, item := range items {
		total += item.TotalPrice
	}
	final = total - discount
	if final < 0 {
		final = 0
	}
	return total, final
}
