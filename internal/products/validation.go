package products

import (
	"strings"

	"github.com/novapharm/novapharm/internal/shared"
)

func validate(p Product) error {
	fields := map[string]string{}
	if strings.TrimSpace(p.Name) == "" {
		fields["name"] = "product name is required"
	}
	if p.Price < 0 {
		fields["price"] = "price cannot be negative"
	}
	if p.CostPrice < 0 {
		fields["cost_price"] = "cost price cannot be negative"
	}
	if p.StockQuantity < 0 {
		fields["stock_quantity"] = "stock quantity cannot be negative"
	}
	if p.MinStockLevel < 0 {
		fields["min_stock_level"] = "minimum stock level cannot be negative"
	}
	if len(fields) == 0 {
		return nil
	}
	return &shared.ValidationError{Fields: fields}
}
