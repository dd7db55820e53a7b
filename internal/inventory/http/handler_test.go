package http

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/novapharm/novapharm/internal/products"
	_ "github.com/novapharm/novapharm/testing"
)

func TestBucketProducts(t *testing.T) {
	items := []products.Product{
		{Name: "gone", StockQuantity: 0, MinStockLevel: 20},
		{Name: "critical", StockQuantity: 5, MinStockLevel: 20},
		{Name: "low", StockQuantity: 12, MinStockLevel: 20},
		{Name: "fine", StockQuantity: 20, MinStockLevel: 20},
		{Name: "no minimum", StockQuantity: 3, MinStockLevel: 0},
	}

	buckets := BucketProducts(items)

	assert.Len(t, buckets.OutOfStock, 1)
	assert.Equal(t, "gone", buckets.OutOfStock[0].Name)
	assert.Len(t, buckets.CriticallyLow, 1)
	assert.Equal(t, "critical", buckets.CriticallyLow[0].Name)
	assert.Len(t, buckets.Low, 1)
	assert.Equal(t, "low", buckets.Low[0].Name)
	assert.Len(t, buckets.Available, 2)
}

func TestBucketProductsEndToEndScenario(t *testing.T) {
	// A product at a quarter of its minimum is very low stock and must not
	// show up as available.
	items := []products.Product{{Name: "amoxicillin", StockQuantity: 5, MinStockLevel: 20}}

	buckets := BucketProducts(items)

	assert.Len(t, buckets.CriticallyLow, 1)
	assert.Empty(t, buckets.Available)
}
