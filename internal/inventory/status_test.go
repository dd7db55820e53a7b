package inventory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyStock(t *testing.T) {
	cases := []struct {
		name     string
		quantity int
		minLevel int
		want     StockStatus
	}{
		{"zero quantity is out of stock", 0, 20, StatusOutOfStock},
		{"zero quantity with zero minimum", 0, 0, StatusOutOfStock},
		{"below half the minimum", 5, 20, StatusCriticallyLow},
		{"just under half the minimum", 9, 20, StatusCriticallyLow},
		{"exactly half the minimum", 10, 20, StatusLow},
		{"just under the minimum", 19, 20, StatusLow},
		{"exactly the minimum", 20, 20, StatusAvailable},
		{"well above the minimum", 100, 20, StatusAvailable},
		{"odd minimum rounds the half threshold", 5, 11, StatusCriticallyLow},
		{"odd minimum low band", 6, 11, StatusLow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyStock(tc.quantity, tc.minLevel))
		})
	}
}

func TestClassifyStockZeroMinimumDegenerateCase(t *testing.T) {
	// With minLevel 0 both thresholds are 0, so every positive quantity
	// is available. This follows from the arithmetic and must hold.
	for qty := 1; qty <= 50; qty++ {
		require.Equal(t, StatusAvailable, ClassifyStock(qty, 0), "qty=%d", qty)
	}
	require.Equal(t, StatusOutOfStock, ClassifyStock(0, 0))
}

func TestClassifyStockTotalAndIdempotent(t *testing.T) {
	valid := map[StockStatus]bool{
		StatusOutOfStock:    true,
		StatusCriticallyLow: true,
		StatusLow:           true,
		StatusAvailable:     true,
	}
	for qty := 0; qty <= 60; qty++ {
		for minLevel := 0; minLevel <= 40; minLevel++ {
			first := ClassifyStock(qty, minLevel)
			require.True(t, valid[first], "qty=%d min=%d produced %q", qty, minLevel, first)
			require.Equal(t, first, ClassifyStock(qty, minLevel))
		}
	}
}

func TestClassifyStockMonotonicInQuantity(t *testing.T) {
	for _, minLevel := range []int{1, 7, 10, 20, 33} {
		prev := ClassifyStock(0, minLevel)
		for qty := 1; qty <= minLevel*2+5; qty++ {
			cur := ClassifyStock(qty, minLevel)
			require.GreaterOrEqual(t, cur.SeverityRank(), prev.SeverityRank(),
				"severity regressed at qty=%d min=%d", qty, minLevel)
			prev = cur
		}
	}
}

func TestEvaluateExpiry(t *testing.T) {
	today := time.Date(2025, 6, 10, 9, 30, 0, 0, time.UTC)
	date := func(days int) *time.Time {
		d := today.AddDate(0, 0, days)
		return &d
	}

	cases := []struct {
		name   string
		expiry *time.Time
		want   ExpiryStatus
	}{
		{"nil expiry", nil, ExpiryNormal},
		{"fifteen days out", date(15), ExpirySoon},
		{"window boundary inclusive", date(30), ExpirySoon},
		{"one past the window", date(31), ExpiryNormal},
		{"tomorrow", date(1), ExpirySoon},
		{"today is not flagged", date(0), ExpiryNormal},
		{"yesterday is not flagged", date(-1), ExpiryNormal},
		{"long expired", date(-200), ExpiryNormal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, EvaluateExpiry(tc.expiry, today))
		})
	}
}

func TestDaysUntilIgnoresTimeOfDay(t *testing.T) {
	today := time.Date(2025, 6, 10, 23, 59, 0, 0, time.UTC)
	target := time.Date(2025, 6, 12, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 2, DaysUntil(target, today))
	assert.Equal(t, -2, DaysUntil(today.AddDate(0, 0, -2), today))
}
