package inventory

import "time"

// StockStatus labels how a product's quantity relates to its minimum
// stock level. Statuses are totally ordered by severity: out of stock is
// the most urgent, available the least.
type StockStatus string

const (
	// StatusOutOfStock means nothing is left on the shelf.
	StatusOutOfStock StockStatus = "OUT_OF_STOCK"
	// StatusCriticallyLow means less than half the minimum level remains.
	StatusCriticallyLow StockStatus = "CRITICALLY_LOW"
	// StatusLow means the quantity sits between half the minimum and the minimum.
	StatusLow StockStatus = "LOW"
	// StatusAvailable means the quantity meets or exceeds the minimum level.
	StatusAvailable StockStatus = "AVAILABLE"
)

// SeverityRank orders statuses from most urgent (0) to least urgent (3).
func (s StockStatus) SeverityRank() int {
	switch s {
	case StatusOutOfStock:
		return 0
	case StatusCriticallyLow:
		return 1
	case StatusLow:
		return 2
	default:
		return 3
	}
}

// ClassifyStock maps a quantity and minimum stock level to a StockStatus.
//
// The thresholds are half the minimum level and the minimum level itself.
// When minLevel is 0 both thresholds collapse to 0, so any positive
// quantity classifies as available; that degenerate case is intentional
// and must not be special-cased.
func ClassifyStock(quantity, minLevel int) StockStatus {
	switch {
	case quantity <= 0:
		return StatusOutOfStock
	case float64(quantity) < float64(minLevel)*0.5:
		return StatusCriticallyLow
	case quantity < minLevel:
		return StatusLow
	default:
		return StatusAvailable
	}
}

// ExpiryStatus labels whether a product is inside the expiry warning window.
type ExpiryStatus string

const (
	// ExpiryNormal means no warning applies.
	ExpiryNormal ExpiryStatus = "NORMAL"
	// ExpirySoon means the product expires within the warning window.
	ExpirySoon ExpiryStatus = "EXPIRING_SOON"
)

// ExpiryWindowDays is the warning horizon for upcoming expiry dates.
const ExpiryWindowDays = 30

// EvaluateExpiry flags products whose expiry date falls strictly after
// today and within the warning window. A nil expiry date is normal.
// Dates already in the past are also normal: the warning covers upcoming
// expiries only, matching how the rest of the system reports them.
func EvaluateExpiry(expiry *time.Time, today time.Time) ExpiryStatus {
	if expiry == nil {
		return ExpiryNormal
	}
	days := DaysUntil(*expiry, today)
	if days > 0 && days <= ExpiryWindowDays {
		return ExpirySoon
	}
	return ExpiryNormal
}

// DaysUntil returns the number of whole calendar days from today until t.
// Negative values mean t is in the past.
func DaysUntil(t, today time.Time) int {
	ty, tm, td := t.Date()
	y, m, d := today.Date()
	a := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	b := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return int(a.Sub(b) / (24 * time.Hour))
}
