package reports

import (
	"sort"
	"time"

	"github.com/novapharm/novapharm/internal/sales"
)

// UnknownProductLabel is used when a sale line cannot be matched to a
// product name.
const UnknownProductLabel = "unknown product"

// DailyMaxDays caps the daily revenue series.
const DailyMaxDays = 7

// DailyPoint is one day of sales activity.
type DailyPoint struct {
	Date  time.Time `json:"date"`
	Total float64   `json:"total"`
	Count int       `json:"count"`
}

// StatusSlice sums sales per payment status.
type StatusSlice struct {
	Status string  `json:"status"`
	Total  float64 `json:"total"`
	Count  int     `json:"count"`
}

// ProductTotal sums sold quantity and revenue per product.
type ProductTotal struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Total    float64 `json:"total"`
}

// DailySeries reduces sales into a per-day series of at most the seven most
// recent distinct dates present in the input, ordered ascending.
func DailySeries(list []sales.Sale) []DailyPoint {
	byDay := map[time.Time]*DailyPoint{}
	for _, s := range list {
		day := dateOnly(s.SaleDate)
		point, ok := byDay[day]
		if !ok {
			point = &DailyPoint{Date: day}
			byDay[day] = point
		}
		point.Total += s.TotalAmount
		point.Count++
	}

	days := make([]time.Time, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	if len(days) > DailyMaxDays {
		days = days[len(days)-DailyMaxDays:]
	}

	series := make([]DailyPoint, 0, len(days))
	for _, day := range days {
		series = append(series, *byDay[day])
	}
	return series
}

// StatusBreakdown reduces sales into per-payment-status totals. Known
// statuses come first in a fixed order, anything else follows in order of
// first appearance.
func StatusBreakdown(list []sales.Sale) []StatusSlice {
	order := []string{sales.PaymentStatusCompleted, sales.PaymentStatusPending, sales.PaymentStatusCancelled}
	index := map[string]int{}
	var slices []StatusSlice

	add := func(status string) int {
		if pos, ok := index[status]; ok {
			return pos
		}
		index[status] = len(slices)
		slices = append(slices, StatusSlice{Status: status})
		return index[status]
	}

	present := map[string]bool{}
	for _, s := range list {
		present[s.PaymentStatus] = true
	}
	for _, status := range order {
		if present[status] {
			add(status)
		}
	}

	for _, s := range list {
		pos := add(s.PaymentStatus)
		slices[pos].Total += s.FinalAmount
		slices[pos].Count++
	}
	return slices
}

// TopProducts reduces sale lines into the n best-selling products by summed
// quantity. Ties keep their first-appearance order. Lines without a product
// reference or name fall back to the "unknown product" label.
func TopProducts(list []sales.Sale, n int) []ProductTotal {
	index := map[string]int{}
	var totals []ProductTotal

	for _, s := range list {
		for _, item := range s.Items {
			name := item.ProductName
			if name == "" {
				name = UnknownProductLabel
			}
			pos, ok := index[name]
			if !ok {
				pos = len(totals)
				index[name] = pos
				totals = append(totals, ProductTotal{Name: name})
			}
			totals[pos].Quantity += item.Quantity
			totals[pos].Total += item.TotalPrice
		}
	}

	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].Quantity > totals[j].Quantity
	})

	if n > 0 && len(totals) > n {
		totals = totals[:n]
	}
	return totals
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
