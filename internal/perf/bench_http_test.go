package perf

import (
	"fmt"
	"testing"
	"time"

	"github.com/novapharm/novapharm/internal/reports"
	"github.com/novapharm/novapharm/internal/sales"
)

// The report summary is rebuilt from scratch on every cache miss, so the
// aggregation pass over a pharmacy's sales history has to stay cheap.
func BenchmarkReportAggregation(b *testing.B) {
	history := syntheticSales(5000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		reports.DailySeries(history)
		reports.StatusBreakdown(history)
		reports.TopProducts(history, 5)
	}
}

func syntheticSales(n int) []sales.Sale {
	base := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	statuses := []string{sales.PaymentStatusCompleted, sales.PaymentStatusPending, sales.PaymentStatusCancelled}
	list := make([]sales.Sale, 0, n)
	for i := 0; i < n; i++ {
		sale := sales.Sale{
			SaleDate:      base.AddDate(0, 0, i%30),
			FinalAmount:   float64(500 + i%4000),
			PaymentStatus: statuses[i%len(statuses)],
			Items: []sales.SaleItem{
				{ProductName: fmt.Sprintf("Product %d", i%40), Quantity: 1 + i%5},
			},
		}
		list = append(list, sale)
	}
	return list
}
