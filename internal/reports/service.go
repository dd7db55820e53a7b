package reports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/novapharm/novapharm/internal/sales"
	"github.com/novapharm/novapharm/internal/shared"
)

// HistoryDays is how far back the report summary looks.
const HistoryDays = 30

// TopProductCount caps the best-seller list.
const TopProductCount = 5

// SaleSource is the slice of the sales service the reports need.
type SaleSource interface {
	ListWithItemsSince(ctx context.Context, since time.Time) ([]sales.Sale, error)
}

// Summary is the assembled report payload for one pharmacy.
type Summary struct {
	GeneratedAt  time.Time      `json:"generated_at"`
	TotalRevenue float64        `json:"total_revenue"`
	SaleCount    int            `json:"sale_count"`
	Daily        []DailyPoint   `json:"daily"`
	Statuses     []StatusSlice  `json:"statuses"`
	TopProducts  []ProductTotal `json:"top_products"`
}

// Service assembles sales reports, with a redis cache in front of the
// aggregation queries.
type Service struct {
	source SaleSource
	cache  *Cache
}

func NewService(source SaleSource, cache *Cache) *Service {
	return &Service{source: source, cache: cache}
}

// Summary returns the cached report summary for the tenant in ctx,
// recomputing it on a cache miss.
func (s *Service) Summary(ctx context.Context, today time.Time) (Summary, error) {
	pharmacyID := shared.TenantFromContext(ctx)
	if pharmacyID == uuid.Nil {
		return Summary{}, shared.ErrNotAuthenticated
	}

	key, err := s.cache.SummaryKey(ctx, pharmacyID, today.Format("2006-01-02"))
	if err != nil {
		return Summary{}, err
	}

	var summary Summary
	err = s.cache.FetchJSON(ctx, key, &summary, func(ctx context.Context) (any, error) {
		return s.build(ctx, today)
	})
	if err != nil {
		return Summary{}, err
	}
	return summary, nil
}

func (s *Service) build(ctx context.Context, today time.Time) (Summary, error) {
	since := today.AddDate(0, 0, -HistoryDays)
	list, err := s.source.ListWithItemsSince(ctx, since)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		GeneratedAt: time.Now(),
		Daily:       DailySeries(list),
		Statuses:    StatusBreakdown(list),
		TopProducts: TopProducts(list, TopProductCount),
	}
	for _, sale := range list {
		if sale.PaymentStatus == sales.PaymentStatusCompleted {
			summary.TotalRevenue += sale.FinalAmount
		}
	}
	summary.SaleCount = len(list)
	return summary, nil
}

// Invalidate bumps the cache version after sales or stock changed.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}
