package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/novapharm/novapharm/internal/inventory"
	jobmetrics "github.com/novapharm/novapharm/internal/jobs"
	"github.com/novapharm/novapharm/internal/products"
	"github.com/novapharm/novapharm/internal/shared"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// ExpiryScanJob walks every pharmacy's catalog and reports products whose
// expiry date falls inside the warning window.
type ExpiryScanJob struct {
	Products products.Repository
	Pool     *pgxpool.Pool
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	Audit    *shared.AuditLogger
	clock    func() time.Time
}

// NewExpiryScanJob wires dependencies for the scan handler.
func NewExpiryScanJob(productRepo products.Repository, pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics, audit *shared.AuditLogger) *ExpiryScanJob {
	return &ExpiryScanJob{
		Products: productRepo,
		Pool:     pool,
		Logger:   logger,
		Metrics:  metrics,
		Audit:    audit,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes expiry scan tasks.
func (j *ExpiryScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("expiry scan: handler not configured")
	}
	var payload ExpiryScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	window := payload.WindowDays
	if window <= 0 {
		window = inventory.ExpiryWindowDays
	}

	tracker := j.metrics().Track(TaskInventoryExpiryScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Int("window_days", window))
	logger.Info("starting expiry scan")

	pharmacies, err := j.fetchPharmacies(ctx)
	if err != nil {
		resultErr = err
		logger.Error("load pharmacies", slog.Any("error", err))
		return resultErr
	}
	if len(pharmacies) == 0 {
		logger.Info("no pharmacies to scan")
		return resultErr
	}

	today := j.now()
	cutoff := today.AddDate(0, 0, window+1)
	scanned := 0
	for _, pharmacyID := range pharmacies {
		count, err := j.scanPharmacy(ctx, pharmacyID, today, cutoff, window)
		if err != nil {
			resultErr = err
			logger.Error("scan pharmacy", slog.String("pharmacy_id", pharmacyID.String()), slog.Any("error", err))
			return resultErr
		}
		j.metrics().SetExpiring(pharmacyID.String(), count)
		if count > 0 {
			logger.Warn("products expiring soon",
				slog.String("pharmacy_id", pharmacyID.String()),
				slog.Int("count", count))
			if j.Audit != nil {
				if err := j.Audit.Record(ctx, shared.AuditLog{
					PharmacyID: pharmacyID,
					Action:     "inventory.expiry_warning",
					Entity:     "product",
					Meta:       map[string]any{"count": count, "window_days": window},
				}); err != nil {
					logger.Warn("record expiry audit", slog.Any("error", err))
				}
			}
		}
		scanned++
	}

	logger.Info("completed expiry scan", slog.Int("pharmacies", scanned), slog.Duration("duration", time.Since(today)))
	return resultErr
}

func (j *ExpiryScanJob) scanPharmacy(ctx context.Context, pharmacyID uuid.UUID, today, cutoff time.Time, window int) (int, error) {
	scanCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	items, err := j.Products.ListExpiringBefore(scanCtx, pharmacyID, cutoff)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, p := range items {
		if p.ExpiryDate == nil {
			continue
		}
		days := inventory.DaysUntil(*p.ExpiryDate, today)
		if days > 0 && days <= window {
			count++
		}
	}
	return count, nil
}

func (j *ExpiryScanJob) fetchPharmacies(ctx context.Context) ([]uuid.UUID, error) {
	if j.Pool == nil {
		return nil, errors.New("expiry scan: pool not configured")
	}
	rows, err := j.Pool.Query(ctx, `SELECT id FROM pharmacy_profiles ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (j *ExpiryScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskInventoryExpiryScan))
	}
	return slog.Default().With(slog.String("job", TaskInventoryExpiryScan))
}

func (j *ExpiryScanJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *ExpiryScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
