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

	jobmetrics "github.com/novapharm/novapharm/internal/jobs"
	"github.com/novapharm/novapharm/internal/reports"
	"github.com/novapharm/novapharm/internal/shared"
)

// ReportWarmupJob precomputes the sales report summary for every pharmacy
// so the report page serves from a warm cache.
type ReportWarmupJob struct {
	Reports *reports.Service
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewReportWarmupJob wires dependencies for the warmup handler.
func NewReportWarmupJob(reportService *reports.Service, pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReportWarmupJob {
	return &ReportWarmupJob{
		Reports: reportService,
		Pool:    pool,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes report warmup tasks.
func (j *ReportWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("report warmup: handler not configured")
	}
	var payload ReportsWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	day := j.now()
	if payload.Day != "" {
		parsed, err := time.Parse("2006-01-02", payload.Day)
		if err != nil {
			return asynq.SkipRetry
		}
		day = parsed
	}

	tracker := j.metrics().Track(TaskReportsWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("day", day.Format("2006-01-02")))
	logger.Info("starting report warmup")

	pharmacies, err := j.fetchPharmacies(ctx)
	if err != nil {
		resultErr = err
		logger.Error("load pharmacies", slog.Any("error", err))
		return resultErr
	}
	if len(pharmacies) == 0 {
		logger.Info("no pharmacies to warm")
		return resultErr
	}

	warmed := 0
	for _, pharmacyID := range pharmacies {
		if err := j.warmPharmacy(ctx, pharmacyID, day); err != nil {
			resultErr = err
			logger.Error("warm pharmacy", slog.String("pharmacy_id", pharmacyID.String()), slog.Any("error", err))
			return resultErr
		}
		warmed++
	}

	logger.Info("completed report warmup", slog.Int("pharmacies", warmed))
	return resultErr
}

func (j *ReportWarmupJob) warmPharmacy(ctx context.Context, pharmacyID uuid.UUID, day time.Time) error {
	if j.Reports == nil {
		return nil
	}
	warmCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	warmCtx = shared.ContextWithTenant(warmCtx, pharmacyID)
	_, err := j.Reports.Summary(warmCtx, day)
	return err
}

func (j *ReportWarmupJob) fetchPharmacies(ctx context.Context) ([]uuid.UUID, error) {
	if j.Pool == nil {
		return nil, errors.New("report warmup: pool not configured")
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

func (j *ReportWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskReportsWarmup))
	}
	return slog.Default().With(slog.String("job", TaskReportsWarmup))
}

func (j *ReportWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *ReportWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
