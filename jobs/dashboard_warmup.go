package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/realty-erp/realty-erp/internal/analytics"
	jobmetrics "github.com/realty-erp/realty-erp/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// DashboardWarmer is the analytics capability used by the warm-up job.
type DashboardWarmer interface {
	Warm(ctx context.Context) (analytics.DashboardSnapshot, error)
}

// DashboardWarmupJob pre-populates the dashboard cache so the first request
// after a bump is served warm.
type DashboardWarmupJob struct {
	Analytics DashboardWarmer
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	Timeout   time.Duration
}

// NewDashboardWarmupJob wires dependencies for the warm-up handler.
func NewDashboardWarmupJob(warmer DashboardWarmer, logger *slog.Logger, metrics *jobmetrics.Metrics) *DashboardWarmupJob {
	return &DashboardWarmupJob{Analytics: warmer, Logger: logger, Metrics: metrics, Timeout: 20 * time.Second}
}

// Handle processes dashboard warm-up tasks.
func (j *DashboardWarmupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Analytics == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	var payload DashboardWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskDashboardWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("trigger", payload.Trigger), slog.Int64("version", payload.Version))
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}
	start := time.Now()
	snapshot, err := j.Analytics.Warm(ctx)
	if err != nil {
		logger.Error("dashboard warmup", slog.Any("error", err))
		return err
	}
	logger.Info("completed dashboard warmup",
		slog.Int("projects", snapshot.Counts.Projects),
		slog.Int64("total_revenue", snapshot.TotalRevenue),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *DashboardWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDashboardWarmup))
	}
	return slog.Default().With(slog.String("job", TaskDashboardWarmup))
}

func (j *DashboardWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
