package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDashboardWarmup recomputes the dashboard snapshot into the cache.
	TaskDashboardWarmup = "analytics:dashboard_warmup"
)

// DashboardWarmupPayload identifies what triggered a warm-up. Version is the
// cache version observed by the trigger, zero for scheduled runs.
type DashboardWarmupPayload struct {
	Trigger string `json:"trigger"`
	Version int64  `json:"version,omitempty"`
}

// NewDashboardWarmupTask constructs an Asynq task.
func NewDashboardWarmupTask(payload DashboardWarmupPayload) (*asynq.Task, error) {
	if payload.Trigger == "" {
		payload.Trigger = "cron"
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDashboardWarmup, data, asynq.MaxRetry(3), asynq.Timeout(30*time.Second)), nil
}
