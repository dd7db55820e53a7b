package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskInventoryExpiryScan walks every pharmacy's catalog and flags
	// products approaching their expiry date.
	TaskInventoryExpiryScan = "inventory:expiry_scan"
	// TaskReportsWarmup precomputes the sales report summary so the first
	// dashboard visit of the day hits a warm cache.
	TaskReportsWarmup = "reports:warmup"
)

// ExpiryScanPayload tunes a single expiry scan run.
type ExpiryScanPayload struct {
	// WindowDays overrides the default warning window when positive.
	WindowDays int `json:"window_days,omitempty"`
}

// NewExpiryScanTask constructs an expiry scan task.
func NewExpiryScanTask(payload ExpiryScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInventoryExpiryScan, data), nil
}

// ReportsWarmupPayload parameterises a report warmup run.
type ReportsWarmupPayload struct {
	// Day is the report day in 2006-01-02 form; empty means today.
	Day string `json:"day,omitempty"`
}

// NewReportsWarmupTask constructs a report warmup task.
func NewReportsWarmupTask(payload ReportsWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportsWarmup, data), nil
}
