package models

import "time"

// CycleReport summarizes one run of a periodic task
type CycleReport struct {
	Units      int           `json:"units"`
	Inserted   int           `json:"inserted"`
	FailedTags []string      `json:"failed_tags,omitempty"`
	Duration   time.Duration `json:"duration_ns"`
}

// TaskStatus is the scheduler's view of one registered task
type TaskStatus struct {
	Name       string       `json:"name"`
	Schedule   string       `json:"schedule"`
	RunOnStart bool         `json:"run_on_start"`
	Running    bool         `json:"running"`
	LastStart  *time.Time   `json:"last_start,omitempty"`
	LastFinish *time.Time   `json:"last_finish,omitempty"`
	NextRun    *time.Time   `json:"next_run,omitempty"`
	LastError  string       `json:"last_error,omitempty"`
	LastReport *CycleReport `json:"last_report,omitempty"`
	Runs       int          `json:"runs"`
	Skipped    int          `json:"skipped"`
}
