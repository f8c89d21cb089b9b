package interfaces

import (
	"context"

	"github.com/ternarybob/pasar/internal/models"
)

// SchedulerService drives the periodic refresh tasks
type SchedulerService interface {
	// Start begins the cron loop. Tasks run under ctx and stop when it is cancelled.
	Start(ctx context.Context) error

	// Stop halts the cron loop and waits for running tasks to finish
	Stop() error

	// IsRunning returns true if the cron loop is active
	IsRunning() bool

	// Trigger starts a registered task now in the background
	Trigger(name string) error

	// Status returns every registered task ordered by name
	Status() []models.TaskStatus
}
