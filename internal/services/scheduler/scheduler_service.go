// Package scheduler runs the periodic refresh tasks on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pasar/internal/common"
	"github.com/ternarybob/pasar/internal/interfaces"
	"github.com/ternarybob/pasar/internal/models"
)

// stopTimeout bounds how long Stop waits for in-flight runs
const stopTimeout = 30 * time.Second

var (
	// ErrUnknownTask is returned for a task name that was never registered
	ErrUnknownTask = errors.New("unknown task")

	// ErrTaskRunning is returned when a trigger arrives while the task is mid-run
	ErrTaskRunning = errors.New("task already running")
)

// Task is one unit of periodic work
type Task interface {
	Name() string
	Run(ctx context.Context) (models.CycleReport, error)
}

// slot holds a registered task and its run history. The scheduler mutex guards every field.
type slot struct {
	task       Task
	schedule   string
	runOnStart bool
	entryID    cron.EntryID

	running    bool
	lastStart  time.Time
	lastFinish time.Time
	lastErr    error
	lastReport *models.CycleReport
	runs       int
	skipped    int
}

// Service implements interfaces.SchedulerService
type Service struct {
	cron   *cron.Cron
	logger arbor.ILogger

	mu      sync.Mutex
	slots   map[string]*slot
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	wg      sync.WaitGroup
}

var _ interfaces.SchedulerService = (*Service)(nil)

// NewService creates a scheduler
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		cron:   cron.New(cron.WithLogger(cronLogger{logger: logger})),
		logger: logger,
		slots:  make(map[string]*slot),
		ctx:    context.Background(),
	}
}

// Register adds task on schedule. runOnStart fires one run as soon as Start is called.
func (s *Service) Register(schedule string, task Task, runOnStart bool) error {
	if task == nil || strings.TrimSpace(task.Name()) == "" {
		return fmt.Errorf("task with a name is required")
	}
	if err := common.ValidateSchedule(schedule); err != nil {
		return fmt.Errorf("invalid schedule for %s: %w", task.Name(), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := task.Name()
	if _, exists := s.slots[name]; exists {
		return fmt.Errorf("task %s already registered", name)
	}

	entryID, err := s.cron.AddFunc(schedule, func() { s.run(name) })
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}
	s.slots[name] = &slot{task: task, schedule: schedule, runOnStart: runOnStart, entryID: entryID}

	s.logger.Info().
		Str("task", name).
		Str("schedule", schedule).
		Bool("run_on_start", runOnStart).
		Msg("Task registered")
	return nil
}

// Start begins the cron loop
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.started = true
	s.ctx, s.cancel = context.WithCancel(ctx)

	var startup []string
	for name, sl := range s.slots {
		if sl.runOnStart {
			startup = append(startup, name)
		}
	}
	count := len(s.slots)
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info().Int("tasks", count).Msg("Scheduler started")

	slices.Sort(startup)
	for _, name := range startup {
		s.spawn(name)
	}
	return nil
}

// Stop cancels in-flight runs and waits for them to return
func (s *Service) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	cronDone := s.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("Scheduler stopped")
	case <-time.After(stopTimeout):
		s.logger.Warn().Dur("timeout", stopTimeout).Msg("Scheduler stopped before running tasks returned")
	}
	return nil
}

// IsRunning returns true if the cron loop is active
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Trigger starts a run of name in the background
func (s *Service) Trigger(name string) error {
	s.mu.Lock()
	sl, ok := s.slots[name]
	switch {
	case !ok:
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownTask, name)
	case sl.running:
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTaskRunning, name)
	}
	s.mu.Unlock()

	s.logger.Info().Str("task", name).Msg("Task triggered manually")
	s.spawn(name)
	return nil
}

// Status returns every registered task ordered by name
func (s *Service) Status() []models.TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[cron.EntryID]time.Time)
	if s.started {
		for _, e := range s.cron.Entries() {
			next[e.ID] = e.Next
		}
	}

	statuses := make([]models.TaskStatus, 0, len(s.slots))
	for name, sl := range s.slots {
		st := models.TaskStatus{
			Name:       name,
			Schedule:   sl.schedule,
			RunOnStart: sl.runOnStart,
			Running:    sl.running,
			LastStart:  timePtr(sl.lastStart),
			LastFinish: timePtr(sl.lastFinish),
			NextRun:    timePtr(next[sl.entryID]),
			Runs:       sl.runs,
			Skipped:    sl.skipped,
		}
		if sl.lastErr != nil {
			st.LastError = sl.lastErr.Error()
		}
		if sl.lastReport != nil {
			report := *sl.lastReport
			report.FailedTags = slices.Clone(report.FailedTags)
			st.LastReport = &report
		}
		statuses = append(statuses, st)
	}
	slices.SortFunc(statuses, func(a, b models.TaskStatus) int { return strings.Compare(a.Name, b.Name) })
	return statuses
}

func (s *Service) spawn(name string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(name)
	}()
}

// run executes one cycle of name. A tick that lands while the previous cycle is
// still running is counted as skipped.
func (s *Service) run(name string) {
	s.mu.Lock()
	sl, ok := s.slots[name]
	if !ok {
		s.mu.Unlock()
		return
	}
	if sl.running {
		sl.skipped++
		s.mu.Unlock()
		s.logger.Warn().Str("task", name).Msg("Previous run still in progress, skipping")
		return
	}
	sl.running = true
	sl.lastStart = time.Now()
	ctx := s.ctx
	task := sl.task
	s.mu.Unlock()

	report, err := s.invoke(ctx, task)

	s.mu.Lock()
	sl.running = false
	sl.lastFinish = time.Now()
	sl.lastErr = err
	sl.lastReport = &report
	sl.runs++
	elapsed := sl.lastFinish.Sub(sl.lastStart)
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn().
			Str("task", name).
			Int("failed_units", len(report.FailedTags)).
			Dur("duration", elapsed).
			Err(err).
			Msg("Task finished with errors")
		return
	}
	s.logger.Info().
		Str("task", name).
		Int("inserted", report.Inserted).
		Dur("duration", elapsed).
		Msg("Task finished")
}

// invoke converts a task panic into an error so the schedule keeps firing
func (s *Service) invoke(ctx context.Context, task Task) (report models.CycleReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("task", task.Name()).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("Task panicked")
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return task.Run(ctx)
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// cronLogger routes cron's own diagnostics to arbor
type cronLogger struct {
	logger arbor.ILogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Str("cron", fmt.Sprint(keysAndValues...)).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Str("cron", fmt.Sprint(keysAndValues...)).Msg(msg)
}
