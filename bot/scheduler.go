package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"

	"github.com/Edward-Boguslavsky/Birthday-Bot/logfields"
)

// Scheduler wraps gocron to run the role checker periodically.
type Scheduler struct {
	scheduler gocron.Scheduler
	sweep     gocron.Job
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(clock clockwork.Clock) (*Scheduler, error) {
	opts := []gocron.SchedulerOption{}
	if clock != nil {
		opts = append(opts, gocron.WithClock(clock))
	}
	s, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s}, nil
}

// ScheduleSweep runs checker every interval, starting as soon as the
// scheduler starts. Runs never overlap; a run due while another is still
// going is rescheduled.
func (s *Scheduler) ScheduleSweep(interval time.Duration, checker *RoleChecker) error {
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.executeSweep, checker),
		gocron.WithName("birthday-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to create sweep job: %w", err)
	}
	s.sweep = job
	return nil
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	slog.Info("Starting scheduler")
	s.scheduler.Start()
}

// RunSweep triggers the sweep job outside its schedule.
func (s *Scheduler) RunSweep() {
	if s.sweep == nil {
		return
	}
	if err := s.sweep.RunNow(); err != nil {
		slog.Warn("Failed to trigger sweep", logfields.Error(err))
	}
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}

func (s *Scheduler) executeSweep(checker *RoleChecker) {
	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()

	if _, err := checker.CheckRoles(ctx); err != nil {
		slog.Error("Role check failed", logfields.Error(err))
	}
}
