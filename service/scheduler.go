package service

import (
	"context"
	"fmt"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Scheduler runs the periodic maintenance jobs of the matcher
type Scheduler struct {
	sched  gocron.Scheduler
	logger *zap.Logger
}

// NewScheduler registers the stale match report and, when enabled, the queue sweep
func NewScheduler(ctx context.Context, matcher *MatcherService, config *MatcherConfig, clock clockwork.Clock, logger *zap.Logger) (*Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithClock(clock))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	if config.StaleCheckInterval > 0 {
		_, err = sched.NewJob(
			gocron.DurationJob(config.StaleCheckInterval),
			gocron.NewTask(func() {
				matcher.ReportStalePending()
			}),
			gocron.WithName("stale-pending-report"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to register stale report job: %w", err)
		}
	}

	if config.SweepInterval > 0 {
		_, err = sched.NewJob(
			gocron.DurationJob(config.SweepInterval),
			gocron.NewTask(func() {
				matcher.SweepQueue(ctx)
			}),
			gocron.WithName("queue-sweep"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to register queue sweep job: %w", err)
		}
	}

	return &Scheduler{sched: sched, logger: logger}, nil
}

// Start begins running the registered jobs
func (s *Scheduler) Start() {
	s.sched.Start()
	s.logger.Info("Scheduler started", zap.Int("jobs", len(s.sched.Jobs())))
}

// Jobs returns the names of the registered jobs
func (s *Scheduler) Jobs() []string {
	jobs := s.sched.Jobs()
	names := make([]string, 0, len(jobs))
	for _, j := range jobs {
		names = append(names, j.Name())
	}
	return names
}

// Shutdown stops the scheduler and waits for running jobs
func (s *Scheduler) Shutdown() error {
	if err := s.sched.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}
	return nil
}
