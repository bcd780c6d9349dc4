package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Job is a background task. ctx is cancelled when the scheduler stops.
type Job func(ctx context.Context) error

type entry struct {
	id  cron.EntryID
	job Job
}

// Scheduler runs named periodic jobs on a seconds-precision cron.
type Scheduler struct {
	cron    *cron.Cron
	jobs    map[string]entry // name -> entry
	jobsMux sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
	logger zerolog.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	logger := log.With().Str("component", "scheduler").Logger()

	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger})),
		),
		jobs:   make(map[string]entry),
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Strs("jobs", s.Jobs()).Msg("scheduler started")
}

// Stop cancels running jobs and waits for them up to the context deadline.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()

	select {
	case <-done.Done():
		s.logger.Info().Msg("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// Every schedules job under name at a fixed interval, replacing any job with the same name.
func (s *Scheduler) Every(name string, interval time.Duration, job Job) error {
	if interval < time.Second {
		return fmt.Errorf("interval for %s must be at least 1s, got %s", name, interval)
	}
	return s.Add(name, "@every "+interval.String(), job)
}

// Add schedules job under name with a cron expression (6 fields, seconds first) or descriptor.
func (s *Scheduler) Add(name, schedule string, job Job) error {
	s.jobsMux.Lock()
	defer s.jobsMux.Unlock()

	if existing, ok := s.jobs[name]; ok {
		s.cron.Remove(existing.id)
		delete(s.jobs, name)
	}

	id, err := s.cron.AddFunc(schedule, func() { s.run(name, job) })
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.jobs[name] = entry{id: id, job: job}
	s.logger.Info().Str("job", name).Str("schedule", schedule).Msg("job scheduled")
	return nil
}

// RunNow runs a scheduled job synchronously, outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.jobsMux.RLock()
	existing, ok := s.jobs[name]
	s.jobsMux.RUnlock()

	if !ok {
		return fmt.Errorf("job %s is not scheduled", name)
	}
	return existing.job(ctx)
}

// Jobs returns the scheduled job names, sorted.
func (s *Scheduler) Jobs() []string {
	s.jobsMux.RLock()
	defer s.jobsMux.RUnlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Scheduler) run(name string, job Job) {
	start := time.Now()
	if err := job(s.ctx); err != nil {
		s.logger.Error().Err(err).Str("job", name).Msg("job failed")
		return
	}
	s.logger.Debug().Str("job", name).Dur("took", time.Since(start)).Msg("job finished")
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
