package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var ErrSchedulerStarted = errors.New("scheduler already started")

// Scheduler fires registered jobs on cron schedules.
//
// One goroutine per job waits on a clock timer for the next fire time. Each
// fire runs the job in its own goroutine, so a slow job never delays the
// next fire; jobs guard themselves against overlapping runs.
type Scheduler struct {
	clock clockwork.Clock
	loc   *time.Location
	log   *zap.Logger

	mu      sync.Mutex
	jobs    []*job
	started bool
	cancel  context.CancelFunc

	loops   sync.WaitGroup
	running sync.WaitGroup
}

type job struct {
	name     string
	expr     string
	schedule cron.Schedule
	fn       func(ctx context.Context)
}

// NewScheduler creates a scheduler evaluating cron expressions in loc.
func NewScheduler(clock clockwork.Clock, loc *time.Location, log *zap.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		clock: clock,
		loc:   loc,
		log:   log.Named("scheduler"),
	}
}

// Add registers fn under a standard 5-field cron expression.
func (s *Scheduler) Add(name, expr string, fn func(ctx context.Context)) error {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return fmt.Errorf("parse schedule %q for %s: %w", expr, name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrSchedulerStarted
	}
	s.jobs = append(s.jobs, &job{name: name, expr: expr, schedule: schedule, fn: fn})
	return nil
}

// Start launches one timer loop per job. Jobs receive a context derived from
// ctx that is cancelled by Stop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	for _, j := range s.jobs {
		s.loops.Add(1)
		go s.loop(ctx, j)
	}
	s.log.Info("Scheduler started", zap.Int("jobs", len(s.jobs)), zap.String("timezone", s.loc.String()))
}

// Stop cancels pending fires and waits for running jobs to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel == nil {
		return
	}

	cancel()
	s.loops.Wait()
	s.running.Wait()
	s.log.Info("Scheduler stopped")
}

// Next returns the next fire time of the named job after now.
func (s *Scheduler) Next(name string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		if j.name == name {
			return j.schedule.Next(s.clock.Now().In(s.loc)), true
		}
	}
	return time.Time{}, false
}

func (s *Scheduler) loop(ctx context.Context, j *job) {
	defer s.loops.Done()

	for {
		now := s.clock.Now().In(s.loc)
		next := j.schedule.Next(now)
		s.log.Debug("Next run scheduled", zap.String("job", j.name), zap.String("schedule", j.expr), zap.Time("at", next))

		timer := s.clock.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.Chan():
		}

		s.running.Add(1)
		go s.fire(ctx, j)
	}
}

func (s *Scheduler) fire(ctx context.Context, j *job) {
	defer s.running.Done()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Job panicked", zap.String("job", j.name), zap.Any("panic", r))
		}
	}()

	s.log.Debug("Running job", zap.String("job", j.name))
	j.fn(ctx)
}
