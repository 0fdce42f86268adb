package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

func TestScheduler_FiresOnSchedule(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC))
	s := NewScheduler(clock, time.UTC, zap.NewNop())

	var fired atomic.Int32
	if err := s.Add("daily", "0 9 * * *", func(ctx context.Context) { fired.Add(1) }); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	s.Start(context.Background())
	defer s.Stop()

	clock.BlockUntil(1)
	clock.Advance(59 * time.Minute)
	time.Sleep(20 * time.Millisecond)
	if fired.Load() != 0 {
		t.Fatal("job fired before 09:00")
	}

	clock.Advance(time.Minute)
	waitFor(t, func() bool { return fired.Load() == 1 })

	// next fire is a day later
	clock.BlockUntil(1)
	clock.Advance(24 * time.Hour)
	waitFor(t, func() bool { return fired.Load() == 2 })
}

func TestScheduler_SlowJobDoesNotDelayNextFire(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 10, 14, 8, 59, 0, 0, time.UTC))
	s := NewScheduler(clock, time.UTC, zap.NewNop())

	release := make(chan struct{})
	var started atomic.Int32
	s.Add("every-minute", "* * * * *", func(ctx context.Context) {
		started.Add(1)
		select {
		case <-release:
		case <-ctx.Done():
		}
	})
	s.Start(context.Background())

	clock.BlockUntil(1)
	clock.Advance(time.Minute)
	waitFor(t, func() bool { return started.Load() == 1 })

	clock.BlockUntil(1)
	clock.Advance(time.Minute)
	waitFor(t, func() bool { return started.Load() == 2 })

	close(release)
	s.Stop()
}

func TestScheduler_StopCancelsRunningJobs(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 10, 14, 8, 59, 0, 0, time.UTC))
	s := NewScheduler(clock, time.UTC, zap.NewNop())

	var cancelled atomic.Bool
	s.Add("blocking", "0 9 * * *", func(ctx context.Context) {
		<-ctx.Done()
		cancelled.Store(true)
	})
	s.Start(context.Background())

	clock.BlockUntil(1)
	clock.Advance(time.Minute)
	clock.BlockUntil(1)

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
	if !cancelled.Load() {
		t.Error("running job should observe cancellation before Stop returns")
	}
}

func TestScheduler_PanickingJobKeepsSchedulerAlive(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 10, 14, 8, 59, 0, 0, time.UTC))
	s := NewScheduler(clock, time.UTC, zap.NewNop())

	var runs atomic.Int32
	s.Add("flaky", "* * * * *", func(ctx context.Context) {
		runs.Add(1)
		panic("boom")
	})
	s.Start(context.Background())
	defer s.Stop()

	clock.BlockUntil(1)
	clock.Advance(time.Minute)
	waitFor(t, func() bool { return runs.Load() == 1 })

	clock.BlockUntil(1)
	clock.Advance(time.Minute)
	waitFor(t, func() bool { return runs.Load() == 2 })
}

func TestScheduler_Add(t *testing.T) {
	s := NewScheduler(clockwork.NewFakeClock(), time.UTC, zap.NewNop())

	if err := s.Add("bad", "every day at nine", func(context.Context) {}); err == nil {
		t.Error("expected parse error")
	}

	if err := s.Add("ok", "30 9 * * *", func(context.Context) {}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	s.Start(context.Background())
	defer s.Stop()

	if err := s.Add("late", "0 9 * * *", func(context.Context) {}); !errors.Is(err, ErrSchedulerStarted) {
		t.Errorf("err = %v, want ErrSchedulerStarted", err)
	}
}

func TestScheduler_NextUsesLocation(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	if err != nil {
		t.Skipf("timezone data not available: %v", err)
	}
	// 01:00 UTC is 08:00 in UTC+7
	clock := clockwork.NewFakeClockAt(time.Date(2026, 10, 14, 1, 0, 0, 0, time.UTC))
	s := NewScheduler(clock, loc, zap.NewNop())
	s.Add("inspection", "0 9 * * *", func(context.Context) {})

	next, ok := s.Next("inspection")
	if !ok {
		t.Fatal("job not found")
	}
	want := time.Date(2026, 10, 14, 2, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("Next = %v, want %v", next.UTC(), want)
	}
}
