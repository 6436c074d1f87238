package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestAddJob(t *testing.T) {
	t.Run("valid expression", func(t *testing.T) {
		s := New(0)
		err := s.AddJob("reconcile", "0 3 * * *", func(ctx context.Context) error { return nil })
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("invalid expression", func(t *testing.T) {
		s := New(0)
		err := s.AddJob("broken", "not a schedule", func(ctx context.Context) error { return nil })
		if err == nil {
			t.Fatal("expected error for invalid expression")
		}
	})

	t.Run("six-field expressions are rejected", func(t *testing.T) {
		s := New(0)
		err := s.AddJob("seconds", "*/1 * * * * *", func(ctx context.Context) error { return nil })
		if err == nil {
			t.Fatal("expected error for six-field expression")
		}
	})

	t.Run("duplicate name", func(t *testing.T) {
		s := New(0)
		noop := func(ctx context.Context) error { return nil }
		if err := s.AddJob("job", "@hourly", noop); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := s.AddJob("job", "@daily", noop); err == nil {
			t.Fatal("expected error for duplicate name")
		}
	})
}

func TestRunJobLogsErrors(t *testing.T) {
	// Errors must be swallowed so one bad tick cannot break the schedule.
	s := New(0)
	s.runJob("failing", func(ctx context.Context) error {
		return errors.New("boom")
	})
}

func TestRunJobTimeout(t *testing.T) {
	s := New(10 * time.Millisecond)

	var sawDeadline atomic.Bool
	s.runJob("slow", func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		sawDeadline.Store(ok)
		return nil
	})

	if !sawDeadline.Load() {
		t.Error("expected job context to carry a deadline")
	}
}

func TestStartStop(t *testing.T) {
	s := New(0)

	var runs atomic.Int32
	// @every is supported by the parser regardless of field count.
	if err := s.AddJob("tick", "@every 10ms", func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}); err != nil {
		t.Fatalf("failed to add job: %v", err)
	}

	s.Start()
	// Idempotent.
	s.Start()

	deadline := time.After(2 * time.Second)
	for runs.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("job never ran")
		case <-time.After(5 * time.Millisecond):
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	// Stopping again is a no-op.
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("second stop failed: %v", err)
	}
}

func TestNextRun(t *testing.T) {
	s := New(0)
	if err := s.AddJob("daily", "0 3 * * *", func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("failed to add job: %v", err)
	}
	s.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Stop(ctx)
	}()

	if s.NextRun("daily").IsZero() {
		t.Error("expected a next run time for a started job")
	}
	if !s.NextRun("unknown").IsZero() {
		t.Error("expected zero time for unknown job")
	}
}
