package host

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestSchedulerAddValidation(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewScheduler()
	defer s.Stop()

	if err := s.Add("s", "", time.Second, func() {}); err == nil {
		t.Error("expected error for empty job name")
	}
	if err := s.Add("s", "j", time.Second, nil); err == nil {
		t.Error("expected error for nil function")
	}
	if err := s.Add("s", "j", 100*time.Millisecond, func() {}); !errors.Is(err, ErrIntervalTooShort) {
		t.Errorf("expected ErrIntervalTooShort, got %v", err)
	}
}

func TestSchedulerRunsAndStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewScheduler()

	var ticks atomic.Int64
	if err := s.Add("speed", "poll", time.Second, func() {
		ticks.Add(1)
	}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if s.Count() != 1 {
		t.Errorf("expected 1 job, got %d", s.Count())
	}

	s.Stop()
	if s.Count() != 0 {
		t.Errorf("expected 0 jobs after Stop, got %d", s.Count())
	}
}

func TestSchedulerReplaceJob(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewScheduler()
	defer s.Stop()

	if err := s.Add("s", "job", time.Second, func() {}); err != nil {
		t.Fatal(err)
	}
	// Same key replaces, does not error and does not leak the old goroutine.
	if err := s.Add("s", "job", 2*time.Second, func() {}); err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	if s.Count() != 1 {
		t.Errorf("expected 1 job after replace, got %d", s.Count())
	}
}

func TestSchedulerRemoveScript(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewScheduler()
	defer s.Stop()

	_ = s.Add("one", "a", time.Second, func() {})
	_ = s.Add("one", "b", time.Second, func() {})
	_ = s.Add("two", "c", time.Second, func() {})

	s.RemoveScript("one")
	if s.Count() != 1 {
		t.Errorf("expected 1 job after RemoveScript, got %d", s.Count())
	}
}

func TestSchedulerPausedJobSkipsTicks(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewScheduler()
	defer s.Stop()

	var ticks atomic.Int64
	if err := s.Add("afk", "announce", time.Second, func() {
		ticks.Add(1)
	}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	s.SetScriptPaused("afk", true)
	time.Sleep(2200 * time.Millisecond)
	if got := ticks.Load(); got != 0 {
		t.Errorf("paused job ticked %d times", got)
	}

	// Resuming picks the ticker back up without a re-add.
	s.SetScriptPaused("afk", false)
	deadline := time.Now().Add(3 * time.Second)
	for ticks.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if ticks.Load() == 0 {
		t.Error("resumed job never ticked")
	}
}

func TestSchedulerPauseOtherScriptUnaffected(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewScheduler()
	defer s.Stop()

	var ticks atomic.Int64
	_ = s.Add("keeper", "poll", time.Second, func() { ticks.Add(1) })
	s.SetScriptPaused("afk", true)

	deadline := time.Now().Add(3 * time.Second)
	for ticks.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if ticks.Load() == 0 {
		t.Error("unrelated script's job was paused")
	}
}

func TestSchedulerJobPanicContained(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewScheduler()

	job := &Job{
		script:   "s",
		name:     "bad",
		interval: time.Second,
		fn:       func() { panic("argh") },
		stopCh:   make(chan struct{}),
	}
	// Direct execute must not propagate the panic.
	job.execute()

	s.Stop()
}
