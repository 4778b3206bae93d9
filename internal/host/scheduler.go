package host

import (
	"fmt"
	"sync"
	"time"

	"scriptbot/internal/logging"
)

// Job is a running interval job owned by a script.
type Job struct {
	script   string
	name     string
	interval time.Duration
	fn       func()
	stopCh   chan struct{}
	stopped  bool // Prevents double-close of stopCh
	paused   bool
	mu       sync.Mutex
}

// Scheduler manages interval jobs registered by scripts.
type Scheduler struct {
	mu   sync.RWMutex
	jobs map[string]*Job // key: script:name
	wg   sync.WaitGroup
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{
		jobs: make(map[string]*Job),
	}
}

// Add schedules fn at the given interval. The (script, name) pair must be
// unique; re-adding replaces the previous job.
func (s *Scheduler) Add(script, name string, interval time.Duration, fn func()) error {
	if name == "" {
		return fmt.Errorf("job name cannot be empty")
	}
	if fn == nil {
		return fmt.Errorf("job function cannot be nil")
	}
	if interval < time.Second {
		return fmt.Errorf("%w: %v", ErrIntervalTooShort, interval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := jobKey(script, name)
	if existing, ok := s.jobs[key]; ok {
		existing.stop()
	}

	job := &Job{
		script:   script,
		name:     name,
		interval: interval,
		fn:       fn,
		stopCh:   make(chan struct{}),
	}
	s.jobs[key] = job

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		job.run()
	}()

	logging.Sched("Scheduled job %s (script=%s, every %v)", name, script, interval)
	return nil
}

// RemoveScript stops and removes every job owned by a script.
func (s *Scheduler) RemoveScript(script string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := script + ":"
	for key, job := range s.jobs {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			job.stop()
			delete(s.jobs, key)
		}
	}
}

// SetScriptPaused pauses or resumes every job owned by a script. A paused
// job keeps its ticker but skips execution, so re-enabling the script
// resumes it without a reload.
func (s *Scheduler) SetScriptPaused(script string, paused bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := script + ":"
	for key, job := range s.jobs {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			job.setPaused(paused)
		}
	}
	if paused {
		logging.Sched("Paused jobs for script %s", script)
	}
}

// Count returns the number of active jobs.
func (s *Scheduler) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// Stop stops all jobs and waits for their goroutines to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	for _, job := range s.jobs {
		job.stop()
	}
	s.jobs = make(map[string]*Job)
	s.mu.Unlock()

	s.wg.Wait()
}

func jobKey(script, name string) string {
	return script + ":" + name
}

func (j *Job) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.stopCh:
			return
		case <-ticker.C:
			if j.isPaused() {
				continue
			}
			j.execute()
		}
	}
}

// execute runs the job function, containing panics so a bad script job
// cannot kill the scheduler goroutine.
func (j *Job) execute() {
	defer func() {
		if r := recover(); r != nil {
			logging.Get(logging.CategorySched).Error("Job %s (script=%s) panicked: %v", j.name, j.script, r)
		}
	}()
	j.fn()
}

func (j *Job) setPaused(paused bool) {
	j.mu.Lock()
	j.paused = paused
	j.mu.Unlock()
}

func (j *Job) isPaused() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.paused
}

func (j *Job) stop() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.stopped {
		j.stopped = true
		close(j.stopCh)
	}
}
