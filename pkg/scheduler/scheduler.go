// Package scheduler drives the reconciliation cycle on a fixed cadence
// with single-flight semantics and stuck-cycle recovery.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	defaultInterval         = time.Minute
	defaultMaxCycleDuration = 5 * time.Minute
	defaultMaxSkipped       = 3
)

var errCyclePanic = errors.New("cycle panicked")

// State is the scheduler's cycle state.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// CycleFunc is one full refresh cycle. Errors are logged and reset the
// state; they never propagate out of the scheduler.
type CycleFunc func(ctx context.Context) error

// Config controls cycle cadence and recovery thresholds.
type Config struct {
	Interval           time.Duration
	MaxCycleDuration   time.Duration
	MaxSkippedTriggers int
	HeartbeatInterval  time.Duration
}

// Status is a point-in-time view of the scheduler for the status API.
type Status struct {
	State           string        `json:"state"`
	LastSuccess     time.Time     `json:"last_success,omitempty"`
	LastError       string        `json:"last_error,omitempty"`
	LastDuration    time.Duration `json:"last_duration_ns"`
	SkippedTriggers int           `json:"skipped_triggers"`
	ForcedResets    int           `json:"forced_resets"`
}

// Scheduler owns all cycle state as instance fields with an explicit
// Start/Stop lifecycle. Cycles run in their own goroutine so a hung
// external call can never block the timer loop that would recover it.
type Scheduler struct {
	cfg   Config
	clock clockwork.Clock
	cycle CycleFunc

	mu           sync.Mutex
	state        State
	generation   uint64
	runningSince time.Time
	lastSuccess  time.Time
	lastErr      error
	lastDuration time.Duration
	skipped      int
	forcedResets int

	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a scheduler; zero config fields fall back to defaults.
func New(cfg Config, clock clockwork.Clock, cycle CycleFunc) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}

	if cfg.MaxCycleDuration <= 0 {
		cfg.MaxCycleDuration = defaultMaxCycleDuration
	}

	if cfg.MaxSkippedTriggers <= 0 {
		cfg.MaxSkippedTriggers = defaultMaxSkipped
	}

	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = cfg.Interval
	}

	return &Scheduler{
		cfg:   cfg,
		clock: clock,
		cycle: cycle,
	}
}

// Start launches the timer loop and the heartbeat watchdog, and triggers
// an immediate first cycle.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("scheduler already started")
	}

	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	log.Printf("Starting scheduler with interval %v", s.cfg.Interval)

	s.wg.Add(2)

	go s.runLoop(ctx)
	go s.watchdog(ctx)

	return nil
}

// Stop cancels the loops and waits for them, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}

	cancel()

	done := make(chan struct{})

	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// Status returns a snapshot of the scheduler state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		State:           s.state.String(),
		LastSuccess:     s.lastSuccess,
		LastDuration:    s.lastDuration,
		SkippedTriggers: s.skipped,
		ForcedResets:    s.forcedResets,
	}

	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}

	return st
}

func (s *Scheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	// Initial cycle right away, like the first tick already fired.
	s.trigger(ctx)

	ticker := s.clock.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.trigger(ctx)
		}
	}
}

// trigger starts a cycle unless one is already running. A running cycle
// makes the trigger a skip, not a queue entry; too many skips or a cycle
// exceeding its maximum duration force-resets the state first.
func (s *Scheduler) trigger(ctx context.Context) {
	s.mu.Lock()

	if s.state == StateRunning {
		s.skipped++

		overdue := s.clock.Since(s.runningSince) > s.cfg.MaxCycleDuration
		tooManySkips := s.skipped >= s.cfg.MaxSkippedTriggers

		if !overdue && !tooManySkips {
			skipped := s.skipped
			s.mu.Unlock()
			log.Printf("Cycle still running, skipping trigger (%d consecutive skips)", skipped)

			return
		}

		s.forceResetLocked("trigger")
	}

	s.state = StateRunning
	s.generation++
	gen := s.generation
	s.runningSince = s.clock.Now()
	s.skipped = 0
	s.mu.Unlock()

	go s.runCycle(ctx, gen)
}

func (s *Scheduler) runCycle(ctx context.Context, gen uint64) {
	start := s.clock.Now()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("Cycle panic recovered: %v", r)
			s.finish(gen, fmt.Errorf("%w: %v", errCyclePanic, r), s.clock.Since(start))
		}
	}()

	cctx, cancel := context.WithTimeout(ctx, s.cfg.MaxCycleDuration)
	defer cancel()

	err := s.cycle(cctx)
	s.finish(gen, err, s.clock.Since(start))
}

// finish records a cycle outcome. A stale generation means the watchdog
// already force-reset past this cycle; its late result is discarded.
func (s *Scheduler) finish(gen uint64, err error, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		log.Printf("Discarding result of force-reset cycle (took %v, err=%v)", duration, err)
		return
	}

	s.lastDuration = duration
	s.lastErr = err

	if err != nil {
		s.state = StateFailed
		log.Printf("Cycle failed after %v: %v", duration, err)
	} else {
		s.lastSuccess = s.clock.Now()
	}

	// Failed is transient: the next tick may always start fresh.
	s.state = StateIdle
}

// watchdog independently force-resets a cycle that has been running past
// its deadline, covering the case where the trigger path never gets to
// observe the overrun.
func (s *Scheduler) watchdog(ctx context.Context) {
	defer s.wg.Done()

	ticker := s.clock.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.mu.Lock()
			if s.state == StateRunning && s.clock.Since(s.runningSince) > s.cfg.MaxCycleDuration {
				s.forceResetLocked("heartbeat")
			}
			s.mu.Unlock()
		}
	}
}

// forceResetLocked abandons the in-flight cycle. Bumping the generation
// orphans its goroutine: whenever it eventually returns, its result is
// discarded. Callers must hold s.mu.
func (s *Scheduler) forceResetLocked(source string) {
	log.Printf("ANOMALY: force-resetting stuck cycle via %s (running for %v, %d skipped triggers)",
		source, s.clock.Since(s.runningSince), s.skipped)

	s.generation++
	s.state = StateIdle
	s.skipped = 0
	s.forcedResets++
}
