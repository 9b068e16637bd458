package presence

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/teslashibe/facelight/internal/log"
)

// Monitor defaults.
const (
	DefaultInterval    = 3 * time.Second
	DefaultStopTimeout = 2 * time.Second
)

// session is one live run of the monitor loop.
type session struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}
}

// Monitor runs presence checks on a fixed interval and publishes each
// outcome to a State. At most one session is live at a time.
//
// State machine: stopped -> Start -> running -> Stop -> stopped. Start on a
// running monitor stops the old session before starting a new one; Stop on
// a stopped monitor does nothing.
type Monitor struct {
	checker     PresenceChecker
	state       *State
	interval    time.Duration
	stopTimeout time.Duration

	mu      sync.Mutex // guards session transitions
	session *session
}

// NewMonitor creates a stopped monitor. Zero durations fall back to
// DefaultInterval and DefaultStopTimeout.
func NewMonitor(checker PresenceChecker, state *State, interval, stopTimeout time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if stopTimeout <= 0 {
		stopTimeout = DefaultStopTimeout
	}
	return &Monitor{
		checker:     checker,
		state:       state,
		interval:    interval,
		stopTimeout: stopTimeout,
	}
}

// Interval returns the time between checks.
func (m *Monitor) Interval() time.Duration {
	return m.interval
}

// Start begins a new session and returns its ID. The first check runs
// immediately.
func (m *Monitor) Start() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		id:     uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	m.session = s
	m.state.SetMonitoring(true, s.id)

	go m.run(ctx, s)

	log.Info("monitor started", "session", s.id, "interval", m.interval)
	return s.id
}

// Stop cancels the live session and waits for its loop to exit, at most
// the stop timeout. It reports whether a session was running.
func (m *Monitor) Stop() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopLocked()
}

// SetEnabled starts or stops monitoring. Enabling a running monitor keeps
// the current session.
func (m *Monitor) SetEnabled(enabled bool) {
	if !enabled {
		m.Stop()
		return
	}

	m.mu.Lock()
	running := m.session != nil
	m.mu.Unlock()
	if !running {
		m.Start()
	}
}

// Running reports whether a session is live.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session != nil
}

func (m *Monitor) stopLocked() bool {
	s := m.session
	if s == nil {
		return false
	}
	m.session = nil
	s.cancel()

	timer := time.NewTimer(m.stopTimeout)
	defer timer.Stop()

	select {
	case <-s.done:
		log.Info("monitor stopped", "session", s.id)
	case <-timer.C:
		log.Warn("monitor loop did not exit in time, abandoning it",
			"session", s.id, "timeout", m.stopTimeout)
	}

	m.state.SetMonitoring(false, "")
	return true
}

func (m *Monitor) run(ctx context.Context, s *session) {
	defer close(s.done)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		// Both cases may be ready at once; a stopped session never ticks.
		if ctx.Err() != nil {
			return
		}

		m.tick(ctx)
		timer.Reset(m.interval)
	}
}

// tick runs one check. Stopping the session does not abort a check that
// already started; Stop waits for it instead.
func (m *Monitor) tick(ctx context.Context) {
	m.state.BeginCheck()
	out := m.checker.Check(context.WithoutCancel(ctx))
	m.state.Publish(out)
}
