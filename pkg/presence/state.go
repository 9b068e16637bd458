package presence

import (
	"sync"
	"time"
)

// Status is the coarse presence state shown to observers.
type Status string

const (
	StatusIdle   Status = "idle"   // last check saw nobody
	StatusActive Status = "active" // last check saw at least one face
	StatusError  Status = "error"  // last check failed
)

// ClockFormat is the display format of the last-checked time.
const ClockFormat = "15:04:05"

// Snapshot is a consistent copy of the observable state.
type Snapshot struct {
	Faces      int    `json:"faces_detected"`
	Brightness int    `json:"brightness_set"` // -1 until the first successful check
	Status     Status `json:"status"`
	Error      string `json:"error,omitempty"`

	// ActuatorError is set when the last level could not be applied.
	ActuatorError string `json:"actuator_error,omitempty"`

	LastChecked      *time.Time `json:"last_checked,omitempty"`
	LastCheckedClock string     `json:"last_checked_clock,omitempty"`

	Frames int   `json:"frames,omitempty"`
	Votes  []int `json:"votes,omitempty"`

	Monitoring bool   `json:"monitoring"`
	SessionID  string `json:"session_id,omitempty"`
	Loading    bool   `json:"loading"`
}

// State is the shared, observable presence state. Every change replaces
// the snapshot under one lock, so readers never see a face count from one
// check next to a brightness from another.
type State struct {
	mu        sync.RWMutex
	snap      Snapshot
	observers []func(Snapshot)
	inflight  int    // checks begun and not yet published
	seq       uint64 // updates committed

	// Observers run after mu is released, one update at a time, in seq
	// order.
	notifyMu sync.Mutex
	notified uint64
	turn     *sync.Cond
}

// NewState returns an idle state with no brightness set.
func NewState() *State {
	s := &State{
		snap: Snapshot{
			Brightness: BrightnessUnset,
			Status:     StatusIdle,
		},
	}
	s.turn = sync.NewCond(&s.notifyMu)
	return s
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Observe registers fn to be called with every new snapshot. Observers run
// outside the state lock but must not call back into Publish or the
// setters of the same State.
func (s *State) Observe(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Publish records an outcome and ends one check started with BeginCheck.
// A success replaces faces, brightness, status and timestamp together; a
// failure only sets the error status and message, leaving the last good
// reading in place.
func (s *State) Publish(o Outcome) Snapshot {
	return s.update(func(snap *Snapshot) {
		if s.inflight > 0 {
			s.inflight--
		}
		snap.Loading = s.inflight > 0
		if o.Failed() {
			snap.Status = StatusError
			snap.Error = o.Err.Error()
			return
		}

		snap.Faces = o.Faces
		snap.Brightness = o.Brightness
		snap.Frames = o.Frames
		snap.Votes = append([]int(nil), o.Votes...)
		snap.Error = ""
		snap.ActuatorError = ""
		if o.ActuatorErr != nil {
			snap.ActuatorError = o.ActuatorErr.Error()
		}
		if o.Faces >= 1 {
			snap.Status = StatusActive
		} else {
			snap.Status = StatusIdle
		}
		checked := o.CheckedAt
		snap.LastChecked = &checked
		snap.LastCheckedClock = checked.Format(ClockFormat)
	})
}

// SetMonitoring records whether a monitor session is live.
func (s *State) SetMonitoring(enabled bool, sessionID string) Snapshot {
	return s.update(func(snap *Snapshot) {
		snap.Monitoring = enabled
		snap.SessionID = sessionID
	})
}

// BeginCheck marks one more check as in flight. Loading stays set until
// every begun check has been published.
func (s *State) BeginCheck() Snapshot {
	return s.update(func(snap *Snapshot) {
		s.inflight++
		snap.Loading = true
	})
}

func (s *State) update(fn func(*Snapshot)) Snapshot {
	s.mu.Lock()
	fn(&s.snap)
	s.seq++
	seq := s.seq
	snap := s.snap
	observers := s.observers
	s.mu.Unlock()

	s.notifyMu.Lock()
	defer func() {
		s.notified = seq
		s.turn.Broadcast()
		s.notifyMu.Unlock()
	}()
	for s.notified != seq-1 {
		s.turn.Wait()
	}
	for _, obs := range observers {
		obs(snap)
	}
	return snap
}
