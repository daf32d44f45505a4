package run

import (
	"time"

	"github.com/verte-zerg/shotdrill/internal/model"
)

// Clock returns the current instant.
type Clock func() time.Time

// Session owns a single run state and applies commands to it.
// It is not safe for concurrent use.
type Session struct {
	state State
	now   Clock
}

// NewSession returns an idle session using clock, or time.Now when clock is nil.
func NewSession(clock Clock) *Session {
	if clock == nil {
		clock = time.Now
	}
	return &Session{state: NewState(), now: clock}
}

// State returns a copy of the current state.
func (s *Session) State() State {
	return s.state
}

// Dispatch applies cmd at the current clock reading and returns the new state.
func (s *Session) Dispatch(cmd Command) State {
	s.state = Apply(s.state, cmd, s.now())
	return s.state
}

// Now reads the session clock.
func (s *Session) Now() time.Time {
	return s.now()
}

// SetConfig replaces the configuration while idle and resizes the hit record.
// It reports false when a run is in progress.
func (s *Session) SetConfig(cfg model.DrillConfig) bool {
	if s.state.Phase != PhaseIdle {
		return false
	}
	s.state.Config = cfg
	s.state.Hits = make([]model.ShotResult, len(cfg.Seq))
	s.state.ShotAt = nil
	s.state.CurrentShot = 1
	return true
}

// Start begins a run for shooter using the session's configuration.
func (s *Session) Start(shooter string) State {
	return s.Dispatch(Start(shooter, s.state.Config))
}

// MarkReachedLine records the shooter reaching the firing line.
func (s *Session) MarkReachedLine() State {
	return s.Dispatch(MarkReachedLine())
}

// ConfirmShot records the outcome of the current shot.
func (s *Session) ConfirmShot(hit bool) State {
	return s.Dispatch(ConfirmShot(hit))
}

// StartReload starts the reload timer.
func (s *Session) StartReload() State {
	return s.Dispatch(StartReload())
}

// EndReload stops the reload timer and returns to the line.
func (s *Session) EndReload() State {
	return s.Dispatch(EndReload())
}

// Reset abandons the run and returns to idle.
func (s *Session) Reset() State {
	return s.Dispatch(Reset())
}

// Timing derives the current durations.
func (s *Session) Timing() Timing {
	return Derive(s.state, s.now())
}

// Snapshot freezes the finished run.
func (s *Session) Snapshot() (model.SessionSnapshot, error) {
	return NewSnapshot(s.state, s.now())
}
