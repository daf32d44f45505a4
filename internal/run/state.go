// Package run implements the drill run state machine and its derived timings.
package run

import (
	"strings"
	"time"

	"github.com/verte-zerg/shotdrill/internal/model"
)

// Phase is the run state machine's current state.
type Phase string

// Phases.
const (
	PhaseIdle        Phase = "idle"
	PhaseRunning     Phase = "running"
	PhaseReachedLine Phase = "reached_line"
	PhaseReloading   Phase = "reloading"
	PhaseFinished    Phase = "finished"
)

// State is the mutable part of a single run. Zero instants are unset.
type State struct {
	Phase       Phase
	Shooter     string
	Config      model.DrillConfig
	CurrentShot int
	Hits        []model.ShotResult
	ShotAt      []time.Time

	StartedAt       time.Time
	ReachedLineAt   time.Time
	LastShotAt      time.Time
	ReloadStartedAt time.Time
	ReloadEndedAt   time.Time
}

// NewState returns an idle state.
func NewState() State {
	return State{Phase: PhaseIdle, CurrentShot: 1}
}

// CommandKind identifies a run command.
type CommandKind int

// Commands.
const (
	CmdStart CommandKind = iota
	CmdMarkReachedLine
	CmdConfirmShot
	CmdStartReload
	CmdEndReload
	CmdReset
)

// Command is a single user action fed to Apply.
type Command struct {
	Kind CommandKind
	// Shooter and Config are read by CmdStart.
	Shooter string
	Config  model.DrillConfig
	// Hit is read by CmdConfirmShot.
	Hit bool
}

// Start builds a start command.
func Start(shooter string, cfg model.DrillConfig) Command {
	return Command{Kind: CmdStart, Shooter: shooter, Config: cfg}
}

// MarkReachedLine builds a reached-line command.
func MarkReachedLine() Command { return Command{Kind: CmdMarkReachedLine} }

// ConfirmShot builds a shot confirmation command.
func ConfirmShot(hit bool) Command { return Command{Kind: CmdConfirmShot, Hit: hit} }

// StartReload builds a reload start command.
func StartReload() Command { return Command{Kind: CmdStartReload} }

// EndReload builds a reload end command.
func EndReload() Command { return Command{Kind: CmdEndReload} }

// Reset builds a reset command.
func Reset() Command { return Command{Kind: CmdReset} }

// Apply returns the state that results from cmd issued at now. Commands that
// are not valid in the current phase return st unchanged. st is never mutated.
func Apply(st State, cmd Command, now time.Time) State {
	switch cmd.Kind {
	case CmdStart:
		return applyStart(st, cmd, now)
	case CmdMarkReachedLine:
		if st.Phase != PhaseRunning {
			return st
		}
		st.ReachedLineAt = now
		st.Phase = PhaseReachedLine
		return st
	case CmdConfirmShot:
		return applyConfirmShot(st, cmd.Hit, now)
	case CmdStartReload:
		if st.Phase != PhaseReloading || !st.ReloadStartedAt.IsZero() {
			return st
		}
		st.ReloadStartedAt = now
		return st
	case CmdEndReload:
		if st.Phase != PhaseReloading || st.ReloadStartedAt.IsZero() || !st.ReloadEndedAt.IsZero() {
			return st
		}
		st.ReloadEndedAt = now
		st.Phase = PhaseReachedLine
		return st
	case CmdReset:
		next := NewState()
		next.Config = st.Config
		next.Hits = make([]model.ShotResult, len(st.Config.Seq))
		return next
	default:
		return st
	}
}

func applyStart(st State, cmd Command, now time.Time) State {
	if st.Phase != PhaseIdle {
		return st
	}
	shooter := strings.TrimSpace(cmd.Shooter)
	if shooter == "" || len(cmd.Config.Seq) == 0 {
		return st
	}
	return State{
		Phase:       PhaseRunning,
		Shooter:     shooter,
		Config:      cmd.Config,
		CurrentShot: 1,
		Hits:        make([]model.ShotResult, len(cmd.Config.Seq)),
		ShotAt:      make([]time.Time, len(cmd.Config.Seq)),
		StartedAt:   now,
	}
}

func applyConfirmShot(st State, hit bool, now time.Time) State {
	n := len(st.Config.Seq)
	if st.Phase != PhaseReachedLine || st.CurrentShot < 1 || st.CurrentShot > n {
		return st
	}
	idx := st.CurrentShot - 1
	hits := make([]model.ShotResult, n)
	copy(hits, st.Hits)
	hits[idx] = model.ResultOf(hit)
	st.Hits = hits

	shotAt := make([]time.Time, n)
	copy(shotAt, st.ShotAt)
	shotAt[idx] = now
	st.ShotAt = shotAt
	st.LastShotAt = now

	// The boundary shot is answered before the reload; the index already
	// points at the next shot while reloading.
	if st.Config.ReloadAfter != nil && *st.Config.ReloadAfter == st.CurrentShot {
		st.CurrentShot++
		st.Phase = PhaseReloading
		return st
	}
	st.CurrentShot++
	if st.CurrentShot > n {
		st.Phase = PhaseFinished
	}
	return st
}

// CurrentTarget returns the target to display for the current shot. The index is
// clamped to the sequence bounds; ok is false only for an empty sequence.
func (s State) CurrentTarget() (model.Target, bool) {
	n := len(s.Config.Seq)
	if n == 0 {
		return model.Target{}, false
	}
	idx := min(max(s.CurrentShot-1, 0), n-1)
	return s.Config.Seq[idx], true
}

// CanShoot reports whether a hit or miss can be confirmed right now.
func (s State) CanShoot() bool {
	n := len(s.Config.Seq)
	return s.Phase == PhaseReachedLine && n > 0 && s.CurrentShot <= n
}

// HitCount returns the number of confirmed hits.
func (s State) HitCount() int {
	count := 0
	for _, h := range s.Hits {
		if h == model.ShotHit {
			count++
		}
	}
	return count
}
