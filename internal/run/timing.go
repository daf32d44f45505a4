package run

import (
	"fmt"
	"time"
)

// Timing is the set of durations derived from a state at a given instant.
type Timing struct {
	Elapsed       time.Duration
	TimeToLine    time.Duration
	HasTimeToLine bool
	ReloadRunning time.Duration
	IsReloading   bool
	ReloadFinal   time.Duration
	HasReload     bool
}

// Derive computes every displayed duration for st at now. It never mutates st.
func Derive(st State, now time.Time) Timing {
	var t Timing
	t.Elapsed = Elapsed(st, now)
	t.TimeToLine, t.HasTimeToLine = TimeToLine(st)
	t.ReloadRunning, t.IsReloading = ReloadRunning(st, now)
	t.ReloadFinal, t.HasReload = ReloadFinal(st)
	return t
}

// Elapsed returns the run time so far, frozen at the last shot once finished.
func Elapsed(st State, now time.Time) time.Duration {
	if st.StartedAt.IsZero() {
		return 0
	}
	end := now
	if st.Phase == PhaseFinished && !st.LastShotAt.IsZero() {
		end = st.LastShotAt
	}
	return max(end.Sub(st.StartedAt), 0)
}

// TimeToLine returns how long the shooter took to reach the line.
func TimeToLine(st State) (time.Duration, bool) {
	if st.StartedAt.IsZero() || st.ReachedLineAt.IsZero() {
		return 0, false
	}
	return st.ReachedLineAt.Sub(st.StartedAt), true
}

// ReloadRunning returns the live reload duration while a reload is in progress.
func ReloadRunning(st State, now time.Time) (time.Duration, bool) {
	if st.Phase != PhaseReloading || st.ReloadStartedAt.IsZero() || !st.ReloadEndedAt.IsZero() {
		return 0, false
	}
	return now.Sub(st.ReloadStartedAt), true
}

// ReloadFinal returns the completed reload duration.
func ReloadFinal(st State) (time.Duration, bool) {
	if st.ReloadStartedAt.IsZero() || st.ReloadEndedAt.IsZero() {
		return 0, false
	}
	return st.ReloadEndedAt.Sub(st.ReloadStartedAt), true
}

// Splits returns the time each shot took: the first from reaching the line,
// later ones from the previous confirmed shot. Unconfirmed shots are zero.
func Splits(st State) []time.Duration {
	out := make([]time.Duration, len(st.ShotAt))
	prev := st.ReachedLineAt
	for i, at := range st.ShotAt {
		if at.IsZero() {
			continue
		}
		if !prev.IsZero() {
			out[i] = max(at.Sub(prev), 0)
		}
		prev = at
	}
	return out
}

// FormatSeconds renders d as seconds with two decimals.
func FormatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.2f", d.Seconds())
}
