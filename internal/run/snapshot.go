package run

import (
	"errors"
	"time"

	"github.com/verte-zerg/shotdrill/internal/drill"
	"github.com/verte-zerg/shotdrill/internal/model"
)

// ErrNotFinished is returned when a snapshot is requested before the run ends.
var ErrNotFinished = errors.New("run is not finished")

// NewSnapshot freezes a finished run into a session record. StartedAt is
// converted to wall-clock time so it can be stored.
func NewSnapshot(st State, now time.Time) (model.SessionSnapshot, error) {
	if st.Phase != PhaseFinished {
		return model.SessionSnapshot{}, ErrNotFinished
	}
	timing := Derive(st, now)
	snap := model.SessionSnapshot{
		Shooter:   st.Shooter,
		Config:    drill.CloneConfig(st.Config),
		StartedAt: st.StartedAt.Round(0),
		Total:     timing.Elapsed,
		Hits:      append([]model.ShotResult(nil), st.Hits...),
		Seq:       drill.Clone(st.Config.Seq),
		Splits:    Splits(st),
	}
	if timing.HasTimeToLine {
		d := timing.TimeToLine
		snap.TimeToLine = &d
	}
	if timing.HasReload {
		d := timing.ReloadFinal
		snap.Reload = &d
	}
	return snap, nil
}
