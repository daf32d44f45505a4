package run

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/verte-zerg/shotdrill/internal/drill"
	"github.com/verte-zerg/shotdrill/internal/model"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func sequence(n int) model.TargetSequence {
	seq := make(model.TargetSequence, n)
	for i := range seq {
		seq[i] = model.Target{Distance: float64(10 * (i + 1)), Type: model.TargetChest, Stance: model.StanceStanding}
	}
	return drill.Normalize(seq)
}

func configOf(n int, reloadAfter int) model.DrillConfig {
	cfg := model.DrillConfig{Mode: model.ModeCustom, Seq: sequence(n)}
	if reloadAfter > 0 {
		cfg.ReloadAfter = &reloadAfter
	}
	return cfg
}

func newSession(cfg model.DrillConfig) (*Session, *fakeClock) {
	clock := newFakeClock()
	s := NewSession(clock.Now)
	s.SetConfig(cfg)
	return s, clock
}

func results(hits ...bool) []model.ShotResult {
	out := make([]model.ShotResult, len(hits))
	for i, h := range hits {
		out[i] = model.ResultOf(h)
	}
	return out
}

func TestScenarioNoReload(t *testing.T) {
	s, _ := newSession(configOf(3, 0))
	s.Start("Alex")
	s.MarkReachedLine()
	s.ConfirmShot(true)
	s.ConfirmShot(false)
	st := s.ConfirmShot(true)

	if st.Phase != PhaseFinished {
		t.Fatalf("expected finished, got %s", st.Phase)
	}
	if diff := cmp.Diff(results(true, false, true), st.Hits); diff != "" {
		t.Fatalf("unexpected hits (-want +got):\n%s", diff)
	}
}

func TestScenarioReloadBoundary(t *testing.T) {
	s, clock := newSession(configOf(5, 2))
	s.Start("Alex")
	clock.Advance(3 * time.Second)
	s.MarkReachedLine()
	s.ConfirmShot(true)
	st := s.ConfirmShot(true)

	if st.Phase != PhaseReloading {
		t.Fatalf("expected reloading, got %s", st.Phase)
	}
	if st.CurrentShot != 3 {
		t.Fatalf("expected current shot 3 while reloading, got %d", st.CurrentShot)
	}
	if st.CanShoot() {
		t.Fatalf("shots must not be confirmable while reloading")
	}

	s.StartReload()
	clock.Advance(2 * time.Second)
	st = s.EndReload()
	if st.Phase != PhaseReachedLine {
		t.Fatalf("expected reached_line after reload, got %s", st.Phase)
	}

	s.ConfirmShot(false)
	s.ConfirmShot(true)
	st = s.ConfirmShot(true)
	if st.Phase != PhaseFinished {
		t.Fatalf("expected finished, got %s", st.Phase)
	}
	if diff := cmp.Diff(results(true, true, false, true, true), st.Hits); diff != "" {
		t.Fatalf("unexpected hits (-want +got):\n%s", diff)
	}
	if d, ok := ReloadFinal(st); !ok || d != 2*time.Second {
		t.Fatalf("expected 2s reload, got %v (ok=%v)", d, ok)
	}
}

func TestConfirmShotWhileIdleIsNoop(t *testing.T) {
	s, _ := newSession(configOf(3, 0))
	before := s.State()
	after := s.ConfirmShot(true)
	if after.Phase != PhaseIdle {
		t.Fatalf("expected idle, got %s", after.Phase)
	}
	if diff := cmp.Diff(before.Hits, after.Hits); diff != "" {
		t.Fatalf("hits changed (-want +got):\n%s", diff)
	}
}

func TestStartGuards(t *testing.T) {
	s, _ := newSession(configOf(3, 0))
	if st := s.Start("   "); st.Phase != PhaseIdle {
		t.Fatalf("blank shooter must not start a run")
	}

	empty, _ := newSession(model.DrillConfig{})
	if st := empty.Start("Alex"); st.Phase != PhaseIdle {
		t.Fatalf("empty sequence must not start a run")
	}

	st := s.Start("  Alex ")
	if st.Phase != PhaseRunning || st.Shooter != "Alex" {
		t.Fatalf("expected running with trimmed shooter, got %s %q", st.Phase, st.Shooter)
	}
	if s.SetConfig(configOf(4, 0)) {
		t.Fatalf("config must not change during a run")
	}
}

func TestCommandsOutsidePhaseAreNoops(t *testing.T) {
	s, _ := newSession(configOf(3, 0))
	s.Start("Alex")

	st := s.State()
	for _, cmd := range []Command{ConfirmShot(true), StartReload(), EndReload(), Start("Bob", configOf(2, 0))} {
		if got := s.Dispatch(cmd); !cmp.Equal(st, got) {
			t.Fatalf("command %d changed state while running", cmd.Kind)
		}
	}

	s.MarkReachedLine()
	st = s.State()
	if got := s.MarkReachedLine(); !cmp.Equal(st, got) {
		t.Fatalf("second reached-line changed state")
	}
}

func TestReloadGuards(t *testing.T) {
	s, clock := newSession(configOf(3, 1))
	s.Start("Alex")
	s.MarkReachedLine()
	s.ConfirmShot(true)

	if st := s.EndReload(); st.Phase != PhaseReloading {
		t.Fatalf("end reload before start must be a no-op")
	}
	s.StartReload()
	first := s.State().ReloadStartedAt
	clock.Advance(time.Second)
	s.StartReload()
	if !s.State().ReloadStartedAt.Equal(first) {
		t.Fatalf("second start reload must not restart the timer")
	}
	s.EndReload()
	clock.Advance(time.Second)
	ended := s.State().ReloadEndedAt
	s.EndReload()
	if !s.State().ReloadEndedAt.Equal(ended) {
		t.Fatalf("second end reload must not move the end instant")
	}
}

func TestResetFromAnyPhase(t *testing.T) {
	s, _ := newSession(configOf(3, 1))
	s.Start("Alex")
	s.MarkReachedLine()
	s.ConfirmShot(true)

	st := s.Reset()
	if st.Phase != PhaseIdle || st.Shooter != "" || st.CurrentShot != 1 {
		t.Fatalf("unexpected state after reset: %+v", st)
	}
	if !st.StartedAt.IsZero() || !st.ReachedLineAt.IsZero() || !st.LastShotAt.IsZero() ||
		!st.ReloadStartedAt.IsZero() || !st.ReloadEndedAt.IsZero() {
		t.Fatalf("timestamps not cleared: %+v", st)
	}
	if len(st.Hits) != 3 {
		t.Fatalf("expected hits sized to sequence, got %d", len(st.Hits))
	}
	for _, h := range st.Hits {
		if h != model.ShotPending {
			t.Fatalf("expected pending hits after reset, got %v", st.Hits)
		}
	}
	if st := s.Start("Bob"); st.Phase != PhaseRunning {
		t.Fatalf("expected a new run after reset")
	}
}

func TestHitsWrittenOnlyAtCurrentShot(t *testing.T) {
	s, _ := newSession(configOf(4, 2))
	cmds := []Command{
		ConfirmShot(true), Start("Alex", configOf(4, 2)), ConfirmShot(true), MarkReachedLine(),
		ConfirmShot(false), EndReload(), ConfirmShot(true), StartReload(), ConfirmShot(true),
		EndReload(), ConfirmShot(false), ConfirmShot(true), ConfirmShot(true), Reset(), ConfirmShot(true),
	}
	for _, cmd := range cmds {
		before := s.State()
		after := s.Dispatch(cmd)
		if len(after.Hits) != len(after.Config.Seq) {
			t.Fatalf("hits length %d does not match sequence length %d", len(after.Hits), len(after.Config.Seq))
		}
		if cmd.Kind != CmdConfirmShot || before.Phase != PhaseReachedLine {
			continue
		}
		for i := range after.Hits {
			if i == before.CurrentShot-1 {
				if after.Hits[i] != model.ResultOf(cmd.Hit) {
					t.Fatalf("shot %d not recorded", i+1)
				}
				continue
			}
			if after.Hits[i] != before.Hits[i] {
				t.Fatalf("shot %d changed while confirming shot %d", i+1, before.CurrentShot)
			}
		}
	}
}

func TestReloadAtLastShotStrandsRun(t *testing.T) {
	// An unclamped reload point equal to the sequence length leaves the run
	// waiting at the line with nothing left to confirm.
	s, _ := newSession(configOf(2, 2))
	s.Start("Alex")
	s.MarkReachedLine()
	s.ConfirmShot(true)
	s.ConfirmShot(true)
	s.StartReload()
	st := s.EndReload()
	if st.Phase != PhaseReachedLine || st.CurrentShot != 3 || st.CanShoot() {
		t.Fatalf("unexpected state: phase=%s shot=%d", st.Phase, st.CurrentShot)
	}
	if after := s.ConfirmShot(true); !cmp.Equal(st, after) {
		t.Fatalf("confirm past the end must be a no-op")
	}
}

func TestCurrentTargetClamps(t *testing.T) {
	st := NewState()
	if _, ok := st.CurrentTarget(); ok {
		t.Fatalf("expected no target for empty sequence")
	}
	st.Config = configOf(3, 0)
	st.CurrentShot = 7
	tgt, ok := st.CurrentTarget()
	if !ok || tgt.Order != 3 {
		t.Fatalf("expected last target, got %+v", tgt)
	}
	st.CurrentShot = 0
	tgt, _ = st.CurrentTarget()
	if tgt.Order != 1 {
		t.Fatalf("expected first target, got %+v", tgt)
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	now := time.Now()
	st := Apply(NewState(), Start("Alex", configOf(2, 0)), now)
	st = Apply(st, MarkReachedLine(), now)
	before := st.Hits[0]
	_ = Apply(st, ConfirmShot(true), now)
	if st.Hits[0] != before {
		t.Fatalf("apply mutated the caller's hits slice")
	}
}
