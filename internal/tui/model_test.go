package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/shotdrill/internal/drill"
	"github.com/verte-zerg/shotdrill/internal/model"
	"github.com/verte-zerg/shotdrill/internal/run"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fakeRecorder struct {
	snaps []model.SessionSnapshot
}

func (r *fakeRecorder) InsertSession(_ context.Context, snap model.SessionSnapshot) (int64, error) {
	r.snaps = append(r.snaps, snap)
	return int64(len(r.snaps)), nil
}

func newTestModel(t *testing.T, cfg model.DrillConfig, shooter string) (*Model, *fakeClock, *fakeRecorder) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	rec := &fakeRecorder{}
	m := NewModel(cfg, rec, Options{
		Shooter:   shooter,
		ExportDir: t.TempDir(),
		Clock:     clock.Now,
	})
	return m, clock, rec
}

func press(m *Model, key string) {
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	m.Update(msg)
}

func reloadOf(cfg model.DrillConfig) int {
	if cfg.ReloadAfter == nil {
		return 0
	}
	return *cfg.ReloadAfter
}

func TestRunThroughShortDrill(t *testing.T) {
	m, clock, rec := newTestModel(t, drill.PresetShort(), "Ann")

	press(m, "enter")
	if got := m.session.State().Phase; got != run.PhaseRunning {
		t.Fatalf("expected running, got %s", got)
	}
	clock.Advance(4 * time.Second)
	press(m, " ")
	clock.Advance(time.Second)
	press(m, "h")
	clock.Advance(2 * time.Second)
	press(m, "m")
	clock.Advance(time.Second)
	press(m, "h")

	if got := m.session.State().Phase; got != run.PhaseFinished {
		t.Fatalf("expected finished, got %s", got)
	}
	if len(rec.snaps) != 1 {
		t.Fatalf("expected 1 saved session, got %d", len(rec.snaps))
	}
	snap := rec.snaps[0]
	if snap.Total != 8*time.Second || snap.TimeToLine == nil || *snap.TimeToLine != 4*time.Second {
		t.Fatalf("unexpected snapshot timings: %+v", snap)
	}
	view := m.View()
	for _, want := range []string{"Results", "Hits: 2/3", "Saved session #1.", "Reached line at 4.00 s", "8.00 s"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view:\n%s", want, view)
		}
	}

	press(m, "h")
	if len(rec.snaps) != 1 {
		t.Fatalf("extra confirm should not save again")
	}

	press(m, "w")
	data, err := os.ReadFile(filepath.Join(m.opts.ExportDir, "result_Ann.csv"))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(data), "Ann,short,3,8.00,4.00,,2") {
		t.Fatalf("unexpected export:\n%s", data)
	}

	press(m, "x")
	if got := m.session.State().Phase; got != run.PhaseIdle {
		t.Fatalf("expected idle after reset, got %s", got)
	}
	if !m.editing || m.snapshot != nil {
		t.Fatalf("reset should clear results and refocus the name input")
	}
}

func TestStartRequiresShooterName(t *testing.T) {
	m, _, _ := newTestModel(t, drill.PresetShort(), "   ")
	press(m, "enter")
	if got := m.session.State().Phase; got != run.PhaseIdle {
		t.Fatalf("expected idle, got %s", got)
	}
	if !strings.Contains(m.View(), "Enter a shooter name") {
		t.Fatalf("expected shooter name prompt in view")
	}
}

func TestWriteBeforeFinishIsRefused(t *testing.T) {
	m, _, _ := newTestModel(t, drill.PresetShort(), "Ann")
	press(m, "esc")
	press(m, "w")
	if m.status != "Finish a run before exporting." {
		t.Fatalf("unexpected status: %q", m.status)
	}
}

func TestReloadFlow(t *testing.T) {
	cfg := drill.SetReloadAfter(drill.SetMode(model.DrillConfig{}, model.ModeCustom), "1")
	m, clock, rec := newTestModel(t, cfg, "Bob")

	press(m, "enter")
	press(m, " ")
	press(m, "h")
	if got := m.session.State().Phase; got != run.PhaseReloading {
		t.Fatalf("expected reloading, got %s", got)
	}
	if !strings.Contains(m.View(), "Reload waiting to start") {
		t.Fatalf("expected waiting reload message:\n%s", m.View())
	}
	press(m, "r")
	clock.Advance(1500 * time.Millisecond)
	m.Update(tickMsg(clock.Now()))
	if !strings.Contains(m.View(), "Reload: 1.50 s (running)") {
		t.Fatalf("expected running reload:\n%s", m.View())
	}
	press(m, "e")
	if !strings.Contains(m.View(), "Reload: 1.50 s (final)") {
		t.Fatalf("expected final reload:\n%s", m.View())
	}
	press(m, "m")
	press(m, "m")
	if len(rec.snaps) != 1 || rec.snaps[0].Reload == nil || *rec.snaps[0].Reload != 1500*time.Millisecond {
		t.Fatalf("expected saved reload duration, got %+v", rec.snaps)
	}
}

func TestModeAndCustomEdits(t *testing.T) {
	m, _, _ := newTestModel(t, drill.PresetShort(), "Ann")
	press(m, "esc")

	press(m, "a")
	if len(m.cfg.Seq) != 3 {
		t.Fatalf("add should be ignored outside custom mode")
	}

	press(m, "3")
	if m.cfg.Mode != model.ModeCustom || len(m.cfg.Seq) != 3 {
		t.Fatalf("unexpected custom config: %+v", m.cfg)
	}
	press(m, "a")
	if len(m.cfg.Seq) != 4 || len(m.session.State().Hits) != 4 {
		t.Fatalf("expected 4 targets and hits, got %d and %d", len(m.cfg.Seq), len(m.session.State().Hits))
	}
	press(m, "+")
	if reloadOf(m.cfg) != 1 {
		t.Fatalf("expected reload 1, got %d", reloadOf(m.cfg))
	}
	press(m, "-")
	if m.cfg.ReloadAfter != nil {
		t.Fatalf("expected reload cleared")
	}
	press(m, "-")
	if reloadOf(m.cfg) != 3 {
		t.Fatalf("expected reload to wrap to 3, got %d", reloadOf(m.cfg))
	}
	press(m, "d")
	press(m, "d")
	if len(m.cfg.Seq) != 2 || reloadOf(m.cfg) != 1 {
		t.Fatalf("expected 2 targets with reload clamped to 1, got %d and %d", len(m.cfg.Seq), reloadOf(m.cfg))
	}

	press(m, "1")
	if m.cfg.Mode != model.ModeLevel || len(m.cfg.Seq) != 10 || reloadOf(m.cfg) != 5 {
		t.Fatalf("unexpected level config: %+v", m.cfg)
	}
}

func TestModeLockedDuringRun(t *testing.T) {
	m, _, _ := newTestModel(t, drill.PresetShort(), "Ann")
	press(m, "enter")
	press(m, "1")
	if m.cfg.Mode != model.ModeShort || m.session.State().Config.Mode != model.ModeShort {
		t.Fatalf("mode should not change during a run")
	}
}

func TestEditSelectedCustomTarget(t *testing.T) {
	m, _, _ := newTestModel(t, drill.PresetShort(), "Ann")
	press(m, "esc")

	press(m, "j")
	press(m, "t")
	press(m, ">")
	if m.selected != 0 || m.cfg.Seq[1].Type != model.TargetHalfHead || m.cfg.Seq[1].Distance != 50 {
		t.Fatalf("target edits should be ignored outside custom mode: %+v", m.cfg.Seq)
	}

	press(m, "3")
	press(m, "j")
	press(m, "t")
	press(m, "p")
	press(m, ">")
	got := m.cfg.Seq[1]
	if got.Order != 2 || got.Type != model.TargetFullBody || got.Stance != model.StanceKneeling || got.Distance != 55 {
		t.Fatalf("unexpected edited target: %+v", got)
	}
	if m.session.State().Config.Seq[1] != got {
		t.Fatalf("session config not updated: %+v", m.session.State().Config.Seq[1])
	}
	if m.cfg.Seq[0].Distance != 25 || m.cfg.Seq[2].Distance != 100 {
		t.Fatalf("other targets should be untouched: %+v", m.cfg.Seq)
	}

	press(m, "k")
	for range 10 {
		press(m, "<")
	}
	if m.cfg.Seq[0].Distance != minDistance {
		t.Fatalf("expected distance floor %v, got %v", minDistance, m.cfg.Seq[0].Distance)
	}

	press(m, "j")
	press(m, "j")
	press(m, "d")
	if m.selected != 1 {
		t.Fatalf("expected cursor clamped to last target, got %d", m.selected)
	}
	if !strings.Contains(m.View(), "> #2") {
		t.Fatalf("expected cursor marker in view:\n%s", m.View())
	}
}

func TestTargetEditsLockedDuringRun(t *testing.T) {
	cfg := drill.SetMode(drill.PresetShort(), model.ModeCustom)
	m, _, _ := newTestModel(t, cfg, "Ann")
	press(m, "enter")
	press(m, "t")
	press(m, ">")
	if m.cfg.Seq[0].Type != model.TargetChest || m.cfg.Seq[0].Distance != 25 {
		t.Fatalf("target edits should be ignored during a run: %+v", m.cfg.Seq[0])
	}
}
