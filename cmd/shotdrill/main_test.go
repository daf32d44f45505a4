package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/shotdrill/internal/drill"
	"github.com/verte-zerg/shotdrill/internal/model"
	"github.com/verte-zerg/shotdrill/internal/store"
)

func TestResolveDrill(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "shotdrill.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer closeStore(st)
	ctx := context.Background()

	level, err := resolveDrill(ctx, st, "level")
	if err != nil || level.Mode != model.ModeLevel || len(level.Seq) != 10 {
		t.Fatalf("unexpected level drill: %+v (%v)", level, err)
	}
	custom, err := resolveDrill(ctx, st, "custom")
	if err != nil || custom.Mode != model.ModeCustom || len(custom.Seq) != 3 {
		t.Fatalf("unexpected custom drill: %+v (%v)", custom, err)
	}

	saved, err := st.SaveDrill(ctx, model.CustomDrill{
		Name: "Doubles",
		Targets: []model.TargetSpec{
			{Distance: 25, TargetType: model.StorageChest, ShootingPosition: model.PositionStanding, Shots: 2, Size: model.SizeFull},
			{Distance: 50, TargetType: model.StorageChest, ShootingPosition: model.PositionStanding, Shots: 1, Size: model.SizeFull},
		},
	})
	if err != nil {
		t.Fatalf("save drill: %v", err)
	}
	cfg, err := resolveDrill(ctx, st, saved.ID)
	if err != nil {
		t.Fatalf("resolve saved drill: %v", err)
	}
	if len(cfg.Seq) != 3 || cfg.Seq[2].Order != 3 || cfg.Meta.DrillName != "Doubles" {
		t.Fatalf("expected expanded saved drill, got %+v", cfg)
	}

	if _, err := resolveDrill(ctx, st, "nope"); err == nil {
		t.Fatalf("expected unknown drill error")
	}
}

func TestApplyReloadAfter(t *testing.T) {
	cfg := model.DrillConfig{Mode: model.ModeCustom, Seq: model.TargetSequence{{Order: 1}, {Order: 2}, {Order: 3}}}

	next, err := applyReloadAfter(cfg, "2")
	if err != nil || next.ReloadAfter == nil || *next.ReloadAfter != 2 {
		t.Fatalf("unexpected reload: %+v (%v)", next.ReloadAfter, err)
	}
	cleared, err := applyReloadAfter(next, " ")
	if err != nil || cleared.ReloadAfter != nil {
		t.Fatalf("expected cleared reload, got %+v (%v)", cleared.ReloadAfter, err)
	}
	for _, raw := range []string{"0", "3", "x"} {
		if _, err := applyReloadAfter(cfg, raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestShotSummary(t *testing.T) {
	d := model.CustomDrill{Targets: []model.TargetSpec{{Distance: 25}, {Distance: 50}, {Distance: 25}, {Distance: 100}}}
	if got := shotSummary(d); got != "25m/50m/100m" {
		t.Fatalf("unexpected summary %q", got)
	}
}

func TestCheckShooters(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "shotdrill.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer closeStore(st)
	ctx := context.Background()

	err = checkShooters(ctx, st, []string{"Ann"})
	if err == nil || !strings.Contains(err.Error(), "available: none") {
		t.Fatalf("expected empty store error, got %v", err)
	}

	cfg := drill.PresetShort()
	for _, shooter := range []string{"Bob", "Ann"} {
		snap := model.SessionSnapshot{
			Shooter:   shooter,
			Config:    cfg,
			StartedAt: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
			Total:     9 * time.Second,
			Hits:      []model.ShotResult{model.ShotHit, model.ShotMiss, model.ShotHit},
			Seq:       cfg.Seq,
			Splits:    []time.Duration{2 * time.Second, 3 * time.Second, 4 * time.Second},
		}
		if _, err := st.InsertSession(ctx, snap); err != nil {
			t.Fatalf("insert session: %v", err)
		}
	}

	if err := checkShooters(ctx, st, nil); err != nil {
		t.Fatalf("empty selection should pass: %v", err)
	}
	if err := checkShooters(ctx, st, []string{"Bob", "Ann"}); err != nil {
		t.Fatalf("known shooters should pass: %v", err)
	}
	err = checkShooters(ctx, st, []string{"Ann", "ann"})
	if err == nil {
		t.Fatalf("expected unknown shooter error")
	}
	if want := `no sessions for shooter "ann" (available: Ann, Bob)`; err.Error() != want {
		t.Fatalf("unexpected error %q, want %q", err.Error(), want)
	}
}
