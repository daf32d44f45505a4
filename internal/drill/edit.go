package drill

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/verte-zerg/shotdrill/internal/model"
)

// ErrInvalidConfig is returned when a drill configuration cannot be run.
var ErrInvalidConfig = errors.New("invalid drill config")

// TargetPatch carries the target fields to overwrite; nil fields are kept.
type TargetPatch struct {
	Distance *float64
	Type     *model.TargetType
	Stance   *model.Stance
	Shots    *int
	Size     *model.TargetSize
	SizeCm   *float64
}

// SetMode switches cfg to mode. Vest and run flags survive the switch.
func SetMode(cfg model.DrillConfig, mode model.Mode) model.DrillConfig {
	var next model.DrillConfig
	switch mode {
	case model.ModeLevel:
		next = PresetLevel()
	case model.ModeShort:
		next = PresetShort()
	default:
		seq := DefaultCustom()
		if len(cfg.Seq) > 0 {
			seq = Normalize(cfg.Seq)
		}
		next = model.DrillConfig{
			Mode: model.ModeCustom,
			Seq:  seq,
			Meta: &model.DrillMeta{DrillName: ModeName(model.ModeCustom)},
		}
	}
	if cfg.Meta != nil {
		next.Meta.WithVest = cfg.Meta.WithVest
		next.Meta.WithRun = cfg.Meta.WithRun
	}
	return next
}

// AddTarget appends a default target.
func AddTarget(cfg model.DrillConfig) model.DrillConfig {
	next := CloneConfig(cfg)
	next.Seq = Normalize(append(next.Seq, newTarget))
	return next
}

// RemoveLastTarget drops the final target, keeping at least one, and clamps the reload point.
func RemoveLastTarget(cfg model.DrillConfig) model.DrillConfig {
	if len(cfg.Seq) <= 1 {
		return cfg
	}
	next := CloneConfig(cfg)
	next.Seq = Normalize(next.Seq[:len(next.Seq)-1])
	return ClampReload(next)
}

// UpdateTarget applies patch to the target at idx. Out-of-range indexes leave cfg unchanged.
func UpdateTarget(cfg model.DrillConfig, idx int, patch TargetPatch) model.DrillConfig {
	if idx < 0 || idx >= len(cfg.Seq) {
		return cfg
	}
	next := CloneConfig(cfg)
	t := next.Seq[idx]
	if patch.Distance != nil {
		t.Distance = *patch.Distance
	}
	if patch.Type != nil {
		t.Type = *patch.Type
	}
	if patch.Stance != nil {
		t.Stance = *patch.Stance
	}
	if patch.Shots != nil {
		t.Shots = max(1, *patch.Shots)
	}
	if patch.Size != nil {
		t.Size = *patch.Size
		t.SizeCm = 0
	}
	if patch.SizeCm != nil {
		t.SizeCm = *patch.SizeCm
	}
	next.Seq[idx] = t
	next.Seq = Normalize(next.Seq)
	return next
}

// SetReloadAfter parses raw as the reload point. Blank input clears it;
// anything outside 1..len(seq)-1 is ignored.
func SetReloadAfter(cfg model.DrillConfig, raw string) model.DrillConfig {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		next := CloneConfig(cfg)
		next.ReloadAfter = nil
		return next
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil || n < 1 || n >= len(cfg.Seq) {
		return cfg
	}
	next := CloneConfig(cfg)
	next.ReloadAfter = intPtr(n)
	return next
}

// ClampReload pulls an out-of-range reload point back to len(seq)-1, or clears it
// when the sequence is too short to reload between two shots.
func ClampReload(cfg model.DrillConfig) model.DrillConfig {
	if cfg.ReloadAfter == nil {
		return cfg
	}
	r := *cfg.ReloadAfter
	if r >= 1 && r < len(cfg.Seq) {
		return cfg
	}
	next := CloneConfig(cfg)
	if len(cfg.Seq) >= 2 {
		next.ReloadAfter = intPtr(len(cfg.Seq) - 1)
	} else {
		next.ReloadAfter = nil
	}
	return next
}

// ValidateConfig reports whether cfg can start a run.
func ValidateConfig(cfg model.DrillConfig) error {
	if len(cfg.Seq) == 0 {
		return fmt.Errorf("%w: target sequence is empty", ErrInvalidConfig)
	}
	for i, t := range cfg.Seq {
		if t.Order != i+1 {
			return fmt.Errorf("%w: target %d has order %d", ErrInvalidConfig, i+1, t.Order)
		}
		if err := ValidateTarget(t); err != nil {
			return fmt.Errorf("%w: target %d: %v", ErrInvalidConfig, i+1, err)
		}
	}
	if cfg.ReloadAfter != nil {
		r := *cfg.ReloadAfter
		if r < 1 || r >= len(cfg.Seq) {
			return fmt.Errorf("%w: reload-after must be between 1 and %d, got %d", ErrInvalidConfig, len(cfg.Seq)-1, r)
		}
	}
	return nil
}

// ValidateTarget checks a single target's attributes.
func ValidateTarget(t model.Target) error {
	if t.Distance <= 0 {
		return fmt.Errorf("distance must be > 0")
	}
	switch t.Type {
	case model.TargetChest, model.TargetHalfHead, model.TargetFullBody:
	default:
		return fmt.Errorf("unknown target type %q", t.Type)
	}
	switch t.Stance {
	case model.StanceStanding, model.StanceKneeling:
	default:
		return fmt.Errorf("unknown stance %q", t.Stance)
	}
	if t.Shots < 0 {
		return fmt.Errorf("shots must be >= 1")
	}
	return validateSize(t.Size, t.SizeCm)
}

func validateSize(size model.TargetSize, sizeCm float64) error {
	switch size {
	case "", model.SizeFull, model.SizeMedium, model.SizeSmall:
		if sizeCm != 0 {
			return fmt.Errorf("sizeCm is only allowed with custom size")
		}
		return nil
	case model.SizeCustom:
		if sizeCm <= 0 {
			return fmt.Errorf("custom size requires sizeCm > 0")
		}
		return nil
	default:
		return fmt.Errorf("unknown size %q", size)
	}
}
