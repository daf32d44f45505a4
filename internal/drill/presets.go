package drill

import "github.com/verte-zerg/shotdrill/internal/model"

const levelReloadAfter = 5

var presetLevel = model.TargetSequence{
	{Distance: 25, Type: model.TargetChest, Stance: model.StanceStanding},
	{Distance: 50, Type: model.TargetChest, Stance: model.StanceStanding},
	{Distance: 75, Type: model.TargetHalfHead, Stance: model.StanceStanding},
	{Distance: 100, Type: model.TargetFullBody, Stance: model.StanceStanding},
	{Distance: 100, Type: model.TargetChest, Stance: model.StanceKneeling},
	{Distance: 150, Type: model.TargetFullBody, Stance: model.StanceKneeling},
	{Distance: 50, Type: model.TargetHalfHead, Stance: model.StanceKneeling},
	{Distance: 75, Type: model.TargetChest, Stance: model.StanceKneeling},
	{Distance: 200, Type: model.TargetFullBody, Stance: model.StanceStanding},
	{Distance: 25, Type: model.TargetHalfHead, Stance: model.StanceStanding},
}

var presetShort = model.TargetSequence{
	{Distance: 25, Type: model.TargetChest, Stance: model.StanceStanding},
	{Distance: 50, Type: model.TargetHalfHead, Stance: model.StanceStanding},
	{Distance: 100, Type: model.TargetFullBody, Stance: model.StanceKneeling},
}

var defaultCustom = model.TargetSequence{
	{Distance: 50, Type: model.TargetChest, Stance: model.StanceStanding},
	{Distance: 70, Type: model.TargetHalfHead, Stance: model.StanceStanding},
	{Distance: 100, Type: model.TargetFullBody, Stance: model.StanceKneeling},
}

// newTarget is appended by AddTarget.
var newTarget = model.Target{Distance: 50, Type: model.TargetChest, Stance: model.StanceStanding}

// PresetLevel returns the 10-stage level test.
func PresetLevel() model.DrillConfig {
	return model.DrillConfig{
		Mode:        model.ModeLevel,
		Seq:         Normalize(presetLevel),
		ReloadAfter: intPtr(levelReloadAfter),
		Meta:        &model.DrillMeta{DrillName: ModeName(model.ModeLevel)},
	}
}

// PresetShort returns the 3-stage short drill.
func PresetShort() model.DrillConfig {
	return model.DrillConfig{
		Mode: model.ModeShort,
		Seq:  Normalize(presetShort),
		Meta: &model.DrillMeta{DrillName: ModeName(model.ModeShort)},
	}
}

// DefaultCustom returns the starting sequence for an empty custom drill.
func DefaultCustom() model.TargetSequence {
	return Normalize(defaultCustom)
}

// ModeName returns the human-facing drill name for a mode.
func ModeName(mode model.Mode) string {
	switch mode {
	case model.ModeLevel:
		return "Level Test"
	case model.ModeShort:
		return "Short Drill"
	case model.ModeCustom:
		return "Custom Drill"
	default:
		return string(mode)
	}
}

// Preset returns the built-in configuration for id ("level" or "short").
func Preset(id string) (model.DrillConfig, bool) {
	switch model.Mode(id) {
	case model.ModeLevel:
		return PresetLevel(), true
	case model.ModeShort:
		return PresetShort(), true
	default:
		return model.DrillConfig{}, false
	}
}
