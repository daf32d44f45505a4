// Package drill manipulates target sequences and drill configurations.
package drill

import "github.com/verte-zerg/shotdrill/internal/model"

// Normalize returns a copy of seq whose Order fields equal the 1-based positions.
func Normalize(seq model.TargetSequence) model.TargetSequence {
	out := make(model.TargetSequence, len(seq))
	for i, t := range seq {
		t.Order = i + 1
		out[i] = t
	}
	return out
}

// Clone returns a deep copy of seq.
func Clone(seq model.TargetSequence) model.TargetSequence {
	if seq == nil {
		return nil
	}
	out := make(model.TargetSequence, len(seq))
	copy(out, seq)
	return out
}

// Expand replaces every multi-shot target with that many single-shot copies.
func Expand(seq model.TargetSequence) model.TargetSequence {
	out := make(model.TargetSequence, 0, len(seq))
	for _, t := range seq {
		n := t.ShotCount()
		t.Shots = 1
		for i := 0; i < n; i++ {
			out = append(out, t)
		}
	}
	return Normalize(out)
}

// NeedsExpand reports whether any target declares more than one shot.
func NeedsExpand(seq model.TargetSequence) bool {
	for _, t := range seq {
		if t.ShotCount() > 1 {
			return true
		}
	}
	return false
}

// CloneConfig returns a copy of cfg that shares no memory with it.
func CloneConfig(cfg model.DrillConfig) model.DrillConfig {
	out := model.DrillConfig{
		Mode: cfg.Mode,
		Seq:  Clone(cfg.Seq),
	}
	if cfg.ReloadAfter != nil {
		out.ReloadAfter = intPtr(*cfg.ReloadAfter)
	}
	if cfg.Meta != nil {
		meta := *cfg.Meta
		out.Meta = &meta
	}
	return out
}

func intPtr(v int) *int {
	return &v
}
