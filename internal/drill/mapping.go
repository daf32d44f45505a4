package drill

import (
	"errors"
	"fmt"
	"strings"

	"github.com/verte-zerg/shotdrill/internal/model"
)

// ErrInvalidDrill is returned when a saved drill fails validation.
var ErrInvalidDrill = errors.New("invalid drill")

// MapTargetType converts a saved-drill target type into the run vocabulary.
// The mapping is lossy: half-body and body both become full-body.
// Unknown values fall back to chest.
func MapTargetType(t model.StorageTargetType) model.TargetType {
	switch t {
	case model.StorageHead:
		return model.TargetHalfHead
	case model.StorageChest:
		return model.TargetChest
	case model.StorageHalfBody, model.StorageBody:
		return model.TargetFullBody
	default:
		return model.TargetChest
	}
}

// MapStance converts a saved-drill shooting position into the run vocabulary.
// Lying and half-squat both become kneeling. Unknown values fall back to standing.
func MapStance(p model.ShootingPosition) model.Stance {
	switch p {
	case model.PositionStanding:
		return model.StanceStanding
	case model.PositionLying, model.PositionHalfSquat:
		return model.StanceKneeling
	default:
		return model.StanceStanding
	}
}

// ConfigFromDrill builds a runnable custom configuration from a saved drill.
func ConfigFromDrill(d model.CustomDrill) model.DrillConfig {
	seq := make(model.TargetSequence, 0, len(d.Targets))
	for _, spec := range d.Targets {
		seq = append(seq, model.Target{
			Distance: spec.Distance,
			Type:     MapTargetType(spec.TargetType),
			Stance:   MapStance(spec.ShootingPosition),
			Shots:    max(1, spec.Shots),
			Size:     spec.Size,
			SizeCm:   spec.SizeCm,
		})
	}
	return model.DrillConfig{
		Mode: model.ModeCustom,
		Seq:  Normalize(seq),
		Meta: &model.DrillMeta{
			DrillName: d.Name,
			DrillID:   d.ID,
		},
	}
}

// ValidateDrill checks a saved drill before it is written.
func ValidateDrill(d model.CustomDrill) error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: drill name cannot be empty", ErrInvalidDrill)
	}
	if len(d.Targets) == 0 {
		return fmt.Errorf("%w: at least one target is required", ErrInvalidDrill)
	}
	for i, spec := range d.Targets {
		if spec.Distance <= 0 || spec.TargetType == "" || spec.ShootingPosition == "" {
			return fmt.Errorf("%w: target %d: all target fields must be filled", ErrInvalidDrill, i+1)
		}
		switch spec.TargetType {
		case model.StorageHead, model.StorageChest, model.StorageHalfBody, model.StorageBody:
		default:
			return fmt.Errorf("%w: target %d: unknown target type %q", ErrInvalidDrill, i+1, spec.TargetType)
		}
		switch spec.ShootingPosition {
		case model.PositionLying, model.PositionHalfSquat, model.PositionStanding:
		default:
			return fmt.Errorf("%w: target %d: unknown shooting position %q", ErrInvalidDrill, i+1, spec.ShootingPosition)
		}
		if spec.Shots < 0 {
			return fmt.Errorf("%w: target %d: shots must be >= 1", ErrInvalidDrill, i+1)
		}
		if err := validateSize(spec.Size, spec.SizeCm); err != nil {
			return fmt.Errorf("%w: target %d: %v", ErrInvalidDrill, i+1, err)
		}
	}
	return nil
}
