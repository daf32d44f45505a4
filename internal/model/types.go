// Package model defines shared data structures.
package model

import "time"

// TargetType is the silhouette used at a stage.
type TargetType string

// Target types.
const (
	TargetChest    TargetType = "chest"
	TargetHalfHead TargetType = "half-head"
	TargetFullBody TargetType = "full-body"
)

// Stance is the shooting position for a stage.
type Stance string

// Stances.
const (
	StanceStanding Stance = "standing"
	StanceKneeling Stance = "kneeling"
)

// TargetSize is the printed size of a target.
type TargetSize string

// Target sizes.
const (
	SizeFull   TargetSize = "full"
	SizeMedium TargetSize = "medium"
	SizeSmall  TargetSize = "small"
	SizeCustom TargetSize = "custom"
)

// Mode selects where a drill configuration came from.
type Mode string

// Drill modes.
const (
	ModeLevel  Mode = "level"
	ModeShort  Mode = "short"
	ModeCustom Mode = "custom"
)

// Target is one stage of a drill.
type Target struct {
	Order    int
	Distance float64
	Type     TargetType
	Stance   Stance
	// Shots defaults to 1 when zero.
	Shots int
	// Size defaults to full when empty.
	Size TargetSize
	// SizeCm is only meaningful when Size is custom.
	SizeCm float64
}

// ShotCount returns the number of shots fired at the target.
func (t Target) ShotCount() int {
	if t.Shots < 1 {
		return 1
	}
	return t.Shots
}

// EffectiveSize returns the target size with the default applied.
func (t Target) EffectiveSize() TargetSize {
	if t.Size == "" {
		return SizeFull
	}
	return t.Size
}

// TargetSequence is an ordered list of targets.
type TargetSequence []Target

// DrillMeta carries optional drill annotations.
type DrillMeta struct {
	WithVest  bool
	WithRun   bool
	DrillName string
	DrillID   string
}

// DrillConfig is the configuration a run is started from.
type DrillConfig struct {
	Mode Mode
	Seq  TargetSequence
	// ReloadAfter is the shot after which the shooter reloads; nil means no reload.
	ReloadAfter *int
	Meta        *DrillMeta
}

// ShotResult records the outcome of a single shot.
type ShotResult int

// Shot results.
const (
	ShotPending ShotResult = iota
	ShotHit
	ShotMiss
)

// ResultOf converts a hit flag into a ShotResult.
func ResultOf(hit bool) ShotResult {
	if hit {
		return ShotHit
	}
	return ShotMiss
}

// String implements fmt.Stringer using the CSV vocabulary.
func (r ShotResult) String() string {
	switch r {
	case ShotHit:
		return "HIT"
	case ShotMiss:
		return "MISS"
	default:
		return ""
	}
}

// SessionSnapshot captures a finished run.
type SessionSnapshot struct {
	Shooter    string
	Config     DrillConfig
	StartedAt  time.Time
	Total      time.Duration
	TimeToLine *time.Duration
	Reload     *time.Duration
	Hits       []ShotResult
	Seq        TargetSequence
	// Splits holds per-shot durations; zero entries were never confirmed.
	Splits []time.Duration
}

// HitCount returns the number of hits in the snapshot.
func (s SessionSnapshot) HitCount() int {
	count := 0
	for _, h := range s.Hits {
		if h == ShotHit {
			count++
		}
	}
	return count
}

// StorageTargetType is the target vocabulary used by saved drills.
type StorageTargetType string

// Storage target types.
const (
	StorageHead     StorageTargetType = "head"
	StorageChest    StorageTargetType = "chest"
	StorageHalfBody StorageTargetType = "half-body"
	StorageBody     StorageTargetType = "body"
)

// ShootingPosition is the stance vocabulary used by saved drills.
type ShootingPosition string

// Shooting positions.
const (
	PositionLying     ShootingPosition = "lying"
	PositionHalfSquat ShootingPosition = "half-squat"
	PositionStanding  ShootingPosition = "standing"
)

// TargetSpec is one target of a saved drill.
type TargetSpec struct {
	Distance         float64
	TargetType       StorageTargetType
	ShootingPosition ShootingPosition
	Shots            int
	Size             TargetSize
	SizeCm           float64
}

// CustomDrill is a user-defined drill.
type CustomDrill struct {
	ID          string
	Name        string
	Description string
	Targets     []TargetSpec
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SessionFilter defines filters for stored sessions.
type SessionFilter struct {
	Shooters []string
	Mode     Mode
	Since    *time.Time
	Last     int
}

// SessionAggregate summarizes a stored session for listing and reporting.
type SessionAggregate struct {
	SessionID   int64
	Shooter     string
	Mode        Mode
	DrillName   string
	StartedAt   time.Time
	TargetCount int
	HitCount    int
	Total       time.Duration
	TimeToLine  *time.Duration
	Reload      *time.Duration
}

// StageAggregate aggregates shot outcomes for one kind of stage.
type StageAggregate struct {
	Type     TargetType
	Stance   Stance
	Distance float64
	Hits     int
	Misses   int
	SplitSum time.Duration
	SplitCnt int64
}
