// Package export formats finished sessions as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/verte-zerg/shotdrill/internal/drill"
	"github.com/verte-zerg/shotdrill/internal/model"
	"github.com/verte-zerg/shotdrill/internal/run"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

var (
	sessionHeader = []string{"Shooter", "Mode", "Targets", "TotalTime", "TimeToLine", "ReloadTime", "HitCount"}
	shotHeader    = []string{"Shot", "Distance", "Type", "Stance", "Result"}
	summaryHeader = []string{"Shooter name", "Targets", "Drill name", "Total Time", "Time to line", "Reload time", "Hit rate"}
)

// WriteSessionCSV writes a summary row followed by one row per target.
func WriteSessionCSV(w io.Writer, snap model.SessionSnapshot) error {
	cw := csv.NewWriter(w)
	rows := [][]string{
		sessionHeader,
		{
			snap.Shooter,
			string(snap.Config.Mode),
			strconv.Itoa(len(snap.Seq)),
			run.FormatSeconds(snap.Total),
			optionalSeconds(snap.TimeToLine),
			optionalSeconds(snap.Reload),
			strconv.Itoa(snap.HitCount()),
		},
		shotHeader,
	}
	for i, t := range snap.Seq {
		result := model.ShotPending
		if i < len(snap.Hits) {
			result = snap.Hits[i]
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			formatDistance(t.Distance),
			string(t.Type),
			string(t.Stance),
			result.String(),
		})
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write session csv: %w", err)
	}
	return nil
}

// WriteSummaryCSV writes one row per selected shooter using that shooter's most
// recent session. An empty shooter list selects everyone.
func WriteSummaryCSV(w io.Writer, sessions []model.SessionSnapshot, shooters []string) (int, error) {
	selected := lo.Filter(sessions, func(s model.SessionSnapshot, _ int) bool {
		return len(shooters) == 0 || lo.Contains(shooters, s.Shooter)
	})
	latest := LatestPerShooter(selected)

	cw := csv.NewWriter(w)
	if err := cw.Write(summaryHeader); err != nil {
		return 0, fmt.Errorf("failed to write summary csv: %w", err)
	}
	for _, s := range latest {
		row := []string{
			s.Shooter,
			strconv.Itoa(len(s.Seq)),
			drillName(s.Config),
			run.FormatSeconds(s.Total),
			optionalSeconds(s.TimeToLine),
			optionalSeconds(s.Reload),
			fmt.Sprintf("%d/%d", s.HitCount(), len(s.Seq)),
		}
		if err := cw.Write(row); err != nil {
			return 0, fmt.Errorf("failed to write summary csv: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("failed to flush summary csv: %w", err)
	}
	return len(latest), nil
}

// LatestPerShooter keeps the most recently started session of each shooter,
// preserving the order in which shooters first appear.
func LatestPerShooter(sessions []model.SessionSnapshot) []model.SessionSnapshot {
	order := lo.Uniq(lo.Map(sessions, func(s model.SessionSnapshot, _ int) string { return s.Shooter }))
	latest := make(map[string]model.SessionSnapshot, len(order))
	for _, s := range sessions {
		prev, ok := latest[s.Shooter]
		if !ok || s.StartedAt.After(prev.StartedAt) {
			latest[s.Shooter] = s
		}
	}
	return lo.Map(order, func(name string, _ int) model.SessionSnapshot { return latest[name] })
}

// FileName returns the export file name for a shooter's session.
func FileName(shooter string) string {
	name := strings.TrimSpace(shooter)
	if name == "" {
		name = "shooter"
	}
	return "result_" + whitespaceRun.ReplaceAllString(name, "_") + ".csv"
}

// SummaryFileName returns the combined export file name for a date.
func SummaryFileName(date time.Time) string {
	return "summary_results_" + date.Format("2006-01-02") + ".csv"
}

func drillName(cfg model.DrillConfig) string {
	if cfg.Mode == model.ModeCustom && cfg.Meta != nil && cfg.Meta.DrillName != "" {
		return cfg.Meta.DrillName
	}
	return drill.ModeName(cfg.Mode)
}

func optionalSeconds(d *time.Duration) string {
	if d == nil {
		return ""
	}
	return run.FormatSeconds(*d)
}

func formatDistance(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
