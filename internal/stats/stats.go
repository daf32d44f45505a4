// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/verte-zerg/shotdrill/internal/model"
	"github.com/verte-zerg/shotdrill/internal/run"
)

const sparkChars = " .:-=+*#%@"

// SessionMetrics computes the hit rate and seconds spent per target for a session.
func SessionMetrics(s model.SessionAggregate) (hitRate, secPerTarget float64) {
	if s.TargetCount <= 0 {
		return 0, 0
	}
	hitRate = float64(s.HitCount) / float64(s.TargetCount)
	if s.Total > 0 {
		secPerTarget = s.Total.Seconds() / float64(s.TargetCount)
	}
	return hitRate, secPerTarget
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 || len(values) == 0 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		den := float64(i + 1)
		if i >= window {
			sum -= values[i-window]
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := lo.Min(values), lo.Max(values)
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// GroupByShooter splits sessions per shooter, keeping first-appearance order.
func GroupByShooter(sessions []model.SessionAggregate) ([]string, map[string][]model.SessionAggregate) {
	names := lo.Uniq(lo.Map(sessions, func(s model.SessionAggregate, _ int) string { return s.Shooter }))
	return names, lo.GroupBy(sessions, func(s model.SessionAggregate) string { return s.Shooter })
}

// RenderSummary prints one summary row per shooter.
func RenderSummary(w io.Writer, sessions []model.SessionAggregate) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	names, groups := GroupByShooter(sessions)
	headers := []string{"Shooter", "Sessions", "Avg Time", "Best Time", "Hit Rate", "Time to Line", "Reload"}
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		group := groups[name]
		totals := lo.Map(group, func(s model.SessionAggregate, _ int) float64 { return s.Total.Seconds() })
		hits := lo.SumBy(group, func(s model.SessionAggregate) int { return s.HitCount })
		targets := lo.SumBy(group, func(s model.SessionAggregate) int { return s.TargetCount })
		rate := 0.0
		if targets > 0 {
			rate = float64(hits) / float64(targets)
		}
		rows = append(rows, []string{
			name,
			fmt.Sprintf("%d", len(group)),
			fmt.Sprintf("%.2f", lo.Sum(totals)/float64(len(totals))),
			fmt.Sprintf("%.2f", lo.Min(totals)),
			fmt.Sprintf("%.1f%%", rate*100),
			optionalAverage(lo.FilterMap(group, func(s model.SessionAggregate, _ int) (time.Duration, bool) {
				if s.TimeToLine == nil {
					return 0, false
				}
				return *s.TimeToLine, true
			})),
			optionalAverage(lo.FilterMap(group, func(s model.SessionAggregate, _ int) (time.Duration, bool) {
				if s.Reload == nil {
					return 0, false
				}
				return *s.Reload, true
			})),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true, 6: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderSessions prints one row per session, oldest first.
func RenderSessions(w io.Writer, sessions []model.SessionAggregate) error {
	if len(sessions) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Sessions"); err != nil {
		return err
	}
	headers := []string{"ID", "Started", "Shooter", "Drill", "Time", "Hits", "Time to Line", "Reload"}
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, []string{
			fmt.Sprintf("%d", s.SessionID),
			s.StartedAt.Local().Format("2006-01-02 15:04"),
			s.Shooter,
			s.DrillName,
			run.FormatSeconds(s.Total),
			fmt.Sprintf("%d/%d", s.HitCount, s.TargetCount),
			optionalSeconds(s.TimeToLine),
			optionalSeconds(s.Reload),
		})
	}
	rightAlign := map[int]bool{0: true, 4: true, 5: true, 6: true, 7: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderStageTable prints per-stage aggregates, weakest first.
func RenderStageTable(w io.Writer, aggs []model.StageAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No stage stats found.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Per-Stage (Windowed)"); err != nil {
		return err
	}
	headers := []string{"Stage", "Hit Rate", "Avg Split (s)", "Hits", "Misses"}
	rows := make([][]string, 0, len(aggs))
	for _, agg := range sortByHitRate(aggs) {
		rows = append(rows, []string{
			StageLabel(agg),
			fmt.Sprintf("%.1f%%", stageHitRate(agg)*100),
			fmt.Sprintf("%.2f", stageSplit(agg)),
			fmt.Sprintf("%d", agg.Hits),
			fmt.Sprintf("%d", agg.Misses),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// StageLabel names a stage by distance, target type and stance.
func StageLabel(agg model.StageAggregate) string {
	return fmt.Sprintf("%gm %s %s", agg.Distance, agg.Type, agg.Stance)
}

func optionalSeconds(d *time.Duration) string {
	if d == nil {
		return "-"
	}
	return run.FormatSeconds(*d)
}

func optionalAverage(values []time.Duration) string {
	if len(values) == 0 {
		return "-"
	}
	return run.FormatSeconds(lo.Sum(values) / time.Duration(len(values)))
}
