package stats

import (
	"context"
	"fmt"
	"io"

	"github.com/samber/lo"

	"github.com/verte-zerg/shotdrill/internal/model"
	"github.com/verte-zerg/shotdrill/internal/store"
)

// Options controls report selection and rendering.
type Options struct {
	Filter      model.SessionFilter
	CurveWindow int
	WeakTop     int
	Width       int
	Color       bool
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Sessions         []model.SessionAggregate
	WindowSessionIDs []int64
	StagesAll        []model.StageAggregate
	StagesWindow     []model.StageAggregate
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, st *store.Store, opts Options) (Report, error) {
	sessions, err := st.ListSessions(ctx, opts.Filter)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list sessions: %w", err)
	}

	allIDs := sessionIDs(sessions)
	windowIDs := lastSessionIDs(sessions, opts.CurveWindow)
	stagesAll, err := st.ListStageAggregates(ctx, allIDs)
	if err != nil {
		return Report{}, fmt.Errorf("failed to aggregate stages: %w", err)
	}
	stagesWindow, err := st.ListStageAggregates(ctx, windowIDs)
	if err != nil {
		return Report{}, fmt.Errorf("failed to aggregate stages: %w", err)
	}

	return Report{
		Sessions:         sessions,
		WindowSessionIDs: windowIDs,
		StagesAll:        stagesAll,
		StagesWindow:     stagesWindow,
	}, nil
}

// Render writes the full text report.
func (r Report) Render(w io.Writer, opts Options) error {
	if err := RenderSummary(w, r.Sessions); err != nil {
		return err
	}
	if len(r.Sessions) == 0 {
		return nil
	}
	if err := RenderSessions(w, r.Sessions); err != nil {
		return err
	}
	if err := RenderCurves(w, r.Sessions, opts.CurveWindow, opts.Width, opts.Color); err != nil {
		return err
	}
	if err := RenderStageTable(w, r.StagesWindow); err != nil {
		return err
	}
	weak := WeakStages(r.StagesAll, opts.WeakTop)
	if len(weak) == 0 {
		return nil
	}
	labels := lo.Map(weak, func(agg model.StageAggregate, _ int) string { return StageLabel(agg) })
	if _, err := fmt.Fprintln(w, "Weakest stages (all sessions)"); err != nil {
		return err
	}
	for _, label := range labels {
		if _, err := fmt.Fprintf(w, "  %s\n", label); err != nil {
			return err
		}
	}
	return nil
}

func sessionIDs(sessions []model.SessionAggregate) []int64 {
	return lo.Map(sessions, func(s model.SessionAggregate, _ int) int64 { return s.SessionID })
}

func lastSessionIDs(sessions []model.SessionAggregate, window int) []int64 {
	if window <= 0 || len(sessions) <= window {
		return sessionIDs(sessions)
	}
	return sessionIDs(sessions[len(sessions)-window:])
}
