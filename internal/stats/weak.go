package stats

import (
	"sort"

	"github.com/verte-zerg/shotdrill/internal/model"
)

// WeakStages selects the lowest hit-rate stages from aggregates.
func WeakStages(aggs []model.StageAggregate, top int) []model.StageAggregate {
	if len(aggs) == 0 {
		return nil
	}
	candidates := sortByHitRate(aggs)
	if top <= 0 || top > len(candidates) {
		top = len(candidates)
	}
	return candidates[:top]
}

func sortByHitRate(aggs []model.StageAggregate) []model.StageAggregate {
	candidates := make([]model.StageAggregate, len(aggs))
	copy(candidates, aggs)
	sort.SliceStable(candidates, func(i, j int) bool {
		ai := stageHitRate(candidates[i])
		aj := stageHitRate(candidates[j])
		if ai == aj {
			return StageLabel(candidates[i]) < StageLabel(candidates[j])
		}
		return ai < aj
	})
	return candidates
}

func stageHitRate(agg model.StageAggregate) float64 {
	total := agg.Hits + agg.Misses
	if total == 0 {
		return 1.0
	}
	return float64(agg.Hits) / float64(total)
}

func stageSplit(agg model.StageAggregate) float64 {
	if agg.SplitCnt == 0 {
		return 0
	}
	return agg.SplitSum.Seconds() / float64(agg.SplitCnt)
}
