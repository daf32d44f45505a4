package stats

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/verte-zerg/shotdrill/internal/model"
)

func durationPtr(d time.Duration) *time.Duration {
	return &d
}

func TestSessionMetrics(t *testing.T) {
	rate, perTarget := SessionMetrics(model.SessionAggregate{TargetCount: 4, HitCount: 3, Total: 10 * time.Second})
	if rate != 0.75 || perTarget != 2.5 {
		t.Fatalf("unexpected metrics: rate %v per target %v", rate, perTarget)
	}
	rate, perTarget = SessionMetrics(model.SessionAggregate{})
	if rate != 0 || perTarget != 0 {
		t.Fatalf("expected zero metrics, got %v %v", rate, perTarget)
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("moving average mismatch (-want +got):\n%s", diff)
	}
	same := MovingAverage([]float64{1, 5}, 1)
	if diff := cmp.Diff([]float64{1, 5}, same); diff != "" {
		t.Fatalf("window 1 should copy (-want +got):\n%s", diff)
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 9}); got != " @" {
		t.Fatalf("unexpected sparkline: %q", got)
	}
	if got := Sparkline([]float64{3, 3, 3}); got != "+++" {
		t.Fatalf("unexpected flat sparkline: %q", got)
	}
	if got := Sparkline(nil); got != "" {
		t.Fatalf("expected empty sparkline, got %q", got)
	}
}

func TestResampleSeries(t *testing.T) {
	got := resampleSeries([]float64{1, 3, 5, 7}, 2)
	if diff := cmp.Diff([]float64{2, 6}, got); diff != "" {
		t.Fatalf("resample mismatch (-want +got):\n%s", diff)
	}
	short := resampleSeries([]float64{1, 2}, 10)
	if len(short) != 2 {
		t.Fatalf("short series should be kept, got %v", short)
	}
}

func TestCurveWidthFor(t *testing.T) {
	if got := CurveWidthFor(0, 5); got != minCurveWidth {
		t.Fatalf("expected min width, got %d", got)
	}
	got := CurveWidthFor(80, 14)
	if got <= minCurveWidth || got >= 80-14 {
		t.Fatalf("unexpected curve width %d", got)
	}
}

func TestRenderSummaryPerShooter(t *testing.T) {
	sessions := []model.SessionAggregate{
		{SessionID: 1, Shooter: "Ann", TargetCount: 3, HitCount: 3, Total: 9 * time.Second, TimeToLine: durationPtr(3 * time.Second)},
		{SessionID: 2, Shooter: "Bob", TargetCount: 3, HitCount: 0, Total: 20 * time.Second},
		{SessionID: 3, Shooter: "Ann", TargetCount: 3, HitCount: 0, Total: 11 * time.Second, Reload: durationPtr(1500 * time.Millisecond)},
	}
	var buf bytes.Buffer
	if err := RenderSummary(&buf, sessions); err != nil {
		t.Fatalf("render summary: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected title, header, rule and 2 rows, got %d:\n%s", len(lines), buf.String())
	}
	ann := strings.Fields(lines[3])
	if diff := cmp.Diff([]string{"Ann", "2", "10.00", "9.00", "50.0%", "3.00", "1.50"}, ann); diff != "" {
		t.Fatalf("Ann row mismatch (-want +got):\n%s", diff)
	}
	bob := strings.Fields(lines[4])
	if diff := cmp.Diff([]string{"Bob", "1", "20.00", "20.00", "0.0%", "-", "-"}, bob); diff != "" {
		t.Fatalf("Bob row mismatch (-want +got):\n%s", diff)
	}
}

func TestWeakStages(t *testing.T) {
	aggs := []model.StageAggregate{
		{Type: model.TargetChest, Stance: model.StanceStanding, Distance: 50, Hits: 9, Misses: 1},
		{Type: model.TargetHalfHead, Stance: model.StanceStanding, Distance: 75, Hits: 1, Misses: 3},
		{Type: model.TargetFullBody, Stance: model.StanceKneeling, Distance: 100, Hits: 2, Misses: 2},
	}
	weak := WeakStages(aggs, 2)
	if len(weak) != 2 {
		t.Fatalf("expected 2 stages, got %d", len(weak))
	}
	if weak[0].Type != model.TargetHalfHead || weak[1].Type != model.TargetFullBody {
		t.Fatalf("unexpected order: %+v", weak)
	}
	if aggs[0].Type != model.TargetChest {
		t.Fatalf("input should not be reordered")
	}
	if got := StageLabel(aggs[1]); got != "75m half-head standing" {
		t.Fatalf("unexpected label: %s", got)
	}
	if split := stageSplit(model.StageAggregate{SplitSum: 3 * time.Second, SplitCnt: 2}); math.Abs(split-1.5) > 1e-9 {
		t.Fatalf("unexpected split: %v", split)
	}
}

func TestRenderCurvesPerShooter(t *testing.T) {
	sessions := []model.SessionAggregate{
		{Shooter: "Ann", TargetCount: 2, HitCount: 1, Total: 9 * time.Second},
		{Shooter: "Ann", TargetCount: 2, HitCount: 2, Total: 8 * time.Second},
		{Shooter: "Bob", TargetCount: 2, HitCount: 0, Total: 12 * time.Second},
	}
	var buf bytes.Buffer
	if err := RenderCurves(&buf, sessions, 1, 60, false); err != nil {
		t.Fatalf("render curves: %v", err)
	}
	out := buf.String()
	if strings.Count(out, "Total time (s)") != 2 || strings.Count(out, "Hit rate (%)") != 2 {
		t.Fatalf("expected curves per shooter:\n%s", out)
	}
	if !strings.Contains(out, "latest=8.00") {
		t.Fatalf("expected latest Ann time:\n%s", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("unexpected color codes:\n%s", out)
	}
}
