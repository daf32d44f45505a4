package stats

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/verte-zerg/shotdrill/internal/model"
)

// Series represents a named data series for a curve.
type Series struct {
	Name   string
	Values []float64
}

const (
	minCurveWidth       = 10
	curveSeparator      = " | "
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
)

var colorPalette = []string{
	"\x1b[36m",
	"\x1b[35m",
	"\x1b[33m",
}

// RenderCurves prints total time and hit rate curves per shooter, smoothed
// with a moving average and sized to totalWidth (0 selects the terminal width).
func RenderCurves(w io.Writer, sessions []model.SessionAggregate, window, totalWidth int, useColor bool) error {
	if len(sessions) == 0 {
		return nil
	}
	if totalWidth <= 0 {
		totalWidth = terminalWidth()
	}
	if _, err := fmt.Fprintln(w, "Learning Curves"); err != nil {
		return err
	}
	names, groups := GroupByShooter(sessions)
	for _, name := range names {
		group := groups[name]
		times := make([]float64, len(group))
		rates := make([]float64, len(group))
		for i, s := range group {
			rate, _ := SessionMetrics(s)
			times[i] = s.Total.Seconds()
			rates[i] = rate * 100
		}
		series := []Series{
			{Name: "Total time (s)", Values: MovingAverage(times, window)},
			{Name: "Hit rate (%)", Values: MovingAverage(rates, window)},
		}
		if _, err := fmt.Fprintln(w, name); err != nil {
			return err
		}
		if err := writeCurves(w, series, totalWidth, shouldUseColor(w, useColor)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func writeCurves(w io.Writer, series []Series, totalWidth int, useColor bool) error {
	labelWidth := 0
	for _, s := range series {
		labelWidth = max(labelWidth, runewidth.StringWidth(s.Name))
	}
	width := CurveWidthFor(totalWidth, labelWidth)
	for i, s := range series {
		if len(s.Values) == 0 {
			continue
		}
		line := Sparkline(resampleSeries(s.Values, width))
		if useColor {
			line = colorPalette[i%len(colorPalette)] + line + colorReset
		}
		last := s.Values[len(s.Values)-1]
		if _, err := fmt.Fprintf(w, "  %s%s%s latest=%.2f\n", runewidth.FillRight(s.Name, labelWidth), curveSeparator, line, last); err != nil {
			return err
		}
	}
	return nil
}

// CurveWidthFor computes a sparkline width that fits within the total width.
func CurveWidthFor(totalWidth, labelWidth int) int {
	if totalWidth <= 0 {
		return minCurveWidth
	}
	// Indent, label, separator and the trailing "latest=" value.
	reserved := 2 + labelWidth + runewidth.StringWidth(curveSeparator) + len(" latest=000.00")
	return max(totalWidth-reserved, minCurveWidth)
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

// resampleSeries averages series longer than width down to width points.
func resampleSeries(values []float64, width int) []float64 {
	if len(values) == 0 || width <= 0 {
		return nil
	}
	if len(values) <= width {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, width)
	for i := 0; i < width; i++ {
		start := int(float64(i) * float64(len(values)) / float64(width))
		end := int(float64(i+1) * float64(len(values)) / float64(width))
		if end <= start {
			end = start + 1
		}
		end = min(end, len(values))
		var sum float64
		for _, v := range values[start:end] {
			sum += v
		}
		out[i] = sum / float64(end-start)
	}
	return out
}
