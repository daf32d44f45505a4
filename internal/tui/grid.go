package tui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/shotdrill/internal/model"
)

const gridColumns = 5

type gridCell struct {
	s     string
	width int
}

// buildGridCells renders one cell per target. current is the 1-based shot
// awaiting a result; pass 0 to highlight nothing.
func buildGridCells(hits []model.ShotResult, current int) []gridCell {
	out := make([]gridCell, 0, len(hits))
	for i, h := range hits {
		label := fmt.Sprintf(" %2d ", i+1)
		style := pendingCellStyle
		switch {
		case h == model.ShotHit:
			style = hitCellStyle
		case h == model.ShotMiss:
			style = missCellStyle
		case i == current-1:
			style = currentCellStyle
		}
		out = append(out, gridCell{
			s:     style.Render(label),
			width: runewidth.StringWidth(label),
		})
	}
	return out
}

func renderGridRow(cells []gridCell) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = c.s
	}
	return strings.Join(parts, " ")
}

// wrapGridCells lays cells out at most gridColumns per row, breaking earlier
// when a row would exceed width. width <= 0 disables the width limit.
func wrapGridCells(cells []gridCell, width int) string {
	var rows []string
	line := make([]gridCell, 0, gridColumns)
	lineWidth := 0
	for _, c := range cells {
		extra := c.width
		if len(line) > 0 {
			extra++
		}
		full := len(line) == gridColumns || (width > 0 && lineWidth+extra > width)
		if full && len(line) > 0 {
			rows = append(rows, renderGridRow(line))
			line = line[:0]
			lineWidth = 0
			extra = c.width
		}
		line = append(line, c)
		lineWidth += extra
	}
	if len(line) > 0 {
		rows = append(rows, renderGridRow(line))
	}
	return strings.Join(rows, "\n")
}
