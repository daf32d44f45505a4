package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/shotdrill/internal/drill"
	"github.com/verte-zerg/shotdrill/internal/model"
	"github.com/verte-zerg/shotdrill/internal/run"
)

var (
	titleStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	mutedStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	timerStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	activeModeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	targetCardStyle  = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder(), true).BorderForeground(lipgloss.Color("#C89A3A"))
	resultsStyle     = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder(), true).BorderForeground(lipgloss.Color("#4A4A4A"))
	hitCellStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#059669")).Bold(true)
	missCellStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#E11D48")).Bold(true)
	pendingCellStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0")).Background(lipgloss.Color("#27272A"))
	currentCellStyle = pendingCellStyle.Underline(true).Foreground(lipgloss.Color("#C89A3A"))
)

// View implements tea.Model.
func (m *Model) View() string {
	st := m.session.State()
	sections := []string{
		titleStyle.Render("Shooting Trainer"),
		m.renderModes(st.Phase),
		m.renderDrillLine(),
	}
	if st.Phase == run.PhaseIdle && m.cfg.Mode == model.ModeCustom {
		sections = append(sections, m.renderTargetList())
	}
	if st.Phase == run.PhaseIdle {
		sections = append(sections, m.nameInput.View())
	} else {
		sections = append(sections, "Shooter: "+st.Shooter)
	}
	sections = append(sections, timerStyle.Render(fmt.Sprintf("%s s", run.FormatSeconds(m.timing.Elapsed))))
	if lines := m.renderTimingLines(st.Phase); lines != "" {
		sections = append(sections, lines)
	}
	if target, ok := st.CurrentTarget(); ok && st.Phase != run.PhaseIdle && st.CurrentShot <= len(st.Config.Seq) {
		sections = append(sections, renderTargetCard(target, st.CurrentShot, len(st.Config.Seq)))
	}
	current := 0
	if st.CanShoot() || st.Phase == run.PhaseReloading {
		current = st.CurrentShot
	}
	sections = append(sections, wrapGridCells(buildGridCells(st.Hits, current), m.contentWidth()))
	if m.snapshot != nil {
		sections = append(sections, renderResults(*m.snapshot))
	}
	if m.errMsg != "" {
		sections = append(sections, errorStyle.Render(m.errMsg))
	} else if m.status != "" {
		sections = append(sections, mutedStyle.Render(m.status))
	}
	sections = append(sections, m.renderFooter(st.Phase))
	return strings.Join(sections, "\n")
}

func (m *Model) contentWidth() int {
	if m.width <= 0 {
		return 0
	}
	return max(1, m.width-2)
}

func (m *Model) renderModes(phase run.Phase) string {
	modes := []struct {
		key  string
		mode model.Mode
		name string
	}{
		{"1", model.ModeLevel, fmt.Sprintf("%s (%d)", drill.ModeName(model.ModeLevel), len(drill.PresetLevel().Seq))},
		{"2", model.ModeShort, fmt.Sprintf("%s (%d)", drill.ModeName(model.ModeShort), len(drill.PresetShort().Seq))},
		{"3", model.ModeCustom, drill.ModeName(model.ModeCustom)},
	}
	parts := make([]string, 0, len(modes))
	for _, md := range modes {
		label := fmt.Sprintf("[%s] %s", md.key, md.name)
		switch {
		case md.mode == m.cfg.Mode:
			parts = append(parts, activeModeStyle.Render(label))
		case phase != run.PhaseIdle:
			parts = append(parts, footerStyle.Render(label))
		default:
			parts = append(parts, mutedStyle.Render(label))
		}
	}
	return strings.Join(parts, "  ")
}

func (m *Model) renderDrillLine() string {
	name := drill.ModeName(m.cfg.Mode)
	if m.cfg.Meta != nil && m.cfg.Meta.DrillName != "" {
		name = m.cfg.Meta.DrillName
	}
	segments := []string{name, fmt.Sprintf("%d targets", len(m.cfg.Seq))}
	if m.cfg.ReloadAfter != nil {
		segments = append(segments, fmt.Sprintf("reload after shot %d", *m.cfg.ReloadAfter))
	} else {
		segments = append(segments, "no reload")
	}
	if m.cfg.Meta != nil {
		if m.cfg.Meta.WithVest {
			segments = append(segments, "vest")
		}
		if m.cfg.Meta.WithRun {
			segments = append(segments, "with run")
		}
	}
	return mutedStyle.Render(strings.Join(segments, " · "))
}

func (m *Model) renderTargetList() string {
	lines := make([]string, 0, len(m.cfg.Seq))
	for i, t := range m.cfg.Seq {
		line := fmt.Sprintf("#%-2d %s", t.Order, describeTarget(t))
		if i == m.selected && !m.editing {
			lines = append(lines, activeModeStyle.Render("> "+line))
			continue
		}
		lines = append(lines, mutedStyle.Render("  "+line))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderTimingLines(phase run.Phase) string {
	var lines []string
	if m.timing.HasTimeToLine {
		lines = append(lines, fmt.Sprintf("Reached line at %s s", run.FormatSeconds(m.timing.TimeToLine)))
	}
	switch {
	case phase == run.PhaseReloading && m.timing.IsReloading:
		lines = append(lines, fmt.Sprintf("Reload: %s s (running)", run.FormatSeconds(m.timing.ReloadRunning)))
	case phase == run.PhaseReloading && !m.timing.HasReload:
		lines = append(lines, "Reload waiting to start (r)")
	case m.timing.HasReload:
		lines = append(lines, fmt.Sprintf("Reload: %s s (final)", run.FormatSeconds(m.timing.ReloadFinal)))
	}
	if len(lines) == 0 {
		return ""
	}
	return mutedStyle.Render(strings.Join(lines, "\n"))
}

func renderTargetCard(t model.Target, shot, total int) string {
	body := fmt.Sprintf("Target %d/%d\n%s", shot, total, describeTarget(t))
	return targetCardStyle.Render(body)
}

func describeTarget(t model.Target) string {
	desc := fmt.Sprintf("%g m  %s  %s", t.Distance, t.Type, t.Stance)
	switch t.EffectiveSize() {
	case model.SizeFull:
	case model.SizeCustom:
		desc += fmt.Sprintf("  %g cm", t.SizeCm)
	default:
		desc += "  " + string(t.EffectiveSize())
	}
	if t.ShotCount() > 1 {
		desc += fmt.Sprintf("  x%d", t.ShotCount())
	}
	return desc
}

func renderResults(snap model.SessionSnapshot) string {
	lines := []string{
		titleStyle.Render("Results"),
		fmt.Sprintf("Shooter: %s", snap.Shooter),
		fmt.Sprintf("Total time: %s s", run.FormatSeconds(snap.Total)),
	}
	if snap.TimeToLine != nil {
		lines = append(lines, fmt.Sprintf("Time to line: %s s", run.FormatSeconds(*snap.TimeToLine)))
	}
	if snap.Reload != nil {
		lines = append(lines, fmt.Sprintf("Reload time: %s s", run.FormatSeconds(*snap.Reload)))
	}
	lines = append(lines, fmt.Sprintf("Hits: %d/%d", snap.HitCount(), len(snap.Seq)))
	for i, t := range snap.Seq {
		result := "-"
		if i < len(snap.Hits) && snap.Hits[i] != model.ShotPending {
			result = snap.Hits[i].String()
		}
		split := ""
		if i < len(snap.Splits) && snap.Splits[i] > 0 {
			split = fmt.Sprintf("  %s s", run.FormatSeconds(snap.Splits[i]))
		}
		lines = append(lines, fmt.Sprintf("#%-2d %-28s %-4s%s", i+1, describeTarget(t), result, split))
	}
	return resultsStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderFooter(phase run.Phase) string {
	var help string
	switch {
	case phase == run.PhaseIdle && m.editing:
		help = "enter: start  tab/esc: drill settings  ctrl+c: quit"
	case phase == run.PhaseIdle && m.cfg.Mode == model.ModeCustom:
		help = "enter: start  1/2/3: mode  a/d: add/remove  j/k: select  t/p: type/stance  </>: distance  +/-: reload  tab: name  q: quit"
	case phase == run.PhaseIdle:
		help = "enter: start  1/2/3: mode  tab: name  q: quit"
	case phase == run.PhaseRunning:
		help = "space: reached line  x: reset  q: quit"
	case phase == run.PhaseReachedLine:
		help = "h: hit  m: miss  x: reset  q: quit"
	case phase == run.PhaseReloading:
		help = "r: start reload  e: end reload  x: reset  q: quit"
	default:
		help = "w: write csv  x: new run  q: quit"
	}
	return footerStyle.Render(help)
}
