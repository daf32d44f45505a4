// Package historyui provides the Bubble Tea browser for stored sessions.
package historyui

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/shotdrill/internal/export"
	"github.com/verte-zerg/shotdrill/internal/model"
	"github.com/verte-zerg/shotdrill/internal/run"
	"github.com/verte-zerg/shotdrill/internal/stats"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	hitStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	missStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F43F5E")).Bold(true)
	tableStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Source is the session storage the browser reads from.
type Source interface {
	ListSessions(ctx context.Context, filter model.SessionFilter) ([]model.SessionAggregate, error)
	GetSession(ctx context.Context, id int64) (model.SessionSnapshot, error)
}

// Model implements the Bubble Tea history UI.
type Model struct {
	source    Source
	filter    model.SessionFilter
	exportDir string

	sessions []model.SessionAggregate
	table    table.Model
	detail   viewport.Model
	selected *model.SessionSnapshot

	showDetail bool
	errMsg     string
	status     string

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string

	width  int
	height int
}

// NewModel constructs a history browser.
func NewModel(source Source, filter model.SessionFilter, exportDir string) *Model {
	m := &Model{
		source:    source,
		filter:    filter,
		exportDir: exportDir,
		detail:    viewport.New(0, 0),
	}
	m.table = table.New(
		table.WithColumns(sessionColumns()),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	m.table.SetStyles(tableStyles())
	m.initInputs()
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		if msg.String() == "q" {
			return m, tea.Quit
		}
		if m.showDetail {
			return m.updateDetail(msg)
		}
		switch msg.String() {
		case "enter":
			m.openSelected()
			return m, nil
		case "/":
			m.filterMode = true
			m.filterError = ""
			m.setInputsFromFilter()
			return m, m.setFilterIndex(0)
		case "r":
			m.refresh()
			return m, nil
		case "w":
			m.exportSelected()
			return m, nil
		case "g", "home":
			m.table.GotoTop()
			return m, nil
		case "G", "end":
			m.table.GotoBottom()
			return m, nil
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace":
		m.showDetail = false
		m.status = ""
		return m, nil
	case "w":
		m.exportSelected()
		return m, nil
	}
	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	headerHeight = 2
	footerHeight = 1
	if !m.filterMode && (m.errMsg != "" || m.status != "") {
		footerHeight++
	}
	bodyHeight = max(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.table.SetWidth(m.width)
	m.table.SetHeight(max(1, bodyHeight-1))
	m.detail.Width = m.width
	m.detail.Height = bodyHeight
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = max(10, m.width-promptWidth-2)
	}
}

func (m *Model) refresh() {
	sessions, err := m.source.ListSessions(context.Background(), m.filter)
	if err != nil {
		m.errMsg = fmt.Sprintf("failed to load sessions: %v", err)
		m.sessions = nil
		m.table.SetRows(nil)
		return
	}
	m.errMsg = ""
	// Newest first.
	m.sessions = make([]model.SessionAggregate, len(sessions))
	for i, s := range sessions {
		m.sessions[len(sessions)-1-i] = s
	}
	m.table.SetRows(sessionRows(m.sessions))
	m.table.GotoTop()
}

func (m *Model) selectedSession() (model.SessionAggregate, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.sessions) {
		return model.SessionAggregate{}, false
	}
	return m.sessions[idx], true
}

func (m *Model) openSelected() {
	agg, ok := m.selectedSession()
	if !ok {
		return
	}
	snap, err := m.source.GetSession(context.Background(), agg.SessionID)
	if err != nil {
		m.errMsg = fmt.Sprintf("failed to load session %d: %v", agg.SessionID, err)
		return
	}
	m.errMsg = ""
	m.selected = &snap
	m.detail.SetContent(renderDetail(agg.SessionID, snap))
	m.detail.GotoTop()
	m.showDetail = true
}

func (m *Model) exportSelected() {
	if !m.showDetail {
		m.openSelected()
		m.showDetail = false
	}
	if m.selected == nil {
		return
	}
	path, err := export.WriteSessionFile(m.exportDir, *m.selected)
	if err != nil {
		logErrf("failed to export session: %v\n", err)
		m.errMsg = err.Error()
		return
	}
	m.status = "Wrote " + path
}

func (m *Model) renderHeader() string {
	title := titleStyle.Render(fmt.Sprintf("Session history (%d)", len(m.sessions)))
	return title + "\n" + m.renderFilterSummary()
}

func (m *Model) renderFilterSummary() string {
	shooters := "any"
	if len(m.filter.Shooters) > 0 {
		shooters = strings.Join(m.filter.Shooters, ",")
	}
	since := "any"
	if m.filter.Since != nil {
		since = m.filter.Since.Format("2006-01-02")
	}
	last := "all"
	if m.filter.Last > 0 {
		last = strconv.Itoa(m.filter.Last)
	}
	summary := fmt.Sprintf("Filter: shooter=%s  since=%s  last=%s", shooters, since, last)
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderBody() string {
	if m.filterMode {
		return m.renderFilterForm()
	}
	if m.showDetail {
		return m.detail.View()
	}
	if len(m.sessions) == 0 {
		return "No sessions found."
	}
	return tableStyle.Render(m.table.View())
}

func (m *Model) renderFooter() string {
	var help string
	switch {
	case m.filterMode:
		help = "tab/shift+tab: next field  enter: apply  esc: cancel"
	case m.showDetail:
		help = "Scroll: up/down/pgup/pgdn  Export: w  Back: esc  Quit: q"
	default:
		help = "Move: up/down  Open: enter  Export: w  Filter: /  Reload: r  Quit: q"
	}
	out := headerStyle.Render(help)
	if m.filterMode {
		return out
	}
	if m.errMsg != "" {
		return out + "\n" + errorStyle.Render(m.errMsg)
	}
	if m.status != "" {
		return out + "\n" + headerStyle.Render(m.status)
	}
	return out
}

func sessionColumns() []table.Column {
	return []table.Column{
		{Title: "ID", Width: 5},
		{Title: "Started", Width: 16},
		{Title: "Shooter", Width: 16},
		{Title: "Drill", Width: 16},
		{Title: "Time", Width: 8},
		{Title: "Hits", Width: 6},
		{Title: "To Line", Width: 8},
		{Title: "Reload", Width: 7},
	}
}

func sessionRows(sessions []model.SessionAggregate) []table.Row {
	rows := make([]table.Row, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, table.Row{
			strconv.FormatInt(s.SessionID, 10),
			s.StartedAt.Local().Format("2006-01-02 15:04"),
			s.Shooter,
			s.DrillName,
			run.FormatSeconds(s.Total),
			fmt.Sprintf("%d/%d", s.HitCount, s.TargetCount),
			optionalSeconds(s.TimeToLine),
			optionalSeconds(s.Reload),
		})
	}
	return rows
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func renderDetail(id int64, snap model.SessionSnapshot) string {
	drillName := ""
	if snap.Config.Meta != nil {
		drillName = snap.Config.Meta.DrillName
	}
	lines := []string{
		titleStyle.Render(fmt.Sprintf("Session #%d", id)),
		fmt.Sprintf("Shooter:      %s", snap.Shooter),
		fmt.Sprintf("Started:      %s", snap.StartedAt.Local().Format("2006-01-02 15:04:05")),
		fmt.Sprintf("Drill:        %s (%s)", drillName, snap.Config.Mode),
		fmt.Sprintf("Total time:   %s s", run.FormatSeconds(snap.Total)),
		fmt.Sprintf("Time to line: %s", optionalDuration(snap.TimeToLine)),
		fmt.Sprintf("Reload time:  %s", optionalDuration(snap.Reload)),
		fmt.Sprintf("Hits:         %d/%d", snap.HitCount(), len(snap.Seq)),
		"",
	}
	rate, perTarget := stats.SessionMetrics(model.SessionAggregate{
		TargetCount: len(snap.Seq),
		HitCount:    snap.HitCount(),
		Total:       snap.Total,
	})
	lines = append(lines, headerStyle.Render(fmt.Sprintf("Hit rate %.1f%%  ·  %.2f s per target", rate*100, perTarget)), "")
	for i, t := range snap.Seq {
		result := "-"
		if i < len(snap.Hits) {
			switch snap.Hits[i] {
			case model.ShotHit:
				result = hitStyle.Render("HIT")
			case model.ShotMiss:
				result = missStyle.Render("MISS")
			}
		}
		split := ""
		if i < len(snap.Splits) && snap.Splits[i] > 0 {
			split = run.FormatSeconds(snap.Splits[i]) + " s"
		}
		target := fmt.Sprintf("%gm %s %s", t.Distance, t.Type, t.Stance)
		lines = append(lines, fmt.Sprintf("#%-2d %s %s %s", i+1, runewidth.FillRight(target, 26), runewidth.FillRight(split, 9), result))
	}
	return strings.Join(lines, "\n")
}

func optionalSeconds(d *time.Duration) string {
	if d == nil {
		return "-"
	}
	return run.FormatSeconds(*d)
}

func optionalDuration(d *time.Duration) string {
	if d == nil {
		return "-"
	}
	return run.FormatSeconds(*d) + " s"
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Shooters (comma separated): "),
		newFilterInput("Since (YYYY-MM-DD): "),
		newFilterInput("Last: "),
	}
	m.setInputsFromFilter()
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromFilter() {
	m.filterInputs[0].SetValue(strings.Join(m.filter.Shooters, ","))
	if m.filter.Since != nil {
		m.filterInputs[1].SetValue(m.filter.Since.Format("2006-01-02"))
	} else {
		m.filterInputs[1].SetValue("")
	}
	if m.filter.Last > 0 {
		m.filterInputs[2].SetValue(strconv.Itoa(m.filter.Last))
	} else {
		m.filterInputs[2].SetValue("")
	}
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Filter (enter to apply, esc to cancel)"}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		filter, err := parseFilter(m.filterInputs[0].Value(), m.filterInputs[1].Value(), m.filterInputs[2].Value())
		if err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		filter.Mode = m.filter.Mode
		m.filter = filter
		m.filterMode = false
		m.filterError = ""
		m.refresh()
		m.updateLayout()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.filterIndex = idx
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

// parseFilter builds a session filter from the filter form fields.
func parseFilter(shootersInput, sinceInput, lastInput string) (model.SessionFilter, error) {
	var filter model.SessionFilter
	for _, part := range strings.Split(shootersInput, ",") {
		if name := strings.TrimSpace(part); name != "" {
			filter.Shooters = append(filter.Shooters, name)
		}
	}
	if s := strings.TrimSpace(sinceInput); s != "" {
		parsed, err := time.ParseInLocation("2006-01-02", s, time.Local)
		if err != nil {
			return model.SessionFilter{}, fmt.Errorf("invalid since date (expected YYYY-MM-DD)")
		}
		filter.Since = &parsed
	}
	if s := strings.TrimSpace(lastInput); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed < 0 {
			return model.SessionFilter{}, fmt.Errorf("invalid last value (use 0 or positive integer)")
		}
		filter.Last = parsed
	}
	return filter, nil
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
