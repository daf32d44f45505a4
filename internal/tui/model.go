// Package tui provides the Bubble Tea drill run interface.
package tui

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/shotdrill/internal/drill"
	"github.com/verte-zerg/shotdrill/internal/export"
	"github.com/verte-zerg/shotdrill/internal/model"
	"github.com/verte-zerg/shotdrill/internal/run"
)

const (
	defaultRefresh = 50 * time.Millisecond
	distanceStep   = 5.0
	minDistance    = 5.0
)

// Recorder persists finished sessions.
type Recorder interface {
	InsertSession(ctx context.Context, snap model.SessionSnapshot) (int64, error)
}

// Options configures the run screen.
type Options struct {
	Shooter   string
	ExportDir string
	// Refresh is the timer redraw interval.
	Refresh time.Duration
	// Clock defaults to time.Now.
	Clock run.Clock
}

type tickMsg time.Time

// Model implements the Bubble Tea run screen.
type Model struct {
	session  *run.Session
	recorder Recorder
	opts     Options

	cfg       model.DrillConfig
	nameInput textinput.Model
	editing   bool
	// selected is the custom target under the edit cursor.
	selected int

	timing   run.Timing
	snapshot *model.SessionSnapshot
	savedID  int64
	status   string
	errMsg   string

	width  int
	height int
}

// NewModel constructs a run screen for cfg. recorder may be nil.
func NewModel(cfg model.DrillConfig, recorder Recorder, opts Options) *Model {
	if opts.Refresh <= 0 {
		opts.Refresh = defaultRefresh
	}
	input := textinput.New()
	input.Prompt = "Shooter: "
	input.Placeholder = "Enter shooter name"
	input.CharLimit = 64
	input.SetValue(opts.Shooter)
	input.Focus()

	m := &Model{
		session:   run.NewSession(opts.Clock),
		recorder:  recorder,
		opts:      opts,
		nameInput: input,
		editing:   true,
	}
	m.applyConfig(cfg)
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.tick())
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.nameInput.Width = max(10, msg.Width/2)
		return m, nil
	case tickMsg:
		m.timing = m.session.Timing()
		return m, m.tick()
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.editing {
			return m.updateNameInput(msg)
		}
		cmd := m.handleKey(msg.String())
		m.timing = m.session.Timing()
		return m, cmd
	}
	if m.editing {
		var cmd tea.Cmd
		m.nameInput, cmd = m.nameInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.opts.Refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) updateNameInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.start()
		m.timing = m.session.Timing()
		return m, nil
	case tea.KeyEsc, tea.KeyTab:
		m.editing = false
		m.nameInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(key string) tea.Cmd {
	phase := m.session.State().Phase
	switch key {
	case "q":
		return tea.Quit
	case "tab":
		if phase == run.PhaseIdle {
			m.editing = true
			return m.nameInput.Focus()
		}
	case "enter", "s":
		m.start()
	case " ":
		m.session.MarkReachedLine()
	case "h", "m":
		m.session.ConfirmShot(key == "h")
		if m.session.State().Phase == run.PhaseFinished && m.snapshot == nil {
			m.finish()
		}
	case "r":
		m.session.StartReload()
	case "e":
		m.session.EndReload()
	case "x":
		m.session.Reset()
		m.snapshot = nil
		m.savedID = 0
		m.status = ""
		m.errMsg = ""
		m.editing = true
		return m.nameInput.Focus()
	case "w":
		m.writeCSV()
	case "1":
		m.editConfig(drill.SetMode(m.cfg, model.ModeLevel), false)
	case "2":
		m.editConfig(drill.SetMode(m.cfg, model.ModeShort), false)
	case "3":
		m.editConfig(drill.SetMode(m.cfg, model.ModeCustom), false)
	case "a":
		m.editConfig(drill.AddTarget(m.cfg), true)
	case "d":
		m.editConfig(drill.RemoveLastTarget(m.cfg), true)
	case "+", "=":
		m.editConfig(stepReload(m.cfg, 1), true)
	case "-":
		m.editConfig(stepReload(m.cfg, -1), true)
	case "j", "down":
		m.moveSelection(1)
	case "k", "up":
		m.moveSelection(-1)
	case "t":
		m.patchSelected(func(t model.Target) drill.TargetPatch {
			next := nextTargetType(t.Type)
			return drill.TargetPatch{Type: &next}
		})
	case "p":
		m.patchSelected(func(t model.Target) drill.TargetPatch {
			next := nextStance(t.Stance)
			return drill.TargetPatch{Stance: &next}
		})
	case "<", ",":
		m.patchSelected(func(t model.Target) drill.TargetPatch {
			next := max(minDistance, t.Distance-distanceStep)
			return drill.TargetPatch{Distance: &next}
		})
	case ">", ".":
		m.patchSelected(func(t model.Target) drill.TargetPatch {
			next := t.Distance + distanceStep
			return drill.TargetPatch{Distance: &next}
		})
	}
	return nil
}

func (m *Model) moveSelection(delta int) {
	if m.session.State().Phase != run.PhaseIdle || m.cfg.Mode != model.ModeCustom {
		return
	}
	m.selected = min(max(m.selected+delta, 0), len(m.cfg.Seq)-1)
}

// patchSelected edits the target under the cursor in custom mode.
func (m *Model) patchSelected(patch func(model.Target) drill.TargetPatch) {
	if m.selected < 0 || m.selected >= len(m.cfg.Seq) {
		return
	}
	m.editConfig(drill.UpdateTarget(m.cfg, m.selected, patch(m.cfg.Seq[m.selected])), true)
}

func (m *Model) start() {
	if m.session.State().Phase != run.PhaseIdle {
		return
	}
	name := strings.TrimSpace(m.nameInput.Value())
	if name == "" {
		m.errMsg = "Enter a shooter name to start."
		return
	}
	if err := drill.ValidateConfig(m.cfg); err != nil {
		m.errMsg = err.Error()
		return
	}
	st := m.session.Start(name)
	if st.Phase != run.PhaseRunning {
		return
	}
	m.editing = false
	m.nameInput.Blur()
	m.snapshot = nil
	m.savedID = 0
	m.status = ""
	m.errMsg = ""
}

func (m *Model) finish() {
	snap, err := m.session.Snapshot()
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.snapshot = &snap
	if m.recorder == nil {
		return
	}
	id, err := m.recorder.InsertSession(context.Background(), snap)
	if err != nil {
		logErrf("failed to save session: %v\n", err)
		m.errMsg = "Failed to save session."
		return
	}
	m.savedID = id
	m.status = fmt.Sprintf("Saved session #%d.", id)
}

func (m *Model) writeCSV() {
	if m.snapshot == nil {
		m.status = "Finish a run before exporting."
		return
	}
	path, err := export.WriteSessionFile(m.opts.ExportDir, *m.snapshot)
	if err != nil {
		logErrf("failed to export session: %v\n", err)
		m.errMsg = err.Error()
		return
	}
	m.status = "Wrote " + path
}

// editConfig installs cfg while idle. customOnly edits are ignored outside custom mode.
func (m *Model) editConfig(cfg model.DrillConfig, customOnly bool) {
	if m.session.State().Phase != run.PhaseIdle {
		return
	}
	if customOnly && m.cfg.Mode != model.ModeCustom {
		return
	}
	m.applyConfig(cfg)
}

func (m *Model) applyConfig(cfg model.DrillConfig) {
	cfg = drill.ClampReload(cfg)
	if m.session.SetConfig(cfg) {
		m.cfg = cfg
		m.selected = min(max(m.selected, 0), max(len(cfg.Seq)-1, 0))
	}
}

func nextTargetType(t model.TargetType) model.TargetType {
	switch t {
	case model.TargetChest:
		return model.TargetHalfHead
	case model.TargetHalfHead:
		return model.TargetFullBody
	default:
		return model.TargetChest
	}
}

func nextStance(s model.Stance) model.Stance {
	if s == model.StanceStanding {
		return model.StanceKneeling
	}
	return model.StanceStanding
}

// stepReload moves the reload point by delta, clearing it when it leaves
// 1..len(seq)-1. Stepping down from no reload wraps to the last valid shot.
func stepReload(cfg model.DrillConfig, delta int) model.DrillConfig {
	cur := 0
	if cfg.ReloadAfter != nil {
		cur = *cfg.ReloadAfter
	}
	next := cur + delta
	if cur == 0 && delta < 0 {
		next = len(cfg.Seq) - 1
	}
	if next < 1 || next >= len(cfg.Seq) {
		return drill.SetReloadAfter(cfg, "")
	}
	return drill.SetReloadAfter(cfg, strconv.Itoa(next))
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
