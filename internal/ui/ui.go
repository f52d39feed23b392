// Package ui provides the terminal user interface using Bubble Tea.
package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/litescript/ls-transit/internal/analysis"
	"github.com/litescript/ls-transit/internal/logging"
	"github.com/litescript/ls-transit/internal/scene"
	"github.com/litescript/ls-transit/internal/state"
	"github.com/litescript/ls-transit/internal/texture"
	"github.com/litescript/ls-transit/internal/transit"
	"github.com/litescript/ls-transit/internal/version"
)

// ViewMode represents the current UI view.
type ViewMode int

const (
	ViewSystem ViewMode = iota
	ViewTransit
	ViewPlanet
)

const viewCount = 3

// maxAnimStep caps dt so a stalled terminal doesn't make planets jump.
const maxAnimStep = 250 * time.Millisecond

// Msg types for Bubble Tea
type (
	// TickMsg triggers periodic session refreshes.
	TickMsg time.Time

	// AnimTickMsg advances the scene and the sampler.
	AnimTickMsg time.Time

	// AnalysisDoneMsg carries the result of an analysis call.
	AnalysisDoneMsg struct {
		Result analysis.Result
	}

	// ExportDoneMsg reports a finished CSV export.
	ExportDoneMsg struct {
		Path string
		Err  error
	}
)

// Config wires the model to its collaborators. Session, Driver, Sampler and
// Textures are required; Analyzer may be nil.
type Config struct {
	Session  *state.Session
	Driver   *scene.Driver
	Sampler  *transit.Sampler
	Textures *texture.Cache
	Analyzer *analysis.Client
	Logger   *logging.Logger

	DaysPerTick float64 // simulated days per animation tick
	CurvePoints int
	Texture     texture.Options
	AnalyzePath string // CSV sent to the analyzer on A
	ExportDir   string
}

// Model is the root Bubble Tea model.
type Model struct {
	// Dependencies
	session  *state.Session
	driver   *scene.Driver
	sampler  *transit.Sampler
	analyzer *analysis.Client
	log      *logging.Logger

	daysPerTick float64
	curvePoints int
	analyzePath string
	exportDir   string

	// UI state
	viewMode  ViewMode
	width     int
	height    int
	ready     bool
	statusMsg string
	animTick  int
	lastAnim  time.Time
	analyzing bool

	// Sub-models
	system     SystemModel
	transit    TransitModel
	planetView PlanetModel

	snapshot state.Snapshot
	frame    scene.Frame
}

// New creates a new root UI model.
func New(cfg Config) Model {
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.DaysPerTick <= 0 {
		cfg.DaysPerTick = 0.01
	}
	if cfg.CurvePoints < 2 {
		cfg.CurvePoints = transit.CurvePoints
	}
	if cfg.ExportDir == "" {
		cfg.ExportDir = "."
	}

	params := cfg.Sampler.Params()
	m := Model{
		session:     cfg.Session,
		driver:      cfg.Driver,
		sampler:     cfg.Sampler,
		analyzer:    cfg.Analyzer,
		log:         cfg.Logger,
		daysPerTick: cfg.DaysPerTick,
		curvePoints: cfg.CurvePoints,
		analyzePath: cfg.AnalyzePath,
		exportDir:   cfg.ExportDir,
		viewMode:    ViewSystem,
		system:      NewSystemModel(),
		transit:     NewTransitModel(params, transit.TheoreticalCurve(params, cfg.CurvePoints)),
		planetView:  NewPlanetModel(cfg.Textures, cfg.Texture),
	}
	m.refresh()
	m.frame = m.driver.Frame()
	m.system = m.system.UpdateFrame(m.frame)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		animTickCmd(),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// The edit panel owns every key but quit.
		if m.viewMode == ViewSystem && m.system.Editing() && msg.String() != "ctrl+c" {
			cmds = append(cmds, m.updateActiveView(msg))
			break
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "1":
			m.viewMode = ViewSystem
		case "2":
			m.viewMode = ViewTransit
		case "3":
			m.viewMode = ViewPlanet
		case "tab":
			m.viewMode = (m.viewMode + 1) % viewCount

		case "A":
			cmds = append(cmds, m.startAnalysis())

		default:
			cmds = append(cmds, m.updateActiveView(msg))
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		// Header ~6 lines, footer ~2 lines
		contentHeight := msg.Height - 9
		m.system = m.system.SetSize(msg.Width, contentHeight)
		m.transit = m.transit.SetSize(msg.Width, contentHeight)
		m.planetView = m.planetView.SetSize(msg.Width, contentHeight)

	case TickMsg:
		cmds = append(cmds, tickCmd())
		m.refresh()

	case AnimTickMsg:
		cmds = append(cmds, animTickCmd())
		m.animate(time.Time(msg))

	case SelectPlanetMsg:
		if err := m.session.Select(msg.ID); err != nil {
			m.statusMsg = err.Error()
		}
		m.refresh()
		m.syncFrame()

	case SceneControlMsg:
		m.applySceneControl(msg.Action)
		m.refresh()
		m.syncFrame()

	case AddPlanetMsg:
		p := m.session.AddDefault()
		m.statusMsg = fmt.Sprintf("Added %s", p.DisplayName())
		m.refresh()
		m.syncFrame()

	case RemovePlanetMsg:
		if err := m.session.Remove(msg.ID); err != nil {
			m.statusMsg = err.Error()
		} else {
			m.statusMsg = "Planet removed"
		}
		m.refresh()
		m.syncFrame()

	case EditPlanetMsg:
		if p, err := m.session.Update(msg.ID, msg.Patch); err != nil {
			m.statusMsg = "Edit rejected: " + err.Error()
		} else {
			m.statusMsg = fmt.Sprintf("Updated %s (%s)", p.DisplayName(), p.Type())
		}
		m.refresh()
		m.syncFrame()

	case TransitParamsMsg:
		p, err := transit.NewParams(msg.Options)
		if err != nil {
			m.statusMsg = err.Error()
			break
		}
		m.sampler.SetParams(p)
		m.transit = m.transit.SetParams(p, transit.TheoreticalCurve(p, m.curvePoints))

	case SamplerControlMsg:
		if msg.Reset {
			m.sampler.Reset()
		} else {
			m.sampler.Toggle()
		}
		m.transit = m.transit.UpdateSamples(m.sampler.Samples(), m.sampler.Running(), m.sampler.Time())

	case ExportCurveMsg:
		cmds = append(cmds, m.exportCurve())

	case ExportDoneMsg:
		if msg.Err != nil {
			m.statusMsg = "Export failed: " + msg.Err.Error()
			m.log.Warn("curve export to %s failed: %v", msg.Path, msg.Err)
		} else {
			m.statusMsg = "Wrote " + msg.Path
		}

	case AnalysisDoneMsg:
		m.analyzing = false
		r := msg.Result
		if r.Error != nil {
			m.session.RecordAnalysis(nil, r.Duration, r.Error)
			m.statusMsg = "Analysis failed: " + r.Error.Error()
		} else {
			m.session.RecordAnalysis(r.Response.Planets, r.Duration, nil)
			m.statusMsg = fmt.Sprintf("Analysis returned %d candidates", len(r.Response.Planets))
			if r.Skipped > 0 {
				m.statusMsg += fmt.Sprintf(" (%d invalid skipped)", r.Skipped)
			}
		}
		m.refresh()
		m.syncFrame()

	default:
		cmds = append(cmds, m.updateActiveView(msg))
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) updateActiveView(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.viewMode {
	case ViewSystem:
		m.system, cmd = m.system.Update(msg)
	case ViewTransit:
		m.transit, cmd = m.transit.Update(msg)
	case ViewPlanet:
		m.planetView, cmd = m.planetView.Update(msg)
	}
	return cmd
}

// refresh pulls a fresh session snapshot into every view.
func (m *Model) refresh() {
	m.snapshot = m.session.Snapshot()
	m.system = m.system.UpdateData(m.snapshot)
	m.transit = m.transit.UpdateData(m.snapshot)
	m.planetView = m.planetView.UpdateData(m.snapshot)
}

// syncFrame rebuilds the current frame without advancing time.
func (m *Model) syncFrame() {
	m.frame = m.driver.Frame()
	m.system = m.system.UpdateFrame(m.frame)
	m.planetView = m.planetView.UpdateFrame(m.frame)
}

func (m *Model) animate(now time.Time) {
	m.animTick++
	dt := time.Duration(0)
	if !m.lastAnim.IsZero() {
		dt = now.Sub(m.lastAnim)
	}
	m.lastAnim = now
	if dt > maxAnimStep {
		dt = maxAnimStep
	}

	m.frame = m.driver.Advance(dt.Seconds())
	m.system = m.system.UpdateFrame(m.frame)
	m.planetView = m.planetView.UpdateFrame(m.frame)

	if _, ok := m.sampler.Tick(m.daysPerTick); ok || m.viewMode == ViewTransit {
		m.transit = m.transit.UpdateSamples(m.sampler.Samples(), m.sampler.Running(), m.sampler.Time())
	}
}

func (m *Model) applySceneControl(a SceneAction) {
	switch a {
	case ScenePause:
		if m.driver.TogglePause() {
			m.statusMsg = "Orbits paused"
		} else {
			m.statusMsg = "Orbits running"
		}
	case SceneMode:
		m.statusMsg = "Orbit mode: " + m.driver.ToggleMode().String()
	case SceneReset:
		m.driver.ResetOrbits()
		m.statusMsg = "Orbits reset"
	case SceneDidactic:
		m.session.ResetDidactic()
		m.statusMsg = "Restored teaching planets"
	}
}

func (m *Model) startAnalysis() tea.Cmd {
	switch {
	case m.analyzer == nil:
		m.statusMsg = "No analysis endpoint configured"
		return nil
	case m.analyzePath == "":
		m.statusMsg = "No CSV file given (--csv)"
		return nil
	case m.analyzing:
		return nil
	}
	m.analyzing = true
	m.log.Info("analyzing %s via %s", m.analyzePath, m.analyzer.Endpoint())
	m.statusMsg = "Analyzing " + filepath.Base(m.analyzePath) + "..."

	client, path := m.analyzer, m.analyzePath
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return AnalysisDoneMsg{Result: analysis.Result{RequestedAt: time.Now(), Error: err}}
		}
		defer f.Close()
		return AnalysisDoneMsg{Result: client.AnalyzeCSV(context.Background(), f, nil)}
	}
}

func (m *Model) exportCurve() tea.Cmd {
	samples := m.sampler.Samples()
	path := filepath.Join(m.exportDir, fmt.Sprintf("transit-%s.csv", time.Now().Format("20060102-150405")))
	return func() tea.Msg {
		f, err := os.Create(path)
		if err != nil {
			return ExportDoneMsg{Path: path, Err: err}
		}
		if err := transit.WriteCSV(f, samples); err != nil {
			f.Close()
			return ExportDoneMsg{Path: path, Err: err}
		}
		return ExportDoneMsg{Path: path, Err: f.Close()}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var content string
	switch m.viewMode {
	case ViewSystem:
		content = m.system.View()
	case ViewTransit:
		content = m.transit.View()
	case ViewPlanet:
		content = m.planetView.View()
	}

	return m.renderHeader() + "\n" + content + "\n" + m.renderFooter()
}

func (m Model) renderHeader() string {
	return m.renderLogo() + m.renderTabs() + "\n"
}

// logoStops run blue → purple → magenta → pink across the title.
var logoStops = []string{"#3B82F6", "#8B5CF6", "#D946EF", "#EC4899"}

func (m Model) renderLogo() string {
	title := "◐ L S - T R A N S I T"

	var b strings.Builder
	b.WriteString("\n  ")
	runes := []rune(title)
	for i, r := range runes {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(gradientColor(i, len(runes)))).Bold(true)
		b.WriteString(style.Render(string(r)))
	}
	b.WriteString("\n")

	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	b.WriteString(muted.Render("  Exoplanet transits · procedural worlds"))
	b.WriteString("\n")
	b.WriteString(muted.Render(fmt.Sprintf("  (c) 2025 litescript.net | v%s", version.Version)))
	b.WriteString("\n\n")
	return b.String()
}

// gradientColor returns a hex color for position i of n along logoStops.
func gradientColor(i, n int) string {
	if n <= 1 {
		return logoStops[0]
	}
	t := float64(i) / float64(n-1) * float64(len(logoStops)-1)
	seg := int(t)
	if seg >= len(logoStops)-1 {
		seg = len(logoStops) - 2
	}
	a, _ := colorful.Hex(logoStops[seg])
	b, _ := colorful.Hex(logoStops[seg+1])
	return a.BlendLab(b, t-float64(seg)).Clamped().Hex()
}

func (m Model) renderTabs() string {
	tabs := []string{"[1] System", "[2] Transit", "[3] Planet"}
	activeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9D4EDD")).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))

	var parts []string
	for i, tab := range tabs {
		if ViewMode(i) == m.viewMode {
			parts = append(parts, activeStyle.Render("▶ "+tab))
		} else {
			parts = append(parts, dimStyle.Render("  "+tab))
		}
	}
	return "  " + strings.Join(parts, "  ")
}

func (m Model) renderFooter() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A27"))
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#7B2CBF"))

	spinnerFrames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	spinner := spinnerFrames[m.animTick%len(spinnerFrames)]

	var status string
	switch {
	case m.analyzing:
		status = accentStyle.Render(spinner) + dimStyle.Render(" analyzing")
	case m.snapshot.LastError != nil:
		status = errorStyle.Render("ERROR: " + m.snapshot.LastError.Error())
	case !m.snapshot.LastAnalysis.IsZero():
		status = accentStyle.Render("●") + dimStyle.Render(fmt.Sprintf(" %d planets · analysis %s ago",
			len(m.snapshot.Planets), time.Since(m.snapshot.LastAnalysis).Round(time.Second)))
	default:
		status = accentStyle.Render("●") + dimStyle.Render(fmt.Sprintf(" %d planets", len(m.snapshot.Planets)))
	}

	var help string
	switch m.viewMode {
	case ViewTransit:
		help = "space: play/pause | r: reset | ←/→: param | ↑/↓: adjust | f: from planet | 0: defaults | s: save csv"
	case ViewPlanet:
		help = "v: layer | i: details | tab: switch view"
	default:
		if m.system.Editing() {
			help = "←/→: field | ↑/↓: adjust | enter: save | esc: cancel"
		} else {
			help = "j/k: focus | n: add | x: remove | e: edit | space: pause | m: mode | r: reset | +/-: zoom | z: scale | A: analyze"
		}
	}

	footer := "  " + status + "  " + dimStyle.Render("|") + "  " + dimStyle.Render(help)
	if m.statusMsg != "" {
		footer += "\n  " + dimStyle.Render(m.statusMsg)
	}
	return footer
}

// ActiveView returns the view currently shown.
func (m Model) ActiveView() ViewMode {
	return m.viewMode
}

func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func animTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return AnimTickMsg(t)
	})
}
