package ui

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-transit/internal/astro"
	"github.com/litescript/ls-transit/internal/orbit"
	"github.com/litescript/ls-transit/internal/planet"
	"github.com/litescript/ls-transit/internal/scale"
	"github.com/litescript/ls-transit/internal/scene"
	"github.com/litescript/ls-transit/internal/state"
)

// LabelMode controls how planet labels are displayed.
type LabelMode int

const (
	LabelNone    LabelMode = iota // No labels
	LabelFocused                  // Only the focused planet
	LabelAll                      // All planets
)

func (l LabelMode) String() string {
	switch l {
	case LabelNone:
		return "off"
	case LabelFocused:
		return "focus"
	default:
		return "all"
	}
}

// Messages emitted by the System view. The root model applies them to the
// session and scene driver.
type (
	// SelectPlanetMsg selects a planet; an empty ID selects the star.
	SelectPlanetMsg struct {
		ID string
	}

	// SceneControlMsg toggles pause, orbit mode, or resets orbits.
	SceneControlMsg struct {
		Action SceneAction
	}

	// AddPlanetMsg appends a planet with the stock values.
	AddPlanetMsg struct{}

	// RemovePlanetMsg deletes a planet.
	RemovePlanetMsg struct {
		ID string
	}

	// EditPlanetMsg applies a partial update to a planet.
	EditPlanetMsg struct {
		ID    string
		Patch state.Patch
	}
)

// SceneAction names a scene control.
type SceneAction int

const (
	ScenePause SceneAction = iota
	SceneMode
	SceneReset
	SceneDidactic
)

// Editable fields, in edit-cursor order.
var editFields = []string{"radius", "period", "distance", "probability"}

// Discrete zoom levels for clean stepping
var zoomLevels = []float64{0.5, 0.75, 1.0, 1.5, 2.0, 3.0, 5.0}

const defaultZoom = 2 // index of 1.0

// SystemModel renders a top-down view of the star and its planets.
type SystemModel struct {
	width    int
	height   int
	frame    scene.Frame
	snapshot state.Snapshot

	// View state
	focusIdx   int // Index in frame bodies (-1 = star)
	zoomLevel  int // Index into zoomLevels
	scaleMode  astro.ScaleMode
	labelMode  LabelMode
	showOrbits bool

	// Edit state
	editing   bool
	editField int
	draft     [4]float64
}

// NewSystemModel creates a new system view model.
func NewSystemModel() SystemModel {
	return SystemModel{
		focusIdx:   -1,
		zoomLevel:  defaultZoom,
		scaleMode:  astro.ScaleLinear,
		labelMode:  LabelFocused,
		showOrbits: true,
	}
}

func (m SystemModel) scale() float64 {
	if m.zoomLevel < 0 || m.zoomLevel >= len(zoomLevels) {
		return 1.0
	}
	return zoomLevels[m.zoomLevel]
}

// SetSize updates the viewport size.
func (m SystemModel) SetSize(width, height int) SystemModel {
	m.width = width
	m.height = height
	return m
}

// UpdateFrame stores the latest scene frame and follows the session selection.
func (m SystemModel) UpdateFrame(f scene.Frame) SystemModel {
	m.frame = f
	if m.editing {
		if m.focusIdx >= len(f.Bodies) {
			m.editing = false
		}
		return m
	}
	m.focusIdx = -1
	for i, b := range f.Bodies {
		if b.Selected {
			m.focusIdx = i
			break
		}
	}
	return m
}

// UpdateData stores the latest session snapshot.
func (m SystemModel) UpdateData(snap state.Snapshot) SystemModel {
	m.snapshot = snap
	return m
}

// Editing reports whether the edit panel has the keyboard.
func (m SystemModel) Editing() bool {
	return m.editing
}

// Update handles input messages.
func (m SystemModel) Update(msg tea.Msg) (SystemModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if m.editing {
		return m.updateEdit(key)
	}

	switch key.String() {
	// Focus navigation
	case "j", "[":
		return m.moveFocus(-1)
	case "k", "]":
		return m.moveFocus(1)

	// Zoom
	case "+", "=":
		if m.zoomLevel < len(zoomLevels)-1 {
			m.zoomLevel++
		}
	case "-":
		if m.zoomLevel > 0 {
			m.zoomLevel--
		}
	case "0":
		m.zoomLevel = defaultZoom

	case "z":
		m.scaleMode = (m.scaleMode + 1) % 3
	case "l":
		m.labelMode = (m.labelMode + 1) % 3
	case "o":
		m.showOrbits = !m.showOrbits

	// Scene controls
	case " ", "p":
		return m, emit(SceneControlMsg{Action: ScenePause})
	case "m":
		return m, emit(SceneControlMsg{Action: SceneMode})
	case "r":
		return m, emit(SceneControlMsg{Action: SceneReset})
	case "D":
		return m, emit(SceneControlMsg{Action: SceneDidactic})

	// Planet editing
	case "n":
		return m, emit(AddPlanetMsg{})
	case "x", "delete":
		if id := m.focusedID(); id != "" {
			return m, emit(RemovePlanetMsg{ID: id})
		}
	case "e", "enter":
		m.startEdit()
	}
	return m, nil
}

func (m SystemModel) moveFocus(step int) (SystemModel, tea.Cmd) {
	n := len(m.frame.Bodies)
	if n == 0 {
		return m, nil
	}
	// Positions -1..n-1 wrap, with -1 the star.
	m.focusIdx = (m.focusIdx+1+step+n+1)%(n+1) - 1
	return m, emit(SelectPlanetMsg{ID: m.focusedID()})
}

func (m SystemModel) focusedID() string {
	if m.focusIdx < 0 || m.focusIdx >= len(m.frame.Bodies) {
		return ""
	}
	return m.frame.Bodies[m.focusIdx].ID
}

func (m SystemModel) focusedPlanet() (planet.Data, bool) {
	id := m.focusedID()
	if id == "" {
		return planet.Data{}, false
	}
	for _, p := range m.snapshot.Planets {
		if p.ID == id {
			return p, true
		}
	}
	return planet.Data{}, false
}

func (m *SystemModel) startEdit() {
	p, ok := m.focusedPlanet()
	if !ok {
		return
	}
	prob := 0.5
	if p.Probability != nil {
		prob = *p.Probability
	}
	m.draft = [4]float64{p.Features.Radius, p.Features.Period, p.Features.Distance, prob}
	m.editField = 0
	m.editing = true
}

func (m SystemModel) updateEdit(key tea.KeyMsg) (SystemModel, tea.Cmd) {
	switch key.String() {
	case "left", "h":
		m.editField = (m.editField + len(editFields) - 1) % len(editFields)
	case "right", "l":
		m.editField = (m.editField + 1) % len(editFields)
	case "up", "k":
		m.nudge(1)
	case "down", "j":
		m.nudge(-1)
	case "esc":
		m.editing = false
	case "enter":
		m.editing = false
		d := m.draft
		return m, emit(EditPlanetMsg{
			ID: m.focusedID(),
			Patch: state.Patch{
				Radius:      &d[0],
				Period:      &d[1],
				Distance:    &d[2],
				Probability: &d[3],
			},
		})
	}
	return m, nil
}

// nudge scales physical fields by 10% and steps probability by 0.05.
func (m *SystemModel) nudge(dir int) {
	i := m.editField
	if editFields[i] == "probability" {
		m.draft[i] = clamp(math.Round((m.draft[i]+0.05*float64(dir))*100)/100, 0, 1)
		return
	}
	if dir > 0 {
		m.draft[i] *= 1.1
	} else {
		m.draft[i] /= 1.1
	}
}

// View renders the system view.
func (m SystemModel) View() string {
	if m.width < 40 || m.height < 10 {
		return "Terminal too small for system view"
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.buildCanvas(), m.renderHUD())
}

// bodyPos tracks a body's screen position for label rendering.
type bodyPos struct {
	x, y      int
	name      string
	isFocused bool
}

func (m SystemModel) projection() astro.ProjectionConfig {
	radii := make([]float64, 0, len(m.frame.Bodies))
	for _, b := range m.frame.Bodies {
		radii = append(radii, b.OrbitRadius*(1+orbit.EllipticalEccentricity))
	}
	return astro.ProjectionConfig{
		Scale:  m.scale(),
		Mode:   m.scaleMode,
		Extent: astro.FitExtent(radii, scale.MinOrbitRadius+1),
	}
}

// buildCanvas renders the system to a coloured character grid.
func (m SystemModel) buildCanvas() string {
	// Reserve space for HUD (3 lines)
	canvasH := m.height - 4
	if canvasH < 5 {
		canvasH = 5
	}
	canvasW := m.width

	grid := make([][]rune, canvasH)
	colors := make([][]string, canvasH)
	for y := range grid {
		grid[y] = []rune(strings.Repeat(" ", canvasW))
		colors[y] = make([]string, canvasW)
	}

	cx := canvasW / 2
	cy := canvasH / 2
	// Terminal cells are about twice as tall as wide.
	displayScale := float64(min(cx, cy*2)) * 0.9
	cfg := m.projection()

	toScreen := func(p astro.ProjectedPoint) (int, int) {
		return cx + int(math.Round(p.X*displayScale)), cy - int(math.Round(p.Y*displayScale*0.5))
	}
	inBounds := func(x, y int) bool {
		return x >= 0 && x < canvasW && y >= 0 && y < canvasH
	}

	ecc := 0.0
	if m.frame.Mode == scene.ModeRealistic.String() {
		ecc = orbit.EllipticalEccentricity
	}

	if m.showOrbits {
		for _, b := range m.frame.Bodies {
			for _, v := range orbit.Path(b.OrbitRadius, ecc, orbitSegments(b.OrbitRadius, cfg, displayScale)) {
				x, y := toScreen(astro.ProjectTopDown(v, cfg))
				if inBounds(x, y) && grid[y][x] == ' ' {
					grid[y][x] = '·'
				}
			}
		}
	}

	var positions []bodyPos
	for i, b := range m.frame.Bodies {
		x, y := toScreen(astro.ProjectTopDown(b.Position, cfg))
		if !inBounds(x, y) {
			continue
		}
		focused := i == m.focusIdx
		grid[y][x] = bodyGlyph(b.PlanetType(), b.Rings, focused)
		colors[y][x] = b.Color
		positions = append(positions, bodyPos{x: x, y: y, name: b.Name, isFocused: focused})
	}

	// Star last so it's always visible
	if inBounds(cx, cy) {
		grid[cy][cx] = '☉'
		if m.frame.StarScale > 1.025 {
			grid[cy][cx] = '✺'
		}
		positions = append(positions, bodyPos{x: cx, y: cy, name: "Host star", isFocused: m.focusIdx == -1})
	}

	m.renderLabels(grid, positions)
	return renderGrid(grid, colors)
}

// orbitSegments picks enough path segments for a ring to look continuous.
func orbitSegments(radius float64, cfg astro.ProjectionConfig, displayScale float64) int {
	r := astro.ScaleRadius(radius, cfg) * cfg.Scale * displayScale
	steps := int(2 * math.Pi * r)
	if steps < orbit.PathSegments {
		steps = orbit.PathSegments
	}
	if steps > 720 {
		steps = 720
	}
	return steps
}

func bodyGlyph(t planet.Type, rings, focused bool) rune {
	if focused {
		return '◆'
	}
	switch t {
	case planet.TypeRocky:
		return '•'
	case planet.TypeSuperEarth:
		return '●'
	case planet.TypeIce:
		return '○'
	default:
		if rings {
			return '⊚'
		}
		return '◉'
	}
}

// renderLabels draws planet labels on the canvas based on label mode.
func (m SystemModel) renderLabels(grid [][]rune, positions []bodyPos) {
	if m.labelMode == LabelNone {
		return
	}
	for _, pos := range positions {
		if m.labelMode == LabelFocused && !pos.isFocused {
			continue
		}
		text := pos.name
		if pos.isFocused {
			text = "◄ " + pos.name
		}
		row := grid[pos.y]
		for i, r := range []rune(text) {
			x := pos.x + 2 + i
			if x >= len(row) {
				break
			}
			if row[x] == ' ' || row[x] == '·' {
				row[x] = r
			}
		}
	}
}

func renderGrid(grid [][]rune, colors [][]string) string {
	var b strings.Builder

	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	starStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	focusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("249"))

	for y, row := range grid {
		for x, ch := range row {
			var style lipgloss.Style
			switch {
			case ch == ' ':
				b.WriteRune(ch)
				continue
			case colors[y][x] != "":
				style = lipgloss.NewStyle().Foreground(lipgloss.Color(colors[y][x]))
			case ch == '·':
				style = dimStyle
			case ch == '☉' || ch == '✺':
				style = starStyle
			case ch == '◆' || ch == '◄':
				style = focusStyle
			default:
				style = labelStyle
			}
			b.WriteString(style.Render(string(ch)))
		}
		if y < len(grid)-1 {
			b.WriteRune('\n')
		}
	}
	return b.String()
}

func (m SystemModel) renderHUD() string {
	var b strings.Builder

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A27"))

	field := func(label, value string) {
		b.WriteString(labelStyle.Render(label + ":"))
		b.WriteString(valueStyle.Render(value))
		b.WriteString("  ")
	}

	if p, ok := m.focusedPlanet(); ok {
		f := p.Features
		b.WriteString(headerStyle.Render("◆ " + p.DisplayName()))
		b.WriteString("  ")
		field("Type", p.Type().Label())
		field("Zone", planet.HabitableZone(f.Distance).String())
		field("Period", astro.FormatPeriod(f.Period))
		field("Radius", fmt.Sprintf("%.2f R⊕", f.Radius))
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(
			scale.ColorForProbability(p.Probability).Hex())).Render(p.StatusLabel()))
	} else {
		b.WriteString(headerStyle.Render("☉ Host star"))
		b.WriteString("  ")
		b.WriteString(dimStyle.Render(fmt.Sprintf("(%d planets)", len(m.frame.Bodies))))
	}
	b.WriteString("\n")

	if m.editing {
		b.WriteString(m.renderEditLine())
		return b.String()
	}

	orbits := "off"
	if m.showOrbits {
		orbits = "on"
	}
	field("Orbits", m.frame.Mode)
	field("Scale", m.scaleMode.String())
	field("Zoom", fmt.Sprintf("%.2gx", m.scale()))
	field("Labels", m.labelMode.String())
	field("Paths", orbits)
	if m.frame.Paused {
		b.WriteString(warnStyle.Render("⏸ paused"))
	}
	return b.String()
}

func (m SystemModel) renderEditLine() string {
	activeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9D4EDD")).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

	parts := []string{activeStyle.Render("EDIT")}
	for i, name := range editFields {
		text := fmt.Sprintf("%s %.3g", name, m.draft[i])
		if i == m.editField {
			parts = append(parts, activeStyle.Render("["+text+"]"))
		} else {
			parts = append(parts, dimStyle.Render(" "+text+" "))
		}
	}
	preview := planet.Classify(m.draft[0], m.draft[2])
	parts = append(parts, dimStyle.Render("→ "+preview.String()))
	return strings.Join(parts, " ")
}

// FocusedID returns the focused planet ID, or "" for the star.
func (m SystemModel) FocusedID() string {
	return m.focusedID()
}

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}
