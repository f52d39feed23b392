package ui

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-transit/internal/planet"
	"github.com/litescript/ls-transit/internal/state"
	"github.com/litescript/ls-transit/internal/transit"
)

// Messages emitted by the Transit view.
type (
	// TransitParamsMsg asks the root model to validate and apply new inputs.
	TransitParamsMsg struct {
		Options transit.Options
	}

	// SamplerControlMsg plays/pauses or resets the live sampler.
	SamplerControlMsg struct {
		Reset bool
	}

	// ExportCurveMsg asks for the live window to be written as CSV.
	ExportCurveMsg struct{}
)

// paramField is one adjustable simulator input.
type paramField struct {
	name   string
	format string
	get    func(transit.Options) float64
	set    func(*transit.Options, float64)
	step   func(v float64, dir int) float64
}

// scaleStep steps by 10%. Going up from zero lands on minStep.
func scaleStep(minStep float64) func(float64, int) float64 {
	return func(v float64, dir int) float64 {
		if dir > 0 {
			return max(v*1.1, minStep)
		}
		return v / 1.1
	}
}

func addStep(delta, lo, hi float64) func(float64, int) float64 {
	return func(v float64, dir int) float64 {
		return clamp(math.Round((v+delta*float64(dir))/delta)*delta, lo, hi)
	}
}

var paramFields = []paramField{
	{
		name:   "Rp/Rs",
		format: "%.4f",
		get:    func(o transit.Options) float64 { return o.PlanetRadius },
		set:    func(o *transit.Options, v float64) { o.PlanetRadius = v },
		step:   scaleStep(0.001),
	},
	{
		name:   "Period",
		format: "%.3f d",
		get:    func(o transit.Options) float64 { return o.OrbitalPeriod },
		set:    func(o *transit.Options, v float64) { o.OrbitalPeriod = v },
		step:   scaleStep(0.01),
	},
	{
		name:   "Incl",
		format: "%.1f°",
		get:    func(o transit.Options) float64 { return o.InclinationDeg },
		set:    func(o *transit.Options, v float64) { o.InclinationDeg = v },
		step:   addStep(0.1, 0, 90),
	},
	{
		name:   "Limb u",
		format: "%.2f",
		get:    func(o transit.Options) float64 { return o.LimbDarkening },
		set:    func(o *transit.Options, v float64) { o.LimbDarkening = v },
		step:   addStep(0.05, 0, 1),
	},
	{
		name:   "σ star",
		format: "%.4f",
		get:    func(o transit.Options) float64 { return o.StellarNoise },
		set:    func(o *transit.Options, v float64) { o.StellarNoise = v },
		step:   addStep(0.0005, 0, 0.05),
	},
	{
		name:   "σ inst",
		format: "%.4f",
		get:    func(o transit.Options) float64 { return o.InstrumentalNoise },
		set:    func(o *transit.Options, v float64) { o.InstrumentalNoise = v },
		step:   addStep(0.0005, 0, 0.05),
	},
}

// TransitModel shows the live light curve, the theoretical curve and the
// derived statistics.
type TransitModel struct {
	width  int
	height int

	params  transit.Params
	stats   transit.Stats
	theory  []transit.Sample
	samples []transit.Sample
	running bool
	simTime float64

	field    int
	selected planet.Data
	hasPick  bool
}

// NewTransitModel creates a transit view for p.
func NewTransitModel(p transit.Params, theory []transit.Sample) TransitModel {
	m := TransitModel{running: true}
	return m.SetParams(p, theory)
}

// SetSize updates the viewport size.
func (m TransitModel) SetSize(width, height int) TransitModel {
	m.width = width
	m.height = height
	return m
}

// SetParams stores new parameters with their precomputed theoretical curve.
func (m TransitModel) SetParams(p transit.Params, theory []transit.Sample) TransitModel {
	m.params = p
	m.stats = transit.Summarize(p)
	m.theory = theory
	return m
}

// UpdateSamples stores the sampler window.
func (m TransitModel) UpdateSamples(samples []transit.Sample, running bool, simTime float64) TransitModel {
	m.samples = samples
	m.running = running
	m.simTime = simTime
	return m
}

// UpdateData tracks the selected planet for the "from planet" action.
func (m TransitModel) UpdateData(snap state.Snapshot) TransitModel {
	m.selected, m.hasPick = snap.SelectedPlanet()
	return m
}

// Update handles input messages.
func (m TransitModel) Update(msg tea.Msg) (TransitModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case " ", "p":
		return m, emit(SamplerControlMsg{})
	case "r":
		return m, emit(SamplerControlMsg{Reset: true})
	case "s":
		return m, emit(ExportCurveMsg{})
	case "left", "h":
		m.field = (m.field + len(paramFields) - 1) % len(paramFields)
	case "right", "l":
		m.field = (m.field + 1) % len(paramFields)
	case "up", "k":
		return m, m.adjust(1)
	case "down", "j":
		return m, m.adjust(-1)
	case "f":
		if m.hasPick {
			o := m.params.Options()
			o.PlanetRadius = m.selected.Features.Radius / transit.EarthRadiiPerSolarRadius
			o.OrbitalPeriod = m.selected.Features.Period
			return m, emit(TransitParamsMsg{Options: o})
		}
	case "0":
		return m, emit(TransitParamsMsg{Options: transit.DefaultOptions()})
	}
	return m, nil
}

func (m TransitModel) adjust(dir int) tea.Cmd {
	f := paramFields[m.field]
	o := m.params.Options()
	f.set(&o, f.step(f.get(o), dir))
	return emit(TransitParamsMsg{Options: o})
}

// Params returns the parameters the view is showing.
func (m TransitModel) Params() transit.Params {
	return m.params
}

// View renders the transit view.
func (m TransitModel) View() string {
	if m.width < 40 || m.height < 12 {
		return "Terminal too small for transit view"
	}

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	plotW := m.width - 4
	if plotW > 120 {
		plotW = 120
	}
	lo, hi := m.fluxRange()

	var b strings.Builder

	status := "▶ live"
	if !m.running {
		status = "⏸ paused"
	}
	b.WriteString(headerStyle.Render("Live light curve"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %s  t=%.2f d  %d samples", status, m.simTime, len(m.samples))))
	b.WriteString("\n  ")
	if live := m.liveValues(plotW); len(live) > 0 {
		b.WriteString(renderSparkline(live, lo, hi))
	} else {
		b.WriteString(dimStyle.Render("waiting for samples..."))
	}
	b.WriteString("\n\n")

	rows := m.height - 12
	if rows > 10 {
		rows = 10
	}
	if rows < 3 {
		rows = 3
	}
	window := m.phaseWindow()
	b.WriteString(headerStyle.Render("Theoretical transit"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  phase 0.5 ± %.3f", window)))
	b.WriteString("\n")
	axisStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	curveStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	for i, row := range plotRows(resample(m.theoryValues(window), plotW), rows, lo, hi) {
		label := "      "
		switch i {
		case 0:
			label = fmt.Sprintf("%.4f", hi)
		case rows - 1:
			label = fmt.Sprintf("%.4f", lo)
		}
		b.WriteString(axisStyle.Render(label) + " " + curveStyle.Render(row) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(m.renderStats())
	b.WriteString("\n")
	b.WriteString(m.renderControls())
	return b.String()
}

// liveValues returns the most recent width fluxes.
func (m TransitModel) liveValues(width int) []float64 {
	s := m.samples
	if len(s) > width {
		s = s[len(s)-width:]
	}
	out := make([]float64, len(s))
	for i, smp := range s {
		out[i] = smp.Flux
	}
	return out
}

// phaseWindow is the half-width of the plotted phase range: twice the
// transit duration, bounded to [0.02, 0.5].
func (m TransitModel) phaseWindow() float64 {
	d := m.stats.DurationHours
	if math.IsNaN(d) || m.params.OrbitalPeriod <= 0 {
		return 0.1
	}
	return clamp(2*d/(m.params.OrbitalPeriod*24), 0.02, 0.5)
}

func (m TransitModel) theoryValues(window float64) []float64 {
	var out []float64
	for _, s := range m.theory {
		if math.Abs(s.Phase-0.5) <= window {
			out = append(out, s.Flux)
		}
	}
	return out
}

// fluxRange returns the plot bounds covering both curves plus noise headroom.
func (m TransitModel) fluxRange() (float64, float64) {
	lo := transit.MinFlux(m.theory)
	hi := 1.0
	for _, s := range m.samples {
		lo = math.Min(lo, s.Flux)
		hi = math.Max(hi, s.Flux)
	}
	pad := math.Max((hi-lo)*0.05, 1e-4)
	return lo - pad, hi + pad
}

func (m TransitModel) renderStats() string {
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))

	na := func(v float64, format string) string {
		if math.IsNaN(v) {
			return "n/a"
		}
		return fmt.Sprintf(format, v)
	}
	items := []struct{ label, value string }{
		{"Depth", fmt.Sprintf("%.4f%% (%.0f ppm)", m.stats.DepthPercent, transit.DepthPPM(m.params))},
		{"Duration", na(m.stats.DurationHours, "%.2f h")},
		{"SNR", na(m.stats.SNR, "%.1f")},
		{"b", fmt.Sprintf("%.3f", m.stats.ImpactParameter)},
		{"a/Rs", fmt.Sprintf("%.1f", m.stats.SemiMajorAxis)},
	}
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = labelStyle.Render(it.label+": ") + valueStyle.Render(it.value)
	}
	return strings.Join(parts, "  ")
}

func (m TransitModel) renderControls() string {
	activeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9D4EDD")).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

	o := m.params.Options()
	parts := make([]string, len(paramFields))
	for i, f := range paramFields {
		text := f.name + " " + fmt.Sprintf(f.format, f.get(o))
		if i == m.field {
			parts[i] = activeStyle.Render("[" + text + "]")
		} else {
			parts[i] = dimStyle.Render(" " + text + " ")
		}
	}
	return strings.Join(parts, " ")
}
