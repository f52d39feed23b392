package ui

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/golang/geo/r3"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/litescript/ls-transit/internal/planet"
	"github.com/litescript/ls-transit/internal/scale"
	"github.com/litescript/ls-transit/internal/scene"
	"github.com/litescript/ls-transit/internal/state"
	"github.com/litescript/ls-transit/internal/texture"
	"github.com/litescript/ls-transit/internal/transit"
)

// Layer selects what the planet preview shows.
type Layer int

const (
	LayerSurface Layer = iota
	LayerClouds
	LayerNormal
)

func (l Layer) String() string {
	switch l {
	case LayerClouds:
		return "surface+clouds"
	case LayerNormal:
		return "normal map"
	default:
		return "surface"
	}
}

// ringTilt flattens the ring plane into an ellipse.
const ringTilt = 0.3

// lightDir is the preview's key light, upper left and toward the viewer.
var lightDir = r3.Vector{X: -0.5, Y: 0.5, Z: 0.7}.Normalize()

// PlanetModel previews the selected planet's synthesized surface on a
// rotating sphere next to its details.
type PlanetModel struct {
	width  int
	height int

	textures *texture.Cache
	texOpts  texture.Options

	planet  planet.Data
	has     bool
	surface *texture.Surface
	clouds  []uint8
	normals []uint8

	spin       float64
	cloudSpin  float64
	layer      Layer
	showDetail bool
}

// NewPlanetModel creates a planet view drawing surfaces from cache.
func NewPlanetModel(cache *texture.Cache, opts texture.Options) PlanetModel {
	return PlanetModel{
		textures:   cache,
		texOpts:    opts,
		layer:      LayerClouds,
		showDetail: true,
	}
}

// SetSize updates the viewport size.
func (m PlanetModel) SetSize(width, height int) PlanetModel {
	m.width = width
	m.height = height
	return m
}

// UpdateData picks the selected planet, or the first one when nothing is
// selected, and refreshes its surface when the archetype or radius changed.
func (m PlanetModel) UpdateData(snap state.Snapshot) PlanetModel {
	p, ok := snap.SelectedPlanet()
	if !ok && len(snap.Planets) > 0 {
		p, ok = snap.Planets[0], true
	}
	if !ok {
		m.has = false
		m.surface = nil
		return m
	}

	changed := !m.has || p.ID != m.planet.ID || p.Type() != m.planet.Type() ||
		p.Features.Radius != m.planet.Features.Radius
	m.planet, m.has = p, true
	if changed || m.surface == nil {
		m.loadSurface()
	}
	return m
}

func (m *PlanetModel) loadSurface() {
	typ := m.planet.Type()
	opts := m.texOpts
	opts.Radius = m.planet.Features.Radius
	m.surface = m.textures.Get(typ, texture.DefaultBaseColor(typ), opts)
	m.clouds = texture.Clouds(m.surface.Width, m.surface.Height, float64(typ))
	m.normals = nil
	if m.layer == LayerNormal {
		m.normals = texture.NormalMap(m.surface, texture.DefaultNormalStrength)
	}
}

// UpdateFrame picks up the planet's spin from the scene frame.
func (m PlanetModel) UpdateFrame(f scene.Frame) PlanetModel {
	for _, b := range f.Bodies {
		if b.ID == m.planet.ID {
			m.spin = b.Spin
			m.cloudSpin = b.AtmosphereSpin
			return m
		}
	}
	m.spin = math.Mod(f.Clock*scene.SpinRate, 2*math.Pi)
	m.cloudSpin = math.Mod(f.Clock*scene.AtmosphereRate, 2*math.Pi)
	return m
}

// Update handles input messages.
func (m PlanetModel) Update(msg tea.Msg) (PlanetModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "v":
		m.layer = (m.layer + 1) % 3
		if m.layer == LayerNormal && m.surface != nil && m.normals == nil {
			m.normals = texture.NormalMap(m.surface, texture.DefaultNormalStrength)
		}
	case "i":
		m.showDetail = !m.showDetail
	}
	return m, nil
}

// View renders the planet view.
func (m PlanetModel) View() string {
	if m.width < 40 || m.height < 10 {
		return "Terminal too small for planet view"
	}
	if !m.has || m.surface == nil {
		dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
		return dimStyle.Render("  No planets. Press [1] then n to add one.")
	}

	previewW := m.width
	if m.showDetail {
		previewW = m.width * 3 / 5
	}
	preview := m.renderSphere(previewW, m.height-1)
	if !m.showDetail {
		return preview
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, preview, "  ", m.renderDetails())
}

// renderSphere draws the planet with half-block cells: each character holds
// two vertically stacked pixels.
func (m PlanetModel) renderSphere(cols, rows int) string {
	pxH := rows * 2
	cx, cy := float64(cols)/2, float64(pxH)/2
	maxR := math.Min(cx, cy) * 0.95
	if m.surface.Rings != nil {
		maxR /= m.surface.Rings.Outer
	}
	// DisplayRadius spans 0.5..2; scale it into the available room.
	radius := maxR * planet.DisplayRadius(m.planet.Features.Radius) / 2

	var b strings.Builder
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			top, topOK := m.pixel(float64(col)+0.5, float64(row*2)+0.5, cx, cy, radius)
			bot, botOK := m.pixel(float64(col)+0.5, float64(row*2)+1.5, cx, cy, radius)
			switch {
			case topOK && botOK:
				b.WriteString(lipgloss.NewStyle().
					Foreground(lipgloss.Color(top.Hex())).
					Background(lipgloss.Color(bot.Hex())).
					Render("▀"))
			case topOK:
				b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(top.Hex())).Render("▀"))
			case botOK:
				b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(bot.Hex())).Render("▄"))
			default:
				b.WriteByte(' ')
			}
		}
		if row < rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// pixel returns the colour at screen pixel (x, y), or false for empty space.
func (m PlanetModel) pixel(x, y, cx, cy, radius float64) (colorful.Color, bool) {
	nx := (x - cx) / radius
	ny := (y - cy) / radius
	d2 := nx*nx + ny*ny

	ring, inRing := colorful.Color{}, false
	if m.surface.Rings != nil {
		ring, inRing = m.surface.Rings.BandAt(math.Hypot(nx, ny/ringTilt))
	}

	if d2 > 1 {
		return ring, inRing
	}
	// The near half of the ring passes in front of the lower hemisphere.
	if inRing && ny > 0 {
		return ring, true
	}

	n := r3.Vector{X: nx, Y: -ny, Z: math.Sqrt(1 - d2)}
	lat := math.Asin(n.Y)
	lon := math.Atan2(n.X, n.Z)
	u := wrap01((lon + m.spin) / (2 * math.Pi))
	v := 0.5 - lat/math.Pi

	sx := int(u*float64(m.surface.Width)) % m.surface.Width
	sy := int(clamp(v, 0, 0.9999) * float64(m.surface.Height))

	var c colorful.Color
	if m.layer == LayerNormal && m.normals != nil {
		i := (sy*m.surface.Width + sx) * 3
		c = colorful.Color{
			R: float64(m.normals[i]) / 255,
			G: float64(m.normals[i+1]) / 255,
			B: float64(m.normals[i+2]) / 255,
		}
		return c, true
	}

	c = m.surface.Pixel(sx, sy)
	if m.layer == LayerClouds {
		cu := wrap01((lon + m.cloudSpin) / (2 * math.Pi))
		cxp := int(cu*float64(m.surface.Width)) % m.surface.Width
		alpha := float64(m.clouds[sy*m.surface.Width+cxp]) / 255
		c = c.BlendRgb(colorful.Color{R: 1, G: 1, B: 1}, alpha)
	}

	shade := 0.25 + 0.75*math.Max(0, n.Dot(lightDir))
	if planet.HasAtmosphere(m.planet.Features.Radius) {
		// Thin limb glow
		rim := math.Pow(1-n.Z, 3)
		c = c.BlendRgb(colorful.Color{R: 0.55, G: 0.75, B: 1}, rim*0.6)
	}
	return colorful.Color{R: c.R * shade, G: c.G * shade, B: c.B * shade}.Clamped(), true
}

func wrap01(x float64) float64 {
	x -= math.Floor(x)
	if x >= 1 {
		return 0
	}
	return x
}

func (m PlanetModel) renderDetails() string {
	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Width(14)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	p := m.planet
	f := p.Features
	var b strings.Builder
	line := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(valueStyle.Render(value))
		b.WriteString("\n")
	}
	optional := func(v *float64, format string) string {
		if v == nil {
			return "-"
		}
		return fmt.Sprintf(format, *v)
	}
	yesNo := func(v bool) string {
		if v {
			return "yes"
		}
		return "no"
	}

	b.WriteString(headerStyle.Render(p.DisplayName()))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(p.Type().Label()))
	b.WriteString("\n\n")

	line("Radius", fmt.Sprintf("%.2f R⊕", f.Radius))
	line("Period", fmt.Sprintf("%.2f d", f.Period))
	line("Distance", fmt.Sprintf("%.3f", f.Distance))
	line("Zone", planet.HabitableZone(f.Distance).String())
	line("Atmosphere", yesNo(planet.HasAtmosphere(f.Radius)))
	line("Rings", yesNo(planet.HasRings(f.Radius)))
	line("Depth (Sun)", fmt.Sprintf("%.4f%%", transit.DidacticDepthPercent(f.Radius)))
	b.WriteString("\n")

	tier := scale.ColorForProbability(p.Probability)
	status := lipgloss.NewStyle().Foreground(lipgloss.Color(tier.Hex())).Bold(true)
	line("Status", status.Render(p.StatusLabel()))
	line("Probability", optional(p.Probability, "%.2f"))
	line("Depth", optional(f.Depth, "%.0f ppm"))
	line("Duration", optional(f.Duration, "%.2f h"))
	line("SNR", optional(f.SNR, "%.1f"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Layer: " + m.layer.String()))
	return b.String()
}
