package ui

import (
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/litescript/ls-transit/internal/analysis"
	"github.com/litescript/ls-transit/internal/scene"
	"github.com/litescript/ls-transit/internal/state"
	"github.com/litescript/ls-transit/internal/texture"
	"github.com/litescript/ls-transit/internal/transit"
)

type testDeps struct {
	session *state.Session
	driver  *scene.Driver
	sampler *transit.Sampler
	cache   *texture.Cache
}

func newTestModel(t *testing.T, analyzer *analysis.Client, csvPath string) (Model, testDeps) {
	t.Helper()
	d := testDeps{
		session: state.NewSession(state.DefaultConfig()),
		sampler: transit.NewSampler(transit.MustParams(transit.DefaultOptions()), 100, transit.NewRand(7)),
		cache:   texture.NewCache(nil),
	}
	d.driver = scene.NewDriver(d.session, scene.DefaultConfig())
	m := New(Config{
		Session:     d.session,
		Driver:      d.driver,
		Sampler:     d.sampler,
		Textures:    d.cache,
		Analyzer:    analyzer,
		CurvePoints: 200,
		Texture:     texture.Options{Width: 32, Height: 16},
		AnalyzePath: csvPath,
		ExportDir:   t.TempDir(),
	})
	return m, d
}

func key(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// update feeds msg to m and then every message its command produces,
// recursively, returning the final model.
func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	for _, out := range runCmd(cmd) {
		switch out.(type) {
		case TickMsg, AnimTickMsg:
			continue
		}
		m = update(t, m, out)
	}
	return m
}

// runCmd executes cmd, expanding batches. Commands that take longer than
// a second are dropped.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	var msg tea.Msg
	select {
	case msg = <-done:
	case <-time.After(time.Second):
		return nil
	}
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func TestViewSwitching(t *testing.T) {
	m, _ := newTestModel(t, nil, "")

	tests := []struct {
		key  string
		want ViewMode
	}{
		{"2", ViewTransit},
		{"3", ViewPlanet},
		{"1", ViewSystem},
		{"tab", ViewTransit},
		{"tab", ViewPlanet},
		{"tab", ViewSystem},
	}
	for _, tt := range tests {
		m = update(t, m, key(tt.key))
		if m.ActiveView() != tt.want {
			t.Errorf("after %q view = %d, want %d", tt.key, m.ActiveView(), tt.want)
		}
	}
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t, nil, "")
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestFocusSelectsPlanet(t *testing.T) {
	m, d := newTestModel(t, nil, "")

	m = update(t, m, key("k"))
	if got := d.session.Snapshot().Selected; got != "kepler-22b" {
		t.Errorf("selected = %q, want kepler-22b", got)
	}
	if m.system.FocusedID() != "kepler-22b" {
		t.Errorf("focused = %q", m.system.FocusedID())
	}

	// Back past the first planet lands on the star.
	m = update(t, m, key("j"))
	if got := d.session.Snapshot().Selected; got != "" {
		t.Errorf("selected = %q, want star", got)
	}

	// And backwards from the star wraps to the last planet.
	update(t, m, key("j"))
	if got := d.session.Snapshot().Selected; got != "trappist-1e" {
		t.Errorf("selected = %q, want trappist-1e", got)
	}
}

func TestAddAndRemovePlanet(t *testing.T) {
	m, d := newTestModel(t, nil, "")

	m = update(t, m, key("n"))
	if d.session.Len() != 4 {
		t.Fatalf("planets = %d, want 4", d.session.Len())
	}
	if !strings.Contains(m.statusMsg, "Planet 4") {
		t.Errorf("status = %q", m.statusMsg)
	}

	// Nothing focused: x is a no-op.
	m = update(t, m, key("x"))
	if d.session.Len() != 4 {
		t.Errorf("x with star focused removed a planet")
	}

	m = update(t, m, key("k"))
	update(t, m, key("x"))
	if d.session.Len() != 3 {
		t.Errorf("planets = %d, want 3", d.session.Len())
	}
	if _, ok := d.session.Get("kepler-22b"); ok {
		t.Error("kepler-22b should be removed")
	}
	if d.session.Snapshot().Selected != "" {
		t.Error("selection should clear with removed planet")
	}
}

func TestEditPlanet(t *testing.T) {
	m, d := newTestModel(t, nil, "")
	m = update(t, m, key("k")) // focus kepler-22b, radius 2.4
	m = update(t, m, key("e"))
	if !m.system.Editing() {
		t.Fatal("e should open the editor")
	}

	// Keys go to the editor, not the view switcher.
	m = update(t, m, key("2"))
	if m.ActiveView() != ViewSystem {
		t.Error("view changed while editing")
	}

	m = update(t, m, key("up"))
	m = update(t, m, key("enter"))
	if m.system.Editing() {
		t.Error("enter should close the editor")
	}
	p, _ := d.session.Get("kepler-22b")
	if math.Abs(p.Features.Radius-2.64) > 1e-9 {
		t.Errorf("radius = %v, want 2.64", p.Features.Radius)
	}
	if p.Features.Period != 289.9 {
		t.Errorf("period changed to %v", p.Features.Period)
	}
}

func TestEditCancel(t *testing.T) {
	m, d := newTestModel(t, nil, "")
	m = update(t, m, key("k"))
	m = update(t, m, key("e"))
	m = update(t, m, key("right"))
	m = update(t, m, key("down"))
	m = update(t, m, key("esc"))
	if m.system.Editing() {
		t.Error("esc should close the editor")
	}
	p, _ := d.session.Get("kepler-22b")
	if p.Features.Period != 289.9 {
		t.Errorf("period = %v after cancel", p.Features.Period)
	}
}

func TestSceneControls(t *testing.T) {
	m, d := newTestModel(t, nil, "")

	m = update(t, m, key(" "))
	if !d.driver.Paused() {
		t.Error("space should pause orbits")
	}
	m = update(t, m, key("m"))
	if d.driver.Mode() != scene.ModeRealistic {
		t.Error("m should switch to realistic mode")
	}

	m = update(t, m, key("n"))
	update(t, m, key("D"))
	if d.session.Len() != 3 {
		t.Errorf("D should restore the 3 teaching planets, got %d", d.session.Len())
	}
}

func TestAnimTick(t *testing.T) {
	m, d := newTestModel(t, nil, "")
	t0 := time.Unix(1000, 0)

	m = update(t, m, AnimTickMsg(t0))
	m = update(t, m, AnimTickMsg(t0.Add(100*time.Millisecond)))
	if math.Abs(d.driver.Elapsed()-0.1) > 1e-9 {
		t.Errorf("elapsed = %v, want 0.1", d.driver.Elapsed())
	}
	if d.sampler.Len() != 2 {
		t.Errorf("samples = %d, want 2", d.sampler.Len())
	}

	// Long stalls are capped.
	update(t, m, AnimTickMsg(t0.Add(10*time.Second)))
	if math.Abs(d.driver.Elapsed()-0.35) > 1e-9 {
		t.Errorf("elapsed = %v, want 0.35", d.driver.Elapsed())
	}
}

func TestTransitParams(t *testing.T) {
	m, d := newTestModel(t, nil, "")

	bad := transit.DefaultOptions()
	bad.StarRadius = 0
	m = update(t, m, TransitParamsMsg{Options: bad})
	if m.statusMsg == "" {
		t.Error("invalid params should set a status message")
	}
	if d.sampler.Params().StarRadius != 1 {
		t.Error("invalid params should not reach the sampler")
	}

	m = update(t, m, key("2"))
	m = update(t, m, key("right")) // period
	m = update(t, m, key("up"))
	if got := d.sampler.Params().OrbitalPeriod; math.Abs(got-3.85) > 1e-9 {
		t.Errorf("period = %v, want 3.85", got)
	}
	if got := m.transit.Params().SemiMajorAxis; got != transit.SemiMajorAxisFor(d.sampler.Params().OrbitalPeriod) {
		t.Errorf("view semi-major axis %v out of step", got)
	}

	update(t, m, key("0"))
	if d.sampler.Params().OrbitalPeriod != 3.5 {
		t.Error("0 should restore defaults")
	}
}

func TestTransitFromPlanet(t *testing.T) {
	m, d := newTestModel(t, nil, "")
	m = update(t, m, key("k")) // kepler-22b
	m = update(t, m, key("2"))
	update(t, m, key("f"))

	p := d.sampler.Params()
	if math.Abs(p.PlanetRadius-2.4/109) > 1e-12 {
		t.Errorf("planet radius = %v, want %v", p.PlanetRadius, 2.4/109)
	}
	if p.OrbitalPeriod != 289.9 {
		t.Errorf("period = %v, want 289.9", p.OrbitalPeriod)
	}
}

func TestSamplerControls(t *testing.T) {
	m, d := newTestModel(t, nil, "")
	m = update(t, m, AnimTickMsg(time.Unix(0, 0)))
	m = update(t, m, key("2"))

	m = update(t, m, key(" "))
	if d.sampler.Running() {
		t.Error("space should pause the sampler")
	}
	if d.driver.Paused() {
		t.Error("transit view space must not pause orbits")
	}
	update(t, m, key("r"))
	if d.sampler.Len() != 0 || d.sampler.Time() != 0 {
		t.Error("r should reset the sampler")
	}
}

func TestExportCurve(t *testing.T) {
	m, _ := newTestModel(t, nil, "")
	for i := 0; i < 5; i++ {
		m = update(t, m, AnimTickMsg(time.Unix(int64(i), 0)))
	}
	m = update(t, m, key("2"))
	m = update(t, m, key("s"))
	if !strings.HasPrefix(m.statusMsg, "Wrote ") {
		t.Fatalf("status = %q", m.statusMsg)
	}
	data, err := os.ReadFile(strings.TrimPrefix(m.statusMsg, "Wrote "))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if lines[0] != "Time,Flux,Phase" || len(lines) != 6 {
		t.Errorf("csv = %q", data)
	}
}

func TestAnalyzeCSV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"planets":[
			{"id":"c1","name":"Candidate 1","probability":0.9,"features":{"radius":1.1,"period":12,"distance":0.5}},
			{"id":"bad","features":{"radius":0,"period":1,"distance":1}}
		]}`))
	}))
	defer srv.Close()

	csvPath := filepath.Join(t.TempDir(), "candidates.csv")
	if err := os.WriteFile(csvPath, []byte(analysis.Template), 0o644); err != nil {
		t.Fatal(err)
	}
	client := analysis.NewClient(analysis.WithEndpoint(srv.URL), analysis.WithRateLimit(0, 0))
	m, d := newTestModel(t, client, csvPath)

	m = update(t, m, key("A"))
	if m.analyzing {
		t.Error("analyzing flag should clear when the result arrives")
	}
	snap := d.session.Snapshot()
	if len(snap.Planets) != 1 || snap.Planets[0].ID != "c1" {
		t.Fatalf("planets = %+v", snap.Planets)
	}
	if !strings.Contains(m.statusMsg, "1 candidates") || !strings.Contains(m.statusMsg, "1 invalid") {
		t.Errorf("status = %q", m.statusMsg)
	}
	if snap.LastError != nil || snap.LastAnalysis.IsZero() {
		t.Error("analysis should be recorded")
	}
}

func TestAnalyzeWithoutClient(t *testing.T) {
	m, d := newTestModel(t, nil, "x.csv")
	m = update(t, m, key("A"))
	if !strings.Contains(m.statusMsg, "No analysis endpoint") {
		t.Errorf("status = %q", m.statusMsg)
	}
	if d.session.Len() != 3 {
		t.Error("session should be untouched")
	}
}

func TestAnalyzeMissingFile(t *testing.T) {
	client := analysis.NewClient(analysis.WithEndpoint("http://127.0.0.1:1"), analysis.WithRateLimit(0, 0))
	m, d := newTestModel(t, client, filepath.Join(t.TempDir(), "missing.csv"))
	m = update(t, m, key("A"))
	if !strings.HasPrefix(m.statusMsg, "Analysis failed") {
		t.Errorf("status = %q", m.statusMsg)
	}
	snap := d.session.Snapshot()
	if snap.LastError == nil {
		t.Error("failure should be recorded")
	}
	if len(snap.Planets) != 3 {
		t.Error("failed analysis must keep the planets")
	}
}

func TestViews(t *testing.T) {
	m, _ := newTestModel(t, nil, "")
	if m.View() != "Initializing..." {
		t.Error("view before size should be the placeholder")
	}
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m = update(t, m, key("k"))

	tests := []struct {
		key  string
		want []string
	}{
		{"1", []string{"[1] System", "Kepler-22b", "Ice world"}},
		{"2", []string{"Live light curve", "Theoretical transit", "Depth"}},
		{"3", []string{"Kepler-22b", "Status", "Confirmed exoplanet"}},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			out := update(t, m, key(tt.key)).View()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("view %s missing %q", tt.key, w)
				}
			}
		})
	}

	small := update(t, m, tea.WindowSizeMsg{Width: 30, Height: 12})
	if !strings.Contains(small.View(), "too small") {
		t.Error("tiny terminal should show a size hint")
	}
}
