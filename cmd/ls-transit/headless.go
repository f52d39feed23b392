package main

import (
	"fmt"
	"image"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/litescript/ls-transit/internal/analysis"
	"github.com/litescript/ls-transit/internal/planet"
	"github.com/litescript/ls-transit/internal/scale"
	"github.com/litescript/ls-transit/internal/texture"
	"github.com/litescript/ls-transit/internal/transit"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <radius> <distance>",
	Short: "Classify a planet by radius (Earth radii) and orbital distance",
	Example: `  ls-transit classify 1.0 1.0
  ls-transit classify 11.2 5.2`,
	Args: cobra.ExactArgs(2),
	RunE: runClassify,
}

var curveFlags struct {
	points   int
	observed bool
	output   string
	radius   float64
	period   float64
	incl     float64
	limb     float64
}

var curveCmd = &cobra.Command{
	Use:   "curve",
	Short: "Write a transit light curve as CSV",
	Long: `Write one orbit of the transit light curve as Time,Flux,Phase CSV.
Transit parameters come from the config file unless overridden by flags.`,
	Args: cobra.NoArgs,
	RunE: runCurve,
}

var textureFlags struct {
	output string
	color  string
	radius float64
	layer  string
	width  int
	height int
}

var textureCmd = &cobra.Command{
	Use:   "texture <rocky|super-earth|gas|ice>",
	Short: "Synthesize a planet surface and write it as PNG",
	Args:  cobra.ExactArgs(1),
	RunE:  runTexture,
}

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Print the example candidate CSV",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), analysis.Template)
	},
}

var analyzeEndpoint string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file.csv>",
	Short: "Send a candidate CSV to the analysis endpoint and print the verdicts",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	curveCmd.Flags().IntVar(&curveFlags.points, "points", 0, "Samples across one orbit (default from config)")
	curveCmd.Flags().BoolVar(&curveFlags.observed, "observed", false, "Add stellar and instrumental noise")
	curveCmd.Flags().StringVarP(&curveFlags.output, "output", "o", "-", "Output file (- for stdout)")
	curveCmd.Flags().Float64Var(&curveFlags.radius, "radius", 0, "Planet radius in stellar radii")
	curveCmd.Flags().Float64Var(&curveFlags.period, "period", 0, "Orbital period in days")
	curveCmd.Flags().Float64Var(&curveFlags.incl, "inclination", 0, "Inclination in degrees")
	curveCmd.Flags().Float64Var(&curveFlags.limb, "limb", 0, "Linear limb-darkening coefficient")

	textureCmd.Flags().StringVarP(&textureFlags.output, "output", "o", "", "Output PNG (default <type>.png)")
	textureCmd.Flags().StringVar(&textureFlags.color, "color", "", "Base colour as #rrggbb")
	textureCmd.Flags().Float64Var(&textureFlags.radius, "radius", 0, "Planet radius in Earth radii (gas giants above 4 get rings)")
	textureCmd.Flags().StringVar(&textureFlags.layer, "layer", "surface", "Layer to write: surface, clouds or normal")
	textureCmd.Flags().IntVar(&textureFlags.width, "width", 0, "Width in pixels (default from config)")
	textureCmd.Flags().IntVar(&textureFlags.height, "height", 0, "Height in pixels (default from config)")

	analyzeCmd.Flags().StringVar(&analyzeEndpoint, "endpoint", "", "Analysis endpoint URL (overrides config)")

	rootCmd.AddCommand(classifyCmd, curveCmd, textureCmd, templateCmd, analyzeCmd)
}

// stdoutStyled reports whether stdout is a terminal that should get colour.
func stdoutStyled() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func runClassify(cmd *cobra.Command, args []string) error {
	radius, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("radius: %w", err)
	}
	distance, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("distance: %w", err)
	}
	f := planet.Features{Radius: radius, Period: 365, Distance: distance}
	if err := f.Validate(); err != nil {
		return err
	}

	typ := f.Type()
	label := typ.Label()
	if stdoutStyled() {
		color := texture.DefaultBaseColor(typ).Hex()
		label = lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true).Render(label)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s (%s)\n", label, typ)
	fmt.Fprintf(w, "  Zone:           %s\n", planet.HabitableZone(distance))
	fmt.Fprintf(w, "  Display radius: %.2f\n", planet.DisplayRadius(radius))
	fmt.Fprintf(w, "  Scene radius:   %.2f\n", scale.ScaleRadius(radius))
	fmt.Fprintf(w, "  Orbit radius:   %.2f\n", scale.ScaleDistance(distance))
	fmt.Fprintf(w, "  Atmosphere:     %t\n", planet.HasAtmosphere(radius))
	fmt.Fprintf(w, "  Rings:          %t\n", planet.HasRings(radius))
	fmt.Fprintf(w, "  Transit depth:  %.4f%% of a Sun-like star\n", transit.DidacticDepthPercent(radius))
	return nil
}

func runCurve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	defer closeLog()

	opts := cfg.Transit.Options()
	flags := cmd.Flags()
	if flags.Changed("radius") {
		opts.PlanetRadius = curveFlags.radius
	}
	if flags.Changed("period") {
		opts.OrbitalPeriod = curveFlags.period
	}
	if flags.Changed("inclination") {
		opts.InclinationDeg = curveFlags.incl
	}
	if flags.Changed("limb") {
		opts.LimbDarkening = curveFlags.limb
	}
	params, err := transit.NewParams(opts)
	if err != nil {
		return err
	}

	points := cfg.Transit.CurvePoints
	if curveFlags.points > 0 {
		points = curveFlags.points
	}
	var samples []transit.Sample
	if curveFlags.observed {
		samples = transit.ObservedCurve(params, points, transit.NewRand(cfg.Transit.Seed))
	} else {
		samples = transit.TheoreticalCurve(params, points)
	}

	stats := transit.Summarize(params)
	logger.Info("depth %.4f%%, duration %.2f h, impact %.3f, snr %.1f",
		stats.DepthPercent, stats.DurationHours, stats.ImpactParameter, stats.SNR)

	return writeOutput(cmd.OutOrStdout(), curveFlags.output, func(w io.Writer) error {
		return transit.WriteCSV(w, samples)
	})
}

func runTexture(cmd *cobra.Command, args []string) error {
	typ, err := planet.ParseType(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts := cfg.Texture.Options()
	if textureFlags.width > 0 {
		opts.Width = textureFlags.width
	}
	if textureFlags.height > 0 {
		opts.Height = textureFlags.height
	}
	opts.Radius = textureFlags.radius

	surface := texture.Synthesize(typ, texture.ParseColor(textureFlags.color, typ), opts)

	var img image.Image
	switch strings.ToLower(textureFlags.layer) {
	case "surface":
		img = surface.Image()
	case "clouds":
		img = texture.AlphaImage(texture.Clouds(surface.Width, surface.Height, float64(typ)), surface.Width, surface.Height)
	case "normal":
		img = texture.RGBImage(texture.NormalMap(surface, texture.DefaultNormalStrength), surface.Width, surface.Height)
	default:
		return fmt.Errorf("unknown layer %q: want surface, clouds or normal", textureFlags.layer)
	}

	output := textureFlags.output
	if output == "" {
		output = typ.String() + ".png"
	}
	return writeOutput(cmd.OutOrStdout(), output, func(w io.Writer) error {
		return texture.EncodePNG(w, img)
	})
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if analyzeEndpoint != "" {
		cfg.Analysis.Endpoint = analyzeEndpoint
	}
	if cfg.Analysis.Endpoint == "" {
		return fmt.Errorf("no analysis endpoint: set analysis.endpoint or --endpoint")
	}
	logger, closeLog, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	defer closeLog()

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	result := newAnalyzer(cfg, logger, nil).AnalyzeCSV(cmd.Context(), f, nil)
	if result.Error != nil {
		return result.Error
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderCandidates(result.Response.Planets, stdoutStyled()))
	if result.Skipped > 0 {
		logger.Warn("%d candidates skipped for invalid features", result.Skipped)
	}
	return nil
}

// renderCandidates formats analysis results as a table.
func renderCandidates(planets []planet.Data, styled bool) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "TYPE", "RADIUS", "PERIOD", "DISTANCE", "PROB", "STATUS")

	for _, p := range planets {
		prob := "-"
		if p.Probability != nil {
			prob = fmt.Sprintf("%.2f", *p.Probability)
		}
		status := p.StatusLabel()
		if styled {
			status = lipgloss.NewStyle().Foreground(lipgloss.Color(scale.ColorForProbability(p.Probability).Hex())).Render(status)
		}
		t.Row(
			p.ID,
			p.DisplayName(),
			p.Type().String(),
			fmt.Sprintf("%.2f", p.Features.Radius),
			fmt.Sprintf("%.2f", p.Features.Period),
			fmt.Sprintf("%.3f", p.Features.Distance),
			prob,
			status,
		)
	}
	return t.Render()
}

// writeOutput runs write against stdout for "-" or a created file.
func writeOutput(stdout io.Writer, path string, write func(io.Writer) error) error {
	if path == "-" {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
