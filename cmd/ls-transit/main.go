// Command ls-transit is a terminal UI for exploring exoplanet transits and
// procedurally textured planets.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/litescript/ls-transit/internal/analysis"
	"github.com/litescript/ls-transit/internal/config"
	"github.com/litescript/ls-transit/internal/logging"
	"github.com/litescript/ls-transit/internal/scene"
	"github.com/litescript/ls-transit/internal/state"
	"github.com/litescript/ls-transit/internal/texture"
	"github.com/litescript/ls-transit/internal/transit"
	"github.com/litescript/ls-transit/internal/ui"
	"github.com/litescript/ls-transit/internal/version"
)

// Global flags
var (
	cfgFile  string
	logFile  string
	logLevel string
	csvPath  string
)

var rootCmd = &cobra.Command{
	Use:   "ls-transit",
	Short: "Exoplanet transit explorer",
	Long: `ls-transit animates a planetary system in the terminal, simulates the
light curve of a transiting planet and previews procedurally textured worlds.

Run without a subcommand to start the interactive UI. Keys:
  1/2/3, tab   switch between System, Transit and Planet views
  A            send --csv to the analysis endpoint
  q            quit`,
	SilenceUsage: true,
	RunE:         runTUI,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ls-transit v%s\n", version.Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ./ls-transit.yaml or ~/.config/ls-transit/)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&csvPath, "csv", "", "Candidate CSV sent to the analysis endpoint on A")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	// Handle signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// loadConfig reads .env, the config file and the environment, then applies
// the log flags.
func loadConfig() (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFile != "" {
		cfg.Logging.File = logFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the root logger. The returned func closes the log file.
// Without a log file, tuiMode discards output since the alt screen owns the
// terminal; headless commands log to stderr.
func newLogger(cfg *config.Config, tuiMode bool) (*logging.Logger, func(), error) {
	level := logging.ParseLevel(cfg.Logging.Level)
	if cfg.Logging.File == "" {
		if tuiMode {
			return logging.Discard(), func() {}, nil
		}
		return logging.New(level), func() {}, nil
	}
	f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	logger := logging.New(level)
	logger.SetOutput(f)
	return logger, func() { f.Close() }, nil
}

// newAnalyzer returns nil when no endpoint is configured.
func newAnalyzer(cfg *config.Config, logger *logging.Logger, obs analysis.Observer) *analysis.Client {
	if cfg.Analysis.Endpoint == "" {
		return nil
	}
	opts := []analysis.ClientOption{
		analysis.WithEndpoint(cfg.Analysis.Endpoint),
		analysis.WithTimeout(cfg.Analysis.Timeout),
		analysis.WithRateLimit(cfg.Analysis.RateLimit, cfg.Analysis.Burst),
		analysis.WithLogger(logger.Named("analysis")),
	}
	if obs != nil {
		opts = append(opts, analysis.WithObserver(obs))
	}
	return analysis.NewClient(opts...)
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(cfg, true)
	if err != nil {
		return err
	}
	defer closeLog()

	params, err := transit.NewParams(cfg.Transit.Options())
	if err != nil {
		return fmt.Errorf("transit defaults: %w", err)
	}

	// Initialize components
	session := state.NewSession(state.Config{Didactic: cfg.Scene.Didactic})
	driver := scene.NewDriver(session, cfg.Scene.DriverConfig(), scene.WithLogger(logger.Named("scene")))
	sampler := transit.NewSampler(params, cfg.Transit.Window, transit.NewRand(cfg.Transit.Seed))

	model := ui.New(ui.Config{
		Session:     session,
		Driver:      driver,
		Sampler:     sampler,
		Textures:    texture.NewCache(nil),
		Analyzer:    newAnalyzer(cfg, logger, nil),
		Logger:      logger.Named("ui"),
		DaysPerTick: cfg.Transit.DaysPerTick,
		CurvePoints: cfg.Transit.CurvePoints,
		Texture:     cfg.Texture.Options(),
		AnalyzePath: csvPath,
	})

	logger.Info("starting ls-transit v%s", version.Version)

	// Run TUI (blocks until quit)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
