package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/litescript/ls-transit/internal/config"
	"github.com/litescript/ls-transit/internal/logging"
	"github.com/litescript/ls-transit/internal/metrics"
	"github.com/litescript/ls-transit/internal/scene"
	"github.com/litescript/ls-transit/internal/state"
	"github.com/litescript/ls-transit/internal/stream"
	"github.com/litescript/ls-transit/internal/texture"
)

const shutdownTimeout = 5 * time.Second

var serveFlags struct {
	addr string
	csv  string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Stream scene frames over websocket",
	Long: `Run the scene headless and stream frames to websocket clients.

Routes:
  GET  /frames                websocket, one JSON frame per tick
  GET  /frame                 latest frame as JSON
  POST /control/{action}      pause, play, toggle, reset, mode
  GET  /textures/{type}.png   synthesized surface for an archetype
  GET  /metrics               Prometheus metrics
  GET  /healthz               liveness`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.addr, "addr", "", "Listen address (default from config)")
	serveCmd.Flags().StringVar(&serveFlags.csv, "csv", "", "Candidate CSV to analyze before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveFlags.addr != "" {
		cfg.Server.Addr = serveFlags.addr
	}
	logger, closeLog, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	defer closeLog()

	collector, err := metrics.New(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	session := state.NewSession(state.Config{Didactic: cfg.Scene.Didactic, Observer: collector})
	if serveFlags.csv != "" {
		if err := seedSession(cmd.Context(), cfg, session, collector, logger); err != nil {
			return err
		}
	}

	driver := scene.NewDriver(session, cfg.Scene.DriverConfig(),
		scene.WithLogger(logger.Named("scene")),
		scene.WithObserver(collector),
	)
	hub := stream.NewHub(driver, texture.NewCache(collector),
		stream.WithInterval(cfg.Server.FrameInterval),
		stream.WithWriteTimeout(cfg.Server.WriteTimeout),
		stream.WithMetrics(collector),
		stream.WithLogger(logger.Named("stream")),
		stream.WithTextureOptions(cfg.Texture.Options()),
	)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           hub.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	hubDone := make(chan error, 1)
	go func() { hubDone <- hub.Run(ctx) }()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening on %s", cfg.Server.Addr)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err = <-serveErr:
		cancel()
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		// Hijacked websocket connections are closed by the hub, not Shutdown.
		err = server.Shutdown(shutdownCtx)
	}
	<-hubDone

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// seedSession replaces the session planets with the analysis result for
// serveFlags.csv.
func seedSession(ctx context.Context, cfg *config.Config, session *state.Session, obs *metrics.Collector, logger *logging.Logger) error {
	client := newAnalyzer(cfg, logger, obs)
	if client == nil {
		return fmt.Errorf("--csv needs analysis.endpoint")
	}
	f, err := os.Open(serveFlags.csv)
	if err != nil {
		return err
	}
	defer f.Close()

	result := client.AnalyzeCSV(ctx, f, nil)
	if result.Error != nil {
		return fmt.Errorf("analyzing %s: %w", serveFlags.csv, result.Error)
	}
	session.RecordAnalysis(result.Response.Planets, result.Duration, nil)
	logger.Info("seeded %d planets from %s", len(result.Response.Planets), serveFlags.csv)
	return nil
}
