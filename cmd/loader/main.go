package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"courtvision/backend/internal/config"
	"courtvision/backend/internal/etl"
	"courtvision/backend/internal/repository"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		rawDir    = flag.String("raw-dir", "raw_data", "Directory containing teams.json, players.json and games.json")
		dryRun    = flag.Bool("dry-run", false, "Run every step without committing writes")
		limit     = flag.Int("limit", 0, "Process at most N events (0 = no limit)")
		batchSize = flag.Int("batch-size", etl.DefaultBatchSize, "Events per upsert transaction")
		only      = flag.String("only", etl.StepAll, "Run a single step: actions, teams, players, games, events or all")
		truncate  = flag.Bool("truncate", false, "Truncate event tables before loading")
		since     = flag.String("since", "", "Only load games on or after this date (YYYY-MM-DD)")
		until     = flag.String("until", "", "Only load games on or before this date (YYYY-MM-DD)")
		resume    = flag.Bool("resume", false, "Skip events already present instead of updating them")
		strict    = flag.Bool("strict", false, "Abort on the first parse error or batch failure")
		noUpdate  = flag.Bool("no-update", false, "Never update existing events, only insert new ones")
		verbose   = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	setupLogger(*verbose)

	log.Info().Msg("Starting CourtVision data loader")

	cfg := config.MustLoad()
	log.Info().
		Str("env", cfg.AppEnv).
		Str("log_level", cfg.LogLevel).
		Msg("Configuration loaded")

	sinceDate, err := parseDateFlag("since", *since)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid flag")
	}
	untilDate, err := parseDateFlag("until", *until)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid flag")
	}

	opts := etl.Options{
		RawDir:    *rawDir,
		DryRun:    *dryRun,
		Limit:     *limit,
		BatchSize: *batchSize,
		Only:      *only,
		Truncate:  *truncate,
		Since:     sinceDate,
		Until:     untilDate,
		Resume:    *resume,
		Strict:    *strict,
		NoUpdate:  *noUpdate,
	}
	if err := opts.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid flags")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info().Msg("Received shutdown signal, stopping after current batch...")
		cancel()
	}()

	db, err := repository.NewDatabase(ctx, repository.Config{
		Host:     cfg.DatabaseHost,
		Port:     strconv.Itoa(cfg.DatabasePort),
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		Database: cfg.DatabaseName,
		SSLMode:  cfg.DatabaseSSLMode,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	runner := etl.NewRunner(db, opts)
	stats, runErr := runner.Run(ctx)

	fmt.Print(stats.Summary(*dryRun))

	if runErr != nil {
		log.Error().Err(runErr).Msg("ETL run failed")
		os.Exit(1)
	}
	if *strict && stats.HadErrors() {
		os.Exit(1)
	}
}

// setupLogger configures the zerolog logger: pretty console output plus
// a persistent etl.log file so every data-quality warning survives the
// run. The verbose flag overrides the configured level.
func setupLogger(verbose bool) {
	var console io.Writer = os.Stdout
	if os.Getenv("APP_ENV") != "production" {
		console = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	logFile, err := os.OpenFile("etl.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Logger = log.Output(console)
		log.Warn().Err(err).Msg("Could not open etl.log, logging to console only")
	} else {
		log.Logger = log.Output(zerolog.MultiLevelWriter(console, logFile))
	}

	level := zerolog.InfoLevel
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		if parsed, err := zerolog.ParseLevel(lvl); err == nil {
			level = parsed
		}
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
}

func parseDateFlag(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("--%s must be YYYY-MM-DD, got %q", name, value)
	}
	return &d, nil
}
