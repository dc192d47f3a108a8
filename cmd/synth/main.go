package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/xg/internal/adapters/source"
	"github.com/okian/xg/internal/domain/model"
	"github.com/okian/xg/internal/synth"
	"github.com/okian/xg/pkg/logger"
)

const (
	defaultTimeout = 10 * time.Minute
	filePermission = 0o644
)

func main() {
	def := synth.DefaultConfig()
	var (
		games      = flag.Int("games", def.Games, "Number of games to simulate")
		teams      = flag.Int("teams", def.Teams, "Number of teams in the league")
		season     = flag.String("season", def.Season, "Season label")
		start      = flag.String("start", def.StartDate, "Date of the first game (YYYY-MM-DD)")
		seed       = flag.Uint64("seed", def.Seed, "Random seed")
		workers    = flag.Int("workers", runtime.NumCPU(), "Games simulated concurrently")
		duplicates = flag.Float64("duplicates", def.DuplicateRate, "Share of events emitted twice")
		missing    = flag.Float64("missing", def.MissingCoordRate, "Share of attempts without coordinates")
		format     = flag.String("format", source.FormatJSONL, "Output format: jsonl or parquet")
		output     = flag.String("output", "", "Output file (default: events_<batch>.<format>)")
		verbose    = flag.Bool("verbose", false, "Enable debug logging")
		jsonLogs   = flag.Bool("json", false, "Emit JSON log lines")
	)
	flag.Parse()

	if err := logger.Init(logger.WithWriter(os.Stderr), logger.WithJSON(*jsonLogs)); err != nil {
		_, _ = os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}
	log := logger.Named("synth-cli")

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := def
	cfg.Games = *games
	cfg.Teams = *teams
	cfg.Season = *season
	cfg.StartDate = *start
	cfg.Seed = *seed
	cfg.Workers = *workers
	cfg.DuplicateRate = *duplicates
	cfg.MissingCoordRate = *missing

	if err := run(ctx, cfg, *format, *output, log); err != nil {
		log.Error(ctx, "synthesis failed", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg synth.Config, format, output string, log logger.Logger) error {
	gen, err := synth.New(cfg)
	if err != nil {
		return err
	}
	events, stats, err := gen.Generate(ctx)
	if err != nil {
		return err
	}
	if output == "" {
		output = fmt.Sprintf("events_%s.%s", stats.BatchID, format)
	}

	switch format {
	case source.FormatJSONL:
		err = writeJSONLines(output, events)
	case source.FormatParquet:
		err = source.WriteParquet(output, events)
	default:
		err = fmt.Errorf("%w: %q", source.ErrUnknownFormat, format)
	}
	if err != nil {
		return err
	}

	log.Info(ctx, "events written",
		logger.String("path", output),
		logger.String("batch", stats.BatchID),
		logger.Int("events", stats.Events),
		logger.Int("attempts", stats.Attempts),
		logger.Int("goals", stats.Goals),
		logger.Int("duplicates", stats.Duplicates),
		logger.Float64("expected_goals", stats.ExpectedGoals),
	)
	return nil
}

func writeJSONLines(path string, events []model.Event) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermission)
	if err != nil {
		return err
	}
	if err := source.WriteJSONLines(f, events); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
