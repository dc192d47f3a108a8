package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/okian/xg/internal/adapters/registry"
	"github.com/okian/xg/internal/adapters/repository"
	app "github.com/okian/xg/internal/app"
	"github.com/okian/xg/internal/config"
	"github.com/okian/xg/pkg/logger"
	"github.com/okian/xg/pkg/metrics"
)

func main() {
	// A missing .env is fine; the process environment still applies.
	_ = godotenv.Load()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithJSON(cfg.LogJSON)); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "training failed", logger.Error(err))
		os.Exit(1)
	}
}

// run wires the configured sinks around the pipeline service and trains
// once on the configured input.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	opts := []app.Option{app.WithConfig(cfg), app.WithLogger(log.Named("service"))}

	if cfg.SQLitePath != "" {
		store, err := repository.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Warn(ctx, "closing store", logger.Error(err))
			}
		}()
		opts = append(opts, app.WithStore(store))
	}

	reg, closeReg, err := registry.Open(ctx, cfg.RedisAddr, cfg.ModelPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeReg(); err != nil {
			log.Warn(ctx, "closing registry", logger.Error(err))
		}
	}()
	if reg != nil {
		opts = append(opts, app.WithRegistry(reg))
	}

	res, err := app.New(opts...).Run(ctx)
	if err != nil {
		return err
	}

	if cfg.PushgatewayURL != "" {
		if err := metrics.Push(cfg.PushgatewayURL, map[string]string{"run": res.RunID}); err != nil {
			log.Warn(ctx, "pushing metrics", logger.String("url", cfg.PushgatewayURL), logger.Error(err))
		}
	}
	return nil
}
