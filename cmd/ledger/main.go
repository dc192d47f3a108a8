// Command ledger serves past training runs and published models over HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/okian/xg/internal/adapters/http/api"
	"github.com/okian/xg/internal/adapters/registry"
	"github.com/okian/xg/internal/adapters/repository"
	"github.com/okian/xg/internal/config"
	"github.com/okian/xg/pkg/logger"
)

// HTTP server configuration constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// ErrNoLedger is returned when no SQLite ledger is configured.
var ErrNoLedger = errors.New("sqlite_path is required")

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	handler, closeAll, err := newHandler(ctx, cfg)
	if err != nil {
		log.Error(ctx, "ledger setup failed", logger.Error(err))
		os.Exit(1)
	}
	defer func() {
		if err := closeAll(); err != nil {
			log.Warn(ctx, "closing ledger", logger.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
}

// newHandler opens the ledger and the optional model registry and returns
// the routed API.
func newHandler(ctx context.Context, cfg *config.Config) (http.Handler, func() error, error) {
	if cfg.SQLitePath == "" {
		return nil, nil, ErrNoLedger
	}
	store, err := repository.OpenSQLite(ctx, cfg.SQLitePath)
	if err != nil {
		return nil, nil, err
	}
	reg, closeReg, err := registry.Open(ctx, cfg.RedisAddr, cfg.ModelPath)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	mux := http.NewServeMux()
	api.NewServer(store, reg).Register(ctx, mux)

	closeAll := func() error {
		return errors.Join(closeReg(), store.Close())
	}
	return mux, closeAll, nil
}
