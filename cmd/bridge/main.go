package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/corvidsystems/bridge/internal/api"
	"github.com/corvidsystems/bridge/internal/config"
	"github.com/corvidsystems/bridge/internal/helpers"
	"github.com/corvidsystems/bridge/internal/logging"
	"github.com/corvidsystems/bridge/internal/reconcile"
	"github.com/corvidsystems/bridge/internal/store"

	"github.com/corvidsystems/bridge/internal/channel"
	"github.com/corvidsystems/bridge/internal/workerpool"
)

const defaultDatabasePath = "bridge.db"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// cliFlags holds parsed command-line flag values.
type cliFlags struct {
	dbPath     string
	updateFile string
	workers    int
	adminHost  string
	adminPort  int
	adminKey   string
	jsonLogs   bool
	debug      bool
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.dbPath, "db", defaultDatabasePath, "path to the SQLite channel store")
	flag.StringVar(&f.updateFile, "update", "", "load a JSON/YAML channel config file, replace the store's channels, and exit")
	flag.IntVar(&f.workers, "workers", -1, "fixed worker pool size (-1 means default: max(NumCPU, 4))")
	flag.StringVar(&f.adminHost, "admin-host", "127.0.0.1", "admin API bind host (empty disables the admin API)")
	flag.IntVar(&f.adminPort, "admin-port", 8080, "admin API bind port")
	flag.StringVar(&f.adminKey, "admin-key", "", "optional admin API shared secret (X-API-Key header)")
	flag.BoolVar(&f.jsonLogs, "json-logs", false, "enable JSON structured logging")
	flag.BoolVar(&f.debug, "debug", false, "enable debug logging")
	flag.Parse()
	return f
}

func run() error {
	flags := parseFlags()

	level := "INFO"
	if flags.debug {
		level = "DEBUG"
	}
	logger := logging.Configure(logging.Config{
		Level:            level,
		Structured:       flags.jsonLogs,
		StructuredFormat: "json",
		IncludePID:       true,
	})

	st, err := store.Open(flags.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	if flags.updateFile != "" {
		return applyUpdate(st, flags.updateFile, logger)
	}

	logger.Info("bridge starting", "database", flags.dbPath, "workers", flags.workers)

	pool := workerpool.New(flags.workers)
	defer pool.Shutdown()

	manager := channel.NewManager(pool, logger)
	defer manager.StopAll()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	loop := reconcile.New(st, manager, logger)
	go loop.Run(ctx)

	var apiSrv *api.Server
	if flags.adminHost != "" {
		apiSrv = api.New(api.Config{
			Host:   flags.adminHost,
			Port:   int(helpers.ClampIntToUint16(flags.adminPort)),
			APIKey: flags.adminKey,
		}, manager, logger)

		logger.Info("admin API starting", "addr", apiSrv.Addr())
		go func() {
			if serveErr := apiSrv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
				logger.Error("admin API error", "err", serveErr)
				cancel()
			}
		}()
	}

	<-ctx.Done()
	logger.Info("bridge shutting down")

	if apiSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = apiSrv.Shutdown(shutdownCtx)
		shutdownCancel()
	}

	return nil
}

// applyUpdate implements the --update one-shot path: parse the given
// config file, replace the store's channel set, and exit without starting
// the reconciliation loop. A running bridge process picks up the change
// on its next tick.
func applyUpdate(st *store.Store, path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	channels, err := config.ParseFile(path, data)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := st.ReplaceChannels(channels); err != nil {
		return fmt.Errorf("failed to update store: %w", err)
	}
	logger.Info("channel definitions updated", "file", path, "channels", len(channels))
	return nil
}
