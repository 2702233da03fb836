package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/doorlog/internal/adapters/http/api"
	"github.com/okian/doorlog/internal/adapters/http/swagger"
	"github.com/okian/doorlog/internal/adapters/mq/mqtt"
	repository "github.com/okian/doorlog/internal/adapters/repository"
	app "github.com/okian/doorlog/internal/app"
	"github.com/okian/doorlog/internal/config"
	"github.com/okian/doorlog/pkg/logger"
	"github.com/okian/doorlog/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 10 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
	brokerRetryInterval   = 5 * time.Second
)

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	os.Exit(run())
}

// run wires the monitor and blocks until SIGINT/SIGTERM. The return value is
// the process exit code.
func run() int {
	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		loggerInstance.Error(ctx, "failed to load config", logger.Error(err))
		return 1
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := repository.Open(ctx, cfg.StoreBackend, storePath(cfg))
	if err != nil {
		loggerInstance.Error(ctx, "failed to open telemetry store", logger.Error(err))
		return 1
	}

	svc := app.New(
		app.WithLogger(loggerInstance.Named("monitor")),
		app.WithName(cfg.Name),
		app.WithStore(store),
		app.WithTickInterval(cfg.TickInterval()),
		app.WithBufferSize(cfg.EventBufferSize),
		app.WithSyncClock(cfg.SyncClock),
		app.WithPresets(cfg.TemperatureHigh, cfg.TemperatureLow),
	)
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start monitor", logger.Error(err))
		_ = store.Close()
		return 1
	}

	client := mqtt.New(cfg.BrokerURL, cfg.Name, cfg.TopicPrefix, mqtt.WithLogger(loggerInstance.Named("mqtt")))
	go connectBroker(ctx, client, svc.Deliver, loggerInstance)
	defer client.Close()

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	srv := newHTTPServer(ctx, cfg.Addr, svc)

	// Start the HTTP server
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	svc.Stop()
	if !svc.State().CleanExit() {
		return svc.State().ExitCode()
	}
	return 0
}

func storePath(cfg *config.Config) string {
	if cfg.StoreBackend == config.BackendSQLite {
		return cfg.SQLitePath
	}
	return cfg.TelemetryPath
}

// newHTTPServer registers the monitor API and docs on a fresh mux.
func newHTTPServer(ctx context.Context, addr string, svc *app.Service) *http.Server {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc).Register(ctx, mux)

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// connectBroker keeps trying to reach the broker until it connects and
// subscribes, or ctx ends. The monitor keeps logging idle ticks meanwhile.
func connectBroker(ctx context.Context, client *mqtt.Client, h mqtt.Handler, log logger.Logger) {
	ticker := time.NewTicker(brokerRetryInterval)
	defer ticker.Stop()

	for {
		var err error
		if !client.IsConnected() {
			err = client.Connect(ctx)
		}
		if err == nil {
			err = client.Subscribe(ctx, h)
		}
		if err == nil {
			return
		}
		log.Warn(ctx, "broker unavailable; retrying", logger.Error(err), logger.Duration("retry", brokerRetryInterval))

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
