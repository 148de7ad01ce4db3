// Package bootstrap wires all dependencies and starts the application.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/artpar/warsztat/adapters/clock"
	"github.com/artpar/warsztat/adapters/filestore"
	apihttp "github.com/artpar/warsztat/adapters/http"
	"github.com/artpar/warsztat/adapters/idgen"
	"github.com/artpar/warsztat/adapters/memory"
	"github.com/artpar/warsztat/adapters/metrics"
	"github.com/artpar/warsztat/adapters/sqlite"
	"github.com/artpar/warsztat/config"
	"github.com/artpar/warsztat/core/events"
	"github.com/artpar/warsztat/core/runtime"
	"github.com/artpar/warsztat/domain/settings"
	"github.com/artpar/warsztat/ports"
)

// Environment variables read before any configuration is loaded.
const (
	EnvConfigPath = "WARSZTAT_CONFIG"
	EnvLogLevel   = "WARSZTAT_LOG_LEVEL"
	EnvLogFormat  = "WARSZTAT_LOG_FORMAT"
)

// SetupLogger creates the process logger on stdout and sets the global level.
func SetupLogger(level, format string) zerolog.Logger {
	return NewLogger(os.Stdout, level, format)
}

// NewLogger creates a logger writing to w. Unknown levels mean info;
// format "console" selects the human readable writer, anything else JSON.
func NewLogger(w io.Writer, level, format string) zerolog.Logger {
	SetLevel(level)

	if format == "console" {
		output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// SetLevel sets the global log level.
func SetLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// OpenStore opens the document store selected by cfg.
func OpenStore(cfg config.StorageConfig) (ports.DocumentStore, error) {
	switch cfg.Driver {
	case config.StorageMemory:
		return memory.NewDocumentStore(), nil
	case config.StorageFile:
		s, err := filestore.Open(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open file store: %w", err)
		}
		return s, nil
	case config.StorageSQLite:
		s, err := sqlite.OpenDocumentStore(cfg.Path, cfg.SQLiteDriver)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

// RuntimeOptions tunes NewRuntime.
type RuntimeOptions struct {
	Observer ports.Observer
	Clock    ports.Clock
	IDs      ports.IDGenerator
}

// NewRuntime opens the configured store and loads the runtime over it.
func NewRuntime(ctx context.Context, cfg *config.Config, opts RuntimeOptions, logger zerolog.Logger) (*runtime.Runtime, error) {
	store, err := OpenStore(cfg.Storage)
	if err != nil {
		return nil, err
	}

	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.IDs == nil {
		opts.IDs = idgen.UUID{}
	}

	rt, err := runtime.New(ctx, runtime.Config{
		Store:        store,
		StateKey:     cfg.Storage.Key,
		ThemePersist: cfg.Settings.ThemePersist,
		DefaultTheme: settings.ParseTheme(cfg.Settings.Theme),
		Clock:        opts.Clock,
		IDs:          opts.IDs,
		Observer:     opts.Observer,
		Logger:       logger,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("load runtime: %w", err)
	}

	rt.Events().Subscribe("*", func(_ context.Context, e events.Event) error {
		logger.Debug().Str("event", e.Name).Str("partition", e.Partition).Str("id", e.ID).Msg("event")
		return nil
	})

	logger.Info().
		Str("storage", cfg.Storage.Driver).
		Str("path", cfg.Storage.Path).
		Int("modules", len(rt.Modules())).
		Msg("state loaded")
	return rt, nil
}

// App is the running HTTP service.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Holder
	Runtime    *runtime.Runtime
	Metrics    *metrics.Collector
	Registry   *prometheus.Registry
	HTTPServer *http.Server

	handler atomic.Pointer[http.Handler]
}

// New loads the configuration at path (or the environment) and assembles
// the service.
func New(ctx context.Context, path string) (*App, error) {
	boot := SetupLogger(os.Getenv(EnvLogLevel), os.Getenv(EnvLogFormat))

	holder, err := config.NewHolder(path, boot.With().Str("component", "config").Logger())
	if err != nil {
		return nil, err
	}
	return NewWithHolder(ctx, holder)
}

// NewWithHolder assembles the service from an existing config holder.
func NewWithHolder(ctx context.Context, holder *config.Holder) (*App, error) {
	cfg := holder.Get()
	logger := SetupLogger(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info().Msg("initializing warsztat")

	a := &App{Logger: logger, Config: holder}

	var observer ports.Observer = ports.NopObserver{}
	if cfg.Metrics.Enabled {
		a.Registry = prometheus.NewRegistry()
		a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		a.Metrics = metrics.NewWithRegistry(a.Registry)
		observer = a.Metrics
		holder.SetObserver(a.Metrics)
		logger.Info().Str("path", cfg.Metrics.Path).Msg("prometheus metrics enabled")
	}

	rt, err := NewRuntime(ctx, cfg, RuntimeOptions{Observer: observer}, logger)
	if err != nil {
		return nil, err
	}
	a.Runtime = rt

	a.setHandler(cfg)
	a.HTTPServer = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      http.HandlerFunc(a.serveHTTP),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	holder.OnChange(a.applyConfig)
	return a, nil
}

// Handler returns the current HTTP handler.
func (a *App) Handler() http.Handler {
	return *a.handler.Load()
}

func (a *App) serveHTTP(w http.ResponseWriter, r *http.Request) {
	a.Handler().ServeHTTP(w, r)
}

func (a *App) setHandler(cfg *config.Config) {
	rc := apihttp.RouterConfig{
		Runtime:        a.Runtime,
		CORSOrigins:    cfg.Server.CORSOrigins,
		RequestTimeout: cfg.Server.WriteTimeout,
		Logger:         a.Logger.With().Str("component", "http").Logger(),
	}
	if a.Metrics != nil {
		rc.Metrics = a.Metrics
		rc.Gatherer = a.Registry
		rc.MetricsPath = cfg.Metrics.Path
	}

	var h http.Handler = apihttp.NewRouter(rc)
	a.handler.Store(&h)
}

// applyConfig picks up the reloadable settings.
func (a *App) applyConfig(cfg *config.Config) {
	SetLevel(cfg.Logging.Level)
	a.setHandler(cfg)
}

// Run serves until SIGINT or SIGTERM and then shuts down gracefully.
func (a *App) Run() error {
	ln, err := net.Listen("tcp", a.HTTPServer.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return a.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().Str("addr", ln.Addr().String()).Msg("starting http server")
		if err := a.HTTPServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.Shutdown()
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		a.Logger.Info().Msg("shutting down")
	}
	return a.Shutdown()
}

// Shutdown stops the server and flushes the store.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a.Config.Stop()

	var errs []error
	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
			errs = append(errs, err)
		}
	}
	if a.Runtime != nil {
		if err := a.Runtime.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("store close error")
			errs = append(errs, err)
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return errors.Join(errs...)
}
