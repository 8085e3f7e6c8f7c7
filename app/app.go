package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/searchktools/json-server/config"
	"github.com/searchktools/json-server/core"
	"github.com/searchktools/json-server/core/admin"
	"github.com/searchktools/json-server/core/codec"
	"github.com/searchktools/json-server/core/logging"
	"github.com/searchktools/json-server/core/observability"
	"github.com/searchktools/json-server/core/router"
)

// App is the application instance: the reactor engine plus the optional
// admin server, sharing one metrics registry.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	routes   *router.Table
	engine   *core.Engine

	admin   *admin.Server
	adminLn net.Listener
}

// New creates an application instance
func New(cfg *config.Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = logging.Nop()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	monitor := observability.NewMonitor(registry)

	routes := router.NewTable(logger)
	routes.SetRecorder(monitor)

	engine := core.NewEngine(core.Config{
		Port:           cfg.Server.Port,
		ReadBufferSize: cfg.Server.ReadBufferSize,
		PollTimeout:    cfg.Server.PollTimeout,
		Logger:         logger,
		Monitor:        monitor,
		Codec:          codec.NewJSON(),
	}, routes)

	a := &App{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		routes:   routes,
		engine:   engine,
	}

	if cfg.Admin.Enabled {
		a.admin = admin.NewServer(admin.Config{
			Addr:     cfg.Admin.Addr,
			Gatherer: registry,
			Logger:   logger.With("component", "admin"),
		})
	}

	return a
}

// Routes returns the route table. Register every route before Run.
func (a *App) Routes() *router.Table {
	return a.routes
}

// Engine returns the underlying engine
func (a *App) Engine() *core.Engine {
	return a.engine
}

// Registry returns the metrics registry shared by the engine and admin server.
func (a *App) Registry() *prometheus.Registry {
	return a.registry
}

// AdminAddr returns the admin listener address after Listen, or "" when the
// admin server is disabled.
func (a *App) AdminAddr() string {
	if a.adminLn == nil {
		return ""
	}
	return a.adminLn.Addr().String()
}

// Listen binds the reactor port and, when enabled, the admin address.
func (a *App) Listen() error {
	if err := a.engine.Listen(); err != nil {
		return err
	}

	if a.admin != nil {
		ln, err := net.Listen("tcp", a.cfg.Admin.Addr)
		if err != nil {
			return errors.Join(
				fmt.Errorf("admin listen %s: %w", a.cfg.Admin.Addr, err),
				a.engine.Close(),
			)
		}
		a.adminLn = ln
	}

	return nil
}

// Serve runs the reactor and the admin server until ctx is done, SIGINT or
// SIGTERM arrives, or either of them fails.
func (a *App) Serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.engine.Serve(gctx)
	})
	if a.admin != nil {
		g.Go(func() error {
			return a.admin.Serve(gctx, a.adminLn)
		})
	}

	a.logger.Info("application started", "env", a.cfg.Env, "routes", a.routes.Len())

	err := g.Wait()
	if ctx.Err() != nil {
		a.logger.Info("shutdown requested", "reason", context.Cause(ctx))
	}
	return err
}

// Run listens and serves.
func (a *App) Run(ctx context.Context) error {
	if err := a.Listen(); err != nil {
		return err
	}
	return a.Serve(ctx)
}
