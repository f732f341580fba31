package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"probedeck/config"
	"probedeck/internal/agentdir"
	"probedeck/internal/export"
	"probedeck/internal/investigation"
	"probedeck/internal/kv"
	"probedeck/internal/runtime"
	"probedeck/internal/search"
)

// Run wires the whole backend and serves until the listener fails. State
// is flushed to storage on the way out so the debounce window cannot lose
// the final mutation.
func Run(cfg *config.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie", "Authorization"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	ctx := context.Background()
	rdb, err := kv.Conn(ctx,
		cfg.Storage.Redis.Host, cfg.Storage.Redis.Port,
		cfg.Storage.Redis.Password, cfg.Storage.Redis.DB,
		cfg.Storage.Redis.Timeout)
	if err != nil {
		return err
	}

	store := investigation.NewStore(kv.NewRedis(rdb), cfg.Storage.DebounceWrite)
	if err := store.Load(ctx); err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	idx, err := search.New()
	if err != nil {
		return err
	}
	if err := idx.Rebuild(store.History()); err != nil {
		return fmt.Errorf("rebuild search index: %w", err)
	}

	dir := agentdir.New(cfg.Agents)
	launcher := agentdir.NewExecLauncher(dir)

	var exporter investigation.Exporter
	if cfg.Export.Enabled {
		exporter = export.ChromePDF{Timeout: cfg.Export.Timeout}
	}
	mgr := investigation.NewManager(store, dir, launcher, exporter)

	secret, err := runtime.LoadJWTSecret(cfg)
	if err != nil {
		return err
	}
	api := e.Group("/api")
	auth := &AuthHandler{User: cfg.Server.AdminUser, Hash: cfg.Server.AdminPasswordHash, Secret: secret}
	auth.Register(api.Group("/auth"))

	ih := &InvestigationsHandler{
		Manager:       mgr,
		Dir:           dir,
		Search:        idx,
		StreamEnabled: cfg.Server.StreamEnabled,
	}
	ih.Register(api, secret, runtime.EchoAuthMiddleware(secret))

	if cfg.Retention.Enabled {
		sweeper := &Sweeper{
			Store:     store,
			Search:    idx,
			Rdb:       rdb,
			SweepCron: cfg.Retention.SweepCron,
			MaxAge:    cfg.Retention.MaxAge,
			Stop:      make(chan struct{}),
		}
		sweeper.Start()
		defer close(sweeper.Stop)
	}

	addr := cfg.Server.Listen
	if addr == "" {
		addr = ":10011"
	}
	log.Printf("listening on %s", addr)
	serveErr := e.Start(addr)
	store.Flush(context.Background())
	return serveErr
}
