package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/golang-migrate/migrate/v4"

	"github.com/studypath/studypath/config"
	"github.com/studypath/studypath/internal/jobs"
	"github.com/studypath/studypath/internal/runtime"
	"github.com/studypath/studypath/internal/store"
	"github.com/studypath/studypath/provider/gemini"
)

// Run wires the full HTTP service and blocks serving on addr.
func Run(cfg *config.Config, addr string) error {
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
	dsn := cfg.Databases.Postgres.DSN()
	if err := Migrate("file://migrations", dsn, "up", 0); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migrate: %w", err)
	}
	st, err := store.NewWithDSN(ctx, dsn)
	if err != nil {
		return err
	}

	secret, err := runtime.LoadJWTSecret(cfg)
	if err != nil {
		return err
	}

	if err := cfg.Providers.Gemini.Validate(); err != nil {
		return err
	}
	llm := gemini.New(
		cfg.Providers.Gemini.APIKey,
		cfg.Providers.Gemini.Model,
		cfg.Providers.Gemini.Endpoint,
		cfg.Providers.Gemini.Timeout,
	)

	jobStore := jobs.NewStore(cfg.Jobs.Watchdog, cfg.Jobs.Retention)
	runner := &jobs.Runner{
		Store:    jobStore,
		Provider: llm,
		Plans:    st,
		Logger:   log.New(log.Writer(), "[JOBS] ", log.LstdFlags),
		Timeout:  cfg.Jobs.Watchdog,
	}

	var cache *PlanCache
	if cfg.Databases.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Databases.Redis.Addr(),
			Password: cfg.Databases.Redis.Password,
			DB:       cfg.Databases.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			baseLogger.Printf("redis unreachable, plan cache disabled: %v", err)
		} else {
			cache = NewPlanCache(rdb, planCacheTTL)
		}
	}

	api := e.Group("/api")

	auth := &AuthHandler{Store: st, Secret: secret}
	auth.Register(api.Group("/auth"))

	authed := runtime.EchoAuthMiddleware(secret)

	me := api.Group("/me")
	me.Use(authed)
	me.GET("", func(c echo.Context) error {
		return c.JSON(200, MeResponse{UserID: c.Get("user_id").(string)})
	})

	jh := &JobsHandler{
		Jobs:          jobStore,
		Runner:        runner,
		MinInputChars: cfg.Jobs.MinInputChars,
		Logger:        log.New(log.Writer(), "[AGENT] ", log.LstdFlags),
	}
	agent := api.Group("/agent")
	agent.Use(authed)
	jh.Register(agent)

	ph := &PlansHandler{
		Store:  st,
		Cache:  cache,
		Logger: log.New(log.Writer(), "[PLANS] ", log.LstdFlags),
	}
	plans := api.Group("/plans")
	plans.Use(authed)
	ph.Register(plans)

	return e.Start(addr)
}
