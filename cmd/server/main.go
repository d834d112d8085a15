package main // Entry point package

import (
	"context"   // context drives shutdown of the consumer and server
	"errors"    // errors separates a clean shutdown from a failure
	"log"       // log reports failures before the zap logger exists
	"net/http"  // http.ErrServerClosed marks a graceful stop
	"os"        // os receives shutdown signals
	"os/signal" // signal subscribes to SIGINT/SIGTERM
	"syscall"   // syscall names SIGTERM
	"time"      // time bounds the shutdown

	"github.com/joho/godotenv"    // .env loader for local runs
	"github.com/labstack/echo/v4" // Echo web framework
	"go.uber.org/zap"             // structured logging fields

	"github.com/iliyamo/wedding-seating/internal/config"     // Internal config loader
	"github.com/iliyamo/wedding-seating/internal/database"   // MySQL and migrations
	"github.com/iliyamo/wedding-seating/internal/handler"    // HTTP handlers
	"github.com/iliyamo/wedding-seating/internal/localstore" // drafts, columns and templates
	"github.com/iliyamo/wedding-seating/internal/logging"    // zap loggers
	"github.com/iliyamo/wedding-seating/internal/middleware" // request logging, cache, rate limit
	"github.com/iliyamo/wedding-seating/internal/planner"    // planner service
	"github.com/iliyamo/wedding-seating/internal/queue"      // restore consumer
	"github.com/iliyamo/wedding-seating/internal/repository" // MySQL repositories
	"github.com/iliyamo/wedding-seating/internal/router"     // Internal router setup
	queue_publisher "github.com/iliyamo/wedding-seating/internal/service"
	"github.com/iliyamo/wedding-seating/internal/session" // session cache
)

func main() {
	_ = godotenv.Load()  // a missing .env is fine; the environment may be set already
	cfg := config.Load() // Load environment config
	if err := logging.Init(cfg.Env, cfg.LogLevel); err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName) // authoritative store
	if err != nil {
		logging.Log.Fatal("mysql: open failed", zap.Error(err))
	}
	defer db.Close()
	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			logging.Log.Fatal("mysql: migrate failed", zap.Error(err))
		}
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig()) // nil when Redis is unreachable
	if rdb == nil {
		logging.Log.Warn("redis unavailable; using in-process session cache, no response cache or rate limit")
	} else {
		defer rdb.Close()
	}
	scfg := config.LoadSessionConfig()
	cache := session.NewMemory(scfg)
	if rdb != nil {
		cache = session.New(rdb, scfg)
	}

	local, err := localstore.Open(ctx, cfg.LocalStorePath) // sqlite file for local keys
	if err != nil {
		logging.Log.Fatal("localstore: open failed", zap.Error(err), zap.String("path", cfg.LocalStorePath))
	}
	defer local.Close()

	qcfg := config.LoadQueueConfig()
	deps := planner.Deps{
		Charts:      repository.NewChartRepo(db),
		Tables:      repository.NewTableRepo(db),
		Positions:   repository.NewPositionRepo(db),
		Guests:      repository.NewGuestRepo(db),
		Groups:      repository.NewGroupRepo(db),
		Assignments: repository.NewAssignmentRepo(db),
		Cache:       cache,
		Templates:   local,
	}
	if pub := queue_publisher.New(qcfg); pub != nil {
		deps.Publisher = pub
	}
	svc := planner.New(deps, planner.ConfigFrom(config.LoadCanvasConfig()))

	if qcfg.Enabled {
		go func() {
			if err := queue.StartRestoreConsumer(ctx, qcfg, svc.RestoreHandler()); err != nil && !errors.Is(err, context.Canceled) {
				logging.Log.Error("restore-consumer stopped", zap.Error(err))
			}
		}()
	}

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestLogger())
	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	p := handler.NewPlannerHandler(svc, local, cfg.JWTSecret, cfg.SessionTTLMin)
	respCache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb, p.RenderRevision)

	router.RegisterRoutes(e, db, rdb) // Register application routes
	router.RegisterSessions(e, p, limit)
	router.RegisterPlanner(e, p, cfg.JWTSecret, limit, respCache)
	router.RegisterTemplates(e, p, cfg.JWTSecret, limit)

	addr := ":" + cfg.Port // Address string with port
	go func() {
		logging.Log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) { // Start HTTP server
			logging.Log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logging.Log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logging.Log.Error("shutdown failed", zap.Error(err))
	}
}
