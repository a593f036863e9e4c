package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Alidon256/Mindset-Pulse-sub000/config"
	"github.com/Alidon256/Mindset-Pulse-sub000/controllers"
	"github.com/Alidon256/Mindset-Pulse-sub000/helpers"
	"github.com/Alidon256/Mindset-Pulse-sub000/logger"
	"github.com/Alidon256/Mindset-Pulse-sub000/middleware"
	"github.com/Alidon256/Mindset-Pulse-sub000/routes"
	"github.com/Alidon256/Mindset-Pulse-sub000/services"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.L().Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log, err := logger.Init(logger.Config{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		File:        cfg.Log.File,
	})
	if err != nil {
		logger.L().Error("failed to init logger", "error", err)
		os.Exit(1)
	}
	log.Info("starting application", "env", cfg.Server.Env, "store", cfg.Mongo.Store)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	helpers.SetJWTKey(cfg.Security.JWTSecret)

	var (
		checkIns    services.CheckInStore
		progression services.ProgressionStore
	)
	switch cfg.Mongo.Store {
	case "memory":
		checkIns = services.NewMemoryCheckInStore()
		progression = services.NewMemoryProgressionStore()
	default:
		client, err := config.ConnectDB(ctx, cfg.Mongo, log)
		if err != nil {
			log.Error("mongo connection failed", "error", err)
			os.Exit(1)
		}
		defer client.Disconnect(context.Background())
		db := client.Database(cfg.Mongo.Database)
		checkIns = services.NewMongoCheckInStore(db)
		progression = services.NewMongoProgressionStore(db)
	}

	updater := services.NewProgressionUpdater(progression, cfg.Progression.MaxAttempts, cfg.Progression.WriteTimeout, log)

	handler := &controllers.Handler{
		CheckIns:    checkIns,
		Progression: updater,
		Location:    cfg.Location(),
	}

	rdb, err := config.ConnectRedis(ctx, cfg.Redis, log)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	var worker *services.SessionWorker
	if rdb != nil {
		defer rdb.Close()
		queue := services.NewSessionQueue(rdb, cfg.Redis.QueueKey)
		handler.Queue = queue
		if n, err := queue.Recover(ctx); err != nil {
			log.Error("failed to requeue unfinished session jobs", "error", err)
			os.Exit(1)
		} else if n > 0 {
			log.Warn("requeued unfinished session jobs", "count", n)
		}
		worker = services.NewSessionWorker(queue, updater, cfg.Location(), cfg.Redis.MaxJobAttempts, log)
	}

	if cfg.Server.Env == "production" || cfg.Server.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())
	routes.SetupRoutes(r, handler)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Progression.WriteTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if worker != nil {
		g.Go(func() error {
			return worker.Run(gctx)
		})
	}

	runErr := g.Wait()

	// Detached progression writes may still be running; let them finish
	// before the deferred disconnects close the store.
	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.Progression.WriteTimeout)
	defer cancel()
	if err := updater.Wait(drainCtx); err != nil {
		log.Error("progression writes still running at exit", "error", err)
	}

	if runErr != nil {
		log.Error("server stopped with error", "error", runErr)
		os.Exit(1)
	}
	log.Info("server stopped")
}
