package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/train-seat-booking/internal/config"
	"github.com/iliyamo/train-seat-booking/internal/database"
	"github.com/iliyamo/train-seat-booking/internal/handler"
	"github.com/iliyamo/train-seat-booking/internal/logger"
	"github.com/iliyamo/train-seat-booking/internal/middleware"
	"github.com/iliyamo/train-seat-booking/internal/queue"
	"github.com/iliyamo/train-seat-booking/internal/repository"
	"github.com/iliyamo/train-seat-booking/internal/router"
	"github.com/iliyamo/train-seat-booking/internal/seating"
	"github.com/iliyamo/train-seat-booking/internal/service"
)

func main() {
	// a missing .env is fine: containers pass real environment variables
	envErr := godotenv.Load()

	cfg := config.Load()
	appLog := logger.New(cfg.Env, cfg.LogLevel)
	if envErr != nil {
		appLog.Info("no .env file found, using process environment")
	}

	layout := config.LoadLayout()
	alloc, err := seating.New(layout)
	if err != nil {
		log.Fatalf("seat layout: %v", err) // LoadLayout already validated; unreachable
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(migrateCtx, db); err != nil {
		cancelMigrate()
		log.Fatalf("migrate: %v", err)
	}
	cancelMigrate()

	// Redis only backs caching and rate limiting; run without it if absent.
	cacheCfg := config.LoadCacheConfig()
	rlCfg := config.LoadRateLimitConfig()
	var rdb *redis.Client
	if cacheCfg.Enabled || rlCfg.Enabled {
		rdb, err = config.NewRedisClient()
		if err != nil {
			appLog.Warn("redis unavailable, cache and rate limit disabled", slog.String("error", err.Error()))
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}
	purge := func(ctx context.Context) error {
		return middleware.Purge(ctx, rdb, cacheCfg.Prefix)
	}

	queueCfg := config.LoadQueueConfig()
	publisher := service.NewPublisher(queueCfg, appLog.Logger)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if queueCfg.Consume {
		consumer := queue.NewConsumer(queueCfg, appLog)
		go func() {
			if err := consumer.Run(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
				appLog.Error("booking consumer stopped", slog.String("error", err.Error()))
			}
		}()
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	bookings := repository.NewBookingRepo(db, layout)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewRequestValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(appLog.Logger))
	e.Use(middleware.NewTokenBucket(rlCfg, rdb, appLog.Logger))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens, appLog), cfg.JWTSecret)
	router.RegisterSeats(e, handler.NewSeatsHandler(alloc, bookings, appLog), middleware.NewRedisCache(cacheCfg, rdb))
	router.RegisterBookings(e, handler.NewBookingHandler(alloc, bookings, publisher, purge, appLog), cfg.JWTSecret)
	router.RegisterAdmin(e, handler.NewAdminHandler(bookings, publisher, purge, appLog), cfg.JWTSecret)

	addr := ":" + cfg.Port
	go func() {
		appLog.Info("listening",
			slog.String("addr", addr),
			slog.String("env", cfg.Env),
			slog.Int("seats", layout.Total),
			slog.Bool("redis", rdb != nil),
		)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	<-rootCtx.Done()
	appLog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		appLog.Error("forced shutdown", slog.String("error", err.Error()))
	}
}
