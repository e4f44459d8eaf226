package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/school-behavior-tracker/internal/config"
	"github.com/iliyamo/school-behavior-tracker/internal/database"
	"github.com/iliyamo/school-behavior-tracker/internal/handler"
	"github.com/iliyamo/school-behavior-tracker/internal/logging"
	"github.com/iliyamo/school-behavior-tracker/internal/metrics"
	"github.com/iliyamo/school-behavior-tracker/internal/middleware"
	"github.com/iliyamo/school-behavior-tracker/internal/queue"
	"github.com/iliyamo/school-behavior-tracker/internal/repository"
	"github.com/iliyamo/school-behavior-tracker/internal/router"
	"github.com/iliyamo/school-behavior-tracker/internal/seed"
	"github.com/iliyamo/school-behavior-tracker/internal/service"
	"github.com/iliyamo/school-behavior-tracker/internal/session"
	"github.com/iliyamo/school-behavior-tracker/internal/validate"
)

func main() {
	_ = godotenv.Load() // .env is optional
	cfg := config.Load()
	logging.Setup(cfg.Env, os.Stdout)
	log := logging.NewDefault("server")

	db, err := database.Open(cfg)
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("database migration failed")
	}

	users := repository.NewUserRepo(db)
	students := repository.NewStudentRepo(db)
	behaviors := repository.NewBehaviorRepo(db)
	notifications := repository.NewNotificationRepo(db)
	messages := repository.NewMessageRepo(db)

	if cfg.SeedDemo {
		if _, err := seed.Demo(context.Background(), users, students, behaviors, cfg.DefaultUserPassword, log); err != nil {
			log.WithError(err).Error("seeding demo data failed")
		}
	}

	// Redis is optional: without it sessions stay in memory and the login
	// limiter and stats cache are disabled.
	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}
	var store session.Store = session.NewMemoryStore()
	if cfg.SessionStore == "redis" {
		if rdb != nil {
			store = session.NewRedisStore(rdb, cfg.SessionPrefix)
		} else {
			log.Warn("SESSION_STORE=redis but redis is unreachable; using in-memory sessions")
		}
	}
	sessions := session.NewManager(store, session.Options{
		Secret:   cfg.SessionSecret,
		TTL:      cfg.SessionTTL,
		SameSite: cfg.SessionSameSite,
		Secure:   cfg.IsProduction(),
	})

	var events service.EventPublisher = service.NopPublisher{}
	if cfg.EventsEnabled {
		events = queue.NewPublisher(cfg.AMQPURL, logging.NewDefault("events"))
	}
	statsCache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb, logging.NewDefault("cache"))
	httpLog := logging.NewDefault("http")

	e := echo.New()
	e.HideBanner = true
	e.Validator = validate.New()
	e.HTTPErrorHandler = handler.ErrorHandler(httpLog)
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAccept},
		AllowCredentials: true,
	}))
	e.Use(metrics.Middleware())
	e.Use(middleware.Sessions(sessions, logging.NewDefault("session")))
	e.Use(middleware.RequestLogger(httpLog))

	router.RegisterRoutes(e)
	router.RegisterAuth(e,
		handler.NewAuthHandler(service.NewAuthService(users), sessions, httpLog),
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logging.NewDefault("ratelimit")),
	)
	router.RegisterData(e, router.Handlers{
		Users:    &handler.UserHandler{Users: users, DefaultPassword: cfg.DefaultUserPassword, Log: httpLog},
		Students: &handler.StudentHandler{Students: students, Log: httpLog},
		Behaviors: &handler.BehaviorHandler{
			Behaviors: behaviors,
			Service:   service.NewBehaviorService(users, students, behaviors, notifications, events, logging.NewDefault("behaviors")),
			Cache:     statsCache,
			Log:       httpLog,
		},
		Notifications: &handler.NotificationHandler{Notifications: notifications, Log: httpLog},
		Messages: &handler.MessageHandler{
			Service: service.NewMessageService(users, messages, notifications, events, logging.NewDefault("messages")),
			Log:     httpLog,
		},
	}, statsCache.Middleware())

	addr := ":" + cfg.Port
	go func() {
		log.WithFields(map[string]any{"addr": addr, "env": cfg.Env, "db": cfg.DBDriver}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
