package main // Entry point package

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/eventdesk/internal/config"
	"github.com/iliyamo/eventdesk/internal/database"
	"github.com/iliyamo/eventdesk/internal/handler"
	"github.com/iliyamo/eventdesk/internal/metrics"
	"github.com/iliyamo/eventdesk/internal/middleware"
	"github.com/iliyamo/eventdesk/internal/model"
	"github.com/iliyamo/eventdesk/internal/queue"
	"github.com/iliyamo/eventdesk/internal/repository"
	"github.com/iliyamo/eventdesk/internal/router"
	"github.com/iliyamo/eventdesk/internal/service"
	"github.com/iliyamo/eventdesk/internal/utils"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := config.LoadDotEnv(); err != nil {
		logger.Error("read .env", "err", err)
		os.Exit(1)
	}
	cfg := config.Load()
	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}
	metrics.Init()

	var notifier service.Notifier
	if cfg.EmailsEnabled {
		notifier = queue.NewPublisher(cfg.RabbitMQURL, logger)
		consumer := &queue.Consumer{
			URL:    cfg.RabbitMQURL,
			Outbox: &queue.FileOutbox{Path: "logs/mail.log"},
			Log:    logger,
		}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("mail consumer stopped", "err", err)
			}
		}()
	}

	sessionCodec := utils.NewSessionCodec(cfg.JWTSecret)
	resetCodec := utils.NewResetCodec(cfg.JWTSecret, cfg.ResetTTL)
	accountsCfg := service.AccountsConfig{
		BcryptCost:       cfg.BcryptCost,
		OpenRegistration: cfg.OpenSignup,
		Mailer:           service.Mailer{ProjectName: cfg.ProjectName, FrontendHost: cfg.FrontendHost},
	}

	build := func(v model.Variant, firstEmail, firstPassword string) (router.VariantHandlers, error) {
		accounts := service.NewAccounts(repository.NewPrincipalRepo(db, v), accountsCfg, notifier, logger)
		created, err := accounts.Bootstrap(ctx, firstEmail, firstPassword)
		if err != nil {
			return router.VariantHandlers{}, err
		}
		if created {
			logger.Info("bootstrapped first privileged principal", "variant", string(v), "email", firstEmail)
		}
		sessions := service.NewSessions(accounts, sessionCodec, cfg.AccessTTL, logger)
		recovery := service.NewRecovery(accounts, resetCodec, logger)
		resources := service.NewResources(v, repository.NewResourceRepo(db, v), logger)
		return router.VariantHandlers{
			Sessions:   sessions,
			Auth:       handler.NewAuthHandler(sessions, recovery),
			Principals: handler.NewPrincipalHandler(accounts),
			Resources:  handler.NewResourceHandler(resources),
		}, nil
	}
	users, err := build(model.VariantUser, cfg.FirstSuperuser, cfg.FirstSuperuserPassword)
	if err != nil {
		return err
	}
	organizers, err := build(model.VariantOrganizer, cfg.FirstSuperorganizer, cfg.FirstSuperorganizerPwd)
	if err != nil {
		return err
	}

	rdb := config.NewRedisClient(logger)
	if rdb != nil {
		defer rdb.Close()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(logger))
	router.Register(e, router.Deps{
		Users:      users,
		Organizers: organizers,
		RateLimit:  middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		DB:         db,
	})

	addr := ":" + cfg.Port
	logger.Info("listening", "addr", addr, "env", cfg.Env)
	errc := make(chan error, 1)
	go func() { errc <- e.Start(addr) }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
