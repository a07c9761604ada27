package main

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

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/pethostel/internal/config"
	"github.com/Skotchmaster/pethostel/internal/db"
	"github.com/Skotchmaster/pethostel/internal/events"
	"github.com/Skotchmaster/pethostel/internal/httpserver"
	"github.com/Skotchmaster/pethostel/internal/identity"
	"github.com/Skotchmaster/pethostel/internal/logging"
	"github.com/Skotchmaster/pethostel/internal/middleware"
	loggingmw "github.com/Skotchmaster/pethostel/internal/middleware/logging"
	"github.com/Skotchmaster/pethostel/internal/repo"
	"github.com/Skotchmaster/pethostel/internal/service"
	"github.com/Skotchmaster/pethostel/internal/tokens"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DBDriver, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	defer db.Close(gdb)

	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("db migrate error: %v", err)
	}

	codec, err := tokens.NewCodec(tokens.Options{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
	})
	if err != nil {
		log.Fatalf("token codec error: %v", err)
	}

	publisher := newPublisher(cfg, logger)
	defer publisher.Close()

	svc := service.New(service.Deps{
		Users:      identity.NewGormStore(gdb, cfg.BcryptCost),
		Tokens:     repo.NewGormRepo(gdb),
		Codec:      codec,
		Events:     publisher,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	})

	e := newEcho(logger)
	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{Svc: svc},
		Bearer:      middleware.NewBearerAuth(codec),
		Ready:       func(ctx context.Context) error { return db.Ping(ctx, gdb) },
	})

	run(e, cfg.Addr, logger)
}

func newEcho(logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	return e
}

func newPublisher(cfg config.Config, logger *slog.Logger) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("session events disabled", "reason", "no kafka brokers")
		return events.Nop{}
	}
	p, err := events.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaSessionTopic)
	if err != nil {
		logger.Warn("session events disabled", "error", err)
		return events.Nop{}
	}
	logger.Info("session events enabled", "topic", cfg.KafkaSessionTopic, "brokers", cfg.KafkaBrokers)
	return p
}

func run(e *echo.Echo, addr string, logger *slog.Logger) {
	go func() {
		logger.Info("auth service listening", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("echo start", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo shutdown", "error", err)
	}
	logger.Info("auth service stopped")
}
