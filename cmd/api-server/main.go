package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/medconnect/telemed-scheduling/internal/api"
	"github.com/medconnect/telemed-scheduling/internal/appointment"
	"github.com/medconnect/telemed-scheduling/internal/availability"
	"github.com/medconnect/telemed-scheduling/internal/config"
	"github.com/medconnect/telemed-scheduling/internal/db"
	"github.com/medconnect/telemed-scheduling/internal/doctor"
	"github.com/medconnect/telemed-scheduling/internal/logger"
	"github.com/medconnect/telemed-scheduling/internal/notification"
	"github.com/medconnect/telemed-scheduling/internal/payment"
	redisclient "github.com/medconnect/telemed-scheduling/internal/redis"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("config load error: " + err.Error())
	}

	log := logger.New(cfg.Env, cfg.LogLevel)
	log.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := db.Migrate(cfg.PostgresDSN); err != nil {
		log.Fatal().Err(err).Msg("migration error")
	}
	log.Info().Msg("schema migrations applied")

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("error closing redis")
		}
	}()
	log.Info().Msg("connected to Redis")

	availRepo := availability.NewPgRepository(pgPool)
	availSvc := availability.NewService(availRepo, log)
	resolver, err := availability.NewResolver(availRepo, cfg.DefaultTimeZone)
	if err != nil {
		log.Fatal().Err(err).Msg("resolver init error")
	}

	doctorRepo := doctor.NewPgRepository(pgPool)
	locker := redisclient.NewRedisDoctorLocker(rdb, cfg.LockTTL)

	apptRepo := appointment.NewPgRepository(pgPool)
	apptSvc := appointment.NewService(apptRepo, doctorRepo, resolver, locker, cfg, log)

	notifRepo := notification.NewPgRepository(pgPool)
	apptSvc.SetTransitionListener(notification.NewTrigger(notifRepo, log))

	var opener payment.OrderOpener = payment.StubOrderOpener{}
	if cfg.ProcessorURL != "" {
		opener = payment.NewRESTOrderOpener(cfg.ProcessorURL, cfg.ProcessorKeyID, cfg.ProcessorKey)
	} else {
		log.Warn().Msg("no processor configured, using stub order ids")
	}
	paySvc := payment.NewService(payment.NewPgRepository(pgPool), apptSvc, opener, cfg.PaymentSecret, log)

	handler := api.NewRouter(api.RouterConfig{
		Availability:  availSvc,
		Appointments:  apptSvc,
		Doctors:       doctorRepo,
		Payments:      paySvc,
		Notifications: notifRepo,
		PgPool:        pgPool,
		Redis:         rdb,
		JWTSecret:     cfg.JWTSecret,
		Env:           cfg.Env,
		Version:       version,
		Logger:        log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-rootCtx.Done()

	log.Info().Msg("shutting down api-server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
