package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/medconnect/telemed-scheduling/internal/appointment"
	"github.com/medconnect/telemed-scheduling/internal/availability"
	"github.com/medconnect/telemed-scheduling/internal/config"
	"github.com/medconnect/telemed-scheduling/internal/db"
	"github.com/medconnect/telemed-scheduling/internal/doctor"
	"github.com/medconnect/telemed-scheduling/internal/logger"
	"github.com/medconnect/telemed-scheduling/internal/notification"
	redisclient "github.com/medconnect/telemed-scheduling/internal/redis"
)

// The expiry worker cancels appointments that sat in awaiting_payment
// longer than the configured TTL, freeing the doctor's slot for other
// patients.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("config load error: " + err.Error())
	}

	log := logger.New(cfg.Env, cfg.LogLevel)
	log.Info().
		Str("env", cfg.Env).
		Dur("interval", cfg.WorkerInterval).
		Dur("unpaid_ttl", cfg.UnpaidTTL).
		Msg("expiry-worker starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	availRepo := availability.NewPgRepository(pgPool)
	resolver, err := availability.NewResolver(availRepo, cfg.DefaultTimeZone)
	if err != nil {
		log.Fatal().Err(err).Msg("resolver init error")
	}

	repo := appointment.NewPgRepository(pgPool)
	locker := redisclient.NewRedisDoctorLocker(rdb, cfg.LockTTL)
	svc := appointment.NewService(repo, doctor.NewPgRepository(pgPool), resolver, locker, cfg, log)
	svc.SetTransitionListener(notification.NewTrigger(notification.NewPgRepository(pgPool), log))

	// Run once at startup
	runOnce(rootCtx, svc, log)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Info().Msg("shutdown signal received, stopping expiry worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, log)
		}
	}
}

func runOnce(ctx context.Context, svc *appointment.Service, log zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	if err := svc.CancelStaleAwaitingPayment(runCtx); err != nil {
		log.Error().Err(err).Msg("expiry run error")
		return
	}
	log.Info().Dur("took", time.Since(start)).Msg("expiry run complete")
}
