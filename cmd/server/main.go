package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zsea1234/ZhiWU-sub000/internal/api"
	"github.com/zsea1234/ZhiWU-sub000/internal/core/service"
	"github.com/zsea1234/ZhiWU-sub000/internal/infrastructure/config"
	mongodb "github.com/zsea1234/ZhiWU-sub000/internal/infrastructure/db/mongo"
	redisdb "github.com/zsea1234/ZhiWU-sub000/internal/infrastructure/db/redis"
	"github.com/zsea1234/ZhiWU-sub000/internal/infrastructure/notify"
	"github.com/zsea1234/ZhiWU-sub000/internal/infrastructure/queue"
	"github.com/zsea1234/ZhiWU-sub000/pkg/logger"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Infrastructure ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(shutdownCtx)
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()

	gateway := mongodb.NewGateway(db)
	if err := gateway.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("index creation failed")
	}

	authRepo := mongodb.NewAuthRepository(db)
	if err := authRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("auth index creation failed")
	}

	dedup := redisdb.NewTickDedup(rdb)

	// --- Notification pipeline ---
	dispatcher := queue.NewDispatcher(cfg.Notify.Workers, notify.NewLogNotifier(log), log)
	dispatcher.Start(ctx)

	// --- Core services ---
	guard := service.NewGuard()
	coordinator := service.NewCoordinator(gateway, log)

	authService := service.NewAuthService(authRepo, cfg.JWTSecret, cfg.TokenTTL)
	propertyService := service.NewPropertyService(gateway, guard, dispatcher, log)
	bookingService := service.NewBookingService(gateway, guard, coordinator, dispatcher, log)
	leaseService := service.NewLeaseService(gateway, guard, coordinator, dispatcher, log)
	paymentService := service.NewPaymentService(gateway, guard, coordinator, dispatcher, log)
	ticketService := service.NewTicketService(gateway, guard, dispatcher, log)

	scheduler := api.InstrumentScheduler(service.NewSchedulerService(
		gateway, bookingService, leaseService, paymentService, coordinator, dedup, log,
	))

	// --- Background ticker ---
	if cfg.Scheduler.Interval > 0 {
		go func() {
			ticker := time.NewTicker(cfg.Scheduler.Interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case now := <-ticker.C:
					result, err := scheduler.Tick(ctx, now.UTC())
					if err != nil {
						log.Error().Err(err).Msg("scheduler tick failed")
						continue
					}
					log.Debug().
						Int("bookings_expired", result.BookingsExpired).
						Int("payments_generated", result.PaymentsGenerated).
						Int("payments_overdue", result.PaymentsOverdue).
						Int("leases_expired", result.LeasesExpired).
						Int("conflicts", result.Conflicts).
						Msg("scheduler tick")
				}
			}
		}()
	}

	// --- HTTP server ---
	e := api.NewRouter(api.Deps{
		Auth:       authService,
		Properties: propertyService,
		Bookings:   bookingService,
		Leases:     leaseService,
		Payments:   paymentService,
		Tickets:    ticketService,
		Scheduler:  scheduler,
		Audit:      gateway,
		Mongo:      db,
		Redis:      rdb,
		JWTSecret:  cfg.JWTSecret,
		Log:        log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil {
			log.Info().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}
