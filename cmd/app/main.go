package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/airticket/api"
	"github.com/Domenick1991/airticket/config"
	"github.com/Domenick1991/airticket/internal/auth"
	"github.com/Domenick1991/airticket/internal/bootstrap"
	"github.com/Domenick1991/airticket/internal/cache"
	"github.com/Domenick1991/airticket/internal/kafka"
	"github.com/Domenick1991/airticket/internal/logger"
	"github.com/Domenick1991/airticket/internal/notification"
	"github.com/Domenick1991/airticket/internal/payment"
	"github.com/Domenick1991/airticket/internal/pricing"
	"github.com/Domenick1991/airticket/internal/repository"
	"github.com/Domenick1991/airticket/internal/service/booking"
	"github.com/Domenick1991/airticket/internal/service/flights"
	"github.com/Domenick1991/airticket/internal/service/loyalty"
	"github.com/Domenick1991/airticket/migrations"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN())
	if err != nil {
		log.WithError(err).Fatal("parse database config")
	}
	if cfg.Database.MaxConns > 0 {
		poolCfg.MaxConns = cfg.Database.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.WithError(err).Fatal("connect postgres")
	}
	defer pool.Close()

	if cfg.Database.Migrate {
		if err := migrations.Apply(ctx, pool); err != nil {
			log.WithError(err).Fatal("apply migrations")
		}
	}

	bookingRepo := repository.NewBookingRepository(pool)
	flightRepo := repository.NewFlightRepository(pool)
	seatRepo := repository.NewSeatRepository(pool)
	classRepo := repository.NewTravelClassRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	loyaltyRepo := repository.NewLoyaltyRepository(pool)
	txm := repository.NewTxManager(pool)

	checks := map[string]bootstrap.Pinger{"postgres": pool}

	var notifier booking.Notifier
	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, log)
		defer producer.Close()
		notifier = notification.NewKafkaNotifier(producer, cfg.Kafka.NotificationsTopic)
		checks["kafka"] = bootstrap.PingFunc(producer.CheckConnection)
	} else {
		log.Warn("No kafka brokers configured, notifications are only logged")
		notifier = notification.NewLogNotifier(log)
	}

	var flightCache flights.FlightCache
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.FlightsCacheTTL)*time.Second)
		defer redisCache.Close()
		flightCache = redisCache
		checks["redis"] = redisCache
	}

	taxRate, err := pricing.FromFloat(cfg.Pricing.TaxRate)
	if err != nil {
		log.WithError(err).Fatal("invalid tax rate")
	}

	gateway := payment.NewMockGateway(
		payment.WithLatency(cfg.Payment.Latency()),
		payment.WithDeclineRate(cfg.Payment.DeclineRate),
	)
	loyaltyService := loyalty.NewLoyaltyService(txm, userRepo, loyaltyRepo, log)
	bookingService := booking.NewBookingService(
		booking.Repositories{
			Bookings: bookingRepo,
			Flights:  flightRepo,
			Seats:    seatRepo,
			Classes:  classRepo,
			Users:    userRepo,
		},
		txm,
		gateway,
		loyaltyService,
		notifier,
		log,
		booking.WithTaxRate(taxRate),
		booking.WithPaymentTimeout(cfg.Payment.Timeout()),
		booking.WithNotifyTimeout(time.Duration(cfg.Booking.NotifyTimeoutMillis)*time.Millisecond),
	)
	flightService := flights.NewFlightService(flightRepo, flightCache, log)

	router := bootstrap.NewRouter(cfg, log, auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.Issuer), bootstrap.Handlers{
		Bookings: api.NewBookingHandler(bookingService),
		Flights:  api.NewFlightHandler(flightService),
		Loyalty:  api.NewLoyaltyHandler(loyaltyService),
	}, checks)

	if err := bootstrap.Run(ctx, cfg, router, log); err != nil {
		log.WithError(err).Error("server error")
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Worker.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	if err := bookingService.Wait(drainCtx); err != nil {
		log.WithError(err).Warn("pending notifications were not drained")
	}
	log.Info("Server exited")
}
