package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/ayursutra/booking-api/internal/config"
	"github.com/ayursutra/booking-api/internal/email"
	"github.com/ayursutra/booking-api/internal/handler"
	appointmentHandler "github.com/ayursutra/booking-api/internal/handler/appointment"
	healthHandler "github.com/ayursutra/booking-api/internal/handler/health"
	notificationHandler "github.com/ayursutra/booking-api/internal/handler/notification"
	therapyHandler "github.com/ayursutra/booking-api/internal/handler/therapy"
	userHandler "github.com/ayursutra/booking-api/internal/handler/user"
	"github.com/ayursutra/booking-api/internal/middleware"
	"github.com/ayursutra/booking-api/internal/repository/postgres"
	"github.com/ayursutra/booking-api/internal/router"
	"github.com/ayursutra/booking-api/internal/schedule"
	appointmentService "github.com/ayursutra/booking-api/internal/service/appointment"
	notificationService "github.com/ayursutra/booking-api/internal/service/notification"
	therapyService "github.com/ayursutra/booking-api/internal/service/therapy"
	userService "github.com/ayursutra/booking-api/internal/service/user"
	"github.com/ayursutra/booking-api/pkg/logger"
	"github.com/ayursutra/booking-api/pkg/messaging/redis"
	"github.com/ayursutra/booking-api/pkg/metrics"
	"github.com/ayursutra/booking-api/pkg/security"
	"github.com/ayursutra/booking-api/pkg/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(&logger.Config{
		Level:  parseLogLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
		Output: os.Stdout,
	})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	loc, err := time.LoadLocation(cfg.Clinic.Timezone)
	if err != nil {
		log.Fatal(err, "invalid clinic timezone", "timezone", cfg.Clinic.Timezone)
	}
	workingHours, err := workingHoursFromConfig(cfg.Clinic)
	if err != nil {
		log.Fatal(err, "invalid working hours configuration")
	}

	m := metrics.NewMetrics("booking_api")

	appointmentRepo := postgres.NewAppointmentRepository(db)
	therapyRepo := postgres.NewTherapyRepository(db)
	userRepo := postgres.NewUserRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	var sender email.Sender = email.NoopSender{}
	if cfg.SMTP.Host != "" {
		sender = email.NewSMTPSender(cfg.SMTP, log)
	}

	notificationSvc := notificationService.NewService(notificationRepo, userRepo, sender, log)
	therapySvc := therapyService.NewService(therapyRepo, log)
	userSvc := userService.NewService(userRepo, security.NewBcryptHasher(0), log)

	policy := appointmentService.DefaultCancelPolicy(loc)
	if cfg.Booking.CancelNoticeHours > 0 {
		policy.NoticeHours = cfg.Booking.CancelNoticeHours
	}
	if cfg.Booking.FullRefundHours > 0 {
		policy.FullRefundHours = cfg.Booking.FullRefundHours
	}
	appointmentSvc := appointmentService.NewService(
		appointmentRepo,
		therapyRepo,
		userRepo,
		notificationSvc,
		appointmentService.Config{
			WorkingHours:       workingHours,
			MinDurationMinutes: cfg.Booking.MinDurationMinutes,
			Policy:             policy,
		},
		log,
		m,
	)

	tokens := security.NewTokenManager(cfg.JWT.Secret)
	authMiddleware := middleware.NewAuthMiddleware(tokens)

	handler.RegisterValidators()

	r := router.NewRouter(
		authMiddleware,
		userHandler.NewHandler(userSvc),
		appointmentHandler.NewHandler(appointmentSvc),
		therapyHandler.NewHandler(therapySvc),
		notificationHandler.NewHandler(notificationSvc),
		healthHandler.NewHandler(db),
		log,
		router.Config{
			RateLimit:      rate.Limit(cfg.Server.RateLimitRPS),
			RateBurst:      cfg.Server.RateLimitBurst,
			RequestTimeout: cfg.Server.RequestTimeout,
			CORSConfig:     middleware.DefaultCORSConfig(),
			MetricsPrefix:  "booking_api_http",
		},
	)
	r.Setup()

	broker, err := redis.NewBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, log)
	if err != nil {
		log.Fatal(err, "failed to connect to Redis")
	}
	defer broker.Close()

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()

	outboxProcessor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
		BatchSize:    cfg.Outbox.BatchSize,
		PollInterval: cfg.Outbox.PollInterval,
		RetryLimit:   cfg.Outbox.RetryLimit,
		RetryDelay:   cfg.Outbox.RetryDelay,
	}, log, m)
	go outboxProcessor.Start(workerCtx)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		log.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	stopWorker()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err, "server forced to shutdown")
	}

	log.Info("server exited properly")
}

func workingHoursFromConfig(cfg config.ClinicConfig) (schedule.WorkingHours, error) {
	hours := schedule.DefaultWorkingHours
	if cfg.WorkingHoursStart != "" {
		start, err := schedule.ParseTimeOfDay(cfg.WorkingHoursStart)
		if err != nil {
			return hours, err
		}
		hours.Start = start
	}
	if cfg.WorkingHoursEnd != "" {
		end, err := schedule.ParseTimeOfDay(cfg.WorkingHoursEnd)
		if err != nil {
			return hours, err
		}
		hours.End = end
	}
	if cfg.SlotMinutes > 0 {
		hours.SlotMinutes = cfg.SlotMinutes
	}
	return hours, nil
}

func parseLogLevel(level string) logger.Level {
	switch level {
	case "debug":
		return logger.DebugLevel
	case "warn":
		return logger.WarnLevel
	case "error":
		return logger.ErrorLevel
	default:
		return logger.InfoLevel
	}
}
