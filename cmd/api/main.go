package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/clinibook/booking-api/config"
	"github.com/clinibook/booking-api/internal/email"
	"github.com/clinibook/booking-api/internal/handler"
	appointmentHandler "github.com/clinibook/booking-api/internal/handler/appointment"
	authHandler "github.com/clinibook/booking-api/internal/handler/auth"
	doctorHandler "github.com/clinibook/booking-api/internal/handler/doctor"
	staffHandler "github.com/clinibook/booking-api/internal/handler/staff"
	trainingHandler "github.com/clinibook/booking-api/internal/handler/training"
	"github.com/clinibook/booking-api/internal/middleware"
	"github.com/clinibook/booking-api/internal/repository/postgres"
	"github.com/clinibook/booking-api/internal/router"
	appointmentService "github.com/clinibook/booking-api/internal/service/appointment"
	auditService "github.com/clinibook/booking-api/internal/service/audit"
	authService "github.com/clinibook/booking-api/internal/service/auth"
	bookingService "github.com/clinibook/booking-api/internal/service/booking"
	doctorService "github.com/clinibook/booking-api/internal/service/doctor"
	slotService "github.com/clinibook/booking-api/internal/service/slot"
	trainingService "github.com/clinibook/booking-api/internal/service/training"
	"github.com/clinibook/booking-api/pkg/auth"
	"github.com/clinibook/booking-api/pkg/logger"
	"github.com/clinibook/booking-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Setup(nil)

	auditLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build audit logger")
	}
	defer auditLogger.Sync()

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := middleware.RegisterValidation(nil); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	doctorRepo := postgres.NewDoctorRepository(db)
	slotRepo := postgres.NewSlotRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	reportRepo := postgres.NewReportRepository(db)
	trainingRepo := postgres.NewTrainingRepository(db)
	bookingStore := postgres.NewBookingStore(db)

	// Services
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpiryHours)
	hasher := security.NewBcryptHasher(bcrypt.DefaultCost)
	auditSvc := auditService.NewService(auditLogger)

	var notifier email.Service
	if cfg.SMTP.Host != "" {
		notifier = email.NewSMTPService(cfg.SMTP)
	} else {
		notifier = email.NewNoop()
	}

	authSvc := authService.NewService(userRepo, jwtSvc, hasher)
	doctorSvc := doctorService.NewService(doctorRepo, userRepo)
	slotSvc, err := slotService.NewService(slotRepo, cfg.Clinic, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build slot service")
	}
	bookingSvc := bookingService.NewService(bookingStore, doctorSvc, userRepo, auditSvc, notifier, log.Logger)
	appointmentSvc := appointmentService.NewService(bookingStore, appointmentRepo, reportRepo, auditSvc, log.Logger)
	trainingSvc := trainingService.NewService(trainingRepo)

	// Middleware and handlers
	authMiddleware := middleware.NewAuthMiddleware(jwtSvc)

	h := handler.NewHandler()
	authH := authHandler.NewHandler(authSvc)
	doctorH := doctorHandler.NewHandler(doctorSvc, slotSvc, appointmentSvc)
	appointmentH := appointmentHandler.NewHandler(bookingSvc, appointmentSvc, doctorSvc)
	staffH := staffHandler.NewHandler(bookingSvc, appointmentSvc, slotSvc)
	trainingH := trainingHandler.NewHandler(trainingSvc)

	r := router.NewRouter(
		authMiddleware,
		authH,
		doctorH,
		appointmentH,
		staffH,
		trainingH,
		h,
		router.RouterConfig{
			RateLimitEnabled: cfg.RateLimit.Enabled,
			RateLimit:        rate.Limit(cfg.RateLimit.RPS),
			RateBurst:        cfg.RateLimit.Burst,
			CORSConfig:       middleware.DefaultCORSConfig(),
			MetricsPrefix:    "booking_api",
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
