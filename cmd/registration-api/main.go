package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-registration-api/internal/handler"
	"github.com/noah-isme/course-registration-api/internal/notification"
	"github.com/noah-isme/course-registration-api/internal/repository"
	"github.com/noah-isme/course-registration-api/internal/service"
	"github.com/noah-isme/course-registration-api/pkg/cache"
	"github.com/noah-isme/course-registration-api/pkg/config"
	"github.com/noah-isme/course-registration-api/pkg/database"
	"github.com/noah-isme/course-registration-api/pkg/logger"
)

// @title Course Registration API
// @version 1.0.0
// @description Cart checkout, enrollment lifecycle, transcripts and GPA.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()
	validate := validator.New()

	var cacheRepo service.CacheRepository
	checks := map[string]handler.Pinger{"postgres": db}
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, transcript cache disabled", zap.Error(err))
		} else {
			redisRepo := repository.NewCacheRepository(client, logr)
			defer redisRepo.Close()
			cacheRepo = redisRepo
			checks["redis"] = handler.PingFunc(redisRepo.Ping)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TranscriptTTL, logr, cacheRepo != nil)

	var notifier service.Notifier = notification.NewLogNotifier(logr)
	if cfg.Notifications.Enabled && len(cfg.Kafka.Brokers) > 0 {
		publisher := notification.NewKafkaPublisher(cfg.Kafka)
		defer publisher.Close()
		dispatcher := notification.NewDispatcher(publisher, cfg.Notifications, logr)
		dispatcher.Start(ctx)
		defer dispatcher.Stop()
		notifier = dispatcher
	}

	students := repository.NewStudentRepository(db)
	instructors := repository.NewInstructorRepository(db)
	offerings := repository.NewOfferingRepository(db)
	slots := repository.NewScheduleSlotRepository(db)
	carts := repository.NewCartRepository(db)
	enrollments := repository.NewEnrollmentRepository(db)
	transcripts := repository.NewTranscriptRepository(db)
	configurations := repository.NewConfigurationRepository(db)
	audits := repository.NewAuditRepository(db)

	settingsSvc := service.NewRegistrationSettingsService(configurations, cfg.Registration, audits, validate, logr)
	recordSvc := service.NewAcademicRecordService(service.AcademicRecordDeps{
		Tx:          db,
		Students:    students,
		Transcripts: transcripts,
		Enrollments: enrollments,
		Policy:      settingsSvc,
		Cache:       cacheSvc,
		Metrics:     metrics,
		Audit:       audits,
	}, validate, logr)
	recomputer := service.NewGPARecomputer(recordSvc, logr)
	recomputer.Start(ctx)
	defer recomputer.Stop()
	settingsSvc.OnRetakePolicyChange(recomputer.RetakePolicyChanged)
	syncer := service.NewTranscriptSynchronizer(transcripts, recordSvc, logr)
	enrollmentSvc := service.NewEnrollmentService(service.EnrollmentDeps{
		Tx:          db,
		Offerings:   offerings,
		Enrollments: enrollments,
		Students:    students,
		Transcripts: syncer,
		Settings:    settingsSvc,
		Records:     recordSvc,
		Metrics:     metrics,
		Audit:       audits,
		Notifier:    notifier,
	}, validate, logr)
	cartSvc := service.NewCartService(service.CartDeps{
		Tx:        db,
		Carts:     carts,
		Slots:     slots,
		Students:  students,
		Validator: service.NewCheckoutValidator(enrollments, offerings),
		Enroller:  enrollmentSvc,
		Records:   recordSvc,
		Metrics:   metrics,
		Audit:     audits,
		Notifier:  notifier,
	}, validate, logr)

	tokens := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})
	identity := service.NewIdentityService(students, instructors, logr)

	r := newRouter(cfg, logr, routerDeps{
		tokens:      tokens,
		identity:    identity,
		metrics:     metrics,
		cart:        handler.NewCartHandler(cartSvc),
		enrollments: handler.NewEnrollmentHandler(enrollmentSvc),
		records:     handler.NewAcademicRecordHandler(recordSvc),
		settings:    handler.NewSettingsHandler(settingsSvc),
		probes:      handler.NewMetricsHandler(metrics, checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
