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
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/lapanclass-api/api/swagger"
	"github.com/noah-isme/lapanclass-api/internal/handler"
	"github.com/noah-isme/lapanclass-api/internal/repository"
	"github.com/noah-isme/lapanclass-api/internal/router"
	"github.com/noah-isme/lapanclass-api/internal/service"
	"github.com/noah-isme/lapanclass-api/migrations"
	"github.com/noah-isme/lapanclass-api/pkg/cache"
	"github.com/noah-isme/lapanclass-api/pkg/config"
	"github.com/noah-isme/lapanclass-api/pkg/database"
	"github.com/noah-isme/lapanclass-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/lapanclass-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/lapanclass-api/pkg/middleware/requestid"
	"github.com/noah-isme/lapanclass-api/pkg/storage"
)

// @title LapanClass API
// @version 1.0.0
// @description Class management backend: attendance, leave requests, calendar, schedules and treasury.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.AutoMigrate {
		if _, err := database.Migrate(ctx, db, migrations.FS, logr); err != nil {
			logr.Fatal("failed to migrate database", zap.Error(err))
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, holiday cache disabled", zap.Error(err))
		redisClient = nil
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	store, files, err := newProofStore(cfg)
	if err != nil {
		logr.Fatal("failed to init proof storage", zap.Error(err))
	}

	location := cfg.Calendar.Location()
	validate := service.NewValidator()
	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, service.CacheOptions{
		Prefix:     cfg.Redis.KeyPrefix,
		DefaultTTL: cfg.Calendar.HolidayCacheTTL,
		Enabled:    redisClient != nil,
	}, logr)

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	holidayRepo := repository.NewHolidayRepository(db)
	semesterRepo := repository.NewSemesterRepository(db)
	cashRepo := repository.NewCashRepository(db)

	authSvc := service.NewAuthService(userRepo, classRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	classSvc := service.NewClassService(classRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, classRepo, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, validate, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, subjectRepo, validate, logr)
	holidaySvc := service.NewHolidayService(holidayRepo, cacheSvc, cfg.Calendar.HolidayCacheTTL, location, validate, logr)
	semesterSvc := service.NewSemesterService(semesterRepo, location, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, studentRepo, holidaySvc, store, metrics, location, validate, logr)
	leaveSvc := service.NewLeaveService(attendanceRepo, studentRepo, holidaySvc, store, userRepo, metrics, service.LeaveConfig{
		MaxFileSizeBytes: cfg.Uploads.MaxFileSizeBytes,
		AllowedMIMEs:     cfg.Uploads.AllowedMIMEs,
	}, location, validate, logr)
	exportSvc := service.NewExportService(attendanceSvc, metrics, logr)
	cashSvc := service.NewCashService(cashRepo, location, validate, logr)

	handlers := router.Handlers{
		Auth:       handler.NewAuthHandler(authSvc),
		Users:      handler.NewUserHandler(userSvc),
		Classes:    handler.NewClassHandler(classSvc),
		Students:   handler.NewStudentHandler(studentSvc),
		Subjects:   handler.NewSubjectHandler(subjectSvc),
		Schedules:  handler.NewScheduleHandler(scheduleSvc),
		Calendar:   handler.NewCalendarHandler(holidaySvc),
		Semesters:  handler.NewSemesterHandler(semesterSvc, location),
		Attendance: handler.NewAttendanceHandler(attendanceSvc, location),
		Leave:      handler.NewLeaveHandler(leaveSvc, cfg.Uploads.MaxFileSizeBytes),
		Export:     handler.NewExportHandler(exportSvc, location),
		Cash:       handler.NewCashHandler(cashSvc, location),
		Metrics:    handler.NewMetricsHandler(metrics, healthChecks(db, cacheRepo, redisClient != nil)...),
	}
	if files != nil {
		handlers.Files = handler.NewFileHandler(files, logr)
	}

	r := gin.New()
	r.MaxMultipartMemory = cfg.Uploads.MaxFileSizeBytes + 1<<20
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	router.Register(r, handlers, router.Dependencies{
		Tokens:   authSvc,
		Audits:   userRepo,
		Observer: metrics,
		Logger:   logr,
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "storage", cfg.Storage.Driver, "timezone", location.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

// newProofStore picks the proof file driver. The local driver also returns the signed download source.
func newProofStore(cfg *config.Config) (storage.ObjectStore, *storage.LocalStorage, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverOSS:
		store, err := storage.NewOSSStorage(cfg.Storage.OSS)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	case config.StorageDriverLocal, "":
		signer := storage.NewSignedURLSigner(cfg.Storage.SignedURLSecret, cfg.Storage.SignedURLTTL)
		local, err := storage.NewLocalStorage(cfg.Storage.LocalDir, cfg.Storage.PublicURL, signer)
		if err != nil {
			return nil, nil, err
		}
		return local, local, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func healthChecks(db *sqlx.DB, cacheRepo *repository.CacheRepository, redisEnabled bool) []handler.HealthCheck {
	checks := []handler.HealthCheck{{Name: "postgres", Critical: true, Ping: db.PingContext}}
	if redisEnabled {
		checks = append(checks, handler.HealthCheck{Name: "redis", Ping: cacheRepo.Ping})
	}
	return checks
}
