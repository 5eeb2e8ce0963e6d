package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/mohitb777/conference-scheduler/api/swagger"
	"github.com/mohitb777/conference-scheduler/internal/catalog"
	"github.com/mohitb777/conference-scheduler/internal/handler"
	"github.com/mohitb777/conference-scheduler/internal/mailer"
	"github.com/mohitb777/conference-scheduler/internal/middleware"
	"github.com/mohitb777/conference-scheduler/internal/repository"
	"github.com/mohitb777/conference-scheduler/internal/service"
	"github.com/mohitb777/conference-scheduler/pkg/cache"
	"github.com/mohitb777/conference-scheduler/pkg/config"
	"github.com/mohitb777/conference-scheduler/pkg/database"
	"github.com/mohitb777/conference-scheduler/pkg/logger"
	corsmiddleware "github.com/mohitb777/conference-scheduler/pkg/middleware/cors"
	reqidmiddleware "github.com/mohitb777/conference-scheduler/pkg/middleware/requestid"
)

// @title Conference Scheduler API
// @version 1.0.0
// @description Presentation scheduling and confirmation service for conference papers
// @BasePath /api/v1
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, exports run uncached", zap.Error(err))
		redisClient = nil
	}

	sessionCatalog := catalog.New(cfg.Conference.DayOne, cfg.Conference.DayTwo)
	validate := validator.New()

	assignmentRepo := repository.NewAssignmentRepository(db)
	paperRepo := repository.NewPaperRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	var notifier service.TokenNotifier
	if cfg.SMTP.Enabled {
		notifier = mailer.New(cfg.SMTP, cfg.Conference, cfg.Schedule.ConfirmationTTL, logr)
	}

	metricsSvc := service.NewMetricsService()
	schedulerSvc := service.NewSchedulerService(assignmentRepo, paperRepo, sessionCatalog, cfg.Schedule.SessionCapacity, validate, logr)
	confirmationSvc := service.NewConfirmationService(assignmentRepo, paperRepo, notifier, cfg.Schedule.ConfirmationTTL, logr)
	paperSvc := service.NewPaperService(paperRepo, sessionCatalog, validate, logr)
	exportSvc := service.NewExportService(assignmentRepo, cacheRepo, sessionCatalog, cfg.Conference.Name, cfg.Schedule.CacheTTL, logr)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.Conference.Name,
	})

	scheduleHandler := handler.NewScheduleHandler(schedulerSvc, exportSvc, metricsSvc)
	paperHandler := handler.NewPaperHandler(paperSvc)
	confirmationHandler := handler.NewConfirmationHandler(confirmationSvc, exportSvc, metricsSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	authHandler := handler.NewAuthHandler(authSvc)
	catalogHandler := handler.NewCatalogHandler(sessionCatalog)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	// public: author-facing links and read-only schedule queries
	api.POST("/auth/login", authHandler.Login)
	api.GET("/sessions", catalogHandler.Sessions)
	api.GET("/tracks", catalogHandler.Tracks)
	api.GET("/schedules", scheduleHandler.List)
	api.GET("/schedules/check-availability", scheduleHandler.CheckAvailability)
	api.GET("/schedules/session-capacity", scheduleHandler.SessionCapacity)
	api.GET("/schedules/available-slots", scheduleHandler.AvailableSlots)
	api.GET("/schedules/:paperId", scheduleHandler.Get)
	api.GET("/confirmations/resolve", confirmationHandler.Resolve)

	// admin: schedule mutations and mail-outs
	admin := api.Group("")
	admin.Use(middleware.JWT(authSvc))
	admin.POST("/papers", paperHandler.Create)
	admin.GET("/papers", paperHandler.List)
	admin.GET("/papers/:paperId", paperHandler.Get)
	admin.POST("/schedules", scheduleHandler.Create)
	admin.POST("/schedules/check-conflicts", scheduleHandler.CheckConflicts)
	admin.PUT("/schedules/:paperId", scheduleHandler.Reschedule)
	admin.DELETE("/schedules/:paperId", scheduleHandler.Delete)
	admin.POST("/confirmations/send-emails", confirmationHandler.SendEmails)
	admin.POST("/confirmations/send/:paperId", confirmationHandler.SendConfirmation)
	admin.GET("/exports/schedule.csv", exportHandler.CSV)
	admin.GET("/exports/schedule.pdf", exportHandler.PDF)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
