package main

import (
	"github.com/mediafolio/mediafolio/internal/config"
	"github.com/mediafolio/mediafolio/internal/handlers"
	"github.com/mediafolio/mediafolio/internal/models"
	"github.com/mediafolio/mediafolio/internal/services"
	"github.com/mediafolio/mediafolio/internal/storage"
	"github.com/mediafolio/mediafolio/internal/utils"
	"github.com/mediafolio/mediafolio/pkg/logger"
	"gorm.io/gorm"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	db        *gorm.DB
	taskQueue services.TaskQueue
	worker    *services.Worker
	scheduler *services.Scheduler

	corsOrigins []string

	authHandler        *handlers.AuthHandler
	profileHandler     *handlers.ProfileHandler
	teamHandler        *handlers.TeamHandler
	mediaHandler       *handlers.MediaHandler
	projectHandler     *handlers.ProjectHandler
	categoryHandler    *handlers.CategoryHandler
	interactionHandler *handlers.InteractionHandler
	systemLogHandler   *handlers.SystemLogHandler
	healthHandler      *handlers.HealthHandler
}

// bootstrap initializes all application dependencies: database, storage, queue, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	// Initialize database
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	db := models.GetDB()

	// Auto migrate database
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// Seed default data
	if err := models.SeedDefaultData(db); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default data")
	}

	// Initialize system logger
	services.InitSystemLogger(db)

	store, err := storage.NewLocalStorage(cfg.Storage.Root)
	if err != nil {
		logger.Fatalf("Failed to open storage at %s: %v", cfg.Storage.Root, err)
	}

	// Initialize task queue (uses Redis if enabled, otherwise sync mode)
	processor := services.NewMediaProcessor(db, store)
	taskQueue := services.InitTaskQueue(cfg)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(processor.Process)
	}

	// Start async worker if Redis is enabled
	var worker *services.Worker
	if taskQueue.IsAsync() {
		worker = services.NewWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(processor.Process)
			if err := worker.Start(); err != nil {
				logger.Error().Err(err).Msg("Failed to start media worker")
			}
		}
	}

	var scheduler *services.Scheduler
	if cfg.Scheduler.Enabled {
		scheduler = services.NewScheduler(db, &cfg.Scheduler, taskQueue)
		if err := scheduler.Start(); err != nil {
			logger.Fatalf("Failed to start scheduler: %v", err)
		}
	}

	var directory services.Directory
	if cfg.LDAP.Enabled {
		directory = services.NewLDAPService(&cfg.LDAP)
	}
	authService := services.NewAuthService(db, &cfg.JWT, directory)

	// Create default admin user
	if err := authService.CreateAdminIfNotExists(); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	handlers.RegisterGauges(db, taskQueue)

	projectService := services.NewProjectService(db, store, &cfg.Storage)
	return &appServices{
		db:          db,
		taskQueue:   taskQueue,
		worker:      worker,
		scheduler:   scheduler,
		corsOrigins: cfg.Server.CORSOrigins,

		authHandler:     handlers.NewAuthHandler(authService),
		profileHandler:  handlers.NewProfileHandler(services.NewProfileService(db, store, &cfg.Storage)),
		teamHandler:     handlers.NewTeamHandler(services.NewTeamService(db)),
		mediaHandler:    handlers.NewMediaHandler(services.NewMediaService(db, store, &cfg.Storage, taskQueue)),
		projectHandler:  handlers.NewProjectHandler(projectService),
		categoryHandler: handlers.NewCategoryHandler(projectService),
		interactionHandler: handlers.NewInteractionHandler(
			services.NewAssociationService(db),
			services.NewInteractionService(db),
		),
		systemLogHandler: handlers.NewSystemLogHandler(services.NewSystemLogService(db)),
		healthHandler:    handlers.NewHealthHandler(db, taskQueue),
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	if s.scheduler != nil {
		s.scheduler.Stop()
		logger.Info().Msg("Scheduler stopped")
	}
	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		if err := s.taskQueue.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close task queue")
		}
	}
	if sqlDB, err := s.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
