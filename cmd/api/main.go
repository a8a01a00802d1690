package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"pgfinder_backend/internal/controller"
	"pgfinder_backend/internal/middleware"
	"pgfinder_backend/internal/model"
	"pgfinder_backend/internal/search"
	"pgfinder_backend/pkg/config"
	"pgfinder_backend/pkg/cron"
	"pgfinder_backend/pkg/database"
	"pgfinder_backend/pkg/email"
	"pgfinder_backend/pkg/logger"
	"pgfinder_backend/pkg/seed"
	"pgfinder_backend/pkg/utils/jwt"
	"pgfinder_backend/pkg/utils/response"
	"pgfinder_backend/pkg/utils/storage"
)

func setupRoutes(app *fiber.App) {
	api := app.Group("/api", middleware.Identify(middleware.UserIsActive))

	controller.Mount(api, "/auth", controller.AuthActions())
	controller.Mount(api, "/listings", controller.ListingActions())
	controller.Mount(api, "/favorites", controller.FavoriteActions(), middleware.RequireAuth())
	controller.Mount(api, "/inquiries", controller.InquiryActions())
	controller.Mount(api, "/admin", controller.AdminActions(), middleware.RequireRole(model.RoleAdmin))

	api.Post("/upload", middleware.RequireAuth(), controller.UploadImages)
}

func newStorage(ctx context.Context, cfg config.UploadConfig) (storage.Storage, error) {
	if cfg.Backend == "s3" {
		return storage.NewS3Storage(ctx, storage.S3Options{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			PublicURL: cfg.S3.PublicURL,
		})
	}
	return storage.NewLocalStorage(cfg.Dir, cfg.PublicURL)
}

func main() {
	cfg := config.Load()

	log := logger.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)
	controller.InitLogger(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// run returns instead of exiting so deferred cleanup such as stopping the
// sweeper always happens.
func run(cfg *config.Config, log *slog.Logger) error {

	jwt.Init(cfg.JWT.Secret, cfg.JWT.TTL)
	if cfg.JWT.Secret == "change-me" {
		log.Warn("JWT_SECRET is not set, using the development default")
	}

	if err := database.InitDB(cfg.Database.DSN(), log); err != nil {
		return fmt.Errorf("could not connect to database: %w", err)
	}
	err := database.MigrateDatabase(log,
		&model.User{},
		&model.Listing{},
		&model.ListingImage{},
		&model.Favorite{},
		&model.Inquiry{},
	)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if err := seed.SeedAdmin(database.GetDB(), seed.AdminAccount{
		Name:     cfg.Admin.Name,
		Email:    cfg.Admin.Email,
		Phone:    cfg.Admin.Phone,
		Password: cfg.Admin.Password,
	}, log); err != nil {
		return fmt.Errorf("could not seed admin account: %w", err)
	}

	ctx := context.Background()
	fileStorage, err := newStorage(ctx, cfg.Upload)
	if err != nil {
		return fmt.Errorf("could not initialize upload storage: %w", err)
	}
	controller.InitUploadController(fileStorage, controller.UploadLimits{
		MaxFileSize: cfg.Upload.MaxFileSize,
		MaxFiles:    cfg.Upload.MaxFiles,
	})

	executor := search.NewExecutor(search.NewGormStore(database.GetDB()), cfg.Search.Snapshot)
	controller.InitListingController(search.NewService(executor, log))

	if cfg.Email.ResendAPIKey != "" {
		if err := email.InitEmailService(cfg.Email.ResendAPIKey, cfg.Email.From, log); err != nil {
			return fmt.Errorf("could not initialize email service: %w", err)
		}
		log.Info("email notifications enabled")
	}

	if cfg.Upload.SweepSchedule != "" {
		sweeper := cron.NewUploadSweeper(fileStorage, cron.NewGormImageIndex(database.GetDB()), cfg.Upload.SweepAge, log)
		scheduler, err := cron.InitUploadSweeperCron(cfg.Upload.SweepSchedule, sweeper, log)
		if err != nil {
			return fmt.Errorf("could not schedule upload sweeper: %w", err)
		}
		defer scheduler.Stop()
		log.Info("upload sweeper scheduled", "schedule", cfg.Upload.SweepSchedule, "max_age", cfg.Upload.SweepAge)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: response.ErrorHandler,
		BodyLimit:    int(cfg.Upload.MaxFileSize)*cfg.Upload.MaxFiles + 1024*1024,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	setupRoutes(app)

	if cfg.Upload.Backend != "s3" {
		app.Static("/uploads", cfg.Upload.Dir)
	}
	if cfg.Server.StaticDir != "" {
		app.Static("/", cfg.Server.StaticDir)
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info("shutting down")
		if err := app.Shutdown(); err != nil {
			log.Error("shutdown failed", "error", err)
		}
	}()

	log.Info("server is running", "port", cfg.Server.Port)
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}
