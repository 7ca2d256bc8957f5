package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/crosspost/configs"
	"github.com/maheshrc27/crosspost/internal/api/handlers"
	"github.com/maheshrc27/crosspost/internal/api/middleware"
	job "github.com/maheshrc27/crosspost/internal/jobs"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/platform"
	"github.com/maheshrc27/crosspost/internal/queue"
	"github.com/maheshrc27/crosspost/internal/repository"
	"github.com/maheshrc27/crosspost/internal/service"
	"github.com/maheshrc27/crosspost/internal/tokens"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	userRepo := repository.NewUserRepository(db)
	connectionRepo := repository.NewConnectionRepository(db)
	mediaItemRepo := repository.NewMediaItemRepository(db)
	postJobRepo := repository.NewPostJobRepository(db)
	postJobResultRepo := repository.NewPostJobResultRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	apiKeyRepo := repository.NewApiKeyRepository(db)

	tokenStore := tokens.NewStore(cfg.SecretKey, connectionRepo)

	tiktokClient := platform.NewTiktokClient(*cfg, tokenStore)
	youtubeClient := platform.NewYoutubeClient(*cfg, tokenStore)
	twitterClient := platform.NewTwitterClient(*cfg, tokenStore)
	linkedinClient := platform.NewLinkedinClient(*cfg)
	instagramClient := platform.NewInstagramClient(*cfg, tokenStore)
	facebookClient := platform.NewFacebookPageClient(*cfg, tokenStore)
	googleBusinessClient := platform.NewGoogleBusinessClient(*cfg, tokenStore, connectionRepo)

	registry := platform.NewRegistry(
		tiktokClient,
		youtubeClient,
		twitterClient,
		linkedinClient,
		instagramClient,
		facebookClient,
		googleBusinessClient,
	)

	googleRefresher := platform.NewGoogleRefresher(*cfg)
	tokenStore.RegisterRefresher(models.PlatformTiktok, tiktokClient)
	tokenStore.RegisterRefresher(models.PlatformYoutube, googleRefresher)
	tokenStore.RegisterRefresher(models.PlatformGoogleBusiness, googleRefresher)

	authService := service.NewAuthService(*cfg, userRepo)
	userService := service.NewUserService(userRepo)
	r2Service := service.NewR2Service(*cfg)
	publishService := service.NewPublishService(db, userRepo, connectionRepo, mediaItemRepo,
		postJobRepo, postJobResultRepo, settingsRepo, registry, r2Service)
	connectService := service.NewConnectService(*cfg, connectionRepo, tokenStore)
	mediaService := service.NewMediaService(mediaItemRepo, r2Service)
	settingsService := service.NewSettingsService(settingsRepo, connectionRepo)
	apiKeyService := service.NewApiKeyService(apiKeyRepo)

	authMiddleware := middleware.NewAuthMiddleware(*cfg, apiKeyService)

	auth := handlers.NewAuthHandler(*cfg, authService)
	app.Get("/login", auth.Login)
	app.Get("/login/callback", auth.LoginCallbackHandler)

	platformH := handlers.NewPlatformHandler(*cfg, connectService)
	app.Get("/auth/:platform/callback", platformH.CallbackHandler)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	user := handlers.NewUserHandler(userService)
	api.Get("/user/info", user.GetUserInfo)

	settings := handlers.NewSettingsHandler(settingsService)
	api.Get("/settings/info", settings.GetSettingsInfo)
	api.Post("/settings/update", settings.UpdateSettings)
	api.Post("/settings/business_location", settings.UpdateBusinessLocation)

	apiKeys := handlers.NewApiKeyHandler(apiKeyService)
	api.Post("/api_key/new", apiKeys.CreateApiKey)
	api.Get("/api_key/list", apiKeys.ListKeys)
	api.Post("/api_key/remove", apiKeys.RemoveAPIKey)

	media := handlers.NewMediaHandler(mediaService)
	api.Post("/media/upload", media.Upload)
	api.Get("/media", media.List)
	api.Post("/media/remove", media.Remove)

	publish := handlers.NewPublishHandler(publishService, client)
	api.Post("/publish", publish.CreatePublish)
	api.Get("/publish/jobs", publish.ListJobs)

	// connection api routes
	api.Get("/connect/:platform", platformH.Connect)
	api.Get("/accounts", platformH.ListConnections)
	api.Post("/accounts/remove", platformH.DeleteConnection)

	// cron jobs
	refreshTokenJob := job.NewTokenRefreshJob(connectionRepo, tokenStore)

	//queue
	queueW := queue.NewQueue(publishService)

	c := cron.New()
	c.AddFunc("@every 00h10m00s", refreshTokenJob.RefreshTokens)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishJob, queueW.HandlePublishJobTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
