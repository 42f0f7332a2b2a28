// @title           ComicForge Backend API
// @version         1.0.0
// @description     Backend API for turning story prose into illustrated comic panels via Replicate image generation. Handles projects, panels, characters, a credit ledger and PDF export.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"log"
	"math/rand"
	"net/http"
	"net/url"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"comicforge-backend/docs"
	"comicforge-backend/internal/config"
	"comicforge-backend/internal/generator"
	"comicforge-backend/internal/handlers"
	"comicforge-backend/internal/middleware"
	"comicforge-backend/internal/replicate"
	"comicforge-backend/internal/storage"
	"comicforge-backend/internal/store"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Update Swagger docs with dynamic base URL
	if cfg.BaseURL != "" {
		if baseURL, err := url.Parse(cfg.BaseURL); err == nil {
			docs.SwaggerInfo.Host = baseURL.Host
			if baseURL.Scheme == "https" {
				docs.SwaggerInfo.Schemes = []string{"https", "http"}
			} else {
				docs.SwaggerInfo.Schemes = []string{"http", "https"}
			}
		}
	}

	// Select the store persistence backend
	backend, err := newBackend(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize store backend: %v", err)
	}

	comicStore, err := store.New(backend, cfg.StartingCredits)
	if err != nil {
		log.Fatalf("Failed to load store: %v", err)
	}

	// Periodic snapshots (optional)
	if cfg.SnapshotSchedule != "" {
		snapshotter := store.NewSnapshotter(comicStore, cfg.SnapshotDir)
		if err := snapshotter.Start(cfg.SnapshotSchedule); err != nil {
			log.Printf("Warning: snapshots disabled: %v", err)
		} else {
			defer snapshotter.Stop()
		}
	}

	// Initialize Replicate client
	replicateClient := replicate.NewClient(cfg.ReplicateAPIBaseURL, cfg.ReplicateAPIToken)

	// Optional image mirroring to Supabase Storage
	var mirror generator.Mirror
	var imageCleaner handlers.ImageCleaner
	if cfg.SupabaseEnabled() {
		supabaseClient, err := storage.NewSupabaseClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, cfg.SupabaseStorageBucket)
		if err != nil {
			log.Printf("Warning: Supabase mirroring disabled: %v", err)
		} else {
			mirror = storage.NewMirrorService(replicateClient, supabaseClient, comicStore)
			imageCleaner = supabaseClient
		}
	}

	panelGenerator := generator.New(comicStore, replicateClient, mirror, rand.New(rand.NewSource(rand.Int63())))

	// Initialize handlers
	projectsHandler := handlers.NewProjectsHandler(comicStore, imageCleaner)
	panelsHandler := handlers.NewPanelsHandler(comicStore)
	charactersHandler := handlers.NewCharactersHandler(comicStore)
	creditsHandler := handlers.NewCreditsHandler(comicStore)
	generateHandler := handlers.NewGenerateHandler(comicStore, panelGenerator)
	exportHandler := handlers.NewExportHandler(comicStore)
	imagesHandler := handlers.NewImagesHandler(replicateClient)

	// Setup router
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
	}))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check (no auth)
	router.GET("/health", handlers.HealthHandler)

	// API routes
	api := router.Group("/api/v1")
	if cfg.JWTSecret != "" {
		api.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	}

	// Projects
	api.POST("/projects", projectsHandler.CreateProject)
	api.GET("/projects", projectsHandler.ListProjects)
	api.GET("/current-project", projectsHandler.GetCurrentProject)
	api.GET("/projects/:project_id", projectsHandler.GetProject)
	api.PATCH("/projects/:project_id", projectsHandler.UpdateProject)
	api.DELETE("/projects/:project_id", projectsHandler.DeleteProject)
	api.PUT("/projects/:project_id/current", projectsHandler.SetCurrentProject)

	// Panels
	api.PATCH("/projects/:project_id/panels/:panel_id", panelsHandler.UpdatePanel)
	api.DELETE("/projects/:project_id/panels/:panel_id", panelsHandler.DeletePanel)
	api.PUT("/projects/:project_id/panels/order", panelsHandler.ReorderPanels)

	// Characters
	api.POST("/projects/:project_id/characters", charactersHandler.CreateCharacter)
	api.PATCH("/projects/:project_id/characters/:character_id", charactersHandler.UpdateCharacter)

	// Generation
	api.POST("/projects/:project_id/generate", generateHandler.GeneratePanels)
	api.POST("/projects/:project_id/panels/:panel_id/regenerate", generateHandler.RegeneratePanel)
	api.POST("/generate", imagesHandler.GenerateImage)

	// Credits and export
	api.GET("/credits", creditsHandler.GetCredits)
	api.POST("/credits", creditsHandler.AddCredits)
	api.POST("/projects/:project_id/export", exportHandler.ExportPDF)

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func newBackend(cfg *config.Config) (store.Backend, error) {
	switch cfg.StoreBackend {
	case "postgres":
		return store.NewPostgresBackend(cfg.DatabaseURL)
	case "redis":
		return store.NewRedisBackend(cfg.RedisAddr)
	default:
		return store.NewFileBackend(cfg.StorePath)
	}
}
