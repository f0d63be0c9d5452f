package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"resume-analyzer/internal/config"
	"resume-analyzer/internal/handlers"
	"resume-analyzer/internal/repositories"
	"resume-analyzer/internal/services"
)

func main() {
	cfg := config.Load()
	log.Println("✅ Config loaded successfully")

	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	docRepo := repositories.NewDocumentRepository(db)
	analysisRepo := repositories.NewAnalysisRepository(db)
	log.Println("✅ Repositories initialized successfully")

	storageService := services.NewStorageService(cfg.Storage.UploadPath)
	if err := storageService.EnsureUploadDir(); err != nil {
		log.Fatalf("❌ Failed to create upload directory: %v", err)
	}

	pdfParser := services.NewPDFParserService()
	log.Println("✅ Services initialized successfully")

	modelService, err := services.NewGeminiService(cfg.Gemini.APIKey)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Gemini AI: %v", err)
	}
	log.Println("✅ Gemini AI initialized successfully")

	preprocessor := services.NewPreprocessor(modelService, services.RetryConfig{
		Stage:        "chunk summarization",
		MaxRetries:   cfg.Analyzer.ChunkRetries,
		InitialDelay: cfg.Analyzer.RetryInitialDelay,
		Timeout:      cfg.Analyzer.ChunkTimeout,
	})

	cache := services.NewMemoryCache(cfg.Analyzer.CacheTTL, cfg.Analyzer.CacheMaxEntries)

	analyzer := services.NewAnalyzerService(modelService, preprocessor, cache, services.AnalyzerOptions{
		ExtractionRetry: services.RetryConfig{
			Stage:        "fact extraction",
			MaxRetries:   cfg.Analyzer.ExtractionRetries,
			InitialDelay: cfg.Analyzer.RetryInitialDelay,
			Timeout:      cfg.Analyzer.ExtractionTimeout,
		},
		AnalysisRetry: services.RetryConfig{
			Stage:        "deep analysis",
			MaxRetries:   cfg.Analyzer.AnalysisRetries,
			InitialDelay: cfg.Analyzer.RetryInitialDelay,
			Timeout:      cfg.Analyzer.AnalysisTimeout,
		},
	})
	log.Println("✅ Analyzer service initialized")

	worker := services.NewWorker(analysisRepo, analyzer, cfg.Worker.Concurrency)
	worker.Start(context.Background())

	analyzeHandler := handlers.NewAnalyzeHandler(analysisRepo, docRepo, pdfParser, analyzer, worker)
	resultHandler := handlers.NewResultHandler(analysisRepo)
	uploadHandler := handlers.NewUploadHandler(docRepo, storageService, pdfParser, cfg.Storage.MaxFileSize)
	log.Println("✅ Handlers initialized")

	app := fiber.New(fiber.Config{
		AppName:      "Resume Analyzer API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 200 * time.Second,
		BodyLimit:    int(cfg.Storage.MaxFileSize),
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	api.Post("/upload", uploadHandler.HandleUpload)
	api.Post("/analyze", analyzeHandler.HandleAnalyze)
	api.Post("/analyses", analyzeHandler.HandleEnqueue)
	api.Get("/analyses/:id", resultHandler.HandleGetAnalysis)
	api.Get("/analyses", resultHandler.HandleListAnalyses)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Resume Analyzer API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/upload",
				"POST /api/v1/analyze",
				"POST /api/v1/analyses",
				"GET /api/v1/analyses/:id",
				"GET /api/v1/analyses?user_id=",
			},
		})
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("\n🛑 Shutting down server...")
		worker.Stop()
		if err := app.Shutdown(); err != nil {
			log.Printf("❌ Server forced to shutdown: %v", err)
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("🚀 Server starting on %s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
