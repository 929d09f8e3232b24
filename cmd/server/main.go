package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"disha/internal/config"
	"disha/internal/database"
	"disha/internal/handlers"
	"disha/internal/jobs"
	"disha/internal/llm"
	"disha/internal/logging"
	"disha/internal/middleware"
	"disha/internal/services"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/fsnotify/fsnotify"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting Disha Health Coach Server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	}

	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s, DB: %s)", cfg.Port, cfg.DatabaseName)

	// MongoDB is required
	db, err := database.NewMongoDB(cfg.MongoURI, cfg.DatabaseName)
	if err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}
	defer db.Close(context.Background())

	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelInit()
	if err := db.Initialize(initCtx); err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	// Redis is optional: without it, per-user chat rate limits are disabled
	var redisService *services.RedisService
	if cfg.RedisURL != "" {
		redisService, err = services.NewRedisService(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️ Redis unavailable, per-user rate limits disabled: %v", err)
			redisService = nil
		} else {
			defer redisService.Close()
		}
	}

	// LLM provider
	provider, err := llm.NewProvider(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize LLM provider: %v", err)
	}
	log.Printf("🤖 LLM provider ready (model: %s)", provider.ModelName())

	// Services
	connManager := services.NewConnectionManager()
	metrics := services.InitMetrics(connManager)

	userService := services.NewUserService(db)
	messageService := services.NewMessageService(db)
	extractor := services.NewRegexSlotExtractor()
	onboardingService := services.NewOnboardingService(userService, extractor)
	memoryService := services.NewMemoryService(db, provider)
	protocolService := services.NewProtocolService(db)
	contextBuilder := services.NewContextBuilder(cfg.MaxContextTokens)

	orchestrator := services.NewChatOrchestrator(
		userService,
		messageService,
		onboardingService,
		memoryService,
		protocolService,
		contextBuilder,
		provider,
		connManager,
		metrics,
	)

	// Seed the protocol catalog
	if err := protocolService.SeedProtocols(initCtx, cfg.ProtocolSeedFile); err != nil {
		log.Fatalf("❌ Failed to seed protocols: %v", err)
	}

	// Watch the seed file for edits and re-seed on change
	if cfg.ProtocolSeedFile != "" {
		go watchSeedFile(cfg.ProtocolSeedFile, protocolService)
	}

	// Periodic cache refresh picks up out-of-band catalog edits.
	// Interval 0 disables the job.
	var refresher *jobs.ProtocolRefresher
	if cfg.ProtocolRefreshMinutes > 0 {
		refresher, err = jobs.NewProtocolRefresher(protocolService, cfg.ProtocolRefreshMinutes)
		if err != nil {
			log.Fatalf("❌ Failed to create protocol refresher: %v", err)
		}
		if err := refresher.Start(); err != nil {
			log.Fatalf("❌ Failed to start protocol refresher: %v", err)
		}
	}

	// Handlers
	chatHandler := handlers.NewChatHandler(orchestrator, userService)
	userHandler := handlers.NewUserHandler(userService, memoryService)
	protocolHandler := handlers.NewProtocolHandler(protocolService)
	wsHandler := handlers.NewWebSocketHandler(connManager, metrics)
	healthHandler := handlers.NewHealthHandler(db)

	var whatsappService *services.WhatsAppService
	if cfg.WhatsAppEnabled() {
		whatsappService = services.NewWhatsAppService(cfg.WAAccessToken, cfg.WAPhoneNumberID)
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Disha Health Coach",
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	// Prometheus metrics middleware
	prom := fiberprometheus.New("disha")
	prom.RegisterAt(app, "/metrics")
	app.Use(prom.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	app.Use(middleware.GlobalRateLimiter())

	// Health
	app.Get("/health", healthHandler.Liveness)
	app.Get("/health/ready", healthHandler.Readiness)

	// Chat
	chatLimiter := middleware.ChatRateLimiter(redisService, cfg.RateLimitPerMinute)
	app.Post("/api/messages", chatLimiter, chatHandler.SendMessage)
	app.Get("/api/messages", chatHandler.GetMessages)
	app.Get("/api/messages/latest", chatHandler.GetLatestMessages)

	// Users
	app.Post("/api/users", userHandler.CreateUser)
	app.Get("/api/users/:userID", userHandler.GetUser)
	app.Patch("/api/users/:userID", userHandler.UpdateUser)
	app.Get("/api/users/:userID/memories", userHandler.GetUserMemories)
	app.Delete("/api/users/:userID/memories", userHandler.ClearUserMemories)

	// Protocols
	app.Get("/api/protocols", protocolHandler.ListProtocols)
	app.Get("/api/protocols/match", protocolHandler.MatchProtocols)
	app.Post("/api/protocols/refresh", protocolHandler.RefreshProtocols)
	app.Get("/api/protocols/:name", protocolHandler.GetProtocol)
	app.Put("/api/protocols/:name", protocolHandler.UpsertProtocol)
	app.Delete("/api/protocols/:name", protocolHandler.DeactivateProtocol)

	// WhatsApp webhook
	if whatsappService != nil {
		waHandler := handlers.NewWhatsAppWebhookHandler(orchestrator, whatsappService, cfg.WAVerifyToken)
		app.Get("/api/webhooks/whatsapp", waHandler.Verify)
		app.Post("/api/webhooks/whatsapp", chatLimiter, waHandler.Receive)
		log.Println("📱 WhatsApp webhook routes enabled")
	}

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/chat/:userID", websocket.New(wsHandler.Handle))

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		if refresher != nil {
			if err := refresher.Stop(); err != nil {
				log.Printf("⚠️ Error stopping protocol refresher: %v", err)
			}
		}

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// watchSeedFile re-seeds the protocol catalog when the seed file changes
func watchSeedFile(filePath string, protocols *services.ProtocolService) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("⚠️  Failed to create file watcher: %v", err)
		return
	}
	defer watcher.Close()

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		log.Printf("⚠️  Failed to get absolute path for %s: %v", filePath, err)
		return
	}

	// Watching the directory is more reliable than watching the file itself
	dir := filepath.Dir(absPath)
	filename := filepath.Base(absPath)

	if err := watcher.Add(dir); err != nil {
		log.Printf("⚠️  Failed to watch directory %s: %v", dir, err)
		return
	}

	log.Printf("👁️  Watching %s for changes (hot-reload enabled)", filePath)

	// Debounce rapid editor write bursts
	var debounceTimer *time.Timer
	debounceDuration := 500 * time.Millisecond

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDuration, func() {
					log.Printf("🔄 Detected changes in %s, re-seeding protocols...", filePath)

					ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
					defer cancel()

					if err := protocols.SeedProtocols(ctx, filePath); err != nil {
						log.Printf("❌ Failed to re-seed protocols: %v", err)
					} else {
						log.Printf("✅ Protocols re-seeded from %s", filePath)
					}
				})
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("⚠️  File watcher error: %v", err)
		}
	}
}
