package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/themobileprof/symptomchat-be/internal/api"
	"github.com/themobileprof/symptomchat-be/internal/api/middleware"
	"github.com/themobileprof/symptomchat-be/internal/bootstrap"
	"github.com/themobileprof/symptomchat-be/internal/chat"
	"github.com/themobileprof/symptomchat-be/internal/circuitbreaker"
	"github.com/themobileprof/symptomchat-be/internal/db"
	"github.com/themobileprof/symptomchat-be/internal/language"
	"github.com/themobileprof/symptomchat-be/internal/memory"
	"github.com/themobileprof/symptomchat-be/internal/ws"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	// Get configuration from environment
	port := getEnv("PORT", "8080")
	databaseURL := getEnv("DATABASE_URL", "")
	sessionSecret := getEnv("SESSION_SECRET", "")
	allowedOrigins := splitList(getEnv("ALLOWED_ORIGINS", ""))
	topK := getEnvInt("TOP_K", 3)
	historyLimit := getEnvInt("HISTORY_LIMIT", memory.DefaultHistoryLimit)
	sessionTTL := time.Duration(getEnvInt("SESSION_TTL_HOURS", 24)) * time.Hour
	historyRetention := time.Duration(getEnvInt("HISTORY_RETENTION_HOURS", 24)) * time.Hour

	if sessionSecret == "" {
		log.Fatal("SESSION_SECRET is required")
	}
	if mode := getEnv("GIN_MODE", ""); mode != "" {
		gin.SetMode(mode)
	}

	// Load model, vocabulary, lexicon and disease catalog
	res := bootstrap.Load(bootstrap.Config{
		DataDir:      getEnv("DATA_DIR", "data"),
		ArtifactsDir: getEnv("ARTIFACTS_DIR", "artifacts"),
		LexiconPath:  getEnv("LEXICON_PATH", ""),
		LabelColumn:  getEnv("LABEL_COLUMN", ""),
	})

	// History storage: Postgres when configured, otherwise in memory
	var store chat.HistoryStore
	var prune func(ctx context.Context) (int64, error)
	if databaseURL != "" {
		database, err := db.NewFromURL(databaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.Close()

		if err := database.EnsureSchema(context.Background()); err != nil {
			log.Fatalf("Failed to prepare database schema: %v", err)
		}
		log.Println("✅ Database connected")

		breaker := circuitbreaker.New("history-db", 5, 30*time.Second)
		store = db.NewHistoryAdapter(database, historyLimit).WithBreaker(breaker)
		prune = func(ctx context.Context) (int64, error) {
			return database.DeleteEntriesBefore(ctx, time.Now().Add(-historyRetention))
		}
	} else {
		mem := memory.NewHistoryManager(historyLimit)
		log.Println("✅ Using in-memory chat history")

		store = mem
		prune = func(context.Context) (int64, error) {
			return int64(mem.PruneIdle(historyRetention)), nil
		}
	}

	langMgr := language.NewManager()
	chatEngine := chat.NewEngine(res, store, langMgr)
	chatEngine.SetTopK(topK)

	// Initialize handlers
	chatHandler := api.NewChatHandler(chatEngine)
	modelHandler := api.NewModelHandler(res)
	wsHandler := ws.NewChatHandler(chatEngine, allowedOrigins)
	sessions := middleware.NewSessionManager(sessionSecret, sessionTTL, gin.Mode() == gin.ReleaseMode)

	// Setup Gin router
	router := gin.Default()

	router.Use(middleware.CORS(allowedOrigins))
	router.Use(middleware.SecurityHeaders())

	// Apply global rate limiting (100 req/min per IP, burst of 200)
	router.Use(middleware.PerIP(100.0/60.0, 200))

	router.GET("/health", modelHandler.Health)
	router.GET("/api/model", modelHandler.GetModel)
	router.GET("/api/symptoms", modelHandler.GetSymptoms)

	// Chat routes (session + language + per-session rate limiting)
	chatGroup := router.Group("/api/chat")
	chatGroup.Use(middleware.Session(sessions))
	chatGroup.Use(middleware.Language(langMgr))
	chatGroup.Use(middleware.PerSession(30.0/60.0, 10))
	{
		chatGroup.GET("", middleware.RequireReady(res), chatHandler.GetHistory)
		chatGroup.POST("", middleware.RequireReady(res), chatHandler.PostMessage)
		chatGroup.POST("/reset", chatHandler.Reset)
	}

	// WebSocket chat route (session via cookie, header or ?token=)
	router.GET("/ws/chat",
		middleware.Session(sessions),
		middleware.Language(langMgr),
		wsHandler.HandleChat,
	)

	// Expire old history in the background
	pruneCtx, stopPrune := context.WithCancel(context.Background())
	defer stopPrune()
	go runPruner(pruneCtx, prune, time.Hour)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%s", port)
		if !res.Ready() {
			log.Printf("⚠️  Symptom checker not ready: %s", strings.Join(res.Problems(), "; "))
		}
		log.Printf("📝 API endpoints:")
		log.Printf("   GET    /health")
		log.Printf("   GET    /api/model")
		log.Printf("   GET    /api/symptoms")
		log.Printf("   GET    /api/chat")
		log.Printf("   POST   /api/chat")
		log.Printf("   POST   /api/chat/reset")
		log.Printf("   WS     /ws/chat")
		log.Printf("")
		log.Printf("Press Ctrl+C to stop")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func runPruner(ctx context.Context, prune func(context.Context) (int64, error), every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := prune(ctx)
			if err != nil {
				log.Printf("Warning: Failed to prune chat history: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("Pruned %d expired history record(s)", n)
			}
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		log.Printf("Warning: invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
