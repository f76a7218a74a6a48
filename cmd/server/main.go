package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"

	"saga-server/internal/adjust"
	"saga-server/internal/clients"
	"saga-server/internal/config"
	"saga-server/internal/handler"
	"saga-server/internal/messaging"
	"saga-server/internal/middleware"
	"saga-server/internal/repository"
	"saga-server/internal/service"
	"saga-server/migrations"
	"saga-server/pkg/database"
	"saga-server/pkg/logger"
	"saga-server/pkg/migration"
)

func main() {
	// .env is optional, real deployments configure via environment.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding})
	if err != nil {
		zap.L().Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	ctx := context.Background()

	// --- PostgreSQL ---
	db, err := database.New(ctx, cfg.GetDSN(), cfg.DBMaxConns, log)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer db.Close()

	migrator := migration.NewMigrator(migration.Config{
		MigrationsPath: ".",
		MigrationsFS:   migrations.FS,
	}, db.Pool, log)
	if err := migrator.Up(ctx); err != nil {
		log.Fatal("Failed to apply migrations", zap.Error(err))
	}

	// --- Redis ---
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("Connected to Redis", zap.String("addr", cfg.RedisAddr))

	// --- Repositories ---
	questRepo := repository.NewPgQuestRepository(db.Pool, log)
	skillRepo := repository.NewPgSkillRepository(db.Pool, log)
	sessionRepo := repository.NewRedisSessionRepository(redisClient, cfg.SessionTTL, log)

	// --- Action dispatcher ---
	var dispatcher service.ActionDispatcher
	switch cfg.DispatchMode {
	case config.DispatchModeQueue:
		mqConn, err := connectRabbitMQWithRetries(cfg.RabbitMQURL, log)
		if err != nil {
			log.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer mqConn.Close()

		publisher, err := messaging.NewRabbitMQActionTaskPublisher(mqConn, cfg.ActionTaskQueue, log)
		if err != nil {
			log.Fatal("Failed to create action task publisher", zap.Error(err))
		}
		dispatcher = messaging.NewQueueDispatcher(publisher, cfg.Language)
	case config.DispatchModeDirect:
		dispatcher = clients.NewAIDispatcher(clients.Config{
			APIKey:       cfg.AIAPIKey,
			BaseURL:      cfg.AIBaseURL,
			Model:        cfg.AIModel,
			Timeout:      cfg.AITimeout,
			SystemPrompt: cfg.AISystemPrompt,
		}, nil, log)
	}
	log.Info("Action dispatcher initialized", zap.String("mode", cfg.DispatchMode))

	// --- Service and HTTP layer ---
	choiceSvc := service.NewChoiceService(
		questRepo, skillRepo, sessionRepo, dispatcher, adjust.NewDefaultSupportRule(), log)
	choiceHandler := handler.NewChoiceHandler(choiceSvc, cfg.JWTSecret, log)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.RedirectTrailingSlash = true
	router.Use(middleware.ZapLogging(log))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	choiceHandler.RegisterRoutes(router)

	// Prometheus middleware goes after route registration so it sees the
	// final route table.
	p := ginprometheus.NewPrometheus("gin")
	p.Use(router)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Starting HTTP server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server listen error", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced to shutdown", zap.Error(err))
	}
	log.Info("Server stopped")
}

// connectRabbitMQWithRetries dials RabbitMQ with a few attempts to tolerate
// broker start order.
func connectRabbitMQWithRetries(url string, logger *zap.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	maxRetries := 5
	retryDelay := 5 * time.Second
	for i := 0; i < maxRetries; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		logger.Warn("Failed to connect to RabbitMQ",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", maxRetries),
			zap.Error(err))
		time.Sleep(retryDelay)
	}
	return nil, err
}
