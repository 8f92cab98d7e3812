package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/yukikurage/task-tracker-api/internal/auth"
	"github.com/yukikurage/task-tracker-api/internal/config"
	"github.com/yukikurage/task-tracker-api/internal/constants"
	"github.com/yukikurage/task-tracker-api/internal/database"
	"github.com/yukikurage/task-tracker-api/internal/handlers"
	"github.com/yukikurage/task-tracker-api/internal/middleware"
	"github.com/yukikurage/task-tracker-api/internal/realtime"
	"github.com/yukikurage/task-tracker-api/internal/repository"
	"github.com/yukikurage/task-tracker-api/internal/services"
	"github.com/yukikurage/task-tracker-api/internal/storage"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}

	// Run migrations
	if err := database.Migrate(db); err != nil {
		return err
	}

	store, err := storage.NewDiskStore(cfg.UploadDir)
	if err != nil {
		return err
	}

	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, time.Duration(cfg.TokenTTLHours)*time.Hour)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	// Realtime: local hub, optionally fanned out across processes through redis
	hub := realtime.NewHub(logger)
	var broadcaster services.Broadcaster = hub
	var rooms services.RoomEvictor = hub
	if cfg.RealtimeRelay {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr()})
		defer client.Close()

		relay := realtime.NewRedisRelay(client, hub, logger)
		broadcaster = relay
		rooms = relay
		g.Go(func() error { return relay.Run(ctx) })
	}

	// Repositories and services
	userRepo := repository.NewUserRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	var aiService *services.AIService
	if cfg.OpenAIAPIKey != "" {
		aiService = services.NewAIService(cfg.OpenAIAPIKey)
	}

	events := services.NewTaskEvents(broadcaster)
	authService := services.NewAuthService(userRepo, tokens)
	teamService := services.NewTeamService(teamRepo, rooms)
	attachmentService := services.NewAttachmentService(taskRepo, teamRepo, store, events, logger, cfg.MaxUploadFiles)
	taskService := services.NewTaskService(taskRepo, teamRepo, attachmentService, events, aiService, logger)

	// Initialize Gin router
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger))
	r.MaxMultipartMemory = constants.MaxUploadMemory

	// Setup session middleware with Redis
	sessionStore, err := redisStore.NewStore(
		10,                        // Redis pool size
		"tcp",                     // network type
		cfg.RedisAddr(),           // Redis address from config
		"",                        // username (empty for default user)
		"",                        // password (empty = no password)
		[]byte(cfg.SessionSecret), // authentication key
	)
	if err != nil {
		return err
	}
	isProduction := cfg.GinMode == gin.ReleaseMode
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, sessionStore))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Task Tracker API is running",
		})
	})

	handlers.Router{
		Auth:      handlers.NewAuthHandler(authService),
		Teams:     handlers.NewTeamHandler(teamService),
		Tasks:     handlers.NewTaskHandler(taskService, attachmentService),
		Realtime:  handlers.NewRealtimeHandler(realtime.NewServer(hub, teamService, logger)),
		Verifier:  authService,
		TeamSvc:   teamService,
		TaskSvc:   taskService,
		UploadDir: store.Dir(),
	}.Register(r)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		logger.Info("server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutdown requested")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		hub.Close()
		return err
	})

	return g.Wait()
}
