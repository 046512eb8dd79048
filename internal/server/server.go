package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "taskboard/docs"
	"taskboard/internal/config"
	"taskboard/internal/database"
	"taskboard/internal/handler"
	"taskboard/internal/logging"
	"taskboard/internal/middleware"
	"taskboard/internal/realtime"
	"taskboard/internal/repository"
	"taskboard/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Config *config.Config
	Log    *logrus.Logger

	broker *realtime.RedisBroker
	redis  *redis.Client
}

func Init(cfg *config.Config) (*Server, error) {
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg, log)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{"host": cfg.DBHost, "db": cfg.DBName}).Info("connected to database")

	if cfg.MigrateOnStart {
		if err := database.Migrate(db); err != nil {
			return nil, err
		}
		log.Info("database migrations applied")
	}

	s := &Server{DB: db, Config: cfg, Log: log}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	boardRepo := repository.NewBoardRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	// Realtime: in-process rooms, shared through redis when configured
	hub := realtime.NewHub(log, cfg.RealtimeBuffer)
	var pub realtime.Publisher = hub
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		// publish timeouts apply to the socket, not only to the pool wait
		opts.ContextTimeoutEnabled = true
		s.redis = redis.NewClient(opts)
		s.broker = realtime.NewRedisBroker(s.redis, cfg.RedisChannelPrefix, hub, log)
		pub = s.broker
		log.WithField("prefix", cfg.RedisChannelPrefix).Info("realtime events shared through redis")
	}

	// Initialize services
	boardService := service.NewBoardService(boardRepo, userRepo, pub, log)
	taskService := service.NewTaskService(boardRepo, taskRepo, pub, log)

	// Initialize handlers
	handler.RegisterValidators()
	userHandler := handler.NewUserHandler(userRepo, cfg.JWTSecret, cfg.JWTExpiry, log)
	boardHandler := handler.NewBoardHandler(boardService, log)
	taskHandler := handler.NewTaskHandler(taskService, log)
	streamHandler := handler.NewStreamHandler(boardService, hub, cfg.ClientURL, log)
	healthHandler := handler.NewHealthHandler(func(ctx context.Context) error {
		return database.Ping(ctx, db)
	}, log)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))

	// Public routes
	r.POST("/register", userHandler.Register)
	r.POST("/login", userHandler.Login)
	r.GET("/health", healthHandler.Health)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Protected routes - require authentication
	authorized := r.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	{
		authorized.GET("/users/search", userHandler.Search)

		// Board routes
		authorized.GET("/boards", boardHandler.GetAll)
		authorized.POST("/boards", boardHandler.Create)
		authorized.GET("/boards/:id", boardHandler.GetByID)
		authorized.PUT("/boards/:id", boardHandler.Update)
		authorized.DELETE("/boards/:id", boardHandler.Delete)
		authorized.POST("/boards/:id/members", boardHandler.AddMember)
		authorized.DELETE("/boards/:id/members/:userId", boardHandler.RemoveMember)

		// Task routes
		authorized.GET("/tasks/board/:boardId", taskHandler.GetByBoard)
		authorized.POST("/tasks", taskHandler.Create)
		authorized.PATCH("/tasks/reorder", taskHandler.Reorder)
		authorized.PUT("/tasks/:id", taskHandler.Update)
		authorized.DELETE("/tasks/:id", taskHandler.Delete)
		authorized.POST("/tasks/:id/move", taskHandler.Move)
	}

	// Browsers cannot set headers on EventSource and WebSocket, so the token may come in the query
	streaming := r.Group("/")
	streaming.Use(middleware.QueryTokenFallback(), middleware.JWTAuthMiddleware(cfg.JWTSecret))
	{
		streaming.GET("/boards/:id/events", streamHandler.Events)
		streaming.GET("/ws", streamHandler.WebSocket)
	}

	s.Engine = r
	return s, nil
}

func (s *Server) Run() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if s.broker != nil {
		go s.broker.Run(ctx)
	}

	srv := &http.Server{
		Addr:              ":" + s.Config.ServerPort,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
		// streams end when the signal arrives
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		s.Log.WithField("port", s.Config.ServerPort).Info("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Log.WithError(err).Error("failed to listen")
			stop()
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	s.Log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.Log.WithError(err).Error("server forced to shutdown")
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.Log.WithError(err).Warn("close redis client")
		}
	}
	if sqlDB, err := s.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}

	s.Log.Info("server exited properly")
}
