package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/abduss/quizroom/internal/auth"
	"github.com/abduss/quizroom/internal/config"
	"github.com/abduss/quizroom/internal/logger"
	"github.com/abduss/quizroom/internal/question"
	"github.com/abduss/quizroom/internal/room"
	"github.com/abduss/quizroom/internal/server"
	"github.com/abduss/quizroom/internal/storage"
	"github.com/abduss/quizroom/internal/user"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	zlog, err := logger.Init()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Sync()

	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal("load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		zlog.Fatal("connect postgres", zap.Error(err))
	}
	defer dbPool.Close()

	redisClient, err := storage.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		// the API serves without Redis; only the rate limiter needs it
		zlog.Warn("connect redis", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	authRepo := auth.NewRepository(dbPool)
	authService := auth.NewService(authRepo, cfg.Auth)

	userRepo := user.NewRepository(dbPool)
	userService := user.NewService(userRepo)

	roomRepo := room.NewRepository(dbPool)
	roomService := room.NewService(roomRepo, cfg.Auth.BcryptCost)

	questionRepo := question.NewRepository(dbPool)
	questionService := question.NewService(questionRepo, roomRepo)

	router := server.NewRouter(server.Dependencies{
		Config:          cfg,
		Logger:          zlog,
		DB:              dbPool,
		Redis:           redisClient,
		AuthService:     authService,
		UserService:     userService,
		QuestionService: questionService,
		RoomService:     roomService,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		zlog.Info("QuizRoom API listening", zap.String("addr", cfg.Server.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	zlog.Info("shutting down gracefully")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zlog.Error("shutdown", zap.Error(err))
	}
}
