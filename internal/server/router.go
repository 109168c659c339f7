package server

import (
	"github.com/abduss/quizroom/internal/auth"
	"github.com/abduss/quizroom/internal/config"
	"github.com/abduss/quizroom/internal/logger"
	"github.com/abduss/quizroom/internal/metrics"
	"github.com/abduss/quizroom/internal/question"
	"github.com/abduss/quizroom/internal/room"
	"github.com/abduss/quizroom/internal/user"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Dependencies groups the services required by the HTTP router.
type Dependencies struct {
	Config          config.Config
	Logger          *zap.Logger
	DB              *pgxpool.Pool
	Redis           *redis.Client
	AuthService     *auth.Service
	UserService     *user.Service
	QuestionService *question.Service
	RoomService     *room.Service
}

// NewRouter builds a Gin engine with foundational middleware and routes.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.Middleware(deps.Logger))
	router.Use(metrics.Middleware())

	registerHealthRoutes(router, deps)
	metrics.Register(router, deps.Config.Metrics.PrometheusPath)

	api := router.Group("/v1")

	public := api.Group("/")
	if deps.Config.RateLimit.Enabled && deps.Redis != nil {
		public.Use(RateLimit(deps.Config.RateLimit, deps.Redis, deps.Logger))
	}
	auth.RegisterRoutes(public, deps.AuthService)

	protected := api.Group("/", auth.Middleware(deps.AuthService))
	admin := protected.Group("/admin", auth.RequireAdmin())

	if deps.UserService != nil {
		user.RegisterRoutes(protected, admin, deps.UserService)
	}
	if deps.QuestionService != nil {
		question.RegisterRoutes(protected, deps.QuestionService)
	}
	if deps.RoomService != nil {
		room.RegisterRoutes(protected, deps.RoomService)
	}

	return router
}
