package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"moviesearch/api/internal/config"
	"moviesearch/api/internal/metrics"
	"moviesearch/api/internal/middleware"
	"moviesearch/api/internal/repository"
	"moviesearch/api/internal/service"
	"moviesearch/api/internal/session"
	"moviesearch/api/internal/titles"
)

type HandlerSet struct {
	log           zerolog.Logger
	cfg           *config.AppConfig
	authService   *service.AuthService
	inviteService *service.InviteService
	sessions      *session.Manager
	users         middleware.UserGetter
	db            *pgxpool.Pool
	cache         *redis.Client
	limiter       *redis_rate.Limiter
	titles        titles.Client
	registry      *prometheus.Registry
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, cfg *config.AppConfig, titlesClient titles.Client) HandlerSet {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	userRepo := repository.NewUserRepository(db)
	inviteRepo := repository.NewInviteRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)
	sessions := session.NewManager(cache, cfg.Security.SessionTTL)

	inviteSvc := service.NewInviteService(inviteRepo, m, log)
	authSvc := service.NewAuthService(userRepo, inviteSvc, attemptRepo, sessions, m, cfg, log)

	return HandlerSet{
		log:           log,
		cfg:           cfg,
		authService:   authSvc,
		inviteService: inviteSvc,
		sessions:      sessions,
		users:         userRepo,
		db:            db,
		cache:         cache,
		limiter:       redis_rate.NewLimiter(cache),
		titles:        titlesClient,
		registry:      registry,
	}
}

// AuthService exposes the controller for startup tasks (admin bootstrap).
func (h HandlerSet) AuthService() *service.AuthService {
	return h.authService
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	if h.registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api")
	api.Use(
		middleware.JSONOnly(),
		h.rateLimit("api", h.cfg.RateLimit.APIMax, "Too many requests, please try again later"),
		middleware.Session(h.sessions, h.cfg),
		middleware.CSRF(),
	)

	api.GET("/healthz", h.Health)

	api.POST("/login",
		h.rateLimit("login", h.cfg.RateLimit.LoginMax, "Too many login attempts, please try again later"),
		h.Login)
	api.POST("/signup",
		h.rateLimit("signup", h.cfg.RateLimit.SignupMax, "Too many signup attempts, please try again later"),
		h.Signup)
	api.POST("/invite/validate",
		h.rateLimit("validate", h.cfg.RateLimit.ValidateMax, "Too many validation attempts, please try again later"),
		h.ValidateInvite)
	api.POST("/logout", h.Logout)
	api.GET("/auth/check", h.AuthCheck)

	admin := api.Group("/admin")
	admin.Use(middleware.RequireAdmin(h.users))
	admin.POST("/invites", h.CreateInvite)
	admin.GET("/invites", h.ListInvites)
	admin.DELETE("/invites/:id", h.DeleteInvite)

	// Movie routes are only mounted when a metadata backend is configured.
	if h.titles != nil {
		movies := api.Group("")
		movies.Use(middleware.RequireAuth())
		movies.GET("/search", h.SearchTitles)
		movies.GET("/movie/:id/rating", h.TitleRating)
		movies.GET("/movie/:id/parents-guide", h.TitleParentsGuide)
	}
}

func (h HandlerSet) rateLimit(name string, max int, message string) gin.HandlerFunc {
	if h.limiter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return middleware.RateLimit(h.limiter, name, max, h.cfg.RateLimit.Window, message, h.log)
}
