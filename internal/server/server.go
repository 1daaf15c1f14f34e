package server

import (
	"travlysis/internal/auth"
	"travlysis/internal/config"
	"travlysis/internal/metrics"
	"travlysis/internal/stream"
	"travlysis/internal/survey"
	"travlysis/internal/tracking"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App      *fiber.App
	Cfg      config.Config
	Redis    *redis.Client
	Stream   *stream.Hub
	Metrics  *metrics.Collector
	Tracking *tracking.Service
	Surveys  *survey.Service
}

func NewServer(cfg config.Config, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	hub := stream.NewHub(redisClient)
	collector := metrics.NewCollector()
	trips := tracking.NewService(hub, collector, cfg.SpeedCeilingKmh)

	s := &Server{
		App:      app,
		Cfg:      cfg,
		Redis:    redisClient,
		Stream:   hub,
		Metrics:  collector,
		Tracking: trips,
		Surveys:  survey.NewService(trips, collector),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "active_sessions": s.Tracking.ActiveSessions()})
	})
	s.App.Get("/metrics", adaptor.HTTPHandler(s.Metrics.Handler()))

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	tracking.RegisterRoutes(s.App.Group("/tracking"), s.Tracking, jwtMiddleware)
	survey.RegisterRoutes(s.App.Group("/survey"), s.Surveys, jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream, s.Tracking.CurrentJSON)
}
