package controller

import (
	"cardforge-be/internal/config"
	"cardforge-be/internal/repository/memory"

	"github.com/gofiber/fiber/v2"
)

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Check(ctx *fiber.Ctx) error
}

type healthController struct {
	config   config.AppConfig
	sessions *memory.SessionRepository
}

func NewHealthController(cfg config.AppConfig, sessions *memory.SessionRepository) IHealthController {
	return &healthController{config: cfg, sessions: sessions}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/health/v1")
	h.Get("", c.Check)
}

func (c *healthController) Check(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{
		"status":        "ok",
		"version":       c.config.Version,
		"open_sessions": c.sessions.Count(),
	})
}
