package controller

import (
	"cardforge-be/internal/dto"
	"cardforge-be/internal/pkg/serverutils"
	"cardforge-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ILorebookController interface {
	RegisterRoutes(r fiber.Router)
	Export(ctx *fiber.Ctx) error
	Import(ctx *fiber.Ctx) error
}

type lorebookController struct {
	service service.ILorebookService
}

func NewLorebookController(service service.ILorebookService) ILorebookController {
	return &lorebookController{service: service}
}

func (c *lorebookController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/lorebook/v1")
	h.Post("/export", c.Export)
	h.Post("/import", c.Import)
}

func (c *lorebookController) Export(ctx *fiber.Ctx) error {
	var req dto.ExportLorebookRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Export(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Lorebook exported", res))
}

func (c *lorebookController) Import(ctx *fiber.Ctx) error {
	var req dto.ImportLorebookRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Import(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Lorebook imported", res))
}
