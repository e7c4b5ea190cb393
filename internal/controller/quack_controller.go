package controller

import (
	"cardforge-be/internal/dto"
	"cardforge-be/internal/pkg/serverutils"
	"cardforge-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IQuackController interface {
	RegisterRoutes(r fiber.Router)
	Import(ctx *fiber.Ctx) error
	Preview(ctx *fiber.Ctx) error
}

type quackController struct {
	service service.IQuackService
}

func NewQuackController(service service.IQuackService) IQuackController {
	return &quackController{service: service}
}

func (c *quackController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/quack/v1")
	h.Post("/import", c.Import)
	h.Post("/preview", c.Preview)
}

func (c *quackController) Import(ctx *fiber.Ctx) error {
	var req dto.QuackImportRequest
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

	return ctx.JSON(serverutils.SuccessResponse("Character imported", res))
}

func (c *quackController) Preview(ctx *fiber.Ctx) error {
	var req dto.QuackPreviewRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Preview(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Character preview", res))
}
