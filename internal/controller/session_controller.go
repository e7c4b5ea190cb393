package controller

import (
	"cardforge-be/internal/dto"
	"cardforge-be/internal/pkg/serverutils"
	"cardforge-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	Open(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Mutate(ctx *fiber.Ctx) error
	Undo(ctx *fiber.Ctx) error
	Redo(ctx *fiber.Ctx) error
	Save(ctx *fiber.Ctx) error
	Reset(ctx *fiber.Ctx) error
	Close(ctx *fiber.Ctx) error
}

type sessionController struct {
	service service.ISessionService
}

func NewSessionController(service service.ISessionService) ISessionController {
	return &sessionController{service: service}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/session/v1")
	h.Post("", c.Open)
	h.Get(":id", c.Show)
	h.Put(":id/mutate", c.Mutate)
	h.Post(":id/undo", c.Undo)
	h.Post(":id/redo", c.Redo)
	h.Post(":id/save", c.Save)
	h.Post(":id/reset", c.Reset)
	h.Delete(":id", c.Close)
}

func (c *sessionController) Open(ctx *fiber.Ctx) error {
	var req dto.OpenSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Open(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Session opened", res))
}

func (c *sessionController) Show(ctx *fiber.Ctx) error {
	res, err := c.service.Get(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Session state", res))
}

func (c *sessionController) Mutate(ctx *fiber.Ctx) error {
	var req dto.MutateSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Mutate(ctx.Context(), ctx.Params("id"), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Field updated", res))
}

func (c *sessionController) Undo(ctx *fiber.Ctx) error {
	res, err := c.service.Undo(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Undone", res))
}

func (c *sessionController) Redo(ctx *fiber.Ctx) error {
	res, err := c.service.Redo(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Redone", res))
}

func (c *sessionController) Save(ctx *fiber.Ctx) error {
	res, err := c.service.Save(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Session saved", res))
}

func (c *sessionController) Reset(ctx *fiber.Ctx) error {
	res, err := c.service.Reset(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Session reset to last save", res))
}

func (c *sessionController) Close(ctx *fiber.Ctx) error {
	if err := c.service.Close(ctx.Context(), ctx.Params("id")); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Session closed", nil))
}
