package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"time"

	"cardforge-be/internal/config"
	"cardforge-be/internal/dto"
	"cardforge-be/internal/pkg/serverutils"
	"cardforge-be/internal/service"
	"cardforge-be/pkg/llm"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/valyala/fasthttp"
)

type IProxyController interface {
	RegisterRoutes(r fiber.Router)
	Chat(ctx *fiber.Ctx) error
	Image(ctx *fiber.Ctx) error
	Models(ctx *fiber.Ctx) error
}

type proxyController struct {
	service service.IProxyService
	config  config.ProxyConfig
}

func NewProxyController(service service.IProxyService, cfg config.ProxyConfig) IProxyController {
	return &proxyController{service: service, config: cfg}
}

func (c *proxyController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/proxy/v1")
	h.Use(limiter.New(limiter.Config{
		Max:        c.config.RateLimitPerMin,
		Expiration: 1 * time.Minute,
	}))
	h.Post("/chat", c.Chat)
	h.Post("/image", c.Image)
	h.Post("/models", c.Models)
}

func (c *proxyController) Chat(ctx *fiber.Ctx) error {
	var req dto.ProxyChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if !req.Stream {
		res, err := c.service.Chat(ctx.Context(), &req)
		if err != nil {
			return err
		}
		return ctx.JSON(serverutils.SuccessResponse("Chat completed", res))
	}

	// Reject blocked targets as a plain HTTP error while we still can; once
	// the stream starts, failures have to travel as SSE error events.
	if err := c.service.ValidateTarget(req.BaseUrl); err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	timeout := c.config.Timeout
	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		// The request context dies with the handler, so the stream runs on
		// its own deadline.
		streamCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		err := c.service.ChatStream(streamCtx, &req, func(chunk llm.StreamChunk) error {
			payload, err := json.Marshal(chunk)
			if err != nil {
				return err
			}
			if _, err := w.WriteString("data: " + string(payload) + "\n\n"); err != nil {
				return err
			}
			return w.Flush()
		})
		if err != nil {
			writeStreamError(w, err)
			return
		}

		w.WriteString("data: [DONE]\n\n")
		w.Flush()
	}))
	return nil
}

// writeStreamError delivers a mid-stream failure as an SSE error event.
func writeStreamError(w *bufio.Writer, err error) {
	message := err.Error()
	code := serverutils.CodeUpstreamError
	if appErr, ok := err.(*serverutils.AppError); ok {
		message = appErr.Message
		code = appErr.Code
	}

	payload, _ := json.Marshal(fiber.Map{
		"error":      message,
		"error_code": code,
	})
	w.WriteString("event: error\ndata: " + string(payload) + "\n\n")
	w.Flush()
}

func (c *proxyController) Image(ctx *fiber.Ctx) error {
	var req dto.ProxyImageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Image(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Image generated", res))
}

func (c *proxyController) Models(ctx *fiber.Ctx) error {
	var req dto.ProxyModelsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Models(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Models listed", res))
}
