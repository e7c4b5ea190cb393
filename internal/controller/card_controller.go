package controller

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"

	"cardforge-be/internal/config"
	"cardforge-be/internal/dto"
	"cardforge-be/internal/pkg/serverutils"
	"cardforge-be/internal/service"
	"cardforge-be/pkg/document"

	"github.com/gofiber/fiber/v2"
)

type ICardController interface {
	RegisterRoutes(r fiber.Router)
	Parse(ctx *fiber.Ctx) error
	Inject(ctx *fiber.Ctx) error
	Validate(ctx *fiber.Ctx) error
	CountTokens(ctx *fiber.Ctx) error
}

type cardController struct {
	service service.ICardService
	upload  config.UploadConfig
}

func NewCardController(service service.ICardService, upload config.UploadConfig) ICardController {
	return &cardController{service: service, upload: upload}
}

func (c *cardController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/cards/v1")
	h.Post("/parse", c.Parse)
	h.Post("/inject", c.Inject)
	h.Post("/validate", c.Validate)
	h.Post("/tokens", c.CountTokens)
}

// readUpload pulls the named multipart file, enforcing the size cap before
// the whole body is read into memory.
func (c *cardController) readUpload(ctx *fiber.Ctx, field string) (string, []byte, error) {
	header, err := ctx.FormFile(field)
	if err != nil {
		return "", nil, serverutils.NewAppError(fiber.StatusBadRequest, serverutils.CodeValidationError, "No file uploaded in field '"+field+"'")
	}
	if header.Size > int64(c.upload.MaxUploadBytes()) {
		return "", nil, serverutils.NewAppError(fiber.StatusRequestEntityTooLarge, serverutils.CodeFileTooLarge,
			fmt.Sprintf("File exceeds the %dMB upload limit", c.upload.MaxUploadMB))
	}

	data, err := readAll(header)
	if err != nil {
		return "", nil, serverutils.NewAppError(fiber.StatusBadRequest, serverutils.CodeParseError, "Could not read uploaded file").WithErr(err)
	}
	return header.Filename, data, nil
}

func readAll(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (c *cardController) Parse(ctx *fiber.Ctx) error {
	filename, data, err := c.readUpload(ctx, "file")
	if err != nil {
		return err
	}

	res, err := c.service.Parse(ctx.Context(), filename, data)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Card parsed", res))
}

func (c *cardController) Inject(ctx *fiber.Ctx) error {
	_, imageData, err := c.readUpload(ctx, "file")
	if err != nil {
		return err
	}

	cardJson := ctx.FormValue("card")
	if cardJson == "" {
		return serverutils.NewAppError(fiber.StatusBadRequest, serverutils.CodeValidationError, "Missing 'card' form field")
	}
	var doc document.Document
	if err := json.Unmarshal([]byte(cardJson), &doc); err != nil || doc == nil {
		return serverutils.NewAppError(fiber.StatusBadRequest, serverutils.CodeParseError, "Card field is not a JSON object").WithErr(err)
	}

	req := dto.InjectCardRequest{
		Card:            doc,
		IncludeV2Compat: ctx.FormValue("include_v2_compat", "true") != "false",
		StrictVerify:    ctx.FormValue("strict_verify") == "true",
	}

	exported, filename, err := c.service.Inject(ctx.Context(), imageData, &req)
	if err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, "image/png")
	ctx.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return ctx.Send(exported)
}

func (c *cardController) Validate(ctx *fiber.Ctx) error {
	var req dto.ValidateCardRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Validate(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Card validated", res))
}

func (c *cardController) CountTokens(ctx *fiber.Ctx) error {
	var req dto.TokenCountRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.CountTokens(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Tokens estimated", res))
}
