package service

import (
	"context"
	"errors"
	"fmt"

	"cardforge-be/internal/dto"
	"cardforge-be/internal/pkg/logger"
	"cardforge-be/internal/pkg/serverutils"
	"cardforge-be/pkg/card"
	"cardforge-be/pkg/token"

	"github.com/gofiber/fiber/v2"
)

// hardTokenLimit is the point where a card stops being a warning and
// becomes a validation error.
const hardTokenLimit = 12000

type ICardService interface {
	Parse(ctx context.Context, filename string, data []byte) (*dto.ParseCardResponse, error)
	Inject(ctx context.Context, imageData []byte, req *dto.InjectCardRequest) ([]byte, string, error)
	Validate(ctx context.Context, req *dto.ValidateCardRequest) (*dto.ValidateCardResponse, error)
	CountTokens(ctx context.Context, req *dto.TokenCountRequest) (*dto.TokenCountResponse, error)
}

type cardService struct {
	logger logger.ILogger
}

func NewCardService(logger logger.ILogger) ICardService {
	return &cardService{
		logger: logger,
	}
}

func (s *cardService) Parse(ctx context.Context, filename string, data []byte) (*dto.ParseCardResponse, error) {
	parsed, err := card.Import(data)
	if err != nil {
		var importErr *card.ImportError
		if errors.As(err, &importErr) {
			return nil, serverutils.NewAppError(fiber.StatusBadRequest, serverutils.CodeParseError, importErr.Reason).WithErr(err)
		}
		return nil, err
	}

	warnings := make([]string, 0)
	if parsed.SourceFormat == card.SourceV2 {
		warnings = append(warnings, "Card was converted from V2 format")
	}

	// Token pressure is advisory at parse time.
	total := token.EstimateCard(parsed.Card)["total"]
	switch token.Warning(total, token.DefaultBudget) {
	case token.LevelDanger:
		warnings = append(warnings, fmt.Sprintf("Card uses %d tokens, close to or past the %d budget", total, token.DefaultBudget))
	case token.LevelWarning:
		warnings = append(warnings, fmt.Sprintf("Card uses %d tokens, approaching the %d budget", total, token.DefaultBudget))
	}

	s.logger.Info("card", "Card parsed", map[string]interface{}{
		"filename":      filename,
		"source_format": string(parsed.SourceFormat),
		"has_image":     parsed.HasImage,
		"tokens":        total,
	})

	return &dto.ParseCardResponse{
		Card:         parsed.Document,
		SourceFormat: string(parsed.SourceFormat),
		HasImage:     parsed.HasImage,
		Warnings:     warnings,
	}, nil
}

func (s *cardService) Inject(ctx context.Context, imageData []byte, req *dto.InjectCardRequest) ([]byte, string, error) {
	// 1. Normalize the base image to PNG so embedding always has chunks to
	// work with.
	pngData := imageData
	if card.DetectFileType(imageData) != card.FileTypePng {
		converted, err := card.ConvertImageToPng(imageData)
		if err != nil {
			return nil, "", serverutils.NewAppError(fiber.StatusBadRequest, serverutils.CodeInvalidFormat, "Unsupported image format").WithErr(err)
		}
		pngData = converted
	}

	// 2. Embed the card.
	opts := card.DefaultExportOptions()
	opts.IncludeV2Compat = req.IncludeV2Compat
	exported, err := card.ExportToPNG(pngData, req.Card, opts)
	if err != nil {
		return nil, "", serverutils.NewAppError(fiber.StatusBadRequest, serverutils.CodeInvalidFormat, "Failed to embed card into PNG").WithErr(err)
	}

	// 3. Read the result back and compare against what went in.
	if err := card.VerifyExport(exported, req.Card, req.StrictVerify); err != nil {
		return nil, "", serverutils.NewAppError(fiber.StatusInternalServerError, serverutils.CodeInternalError, "Exported PNG failed verification").WithErr(err)
	}

	filename := card.ExportFilename(req.Card)
	s.logger.Info("card", "Card injected into PNG", map[string]interface{}{
		"filename": filename,
		"bytes":    len(exported),
	})
	return exported, filename, nil
}

func (s *cardService) Validate(ctx context.Context, req *dto.ValidateCardRequest) (*dto.ValidateCardResponse, error) {
	typed, err := card.FromDocument(req.Card)
	if err != nil {
		return nil, serverutils.NewAppError(fiber.StatusBadRequest, serverutils.CodeInvalidFormat, "Card structure is not a valid V3 card").WithErr(err)
	}

	result := card.Validate(typed)

	// Layer token-budget checks on top of the structural ones.
	total := token.EstimateCard(typed)["total"]
	if total > hardTokenLimit {
		result.Errors = append(result.Errors, fmt.Sprintf("Card uses %d tokens, over the hard limit of %d", total, hardTokenLimit))
		result.Valid = false
	} else if total > token.DefaultBudget {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Card uses %d tokens, over the %d budget", total, token.DefaultBudget))
	}

	if result.Errors == nil {
		result.Errors = []string{}
	}
	if result.Warnings == nil {
		result.Warnings = []string{}
	}
	return &dto.ValidateCardResponse{
		Valid:    result.Valid,
		Errors:   result.Errors,
		Warnings: result.Warnings,
	}, nil
}

func (s *cardService) CountTokens(ctx context.Context, req *dto.TokenCountRequest) (*dto.TokenCountResponse, error) {
	typed, err := card.FromDocument(req.Card)
	if err != nil {
		return nil, serverutils.NewAppError(fiber.StatusBadRequest, serverutils.CodeInvalidFormat, "Card structure is not a valid V3 card").WithErr(err)
	}

	budget := req.Budget
	if budget <= 0 {
		budget = token.DefaultBudget
	}

	breakdown := token.EstimateCard(typed)
	total := breakdown["total"]
	return &dto.TokenCountResponse{
		Breakdown: breakdown,
		Total:     total,
		Budget:    budget,
		Warning:   string(token.Warning(total, budget)),
	}, nil
}
