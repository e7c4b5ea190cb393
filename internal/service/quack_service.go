package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	"cardforge-be/internal/config"
	"cardforge-be/internal/dto"
	"cardforge-be/internal/pkg/logger"
	"cardforge-be/internal/pkg/serverutils"
	"cardforge-be/pkg/card"
	"cardforge-be/pkg/quack"

	"github.com/gofiber/fiber/v2"
)

type IQuackService interface {
	Import(ctx context.Context, req *dto.QuackImportRequest) (*dto.QuackImportResponse, error)
	Preview(ctx context.Context, req *dto.QuackPreviewRequest) (*dto.QuackPreviewResponse, error)
}

type quackService struct {
	config config.QuackConfig
	logger logger.ILogger
}

func NewQuackService(cfg config.QuackConfig, logger logger.ILogger) IQuackService {
	return &quackService{
		config: cfg,
		logger: logger,
	}
}

// tryParseJSON accepts only a pasted JSON object; anything else falls
// through to the API mode.
func tryParseJSON(input string) map[string]interface{} {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "{") {
		return nil
	}
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(input), &data); err != nil {
		return nil
	}
	return data
}

func (s *quackService) client(cookieInput string) (*quack.Client, []string) {
	var warnings []string
	cookies := map[string]string{}
	if cookieInput != "" {
		cookies = quack.ParseCookies(cookieInput)
		if len(cookies) == 0 {
			warnings = append(warnings, "Cookies could not be parsed, requesting without authentication")
		}
	}

	clientConfig := quack.ClientConfig{
		BaseUrl:           s.config.BaseUrl,
		CharacterInfoPath: s.config.CharacterInfoPath,
		LorebookPath:      s.config.LorebookPath,
		Timeout:           s.config.Timeout,
	}
	return quack.NewClient(clientConfig, cookies, nil), warnings
}

// fetch resolves the input to character data: either the pasted JSON itself
// or an API roundtrip keyed by the extracted character id.
func (s *quackService) fetch(ctx context.Context, input, cookieInput string) (map[string]interface{}, []map[string]interface{}, string, []string, error) {
	if data := tryParseJSON(input); data != nil {
		warnings := []string{"Using pasted JSON data"}
		return data, quack.InlineBookEntries(data), "json", warnings, nil
	}

	characterId := quack.ExtractCharacterId(input)
	if characterId == "" {
		return nil, nil, "", nil, serverutils.NewAppError(fiber.StatusBadRequest, serverutils.CodeValidationError, "Input is not a valid character id, URL, or JSON export")
	}

	client, warnings := s.client(cookieInput)
	info, entries, err := client.FetchCharacterComplete(ctx, characterId)
	if err != nil {
		return nil, nil, "", nil, mapQuackError(err)
	}
	return info, entries, "api", warnings, nil
}

func mapQuackError(err error) error {
	var qerr *quack.Error
	if !errors.As(err, &qerr) {
		return err
	}
	switch qerr.Kind {
	case quack.KindUnauthorized:
		return serverutils.NewAppError(fiber.StatusUnauthorized, serverutils.CodeUnauthorized, qerr.Message).
			WithHint("Check that the cookies are still valid").WithErr(err)
	case quack.KindRateLimited:
		return serverutils.NewAppError(fiber.StatusTooManyRequests, serverutils.CodeRateLimited, qerr.Message).WithErr(err)
	case quack.KindTimeout:
		return serverutils.NewAppError(fiber.StatusGatewayTimeout, serverutils.CodeTimeout, qerr.Message).WithErr(err)
	default:
		return serverutils.NewAppError(fiber.StatusBadGateway, serverutils.CodeNetworkError, qerr.Message).
			WithHint("If the IP is blocked, paste the JSON export instead").WithErr(err)
	}
}

func (s *quackService) Import(ctx context.Context, req *dto.QuackImportRequest) (*dto.QuackImportResponse, error) {
	info, entries, source, warnings, err := s.fetch(ctx, req.QuackInput, req.Cookies)
	if err != nil {
		return nil, err
	}

	if req.Mode == "only_lorebook" {
		if len(entries) == 0 {
			return nil, serverutils.NewAppError(fiber.StatusBadRequest, serverutils.CodeParseError, "Character has no lorebook data")
		}
		book, err := toMap(quack.MapLorebookOnly(entries, ""))
		if err != nil {
			return nil, err
		}
		return &dto.QuackImportResponse{
			Lorebook: book,
			Source:   source,
			Warnings: warnings,
		}, nil
	}

	mapped := quack.MapToV3(info, entries)
	doc, err := mapped.ToDocument()
	if err != nil {
		return nil, serverutils.NewAppError(fiber.StatusInternalServerError, serverutils.CodeInternalError, "Failed to build card document").WithErr(err)
	}

	s.logger.Info("quack", "Character imported", map[string]interface{}{
		"source":         source,
		"name":           mapped.Data.Name,
		"lorebook_count": len(entries),
	})

	resp := &dto.QuackImportResponse{
		Card:     doc,
		Source:   source,
		Warnings: warnings,
	}
	if req.OutputFormat == "png" {
		exported, err := card.ExportToPNG(placeholderPng(), doc, card.DefaultExportOptions())
		if err != nil {
			return nil, serverutils.NewAppError(fiber.StatusInternalServerError, serverutils.CodeInternalError, "Failed to build PNG output").WithErr(err)
		}
		resp.PngBase64 = base64.StdEncoding.EncodeToString(exported)
		resp.Warnings = append(resp.Warnings, "PNG uses a placeholder image, replace it with real art before sharing")
	}
	return resp, nil
}

func (s *quackService) Preview(ctx context.Context, req *dto.QuackPreviewRequest) (*dto.QuackPreviewResponse, error) {
	if data := tryParseJSON(req.QuackInput); data != nil {
		result := extractPreview(data)
		result.Source = "json"
		result.LorebookCount = len(quack.InlineBookEntries(data))
		return result, nil
	}

	characterId := quack.ExtractCharacterId(req.QuackInput)
	if characterId == "" {
		return nil, serverutils.NewAppError(fiber.StatusBadRequest, serverutils.CodeValidationError, "Input is not a valid character id, URL, or JSON export")
	}

	client, _ := s.client(req.Cookies)
	info, err := client.FetchCharacterInfo(ctx, characterId)
	if err != nil {
		return nil, mapQuackError(err)
	}

	result := extractPreview(info)
	result.Source = "api"

	// Lorebook count is best effort, a failed fetch just leaves it at zero.
	if entries, err := client.FetchLorebook(ctx, characterId); err == nil {
		result.LorebookCount = len(entries)
	}
	return result, nil
}

func extractPreview(data map[string]interface{}) *dto.QuackPreviewResponse {
	var char map[string]interface{}
	if list, ok := data["charList"].([]interface{}); ok && len(list) > 0 {
		char, _ = list[0].(map[string]interface{})
	}
	if char == nil {
		char = map[string]interface{}{}
	}

	name := firstString(char["name"], data["name"])
	if name == "" {
		name = "Unknown"
	}
	creator := firstString(data["authorName"], data["author"])

	intro := firstString(data["intro"], char["intro"])
	if runes := []rune(intro); len(runes) > 200 {
		intro = string(runes[:200])
	}

	tags := previewTags(data, char)

	attrCount := 0
	for _, key := range []string{"attrs", "adviseAttrs", "customAttrs"} {
		if list, ok := char[key].([]interface{}); ok {
			attrCount += len(list)
		}
	}

	lorebookCount := 0
	if books, ok := data["characterbooks"].([]interface{}); ok {
		for _, raw := range books {
			if book, ok := raw.(map[string]interface{}); ok {
				if list, ok := book["entryList"].([]interface{}); ok {
					lorebookCount += len(list)
				}
			}
		}
	}

	return &dto.QuackPreviewResponse{
		Name:          name,
		Creator:       creator,
		Intro:         intro,
		Tags:          tags,
		AttrCount:     attrCount,
		LorebookCount: lorebookCount,
	}
}

// previewTags keeps at most 10 non-empty tags, falling back to the image
// generation tag labels when the top-level list is empty.
func previewTags(data, char map[string]interface{}) []string {
	collect := func(list []interface{}) []string {
		tags := make([]string, 0)
		for _, raw := range list {
			if s, ok := raw.(string); ok && s != "" {
				tags = append(tags, s)
			}
		}
		return tags
	}

	tags := make([]string, 0)
	if list, ok := data["tags"].([]interface{}); ok {
		tags = collect(list)
	}
	if len(tags) == 0 {
		if gen, ok := char["generateImage"].(map[string]interface{}); ok {
			if list, ok := gen["allTags"].([]interface{}); ok {
				for _, raw := range list {
					tag, ok := raw.(map[string]interface{})
					if !ok {
						continue
					}
					label := firstString(tag["label"], tag["value"])
					if label != "" {
						tags = append(tags, label)
					}
				}
			}
		}
	}
	if len(tags) > 10 {
		tags = tags[:10]
	}
	return tags
}

func firstString(values ...interface{}) string {
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// placeholderPng builds a 512x512 solid gray image for PNG output when no
// real art is available.
func placeholderPng() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 512, 512))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{R: 128, G: 128, B: 128, A: 255}}, image.Point{}, draw.Src)

	var buf bytes.Buffer
	// Encoding an in-memory RGBA image cannot fail.
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

func toMap(v interface{}) (map[string]interface{}, error) {
	raw, err := card.MarshalCompact(v)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
