package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"cardforge-be/internal/config"
	"cardforge-be/internal/dto"
	"cardforge-be/internal/pkg/serverutils"
	"cardforge-be/pkg/card"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func quackServiceForTest() IQuackService {
	cfg := config.QuackConfig{
		BaseUrl:           "http://127.0.0.1:1", // never reached in JSON mode
		CharacterInfoPath: "/info",
		LorebookPath:      "/worldbook",
		Timeout:           time.Second,
	}
	return NewQuackService(cfg, nopLogger{})
}

func quackExport() string {
	data := map[string]interface{}{
		"authorName": "writer",
		"intro":      "A brave knight",
		"tags":       []interface{}{"fantasy", "knight"},
		"charList": []interface{}{
			map[string]interface{}{
				"name":     "Ser Aria",
				"firstMes": "Well met.",
				"attrs": []interface{}{
					map[string]interface{}{"label": "Class", "value": "Knight", "isVisible": true},
				},
			},
		},
		"characterbooks": []interface{}{
			map[string]interface{}{
				"entryList": []interface{}{
					map[string]interface{}{"name": "Castle", "content": "Home base", "keywords": []interface{}{"castle"}},
				},
			},
		},
	}
	raw, _ := json.Marshal(data)
	return string(raw)
}

func TestQuackImportFromPastedJSON(t *testing.T) {
	svc := quackServiceForTest()

	res, err := svc.Import(context.Background(), &dto.QuackImportRequest{QuackInput: quackExport()})
	assert.NoError(t, err)
	assert.Equal(t, "json", res.Source)
	assert.NotEmpty(t, res.Warnings)

	data := res.Card["data"].(map[string]interface{})
	assert.Equal(t, "Ser Aria", data["name"])

	book := data["character_book"].(map[string]interface{})
	assert.Len(t, book["entries"], 1)
}

func TestQuackImportLorebookOnly(t *testing.T) {
	svc := quackServiceForTest()

	res, err := svc.Import(context.Background(), &dto.QuackImportRequest{
		QuackInput: quackExport(),
		Mode:       "only_lorebook",
	})
	assert.NoError(t, err)
	assert.Nil(t, res.Card)
	assert.Len(t, res.Lorebook["entries"], 1)
}

func TestQuackImportLorebookOnlyWithoutBook(t *testing.T) {
	svc := quackServiceForTest()

	_, err := svc.Import(context.Background(), &dto.QuackImportRequest{
		QuackInput: `{"charList":[{"name":"Solo"}]}`,
		Mode:       "only_lorebook",
	})
	appErr, ok := err.(*serverutils.AppError)
	assert.True(t, ok)
	assert.Equal(t, fiber.StatusBadRequest, appErr.Status)
}

func TestQuackImportPngOutput(t *testing.T) {
	svc := quackServiceForTest()

	res, err := svc.Import(context.Background(), &dto.QuackImportRequest{
		QuackInput:   quackExport(),
		OutputFormat: "png",
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, res.PngBase64)

	// The PNG must round-trip back to the same character.
	raw, err := base64.StdEncoding.DecodeString(res.PngBase64)
	assert.NoError(t, err)
	parsed, err := card.ImportPNG(raw)
	assert.NoError(t, err)
	assert.Equal(t, "Ser Aria", parsed.Card.Data.Name)
}

func TestQuackImportBadInput(t *testing.T) {
	svc := quackServiceForTest()

	_, err := svc.Import(context.Background(), &dto.QuackImportRequest{
		QuackInput: "https://example.com/some/other/page!!",
	})
	appErr, ok := err.(*serverutils.AppError)
	assert.True(t, ok)
	assert.Equal(t, serverutils.CodeValidationError, appErr.Code)
}

func TestQuackPreviewFromPastedJSON(t *testing.T) {
	svc := quackServiceForTest()

	res, err := svc.Preview(context.Background(), &dto.QuackPreviewRequest{QuackInput: quackExport()})
	assert.NoError(t, err)
	assert.Equal(t, "json", res.Source)
	assert.Equal(t, "Ser Aria", res.Name)
	assert.Equal(t, "writer", res.Creator)
	assert.Equal(t, "A brave knight", res.Intro)
	assert.Equal(t, []string{"fantasy", "knight"}, res.Tags)
	assert.Equal(t, 1, res.AttrCount)
	assert.Equal(t, 1, res.LorebookCount)
}

func TestQuackPreviewTruncatesIntro(t *testing.T) {
	long := make([]rune, 0, 300)
	for i := 0; i < 300; i++ {
		long = append(long, '句')
	}
	raw, _ := json.Marshal(map[string]interface{}{
		"intro":    string(long),
		"charList": []interface{}{map[string]interface{}{"name": "Chatty"}},
	})

	svc := quackServiceForTest()
	res, err := svc.Preview(context.Background(), &dto.QuackPreviewRequest{QuackInput: string(raw)})
	assert.NoError(t, err)
	assert.Len(t, []rune(res.Intro), 200)
}
