package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"cardforge-be/internal/dto"
	"cardforge-be/internal/pkg/serverutils"
	"cardforge-be/pkg/document"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func v3Card(name string) document.Document {
	return document.Document{
		"spec":         "chara_card_v3",
		"spec_version": "3.0",
		"data": map[string]interface{}{
			"name":        name,
			"description": "A test character",
			"first_mes":   "Hello",
		},
	}
}

func TestCardServiceParseJSON(t *testing.T) {
	svc := NewCardService(nopLogger{})

	raw, _ := json.Marshal(v3Card("Aria"))
	res, err := svc.Parse(context.Background(), "aria.json", raw)
	assert.NoError(t, err)
	assert.Equal(t, "v3", res.SourceFormat)
	assert.False(t, res.HasImage)
	assert.Empty(t, res.Warnings)
}

func TestCardServiceParseV2AddsWarning(t *testing.T) {
	svc := NewCardService(nopLogger{})

	raw, _ := json.Marshal(map[string]interface{}{
		"spec":         "chara_card_v2",
		"spec_version": "2.0",
		"data": map[string]interface{}{
			"name":      "Old Timer",
			"first_mes": "Hi",
		},
	})
	res, err := svc.Parse(context.Background(), "old.json", raw)
	assert.NoError(t, err)
	assert.Equal(t, "v2", res.SourceFormat)
	assert.Contains(t, res.Warnings[0], "V2")
}

func TestCardServiceParseGarbage(t *testing.T) {
	svc := NewCardService(nopLogger{})

	_, err := svc.Parse(context.Background(), "bad.json", []byte(`{"not": "a card"}`))
	appErr, ok := err.(*serverutils.AppError)
	assert.True(t, ok)
	assert.Equal(t, fiber.StatusBadRequest, appErr.Status)
	assert.Equal(t, serverutils.CodeParseError, appErr.Code)
}

func TestCardServiceValidateMissingName(t *testing.T) {
	svc := NewCardService(nopLogger{})

	res, err := svc.Validate(context.Background(), &dto.ValidateCardRequest{Card: v3Card("  ")})
	assert.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Errors[0], "name")
}

func TestCardServiceValidateHealthy(t *testing.T) {
	svc := NewCardService(nopLogger{})

	res, err := svc.Validate(context.Background(), &dto.ValidateCardRequest{Card: v3Card("Aria")})
	assert.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
}

func TestCardServiceValidateTokenLimits(t *testing.T) {
	// 60000 ASCII chars estimate to 15000 tokens, past the hard limit.
	huge := v3Card("Aria")
	document.SetByString(huge, "data.description", strings.Repeat("abcd", 15000), true)

	svc := NewCardService(nopLogger{})
	res, err := svc.Validate(context.Background(), &dto.ValidateCardRequest{Card: huge})
	assert.NoError(t, err)
	assert.False(t, res.Valid)

	found := false
	for _, e := range res.Errors {
		if strings.Contains(e, "hard limit") {
			found = true
		}
	}
	assert.True(t, found, "expected a token hard-limit error, got %v", res.Errors)
}

func TestCardServiceValidateTokenWarning(t *testing.T) {
	// 36000 ASCII chars estimate to 9000 tokens: over budget, under the
	// hard limit.
	big := v3Card("Aria")
	document.SetByString(big, "data.description", strings.Repeat("abcd", 9000), true)

	svc := NewCardService(nopLogger{})
	res, err := svc.Validate(context.Background(), &dto.ValidateCardRequest{Card: big})
	assert.NoError(t, err)
	assert.True(t, res.Valid)
	assert.NotEmpty(t, res.Warnings)
}

func TestCardServiceCountTokens(t *testing.T) {
	svc := NewCardService(nopLogger{})

	res, err := svc.CountTokens(context.Background(), &dto.TokenCountRequest{Card: v3Card("Aria")})
	assert.NoError(t, err)
	assert.Equal(t, res.Breakdown["total"], res.Total)
	assert.Equal(t, 8000, res.Budget)
	assert.Equal(t, "", res.Warning)
}

func TestCardServiceCountTokensCustomBudget(t *testing.T) {
	svc := NewCardService(nopLogger{})

	res, err := svc.CountTokens(context.Background(), &dto.TokenCountRequest{
		Card:   v3Card("Aria"),
		Budget: 5,
	})
	assert.NoError(t, err)
	assert.Equal(t, 5, res.Budget)
	assert.Equal(t, "danger", res.Warning)
}
