package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"cardforge-be/internal/bootstrap"
	"cardforge-be/internal/config"
	"cardforge-be/internal/server"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	cfg := config.Load()
	cfg.App.LogFilePath = t.TempDir() + "/test.log"

	container := bootstrap.NewContainer(cfg)
	return server.New(cfg, container).GetApp()
}

func doJSON(t *testing.T, app *fiber.App, method, target string, payload interface{}) (int, map[string]interface{}) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		assert.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)

	var decoded map[string]interface{}
	if len(raw) > 0 {
		assert.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp.StatusCode, decoded
}

func testCard(name string) map[string]interface{} {
	return map[string]interface{}{
		"spec":         "chara_card_v3",
		"spec_version": "3.0",
		"data": map[string]interface{}{
			"name":        name,
			"description": "Integration test character",
			"first_mes":   "Hello",
		},
	}
}

func TestHealthEndpoint(t *testing.T) {
	app := newTestApp(t)

	status, body := doJSON(t, app, "GET", "/api/health/v1", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestValidateEndpoint(t *testing.T) {
	app := newTestApp(t)

	status, body := doJSON(t, app, "POST", "/api/cards/v1/validate", map[string]interface{}{
		"card": testCard("Aria"),
	})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["success"])

	data := body["data"].(map[string]interface{})
	assert.Equal(t, true, data["valid"])
}

func TestValidateEndpointRejectsMissingCard(t *testing.T) {
	app := newTestApp(t)

	status, body := doJSON(t, app, "POST", "/api/cards/v1/validate", map[string]interface{}{})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", body["error_code"])
}

func TestTokenEndpoint(t *testing.T) {
	app := newTestApp(t)

	status, body := doJSON(t, app, "POST", "/api/cards/v1/tokens", map[string]interface{}{
		"card": testCard("Aria"),
	})
	assert.Equal(t, fiber.StatusOK, status)

	data := body["data"].(map[string]interface{})
	assert.NotNil(t, data["breakdown"])
	assert.Equal(t, float64(8000), data["budget"])
}

func TestSessionLifecycle(t *testing.T) {
	app := newTestApp(t)

	// Open
	status, body := doJSON(t, app, "POST", "/api/session/v1", map[string]interface{}{
		"card": testCard("Aria"),
	})
	assert.Equal(t, fiber.StatusCreated, status)

	data := body["data"].(map[string]interface{})
	state := data["state"].(map[string]interface{})
	id := state["id"].(string)
	assert.NotEmpty(t, id)
	assert.Equal(t, "Aria", state["name"])

	// Mutate
	status, body = doJSON(t, app, "PUT", "/api/session/v1/"+id+"/mutate", map[string]interface{}{
		"path":  "data.name",
		"value": "Kei",
	})
	assert.Equal(t, fiber.StatusOK, status)
	state = body["data"].(map[string]interface{})["state"].(map[string]interface{})
	assert.Equal(t, true, state["can_undo"])

	// Undo restores the original name
	status, body = doJSON(t, app, "POST", "/api/session/v1/"+id+"/undo", nil)
	assert.Equal(t, fiber.StatusOK, status)
	card := body["data"].(map[string]interface{})["card"].(map[string]interface{})
	assert.Equal(t, "Aria", card["data"].(map[string]interface{})["name"])

	// Redo brings the edit back
	status, body = doJSON(t, app, "POST", "/api/session/v1/"+id+"/redo", nil)
	assert.Equal(t, fiber.StatusOK, status)
	card = body["data"].(map[string]interface{})["card"].(map[string]interface{})
	assert.Equal(t, "Kei", card["data"].(map[string]interface{})["name"])

	// Close, then the session is gone
	status, _ = doJSON(t, app, "DELETE", "/api/session/v1/"+id, nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = doJSON(t, app, "GET", "/api/session/v1/"+id, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestSessionUndoConflict(t *testing.T) {
	app := newTestApp(t)

	_, body := doJSON(t, app, "POST", "/api/session/v1", map[string]interface{}{
		"card": testCard("Aria"),
	})
	id := body["data"].(map[string]interface{})["state"].(map[string]interface{})["id"].(string)

	status, _ := doJSON(t, app, "POST", "/api/session/v1/"+id+"/undo", nil)
	assert.Equal(t, fiber.StatusConflict, status)
}

func TestLorebookExportEndpoint(t *testing.T) {
	app := newTestApp(t)

	status, body := doJSON(t, app, "POST", "/api/lorebook/v1/export", map[string]interface{}{
		"card": testCard("Aria"),
	})
	assert.Equal(t, fiber.StatusOK, status)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(0), data["entry_count"])
}

func TestLorebookImportEndpointToleratesArrayIds(t *testing.T) {
	app := newTestApp(t)

	card := testCard("Aria")
	card["data"].(map[string]interface{})["character_book"] = map[string]interface{}{
		"name":    "Book",
		"entries": []interface{}{map[string]interface{}{"id": []interface{}{1, 2}, "content": "a"}},
	}
	status, body := doJSON(t, app, "POST", "/api/lorebook/v1/import", map[string]interface{}{
		"card": card,
		"lorebook": map[string]interface{}{
			"name":    "Imported",
			"entries": []interface{}{map[string]interface{}{"id": []interface{}{1, 2}, "content": "b"}},
		},
		"merge_mode": "merge",
	})
	assert.Equal(t, fiber.StatusOK, status)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["entry_count"])
}

func TestProxyImageBlocksLocalhost(t *testing.T) {
	app := newTestApp(t)

	status, body := doJSON(t, app, "POST", "/api/proxy/v1/image", map[string]interface{}{
		"base_url": "http://127.0.0.1:9999",
		"prompt":   "a knight",
	})
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "URL_BLOCKED", body["error_code"])
}

func TestProxyChatBlocksLocalhost(t *testing.T) {
	app := newTestApp(t)

	status, body := doJSON(t, app, "POST", "/api/proxy/v1/chat", map[string]interface{}{
		"base_url": "http://127.0.0.1:9999",
		"model":    "gpt-4o-mini",
		"messages": []map[string]interface{}{{"role": "user", "content": "hi"}},
	})
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "URL_BLOCKED", body["error_code"])
}

func TestUnknownSessionReturnsEnvelope(t *testing.T) {
	app := newTestApp(t)

	status, body := doJSON(t, app, "GET", "/api/session/v1/missing", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "NOT_FOUND", body["error_code"])
}
