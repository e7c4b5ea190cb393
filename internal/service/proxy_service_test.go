package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cardforge-be/internal/config"
	"cardforge-be/internal/dto"
	"cardforge-be/internal/pkg/security"
	"cardforge-be/internal/pkg/serverutils"
	"cardforge-be/pkg/llm"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func proxyServiceForTest(allowLocalhost bool) IProxyService {
	guard := security.NewGuard([]string{"api.openai.com"}, allowLocalhost)
	cfg := config.ProxyConfig{
		Timeout:         5 * time.Second,
		RateLimitPerMin: 60,
		LogRedact:       true,
	}
	return NewProxyService(guard, cfg, nopLogger{})
}

func chatReq(baseUrl string) *dto.ProxyChatRequest {
	return &dto.ProxyChatRequest{
		BaseUrl:  baseUrl,
		ApiKey:   "sk-test",
		Model:    "gpt-4o-mini",
		Messages: []llm.Message{{Role: "user", Content: "hi"}},
	}
}

func TestProxyChatBlockedTarget(t *testing.T) {
	svc := proxyServiceForTest(false)

	_, err := svc.Chat(context.Background(), chatReq("https://evil.internal.example"))
	blocked, ok := err.(*security.BlockedError)
	assert.True(t, ok)
	assert.Equal(t, security.ReasonNotAllowlisted, blocked.Reason)
}

func TestProxyChatLocalhostBlockedByDefault(t *testing.T) {
	svc := proxyServiceForTest(false)

	_, err := svc.Chat(context.Background(), chatReq("http://127.0.0.1:9999"))
	_, ok := err.(*security.BlockedError)
	assert.True(t, ok)
}

func TestProxyChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"model": "gpt-4o-mini",
			"choices": [{"message": {"role": "assistant", "content": "hello"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 3, "completion_tokens": 1, "total_tokens": 4}
		}`))
	}))
	defer srv.Close()

	svc := proxyServiceForTest(true)
	res, err := svc.Chat(context.Background(), chatReq(srv.URL))
	assert.NoError(t, err)
	assert.Equal(t, "hello", res.Content)
	assert.Equal(t, "stop", res.FinishReason)
	if assert.NotNil(t, res.Usage) {
		assert.Equal(t, 4, res.Usage.TotalTokens)
	}
}

func TestProxyChatRateLimitMapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	svc := proxyServiceForTest(true)
	_, err := svc.Chat(context.Background(), chatReq(srv.URL))
	appErr, ok := err.(*serverutils.AppError)
	assert.True(t, ok)
	assert.Equal(t, fiber.StatusTooManyRequests, appErr.Status)
	assert.Equal(t, serverutils.CodeRateLimited, appErr.Code)
}

func TestProxyChatStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("data: {\"id\":\"c1\",\"choices\":[{\"delta\":{\"content\":\"he\"}}]}\n\n"))
		w.Write([]byte("data: {\"id\":\"c1\",\"choices\":[{\"delta\":{\"content\":\"llo\"},\"finish_reason\":\"stop\"}]}\n\n"))
		w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer srv.Close()

	svc := proxyServiceForTest(true)
	var got string
	err := svc.ChatStream(context.Background(), chatReq(srv.URL), func(chunk llm.StreamChunk) error {
		got += chunk.Delta
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestProxyImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images/generations", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a knight", body["prompt"])
		assert.Equal(t, "dall-e-3", body["model"])
		assert.Equal(t, "1024x1024", body["size"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"created": 1700000000,
			"data": [{"url": "https://img.example/1.png", "revised_prompt": "a noble knight"}]
		}`))
	}))
	defer srv.Close()

	svc := proxyServiceForTest(true)
	res, err := svc.Image(context.Background(), &dto.ProxyImageRequest{
		BaseUrl: srv.URL,
		ApiKey:  "sk-test",
		Prompt:  "a knight",
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(1700000000), res.Created)
	if assert.Len(t, res.Images, 1) {
		assert.Equal(t, "https://img.example/1.png", res.Images[0].Url)
	}
}

func TestProxyImageBlockedTarget(t *testing.T) {
	svc := proxyServiceForTest(false)

	_, err := svc.Image(context.Background(), &dto.ProxyImageRequest{
		BaseUrl: "http://10.0.0.5",
		Prompt:  "a knight",
	})
	_, ok := err.(*security.BlockedError)
	assert.True(t, ok)
}

func TestProxyModelsBlockedTarget(t *testing.T) {
	svc := proxyServiceForTest(false)

	_, err := svc.Models(context.Background(), &dto.ProxyModelsRequest{BaseUrl: "http://10.0.0.5"})
	_, ok := err.(*security.BlockedError)
	assert.True(t, ok)
}
