package service

import (
	"context"
	"errors"
	"fmt"

	"cardforge-be/internal/config"
	"cardforge-be/internal/dto"
	"cardforge-be/internal/pkg/logger"
	"cardforge-be/internal/pkg/security"
	"cardforge-be/internal/pkg/serverutils"
	"cardforge-be/pkg/llm"
	"cardforge-be/pkg/llm/openai"

	"github.com/gofiber/fiber/v2"
)

type IProxyService interface {
	ValidateTarget(baseUrl string) error
	Chat(ctx context.Context, req *dto.ProxyChatRequest) (*dto.ProxyChatResponse, error)
	ChatStream(ctx context.Context, req *dto.ProxyChatRequest, fn func(llm.StreamChunk) error) error
	Image(ctx context.Context, req *dto.ProxyImageRequest) (*dto.ProxyImageResponse, error)
	Models(ctx context.Context, req *dto.ProxyModelsRequest) (*dto.ProxyModelsResponse, error)
}

type proxyService struct {
	guard  *security.Guard
	config config.ProxyConfig
	logger logger.ILogger
}

func NewProxyService(guard *security.Guard, cfg config.ProxyConfig, logger logger.ILogger) IProxyService {
	return &proxyService{
		guard:  guard,
		config: cfg,
		logger: logger,
	}
}

// ValidateTarget checks the upstream URL against the allowlist and private
// address filtering before any streaming response begins.
func (s *proxyService) ValidateTarget(baseUrl string) error {
	return s.guard.ValidateURL(baseUrl)
}

// provider vets the upstream URL and builds a client for it. Keys live only
// in the request, nothing is retained between calls.
func (s *proxyService) provider(req *dto.ProxyChatRequest) (*openai.OpenAIProvider, error) {
	if err := s.guard.ValidateURL(req.BaseUrl); err != nil {
		return nil, err
	}
	return openai.NewOpenAIProvider(req.BaseUrl, req.ApiKey, req.Model, s.config.Timeout), nil
}

func buildOptions(req *dto.ProxyChatRequest) []llm.Option {
	opts := []llm.Option{llm.WithModel(req.Model)}
	if req.Temperature != nil {
		opts = append(opts, llm.WithTemperature(*req.Temperature))
	}
	if req.MaxTokens != nil {
		opts = append(opts, llm.WithMaxTokens(*req.MaxTokens))
	}
	if req.TopP != nil {
		opts = append(opts, llm.WithTopP(*req.TopP))
	}
	if req.FrequencyPenalty != nil {
		opts = append(opts, llm.WithFrequencyPenalty(*req.FrequencyPenalty))
	}
	if req.PresencePenalty != nil {
		opts = append(opts, llm.WithPresencePenalty(*req.PresencePenalty))
	}
	if len(req.Stop) > 0 {
		opts = append(opts, llm.WithStop(req.Stop))
	}
	return opts
}

func mapLLMError(err error) error {
	var lerr *llm.Error
	if !errors.As(err, &lerr) {
		return err
	}
	switch lerr.Kind {
	case llm.KindRateLimited:
		return serverutils.NewAppError(fiber.StatusTooManyRequests, serverutils.CodeRateLimited, "Upstream rate limit hit").WithErr(err)
	case llm.KindTimeout:
		return serverutils.NewAppError(fiber.StatusGatewayTimeout, serverutils.CodeTimeout, "Upstream request timed out").WithErr(err)
	case llm.KindNetwork:
		return serverutils.NewAppError(fiber.StatusBadGateway, serverutils.CodeNetworkError, "Could not reach the upstream API").WithErr(err)
	default:
		status := lerr.StatusCode
		if status < 400 {
			status = fiber.StatusBadGateway
		}
		return serverutils.NewAppError(status, serverutils.CodeUpstreamError, lerr.Message).WithErr(err)
	}
}

func (s *proxyService) logRequest(req *dto.ProxyChatRequest, stream bool) {
	detail := fmt.Sprintf("model=%s messages=%d base_url=%s", req.Model, len(req.Messages), req.BaseUrl)
	if s.config.LogRedact {
		detail = security.Redact(detail)
	}
	s.logger.Info("proxy", "Chat request forwarded", map[string]interface{}{
		"detail": detail,
		"stream": stream,
	})
}

func (s *proxyService) Chat(ctx context.Context, req *dto.ProxyChatRequest) (*dto.ProxyChatResponse, error) {
	provider, err := s.provider(req)
	if err != nil {
		return nil, err
	}
	s.logRequest(req, false)

	result, err := provider.Chat(ctx, req.Messages, buildOptions(req)...)
	if err != nil {
		return nil, mapLLMError(err)
	}

	resp := &dto.ProxyChatResponse{
		Id:           result.Id,
		Model:        result.Model,
		Content:      result.Content,
		FinishReason: result.FinishReason,
	}
	resp.Usage = result.Usage
	return resp, nil
}

func (s *proxyService) ChatStream(ctx context.Context, req *dto.ProxyChatRequest, fn func(llm.StreamChunk) error) error {
	provider, err := s.provider(req)
	if err != nil {
		return err
	}
	s.logRequest(req, true)

	if err := provider.ChatStream(ctx, req.Messages, fn, buildOptions(req)...); err != nil {
		return mapLLMError(err)
	}
	return nil
}

func (s *proxyService) Image(ctx context.Context, req *dto.ProxyImageRequest) (*dto.ProxyImageResponse, error) {
	if err := s.guard.ValidateURL(req.BaseUrl); err != nil {
		return nil, err
	}

	detail := fmt.Sprintf("model=%s base_url=%s", req.Model, req.BaseUrl)
	if s.config.LogRedact {
		detail = security.Redact(detail)
	}
	s.logger.Info("proxy", "Image request forwarded", map[string]interface{}{
		"detail": detail,
	})

	provider := openai.NewOpenAIProvider(req.BaseUrl, req.ApiKey, req.Model, s.config.Timeout)
	result, err := provider.GenerateImage(ctx, llm.ImageRequest{
		Prompt:         req.Prompt,
		Model:          req.Model,
		N:              req.N,
		Size:           req.Size,
		Quality:        req.Quality,
		ResponseFormat: req.ResponseFormat,
		Style:          req.Style,
	})
	if err != nil {
		return nil, mapLLMError(err)
	}

	images := result.Data
	if images == nil {
		images = []llm.ImageData{}
	}
	return &dto.ProxyImageResponse{Created: result.Created, Images: images}, nil
}

func (s *proxyService) Models(ctx context.Context, req *dto.ProxyModelsRequest) (*dto.ProxyModelsResponse, error) {
	if err := s.guard.ValidateURL(req.BaseUrl); err != nil {
		return nil, err
	}

	provider := openai.NewOpenAIProvider(req.BaseUrl, req.ApiKey, "", s.config.Timeout)
	models, err := provider.ListModels(ctx)
	if err != nil {
		return nil, mapLLMError(err)
	}
	return &dto.ProxyModelsResponse{Models: models}, nil
}
