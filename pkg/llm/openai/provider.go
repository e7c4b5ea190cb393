// Package openai implements llm.LLMProvider against any OpenAI-compatible
// chat completions API.
package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cardforge-be/pkg/llm"
)

const maxResponseSize = 50 << 20

type OpenAIProvider struct {
	BaseURL   string
	ApiKey    string
	ModelName string
	Client    *http.Client
}

// Ensure OpenAIProvider implements LLMProvider
var _ llm.LLMProvider = &OpenAIProvider{}

func NewOpenAIProvider(baseURL, apiKey, modelName string, timeout time.Duration) *OpenAIProvider {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIProvider{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		ApiKey:    apiKey,
		ModelName: modelName,
		Client: &http.Client{
			Timeout: timeout,
		},
	}
}

// --- Request/Response structs (Internal to this package) ---

type chatRequest struct {
	Model            string        `json:"model"`
	Messages         []llm.Message `json:"messages"`
	Temperature      float64       `json:"temperature"`
	Stream           bool          `json:"stream"`
	MaxTokens        int           `json:"max_tokens,omitempty"`
	TopP             *float64      `json:"top_p,omitempty"`
	FrequencyPenalty *float64      `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float64      `json:"presence_penalty,omitempty"`
	Stop             []string      `json:"stop,omitempty"`
}

type chatChoice struct {
	Index        int          `json:"index"`
	Message      *llm.Message `json:"message,omitempty"`
	Delta        *llm.Message `json:"delta,omitempty"`
	FinishReason string       `json:"finish_reason"`
}

type chatResponse struct {
	Id      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   *llm.Usage   `json:"usage,omitempty"`
}

type modelsResponse struct {
	Object string          `json:"object"`
	Data   []llm.ModelInfo `json:"data"`
}

// --- Interface Implementation ---

func (o *OpenAIProvider) buildRequest(history []llm.Message, stream bool, opts []llm.Option) chatRequest {
	// 1. Process options
	options := &llm.Options{
		Temperature: 0.7, // Default
	}
	for _, opt := range opts {
		opt(options)
	}

	// 2. Resolve model
	model := o.ModelName
	if options.Model != "" {
		model = options.Model
	}

	return chatRequest{
		Model:            model,
		Messages:         history,
		Temperature:      options.Temperature,
		Stream:           stream,
		MaxTokens:        options.MaxTokens,
		TopP:             options.TopP,
		FrequencyPenalty: options.FrequencyPenalty,
		PresencePenalty:  options.PresencePenalty,
		Stop:             options.Stop,
	}
}

func (o *OpenAIProvider) post(ctx context.Context, payload chatRequest) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &llm.Error{Kind: llm.KindNetwork, Message: "marshal request", Err: err}
	}

	url := o.BaseURL + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &llm.Error{Kind: llm.KindNetwork, Message: "create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.ApiKey)

	resp, err := o.Client.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	return resp, nil
}

func classifyTransportError(err error) *llm.Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &llm.Error{Kind: llm.KindTimeout, Message: "Request timed out"}
	}
	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) && timeoutErr.Timeout() {
		return &llm.Error{Kind: llm.KindTimeout, Message: "Request timed out"}
	}
	return &llm.Error{Kind: llm.KindNetwork, Message: "network error", Err: err}
}

func classifyStatus(status int, body []byte) *llm.Error {
	if status == http.StatusTooManyRequests {
		return &llm.Error{Kind: llm.KindRateLimited, Message: "Rate limit exceeded", StatusCode: status}
	}
	return &llm.Error{
		Kind:       llm.KindUpstream,
		Message:    fmt.Sprintf("API error: %s", string(body)),
		StatusCode: status,
	}
}

func (o *OpenAIProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (*llm.ChatResult, error) {
	resp, err := o.post(ctx, o.buildRequest(history, false, opts))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, classifyTransportError(err)
	}
	if resp.StatusCode >= 400 {
		return nil, classifyStatus(resp.StatusCode, body)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &llm.Error{Kind: llm.KindUpstream, Message: "unmarshal response", Err: err}
	}

	result := &llm.ChatResult{
		Id:      parsed.Id,
		Model:   parsed.Model,
		Created: parsed.Created,
		Usage:   parsed.Usage,
	}
	if len(parsed.Choices) > 0 {
		choice := parsed.Choices[0]
		if choice.Message != nil {
			result.Content = choice.Message.Content
		}
		result.FinishReason = choice.FinishReason
	}
	return result, nil
}

func (o *OpenAIProvider) ChatStream(ctx context.Context, history []llm.Message, fn func(llm.StreamChunk) error, opts ...llm.Option) error {
	resp, err := o.post(ctx, o.buildRequest(history, true, opts))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return classifyStatus(resp.StatusCode, body)
	}

	scanner := bufio.NewScanner(io.LimitReader(resp.Body, maxResponseSize))
	scanner.Buffer(make([]byte, 64*1024), 1<<20)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := line[len("data: "):]
		if payload == "[DONE]" {
			return nil
		}

		var parsed chatResponse
		if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
			continue
		}

		chunk := llm.StreamChunk{
			Id:      parsed.Id,
			Model:   parsed.Model,
			Created: parsed.Created,
		}
		if len(parsed.Choices) > 0 {
			choice := parsed.Choices[0]
			if choice.Delta != nil {
				chunk.Delta = choice.Delta.Content
			}
			chunk.FinishReason = choice.FinishReason
		}
		if err := fn(chunk); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return classifyTransportError(err)
	}
	return nil
}

func (o *OpenAIProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	// Reuse Chat for simplicity as most new LLMs are chat-optimized
	result, err := o.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
	if err != nil {
		return "", err
	}
	return result.Content, nil
}

// GenerateImage calls the upstream images endpoint. Empty fields fall back
// to the DALL-E defaults the endpoint documents.
func (o *OpenAIProvider) GenerateImage(ctx context.Context, imgReq llm.ImageRequest) (*llm.ImageResult, error) {
	if imgReq.Model == "" {
		imgReq.Model = "dall-e-3"
	}
	if imgReq.N == 0 {
		imgReq.N = 1
	}
	if imgReq.Size == "" {
		imgReq.Size = "1024x1024"
	}

	payload, err := json.Marshal(imgReq)
	if err != nil {
		return nil, &llm.Error{Kind: llm.KindNetwork, Message: "marshal request", Err: err}
	}

	url := o.BaseURL + "/v1/images/generations"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &llm.Error{Kind: llm.KindNetwork, Message: "create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.ApiKey)

	resp, err := o.Client.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, classifyTransportError(err)
	}
	if resp.StatusCode >= 400 {
		return nil, classifyStatus(resp.StatusCode, body)
	}

	var parsed llm.ImageResult
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &llm.Error{Kind: llm.KindUpstream, Message: "unmarshal response", Err: err}
	}
	return &parsed, nil
}

// ListModels fetches the upstream model catalog.
func (o *OpenAIProvider) ListModels(ctx context.Context) ([]llm.ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.BaseURL+"/v1/models", nil)
	if err != nil {
		return nil, &llm.Error{Kind: llm.KindNetwork, Message: "create request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+o.ApiKey)

	resp, err := o.Client.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, classifyTransportError(err)
	}
	if resp.StatusCode >= 400 {
		return nil, classifyStatus(resp.StatusCode, body)
	}

	var parsed modelsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &llm.Error{Kind: llm.KindUpstream, Message: "unmarshal response", Err: err}
	}
	return parsed.Data, nil
}
