package dto

import (
	"cardforge-be/pkg/llm"
)

type ProxyChatRequest struct {
	BaseUrl          string        `json:"base_url" validate:"required,url"`
	ApiKey           string        `json:"api_key"`
	Model            string        `json:"model" validate:"required"`
	Messages         []llm.Message `json:"messages" validate:"required,min=1"`
	Temperature      *float64      `json:"temperature"`
	MaxTokens        *int          `json:"max_tokens"`
	TopP             *float64      `json:"top_p"`
	FrequencyPenalty *float64      `json:"frequency_penalty"`
	PresencePenalty  *float64      `json:"presence_penalty"`
	Stop             []string      `json:"stop"`
	Stream           bool          `json:"stream"`
}

type ProxyChatResponse struct {
	Id           string     `json:"id"`
	Model        string     `json:"model"`
	Content      string     `json:"content"`
	FinishReason string     `json:"finish_reason"`
	Usage        *llm.Usage `json:"usage,omitempty"`
}

type ProxyImageRequest struct {
	BaseUrl        string `json:"base_url" validate:"required,url"`
	ApiKey         string `json:"api_key"`
	Model          string `json:"model"`
	Prompt         string `json:"prompt" validate:"required"`
	N              int    `json:"n" validate:"omitempty,min=1,max=10"`
	Size           string `json:"size"`
	Quality        string `json:"quality"`
	ResponseFormat string `json:"response_format" validate:"omitempty,oneof=url b64_json"`
	Style          string `json:"style"`
}

type ProxyImageResponse struct {
	Created int64           `json:"created"`
	Images  []llm.ImageData `json:"images"`
}

type ProxyModelsRequest struct {
	BaseUrl string `json:"base_url" validate:"required,url"`
	ApiKey  string `json:"api_key"`
}

type ProxyModelsResponse struct {
	Models []llm.ModelInfo `json:"models"`
}
