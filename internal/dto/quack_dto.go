package dto

import (
	"cardforge-be/pkg/document"
)

type QuackImportRequest struct {
	// QuackInput is a character id, a character URL, or a pasted JSON
	// export (detected by a leading "{").
	QuackInput   string `json:"quack_input" validate:"required"`
	Cookies      string `json:"cookies"`
	Mode         string `json:"mode" validate:"omitempty,oneof=card only_lorebook"`
	OutputFormat string `json:"output_format" validate:"omitempty,oneof=json png"`
}

type QuackImportResponse struct {
	Card      document.Document      `json:"card,omitempty"`
	Lorebook  map[string]interface{} `json:"lorebook,omitempty"`
	PngBase64 string                 `json:"png_base64,omitempty"`
	Source    string                 `json:"source"`
	Warnings  []string               `json:"warnings"`
}

type QuackPreviewRequest struct {
	QuackInput string `json:"quack_input" validate:"required"`
	Cookies    string `json:"cookies"`
}

type QuackPreviewResponse struct {
	Name          string   `json:"name"`
	Creator       string   `json:"creator"`
	Intro         string   `json:"intro"`
	Tags          []string `json:"tags"`
	AttrCount     int      `json:"attr_count"`
	LorebookCount int      `json:"lorebook_count"`
	Source        string   `json:"source"`
}
