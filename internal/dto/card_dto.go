package dto

import (
	"cardforge-be/pkg/document"
)

type ParseCardResponse struct {
	Card         document.Document `json:"card"`
	SourceFormat string            `json:"source_format"`
	HasImage     bool              `json:"has_image"`
	Warnings     []string          `json:"warnings"`
}

// InjectCardRequest carries the multipart form fields of the inject
// endpoint. The image file itself is read from the multipart reader by the
// controller; Card arrives as a JSON string form field.
type InjectCardRequest struct {
	Card            document.Document
	IncludeV2Compat bool
	StrictVerify    bool
}

type ValidateCardRequest struct {
	Card document.Document `json:"card" validate:"required"`
}

type ValidateCardResponse struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

type TokenCountRequest struct {
	Card   document.Document `json:"card" validate:"required"`
	Budget int               `json:"budget"`
}

type TokenCountResponse struct {
	Breakdown map[string]int `json:"breakdown"`
	Total     int            `json:"total"`
	Budget    int            `json:"budget"`
	Warning   string         `json:"warning"`
}
