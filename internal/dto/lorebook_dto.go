package dto

import (
	"cardforge-be/pkg/document"
)

type ExportLorebookRequest struct {
	Card document.Document `json:"card" validate:"required"`
}

type ExportLorebookResponse struct {
	Lorebook   map[string]interface{} `json:"lorebook"`
	EntryCount int                    `json:"entry_count"`
}

type ImportLorebookRequest struct {
	Card      document.Document      `json:"card" validate:"required"`
	Lorebook  map[string]interface{} `json:"lorebook" validate:"required"`
	MergeMode string                 `json:"merge_mode" validate:"omitempty,oneof=replace merge skip"`
}

type ImportLorebookResponse struct {
	Card         document.Document `json:"card"`
	EntryCount   int               `json:"entry_count"`
	EntriesAdded int               `json:"entries_added"`
}
