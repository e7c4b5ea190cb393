package dto

import (
	"time"

	"cardforge-be/pkg/document"
)

type OpenSessionRequest struct {
	Card     document.Document `json:"card" validate:"required"`
	Filename string            `json:"filename"`
}

// SessionState is the bookkeeping slice of a session returned alongside
// most session operations so the editor can keep its UI in sync.
type SessionState struct {
	Id              string    `json:"id"`
	Name            string    `json:"name"`
	Filename        string    `json:"filename"`
	Dirty           bool      `json:"dirty"`
	CanUndo         bool      `json:"can_undo"`
	CanRedo         bool      `json:"can_redo"`
	HistoryPosition int       `json:"history_position"`
	HistoryLength   int       `json:"history_length"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type SessionResponse struct {
	State SessionState      `json:"state"`
	Card  document.Document `json:"card"`
}

type MutateSessionRequest struct {
	Path  string      `json:"path" validate:"required"`
	Value interface{} `json:"value"`
}

type MutateSessionResponse struct {
	State SessionState `json:"state"`
}
