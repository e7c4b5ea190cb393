// Package store holds the in-memory state of an editing session: the card
// document under edit, its undo history, and save tracking.
package store

import (
	"sync"
	"time"

	"cardforge-be/pkg/document"
)

// Session represents one open card in the editor. Mutating access goes
// through the embedded document store and history; Session itself adds
// identity, bookkeeping, and locking across the two.
type Session struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`     // character name at open time
	Filename  string    `json:"filename"` // original upload filename, if any
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	mu      sync.Mutex
	store   *document.Store
	history *document.History
}

// NewSession opens a session around a card document. The document becomes
// both the current state and the first history snapshot.
func NewSession(id string, doc document.Document, historySize int, debounce time.Duration, logger document.Logger) *Session {
	s := &Session{
		ID:        id,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		store:     document.NewStore(debounce, logger),
		history:   document.NewHistory(historySize),
	}
	s.store.Load(doc)
	s.history.Init(doc)

	if name, ok := document.GetString(doc, document.ParsePath("data.name")); ok {
		s.Name = name
	}
	return s
}

// Mutate applies a path edit to the current document and records the result
// as a new history snapshot. Returns false when the path could not be
// written; the document is unchanged in that case.
func (s *Session) Mutate(path string, value interface{}) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.store.Mutate(document.ParsePath(path), value) {
		return false
	}
	s.history.Push(s.store.Current())
	s.UpdatedAt = time.Now()
	return true
}

// Undo steps the session back one snapshot. Returns the restored document
// or nil when already at the oldest state.
func (s *Session) Undo() document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.history.Undo()
	if doc != nil {
		s.store.Restore(doc)
		s.UpdatedAt = time.Now()
	}
	return doc
}

// Redo steps the session forward one snapshot.
func (s *Session) Redo() document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.history.Redo()
	if doc != nil {
		s.store.Restore(doc)
		s.UpdatedAt = time.Now()
	}
	return doc
}

// Save marks the current state as the saved baseline.
func (s *Session) Save() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Save()
	s.UpdatedAt = time.Now()
}

// Reset discards unsaved edits, restoring the last saved state, and records
// the restore in history so it can itself be undone.
func (s *Session) Reset() document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.store.Reset()
	doc := s.store.Current()
	if doc != nil {
		s.history.Push(doc)
	}
	s.UpdatedAt = time.Now()
	return doc
}

// Current returns the live document. Callers must not retain it across
// mutations; use Snapshot for an independent copy.
func (s *Session) Current() document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Current()
}

// Snapshot returns an independent deep copy of the current document.
func (s *Session) Snapshot() document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Snapshot()
}

// Dirty reports whether the session has unsaved changes.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Dirty()
}

// CanUndo reports whether an undo step is available.
func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanUndo()
}

// CanRedo reports whether a redo step is available.
func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanRedo()
}

// HistoryPosition returns (index, length) of the undo stack.
func (s *Session) HistoryPosition() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Position(), s.history.Len()
}

// Close releases the session's pending timers and state.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Clear()
	s.history.Clear()
}
