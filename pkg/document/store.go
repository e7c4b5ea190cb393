package document

import (
	"sync"
	"time"
)

// DefaultDirtyDebounce is the quiet window before the authoritative dirty
// recomputation runs. Deep equality over a large card on every keystroke is
// too expensive; the optimistic flag gives instant feedback and the exact
// value catches up once input settles.
const DefaultDirtyDebounce = 500 * time.Millisecond

// Logger is the slice of the application logger the store needs for
// path-traversal diagnostics.
type Logger interface {
	Warn(module, message string, details map[string]interface{})
}

// Store owns the current document and the last-saved snapshot of one editing
// session. It does not push to history itself: callers record the
// pre-mutation snapshot before calling Mutate when undo support is wanted.
//
// All operations on a nil current/lastSaved are no-ops rather than errors.
type Store struct {
	mu        sync.Mutex
	current   Document
	lastSaved Document
	dirty     bool

	debounce time.Duration
	timer    *time.Timer
	logger   Logger
}

// NewStore creates an empty store. A zero debounce falls back to
// DefaultDirtyDebounce; logger may be nil.
func NewStore(debounce time.Duration, logger Logger) *Store {
	if debounce <= 0 {
		debounce = DefaultDirtyDebounce
	}
	return &Store{
		debounce: debounce,
		logger:   logger,
	}
}

// Load installs doc as the current document and snapshots it as last-saved.
// History init/clear is the caller's responsibility as part of the broader
// "load card" operation.
func (s *Store) Load(doc Document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelPending()
	s.current = doc
	s.lastSaved = Clone(doc)
	s.dirty = false
}

// Mutate applies a path-addressed update to the current document and marks
// the store dirty. A failed traversal is logged and skipped; a single bad
// field update must not take down the editing session.
func (s *Store) Mutate(path Path, value interface{}) bool {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return false
	}
	ok, replaced := SetChecked(s.current, path, value, true)
	if !ok {
		if s.logger != nil {
			s.logger.Warn("document", "Path mutation skipped", map[string]interface{}{
				"path": path.String(),
			})
		}
		s.mu.Unlock()
		return false
	}
	if replaced && s.logger != nil {
		s.logger.Warn("document", "Primitive intermediate replaced", map[string]interface{}{
			"path": path.String(),
		})
	}
	s.mu.Unlock()

	s.MarkDirty()
	return true
}

// Restore replaces the current document without touching the last-saved
// snapshot, then re-reconciles dirty. Undo and redo restore through here so
// dirty keeps comparing against the last explicit save.
func (s *Store) Restore(doc Document) {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return
	}
	s.current = doc
	s.mu.Unlock()

	s.MarkDirty()
}

// MarkDirty sets the optimistic dirty flag immediately, then schedules the
// authoritative recomputation after the quiet window. Rapid repeated calls
// coalesce into one recomputation.
func (s *Store) MarkDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return
	}
	s.dirty = true

	s.cancelPending()
	s.timer = time.AfterFunc(s.debounce, s.reconcileDirty)
}

func (s *Store) reconcileDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || s.lastSaved == nil {
		return
	}
	s.dirty = !Equal(s.current, s.lastSaved)
}

// Save snapshots the current document as last-saved and clears dirty.
func (s *Store) Save() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return
	}
	s.cancelPending()
	s.lastSaved = Clone(s.current)
	s.dirty = false
}

// Reset discards unsaved edits, restoring the last-saved snapshot. No-op
// when nothing has been loaded.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastSaved == nil {
		return
	}
	s.cancelPending()
	s.current = Clone(s.lastSaved)
	s.dirty = false
}

// Clear drops all state.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelPending()
	s.current = nil
	s.lastSaved = nil
	s.dirty = false
}

// Current returns the live document. Callers treat it as owned by the store
// and use Snapshot when they need an independent copy.
func (s *Store) Current() Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Snapshot returns an independent deep copy of the current document, or nil.
func (s *Store) Snapshot() Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Clone(s.current)
}

// Dirty reports whether the document differs from the last-saved snapshot.
// Immediately after an edit this is optimistically true; the precise value
// settles after the debounce window.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// cancelPending stops any scheduled reconciliation. Callers hold s.mu.
func (s *Store) cancelPending() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
