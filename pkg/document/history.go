package document

// DefaultHistorySize bounds snapshot memory for a browser-tab-lifetime
// editing session.
const DefaultHistorySize = 10

// History is a bounded, branch-truncating undo/redo stack over full-document
// snapshots. It is linear, not a tree: pushing while undone discards the
// redo branch.
//
// Entries are deep clones on the way in and on the way out, so callers can
// never corrupt history state through a retained reference.
type History struct {
	stack   []Document
	index   int
	maxSize int
}

// NewHistory creates an empty history. maxSize values below 1 fall back to
// DefaultHistorySize.
func NewHistory(maxSize int) *History {
	if maxSize < 1 {
		maxSize = DefaultHistorySize
	}
	return &History{
		stack:   make([]Document, 0, maxSize),
		index:   -1,
		maxSize: maxSize,
	}
}

// Init resets the history and records doc as the first, undo-terminal entry.
func (h *History) Init(doc Document) {
	h.Clear()
	h.Push(doc)
}

// Push records a snapshot of doc as the new current entry. Any redo branch
// beyond the current position is discarded first. When the stack would
// exceed maxSize the oldest entry is evicted and the index decremented, so
// it keeps pointing at the same logical entry.
func (h *History) Push(doc Document) {
	if h.index < len(h.stack)-1 {
		h.stack = h.stack[:h.index+1]
	}

	h.stack = append(h.stack, Clone(doc))
	h.index = len(h.stack) - 1

	if len(h.stack) > h.maxSize {
		h.stack = h.stack[1:]
		h.index--
	}
}

// Undo steps back one entry and returns a clone of it, or nil when there is
// nothing to undo. Callers should check CanUndo first; calling anyway is a
// harmless no-op.
func (h *History) Undo() Document {
	if !h.CanUndo() {
		return nil
	}
	h.index--
	return Clone(h.stack[h.index])
}

// Redo steps forward one entry and returns a clone of it, or nil when there
// is nothing to redo.
func (h *History) Redo() Document {
	if !h.CanRedo() {
		return nil
	}
	h.index++
	return Clone(h.stack[h.index])
}

// CanUndo reports whether an earlier snapshot exists.
func (h *History) CanUndo() bool {
	return h.index > 0
}

// CanRedo reports whether a later snapshot exists.
func (h *History) CanRedo() bool {
	return h.index < len(h.stack)-1
}

// Clear resets to the empty state.
func (h *History) Clear() {
	h.stack = h.stack[:0]
	h.index = -1
}

// Len returns the number of recorded snapshots.
func (h *History) Len() int {
	return len(h.stack)
}

// Position returns the current index, -1 when empty.
func (h *History) Position() int {
	return h.index
}
