package document

import (
	"testing"
	"time"
)

// Short debounce keeps the tests fast while still exercising the two-phase
// dirty flag.
const testDebounce = 20 * time.Millisecond

func waitDebounce() {
	time.Sleep(testDebounce * 4)
}

func TestStoreLoadAndSave(t *testing.T) {
	s := NewStore(testDebounce, nil)
	s.Load(Document{"name": "A"})

	if s.Dirty() {
		t.Error("Dirty = true immediately after Load")
	}

	s.Save()
	if s.Dirty() {
		t.Error("Dirty = true after Save")
	}
}

func TestStoreMutateMarksDirty(t *testing.T) {
	s := NewStore(testDebounce, nil)
	s.Load(Document{"name": "A", "tags": []interface{}{"x"}})

	s.Mutate(ParsePath("name"), "B")

	// Optimistic flag is set immediately.
	if !s.Dirty() {
		t.Error("Dirty = false immediately after Mutate")
	}

	// The authoritative recomputation keeps it dirty: the document really
	// does differ from the loaded state.
	waitDebounce()
	if !s.Dirty() {
		t.Error("Dirty = false after debounce for a real change")
	}

	if got, _ := GetByString(s.Current(), "name"); got != "B" {
		t.Errorf("current name = %v, want B", got)
	}
}

type recordingLogger struct {
	warnings []string
}

func (l *recordingLogger) Warn(module, message string, details map[string]interface{}) {
	l.warnings = append(l.warnings, message)
}

func TestStoreMutateWarnsOnPrimitiveReplacement(t *testing.T) {
	log := &recordingLogger{}
	s := NewStore(testDebounce, log)
	s.Load(Document{"meta": "just a string"})

	if !s.Mutate(ParsePath("meta.count"), 1) {
		t.Fatal("Mutate through primitive failed")
	}
	if len(log.warnings) != 1 || log.warnings[0] != "Primitive intermediate replaced" {
		t.Errorf("warnings = %v, want one replacement warning", log.warnings)
	}

	// An ordinary write stays quiet.
	log.warnings = nil
	s.Mutate(ParsePath("meta.count"), 2)
	if len(log.warnings) != 0 {
		t.Errorf("unexpected warnings: %v", log.warnings)
	}
}

func TestStoreDirtyReconcilesForNoopEdit(t *testing.T) {
	s := NewStore(testDebounce, nil)
	s.Load(Document{"name": "A"})

	// Write the value that is already there: optimistically dirty, then the
	// debounced deep comparison clears the flag.
	s.Mutate(ParsePath("name"), "A")
	if !s.Dirty() {
		t.Error("Dirty = false immediately after no-op Mutate, want optimistic true")
	}

	waitDebounce()
	if s.Dirty() {
		t.Error("Dirty = true after debounce for a no-op edit")
	}
}

func TestStoreReset(t *testing.T) {
	s := NewStore(testDebounce, nil)
	loaded := Document{"name": "A", "tags": []interface{}{"x"}}
	s.Load(loaded)

	s.Mutate(ParsePath("name"), "B")
	s.Mutate(ParsePath("tags[1]"), "y")
	s.Reset()

	if s.Dirty() {
		t.Error("Dirty = true after Reset")
	}
	if !Equal(s.Current(), Document{"name": "A", "tags": []interface{}{"x"}}) {
		t.Errorf("current = %v after Reset, want originally loaded document", s.Current())
	}
}

func TestStoreSaveThenReset(t *testing.T) {
	s := NewStore(testDebounce, nil)
	s.Load(Document{"name": "A"})

	s.Mutate(ParsePath("name"), "B")
	s.Save()
	s.Mutate(ParsePath("name"), "C")
	s.Reset()

	// Reset restores the last save, not the original load.
	if got, _ := GetByString(s.Current(), "name"); got != "B" {
		t.Errorf("name = %v after save+reset, want B", got)
	}
}

func TestStoreDefensiveNilOps(t *testing.T) {
	s := NewStore(testDebounce, nil)

	// None of these may panic on an empty store.
	s.Mutate(ParsePath("name"), "B")
	s.MarkDirty()
	s.Save()
	s.Reset()
	s.Clear()

	if s.Current() != nil || s.Snapshot() != nil {
		t.Error("empty store returned a document")
	}
	if s.Dirty() {
		t.Error("empty store is dirty")
	}
}

func TestStoreClear(t *testing.T) {
	s := NewStore(testDebounce, nil)
	s.Load(Document{"name": "A"})
	s.Mutate(ParsePath("name"), "B")

	s.Clear()
	if s.Current() != nil || s.Dirty() {
		t.Error("Clear left state behind")
	}

	// A pending reconciliation must not resurrect the dirty flag.
	waitDebounce()
	if s.Dirty() {
		t.Error("debounced reconciliation ran after Clear")
	}
}

func TestStoreSnapshotIsIndependent(t *testing.T) {
	s := NewStore(testDebounce, nil)
	s.Load(Document{"tags": []interface{}{"x"}})

	snapDoc := s.Snapshot()
	snapDoc["tags"].([]interface{})[0] = "mutated"

	if got, _ := GetByString(s.Current(), "tags[0]"); got != "x" {
		t.Errorf("snapshot mutation leaked into store: tags[0] = %v", got)
	}
}

func TestStoreLoadSnapshotsLastSaved(t *testing.T) {
	s := NewStore(testDebounce, nil)
	doc := Document{"name": "A"}
	s.Load(doc)

	// The caller still holds the live document; edits through it must not
	// silently rewrite the saved baseline.
	doc["name"] = "B"
	s.MarkDirty()
	waitDebounce()

	if !s.Dirty() {
		t.Error("Dirty = false: lastSaved aliased the loaded document")
	}
}
