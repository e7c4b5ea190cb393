package memory

import (
	"testing"
	"time"

	"cardforge-be/pkg/document"
	"cardforge-be/pkg/store"

	"github.com/stretchr/testify/assert"
)

func testSession(id string) *store.Session {
	doc := document.Document{
		"spec": "chara_card_v3",
		"data": map[string]interface{}{"name": "Aria"},
	}
	return store.NewSession(id, doc, 10, 20*time.Millisecond, nil)
}

func TestSessionRepositorySaveAndGet(t *testing.T) {
	repo := NewSessionRepository(1 * time.Hour)

	repo.Save(testSession("s1"))
	got, found := repo.Get("s1")
	assert.True(t, found)
	assert.Equal(t, "s1", got.ID)
	assert.Equal(t, 1, repo.Count())

	_, found = repo.Get("missing")
	assert.False(t, found)
}

func TestSessionRepositoryDeleteClosesSession(t *testing.T) {
	repo := NewSessionRepository(1 * time.Hour)

	session := testSession("s1")
	session.Mutate("data.name", "Kei")
	assert.True(t, session.CanUndo())

	repo.Save(session)
	repo.Delete("s1")

	_, found := repo.Get("s1")
	assert.False(t, found)
	// The eviction hook releases the session's history.
	assert.False(t, session.CanUndo())
	assert.False(t, session.Dirty())
}

func TestSessionRepositoryExpiredSessionIsClosed(t *testing.T) {
	repo := NewSessionRepository(20 * time.Millisecond)

	session := testSession("s1")
	session.Mutate("data.name", "Kei")
	repo.Save(session)

	time.Sleep(40 * time.Millisecond)
	_, found := repo.Get("s1")
	assert.False(t, found)
}
