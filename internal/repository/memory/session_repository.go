package memory

import (
	"cardforge-be/pkg/store"
	"time"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps open editing sessions in memory with a sliding
// expiration. Sessions that go idle past the TTL are purged together with
// their document and history.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	// Purge expired sessions every 10 minutes.
	c := cache.New(ttl, 10*time.Minute)
	// Evicted sessions release their history and any pending timers,
	// whether they expired or were deleted.
	c.OnEvicted(func(_ string, x interface{}) {
		if session, ok := x.(*store.Session); ok {
			session.Close()
		}
	})
	return &SessionRepository{
		cache: c,
	}
}

func (r *SessionRepository) Save(session *store.Session) {
	r.cache.Set(session.ID, session, cache.DefaultExpiration)
}

// Get returns the session and refreshes its expiration, so a session stays
// alive as long as the editor keeps touching it.
func (r *SessionRepository) Get(sessionID string) (*store.Session, bool) {
	if x, found := r.cache.Get(sessionID); found {
		session := x.(*store.Session)
		r.cache.Set(sessionID, session, cache.DefaultExpiration)
		return session, true
	}
	return nil, false
}

// Delete removes the session; the eviction hook closes it.
func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}

// Count reports the number of live sessions, used for health reporting.
func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}
