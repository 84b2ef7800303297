package state

import (
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Manager remembers which conversation each Telegram user is in. The
// mapping is advisory, losing it just starts the user a fresh thread,
// so it lives in an expiring in-process cache rather than the store.
type Manager struct {
	cache *gocache.Cache
}

func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		cache: gocache.New(ttl, ttl),
	}
}

// Conversation returns the active conversation ID for a user, or ""
func (m *Manager) Conversation(userID int64) string {
	if v, ok := m.cache.Get(key(userID)); ok {
		return v.(string)
	}
	return ""
}

// SetConversation binds a user to a conversation
func (m *Manager) SetConversation(userID int64, conversationID string) {
	m.cache.SetDefault(key(userID), conversationID)
}

// Clear forgets the user's conversation so the next message starts a
// new thread.
func (m *Manager) Clear(userID int64) {
	m.cache.Delete(key(userID))
}

func key(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
