// Package lock provides per-chat-game locking so that concurrent run
// commands for the same chat and game are serialized in-process.
package lock

import (
	"sync"

	"user-of-the-day-bot/internal/model"
)

// key identifies one chat's daily cycle for one game type. Different chats,
// or the same chat with different games, never contend.
type key struct {
	chatID int64
	game   model.GameType
}

// gameMutex wraps a mutex with reference counting for reuse via the pool.
type gameMutex struct {
	mu       sync.Mutex
	refCount int
}

// ChatGameLock provides mutual exclusion for the check-then-act section of
// a daily game run.
type ChatGameLock struct {
	locks sync.Map // map[key]*gameMutex
	pool  sync.Pool
}

// New creates a new ChatGameLock instance.
func New() *ChatGameLock {
	return &ChatGameLock{
		pool: sync.Pool{
			New: func() any {
				return &gameMutex{}
			},
		},
	}
}

// getLock retrieves or creates the mutex for a chat-game pair.
func (l *ChatGameLock) getLock(chatID int64, game model.GameType) *gameMutex {
	k := key{chatID: chatID, game: game}
	if v, ok := l.locks.Load(k); ok {
		return v.(*gameMutex)
	}

	newLock := l.pool.Get().(*gameMutex)
	newLock.refCount = 0

	actual, loaded := l.locks.LoadOrStore(k, newLock)
	if loaded {
		// Another goroutine created the lock first, return ours to pool.
		l.pool.Put(newLock)
	}
	return actual.(*gameMutex)
}

// Lock acquires the lock for a chat-game pair.
func (l *ChatGameLock) Lock(chatID int64, game model.GameType) {
	lk := l.getLock(chatID, game)
	lk.mu.Lock()
	lk.refCount++
}

// Unlock releases the lock for a chat-game pair.
func (l *ChatGameLock) Unlock(chatID int64, game model.GameType) {
	k := key{chatID: chatID, game: game}
	if v, ok := l.locks.Load(k); ok {
		lk := v.(*gameMutex)
		lk.refCount--
		lk.mu.Unlock()
	}
}

// TryLock attempts to acquire the lock without blocking.
// Returns true if the lock was acquired.
func (l *ChatGameLock) TryLock(chatID int64, game model.GameType) bool {
	lk := l.getLock(chatID, game)
	if lk.mu.TryLock() {
		lk.refCount++
		return true
	}
	return false
}

// WithLock executes fn while holding the chat-game lock.
func (l *ChatGameLock) WithLock(chatID int64, game model.GameType, fn func() error) error {
	l.Lock(chatID, game)
	defer l.Unlock(chatID, game)
	return fn()
}
