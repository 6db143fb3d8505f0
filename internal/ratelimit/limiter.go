package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ChatLimiter applies a token bucket per chat and periodically evicts idle chats.
type ChatLimiter struct {
	limit   rate.Limit
	burst   int
	mu      sync.Mutex
	byChat  map[int64]*entry
	hits    uint64
	idleTTL time.Duration
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New returns nil when rps or burst is not positive; a nil limiter allows everything.
func New(rps float64, burst int, idleTTL time.Duration) *ChatLimiter {
	if rps <= 0 || burst <= 0 {
		return nil
	}
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	return &ChatLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		byChat:  make(map[int64]*entry),
		idleTTL: idleTTL,
	}
}

func (l *ChatLimiter) Allow(chatID int64, now time.Time) bool {
	if l == nil {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.byChat[chatID]
	if !ok {
		e = &entry{
			limiter:  rate.NewLimiter(l.limit, l.burst),
			lastSeen: now,
		}
		l.byChat[chatID] = e
	}
	e.lastSeen = now
	allowed := e.limiter.AllowN(now, 1)

	l.hits++
	if l.hits%512 == 0 {
		cutoff := now.Add(-l.idleTTL)
		for k, v := range l.byChat {
			if v.lastSeen.Before(cutoff) {
				delete(l.byChat, k)
			}
		}
	}

	return allowed
}

// Len returns the number of tracked chats.
func (l *ChatLimiter) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byChat)
}
