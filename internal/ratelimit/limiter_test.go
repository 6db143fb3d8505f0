package ratelimit

import (
	"testing"
	"time"
)

func TestChatLimiterBurst(t *testing.T) {
	l := New(1, 2, time.Minute)
	now := time.Now()

	if !l.Allow(1, now) || !l.Allow(1, now) {
		t.Fatal("burst of two should be allowed")
	}
	if l.Allow(1, now) {
		t.Fatal("third message in the same instant should be limited")
	}
	if !l.Allow(2, now) {
		t.Fatal("other chats must not share the bucket")
	}
	if !l.Allow(1, now.Add(time.Second)) {
		t.Fatal("token should refill after one second")
	}
}

func TestChatLimiterNilAllows(t *testing.T) {
	l := New(0, 5, time.Minute)
	if l != nil {
		t.Fatal("expected nil limiter for zero rate")
	}
	if !l.Allow(1, time.Now()) {
		t.Fatal("nil limiter should allow")
	}
	if l.Len() != 0 {
		t.Fatal("nil limiter tracks nothing")
	}
}

func TestChatLimiterEvictsIdle(t *testing.T) {
	l := New(100, 100, time.Minute)
	start := time.Now()

	l.Allow(-1, start)
	later := start.Add(2 * time.Minute)
	for i := 0; i < 511; i++ {
		l.Allow(int64(i), later)
	}

	if _, ok := l.byChat[-1]; ok {
		t.Fatal("idle chat should be evicted")
	}
}
