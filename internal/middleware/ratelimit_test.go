package middleware

import (
	"testing"
	"time"
)

func TestRateLimiterBlocksOverBudget(t *testing.T) {
	l := NewRateLimiter(3, time.Hour)
	for i := 0; i < 3; i++ {
		if !l.Allow("10.0.0.1") {
			t.Fatalf("expected request %d to pass", i+1)
		}
	}
	if l.Allow("10.0.0.1") {
		t.Fatal("expected fourth request to be blocked")
	}
	if !l.Allow("10.0.0.2") {
		t.Fatal("expected a different key to have its own budget")
	}
}

func TestRateLimiterWindowResets(t *testing.T) {
	l := NewRateLimiter(1, 30*time.Millisecond)
	if !l.Allow("u:7") {
		t.Fatal("expected first request to pass")
	}
	if l.Allow("u:7") {
		t.Fatal("expected second request inside the window to be blocked")
	}
	time.Sleep(40 * time.Millisecond)
	if !l.Allow("u:7") {
		t.Fatal("expected request after the window to pass")
	}
}
