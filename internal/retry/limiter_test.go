package retry

import (
	"context"
	"testing"
	"time"
)

func TestLimiterUnlimited(t *testing.T) {
	l := NewLimiter(0)
	if !l.Unlimited() {
		t.Fatal("rate 0 should be unlimited")
	}
	for i := 0; i < 100; i++ {
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() error: %v", err)
		}
	}
	var nilLimiter *Limiter
	if err := nilLimiter.Wait(context.Background()); err != nil {
		t.Errorf("nil limiter Wait() error: %v", err)
	}
}

func TestLimiterThrottles(t *testing.T) {
	l := NewLimiter(20) // one token every 50ms
	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("3 waits at 20/s took %v, want >= ~100ms", elapsed)
	}
}

func TestLimiterContextCanceled(t *testing.T) {
	l := NewLimiter(0.01)
	_ = l.Wait(context.Background()) // consume the burst token
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Wait(ctx); err == nil {
		t.Error("Wait() with canceled context should fail")
	}
}
