package retry

import (
	"sync"
	"testing"
)

func TestHeaderRotatorRoundRobin(t *testing.T) {
	h := NewHeaderRotator([]string{"a", "b", "c"}, "")
	var got []string
	for i := 0; i < 4; i++ {
		got = append(got, h.Next())
	}
	want := []string{"a", "b", "c", "a"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Next() sequence = %v, want %v", got, want)
		}
	}
}

func TestHeaderRotatorArgs(t *testing.T) {
	h := NewHeaderRotator([]string{"ua-1", "ua-2"}, "https://example.com/")
	args := h.Args()
	if len(args) != 4 || args[0] != "--user-agent" || args[1] != "ua-1" || args[2] != "--add-header" || args[3] != "Referer:https://example.com/" {
		t.Errorf("Args() = %q", args)
	}
	if next := h.Args(); next[1] != "ua-2" {
		t.Errorf("second Args() user agent = %q, want ua-2", next[1])
	}

	var nilRotator *HeaderRotator
	if nilRotator.Args() != nil {
		t.Error("nil rotator should produce no args")
	}
}

func TestHeaderRotatorDefaults(t *testing.T) {
	h := NewHeaderRotator(nil, "")
	if h.Next() != DefaultUserAgents[0] {
		t.Error("default rotator should start with the first default agent")
	}
	if h.referer != DefaultReferer {
		t.Errorf("referer = %q", h.referer)
	}
}

func TestHeaderRotatorConcurrent(t *testing.T) {
	h := NewHeaderRotator([]string{"a", "b"}, "")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.Next()
		}()
	}
	wg.Wait()
	if h.next != 50 {
		t.Errorf("next counter = %d, want 50", h.next)
	}
}
