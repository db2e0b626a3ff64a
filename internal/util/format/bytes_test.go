package format

import "testing"

func TestHumanizeBytes(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  string
	}{
		{name: "zero bytes", bytes: 0, want: "0 B"},
		{name: "negative clamps", bytes: -5, want: "0 B"},
		{name: "under 1KiB", bytes: 1023, want: "1023 B"},
		{name: "exactly 1KiB", bytes: 1024, want: "1.0 KiB"},
		{name: "1.5 KiB", bytes: 1536, want: "1.5 KiB"},
		{name: "3 MiB", bytes: 3 * 1024 * 1024, want: "3.0 MiB"},
		{name: "50 MiB", bytes: 50 * 1024 * 1024, want: "50 MiB"},
		{name: "5 GiB", bytes: 5 * 1024 * 1024 * 1024, want: "5.0 GiB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HumanizeBytes(tt.bytes)
			if got != tt.want {
				t.Errorf("HumanizeBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestApproxBytes(t *testing.T) {
	if got := ApproxBytes(0); got != "?" {
		t.Errorf("ApproxBytes(0) = %q, want ?", got)
	}
	if got := ApproxBytes(2048); got != "~2.0 KiB" {
		t.Errorf("ApproxBytes(2048) = %q, want ~2.0 KiB", got)
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		sec  float64
		want string
	}{
		{sec: 0, want: "--:--"},
		{sec: 59, want: "0:59"},
		{sec: 212, want: "3:32"},
		{sec: 3725, want: "1:02:05"},
	}
	for _, tt := range tests {
		if got := Duration(tt.sec); got != tt.want {
			t.Errorf("Duration(%v) = %q, want %q", tt.sec, got, tt.want)
		}
	}
}

func TestCount(t *testing.T) {
	if got := Count(1234567); got != "1,234,567" {
		t.Errorf("Count() = %q", got)
	}
}
