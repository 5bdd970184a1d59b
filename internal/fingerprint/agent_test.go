package fingerprint

import (
	"testing"
)

func TestPlatform(t *testing.T) {
	tests := []struct {
		agent string
		want  string
	}{
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)", "ios"},
		{"Mozilla/5.0 (iPad; CPU OS 16_0 like Mac OS X)", "ios"},
		{"Mozilla/5.0 (Linux; Android 14; Pixel 8)", "android"},
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/126.0.0.0", "Unknown"},
		{"", "Unknown"},
	}
	for _, tt := range tests {
		if got := Platform(tt.agent); got != tt.want {
			t.Errorf("Platform(%q) = %q, want %q", tt.agent, got, tt.want)
		}
	}
}

func TestDesktopAgent(t *testing.T) {
	for i := 0; i < 50; i++ {
		a := DesktopAgent()
		if a == "" || mobileAgent.MatchString(a) {
			t.Fatalf("unexpected agent %q", a)
		}
		if p := Platform(a); p != "Unknown" {
			t.Fatalf("desktop agent %q classified as %q", a, p)
		}
	}
}

func TestDesktopFrom(t *testing.T) {
	seq := []string{
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Mobile/15E148",
		"Mozilla/5.0 (Linux; Android 14; Pixel 8) Mobile Safari/537.36",
		"Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0",
	}
	i := 0
	next := func() string {
		a := seq[i%len(seq)]
		i++
		return a
	}
	if got := desktopFrom(next, 5); got != seq[2] {
		t.Errorf("desktopFrom = %q, want %q", got, seq[2])
	}

	mobile := func() string { return seq[0] }
	if got := desktopFrom(mobile, 3); got != fallbackAgent {
		t.Errorf("desktopFrom(all mobile) = %q, want fallback", got)
	}
}
