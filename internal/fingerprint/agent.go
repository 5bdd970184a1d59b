package fingerprint

import (
	"regexp"

	"github.com/corpix/uarand"
)

var mobileAgent = regexp.MustCompile(`(?i)mobile|android|iphone|ipad|ipod|tablet|opera mini|windows phone`)

// fallbackAgent is used if the random source keeps returning mobile agents.
const fallbackAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

// DesktopAgent returns a random desktop user agent.
func DesktopAgent() string {
	return desktopFrom(uarand.GetRandom, 32)
}

// desktopFrom draws up to tries agents from next and keeps the first desktop one.
func desktopFrom(next func() string, tries int) string {
	for range tries {
		if a := next(); a != "" && !mobileAgent.MatchString(a) {
			return a
		}
	}
	return fallbackAgent
}

var platformPatterns = []struct {
	re       *regexp.Regexp
	platform string
}{
	{regexp.MustCompile(`(?i)iPhone`), "ios"},
	{regexp.MustCompile(`(?i)Android`), "android"},
	{regexp.MustCompile(`(?i)iPad`), "ios"},
}

// Platform derives the client platform advertised in sec-ch-ua headers.
func Platform(agent string) string {
	for _, p := range platformPatterns {
		if p.re.MatchString(agent) {
			return p.platform
		}
	}
	return "Unknown"
}
