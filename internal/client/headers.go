package client

import (
	"fmt"
	"net/http"

	"VoyageBot/internal/fingerprint"
)

// StandardHeaders assembles the browser-like headers sent with every request for one fingerprint.
func StandardHeaders(agent, origin string) http.Header {
	platform := fingerprint.Platform(agent)
	mobile := "?0"
	if platform == "ios" || platform == "android" {
		mobile = "?1"
	}

	h := http.Header{}
	h.Set("Accept", "application/json, text/plain, */*")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("Content-Type", "application/json")
	h.Set("Sec-Ch-Ua", fmt.Sprintf(`"Not)A;Brand";v="99", "%s WebView";v="127", "Chromium";v="127"`, platform))
	h.Set("Sec-Ch-Ua-Mobile", mobile)
	h.Set("Sec-Ch-Ua-Platform", fmt.Sprintf("%q", platform))
	h.Set("Sec-Fetch-Dest", "empty")
	h.Set("Sec-Fetch-Mode", "cors")
	h.Set("Sec-Fetch-Site", "same-site")
	h.Set("User-Agent", agent)
	if origin != "" {
		h.Set("Origin", origin)
		h.Set("Referer", origin+"/")
	}
	return h
}
