package crawler

import "strings"

// botWallMarkers are content fragments that identify anti-automation
// challenge pages (DataDome and Cloudflare interstitials).
var botWallMarkers = []string{
	"captcha-delivery",
	"datadome",
	"just a moment",
	"checking your browser",
	"ddos protection by cloudflare",
}

// IsBotWall reports whether the rendered listing content looks like a
// challenge page rather than real listing markup.
func IsBotWall(body []byte) bool {
	content := strings.ToLower(string(body))
	for _, marker := range botWallMarkers {
		if strings.Contains(content, marker) {
			return true
		}
	}
	return false
}
