package fetcher

import (
	"net/http"
	"strings"
)

// detectBlock checks a 2xx/3xx response for signs of anti-bot protection
// that hide behind a successful status code.
func detectBlock(resp *http.Response, body []byte) (bool, string) {
	if resp == nil {
		return false, ""
	}

	if resp.Header.Get("cf-ray") != "" && resp.StatusCode == http.StatusServiceUnavailable {
		return true, "cloudflare"
	}

	lower := strings.ToLower(string(body))

	if strings.Contains(lower, "checking your browser") ||
		strings.Contains(lower, "cf-browser-verification") {
		return true, "cloudflare"
	}

	if strings.Contains(lower, "recaptcha") ||
		strings.Contains(lower, "hcaptcha") ||
		strings.Contains(lower, "are you a robot") {
		return true, "captcha"
	}

	// JS-only shell: tiny body that tells the reader to enable JavaScript.
	if len(body) < 2000 {
		if strings.Contains(lower, "<noscript") && strings.Contains(lower, "javascript") {
			return true, "js_shell"
		}
		if strings.Contains(lower, `meta http-equiv="refresh"`) {
			return true, "js_shell"
		}
	}

	return false, ""
}
