package fetcher

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrBlocked is returned when a site answers with an anti-bot page instead
// of the requested document.
var ErrBlocked = eris.New("fetcher: blocked by anti-bot protection")

// BlockKind names the protection that answered.
type BlockKind string

const (
	NotBlocked BlockKind = ""
	Cloudflare BlockKind = "cloudflare"
	Captcha    BlockKind = "captcha"
)

// challengeMarkers appear on interstitial pages served in place of content.
var challengeMarkers = []struct {
	marker string
	kind   BlockKind
}{
	{"cf-browser-verification", Cloudflare},
	{"checking your browser", Cloudflare},
	{"just a moment...", Cloudflare},
	{"g-recaptcha", Captcha},
	{"h-captcha", Captcha},
	{"captcha", Captcha},
}

// DetectBlock inspects a response and the start of its body. Only HTML
// bodies are scanned, so a PDF that mentions a captcha is never flagged.
func DetectBlock(resp *http.Response, body []byte) BlockKind {
	if resp == nil {
		return NotBlocked
	}
	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusServiceUnavailable {
		if resp.Header.Get("cf-ray") != "" || strings.EqualFold(resp.Header.Get("server"), "cloudflare") {
			return Cloudflare
		}
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "html") {
		return NotBlocked
	}
	lower := bytes.ToLower(body)
	for _, m := range challengeMarkers {
		if bytes.Contains(lower, []byte(m.marker)) {
			return m.kind
		}
	}
	return NotBlocked
}

func blockedError(kind BlockKind, rawURL string) error {
	return eris.Wrapf(ErrBlocked, "fetcher: %s challenge at %s", kind, rawURL)
}
