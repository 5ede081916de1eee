package content

import (
	"github.com/microcosm-cc/bluemonday"

	"guidepost/internal/trust"
)

// Sanitizer reduces untrusted HTML to a safe subset while keeping the
// attributes the parser depends on: class, id, and the whole data-*
// vocabulary (data-targetaction, data-reftarget, data-requirements, ...).
// Attribute values that carry CSS selectors pass through with their meaning
// intact.
//
// Sanitization never fails: malformed input yields an empty or degenerate
// but safe string. Thread-safe for concurrent use.
type Sanitizer struct {
	policy    *bluemonday.Policy
	validator *trust.Validator
}

// NewSanitizer builds the sanitization policy. The validator decides which
// iframe sources survive as embeddable video.
func NewSanitizer(validator *trust.Validator) *Sanitizer {
	policy := bluemonday.UGCPolicy()

	// The parser keys element recognition off class markers and the
	// interactive data-* vocabulary, so both survive verbatim.
	policy.AllowAttrs("class", "id").Globally()
	policy.AllowDataAttributes()

	policy.AllowElements("button")

	// Frames are kept here and constrained by the frame pass below: srcless
	// frames are dropped, video-host frames get api/referrer hardening,
	// everything else is fully sandboxed.
	policy.AllowElements("iframe")
	policy.AllowAttrs(
		"src", "title", "width", "height", "allow", "allowfullscreen",
		"frameborder", "loading", "referrerpolicy", "sandbox",
	).OnElements("iframe")

	return &Sanitizer{policy: policy, validator: validator}
}

// Sanitize strips scripts and their content, inline event handlers, and any
// URL attribute whose scheme is not allow-listed, then applies the iframe
// rules. Returns sanitized HTML.
func (s *Sanitizer) Sanitize(input string) string {
	if input == "" {
		return ""
	}
	return s.applyFrameRules(s.policy.Sanitize(input))
}
