package trust

import (
	"net/url"
	"strings"
)

// Validator classifies source URLs against the trust policy. All checks
// parse the URL properly and compare scheme, hostname, and path; substring
// containment is never used, so `evil.com/grafana.com/docs/` and
// `grafana.com.evil.com` cannot pass. A Validator is immutable and safe for
// concurrent use.
type Validator struct {
	policy  *Policy
	devMode bool
}

// NewValidator builds a validator from a policy and the dev-mode flag. Dev
// mode widens admission to localhost and arbitrary raw-content repositories
// and must never be enabled from anything found in document content.
func NewValidator(policy *Policy, devMode bool) *Validator {
	return &Validator{policy: policy, devMode: devMode}
}

// DevMode reports whether the dev-mode exception is active.
func (v *Validator) DevMode() bool {
	return v.devMode
}

// Policy returns the validator's trust policy.
func (v *Validator) Policy() *Policy {
	return v.policy
}

// ParseURL parses raw into a URL, returning nil for anything malformed,
// including degenerate inputs like ":::". It never panics.
func ParseURL(raw string) *url.URL {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil
	}
	return u
}

// IsDocsURL reports whether raw is a first-party documentation URL: https,
// hostname exactly one of the policy's docs hosts, and a path under one of
// the accepted documentation prefixes.
func (v *Validator) IsDocsURL(raw string) bool {
	u := ParseURL(raw)
	if !isStrictHTTPS(u) {
		return false
	}
	if !hostMatches(u, v.policy.Docs.Hosts) {
		return false
	}
	path := u.EscapedPath()
	for _, prefix := range v.policy.Docs.PathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	for _, marker := range v.policy.Docs.PathContains {
		if strings.Contains(path, marker) {
			return true
		}
	}
	return false
}

// IsYouTubeURL reports whether raw points at one of the allow-listed video
// hosts. Hostname matching is exact, so `youtube.com.evil.com` and
// `a-youtube.com` fail.
func (v *Validator) IsYouTubeURL(raw string) bool {
	u := ParseURL(raw)
	if !isStrictHTTPS(u) {
		return false
	}
	return hostMatches(u, v.policy.Video.Hosts)
}

// IsAllowedGitHubRawURL reports whether raw is served from the raw-content
// host under one of the allowed repository prefixes. When explicit prefixes
// are given they replace the policy's repository list; otherwise the policy
// list applies. A prefix admits only its own repository: other repositories
// under the same host, including siblings in the same organization, fail.
func (v *Validator) IsAllowedGitHubRawURL(raw string, prefixes ...string) bool {
	u := ParseURL(raw)
	if !v.isRawContentHost(u) {
		return false
	}
	if len(prefixes) == 0 {
		prefixes = v.policy.RawContent.Repositories
	}
	path := u.EscapedPath()
	for _, prefix := range prefixes {
		if prefix != "" && strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// IsGitHubRawHost reports whether raw is served from the raw-content host at
// all, regardless of repository. Outside dev mode this is not sufficient for
// admission.
func (v *Validator) IsGitHubRawHost(raw string) bool {
	return v.isRawContentHost(ParseURL(raw))
}

// IsLocalhostURL reports whether raw points at localhost or 127.0.0.1 over
// http or https. Ports are allowed here, unlike the public-host checks.
func (v *Validator) IsLocalhostURL(raw string) bool {
	u := ParseURL(raw)
	if u == nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "localhost" || host == "127.0.0.1"
}

// IsBundledRef reports whether raw carries the reserved bundled-content
// marker.
func (v *Validator) IsBundledRef(raw string) bool {
	return strings.HasPrefix(raw, v.policy.BundledPrefix)
}

func (v *Validator) isRawContentHost(u *url.URL) bool {
	if !isStrictHTTPS(u) {
		return false
	}
	return strings.ToLower(u.Hostname()) == strings.ToLower(v.policy.RawContent.Host)
}

// isStrictHTTPS requires the https scheme and rejects URLs smuggling
// credentials or a port, which keeps hostname comparison exact.
func isStrictHTTPS(u *url.URL) bool {
	if u == nil {
		return false
	}
	if u.Scheme != "https" {
		return false
	}
	if u.User != nil {
		return false
	}
	if u.Port() != "" {
		return false
	}
	return u.Hostname() != ""
}

func hostMatches(u *url.URL, hosts []string) bool {
	host := strings.ToLower(u.Hostname())
	for _, allowed := range hosts {
		if host == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}
