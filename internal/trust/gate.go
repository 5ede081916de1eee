package trust

// Decision is the trust classification for a content source URL.
type Decision string

const (
	DecisionTrustedDocs         Decision = "trusted-docs"
	DecisionTrustedBundled      Decision = "trusted-bundled"
	DecisionTrustedTutorialRepo Decision = "trusted-tutorial-repo"
	DecisionTrustedVideo        Decision = "trusted-video"
	DecisionTrustedDevLocalhost Decision = "trusted-dev-localhost"
	DecisionBypassed            Decision = "bypassed"
	DecisionUntrusted           Decision = "untrusted"
)

// Admitted reports whether interactive content from this source may enter
// the parsed tree.
func (d Decision) Admitted() bool {
	return d != DecisionUntrusted
}

// Evaluate runs the admission table for interactive content. First matching
// rule wins:
//
//	bypass flag set                          -> bypassed
//	documentation URL                        -> trusted-docs
//	bundled-content marker                   -> trusted-bundled
//	allow-listed raw-content repository      -> trusted-tutorial-repo
//	any raw-content URL, dev mode only       -> trusted-tutorial-repo
//	localhost / 127.0.0.1, dev mode only     -> trusted-dev-localhost
//	anything else                            -> untrusted
//
// The table is total: every input maps to exactly one decision. Callers must
// re-run Evaluate on every parse; decisions are never cached because the
// dev-mode flag can differ between validator instances.
func (v *Validator) Evaluate(baseURL string, bypass bool) Decision {
	if bypass {
		return DecisionBypassed
	}
	if v.IsDocsURL(baseURL) {
		return DecisionTrustedDocs
	}
	if v.IsBundledRef(baseURL) {
		return DecisionTrustedBundled
	}
	if v.IsAllowedGitHubRawURL(baseURL) {
		return DecisionTrustedTutorialRepo
	}
	if v.devMode {
		if v.IsGitHubRawHost(baseURL) {
			return DecisionTrustedTutorialRepo
		}
		if v.IsLocalhostURL(baseURL) {
			return DecisionTrustedDevLocalhost
		}
	}
	return DecisionUntrusted
}

// Classify maps a URL to its trust domain without the admission extras.
// Used by the fetcher to decide whether a source is worth retrieving and by
// callers that want to label a source for the UI.
func (v *Validator) Classify(raw string) Decision {
	if v.IsBundledRef(raw) {
		return DecisionTrustedBundled
	}
	if v.IsDocsURL(raw) {
		return DecisionTrustedDocs
	}
	if v.IsYouTubeURL(raw) {
		return DecisionTrustedVideo
	}
	if v.IsAllowedGitHubRawURL(raw) {
		return DecisionTrustedTutorialRepo
	}
	if v.devMode {
		if v.IsGitHubRawHost(raw) {
			return DecisionTrustedTutorialRepo
		}
		if v.IsLocalhostURL(raw) {
			return DecisionTrustedDevLocalhost
		}
	}
	return DecisionUntrusted
}
