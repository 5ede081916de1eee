package content

// ParseOptions carries the per-call inputs of a parse. BaseURL is the
// content's declared source and drives the interactive-content admission
// decision. BypassTrustCheck is an explicit escape hatch for test harnesses;
// it defaults to false and is never derived from document content.
type ParseOptions struct {
	BaseURL          string
	BypassTrustCheck bool
}
