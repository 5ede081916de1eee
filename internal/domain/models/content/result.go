package content

// Error taxonomy. Sanitization errors are trust-gate rejections and are
// always fatal; parsing errors are structural failures of the walk itself.
const (
	ErrorTypeParsing      = "html_parsing"
	ErrorTypeSanitization = "html_sanitization"

	WarningTypeAttribute = "attribute_parsing"
)

// ParseError is a fatal pipeline failure.
type ParseError struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Location string `json:"location,omitempty"`
}

// ParseWarning is a non-fatal anomaly, e.g. an attribute value that could
// not be interpreted and was passed through as a raw string.
type ParseWarning struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Location string `json:"location,omitempty"`
}

// ParsedContent is the successful output of a parse: the root elements in
// document order plus flags computed during the same walk. The flags are
// never recomputed by re-scanning the tree.
type ParsedContent struct {
	Elements               []*ParsedElement `json:"elements"`
	HasInteractiveElements bool             `json:"hasInteractiveElements"`
	HasCodeBlocks          bool             `json:"hasCodeBlocks"`
	HasExpandableTables    bool             `json:"hasExpandableTables"`
	HasImages              bool             `json:"hasImages"`
}

// ContentParseResult is the outer envelope. Data is present iff IsValid is
// true; Errors is non-empty iff IsValid is false. Warnings may accompany
// either outcome.
type ContentParseResult struct {
	IsValid  bool           `json:"isValid"`
	Data     *ParsedContent `json:"data,omitempty"`
	Errors   []ParseError   `json:"errors,omitempty"`
	Warnings []ParseWarning `json:"warnings"`
}

// ValidResult builds the success arm of the envelope.
func ValidResult(data *ParsedContent, warnings []ParseWarning) *ContentParseResult {
	if warnings == nil {
		warnings = []ParseWarning{}
	}
	return &ContentParseResult{
		IsValid:  true,
		Data:     data,
		Warnings: warnings,
	}
}

// InvalidResult builds the failure arm. The data field stays empty no
// matter how much of the tree had been assembled before the first fatal
// error.
func InvalidResult(errs []ParseError, warnings []ParseWarning) *ContentParseResult {
	if warnings == nil {
		warnings = []ParseWarning{}
	}
	return &ContentParseResult{
		IsValid:  false,
		Errors:   errs,
		Warnings: warnings,
	}
}
