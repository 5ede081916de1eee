package guides

// OptionalRef tracks tri-state semantics for nullable field updates
// (RFC 7396 PATCH). Transport-agnostic; handlers map from
// httputil.OptionalString.
//   - Present=false: field absent from request (don't change)
//   - Present=true, Value=nil: field is null (clear)
//   - Present=true, Value=&"x": field has value
type OptionalRef struct {
	Present bool
	Value   *string
}
