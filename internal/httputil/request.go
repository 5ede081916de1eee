package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// DefaultMaxBodyBytes caps request bodies that have no route-specific limit.
const DefaultMaxBodyBytes = 10 << 20 // 10MB

// ParseJSON decodes JSON from the request body into dest with the default
// body cap. Unknown fields are tolerated; validation happens downstream in
// the services.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	return ParseJSONLimit(w, r, dest, DefaultMaxBodyBytes)
}

// ParseJSONLimit decodes JSON with an explicit body size cap.
func ParseJSONLimit(w http.ResponseWriter, r *http.Request, dest any, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}
