package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// maxBodyBytes caps JSON request bodies. File content arrives as multipart
// and is capped separately by its handler.
const maxBodyBytes = 10 << 20

// ParseJSON decodes the request body into dest. Unknown fields are allowed
// so clients can send newer fields without breaking older servers; field
// validation happens downstream in the services.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}
