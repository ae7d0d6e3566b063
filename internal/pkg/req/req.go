/*
Package req provides helpers for HTTP request parsing and data binding.

It encapsulates strict JSON body binding with integrated error mapping so
handlers receive either a populated struct or a CustomError.
*/
package req

import (
	"encoding/json"
	"net/http"
	"strings"

	"pulsechat/internal/pkg/errs"
)

// MaxBodyBytes caps the size of JSON request bodies accepted by BindJSON.
const MaxBodyBytes int64 = 1 << 20 // 1 MB

// BindJSON binds the JSON request body to dst. Unknown fields and trailing
// content are rejected.
func BindJSON(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}

// BearerToken extracts the bearer token from the Authorization header, or ""
// when the header is absent or malformed.
func BearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}

	return parts[1]
}
