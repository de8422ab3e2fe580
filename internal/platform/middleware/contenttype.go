package middleware

import (
	"mime"
	"net/http"

	dErrors "usergate/pkg/domain-errors"
	"usergate/pkg/platform/httputil"
)

// ContentTypeJSON rejects request bodies that are not declared as JSON.
// Bodiless requests pass through.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength == 0 || r.Method == http.MethodGet || r.Method == http.MethodDelete {
			next.ServeHTTP(w, r)
			return
		}
		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "application/json" {
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnsupportedMediaType, "Content-Type must be application/json"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
