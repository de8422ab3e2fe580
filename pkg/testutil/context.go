package testutil

import (
	"net/http"

	"usergate/pkg/domain"
	"usergate/pkg/requestcontext"
)

// WithIdentity simulates what a guard does for an admitted request.
func WithIdentity(req *http.Request, identity domain.Identity) *http.Request {
	return req.WithContext(requestcontext.WithIdentity(req.Context(), identity))
}
