// Package state binds OAuth state values to the redirect a user asked for
// before leaving for the provider. A binding is consumed at most once.
package state

import "context"

// Error Contract:
// - Put returns sentinel.ErrInvalidState for an empty state
// - Take returns sentinel.ErrNotFound when no live binding exists, including
//   bindings that were already taken or have expired. When the store can
//   tell that a binding lapsed, the error also matches sentinel.ErrExpired
// - Infrastructure failures are returned wrapped
type Store interface {
	Put(ctx context.Context, state, redirectURL string) error
	Take(ctx context.Context, state string) (string, error)
}
