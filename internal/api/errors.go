package api

import "errors"

// Error taxonomy for remote cart operations. Callers branch with errors.Is;
// every failure returned by this package wraps exactly one of these.
var (
	// ErrUnauthenticated means no credential was attached or the server
	// rejected the one that was. The held credential should be discarded.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInsufficientStock is the server refusing a quantity it cannot
	// fulfill. The cart is unchanged; a smaller quantity may succeed.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrNotFound means the target cart item no longer exists.
	ErrNotFound = errors.New("cart item not found")

	// ErrTransport covers network failures, timeouts, an open circuit
	// breaker and 5xx responses. The operation may have been applied;
	// local state must be treated as possibly stale.
	ErrTransport = errors.New("transport failure")
)
