package domain

import "errors"

// Error kinds recognized across the store, the remote gateway and the engine.
var (
	ErrLocalNotFound       = errors.New("local entity not found")
	ErrLinkNotFound        = errors.New("link not found")
	ErrDuplicateLink       = errors.New("duplicate link")
	ErrRemoteNotFound      = errors.New("remote object not found")
	ErrRemoteUnavailable   = errors.New("remote unavailable")
	ErrRemoteUnauthorized  = errors.New("remote rejected credentials")
	ErrSchemaMismatch      = errors.New("remote schema mismatch")
	ErrInvariantViolation  = errors.New("invariant violation")
	ErrWorkspaceNotFound   = errors.New("workspace not initialized")
	ErrDuplicateNaturalKey = errors.New("duplicate natural key")
)

// IsRemoteNotFound reports whether err means the remote object is gone
func IsRemoteNotFound(err error) bool {
	return errors.Is(err, ErrRemoteNotFound)
}
