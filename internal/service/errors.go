package service

import "errors"

// Validation errors returned to back-office callers. Storage failures
// are wrapped with %w and surface unchanged underneath these.
var (
	// ErrTenancyViolation means a create or update crossed tenant
	// boundaries (e.g. tenant A referencing tenant B's product).
	ErrTenancyViolation = errors.New("resource does not belong to tenant")

	// ErrGenerationExhausted means short-code generation kept colliding
	// past the retry bound.
	ErrGenerationExhausted = errors.New("short code generation exhausted retries")

	// ErrCodeRevoked means a status update targeted a revoked code.
	// Revocation is terminal; a revoked code cannot be resurrected.
	ErrCodeRevoked = errors.New("qr code is revoked")

	// ErrInvalidStatus means the requested status is not one of
	// active/paused/expired/revoked.
	ErrInvalidStatus = errors.New("invalid qr code status")

	// ErrInvalidEventType means the analytics event type is outside the
	// closed set.
	ErrInvalidEventType = errors.New("invalid analytics event type")
)
