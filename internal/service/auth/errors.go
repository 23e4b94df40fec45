package auth

import "errors"

// Common authentication service errors
var (
	// ErrInvalidToken indicates the token format is invalid or signature doesn't match
	ErrInvalidToken = errors.New("invalid link token")

	// ErrExpiredToken indicates the token has expired
	ErrExpiredToken = errors.New("link token has expired")

	// ErrTokenNotYetValid indicates the token is not yet valid (nbf claim in the future)
	ErrTokenNotYetValid = errors.New("link token not yet valid")

	// ErrMissingToken indicates a token was expected but not provided
	ErrMissingToken = errors.New("link token is missing")

	// ErrWrongAction indicates the token carries a different action than required
	ErrWrongAction = errors.New("link token action mismatch")
)
