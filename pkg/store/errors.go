package store

import "errors"

// Errors
var (
	// ErrNotFound is returned by Load when the secrets file does not exist.
	ErrNotFound = errors.New("store: secrets file not found")

	// ErrSecretNotFound is returned when a named secret is absent or has no
	// secret value.
	ErrSecretNotFound = errors.New("store: secret not found")

	// ErrInvalidFormat is returned when the secrets file is not valid JSON,
	// the top-level value is not an object, or "secrets" is not an array of
	// objects.
	ErrInvalidFormat = errors.New("store: invalid secrets file format")

	// ErrPermission is returned when the OS denies access to the secrets
	// file.
	ErrPermission = errors.New("store: permission denied")

	// ErrEmptyName is returned when an operation is given an empty secret
	// name.
	ErrEmptyName = errors.New("store: secret name must not be empty")

	// ErrEmptySecret is returned when a manual registration carries no
	// secret value.
	ErrEmptySecret = errors.New("store: secret value must not be empty")
)
