package vault

import "errors"

// ErrSecretNotFound indicates no secret exists at the requested path.
var ErrSecretNotFound = errors.New("secret not found")
