package handlers

// Common error message constants shared across handlers
const (
	ErrMsgUserNotFound       = "User not found"
	ErrMsgInvalidRequestBody = "Invalid request body"
	ErrMsgUnauthorized       = "Unauthorized"
	ErrMsgInvalidDealID      = "Invalid deal ID"
	ErrMsgInvalidUserID      = "Invalid user ID"
	ErrMsgInvalidVersion     = "Invalid memo version"
)

// API path constants
const (
	AuthAPIBasePath = "/api/v1/auth"
)
