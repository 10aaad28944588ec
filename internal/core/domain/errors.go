package domain

import "errors"

var (
	ErrMalformedSession          = errors.New("malformed session")
	ErrExpiredSession            = errors.New("session expired")
	ErrPermissionDenied          = errors.New("permission denied")
	ErrBackingServiceUnavailable = errors.New("backing service unavailable")
	ErrAgentNotFound             = errors.New("agent not found")
	ErrUserNotFound              = errors.New("user not found")
	ErrInvalidCredentials        = errors.New("invalid credentials")
	ErrEmailTaken                = errors.New("email already registered")
	ErrInvalidRole               = errors.New("invalid role")
	ErrInvalidAgent              = errors.New("invalid agent")
)
