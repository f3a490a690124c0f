package models

import "time"

// AuthStatus classifies the outcome of a register or login request
type AuthStatus string

const (
	StatusOK                 AuthStatus = "ok"
	StatusInvalidInput       AuthStatus = "invalid_input"
	StatusAlreadyRegistered  AuthStatus = "already_registered"
	StatusInvalidCredentials AuthStatus = "invalid_credentials"
	StatusLocked             AuthStatus = "locked"
	StatusRateLimited        AuthStatus = "rate_limited"
)

// AccountRef identifies the authenticated account in a successful login
type AccountRef struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// AuthResult is the verdict returned for every register and login request.
// Domain outcomes are carried here; errors are reserved for internal failures.
type AuthResult struct {
	Success     bool        `json:"success"`
	Message     string      `json:"message"`
	Status      AuthStatus  `json:"status"`
	Account     *AccountRef `json:"user,omitempty"`
	LockedUntil *time.Time  `json:"locked_until,omitempty"`
	RetryAfter  int         `json:"retry_after,omitempty"`
}
