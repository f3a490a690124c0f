package models

import "time"

// Account is the persisted state of one registered email.
type Account struct {
	ID             int64      `json:"id" validate:"gt=0"`
	Email          string     `json:"email" validate:"required,contains=@"`
	PasswordHash   string     `json:"password_hash" validate:"required"`
	FailedAttempts int        `json:"failed_attempts" validate:"gte=0"`
	LockedUntil    *time.Time `json:"locked_until"`
	CreatedAt      time.Time  `json:"created_at" validate:"required"`
}

// AccountUpdate carries the fields to overwrite on an existing account.
// Nil fields are left untouched. ClearLock removes LockedUntil and wins over LockedUntil.
type AccountUpdate struct {
	PasswordHash   *string
	FailedAttempts *int
	LockedUntil    *time.Time
	ClearLock      bool
}

// Apply merges the update into the account in place
func (u AccountUpdate) Apply(acct *Account) {
	if u.PasswordHash != nil {
		acct.PasswordHash = *u.PasswordHash
	}
	if u.FailedAttempts != nil {
		acct.FailedAttempts = *u.FailedAttempts
	}
	if u.LockedUntil != nil {
		t := *u.LockedUntil
		acct.LockedUntil = &t
	}
	if u.ClearLock {
		acct.LockedUntil = nil
	}
}

// AccountSummary is the admin listing view of an account. It never carries the password hash.
type AccountSummary struct {
	ID             int64      `json:"id"`
	Email          string     `json:"email"`
	CreatedAt      time.Time  `json:"created_at"`
	FailedAttempts int        `json:"failed_attempts"`
	LockedUntil    *time.Time `json:"locked_until"`
}

// Summary returns the sanitized listing view
func (a *Account) Summary() AccountSummary {
	return AccountSummary{
		ID:             a.ID,
		Email:          a.Email,
		CreatedAt:      a.CreatedAt,
		FailedAttempts: a.FailedAttempts,
		LockedUntil:    a.LockedUntil,
	}
}
