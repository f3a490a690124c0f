package auth

import (
	"time"

	"github.com/BradenHooton/lockbox/internal/models"
)

const (
	DefaultLockoutThreshold = 5
	DefaultLockoutDuration  = 15 * time.Minute
)

// LockoutPolicy decides how an account's failure counter and lock change after a login attempt.
// It holds no state and never touches storage.
type LockoutPolicy struct {
	Threshold int           // failures that trigger a lock
	Duration  time.Duration // how long a lock lasts
}

// DefaultLockoutPolicy returns 5 failures / 15 minutes
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{
		Threshold: DefaultLockoutThreshold,
		Duration:  DefaultLockoutDuration,
	}
}

// Locked reports whether the account is locked at now and until when.
// A lapsed lock reports false; the stored timestamp is left for the next write to clear.
func (p LockoutPolicy) Locked(acct *models.Account, now time.Time) (bool, time.Time) {
	if acct.LockedUntil == nil {
		return false, time.Time{}
	}
	if acct.LockedUntil.After(now) {
		return true, *acct.LockedUntil
	}
	return false, time.Time{}
}

// OnSuccess returns the update for a correct password: counter and lock cleared.
func (p LockoutPolicy) OnSuccess() models.AccountUpdate {
	zero := 0
	return models.AccountUpdate{
		FailedAttempts: &zero,
		ClearLock:      true,
	}
}

// OnFailure returns the update for a wrong password and, when this failure reaches
// the threshold, the time the new lock expires.
//
// The counter continues from whatever the account holds. A lapsed lock does not reset it,
// so the first failure after expiry locks again immediately.
func (p LockoutPolicy) OnFailure(acct *models.Account, now time.Time) (models.AccountUpdate, *time.Time) {
	failed := acct.FailedAttempts + 1

	if failed >= p.Threshold {
		until := now.Add(p.Duration)
		return models.AccountUpdate{
			FailedAttempts: &failed,
			LockedUntil:    &until,
		}, &until
	}

	return models.AccountUpdate{
		FailedAttempts: &failed,
		ClearLock:      true,
	}, nil
}
