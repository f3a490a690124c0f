package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/lockbox/internal/auth"
	"github.com/BradenHooton/lockbox/internal/models"
	pkgauth "github.com/BradenHooton/lockbox/pkg/auth"
	pkglogger "github.com/BradenHooton/lockbox/pkg/logger"
)

const (
	msgRegistered         = "Registration successful."
	msgLoginSuccess       = "Login successful."
	msgInvalidCredentials = "Invalid credentials."
	msgAlreadyRegistered  = "Email already registered."
	msgMissingFields      = "Email and password are required."
	msgInvalidEmail       = "Invalid email format."
	msgPasswordTooLong    = "Password must be at most 72 bytes."

	// Hashed once at startup and compared against for unknown emails
	timingDummyPassword = "lockbox-timing-equalizer"
)

type loginOutcome int

const (
	loginSucceeded loginOutcome = iota
	loginWrongPassword
	loginLocked
)

// AccountRepository defines the storage operations the account service needs
type AccountRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	Create(ctx context.Context, email, passwordHash string) (*models.Account, error)
	Modify(ctx context.Context, email string, fn func(acct *models.Account) *models.AccountUpdate) (*models.Account, error)
	List(ctx context.Context) ([]*models.Account, error)
}

// RequestLimiter admits or rejects a request for a source key
type RequestLimiter interface {
	Check(key string) RateLimitDecision
}

// PasswordHasher hashes and verifies passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

// AccountService handles registration, login and the admin listing.
// It is the only component that knows about the limiter, the store and the lockout policy together.
type AccountService struct {
	repo        AccountRepository
	limiter     RequestLimiter
	hasher      PasswordHasher
	policy      auth.LockoutPolicy
	timing      *auth.TimingDelay
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	dummyHash   string
	now         func() time.Time
}

// NewAccountService creates a new AccountService
func NewAccountService(
	repo AccountRepository,
	limiter RequestLimiter,
	hasher PasswordHasher,
	policy auth.LockoutPolicy,
	timing *auth.TimingDelay,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *AccountService {
	dummyHash, err := hasher.Hash(timingDummyPassword)
	if err != nil {
		logger.Warn("failed to prepare timing hash; unknown-email logins will skip the password check", slog.Any("error", err))
	}

	return &AccountService{
		repo:        repo,
		limiter:     limiter,
		hasher:      hasher,
		policy:      policy,
		timing:      timing,
		logger:      logger,
		auditLogger: auditLogger,
		dummyHash:   dummyHash,
		now:         time.Now,
	}
}

// Register creates an account for email. Domain outcomes are returned in the result;
// the error is non-nil only for internal failures.
func (s *AccountService) Register(ctx context.Context, sourceKey, email, password string) (*models.AuthResult, error) {
	if result := s.checkRate(sourceKey, "register_failed"); result != nil {
		return result, nil
	}

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return s.rejectRegister(sourceKey, email, "missing_fields", invalidInput(msgMissingFields)), nil
	}
	if !looksLikeEmail(email) {
		return s.rejectRegister(sourceKey, email, "invalid_email", invalidInput(msgInvalidEmail)), nil
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return s.rejectRegister(sourceKey, email, "already_registered", alreadyRegistered()), nil
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to look up account", slog.Any("error", err))
		return nil, fmt.Errorf("register: %w", models.ErrInternalServer)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, pkgauth.ErrPasswordTooLong) {
			return s.rejectRegister(sourceKey, email, "password_too_long", invalidInput(msgPasswordTooLong)), nil
		}
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, fmt.Errorf("register: %w", models.ErrInternalServer)
	}

	acct, err := s.repo.Create(ctx, email, hash)
	if err != nil {
		// Lost a race with a concurrent registration for the same email
		if errors.Is(err, models.ErrConflict) {
			return s.rejectRegister(sourceKey, email, "already_registered", alreadyRegistered()), nil
		}
		s.logger.Error("failed to create account", slog.Any("error", err))
		return nil, fmt.Errorf("register: %w", models.ErrInternalServer)
	}

	s.logger.Info("account registered", slog.Int64("account_id", acct.ID))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "register_success",
		AccountID: acct.ID,
		Email:     email,
		Source:    sourceKey,
		Success:   true,
	})

	return &models.AuthResult{
		Success: true,
		Message: msgRegistered,
		Status:  models.StatusOK,
	}, nil
}

// Login verifies credentials and applies the lockout policy.
// Unknown emails and wrong passwords produce the same result.
func (s *AccountService) Login(ctx context.Context, sourceKey, email, password string) (*models.AuthResult, error) {
	if result := s.checkRate(sourceKey, "login_failed"); result != nil {
		return result, nil
	}

	email = normalizeEmail(email)
	if email == "" || password == "" {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			Source:        sourceKey,
			FailureReason: "missing_fields",
		})
		return invalidInput(msgMissingFields), nil
	}

	start := time.Now()

	// Lock check, password check and counter write run under the account's lock
	var (
		outcome   loginOutcome
		lockUntil time.Time
		newLock   *time.Time
		now       time.Time
	)
	acct, err := s.repo.Modify(ctx, email, func(acct *models.Account) *models.AccountUpdate {
		now = s.now()

		// A locked account never reaches the password check
		if locked, until := s.policy.Locked(acct, now); locked {
			outcome, lockUntil = loginLocked, until
			return nil
		}

		if !s.hasher.Compare(acct.PasswordHash, password) {
			update, until := s.policy.OnFailure(acct, now)
			outcome, newLock = loginWrongPassword, until
			return &update
		}

		outcome = loginSucceeded
		update := s.policy.OnSuccess()
		return &update
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Pay for a hash comparison so unknown emails cost the same as wrong passwords
			if s.dummyHash != "" {
				s.hasher.Compare(s.dummyHash, password)
			}
			return s.invalidCredentials(ctx, start, 0, email, sourceKey), nil
		}
		s.logger.Error("failed to update login state", slog.Any("error", err))
		return nil, fmt.Errorf("login: %w", models.ErrInternalServer)
	}

	switch outcome {
	case loginLocked:
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			AccountID:     acct.ID,
			Email:         email,
			Source:        sourceKey,
			FailureReason: "account_locked",
		})
		return lockedResult(lockUntil, now), nil

	case loginWrongPassword:
		if newLock == nil {
			return s.invalidCredentials(ctx, start, acct.ID, email, sourceKey), nil
		}

		s.timing.WaitFrom(ctx, start, false)

		s.logger.Warn("account locked",
			slog.Int64("account_id", acct.ID),
			slog.Int("failed_attempts", acct.FailedAttempts),
			slog.Time("locked_until", *newLock))
		s.auditLogger.LogAccountAction("account_locked", acct.ID, sourceKey, map[string]string{
			"locked_until": newLock.UTC().Format(time.RFC3339),
		})
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			AccountID:     acct.ID,
			Email:         email,
			Source:        sourceKey,
			FailureReason: "threshold_reached",
		})
		return thresholdLockedResult(acct.FailedAttempts, s.policy.Duration, *newLock), nil
	}

	s.timing.WaitFrom(ctx, start, true)

	s.logger.Info("account logged in", slog.Int64("account_id", acct.ID))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		AccountID: acct.ID,
		Email:     email,
		Source:    sourceKey,
		Success:   true,
	})

	return &models.AuthResult{
		Success: true,
		Message: msgLoginSuccess,
		Status:  models.StatusOK,
		Account: &models.AccountRef{ID: acct.ID, Email: acct.Email},
	}, nil
}

// ListAccounts returns every account without password hashes.
// The caller is responsible for authorizing the request.
func (s *AccountService) ListAccounts(ctx context.Context) ([]models.AccountSummary, error) {
	accounts, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list accounts", slog.Any("error", err))
		return nil, fmt.Errorf("list accounts: %w", models.ErrInternalServer)
	}

	summaries := make([]models.AccountSummary, 0, len(accounts))
	for _, acct := range accounts {
		summaries = append(summaries, acct.Summary())
	}
	return summaries, nil
}

func (s *AccountService) checkRate(sourceKey, eventType string) *models.AuthResult {
	decision := s.limiter.Check(sourceKey)
	if decision.Allowed {
		return nil
	}

	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     eventType,
		Source:        sourceKey,
		FailureReason: "rate_limited",
	})
	return &models.AuthResult{
		Message:    fmt.Sprintf("Too many requests. Try again in %d seconds.", decision.RetryAfter),
		Status:     models.StatusRateLimited,
		RetryAfter: decision.RetryAfter,
	}
}

func (s *AccountService) rejectRegister(sourceKey, email, reason string, result *models.AuthResult) *models.AuthResult {
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     "register_failed",
		Email:         email,
		Source:        sourceKey,
		FailureReason: reason,
	})
	return result
}

func (s *AccountService) invalidCredentials(ctx context.Context, start time.Time, accountID int64, email, sourceKey string) *models.AuthResult {
	s.timing.WaitFrom(ctx, start, false)

	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     "login_failed",
		AccountID:     accountID,
		Email:         email,
		Source:        sourceKey,
		FailureReason: "invalid_credentials",
	})
	return &models.AuthResult{
		Message: msgInvalidCredentials,
		Status:  models.StatusInvalidCredentials,
	}
}

func invalidInput(message string) *models.AuthResult {
	return &models.AuthResult{Message: message, Status: models.StatusInvalidInput}
}

func alreadyRegistered() *models.AuthResult {
	return &models.AuthResult{Message: msgAlreadyRegistered, Status: models.StatusAlreadyRegistered}
}

func lockedResult(until, now time.Time) *models.AuthResult {
	minutes := int(until.Sub(now)/time.Second)/60 + 1
	until = until.UTC()
	return &models.AuthResult{
		Message:     fmt.Sprintf("Account locked due to multiple failed attempts. Try again in %d minute(s).", minutes),
		Status:      models.StatusLocked,
		LockedUntil: &until,
	}
}

func thresholdLockedResult(failed int, duration time.Duration, until time.Time) *models.AuthResult {
	until = until.UTC()
	return &models.AuthResult{
		Message:     fmt.Sprintf("Account locked due to %d failed attempts. Try again after %d minute(s).", failed, int(duration/time.Minute)),
		Status:      models.StatusLocked,
		LockedUntil: &until,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func looksLikeEmail(email string) bool {
	return strings.Contains(email, "@") && strings.Contains(email, ".")
}
