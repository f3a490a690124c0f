package repositories

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BradenHooton/lockbox/internal/models"
	pkglogger "github.com/BradenHooton/lockbox/pkg/logger"
	"github.com/go-playground/validator/v10"
)

const (
	recordExt    = ".json"
	sequenceFile = ".sequence.json"
	dirPerm      = 0o700
	filePerm     = 0o600
	lockStripes  = 256
)

// sequence is the persisted id counter
type sequence struct {
	LastID int64 `json:"last_id"`
}

// AccountRepository stores one JSON file per account in a directory.
// File names are the SHA-256 of the normalized email, so listing the directory
// does not reveal addresses.
type AccountRepository struct {
	dir      string
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time

	// createMu serializes existence check, id assignment and the first write
	createMu sync.Mutex
	lastID   int64

	// stripes guard read-merge-write per storage key
	stripes [lockStripes]sync.Mutex
}

// NewAccountRepository opens (and creates if needed) the storage directory and
// recovers the id counter from the sequence file and the existing records.
func NewAccountRepository(dir string, logger *slog.Logger) (*AccountRepository, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage directory is required")
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	r := &AccountRepository{
		dir:      dir,
		logger:   logger,
		validate: validator.New(),
		now:      time.Now,
	}

	lastID, err := r.recoverLastID()
	if err != nil {
		return nil, err
	}
	r.lastID = lastID

	return r, nil
}

// recoverLastID returns max(persisted counter, highest id on disk)
func (r *AccountRepository) recoverLastID() (int64, error) {
	var seq sequence
	data, err := os.ReadFile(filepath.Join(r.dir, sequenceFile))
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &seq); err != nil {
			r.logger.Warn("ignoring unreadable sequence file", slog.Any("error", err))
			seq.LastID = 0
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return 0, fmt.Errorf("failed to read sequence file: %w", err)
	}

	accounts, err := r.List(context.Background())
	if err != nil {
		return 0, err
	}

	maxID := seq.LastID
	for _, acct := range accounts {
		if acct.ID > maxID {
			maxID = acct.ID
		}
	}
	return maxID, nil
}

// GetByEmail returns the account for a normalized email.
// Missing and unreadable records both yield models.ErrNotFound.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	acct := r.readRecord(r.pathFor(email), email)
	if acct == nil {
		return nil, models.ErrNotFound
	}
	return acct, nil
}

// Create persists a new account with the next id.
// Returns models.ErrConflict if a readable record already exists for the email.
func (r *AccountRepository) Create(ctx context.Context, email, passwordHash string) (*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.createMu.Lock()
	defer r.createMu.Unlock()

	path := r.pathFor(email)
	mu := r.stripeFor(email)
	mu.Lock()
	defer mu.Unlock()

	if existing := r.readRecord(path, email); existing != nil {
		return nil, models.ErrConflict
	}

	id := r.lastID + 1

	// Persist the counter first so a failed record write burns the id instead of reusing it
	seqData, err := json.Marshal(sequence{LastID: id})
	if err != nil {
		return nil, fmt.Errorf("failed to encode sequence: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(r.dir, sequenceFile), seqData, filePerm); err != nil {
		return nil, fmt.Errorf("failed to persist sequence: %w", err)
	}
	r.lastID = id

	acct := &models.Account{
		ID:             id,
		Email:          email,
		PasswordHash:   passwordHash,
		FailedAttempts: 0,
		LockedUntil:    nil,
		CreatedAt:      r.now().UTC(),
	}

	if err := r.writeRecord(path, acct); err != nil {
		return nil, err
	}

	r.logger.Debug("account record created",
		slog.Int64("account_id", acct.ID),
		slog.String("email", pkglogger.SanitizedEmail(email)))

	return acct, nil
}

// Modify reads the account, hands it to fn and writes back the update fn returns,
// all while holding the account's lock. Calls for the same email run one at a time,
// so fn always sees the state left by the previous call. A nil update leaves the
// record untouched.
// Returns models.ErrNotFound if no readable record exists.
func (r *AccountRepository) Modify(ctx context.Context, email string, fn func(acct *models.Account) *models.AccountUpdate) (*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := r.pathFor(email)
	mu := r.stripeFor(email)
	mu.Lock()
	defer mu.Unlock()

	acct := r.readRecord(path, email)
	if acct == nil {
		return nil, models.ErrNotFound
	}

	update := fn(acct)
	if update == nil {
		return acct, nil
	}

	update.Apply(acct)

	if err := r.writeRecord(path, acct); err != nil {
		return nil, err
	}
	return acct, nil
}

// List returns every readable account ordered by storage file name.
func (r *AccountRepository) List(ctx context.Context) ([]*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// ReadDir returns entries sorted by name
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage directory: %w", err)
	}

	accounts := make([]*models.Account, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || isTempFile(name) || name == sequenceFile || filepath.Ext(name) != recordExt {
			continue
		}
		if acct := r.readRecord(filepath.Join(r.dir, name), ""); acct != nil {
			accounts = append(accounts, acct)
		}
	}

	return accounts, nil
}

// HealthCheck verifies the storage directory is present and writable
func (r *AccountRepository) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Stat(r.dir)
	if err != nil {
		return fmt.Errorf("storage directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("storage path %s is not a directory", r.dir)
	}

	f, err := os.CreateTemp(r.dir, tempFilePrefix+"health-")
	if err != nil {
		return fmt.Errorf("storage directory not writable: %w", err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

// readRecord decodes and validates one record file. Any failure is logged and
// reported as nil. When wantEmail is set the stored email must match it.
func (r *AccountRepository) readRecord(path, wantEmail string) *models.Account {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			r.logger.Warn("account record unreadable", slog.String("file", filepath.Base(path)), slog.Any("error", err))
		}
		return nil
	}

	var acct models.Account
	if err := json.Unmarshal(data, &acct); err != nil {
		r.logger.Warn("account record corrupt", slog.String("file", filepath.Base(path)), slog.Any("error", err))
		return nil
	}

	if err := r.validate.Struct(&acct); err != nil {
		r.logger.Warn("account record invalid", slog.String("file", filepath.Base(path)), slog.Any("error", err))
		return nil
	}

	if wantEmail != "" && acct.Email != wantEmail {
		r.logger.Warn("account record email mismatch", slog.String("file", filepath.Base(path)))
		return nil
	}

	return &acct
}

func (r *AccountRepository) writeRecord(path string, acct *models.Account) error {
	data, err := json.MarshalIndent(acct, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode account: %w", err)
	}
	if err := writeFileAtomic(path, data, filePerm); err != nil {
		return fmt.Errorf("failed to persist account: %w", err)
	}
	return nil
}

func (r *AccountRepository) pathFor(email string) string {
	return filepath.Join(r.dir, StorageKey(email)+recordExt)
}

func (r *AccountRepository) stripeFor(email string) *sync.Mutex {
	sum := sha256.Sum256([]byte(email))
	return &r.stripes[int(sum[0])%lockStripes]
}

// StorageKey maps a normalized email to its record file name (without extension)
func StorageKey(email string) string {
	sum := sha256.Sum256([]byte(email))
	return hex.EncodeToString(sum[:])
}
