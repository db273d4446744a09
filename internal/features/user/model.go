package user

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/nbinstitution/lms-client-go/pkg/storage"
)

// DirectoryKey is the storage key the serialized account directory lives
// under.
const DirectoryKey = "nbUsers"

// Role classifies an account. The set is closed; rendering and route gating
// switch exhaustively on it.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	}
	return false
}

// Account is a persisted directory entry. The password is stored as a bcrypt
// hash; it never leaves the package.
type Account struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"password"`
	Name         string `json:"name"`
	Role         Role   `json:"role"`
}

// ComparePassword checks a candidate password against the stored hash.
func (a *Account) ComparePassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) == nil
}

// HashPassword produces the bcrypt hash stored on an Account.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Directory is the persisted account collection. Every read loads the
// serialized blob from storage and every mutation writes it back, so the
// durable copy is always the source of truth across restarts.
type Directory struct {
	store storage.Store
	mu    sync.Mutex
}

// OpenDirectory wraps the storage-backed directory.
func OpenDirectory(store storage.Store) *Directory {
	return &Directory{store: store}
}

// Exists reports whether a directory blob is present and parseable.
func (d *Directory) Exists(ctx context.Context) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, err := d.load(ctx)
	return err == nil
}

// Replace overwrites the directory with the given accounts. Used only by
// seeding, which checks Exists first so an established directory is never
// clobbered.
func (d *Directory) Replace(ctx context.Context, accounts []Account) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.save(ctx, accounts)
}

// FindByEmail looks up an account by case-insensitive email.
func (d *Directory) FindByEmail(ctx context.Context, email string) (Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	accounts, err := d.load(ctx)
	if err != nil {
		return Account{}, err
	}

	needle := strings.ToLower(strings.TrimSpace(email))
	for _, account := range accounts {
		if strings.ToLower(account.Email) == needle {
			return account, nil
		}
	}
	return Account{}, ErrAccountNotFound
}

// Append adds a new account and persists the directory. Fails with
// ErrEmailTaken when the email is already present in any letter case.
func (d *Directory) Append(ctx context.Context, account Account) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	accounts, err := d.load(ctx)
	if err != nil {
		return err
	}

	needle := strings.ToLower(strings.TrimSpace(account.Email))
	for _, existing := range accounts {
		if strings.ToLower(existing.Email) == needle {
			return ErrEmailTaken
		}
	}

	return d.save(ctx, append(accounts, account))
}

// load reads and parses the directory blob. Caller must hold d.mu.
func (d *Directory) load(ctx context.Context) ([]Account, error) {
	raw, err := d.store.Get(ctx, DirectoryKey)
	if err != nil {
		return nil, ErrDirectoryMissing
	}

	var accounts []Account
	if err := json.Unmarshal([]byte(raw), &accounts); err != nil {
		// Corrupted storage reads as absence.
		return nil, ErrDirectoryMissing
	}
	return accounts, nil
}

// save serializes and persists the directory. Caller must hold d.mu.
func (d *Directory) save(ctx context.Context, accounts []Account) error {
	data, err := json.Marshal(accounts)
	if err != nil {
		return err
	}
	return d.store.Set(ctx, DirectoryKey, string(data))
}
