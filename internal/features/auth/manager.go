package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nbinstitution/lms-client-go/internal/features/user"
	"github.com/nbinstitution/lms-client-go/pkg/storage"
)

// Storage keys for the persisted session snapshot. They mirror the keys the
// original browser client used for localStorage.
const (
	SessionKey = "nbUser"
	DeviceKey  = "nbDeviceId"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Session asserts "this device is logged in as this user". It is a
// projection of a directory account plus the device fingerprint it was
// established on; it is only honored while that fingerprint matches the one
// recorded in durable storage.
type Session struct {
	UserID   string    `json:"id"`
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	Role     user.Role `json:"role"`
	DeviceID string    `json:"deviceId"`
}

// NoticeFunc receives user-visible notices (session expiry, welcome text).
// The presentation layer decides how to surface them.
type NoticeFunc func(message string)

// Option configures a Manager.
type Option func(*Manager)

// WithLatency sets the simulated round-trip delay applied to login and
// register. Zero disables it.
func WithLatency(d time.Duration) Option {
	return func(m *Manager) { m.delay = d }
}

// WithNotices installs the user-visible notice hook.
func WithNotices(fn NoticeFunc) Option {
	return func(m *Manager) { m.notify = fn }
}

// WithDeviceIDGenerator overrides fingerprint generation, for tests.
func WithDeviceIDGenerator(fn func() string) Option {
	return func(m *Manager) { m.newDeviceID = fn }
}

// Manager owns the active session: credential verification against the
// persisted directory, single-device enforcement via the stored fingerprint,
// and restore across process reloads.
type Manager struct {
	store       storage.Store
	directory   *user.Directory
	logger      *slog.Logger
	delay       time.Duration
	notify      NoticeFunc
	newDeviceID func() string

	mu      sync.Mutex
	current *Session
}

// NewManager constructs a session manager over the given storage and
// directory.
func NewManager(store storage.Store, directory *user.Directory, logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:       store,
		directory:   directory,
		logger:      logger,
		notify:      func(string) {},
		newDeviceID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Restore is called once at process start. The persisted session blob is
// honored only when its embedded fingerprint equals the fingerprint currently
// recorded for this device; otherwise the stale blob is discarded and the
// process starts logged out.
func (m *Manager) Restore(ctx context.Context) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, err := m.store.Get(ctx, SessionKey)
	if err != nil {
		return nil, false
	}

	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		m.logger.Warn("discarding unparseable session blob", slog.String("error", err.Error()))
		_ = m.store.Delete(ctx, SessionKey)
		return nil, false
	}

	deviceID, err := m.store.Get(ctx, DeviceKey)
	if err != nil || session.DeviceID == "" || session.DeviceID != deviceID {
		_ = m.store.Delete(ctx, SessionKey)
		m.notify("Your session has expired. Please log in again.")
		return nil, false
	}

	m.current = &session
	return m.snapshot(), true
}

// Login authenticates against the directory and establishes a fresh
// single-device session. Establishing a new fingerprint invalidates any
// session previously restorable on another device for the same account.
func (m *Manager) Login(ctx context.Context, email, password string) (*Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, ErrMissingFields
	}

	m.simulateRoundTrip()

	account, err := m.directory.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrDirectoryMissing) {
			return nil, err
		}
		return nil, ErrInvalidCredentials
	}
	if !account.ComparePassword(password) {
		return nil, ErrInvalidCredentials
	}

	session, err := m.establish(ctx, account)
	if err != nil {
		return nil, err
	}

	m.notify("Welcome back, " + account.Name + "!")
	return session, nil
}

// Register appends a new account to the directory and establishes a session
// for it, exactly as a successful login would.
func (m *Manager) Register(ctx context.Context, name, email, password string) (*Session, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}
	if !emailRegex.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}

	m.simulateRoundTrip()

	hash, err := user.HashPassword(password)
	if err != nil {
		return nil, err
	}

	account := user.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         user.RoleUser,
	}

	if err := m.directory.Append(ctx, account); err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	session, err := m.establish(ctx, account)
	if err != nil {
		return nil, err
	}

	m.notify("Registration successful!")
	return session, nil
}

// Logout clears the active session and the persisted snapshot. Calling it
// with no active session is a no-op.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	hadSession := m.current != nil
	m.current = nil
	m.mu.Unlock()

	if err := m.store.Delete(ctx, SessionKey, DeviceKey); err != nil {
		return err
	}

	if hadSession {
		m.notify("You have been logged out")
	}
	return nil
}

// Current returns a snapshot of the active session, if any.
func (m *Manager) Current() (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return nil, false
	}
	return m.snapshot(), true
}

// IsAdmin reports whether an active session exists and carries the admin
// role. Route gating depends on this predicate alone.
func (m *Manager) IsAdmin() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil && m.current.Role == user.RoleAdmin
}

// establish persists a fresh fingerprint, then the session blob embedding
// it, and activates the session. A crash between the two writes leaves a
// mismatch that Restore detects and discards.
func (m *Manager) establish(ctx context.Context, account user.Account) (*Session, error) {
	deviceID := m.newDeviceID()
	if err := m.store.Set(ctx, DeviceKey, deviceID); err != nil {
		return nil, err
	}

	session := Session{
		UserID:   account.ID,
		Email:    account.Email,
		Name:     account.Name,
		Role:     account.Role,
		DeviceID: deviceID,
	}

	data, err := json.Marshal(session)
	if err != nil {
		return nil, err
	}
	if err := m.store.Set(ctx, SessionKey, string(data)); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.current = &session
	m.mu.Unlock()

	m.logger.Info("session established",
		slog.String("user_id", account.ID),
		slog.String("role", string(account.Role)),
	)
	return m.snapshotOf(session), nil
}

// simulateRoundTrip models the network delay of the mock backend.
func (m *Manager) simulateRoundTrip() {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
}

// snapshot copies the current session. Caller must hold m.mu.
func (m *Manager) snapshot() *Session {
	return m.snapshotOf(*m.current)
}

func (m *Manager) snapshotOf(session Session) *Session {
	copied := session
	return &copied
}
