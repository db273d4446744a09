package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbinstitution/lms-client-go/internal/features/user"
	"github.com/nbinstitution/lms-client-go/pkg/storage"
)

func seededDirectory(t *testing.T, store storage.Store) *user.Directory {
	t.Helper()

	adminHash, err := user.HashPassword("admin123")
	require.NoError(t, err)
	userHash, err := user.HashPassword("user123")
	require.NoError(t, err)

	directory := user.OpenDirectory(store)
	require.NoError(t, directory.Replace(context.Background(), []user.Account{
		{ID: "1", Email: "admin@nbinstitution.com", PasswordHash: adminHash, Name: "Admin User", Role: user.RoleAdmin},
		{ID: "2", Email: "user@example.com", PasswordHash: userHash, Name: "Demo User", Role: user.RoleUser},
	}))
	return directory
}

func newTestManager(t *testing.T) (*Manager, storage.Store) {
	t.Helper()

	store := storage.NewMemoryStore()
	directory := seededDirectory(t, store)
	manager := NewManager(store, directory, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return manager, store
}

func TestLoginRejectsUnknownCredentials(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "nobody@example.com", "whatever1"},
		{"wrong password", "user@example.com", "not-the-password"},
		{"password of another account", "user@example.com", "admin123"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := manager.Login(ctx, tc.email, tc.password)
			assert.ErrorIs(t, err, ErrInvalidCredentials)

			_, active := manager.Current()
			assert.False(t, active, "failed login must leave the state unchanged")
		})
	}
}

func TestLoginMatchesEmailCaseInsensitively(t *testing.T) {
	manager, _ := newTestManager(t)

	session, err := manager.Login(context.Background(), "ADMIN@NBInstitution.com", "admin123")
	require.NoError(t, err)
	assert.Equal(t, "1", session.UserID)
	assert.True(t, manager.IsAdmin())
}

func TestLoginRequiresBothFields(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	_, err := manager.Login(ctx, "", "admin123")
	assert.ErrorIs(t, err, ErrMissingFields)
	_, err = manager.Login(ctx, "admin@nbinstitution.com", "")
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestRegisterThenLogin(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	session, err := manager.Register(ctx, "New Learner", "learner@example.com", "s3cretpass")
	require.NoError(t, err)
	assert.Equal(t, user.RoleUser, session.Role)
	assert.False(t, manager.IsAdmin())

	require.NoError(t, manager.Logout(ctx))

	again, err := manager.Login(ctx, "learner@example.com", "s3cretpass")
	require.NoError(t, err)
	assert.Equal(t, session.UserID, again.UserID)
	assert.Equal(t, user.RoleUser, again.Role)
}

func TestRegisterRejectsDuplicateEmailRegardlessOfCase(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	_, err := manager.Register(ctx, "First", "dup@example.com", "password1")
	require.NoError(t, err)

	_, err = manager.Register(ctx, "Second", "DUP@Example.COM", "password2")
	assert.ErrorIs(t, err, ErrEmailExists)

	// Seeded accounts collide too.
	_, err = manager.Register(ctx, "Impostor", "User@Example.com", "password3")
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestRegisterValidatesInput(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	_, err := manager.Register(ctx, "", "a@b.co", "password1")
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = manager.Register(ctx, "Name", "not-an-email", "password1")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = manager.Register(ctx, "Name", "a@b.co", "short")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestSecondLoginInvalidatesFirstDeviceSession(t *testing.T) {
	manager, store := newTestManager(t)
	ctx := context.Background()

	_, err := manager.Login(ctx, "user@example.com", "user123")
	require.NoError(t, err)

	// Capture the first device's persisted snapshot.
	firstBlob, err := store.Get(ctx, SessionKey)
	require.NoError(t, err)
	firstDevice, err := store.Get(ctx, DeviceKey)
	require.NoError(t, err)

	// A login "from a second device" records a fresh fingerprint.
	_, err = manager.Login(ctx, "user@example.com", "user123")
	require.NoError(t, err)
	secondDevice, err := store.Get(ctx, DeviceKey)
	require.NoError(t, err)
	require.NotEqual(t, firstDevice, secondDevice)

	// Restoring the first device's blob against the new fingerprint fails.
	var notices []string
	restorer := NewManager(store, user.OpenDirectory(store), slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithNotices(func(msg string) { notices = append(notices, msg) }))

	require.NoError(t, store.Set(ctx, SessionKey, firstBlob))
	_, ok := restorer.Restore(ctx)
	assert.False(t, ok)
	assert.Contains(t, notices, "Your session has expired. Please log in again.")
	_, err = store.Get(ctx, SessionKey)
	assert.ErrorIs(t, err, storage.ErrKeyNotFound, "stale blob must be discarded")
}

func TestRestoreHonorsMatchingFingerprint(t *testing.T) {
	manager, store := newTestManager(t)
	ctx := context.Background()

	logged, err := manager.Login(ctx, "admin@nbinstitution.com", "admin123")
	require.NoError(t, err)

	restorer := NewManager(store, user.OpenDirectory(store), slog.New(slog.NewTextHandler(io.Discard, nil)))
	restored, ok := restorer.Restore(ctx)
	require.True(t, ok)
	assert.Equal(t, logged.UserID, restored.UserID)
	assert.Equal(t, logged.DeviceID, restored.DeviceID)
	assert.True(t, restorer.IsAdmin())
}

func TestRestoreDiscardsMalformedBlob(t *testing.T) {
	manager, store := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, SessionKey, "{broken"))
	_, ok := manager.Restore(ctx)
	assert.False(t, ok)
	_, err := store.Get(ctx, SessionKey)
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)
}

func TestLogoutIsIdempotent(t *testing.T) {
	manager, store := newTestManager(t)
	ctx := context.Background()

	_, err := manager.Login(ctx, "user@example.com", "user123")
	require.NoError(t, err)

	require.NoError(t, manager.Logout(ctx))
	_, err = store.Get(ctx, DeviceKey)
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)

	// No active session: still succeeds.
	require.NoError(t, manager.Logout(ctx))
	_, active := manager.Current()
	assert.False(t, active)
}

func TestLoginSurfacesMissingDirectory(t *testing.T) {
	store := storage.NewMemoryStore()
	manager := NewManager(store, user.OpenDirectory(store), slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := manager.Login(context.Background(), "user@example.com", "user123")
	assert.ErrorIs(t, err, user.ErrDirectoryMissing)
}
