package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbinstitution/lms-client-go/pkg/storage"
)

func seededDirectory(t *testing.T) *Directory {
	t.Helper()

	hash, err := HashPassword("admin123")
	require.NoError(t, err)

	directory := OpenDirectory(storage.NewMemoryStore())
	require.NoError(t, directory.Replace(context.Background(), []Account{
		{ID: "1", Email: "admin@nbinstitution.com", PasswordHash: hash, Name: "Admin User", Role: RoleAdmin},
	}))
	return directory
}

func TestDirectoryExistsOnlyAfterSeeding(t *testing.T) {
	ctx := context.Background()

	directory := OpenDirectory(storage.NewMemoryStore())
	assert.False(t, directory.Exists(ctx))

	require.NoError(t, directory.Replace(ctx, []Account{}))
	assert.True(t, directory.Exists(ctx))
}

func TestFindByEmailIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	directory := seededDirectory(t)

	account, err := directory.FindByEmail(ctx, "ADMIN@NBInstitution.com")
	require.NoError(t, err)
	assert.Equal(t, "1", account.ID)
	assert.Equal(t, RoleAdmin, account.Role)

	_, err = directory.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestAppendRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	directory := seededDirectory(t)

	err := directory.Append(ctx, Account{ID: "9", Email: "Admin@NBinstitution.com", Name: "Impostor", Role: RoleUser})
	assert.ErrorIs(t, err, ErrEmailTaken)

	require.NoError(t, directory.Append(ctx, Account{ID: "10", Email: "new@example.com", Name: "New User", Role: RoleUser}))

	account, err := directory.FindByEmail(ctx, "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, "10", account.ID)
}

func TestComparePasswordAgainstHash(t *testing.T) {
	hash, err := HashPassword("user123")
	require.NoError(t, err)

	account := Account{PasswordHash: hash}
	assert.True(t, account.ComparePassword("user123"))
	assert.False(t, account.ComparePassword("wrong"))
}

func TestFindByEmailOnMissingDirectory(t *testing.T) {
	directory := OpenDirectory(storage.NewMemoryStore())

	_, err := directory.FindByEmail(context.Background(), "admin@nbinstitution.com")
	assert.ErrorIs(t, err, ErrDirectoryMissing)
}
