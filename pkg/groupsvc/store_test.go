package groupsvc

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safetravel/groupwatch/pkg/logger"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "groupd.db"), logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreCreateAndLookup(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	user, token, err := store.CreateUser(ctx, "Amit Sharma", "Amit", "amit@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NotEmpty(t, token)

	byName, err := store.UserByUsername(ctx, "Amit")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)
	assert.Equal(t, "Amit Sharma", byName.Name)
	assert.Equal(t, user.CreatedAt, byName.CreatedAt)

	byToken, err := store.UserByToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "Amit", byToken.Username)

	member := byToken.Member()
	assert.Equal(t, user.ID, member.ID)
	assert.Equal(t, "Amit", member.Username)
}

func TestStoreLookupMisses(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	_, err := store.UserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = store.UserByToken(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrUserNotFound)

	// Usernames are case sensitive
	_, _, err = store.CreateUser(ctx, "", "Amit", "")
	require.NoError(t, err)
	_, err = store.UserByUsername(ctx, "amit")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestStoreRejectsDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	_, _, err := store.CreateUser(ctx, "Amit", "Amit", "")
	require.NoError(t, err)

	_, _, err = store.CreateUser(ctx, "Other Amit", "Amit", "")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, _, err = store.CreateUser(ctx, "Blank", "  ", "")
	assert.Error(t, err)
}

func TestStoreEmails(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	for _, u := range []struct{ username, email string }{
		{"Sahil006", "sahil@example.com"},
		{"Riya", "riya@example.com"},
		{"Amit", ""},
	} {
		_, _, err := store.CreateUser(ctx, "", u.username, u.email)
		require.NoError(t, err)
	}

	emails, err := store.Emails(ctx, []string{"Sahil006", "Riya", "Amit", "ghost"})
	require.NoError(t, err)
	assert.Equal(t, []string{"riya@example.com", "sahil@example.com"}, emails)

	emails, err = store.Emails(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, emails)
}

func TestStoreReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "groupd.db")

	store, err := OpenStore(path, logger.Nop())
	require.NoError(t, err)
	_, token, err := store.CreateUser(ctx, "Amit Sharma", "Amit", "")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = OpenStore(path, logger.Nop())
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	user, err := store.UserByToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "Amit", user.Username)
}
