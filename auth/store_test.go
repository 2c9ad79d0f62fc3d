package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recordmap/recordmap"
)

func sqlStore(t *testing.T) *SQLStore {
	t.Helper()
	conn, err := recordmap.Open("sqlite://:memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	store := &SQLStore{Conn: conn}
	require.NoError(t, store.Init(context.Background()))
	return store
}

func TestSQLStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := sqlStore(t)

	created, err := store.CreateUser(ctx, User{
		Username: "admin",
		Email:    "admin@example.com",
		Role:     "admin",
	}, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID, "the assigned key lands on the credential record")

	found, err := store.FindByUsername("admin")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "admin@example.com", found.Email)
	assert.Equal(t, created.PasswordHash, found.PasswordHash)
}

func TestSQLStoreUnknownUser(t *testing.T) {
	store := sqlStore(t)

	found, err := store.FindByUsername("nobody")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestAuthenticateAgainstSQLStore(t *testing.T) {
	ctx := context.Background()
	store := sqlStore(t)

	_, err := store.CreateUser(ctx, User{
		Username: "admin",
		Email:    "admin@example.com",
		Role:     "admin",
	}, "s3cret")
	require.NoError(t, err)

	m := NewManager([]byte("test-secret"), time.Hour, store)

	res, err := m.Authenticate("admin", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "admin", res.User.Role)

	_, err = m.Authenticate("admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
