package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStore_GetUserByIDRejectsNonUUID(t *testing.T) {
	s := NewPostgresStore(nil)
	for _, id := range []string{"", "not-a-uuid", "1 OR 1=1"} {
		_, err := s.GetUserByID(context.Background(), id)
		assert.ErrorIs(t, err, ErrNotFound, "id %q", id)
	}
}

// TestPostgresStore_Integration exercises the users table against a live database.
func TestPostgresStore_Integration(t *testing.T) {
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("set POSTGRES_DSN to run the PostgreSQL integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	s := NewPostgresStore(pool)
	require.NoError(t, s.Migrate(ctx))

	name := fmt.Sprintf("cartest_%d", time.Now().UnixNano())
	email := name + "@example.com"

	created, err := s.CreateUser(ctx, name, email, "hash")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	_, err = s.CreateUser(ctx, name, email, "hash")
	assert.ErrorIs(t, err, ErrAlreadyExists)

	byEmail, err := s.GetUserByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
	assert.Equal(t, "hash", byEmail.Password)

	byID, err := s.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, email, byID.Email)
	assert.Empty(t, byID.Password)

	_, err = s.GetUserByEmail(ctx, "missing-"+email)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetUserByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, created.ID)
	require.NoError(t, err)
}
