package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/car-catalog/backend/internal/models"
)

func TestMemoryStore_InsertAssignsIDAndTimestamps(t *testing.T) {
	s := NewMemoryStore()
	car := &models.Car{UserID: "u1", Title: "T", Description: "D"}

	require.NoError(t, s.Insert(context.Background(), car))
	assert.False(t, car.ID.IsZero())
	assert.False(t, car.CreatedAt.IsZero())
	assert.Equal(t, car.CreatedAt, car.UpdatedAt)
	assert.NotNil(t, car.Images)
}

func TestMemoryStore_ListByOwnerScopesAndOrders(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	first := &models.Car{UserID: "u1", Title: "first", Tags: models.Tags{CarType: "SUV"}}
	other := &models.Car{UserID: "u2", Title: "other SUV"}
	second := &models.Car{UserID: "u1", Title: "second", Description: "compact suv"}
	third := &models.Car{UserID: "u1", Title: "third", Tags: models.Tags{Company: "Fiat"}}
	for _, c := range []*models.Car{first, other, second, third} {
		require.NoError(t, s.Insert(ctx, c))
	}

	all, err := s.ListByOwner(ctx, "u1", "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"first", "second", "third"}, titles(all))

	suv, err := s.ListByOwner(ctx, "u1", "suv")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, titles(suv))

	none, err := s.ListByOwner(ctx, "u3", "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryStore_GetByID(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	car := &models.Car{UserID: "u1", Title: "T", Images: [][]byte{[]byte("a")}}
	require.NoError(t, s.Insert(ctx, car))

	got, err := s.GetByID(ctx, car.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "T", got.Title)

	got.Images[0][0] = 'z'
	again, err := s.GetByID(ctx, car.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), again.Images[0], "stored bytes must not alias returned bytes")

	_, err = s.GetByID(ctx, "not-an-object-id")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetByID(ctx, "64b7f0f0f0f0f0f0f0f0f0f0")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_UpdateOwned(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	car := &models.Car{UserID: "u1", Title: "old", Description: "d"}
	require.NoError(t, s.Insert(ctx, car))

	foreign := *car
	foreign.UserID = "u2"
	foreign.Title = "hijacked"
	assert.ErrorIs(t, s.UpdateOwned(ctx, &foreign), ErrNotFound)

	car.Title = "new"
	car.Images = [][]byte{[]byte("x")}
	require.NoError(t, s.UpdateOwned(ctx, car))

	got, err := s.GetByID(ctx, car.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "new", got.Title)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, [][]byte{[]byte("x")}, got.Images)
}

func TestMemoryStore_DeleteOwned(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	car := &models.Car{UserID: "u1", Title: "T"}
	require.NoError(t, s.Insert(ctx, car))

	assert.ErrorIs(t, s.DeleteOwned(ctx, car.ID.Hex(), "u2"), ErrNotFound)
	require.NoError(t, s.DeleteOwned(ctx, car.ID.Hex(), "u1"))
	assert.ErrorIs(t, s.DeleteOwned(ctx, car.ID.Hex(), "u1"), ErrNotFound)
	assert.ErrorIs(t, s.DeleteOwned(ctx, "bogus", "u1"), ErrNotFound)
}

func titles(cars []models.Car) []string {
	out := make([]string, len(cars))
	for i, c := range cars {
		out[i] = c.Title
	}
	return out
}
