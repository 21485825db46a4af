package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ repository.Repository = (*repository.MemoryRepository)(nil)
var _ repository.Repository = (*repository.PostgresRepository)(nil)

func TestMemoryRepository_VersionedWrites(t *testing.T) {
	repo := repository.NewMemoryRepository()
	ctx := context.Background()
	arrival := model.AttendanceEvent{Kind: model.KindArrival, Timestamp: time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)}

	events, version, err := repo.GetEvents(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Equal(t, int64(0), version)

	v1, err := repo.PutEvents(ctx, "u1", []model.AttendanceEvent{arrival}, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v1)

	// a writer still holding version 0 loses
	_, err = repo.PutEvents(ctx, "u1", nil, 0)
	assert.ErrorIs(t, err, model.ErrConcurrentModification)

	events, version, err = repo.GetEvents(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []model.AttendanceEvent{arrival}, events)
	assert.Equal(t, v1, version)
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	repo := repository.NewMemoryRepository()
	ctx := context.Background()
	arrival := model.AttendanceEvent{Kind: model.KindArrival, Timestamp: time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)}

	_, err := repo.PutEvents(ctx, "u1", []model.AttendanceEvent{arrival}, 0)
	require.NoError(t, err)

	events, _, _ := repo.GetEvents(ctx, "u1")
	events[0].Kind = model.KindSick

	again, _, _ := repo.GetEvents(ctx, "u1")
	assert.Equal(t, model.KindArrival, again[0].Kind)
}

func TestMemoryRepository_Unavailable(t *testing.T) {
	repo := repository.NewMemoryRepository()
	repo.Err = errors.New("connection refused")

	_, _, err := repo.GetEvents(context.Background(), "u1")
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)

	_, err = repo.GetRates(context.Background())
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)
}

func TestMemoryRepository_MissingSettings(t *testing.T) {
	repo := repository.NewMemoryRepository()

	_, err := repo.GetRates(context.Background())
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = repo.GetAdminSettings(context.Background())
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestMemoryRepository_Users(t *testing.T) {
	repo := repository.NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.SaveUser(ctx, model.User{ID: "b", Name: "Zoe"}))
	require.NoError(t, repo.SaveUser(ctx, model.User{ID: "a", Name: "Adam"}))

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.User{{ID: "a", Name: "Adam"}, {ID: "b", Name: "Zoe"}}, users)

	deleted, err := repo.DeleteUser(ctx, "a")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.DeleteUser(ctx, "a")
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = repo.GetUser(ctx, "a")
	assert.ErrorIs(t, err, model.ErrNotFound)
}
