package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consola/internal/models"
	"consola/internal/store"
	"consola/internal/storetest"
)

func TestUpdateUserAppliesOnlySetFields(t *testing.T) {
	db := storetest.OpenSeeded(t)
	s := store.New(db)
	ctx := context.Background()
	u := storetest.CreateUser(t, db, "ana", "ana@x.com", "secret1", "Usuario Básico")
	premium := storetest.Role(t, db, "Usuario Premium")

	require.NoError(t, s.UpdateUser(ctx, u.ID, store.UserChanges{RoleID: &premium.ID}))
	got, err := s.UserWithRole(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Usuario Premium", got.Role.Name)
	assert.Equal(t, u.DisplayName, got.DisplayName)
	assert.True(t, got.Active)

	off := false
	require.NoError(t, s.UpdateUser(ctx, u.ID, store.UserChanges{Active: &off}))
	_, err = s.ActiveUserWithRole(ctx, u.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.NoError(t, s.UpdateUser(ctx, u.ID, store.UserChanges{}))
	assert.ErrorIs(t, s.UpdateUser(ctx, 9999, store.UserChanges{Active: &off}), store.ErrNotFound)
}

func TestDeactivateUserSessionsAndListUsers(t *testing.T) {
	db := storetest.OpenSeeded(t)
	s := store.New(db)
	ctx := context.Background()
	ana := storetest.CreateUser(t, db, "ana", "ana@x.com", "secret1", "Usuario Básico")
	storetest.CreateUser(t, db, "bo1", "bo@x.com", "secret1", "Moderador")
	now := time.Now().UTC()
	for _, tok := range []string{"a1", "a2"} {
		require.NoError(t, s.OpenSession(ctx, &models.Session{UserID: ana.ID, Token: tok, Active: true, ExpiresAt: now.Add(time.Hour)}, now))
	}

	require.NoError(t, s.DeactivateUserSessions(ctx, ana.ID))
	_, err := s.FindActiveSession(ctx, ana.ID, "a1", now)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.FindActiveSession(ctx, ana.ID, "a2", now)
	assert.ErrorIs(t, err, store.ErrNotFound)

	users, total, err := s.ListUsers(ctx, 1, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, users, 1)
	assert.NotEmpty(t, users[0].Role.Name)
}
