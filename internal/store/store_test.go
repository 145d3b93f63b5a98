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

func TestFindLoginCandidateByUsernameOrEmail(t *testing.T) {
	db := storetest.OpenSeeded(t)
	s := store.New(db)
	ctx := context.Background()
	u := storetest.CreateUser(t, db, "ana", "ana@x.com", "secret1", "Moderador")

	byName, err := s.FindLoginCandidate(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)
	assert.Equal(t, "Moderador", byName.Role.Name)

	byEmail, err := s.FindLoginCandidate(ctx, "ana@x.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	_, err = s.FindLoginCandidate(ctx, "ANA")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.SetUserActive(ctx, u.ID, false))
	_, err = s.FindLoginCandidate(ctx, "ana")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateUserDuplicate(t *testing.T) {
	db := storetest.OpenSeeded(t)
	s := store.New(db)
	ctx := context.Background()
	role := storetest.Role(t, db, "Usuario Básico")
	storetest.CreateUser(t, db, "ana", "ana@x.com", "secret1", "Usuario Básico")

	exists, err := s.UserExists(ctx, "other", "ana@x.com")
	require.NoError(t, err)
	assert.True(t, exists)

	dup := &models.User{Username: "ana", Email: "new@x.com", PasswordHash: "x", DisplayName: "Ana", Active: true, RoleID: role.ID}
	assert.ErrorIs(t, s.CreateUser(ctx, dup), store.ErrDuplicate)
}

func TestLowestRole(t *testing.T) {
	s := store.New(storetest.OpenSeeded(t))
	r, err := s.LowestRole(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Usuario Básico", r.Name)
	assert.Equal(t, 1, r.AccessLevel)
}

func TestFindActiveSession(t *testing.T) {
	db := storetest.OpenSeeded(t)
	s := store.New(db)
	ctx := context.Background()
	u := storetest.CreateUser(t, db, "ana", "ana@x.com", "secret1", "Moderador")
	now := time.Now().UTC()

	live := &models.Session{UserID: u.ID, Token: "tok-live", Active: true, ExpiresAt: now.Add(time.Hour)}
	expired := &models.Session{UserID: u.ID, Token: "tok-old", Active: true, ExpiresAt: now.Add(-time.Hour)}
	require.NoError(t, s.OpenSession(ctx, live, now))
	require.NoError(t, s.OpenSession(ctx, expired, now))

	got, err := s.FindActiveSession(ctx, u.ID, "tok-live", now)
	require.NoError(t, err)
	assert.Equal(t, live.ID, got.ID)

	_, err = s.FindActiveSession(ctx, u.ID, "tok-old", now)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.FindActiveSession(ctx, u.ID+1, "tok-live", now)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.DeactivateSession(ctx, "tok-live"))
	require.NoError(t, s.DeactivateSession(ctx, "tok-live"))
	_, err = s.FindActiveSession(ctx, u.ID, "tok-live", now)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCountGrantsIsPerModuleAndAction(t *testing.T) {
	db := storetest.OpenSeeded(t)
	s := store.New(db)
	ctx := context.Background()
	basic := storetest.Role(t, db, "Usuario Básico")
	admin := storetest.Role(t, db, "Administrador")

	n, err := s.CountGrants(ctx, basic.ID, "Dashboard", models.ActionRead)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.CountGrants(ctx, basic.ID, "Usuarios", models.ActionRead)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.CountGrants(ctx, admin.ID, "Roles", models.ActionDelete)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.CountGrants(ctx, admin.ID, "Usuarios", models.ActionDelete)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRoleGrantsAndModules(t *testing.T) {
	db := storetest.OpenSeeded(t)
	s := store.New(db)
	ctx := context.Background()
	premium := storetest.Role(t, db, "Usuario Premium")

	grants, err := s.RoleGrants(ctx, premium.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []store.Grant{
		{Module: "Dashboard", Action: models.ActionRead},
		{Module: "Reportes", Action: models.ActionRead},
	}, grants)

	mods, err := s.ModulesForRole(ctx, premium.ID)
	require.NoError(t, err)
	require.Len(t, mods, 2)
	assert.Equal(t, "Dashboard", mods[0].Name)
	assert.Equal(t, "Reportes", mods[1].Name)
	assert.Less(t, mods[0].Order, mods[1].Order)

	require.NoError(t, db.Model(&models.Module{}).Where("name = ?", "Reportes").Update("active", false).Error)
	mods, err = s.ModulesForRole(ctx, premium.ID)
	require.NoError(t, err)
	assert.Len(t, mods, 1)
}

func TestActivityForUserPaginates(t *testing.T) {
	db := storetest.OpenSeeded(t)
	s := store.New(db)
	ctx := context.Background()
	u := storetest.CreateUser(t, db, "ana", "ana@x.com", "secret1", "Moderador")
	other := storetest.CreateUser(t, db, "beto", "beto@x.com", "secret1", "Moderador")

	for i := 0; i < 5; i++ {
		require.NoError(t, s.AppendActivity(ctx, &models.ActivityLog{UserID: &u.ID, Action: "login_exitoso", Module: "auth"}))
	}
	require.NoError(t, s.AppendActivity(ctx, &models.ActivityLog{UserID: &other.ID, Action: "logout", Module: "auth"}))
	require.NoError(t, s.AppendActivity(ctx, &models.ActivityLog{Action: "login_fallido", Module: "auth"}))

	page, total, err := s.ActivityForUser(ctx, u.ID, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, page, 2)

	last, _, err := s.ActivityForUser(ctx, u.ID, 2, 4)
	require.NoError(t, err)
	assert.Len(t, last, 1)
}

func TestStats(t *testing.T) {
	db := storetest.OpenSeeded(t)
	s := store.New(db)
	ctx := context.Background()
	now := time.Now().UTC()
	u := storetest.CreateUser(t, db, "ana", "ana@x.com", "secret1", "Moderador")
	storetest.CreateUser(t, db, "beto", "beto@x.com", "secret1", "Usuario Básico")
	gone := storetest.CreateUser(t, db, "carla", "carla@x.com", "secret1", "Usuario Básico")
	require.NoError(t, s.SetUserActive(ctx, gone.ID, false))
	require.NoError(t, s.OpenSession(ctx, &models.Session{UserID: u.ID, Token: "t1", Active: true, ExpiresAt: now.Add(time.Hour)}, now))
	require.NoError(t, s.OpenSession(ctx, &models.Session{UserID: u.ID, Token: "t2", Active: true, ExpiresAt: now.Add(time.Hour)}, now))
	require.NoError(t, s.DeactivateSession(ctx, "t2"))
	require.NoError(t, s.AppendActivity(ctx, &models.ActivityLog{UserID: &u.ID, Action: "login_exitoso", Module: "auth"}))
	require.NoError(t, s.AppendActivity(ctx, &models.ActivityLog{UserID: &u.ID, Action: "export", Module: "Reportes"}))
	require.NoError(t, s.AppendActivity(ctx, &models.ActivityLog{UserID: &u.ID, Action: "logout", Module: "auth"}))

	st, err := s.Stats(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(2), st.ActiveUsers)
	assert.Equal(t, int64(1), st.ActiveSessions)
	require.Len(t, st.UsersByRole, 5)
	assert.Equal(t, "Super Administrador", st.UsersByRole[0].Role)
	require.Len(t, st.RecentLogins, 1)
	assert.Equal(t, "ana", st.RecentLogins[0].Username)
	require.NotEmpty(t, st.TopModules)
	assert.Equal(t, store.ModuleCount{Module: "auth", Total: 2}, st.TopModules[0])

	var activity int64
	for _, d := range st.RecentActivity {
		activity += d.Total
	}
	assert.Equal(t, int64(3), activity)
}

func TestFindLoginCandidatePrefersUsernameMatch(t *testing.T) {
	db := storetest.OpenSeeded(t)
	s := store.New(db)
	byEmail := storetest.CreateUser(t, db, "carla", "ana@x.com", "secret1", "Moderador")
	byName := storetest.CreateUser(t, db, "ana@x.com", "other@x.com", "secret1", "Usuario Básico")
	require.Less(t, byEmail.ID, byName.ID)

	got, err := s.FindLoginCandidate(context.Background(), "ana@x.com")
	require.NoError(t, err)
	assert.Equal(t, byName.ID, got.ID)
	assert.Equal(t, "Usuario Básico", got.Role.Name)
}

func TestOpenSessionStampsLastLogin(t *testing.T) {
	db := storetest.OpenSeeded(t)
	s := store.New(db)
	ctx := context.Background()
	u := storetest.CreateUser(t, db, "ana", "ana@x.com", "secret1", "Moderador")
	now := time.Now().UTC().Truncate(time.Second)

	sess := &models.Session{UserID: u.ID, Token: "tok", Active: true, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, s.OpenSession(ctx, sess, now))
	assert.NotZero(t, sess.ID)

	got, err := s.UserWithRole(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLogin)
	assert.True(t, got.LastLogin.Equal(now), "got %s", got.LastLogin)
}
