package repo

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/elmazzun/jwt-manager/internal/models"
)

func newTestRepo(t *testing.T) *UserRepo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection only: every pooled connection would otherwise get its
	// own empty in-memory database.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}))

	return &UserRepo{DB: db}
}

func seedUser(t *testing.T, r *UserRepo, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username:     username,
		Email:        username + "@x.com",
		PasswordHash: "hash",
		TokenSecret:  "secret",
		Role:         models.RoleGuest,
	}
	require.NoError(t, r.Create(context.Background(), user))
	return user
}

func TestCreateDuplicate(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	seedUser(t, r, "alice")

	err := r.Create(ctx, &models.User{Username: "alice", Email: "other@x.com"})
	assert.ErrorIs(t, err, ErrDuplicate)

	var count int64
	require.NoError(t, r.DB.Model(&models.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestFindByUsername(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	seedUser(t, r, "alice")

	user, err := r.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", user.Email)
	assert.Equal(t, models.RoleGuest, user.Role)

	_, err = r.FindByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRotateSecret(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	seedUser(t, r, "alice")

	require.NoError(t, r.RotateSecret(ctx, "alice", "fresh-secret"))

	user, err := r.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "fresh-secret", user.TokenSecret)
	assert.True(t, user.Invalidated)

	err = r.RotateSecret(ctx, "nobody", "whatever")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateRoleAndPassword(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	seedUser(t, r, "alice")

	require.NoError(t, r.UpdateRole(ctx, "alice", models.RoleAdmin))
	require.NoError(t, r.UpdatePassword(ctx, "alice", "new-hash"))

	user, err := r.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.Equal(t, "new-hash", user.PasswordHash)

	assert.ErrorIs(t, r.UpdateRole(ctx, "nobody", models.RoleAdmin), ErrNotFound)
}
