package service

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/elmazzun/jwt-manager/internal/auth"
	"github.com/elmazzun/jwt-manager/internal/models"
	"github.com/elmazzun/jwt-manager/internal/repo"
	"github.com/elmazzun/jwt-manager/internal/token"
)

func newTestService(t *testing.T) *AccountService {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}))

	return &AccountService{
		Users:     &repo.UserRepo{DB: db},
		Watermark: &auth.Watermark{},
	}
}

func TestRegisterLoginRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "alice", "a@x.com", "pw1"))

	user, err := svc.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.RoleGuest, user.Role)
	assert.NotEqual(t, "pw1", user.PasswordHash)
	assert.Len(t, user.TokenSecret, 64)

	raw, err := svc.Login(ctx, "alice", "pw1")
	require.NoError(t, err)

	claims, err := token.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, models.RoleGuest, claims.Role)

	require.NoError(t, token.Verify(raw, user.TokenSecret))
}

func TestRegisterDuplicate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "alice", "a@x.com", "pw1"))

	err := svc.Register(ctx, "alice", "other@x.com", "pw2")
	assert.ErrorIs(t, err, repo.ErrDuplicate)

	// The first record survives untouched.
	user, err := svc.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", user.Email)
}

func TestLoginFailures(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "alice", "a@x.com", "pw1"))

	_, err := svc.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrWrongPassword)

	_, err = svc.Login(ctx, "nobody", "pw1")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestResetPassword(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "alice", "a@x.com", "old-pw"))
	before, err := svc.GetUser(ctx, "alice")
	require.NoError(t, err)

	err = svc.ResetPassword(ctx, "alice", "wrong-pw", "new-pw")
	assert.ErrorIs(t, err, ErrWrongPassword)

	unchanged, err := svc.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, before.PasswordHash, unchanged.PasswordHash)

	require.NoError(t, svc.ResetPassword(ctx, "alice", "old-pw", "new-pw"))

	_, err = svc.Login(ctx, "alice", "old-pw")
	assert.ErrorIs(t, err, ErrWrongPassword)
	_, err = svc.Login(ctx, "alice", "new-pw")
	assert.NoError(t, err)
}

func TestChangeRole(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "alice", "a@x.com", "pw1"))

	err := svc.ChangeRole(ctx, "alice", "superuser")
	assert.ErrorIs(t, err, ErrUnknownRole)

	require.NoError(t, svc.ChangeRole(ctx, "alice", models.RoleAdmin))

	user, err := svc.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
}

func TestRevokeUser(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "alice", "a@x.com", "pw1"))

	raw, err := svc.Login(ctx, "alice", "pw1")
	require.NoError(t, err)

	require.NoError(t, svc.RevokeUser(ctx, "alice"))

	user, err := svc.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, user.Invalidated)

	// The embedded expiry has not elapsed, yet the token no longer
	// verifies against the rotated secret.
	err = token.Verify(raw, user.TokenSecret)
	assert.ErrorIs(t, err, token.ErrBadSignature)

	assert.ErrorIs(t, svc.RevokeUser(ctx, "nobody"), repo.ErrNotFound)
}

func TestRevokeOlder(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	svc.RevokeOlder(ctx, 1234)
	assert.EqualValues(t, 1234, svc.Watermark.Threshold())

	svc.RevokeOlder(ctx, 99)
	assert.EqualValues(t, 99, svc.Watermark.Threshold())
}
