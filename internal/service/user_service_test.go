package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"footfall-data/internal/domain"
)

func TestUserList(t *testing.T) {
	users := newFakeUsersRepo()
	admin := users.add("root", HashPassword("admin-pass"), domain.RoleAdmin)
	admin.LastLogin = sql.NullTime{Valid: true, Time: time.Date(2026, time.August, 30, 18, 5, 0, 0, time.Local)}
	users.add("alice", HashPassword("secret-1"), domain.RoleUser)

	svc := NewUserService(users, zap.NewNop())
	views, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, "root", views[0].Username)
	assert.Equal(t, "2026/08/30 18:05:00", views[0].LastLogin)
	assert.Equal(t, "alice", views[1].Username)
	assert.Equal(t, "Never", views[1].LastLogin)
}

func TestUserUpdate(t *testing.T) {
	users := newFakeUsersRepo()
	admin := users.add("root", HashPassword("admin-pass"), domain.RoleAdmin)
	target := users.add("alice", HashPassword("secret-1"), domain.RoleUser)

	svc := NewUserService(users, zap.NewNop())
	err := svc.Update(context.Background(), admin.ID, target.ID, UserUpdateRequest{
		Username: "alice2",
		Password: "secret-2",
		Role:     domain.RoleAdmin,
	})
	require.NoError(t, err)

	fresh, err := users.GetByID(context.Background(), target.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice2", fresh.Username)
	assert.Equal(t, HashPassword("secret-2"), fresh.PasswordHash)
	assert.Equal(t, domain.RoleAdmin, fresh.Role)
}

func TestUserUpdate_KeepsUnsetFields(t *testing.T) {
	users := newFakeUsersRepo()
	admin := users.add("root", HashPassword("admin-pass"), domain.RoleAdmin)
	target := users.add("alice", HashPassword("secret-1"), domain.RoleUser)

	svc := NewUserService(users, zap.NewNop())
	err := svc.Update(context.Background(), admin.ID, target.ID, UserUpdateRequest{Role: domain.RoleUser})
	require.NoError(t, err)

	fresh, err := users.GetByID(context.Background(), target.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", fresh.Username)
	assert.Equal(t, HashPassword("secret-1"), fresh.PasswordHash)
}

func TestUserUpdate_Guards(t *testing.T) {
	users := newFakeUsersRepo()
	admin := users.add("root", HashPassword("admin-pass"), domain.RoleAdmin)
	target := users.add("alice", HashPassword("secret-1"), domain.RoleUser)
	users.add("taken", HashPassword("secret-1"), domain.RoleUser)

	svc := NewUserService(users, zap.NewNop())
	ctx := context.Background()

	assert.ErrorIs(t, svc.Update(ctx, admin.ID, admin.ID, UserUpdateRequest{Role: domain.RoleAdmin}), ErrSelfModify)
	assert.ErrorIs(t, svc.Update(ctx, admin.ID, target.ID, UserUpdateRequest{Role: "superuser"}), ErrInvalidRole)
	assert.ErrorIs(t, svc.Update(ctx, admin.ID, target.ID, UserUpdateRequest{Username: "ab", Role: domain.RoleUser}), ErrBadUsername)
	assert.ErrorIs(t, svc.Update(ctx, admin.ID, target.ID, UserUpdateRequest{Password: "pw", Role: domain.RoleUser}), ErrBadPassword)
	assert.ErrorIs(t, svc.Update(ctx, admin.ID, target.ID, UserUpdateRequest{Username: "taken", Role: domain.RoleUser}), ErrNameTaken)
}

func TestUserDelete(t *testing.T) {
	users := newFakeUsersRepo()
	admin := users.add("root", HashPassword("admin-pass"), domain.RoleAdmin)
	target := users.add("alice", HashPassword("secret-1"), domain.RoleUser)

	svc := NewUserService(users, zap.NewNop())
	assert.ErrorIs(t, svc.Delete(context.Background(), admin.ID, admin.ID), ErrSelfDelete)

	require.NoError(t, svc.Delete(context.Background(), admin.ID, target.ID))
	_, err := users.GetByID(context.Background(), target.ID)
	assert.Error(t, err)
}
