package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deptevents/event-registration/internal/domain"
)

func TestUpdateProfile(t *testing.T) {
	store := newStore(newClock(time.Now()))
	svc := NewUserService(store.Users())
	user := store.AddUser(domain.User{Email: "a@gmail.com", Role: domain.UserRoleUser, Active: true, Phone: ptr("0123456789")})
	ctx := context.Background()

	updated, err := svc.UpdateProfile(ctx, user.ID, ProfileInput{
		FullName: ptr("  Nguyen Van A "),
		BankName: ptr("VCB"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Nguyen Van A", updated.DisplayName())
	assert.Equal(t, "0123456789", *updated.Phone)
	assert.Equal(t, "VCB", *store.User(user.ID).BankName)

	for _, phone := range []string{"123456789", "1123456789", "01234567890", "0abc456789"} {
		_, err := svc.UpdateProfile(ctx, user.ID, ProfileInput{Phone: ptr(phone)})
		requireValidation(t, err, "phone")
	}

	updated, err = svc.UpdateProfile(ctx, user.ID, ProfileInput{Phone: ptr("")})
	require.NoError(t, err)
	assert.Nil(t, updated.Phone)

	_, err = svc.GetMe(ctx, 999)
	requireStatus(t, err, http.StatusNotFound)
}

func TestAdminUpdateAndList(t *testing.T) {
	store := newStore(newClock(time.Now()))
	svc := NewUserService(store.Users())
	ctx := context.Background()
	user := store.AddUser(domain.User{Email: "b@gmail.com", Role: domain.UserRoleUser})
	store.AddUser(domain.User{Email: "admin@gmail.com", Role: domain.UserRoleAdmin, Active: true})

	updated, err := svc.AdminUpdate(ctx, user.ID, AdminUserInput{Role: ptr(domain.UserRoleAdmin), Active: ptr(true)})
	require.NoError(t, err)
	assert.True(t, updated.IsAdmin())
	assert.True(t, updated.Active)

	_, err = svc.AdminUpdate(ctx, user.ID, AdminUserInput{Role: ptr(domain.UserRole("root"))})
	requireValidation(t, err, "role")

	admins, err := svc.List(ctx, UserListFilters{Role: ptr(domain.UserRoleAdmin)})
	require.NoError(t, err)
	assert.Len(t, admins, 2)

	found, err := svc.List(ctx, UserListFilters{Search: ptr("admin@")})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "admin@gmail.com", found[0].Email)
}
