package service

import (
	"context"
	"testing"

	"github.com/AdamBeresnev/tiebreak/internal/store"
	"github.com/AdamBeresnev/tiebreak/internal/utils"
	"github.com/markbates/goth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindOrCreateUserByProvider(t *testing.T) {
	svc := NewUserService(store.NewUserStore(setupTestDB(t)))
	ctx := context.Background()

	gothUser := goth.User{
		Provider:  "discord",
		UserID:    "42",
		Email:     "ana@example.com",
		Name:      "Ana García",
		NickName:  "ana",
		AvatarURL: "https://cdn.example/ana.png",
	}

	created, err := svc.FindOrCreateUserByProvider(ctx, gothUser)
	require.NoError(t, err)
	assert.Equal(t, "ana", created.Username)

	again, err := svc.FindOrCreateUserByProvider(ctx, gothUser)
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	gothUser.NickName = "ana_g"
	gothUser.AvatarURL = ""
	renamed, err := svc.FindOrCreateUserByProvider(ctx, gothUser)
	require.NoError(t, err)
	assert.Equal(t, created.ID, renamed.ID)
	assert.Equal(t, "ana_g", renamed.Username)
	assert.Nil(t, renamed.AvatarURL)
}

func TestEnsureGuestUser(t *testing.T) {
	svc := NewUserService(store.NewUserStore(setupTestDB(t)))
	ctx := context.Background()

	guest, err := svc.EnsureGuestUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, GuestUserID, guest.ID)

	again, err := svc.EnsureGuestUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, guest.ID, again.ID)
	assert.Equal(t, "Guest User", again.Username)
	assert.Empty(t, utils.OrZero(again.Provider))
}
