package service

import (
	"context"
	"errors"

	"github.com/AdamBeresnev/tiebreak/internal/store"
	users "github.com/AdamBeresnev/tiebreak/internal/user"
	"github.com/AdamBeresnev/tiebreak/internal/utils"
	"github.com/google/uuid"
	"github.com/markbates/goth"
)

// GuestUserID is the shared account used by "continue as guest".
var GuestUserID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

type UserService struct {
	store *store.UserStore
}

func NewUserService(store *store.UserStore) *UserService {
	return &UserService{store: store}
}

func (s *UserService) FindOrCreateUserByProvider(ctx context.Context, gothUser goth.User) (*users.User, error) {
	user, err := s.store.GetUserByProvider(ctx, gothUser.Provider, gothUser.UserID)

	if err == nil {
		if utils.OrZero(user.AvatarURL) != gothUser.AvatarURL || user.Username != displayName(gothUser) {
			user.Username = displayName(gothUser)
			user.AvatarURL = utils.StringOrNil(gothUser.AvatarURL)
			if err := s.store.UpdateUserNameAndAvatar(ctx, user); err != nil {
				return nil, err
			}
		}
		return user, nil
	}

	if errors.Is(err, store.ErrNotFound) {
		newUser := &users.User{
			ID:         uuid.New(),
			Email:      gothUser.Email,
			Username:   displayName(gothUser),
			Provider:   &gothUser.Provider,
			ProviderID: &gothUser.UserID,
			AvatarURL:  utils.StringOrNil(gothUser.AvatarURL),
		}
		err := s.store.CreateUser(ctx, newUser)
		return newUser, err
	}

	return nil, err
}

func (s *UserService) EnsureGuestUser(ctx context.Context) (*users.User, error) {
	user, err := s.store.GetUser(ctx, GuestUserID)
	if err == nil {
		return user, nil
	}

	if errors.Is(err, store.ErrNotFound) {
		guestUser := &users.User{
			ID:       GuestUserID,
			Email:    "guest@tiebreak.app",
			Username: "Guest User",
		}
		err := s.store.CreateUser(ctx, guestUser)
		return guestUser, err
	}
	return nil, err
}

// displayName prefers the provider nickname, which is what Discord shows, over the full name.
func displayName(gothUser goth.User) string {
	if gothUser.NickName != "" {
		return gothUser.NickName
	}
	if gothUser.Name != "" {
		return gothUser.Name
	}
	return gothUser.Email
}
