package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	users "github.com/AdamBeresnev/tiebreak/internal/user"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type UserStore struct {
	db *sqlx.DB
}

const (
	userColumns            = "id, email, username, created_at, provider, provider_id, avatar_url"
	getUserQuery           = "SELECT " + userColumns + " FROM users WHERE id = ?"
	getUserByProviderQuery = `
		SELECT ` + userColumns + ` FROM users
		WHERE provider = ?
		AND provider_id = ?
	`
	createUserQuery = `
		INSERT INTO users (id, email, username, created_at, provider, provider_id, avatar_url) VALUES
		(:id, :email, :username, :created_at, :provider, :provider_id, :avatar_url)
	`
	updateUserNameAndAvatarQuery = `
		UPDATE users SET
		username = :username,
		avatar_url = :avatar_url
		WHERE id = :id
	`
)

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) GetUserByProvider(ctx context.Context, provider string, providerID string) (*users.User, error) {
	var user users.User
	if err := s.db.GetContext(ctx, &user, getUserByProviderQuery, provider, providerID); err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *UserStore) GetUser(ctx context.Context, id uuid.UUID) (*users.User, error) {
	var user users.User
	if err := s.db.GetContext(ctx, &user, getUserQuery, id); err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *UserStore) CreateUser(ctx context.Context, user *users.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.NamedExecContext(ctx, createUserQuery, user)
	return err
}

func (s *UserStore) UpdateUserNameAndAvatar(ctx context.Context, user *users.User) error {
	_, err := s.db.NamedExecContext(ctx, updateUserNameAndAvatarQuery, user)
	return err
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
