package middleware

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/AdamBeresnev/tiebreak/internal/config"
	"github.com/AdamBeresnev/tiebreak/internal/httputil"
	users "github.com/AdamBeresnev/tiebreak/internal/user"
	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"github.com/markbates/goth"
	"github.com/markbates/goth/providers/discord"
	"github.com/markbates/goth/providers/google"
)

type ContextKey string

const UserIDKey ContextKey = "userID"

// SessionUserKey is the session entry holding the logged-in user's id.
const SessionUserKey = "userID"

const AdminPasswordHeader = "X-Admin-Password"

// InitAuth registers the OAuth providers that have credentials configured.
func InitAuth(googleCfg, discordCfg config.OAuthProvider) {
	var providers []goth.Provider
	if discordCfg.Enabled() {
		providers = append(providers, discord.New(discordCfg.Key, discordCfg.Secret, discordCfg.CallbackURL, discord.ScopeIdentify, discord.ScopeEmail))
	}
	if googleCfg.Enabled() {
		providers = append(providers, google.New(googleCfg.Key, googleCfg.Secret, googleCfg.CallbackURL, "email", "profile"))
	}
	goth.UseProviders(providers...)
	slog.Info("auth providers configured", "count", len(providers))
}

type UserGetter interface {
	GetUser(ctx context.Context, id uuid.UUID) (*users.User, error)
}

// LoadAuthenticatedUser puts the session's user into the request context when there is one.
// Anonymous requests pass through untouched.
func LoadAuthenticatedUser(sessionManager *scs.SessionManager, userStore UserGetter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userIDStr := sessionManager.GetString(r.Context(), SessionUserKey)
			if userIDStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := uuid.Parse(userIDStr)
			if err != nil {
				sessionManager.Remove(r.Context(), SessionUserKey)
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithUserID(r.Context(), userID)

			// Add the user to context so that we can easily get it whenever we want
			if user, err := userStore.GetUser(ctx, userID); err == nil {
				ctx = context.WithValue(ctx, users.UserKey, user)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests without a logged-in user.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUserIDFromContext(r.Context()); !ok {
			httputil.Unauthorized(w, "Login required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin checks the admin password header. With no password configured every request is rejected.
func RequireAdmin(password string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get(AdminPasswordHeader)
			if password == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(password)) != 1 {
				httputil.Unauthorized(w, "Unauthorized", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CanModifyTournament allows anyone on ownerless tournaments and only the owner otherwise.
func CanModifyTournament(userID string, ownerID *string) bool {
	if ownerID == nil || *ownerID == "" {
		return true
	}
	return userID != "" && userID == *ownerID
}

func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	val := ctx.Value(UserIDKey)
	if val == nil {
		return uuid.Nil, false
	}

	id, ok := val.(uuid.UUID)
	return id, ok
}

func GetAuthenticatedUser(ctx context.Context) *users.User {
	val := ctx.Value(users.UserKey)
	if val == nil {
		return nil
	}
	user, ok := val.(*users.User)
	if !ok {
		return nil
	}
	return user
}
