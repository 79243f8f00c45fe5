package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AdamBeresnev/tiebreak/internal/store"
	users "github.com/AdamBeresnev/tiebreak/internal/user"
	"github.com/AdamBeresnev/tiebreak/internal/utils"
	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers map[uuid.UUID]*users.User

func (f fakeUsers) GetUser(_ context.Context, id uuid.UUID) (*users.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestCanModifyTournament(t *testing.T) {
	testCases := []struct {
		name     string
		userID   string
		ownerID  *string
		expected bool
	}{
		{name: "ownerless, anonymous", userID: "", ownerID: nil, expected: true},
		{name: "ownerless, logged in", userID: "u1", ownerID: nil, expected: true},
		{name: "empty owner counts as ownerless", userID: "", ownerID: utils.Ptr(""), expected: true},
		{name: "owner", userID: "u1", ownerID: utils.Ptr("u1"), expected: true},
		{name: "someone else", userID: "u2", ownerID: utils.Ptr("u1"), expected: false},
		{name: "anonymous on owned", userID: "", ownerID: utils.Ptr("u1"), expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, CanModifyTournament(tc.userID, tc.ownerID))
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	testCases := []struct {
		name       string
		configured string
		provided   string
		expected   int
	}{
		{name: "correct password", configured: "s3cret", provided: "s3cret", expected: http.StatusOK},
		{name: "wrong password", configured: "s3cret", provided: "guess", expected: http.StatusUnauthorized},
		{name: "missing header", configured: "s3cret", provided: "", expected: http.StatusUnauthorized},
		{name: "not configured", configured: "", provided: "", expected: http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/tournaments", nil)
			if tc.provided != "" {
				req.Header.Set(AdminPasswordHeader, tc.provided)
			}
			rec := httptest.NewRecorder()

			RequireAdmin(tc.configured)(http.HandlerFunc(okHandler)).ServeHTTP(rec, req)
			assert.Equal(t, tc.expected, rec.Code)
		})
	}
}

func TestRequireAuth(t *testing.T) {
	handler := RequireAuth(http.HandlerFunc(okHandler))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me/tournaments", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/me/tournaments", nil)
	req = req.WithContext(WithUserID(req.Context(), uuid.New()))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoadAuthenticatedUser(t *testing.T) {
	sessionManager := scs.New()
	user := &users.User{ID: uuid.New(), Username: "ana"}
	lookup := fakeUsers{user.ID: user}

	login := sessionManager.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionManager.Put(r.Context(), SessionUserKey, user.ID.String())
	}))
	rec := httptest.NewRecorder()
	login.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/guest", nil))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	var seenID uuid.UUID
	var seenUser *users.User
	protected := sessionManager.LoadAndSave(LoadAuthenticatedUser(sessionManager, lookup)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seenID, _ = GetUserIDFromContext(r.Context())
			seenUser = GetAuthenticatedUser(r.Context())
		}),
	))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	protected.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, user.ID, seenID)
	require.NotNil(t, seenUser)
	assert.Equal(t, "ana", seenUser.Username)

	seenID, seenUser = uuid.Nil, nil
	protected.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, uuid.Nil, seenID)
	assert.Nil(t, seenUser)
}
