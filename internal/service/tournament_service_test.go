package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/AdamBeresnev/tiebreak/internal/bracket"
	"github.com/AdamBeresnev/tiebreak/internal/db"
	"github.com/AdamBeresnev/tiebreak/internal/middleware"
	"github.com/AdamBeresnev/tiebreak/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err, "Failed to connect to in-memory DB")
	database.SetMaxOpenConns(1)

	require.NoError(t, db.RunMigrations(database.DB, "../../migrations"), "Failed to apply migrations")
	t.Cleanup(func() { database.Close() })
	return database
}

type recordingNotifier struct {
	mu        sync.Mutex
	published []string
	deleted   []string
}

func (n *recordingNotifier) Publish(room string, _ any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.published = append(n.published, room)
}

func (n *recordingNotifier) PublishDeleted(room string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deleted = append(n.deleted, room)
}

// identitySource keeps shuffles in input order.
type identitySource struct{}

func (identitySource) IntN(n int) int { return n - 1 }

func newTestService(t *testing.T) (*TournamentService, *recordingNotifier) {
	t.Helper()
	notifier := &recordingNotifier{}
	svc := NewTournamentService(
		store.NewTournamentStore(setupTestDB(t)),
		bracket.NewEngine(identitySource{}, nil),
		notifier,
	)
	return svc, notifier
}

func asUser(id uuid.UUID) context.Context {
	return middleware.WithUserID(context.Background(), id)
}

func TestCreateTournament(t *testing.T) {
	svc, _ := newTestService(t)
	owner := uuid.New()

	created, err := svc.CreateTournament(asUser(owner), "  Friday Cup ", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "Friday Cup", created.Name)
	assert.Equal(t, bracket.TournamentPending, created.Status)
	assert.NotEqual(t, "hunter2", created.PasswordHash)
	require.NotNil(t, created.OwnerID)
	assert.Equal(t, owner.String(), *created.OwnerID)

	fetched, err := svc.GetTournament(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Empty(t, fetched.Players)
	assert.Empty(t, fetched.Rounds)

	anonymous, err := svc.CreateTournament(context.Background(), "Open Cup", "pw")
	require.NoError(t, err)
	assert.Nil(t, anonymous.OwnerID)
}

func TestCreateTournamentValidation(t *testing.T) {
	svc, _ := newTestService(t)

	testCases := []struct {
		name     string
		tourName string
		password string
	}{
		{name: "missing name", tourName: "   ", password: "pw"},
		{name: "missing password", tourName: "Cup", password: ""},
		{name: "name too long", tourName: string(make([]byte, 101)), password: "pw"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateTournament(context.Background(), tc.tourName, tc.password)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestCreateDemoTournament(t *testing.T) {
	svc, _ := newTestService(t)
	svc.now = func() time.Time { return time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC) }

	demo, err := svc.CreateDemoTournament(context.Background(), 10)
	require.NoError(t, err)
	assert.True(t, demo.IsDemo)
	assert.Nil(t, demo.OwnerID)
	assert.Equal(t, "Demo Tournament 20261019T093000", demo.Name)
	assert.Len(t, demo.Players, 10)

	verified, err := svc.VerifyPassword(context.Background(), demo.Name, DemoPassword)
	require.NoError(t, err)
	assert.Equal(t, demo.ID, verified.ID)

	for _, count := range []int{3, 129} {
		_, err := svc.CreateDemoTournament(context.Background(), count)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
}

func TestFindAndVerifyPassword(t *testing.T) {
	svc, _ := newTestService(t)
	created, err := svc.CreateTournament(context.Background(), "Beach Cup", "sand")
	require.NoError(t, err)

	found, err := svc.FindByName(context.Background(), "beach cup")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = svc.VerifyPassword(context.Background(), "BEACH CUP", "wrong")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	_, err = svc.VerifyPassword(context.Background(), "Beach Cup", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.VerifyPassword(context.Background(), "Mountain Cup", "sand")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestApplyFullTournament(t *testing.T) {
	svc, notifier := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateTournament(ctx, "Eight", "pw")
	require.NoError(t, err)

	names := []string{"Ana", "Luis", "Sofia", "Diego", "Carmen", "Jorge", "Elena", "Raul"}
	_, err = svc.Apply(ctx, created.ID, bracket.AddPlayers{Names: names})
	require.NoError(t, err)

	tournament, err := svc.Apply(ctx, created.ID, bracket.StartTournament{})
	require.NoError(t, err)
	require.Len(t, tournament.Rounds, 1)

	for _, m := range tournament.Rounds[0].Matches {
		tournament, err = svc.Apply(ctx, created.ID, bracket.RecordMatchResult{MatchID: m.ID, WinnerTeam: bracket.Team1})
		require.NoError(t, err)
	}
	tournament, err = svc.Apply(ctx, created.ID, bracket.AdvanceRound{})
	require.NoError(t, err)
	require.Len(t, tournament.Rounds, 2)

	final := tournament.Rounds[1].Matches[0]
	tournament, err = svc.Apply(ctx, created.ID, bracket.RecordMatchResult{MatchID: final.ID, WinnerTeam: bracket.Team2})
	require.NoError(t, err)
	assert.Equal(t, bracket.TournamentCompleted, tournament.Status)

	stored, err := svc.GetTournament(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, bracket.TournamentCompleted, stored.Status)
	assert.Len(t, stored.Winners(), 2)
	assert.NoError(t, stored.Validate())

	// add, start, two results, advance, final
	assert.Len(t, notifier.published, 6)
}

func TestApplyFailureIsNotPersisted(t *testing.T) {
	svc, notifier := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateTournament(ctx, "Tiny", "pw")
	require.NoError(t, err)
	_, err = svc.Apply(ctx, created.ID, bracket.AddPlayers{Names: []string{"A", "B", "C"}})
	require.NoError(t, err)

	_, err = svc.Apply(ctx, created.ID, bracket.StartTournament{})
	assert.ErrorIs(t, err, bracket.ErrTooFewPlayers)
	assert.Equal(t, bracket.KindPrecondition, bracket.KindOf(err))

	stored, err := svc.GetTournament(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, bracket.TournamentPending, stored.Status)
	assert.Len(t, notifier.published, 1)

	_, err = svc.Apply(ctx, "missing", bracket.StartTournament{})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestApplyRequiresOwner(t *testing.T) {
	svc, _ := newTestService(t)
	owner := uuid.New()

	created, err := svc.CreateTournament(asUser(owner), "Owned", "pw")
	require.NoError(t, err)

	_, err = svc.Apply(asUser(uuid.New()), created.ID, bracket.AddPlayers{Names: []string{"Intruder"}})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Apply(context.Background(), created.ID, bracket.AddPlayers{Names: []string{"Anonymous"}})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.Apply(asUser(owner), created.ID, bracket.AddPlayers{Names: []string{"Owner"}})
	require.NoError(t, err)
	assert.Len(t, updated.Players, 1)
}

func TestGuestTournamentsHaveNoOwner(t *testing.T) {
	svc, _ := newTestService(t)
	guest := asUser(GuestUserID)

	created, err := svc.CreateTournament(guest, "Guest Cup", "pw")
	require.NoError(t, err)
	assert.Nil(t, created.OwnerID)

	stored, err := svc.GetTournament(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.OwnerID)

	// Another visitor on the guest account has no more rights than an anonymous one.
	updated, err := svc.Apply(guest, created.ID, bracket.AddPlayers{Names: []string{"Walk-in"}})
	require.NoError(t, err)
	assert.Len(t, updated.Players, 1)

	_, err = svc.CreateTournament(asUser(uuid.New()), "Owned", "pw")
	require.NoError(t, err)

	listed, err := svc.GetTournamentsForUser(guest)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestGuestCannotModifyOwnedTournament(t *testing.T) {
	svc, _ := newTestService(t)
	legacy := GuestUserID.String()

	created, err := svc.CreateTournament(asUser(uuid.New()), "Owned", "pw")
	require.NoError(t, err)
	_, err = svc.Apply(asUser(GuestUserID), created.ID, bracket.AddPlayers{Names: []string{"Intruder"}})
	assert.ErrorIs(t, err, ErrForbidden)

	// Rows stored with the guest account as owner are not writable through it.
	assert.False(t, canModify(asUser(GuestUserID), &bracket.Tournament{OwnerID: &legacy}))
}

func TestGetTournamentsForUser(t *testing.T) {
	svc, _ := newTestService(t)
	owner := uuid.New()

	_, err := svc.CreateTournament(asUser(owner), "Mine", "pw")
	require.NoError(t, err)
	_, err = svc.CreateTournament(asUser(uuid.New()), "Theirs", "pw")
	require.NoError(t, err)

	mine, err := svc.GetTournamentsForUser(asUser(owner))
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Mine", mine[0].Name)

	_, err = svc.GetTournamentsForUser(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAdminOperations(t *testing.T) {
	svc, notifier := newTestService(t)
	ctx := context.Background()

	owned, err := svc.CreateTournament(asUser(uuid.New()), "Owned", "pw")
	require.NoError(t, err)
	demo, err := svc.CreateDemoTournament(ctx, 9)
	require.NoError(t, err)

	started, err := svc.Apply(ctx, demo.ID, bracket.StartTournament{})
	require.NoError(t, err)
	_, err = svc.Apply(ctx, demo.ID, bracket.RecordMatchResult{MatchID: started.Rounds[0].Matches[0].ID, WinnerTeam: bracket.Team1})
	require.NoError(t, err)

	list, err := svc.AdminList(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	summaries := map[string]bracket.Summary{}
	for _, item := range list {
		summaries[item.ID] = item.Summary
	}
	assert.Equal(t, bracket.Summary{PlayerCount: 9, ActivePlayerCount: 7, RoundCount: 1, CompletedMatchesCount: 1}, summaries[demo.ID])
	assert.Equal(t, bracket.Summary{}, summaries[owned.ID])

	reset, err := svc.AdminReset(ctx, demo.ID)
	require.NoError(t, err)
	assert.Equal(t, bracket.TournamentPending, reset.Status)
	assert.Equal(t, 9, bracket.ActiveCount(reset.Players))

	// Admin reset ignores ownership
	_, err = svc.AdminReset(ctx, owned.ID)
	require.NoError(t, err)

	require.NoError(t, svc.AdminDelete(ctx, owned.ID))
	assert.Equal(t, []string{owned.ID}, notifier.deleted)
	assert.ErrorIs(t, svc.AdminDelete(ctx, owned.ID), store.ErrNotFound)
}

func TestPurgeStaleDemos(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	svc.now = func() time.Time { return now.Add(-48 * time.Hour) }
	stale, err := svc.CreateDemoTournament(ctx, 4)
	require.NoError(t, err)

	svc.now = func() time.Time { return now }
	fresh, err := svc.CreateDemoTournament(ctx, 4)
	require.NoError(t, err)

	deleted, err := svc.PurgeStaleDemos(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = svc.GetTournament(ctx, stale.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = svc.GetTournament(ctx, fresh.ID)
	assert.NoError(t, err)
}

func TestShareHash(t *testing.T) {
	svc, _ := newTestService(t)
	created, err := svc.CreateTournament(context.Background(), "Shared", "pw")
	require.NoError(t, err)

	hash := EncodeShareHash(created.ID)
	assert.NotContains(t, hash, "=")

	fetched, err := svc.GetByShareHash(context.Background(), hash)
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)

	_, err = svc.GetByShareHash(context.Background(), "%%%")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.GetByShareHash(context.Background(), EncodeShareHash("missing"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDemoPlayerNames(t *testing.T) {
	assert.Len(t, DemoPlayerNames(2), MinDemoPlayers)
	assert.Len(t, DemoPlayerNames(500), MaxDemoPlayers)

	names := DemoPlayerNames(MaxDemoPlayers)
	seen := map[string]bool{}
	for _, name := range names {
		assert.False(t, seen[name], name)
		seen[name] = true
	}
	assert.Equal(t, "Carlos Rodríguez", names[0])
}
