package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/AdamBeresnev/tiebreak/internal/bracket"
	"github.com/AdamBeresnev/tiebreak/internal/middleware"
	"github.com/AdamBeresnev/tiebreak/internal/store"
	"golang.org/x/crypto/bcrypt"
)

const (
	DemoPassword       = "demo"
	MinDemoPlayers     = 4
	MaxDemoPlayers     = 128
	maxTournamentName  = 100
	demoNameTimeFormat = "20060102T150405"
)

var (
	ErrForbidden       = errors.New("only the tournament owner can modify this tournament")
	ErrInvalidPassword = errors.New("incorrect password")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthenticated = errors.New("user ID not found in the context")
)

// TournamentRepository is implemented by store.TournamentStore and store.MongoTournamentStore.
type TournamentRepository interface {
	Create(ctx context.Context, t *bracket.Tournament) error
	Get(ctx context.Context, id string) (*bracket.Tournament, error)
	FindByName(ctx context.Context, name string) (*bracket.Tournament, error)
	List(ctx context.Context) ([]*bracket.Tournament, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*bracket.Tournament, error)
	Update(ctx context.Context, id string, fn store.UpdateFunc) (*bracket.Tournament, error)
	Delete(ctx context.Context, id string) error
	DeleteDemosCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Notifier is told about every tournament that changed or disappeared.
type Notifier interface {
	Publish(room string, payload any)
	PublishDeleted(room string)
}

type nopNotifier struct{}

func (nopNotifier) Publish(string, any)   {}
func (nopNotifier) PublishDeleted(string) {}

type TournamentService struct {
	repo     TournamentRepository
	engine   *bracket.Engine
	notifier Notifier
	now      func() time.Time
}

func NewTournamentService(repo TournamentRepository, engine *bracket.Engine, notifier Notifier) *TournamentService {
	if engine == nil {
		engine = bracket.NewEngine(nil, nil)
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &TournamentService{repo: repo, engine: engine, notifier: notifier, now: time.Now}
}

// AdminTournament is a tournament plus the counters shown on the admin overview.
type AdminTournament struct {
	*bracket.Tournament
	bracket.Summary
}

// CreateTournament stores a new PENDING tournament owned by the logged-in user, if any.
// Guests share one account, so their tournaments are left without an owner.
func (s *TournamentService) CreateTournament(ctx context.Context, name, password string) (*bracket.Tournament, error) {
	name = strings.TrimSpace(name)
	if name == "" || password == "" {
		return nil, fmt.Errorf("%w: name and password are required", ErrInvalidInput)
	}
	if len(name) > maxTournamentName {
		return nil, fmt.Errorf("%w: name exceeds %d characters", ErrInvalidInput, maxTournamentName)
	}

	tournament, err := s.newTournament(name, password)
	if err != nil {
		return nil, err
	}
	if owner, ok := ownerFromContext(ctx); ok {
		tournament.OwnerID = &owner
	}

	if err := s.repo.Create(ctx, tournament); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	slog.Info("tournament created", "tournament_id", tournament.ID, "owned", tournament.OwnerID != nil)
	return tournament, nil
}

// CreateDemoTournament stores a PENDING tournament already filled with playerCount generated players.
// Demo tournaments have no owner and use DemoPassword.
func (s *TournamentService) CreateDemoTournament(ctx context.Context, playerCount int) (*bracket.Tournament, error) {
	if playerCount < MinDemoPlayers || playerCount > MaxDemoPlayers {
		return nil, fmt.Errorf("%w: player count must be between %d and %d", ErrInvalidInput, MinDemoPlayers, MaxDemoPlayers)
	}

	tournament, err := s.newTournament("Demo Tournament "+s.now().UTC().Format(demoNameTimeFormat), DemoPassword)
	if err != nil {
		return nil, err
	}
	tournament.IsDemo = true

	tournament, err = s.engine.Apply(tournament, bracket.AddPlayers{Names: DemoPlayerNames(playerCount)})
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, tournament); err != nil {
		return nil, fmt.Errorf("failed to create demo tournament: %w", err)
	}
	slog.Info("demo tournament created", "tournament_id", tournament.ID, "players", playerCount)
	return tournament, nil
}

func (s *TournamentService) newTournament(name, password string) (*bracket.Tournament, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return &bracket.Tournament{
		ID:           s.engine.NewID(),
		Name:         name,
		PasswordHash: string(hash),
		Status:       bracket.TournamentPending,
		Players:      []bracket.Player{},
		Rounds:       []bracket.Round{},
		CreatedAt:    s.now().UTC(),
	}, nil
}

func (s *TournamentService) GetTournament(ctx context.Context, id string) (*bracket.Tournament, error) {
	return s.repo.Get(ctx, id)
}

// GetByShareHash resolves the read-only link handed to players.
func (s *TournamentService) GetByShareHash(ctx context.Context, hash string) (*bracket.Tournament, error) {
	id, err := DecodeShareHash(hash)
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *TournamentService) FindByName(ctx context.Context, name string) (*bracket.Tournament, error) {
	return s.repo.FindByName(ctx, strings.TrimSpace(name))
}

// VerifyPassword finds the tournament by name and checks password against its hash.
func (s *TournamentService) VerifyPassword(ctx context.Context, name, password string) (*bracket.Tournament, error) {
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}

	tournament, err := s.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(tournament.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidPassword
	}
	return tournament, nil
}

func (s *TournamentService) GetTournamentsForUser(ctx context.Context) ([]*bracket.Tournament, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}
	if userID == GuestUserID {
		return []*bracket.Tournament{}, nil
	}
	return s.repo.ListByOwner(ctx, userID.String())
}

// Apply runs op against the stored tournament and persists the result. The caller must be allowed
// to modify the tournament. Nothing is stored when op fails.
func (s *TournamentService) Apply(ctx context.Context, id string, op bracket.Operation) (*bracket.Tournament, error) {
	return s.apply(ctx, id, op, true)
}

func (s *TournamentService) apply(ctx context.Context, id string, op bracket.Operation, checkOwner bool) (*bracket.Tournament, error) {
	var before bracket.TournamentStatus
	next, err := s.repo.Update(ctx, id, func(current *bracket.Tournament) (*bracket.Tournament, error) {
		if checkOwner && !canModify(ctx, current) {
			return nil, ErrForbidden
		}
		before = current.Status
		return s.engine.Apply(current, op)
	})
	if err != nil {
		return nil, err
	}

	if next.Status != before {
		slog.Info("tournament status changed", "tournament_id", id, "operation", op.Name(), "from", before, "to", next.Status)
	}
	s.notifier.Publish(id, next)
	return next, nil
}

func canModify(ctx context.Context, t *bracket.Tournament) bool {
	userID, _ := ownerFromContext(ctx)
	return middleware.CanModifyTournament(userID, t.OwnerID)
}

// ownerFromContext returns the user that may own tournaments. The shared guest account never does.
func ownerFromContext(ctx context.Context) (string, bool) {
	id, ok := middleware.GetUserIDFromContext(ctx)
	if !ok || id == GuestUserID {
		return "", false
	}
	return id.String(), true
}

// AdminList returns every tournament, newest first, with its summary counters.
func (s *TournamentService) AdminList(ctx context.Context) ([]AdminTournament, error) {
	tournaments, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]AdminTournament, 0, len(tournaments))
	for _, t := range tournaments {
		out = append(out, AdminTournament{Tournament: t, Summary: t.Summary()})
	}
	return out, nil
}

func (s *TournamentService) AdminDelete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("tournament deleted by admin", "tournament_id", id)
	s.notifier.PublishDeleted(id)
	return nil
}

// AdminReset clears every result regardless of ownership.
func (s *TournamentService) AdminReset(ctx context.Context, id string) (*bracket.Tournament, error) {
	return s.apply(ctx, id, bracket.ResetResults{}, false)
}

// PurgeStaleDemos deletes demo tournaments older than retention.
func (s *TournamentService) PurgeStaleDemos(ctx context.Context, retention time.Duration) (int64, error) {
	deleted, err := s.repo.DeleteDemosCreatedBefore(ctx, s.now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("failed to purge demo tournaments: %w", err)
	}
	if deleted > 0 {
		slog.Info("stale demo tournaments purged", "count", deleted)
	}
	return deleted, nil
}

// EncodeShareHash turns a tournament id into the token used in player links.
func EncodeShareHash(id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id))
}

func DecodeShareHash(hash string) (string, error) {
	id, err := base64.RawURLEncoding.DecodeString(hash)
	if err != nil || len(id) == 0 {
		return "", fmt.Errorf("%w: invalid tournament link", ErrInvalidInput)
	}
	return string(id), nil
}
