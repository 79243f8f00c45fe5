package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/AdamBeresnev/tiebreak/internal/bracket"
	"github.com/jmoiron/sqlx"
)

// TournamentStore keeps the tournament aggregate in sqlite, normalised over the
// tournaments, players, rounds, matches and byes tables. Every write replaces the
// whole aggregate inside a single transaction.
type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

type tournamentRow struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	PasswordHash string    `db:"password_hash"`
	Status       string    `db:"status"`
	CurrentRound int       `db:"current_round"`
	OwnerID      *string   `db:"owner_id"`
	IsDemo       bool      `db:"is_demo"`
	CreatedAt    time.Time `db:"created_at"`
}

type playerRow struct {
	ID           string `db:"id"`
	TournamentID string `db:"tournament_id"`
	Position     int    `db:"position"`
	Name         string `db:"name"`
	IsEliminated bool   `db:"is_eliminated"`
}

type roundRow struct {
	TournamentID string `db:"tournament_id"`
	RoundNumber  int    `db:"round_number"`
	IsComplete   bool   `db:"is_complete"`
}

type matchRow struct {
	ID           string `db:"id"`
	TournamentID string `db:"tournament_id"`
	RoundNumber  int    `db:"round_number"`
	MatchOrder   int    `db:"match_order"`
	Team1Player1 string `db:"team1_player1"`
	Team1Player2 string `db:"team1_player2"`
	Team2Player1 string `db:"team2_player1"`
	Team2Player2 string `db:"team2_player2"`
	WinnerTeam   *int   `db:"winner_team"`
}

type byeRow struct {
	TournamentID string `db:"tournament_id"`
	RoundNumber  int    `db:"round_number"`
	Position     int    `db:"position"`
	PlayerID     string `db:"player_id"`
}

const (
	tournamentColumns = "id, name, password_hash, status, current_round, owner_id, is_demo, created_at"

	insertTournamentQuery = `INSERT INTO tournaments (` + tournamentColumns + `)
		VALUES (:id, :name, :password_hash, :status, :current_round, :owner_id, :is_demo, :created_at)`
	updateTournamentQuery = `UPDATE tournaments SET
		name = :name,
		password_hash = :password_hash,
		status = :status,
		current_round = :current_round,
		owner_id = :owner_id,
		is_demo = :is_demo
		WHERE id = :id`
	insertPlayersQuery = `INSERT INTO players (id, tournament_id, position, name, is_eliminated)
		VALUES (:id, :tournament_id, :position, :name, :is_eliminated)`
	insertRoundsQuery = `INSERT INTO rounds (tournament_id, round_number, is_complete)
		VALUES (:tournament_id, :round_number, :is_complete)`
	insertMatchesQuery = `INSERT INTO matches (id, tournament_id, round_number, match_order, team1_player1, team1_player2, team2_player1, team2_player2, winner_team)
		VALUES (:id, :tournament_id, :round_number, :match_order, :team1_player1, :team1_player2, :team2_player1, :team2_player2, :winner_team)`
	insertByesQuery = `INSERT INTO byes (tournament_id, round_number, position, player_id)
		VALUES (:tournament_id, :round_number, :position, :player_id)`
)

// Create inserts a new tournament with all of its players and rounds.
func (s *TournamentStore) Create(ctx context.Context, t *bracket.Tournament) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx, insertTournamentQuery, toTournamentRow(t)); err != nil {
		return fmt.Errorf("failed to insert tournament: %w", err)
	}
	if err := insertChildren(ctx, tx, t); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *TournamentStore) Get(ctx context.Context, id string) (*bracket.Tournament, error) {
	return loadTournament(ctx, s.db, "SELECT "+tournamentColumns+" FROM tournaments WHERE id = ?", id)
}

// FindByName matches the name exactly, ignoring case. The oldest match wins on duplicates.
func (s *TournamentStore) FindByName(ctx context.Context, name string) (*bracket.Tournament, error) {
	return loadTournament(ctx, s.db,
		"SELECT "+tournamentColumns+" FROM tournaments WHERE name = ? COLLATE NOCASE ORDER BY created_at ASC LIMIT 1", name)
}

func (s *TournamentStore) List(ctx context.Context) ([]*bracket.Tournament, error) {
	return s.list(ctx, "SELECT "+tournamentColumns+" FROM tournaments ORDER BY created_at DESC")
}

func (s *TournamentStore) ListByOwner(ctx context.Context, ownerID string) ([]*bracket.Tournament, error) {
	return s.list(ctx, "SELECT "+tournamentColumns+" FROM tournaments WHERE owner_id = ? ORDER BY created_at DESC", ownerID)
}

func (s *TournamentStore) list(ctx context.Context, query string, args ...any) ([]*bracket.Tournament, error) {
	var rows []tournamentRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	tournaments := make([]*bracket.Tournament, 0, len(rows))
	for _, row := range rows {
		t, err := loadChildren(ctx, s.db, row)
		if err != nil {
			return nil, err
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, nil
}

// Update loads the tournament, hands it to fn and writes the result back, all in one transaction.
func (s *TournamentStore) Update(ctx context.Context, id string, fn UpdateFunc) (*bracket.Tournament, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	current, err := loadTournament(ctx, tx, "SELECT "+tournamentColumns+" FROM tournaments WHERE id = ?", id)
	if err != nil {
		return nil, err
	}

	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	next.ID = id

	if _, err := tx.NamedExecContext(ctx, updateTournamentQuery, toTournamentRow(next)); err != nil {
		return nil, fmt.Errorf("failed to update tournament: %w", err)
	}
	for _, table := range []string{"byes", "matches", "rounds", "players"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE tournament_id = ?", id); err != nil {
			return nil, fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	if err := insertChildren(ctx, tx, next); err != nil {
		return nil, err
	}

	return next, tx.Commit()
}

func (s *TournamentStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM tournaments WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteDemosCreatedBefore removes demo tournaments created before cutoff and returns how many went.
func (s *TournamentStore) DeleteDemosCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM tournaments WHERE is_demo = 1 AND created_at < ?", cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type queryer interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

func loadTournament(ctx context.Context, q queryer, query string, args ...any) (*bracket.Tournament, error) {
	var row tournamentRow
	if err := q.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return loadChildren(ctx, q, row)
}

func loadChildren(ctx context.Context, q queryer, row tournamentRow) (*bracket.Tournament, error) {
	var players []playerRow
	if err := q.SelectContext(ctx, &players, "SELECT * FROM players WHERE tournament_id = ? ORDER BY position ASC", row.ID); err != nil {
		return nil, fmt.Errorf("failed to load players: %w", err)
	}

	var rounds []roundRow
	if err := q.SelectContext(ctx, &rounds, "SELECT * FROM rounds WHERE tournament_id = ? ORDER BY round_number ASC", row.ID); err != nil {
		return nil, fmt.Errorf("failed to load rounds: %w", err)
	}

	var matches []matchRow
	if err := q.SelectContext(ctx, &matches, "SELECT * FROM matches WHERE tournament_id = ? ORDER BY round_number ASC, match_order ASC", row.ID); err != nil {
		return nil, fmt.Errorf("failed to load matches: %w", err)
	}

	var byes []byeRow
	if err := q.SelectContext(ctx, &byes, "SELECT * FROM byes WHERE tournament_id = ? ORDER BY round_number ASC, position ASC", row.ID); err != nil {
		return nil, fmt.Errorf("failed to load byes: %w", err)
	}

	return fromRows(row, players, rounds, matches, byes), nil
}

func insertChildren(ctx context.Context, tx *sqlx.Tx, t *bracket.Tournament) error {
	players, rounds, matches, byes := toChildRows(t)

	if len(players) > 0 {
		if _, err := tx.NamedExecContext(ctx, insertPlayersQuery, players); err != nil {
			return fmt.Errorf("failed to insert players: %w", err)
		}
	}
	if len(rounds) > 0 {
		if _, err := tx.NamedExecContext(ctx, insertRoundsQuery, rounds); err != nil {
			return fmt.Errorf("failed to insert rounds: %w", err)
		}
	}
	if len(matches) > 0 {
		if _, err := tx.NamedExecContext(ctx, insertMatchesQuery, matches); err != nil {
			return fmt.Errorf("failed to insert matches: %w", err)
		}
	}
	if len(byes) > 0 {
		if _, err := tx.NamedExecContext(ctx, insertByesQuery, byes); err != nil {
			return fmt.Errorf("failed to insert byes: %w", err)
		}
	}
	return nil
}

func toTournamentRow(t *bracket.Tournament) tournamentRow {
	return tournamentRow{
		ID:           t.ID,
		Name:         t.Name,
		PasswordHash: t.PasswordHash,
		Status:       string(t.Status),
		CurrentRound: t.CurrentRound,
		OwnerID:      t.OwnerID,
		IsDemo:       t.IsDemo,
		CreatedAt:    t.CreatedAt.UTC(),
	}
}

func toChildRows(t *bracket.Tournament) ([]playerRow, []roundRow, []matchRow, []byeRow) {
	players := make([]playerRow, 0, len(t.Players))
	for i, p := range t.Players {
		players = append(players, playerRow{
			ID:           p.ID,
			TournamentID: t.ID,
			Position:     i,
			Name:         p.Name,
			IsEliminated: p.IsEliminated,
		})
	}

	var rounds []roundRow
	var matches []matchRow
	var byes []byeRow
	for _, r := range t.Rounds {
		rounds = append(rounds, roundRow{TournamentID: t.ID, RoundNumber: r.RoundNumber, IsComplete: r.IsComplete})
		for i, m := range r.Matches {
			row := matchRow{
				ID:           m.ID,
				TournamentID: t.ID,
				RoundNumber:  r.RoundNumber,
				MatchOrder:   i,
				Team1Player1: m.Team1.PlayerIDs[0],
				Team1Player2: m.Team1.PlayerIDs[1],
				Team2Player1: m.Team2.PlayerIDs[0],
				Team2Player2: m.Team2.PlayerIDs[1],
			}
			if m.WinnerTeam != nil {
				winner := int(*m.WinnerTeam)
				row.WinnerTeam = &winner
			}
			matches = append(matches, row)
		}
		for i, id := range r.Byes {
			byes = append(byes, byeRow{TournamentID: t.ID, RoundNumber: r.RoundNumber, Position: i, PlayerID: id})
		}
	}
	return players, rounds, matches, byes
}

func fromRows(row tournamentRow, players []playerRow, rounds []roundRow, matches []matchRow, byes []byeRow) *bracket.Tournament {
	t := &bracket.Tournament{
		ID:           row.ID,
		Name:         row.Name,
		PasswordHash: row.PasswordHash,
		Status:       bracket.TournamentStatus(row.Status),
		CurrentRound: row.CurrentRound,
		Players:      make([]bracket.Player, 0, len(players)),
		Rounds:       make([]bracket.Round, 0, len(rounds)),
		OwnerID:      row.OwnerID,
		IsDemo:       row.IsDemo,
		CreatedAt:    row.CreatedAt,
	}

	for _, p := range players {
		t.Players = append(t.Players, bracket.Player{ID: p.ID, Name: p.Name, IsEliminated: p.IsEliminated})
	}

	index := make(map[int]int, len(rounds))
	for i, r := range rounds {
		index[r.RoundNumber] = i
		t.Rounds = append(t.Rounds, bracket.Round{
			RoundNumber: r.RoundNumber,
			Matches:     []bracket.Match{},
			Byes:        []string{},
			IsComplete:  r.IsComplete,
		})
	}
	for _, m := range matches {
		match := bracket.Match{
			ID:    m.ID,
			Team1: bracket.Team{PlayerIDs: [2]string{m.Team1Player1, m.Team1Player2}},
			Team2: bracket.Team{PlayerIDs: [2]string{m.Team2Player1, m.Team2Player2}},
		}
		if m.WinnerTeam != nil {
			winner := bracket.TeamSlot(*m.WinnerTeam)
			match.WinnerTeam = &winner
		}
		r := &t.Rounds[index[m.RoundNumber]]
		r.Matches = append(r.Matches, match)
	}
	for _, b := range byes {
		r := &t.Rounds[index[b.RoundNumber]]
		r.Byes = append(r.Byes, b.PlayerID)
	}
	return t
}
