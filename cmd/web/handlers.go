package main

import (
	"net/http"
	"strconv"

	"github.com/AdamBeresnev/tiebreak/internal/bracket"
	"github.com/AdamBeresnev/tiebreak/internal/httputil"
	"github.com/AdamBeresnev/tiebreak/internal/service"
	"github.com/go-chi/chi/v5"
)

type createTournamentRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type createDemoRequest struct {
	PlayerCount int `json:"playerCount"`
}

type passwordRequest struct {
	Password string `json:"password"`
}

type addPlayersRequest struct {
	Names []string `json:"names"`
}

type recordResultRequest struct {
	MatchID    string           `json:"matchId"`
	WinnerTeam bracket.TeamSlot `json:"winnerTeam"`
}

type tournamentResponse struct {
	*bracket.Tournament
	ShareHash string `json:"shareHash"`
}

func newTournamentResponse(t *bracket.Tournament) tournamentResponse {
	return tournamentResponse{Tournament: t, ShareHash: service.EncodeShareHash(t.ID)}
}

func (app *application) createTournament(w http.ResponseWriter, r *http.Request) {
	var req createTournamentRequest
	if err := httputil.ReadJSON(w, r, &req); err != nil {
		httputil.BadRequest(w, "Invalid request body", err)
		return
	}

	tournament, err := app.tournaments.CreateTournament(r.Context(), req.Name, req.Password)
	if err != nil {
		writeServiceError(w, "Failed to create tournament", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, newTournamentResponse(tournament))
}

func (app *application) createDemoTournament(w http.ResponseWriter, r *http.Request) {
	var req createDemoRequest
	if err := httputil.ReadJSON(w, r, &req); err != nil {
		httputil.BadRequest(w, "Invalid request body", err)
		return
	}

	tournament, err := app.tournaments.CreateDemoTournament(r.Context(), req.PlayerCount)
	if err != nil {
		writeServiceError(w, "Failed to create demo tournament", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, newTournamentResponse(tournament))
}

func (app *application) findTournament(w http.ResponseWriter, r *http.Request) {
	tournament, err := app.tournaments.FindByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeServiceError(w, "Failed to find tournament", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"id": tournament.ID, "name": tournament.Name})
}

func (app *application) verifyTournamentPassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := httputil.ReadJSON(w, r, &req); err != nil {
		httputil.BadRequest(w, "Invalid request body", err)
		return
	}

	tournament, err := app.tournaments.VerifyPassword(r.Context(), chi.URLParam(r, "name"), req.Password)
	if err != nil {
		writeServiceError(w, "Failed to verify password", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newTournamentResponse(tournament))
}

func (app *application) getTournament(w http.ResponseWriter, r *http.Request) {
	tournament, err := app.tournaments.GetTournament(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "Failed to get tournament", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newTournamentResponse(tournament))
}

func (app *application) getTournamentByShareHash(w http.ResponseWriter, r *http.Request) {
	tournament, err := app.tournaments.GetByShareHash(r.Context(), chi.URLParam(r, "hash"))
	if err != nil {
		writeServiceError(w, "Failed to get tournament", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tournament)
}

func (app *application) addPlayers(w http.ResponseWriter, r *http.Request) {
	var req addPlayersRequest
	if err := httputil.ReadJSON(w, r, &req); err != nil {
		httputil.BadRequest(w, "Invalid request body", err)
		return
	}
	app.apply(w, r, bracket.AddPlayers{Names: req.Names})
}

func (app *application) removePlayer(w http.ResponseWriter, r *http.Request) {
	app.apply(w, r, bracket.RemovePlayer{PlayerID: chi.URLParam(r, "playerID")})
}

func (app *application) startTournament(w http.ResponseWriter, r *http.Request) {
	app.apply(w, r, bracket.StartTournament{})
}

func (app *application) recordResult(w http.ResponseWriter, r *http.Request) {
	var req recordResultRequest
	if err := httputil.ReadJSON(w, r, &req); err != nil {
		httputil.BadRequest(w, "Invalid request body", err)
		return
	}
	app.apply(w, r, bracket.RecordMatchResult{MatchID: req.MatchID, WinnerTeam: req.WinnerTeam})
}

func (app *application) undoResult(w http.ResponseWriter, r *http.Request) {
	app.apply(w, r, bracket.UndoMatchResult{MatchID: chi.URLParam(r, "matchID")})
}

func (app *application) advanceRound(w http.ResponseWriter, r *http.Request) {
	app.apply(w, r, bracket.AdvanceRound{})
}

func (app *application) deleteRound(w http.ResponseWriter, r *http.Request) {
	roundNumber, ok := roundNumberParam(w, r)
	if !ok {
		return
	}
	app.apply(w, r, bracket.DeleteRound{RoundNumber: roundNumber})
}

func (app *application) redrawRound(w http.ResponseWriter, r *http.Request) {
	roundNumber, ok := roundNumberParam(w, r)
	if !ok {
		return
	}
	app.apply(w, r, bracket.RedrawRound{RoundNumber: roundNumber})
}

func (app *application) resetResults(w http.ResponseWriter, r *http.Request) {
	app.apply(w, r, bracket.ResetResults{})
}

func (app *application) apply(w http.ResponseWriter, r *http.Request, op bracket.Operation) {
	tournament, err := app.tournaments.Apply(r.Context(), chi.URLParam(r, "id"), op)
	if err != nil {
		writeServiceError(w, "Failed to "+op.Name(), err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newTournamentResponse(tournament))
}

func roundNumberParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	roundNumber, err := strconv.Atoi(chi.URLParam(r, "roundNumber"))
	if err != nil || roundNumber < 0 {
		httputil.BadRequest(w, "Invalid round number", err)
		return 0, false
	}
	return roundNumber, true
}

func (app *application) myTournaments(w http.ResponseWriter, r *http.Request) {
	tournaments, err := app.tournaments.GetTournamentsForUser(r.Context())
	if err != nil {
		writeServiceError(w, "Failed to get tournaments", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tournaments)
}

func (app *application) adminListTournaments(w http.ResponseWriter, r *http.Request) {
	tournaments, err := app.tournaments.AdminList(r.Context())
	if err != nil {
		writeServiceError(w, "Failed to list tournaments", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tournaments)
}

func (app *application) adminDeleteTournament(w http.ResponseWriter, r *http.Request) {
	if err := app.tournaments.AdminDelete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, "Failed to delete tournament", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *application) adminResetTournament(w http.ResponseWriter, r *http.Request) {
	tournament, err := app.tournaments.AdminReset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "Failed to reset tournament", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newTournamentResponse(tournament))
}
