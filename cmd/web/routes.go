package main

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/AdamBeresnev/tiebreak/internal/config"
	"github.com/AdamBeresnev/tiebreak/internal/httputil"
	"github.com/AdamBeresnev/tiebreak/internal/live"
	"github.com/AdamBeresnev/tiebreak/internal/middleware"
	"github.com/AdamBeresnev/tiebreak/internal/service"
	"github.com/AdamBeresnev/tiebreak/internal/store"
	"github.com/AdamBeresnev/tiebreak/views"
	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/markbates/goth/gothic"
)

type application struct {
	cfg         *config.Config
	tournaments *service.TournamentService
	users       *service.UserService
	userStore   *store.UserStore
	hub         *live.Hub
	sessions    *scs.SessionManager
}

func newRouter(app *application) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(app.sessions.LoadAndSave)
	r.Use(middleware.LoadAuthenticatedUser(app.sessions, app.userStore))

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   app.cfg.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", middleware.AdminPasswordHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))

		r.Post("/tournaments", app.createTournament)
		r.Post("/tournaments/demo", app.createDemoTournament)
		r.Get("/tournaments/find/{name}", app.findTournament)
		r.Post("/tournaments/find/{name}", app.verifyTournamentPassword)

		r.Route("/tournaments/{id}", func(r chi.Router) {
			r.Get("/", app.getTournament)
			r.Put("/players", app.addPlayers)
			r.Delete("/players/{playerID}", app.removePlayer)
			r.Post("/start", app.startTournament)
			r.Post("/results", app.recordResult)
			r.Delete("/results/{matchID}", app.undoResult)
			r.Post("/rounds/next", app.advanceRound)
			r.Delete("/rounds/{roundNumber}", app.deleteRound)
			r.Post("/rounds/{roundNumber}/redraw", app.redrawRound)
			r.Patch("/reset-results", app.resetResults)
		})

		r.Get("/players/{hash}", app.getTournamentByShareHash)

		r.With(middleware.RequireAuth).Get("/me/tournaments", app.myTournaments)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(app.cfg.AdminPassword))

			r.Get("/tournaments", app.adminListTournaments)
			r.Delete("/tournaments/{id}", app.adminDeleteTournament)
			r.Patch("/tournaments/{id}/reset", app.adminResetTournament)
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetUserIDFromContext(r.Context()); !ok {
			views.Render(w, r, views.HomePage(nil))
			return
		}

		tournaments, err := app.tournaments.GetTournamentsForUser(r.Context())
		if err != nil {
			httputil.InternalServerError(w, "Failed to get tournaments", err)
			return
		}
		views.Render(w, r, views.HomePage(tournaments))
	})

	r.Get("/tournaments/{id}", func(w http.ResponseWriter, r *http.Request) {
		tournament, err := app.tournaments.GetTournament(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			app.renderPageError(w, r, err)
			return
		}
		views.Render(w, r, views.TournamentPage(views.PrepareTournamentData(tournament, service.EncodeShareHash(tournament.ID))))
	})

	r.Get("/players/{hash}", func(w http.ResponseWriter, r *http.Request) {
		tournament, err := app.tournaments.GetByShareHash(r.Context(), chi.URLParam(r, "hash"))
		if err != nil {
			app.renderPageError(w, r, err)
			return
		}
		views.Render(w, r, views.TournamentPage(views.PrepareTournamentData(tournament, "")))
	})

	r.Get("/tournaments/{id}/live", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		tournament, err := app.tournaments.GetTournament(r.Context(), id)
		if err != nil {
			httputil.FromError(w, "Failed to get tournament", err)
			return
		}

		// Upgrade failures have already been answered by the upgrader
		if err := app.hub.Serve(w, r, id, tournament); err != nil {
			slog.Warn("websocket upgrade failed", "tournament_id", id, "error", err)
		}
	})

	r.Get("/auth/{provider}", func(w http.ResponseWriter, r *http.Request) {
		r = gothic.GetContextWithProvider(r, chi.URLParam(r, "provider"))
		gothic.BeginAuthHandler(w, r)
	})

	r.Get("/auth/{provider}/callback", func(w http.ResponseWriter, r *http.Request) {
		r = gothic.GetContextWithProvider(r, chi.URLParam(r, "provider"))

		gothUser, err := gothic.CompleteUserAuth(w, r)
		if err != nil {
			httputil.BadRequest(w, "Authentication failure", err)
			return
		}

		user, err := app.users.FindOrCreateUserByProvider(r.Context(), gothUser)
		if err != nil {
			httputil.InternalServerError(w, "Failed to find or create user", err)
			return
		}

		app.sessions.Put(r.Context(), middleware.SessionUserKey, user.ID.String())
		http.Redirect(w, r, "/", http.StatusFound)
	})

	r.Post("/auth/guest", func(w http.ResponseWriter, r *http.Request) {
		user, err := app.users.EnsureGuestUser(r.Context())
		if err != nil {
			httputil.InternalServerError(w, "Failed to login as guest", err)
			return
		}

		app.sessions.Put(r.Context(), middleware.SessionUserKey, user.ID.String())
		http.Redirect(w, r, "/", http.StatusFound)
	})

	r.Post("/logout", func(w http.ResponseWriter, r *http.Request) {
		if err := app.sessions.Destroy(r.Context()); err != nil {
			httputil.InternalServerError(w, "Failed to log out", err)
			return
		}
		http.Redirect(w, r, "/", http.StatusFound)
	})

	return r
}

func (app *application) renderPageError(w http.ResponseWriter, r *http.Request, err error) {
	status := serviceErrorStatus(err)
	if status == http.StatusInternalServerError {
		httputil.InternalServerError(w, "Failed to get tournament", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := views.NotFoundPage("This tournament does not exist or the link is broken.").Render(r.Context(), w); err != nil {
		slog.Error("failed to render page", "error", err)
	}
}

// serviceErrorStatus extends httputil.StatusFor with the service layer's errors.
func serviceErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidPassword), errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	}
	return httputil.StatusFor(err)
}

func writeServiceError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		httputil.Forbidden(w, err.Error(), err)
	case errors.Is(err, service.ErrInvalidPassword), errors.Is(err, service.ErrUnauthenticated):
		httputil.Unauthorized(w, err.Error(), err)
	case errors.Is(err, service.ErrInvalidInput):
		httputil.BadRequest(w, err.Error(), err)
	default:
		httputil.FromError(w, msg, err)
	}
}
