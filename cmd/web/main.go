package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AdamBeresnev/tiebreak/internal/bracket"
	"github.com/AdamBeresnev/tiebreak/internal/config"
	"github.com/AdamBeresnev/tiebreak/internal/db"
	"github.com/AdamBeresnev/tiebreak/internal/live"
	"github.com/AdamBeresnev/tiebreak/internal/middleware"
	"github.com/AdamBeresnev/tiebreak/internal/service"
	"github.com/AdamBeresnev/tiebreak/internal/store"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("application exited with error", "error", err)
		os.Exit(1)
	}
	slog.Info("application exited")
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	database, err := db.InitDB(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.RunMigrations(database.DB, cfg.MigrationsDir); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var repo service.TournamentRepository = store.NewTournamentStore(database)
	if cfg.MongoURI != "" {
		client, mongoDB, err := db.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return err
		}
		defer func() {
			if err := client.Disconnect(context.Background()); err != nil {
				slog.Error("failed to disconnect mongo", "error", err)
			}
		}()

		mongoStore := store.NewMongoTournamentStore(mongoDB)
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			return err
		}
		repo = mongoStore
	}

	hub := live.NewHub(cfg.AllowedOrigins)
	app := &application{
		cfg:         cfg,
		tournaments: service.NewTournamentService(repo, bracket.NewEngine(nil, nil), hub),
		users:       service.NewUserService(store.NewUserStore(database)),
		userStore:   store.NewUserStore(database),
		hub:         hub,
	}

	middleware.InitAuth(cfg.Google, cfg.Discord)

	app.sessions = scs.New()
	app.sessions.Lifetime = cfg.SessionLifetime
	app.sessions.Store = sqlite3store.New(database.DB)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.CleanupSchedule, func() {
		if _, err := app.tournaments.PurgeStaleDemos(context.Background(), cfg.DemoRetention); err != nil {
			slog.Error("scheduled demo purge failed", "error", err)
		}
	}); err != nil {
		return err
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	server := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     newRouter(app),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
		ErrorLog:    slog.NewLogLogger(slog.Default().Handler(), slog.LevelError),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server starting", "address", server.Addr, "mongo", cfg.MongoURI != "")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server", "timeout", shutdownTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
