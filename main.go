// main.go
//
// Entry point for the Touch11 Legends Go server: loads configuration,
// opens the SQLite database and runs migrations, initializes the session
// orchestrator over the key-value gateway, and serves HTTP.

package main

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/touch11/legends/go-server/internal/config"
	"github.com/touch11/legends/go-server/internal/httpserver"
	"github.com/touch11/legends/go-server/internal/session"
	"github.com/touch11/legends/go-server/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	db, err := openDB(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	if err := migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	gw := store.NewSQLite(db)
	orch := session.New(gw, cfg.RosterFile, cfg.WordsFile,
		session.WithOffset(cfg.OffsetHours),
	)
	if err := orch.Initialize(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize session orchestrator")
	}
	defer orch.Close()

	srv := httpserver.New(orch, gw, db, cfg)
	log.Info().Str("port", cfg.Port).Msg("starting go-server")
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
