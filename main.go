package main

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pheasant/internal/config"
	"github.com/robalobadob/pheasant/internal/httpserver"
	"github.com/robalobadob/pheasant/internal/opponent"
	"github.com/robalobadob/pheasant/internal/storage/sqlite"
	"github.com/robalobadob/pheasant/internal/store"
	"github.com/robalobadob/pheasant/internal/words"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	if err := words.Init(cfg.WordsFile); err != nil {
		log.Fatal().Err(err).Str("path", cfg.WordsFile).Msg("failed to load word list")
	}
	n, prefixes := words.Stats()
	log.Info().Int("words", n).Int("prefixes", prefixes).Msg("dictionary loaded")

	provider, err := opponent.FromConfig(cfg, words.Default())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build opponent")
	}

	db, err := sqlite.Open(context.Background(), cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("failed to open database")
	}
	defer db.Close()

	srv := httpserver.New(cfg, store.NewMemoryStore(), db, provider)
	log.Info().Str("port", cfg.Port).Str("opponent", cfg.Opponent).Msg("starting pheasant server")
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
