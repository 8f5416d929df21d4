package main

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"kaisan-bot/bot"
	"kaisan-bot/config"
	"kaisan-bot/handlers"
	"kaisan-bot/utils"
	"kaisan-bot/utils/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	utils.SetupLogger(cfg.LogLevel)

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			log.Fatal().Err(err).Str("dir", dir).Msg("failed to create data directory")
		}
	}

	db, err := database.Init(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("failed to open database")
	}
	defer db.Close()

	b, err := bot.New(cfg, db)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create bot")
	}
	handlers.Register(b)

	b.Run()
	b.Close()
}
