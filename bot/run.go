package bot

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"kaisan-bot/utils"
)

// Run opens the gateway connection, starts the scheduling engine, and
// blocks until the process receives a termination signal.
func (b *Bot) Run() {
	if err := b.Session.Open(); err != nil {
		log.Fatal().Err(err).Msg("failed to open gateway connection")
	}

	go b.engine.Run(b.done)

	log.Info().Msg("bot is now running, press CTRL-C to exit")
	utils.LogInfo(b.GetConfig().LogWebhookURL, "system", "startup", "bot has started successfully")

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc
}

// Close stops the engine loop and the gateway session. Every schedule
// mutation is already durable, so there is nothing to flush.
func (b *Bot) Close() {
	log.Info().Msg("gracefully shutting down")
	close(b.done)
	if err := b.Session.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close session")
	}
}
