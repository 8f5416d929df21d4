package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"kaisan-bot/model"
)

// Load reads the configuration from the environment, with an optional
// .env file. BOT_TOKEN is the only required setting.
func Load() (*model.Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg(".env file not found, relying on environment variables")
	}

	v := viper.New()
	v.SetDefault("db_path", "data/kaisan.db")
	v.SetDefault("default_timezone", "Asia/Tokyo")
	v.SetDefault("command_prefix", "!kaisan")
	v.SetDefault("poll_interval", 10*time.Second)
	v.SetDefault("dispatch_timeout", 15*time.Second)
	v.SetDefault("log_level", "info")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	token := v.GetString("bot_token")
	if token == "" {
		return nil, fmt.Errorf("BOT_TOKEN environment variable not set")
	}

	tz := v.GetString("default_timezone")
	if _, err := time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_TIMEZONE %q: %w", tz, err)
	}

	cfg := &model.Config{
		BotToken:        token,
		DBPath:          v.GetString("db_path"),
		DefaultTimezone: tz,
		CommandPrefix:   v.GetString("command_prefix"),
		PollInterval:    v.GetDuration("poll_interval"),
		DispatchTimeout: v.GetDuration("dispatch_timeout"),
		LogLevel:        v.GetString("log_level"),
		LogWebhookURL:   v.GetString("log_webhook_url"),
	}

	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL must be positive, got %s", cfg.PollInterval)
	}
	if cfg.DispatchTimeout <= 0 {
		return nil, fmt.Errorf("DISPATCH_TIMEOUT must be positive, got %s", cfg.DispatchTimeout)
	}

	return cfg, nil
}
